package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phantomcommerce/phantom-backend/internal/app/service"
	apperrors "github.com/phantomcommerce/phantom-backend/internal/errors"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
)

type SearchController struct {
	searchService service.SearchService
}

func NewSearchController(searchService service.SearchService) *SearchController {
	return &SearchController{
		searchService: searchService,
	}
}

// Search returns games whose title contains q
// GET /api/v1/search?q=
func (ctrl *SearchController) Search(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	query := strings.TrimSpace(c.Query("q"))

	products, err := ctrl.searchService.Search(c.Request.Context(), query)
	if err != nil {
		log.Error("Search failed", err, map[string]interface{}{
			"query": query,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "search")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"products": products,
		"count":    len(products),
	})
}

// Suggest feeds the search box typeahead
// GET /api/v1/search/suggest?q=
func (ctrl *SearchController) Suggest(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	query := c.Query("q")

	suggestions, err := ctrl.searchService.Suggest(c.Request.Context(), query)
	if err != nil {
		log.Error("Suggest failed", err, map[string]interface{}{
			"query": query,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "search")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
	})
}

// Resolve tells the client where a submitted query should navigate
// GET /api/v1/search/resolve?q=
func (ctrl *SearchController) Resolve(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"route": ctrl.searchService.Resolve(c.Query("q")),
	})
}
