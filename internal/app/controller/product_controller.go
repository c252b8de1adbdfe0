package controller

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/service"
	"github.com/phantomcommerce/phantom-backend/internal/catalog"
	apperrors "github.com/phantomcommerce/phantom-backend/internal/errors"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// CreateProductRequest is the admin "add game" form. Image fields accept
// data URLs or hosted URLs.
type CreateProductRequest struct {
	Title              string                   `json:"title"`
	Description        string                   `json:"description"`
	About              string                   `json:"about"`
	Price              float64                  `json:"price"`
	OldPrice           *float64                 `json:"old_price"`
	Developer          string                   `json:"developer"`
	Publisher          string                   `json:"publisher"`
	ReleaseDate        string                   `json:"release_date"`
	Classification     string                   `json:"classification"`
	Rating             float64                  `json:"rating"`
	HeaderImage        string                   `json:"header_image"`
	CoverImage         string                   `json:"cover_image"`
	GalleryImages      []string                 `json:"gallery_images"`
	Platforms          []string                 `json:"platforms"`
	Categories         []string                 `json:"categories"`
	TrailerURLs        []string                 `json:"trailer_urls"`
	RelatedGames       []string                 `json:"related_games"`
	SystemRequirements model.SystemRequirements `json:"system_requirements"`
}

// ListCategory returns the filtered and sorted games of a category
// GET /api/v1/categories/:slug
func (ctrl *ProductController) ListCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	slug := c.Param("slug")
	state := catalog.ParseFilterState(c.Request.URL.Query())

	listing, err := ctrl.productService.ListCategory(slug, state)
	if err != nil {
		log.Error("Failed to list category", err, map[string]interface{}{
			"slug": slug,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "product list")
		return
	}

	log.Info("Category listed", map[string]interface{}{
		"slug":  slug,
		"count": listing.Count,
		"sort":  listing.State.Sort,
	})

	c.JSON(http.StatusOK, listing)
}

// GetProduct returns a game with its related games
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Jogo inválido.")
		return
	}

	detail, err := ctrl.productService.GetProductDetail(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "Jogo não encontrado.")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "product")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CreateProduct adds a game to the catalog (admin)
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Title:              req.Title,
		Description:        req.Description,
		About:              req.About,
		Price:              req.Price,
		OldPrice:           req.OldPrice,
		Developer:          req.Developer,
		Publisher:          req.Publisher,
		ReleaseDate:        req.ReleaseDate,
		Classification:     req.Classification,
		Rating:             req.Rating,
		HeaderImage:        req.HeaderImage,
		CoverImage:         req.CoverImage,
		GalleryImages:      req.GalleryImages,
		Platforms:          req.Platforms,
		Categories:         req.Categories,
		TrailerURLs:        req.TrailerURLs,
		RelatedGameNames:   req.RelatedGames,
		SystemRequirements: req.SystemRequirements,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProduct):
			log.Warn("Product rejected", map[string]interface{}{
				"title": req.Title,
			})
			apperrors.RespondWithValidationError(c, "Preencha título, preço e ao menos uma categoria.", nil)
		case errors.Is(err, service.ErrImageTooLarge):
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, apperrors.MsgImageTooLarge)
		default:
			log.Error("Failed to create product", err, map[string]interface{}{
				"title": req.Title,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalServerError,
				"Ocorreu um erro ao adicionar o jogo. Tente novamente.")
		}
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Jogo adicionado com sucesso!",
		"product": product,
	})
}

// ExportCatalog downloads the catalog as a spreadsheet (admin)
// GET /api/v1/products/export
func (ctrl *ProductController) ExportCatalog(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var buf bytes.Buffer
	if err := ctrl.productService.ExportCatalog(&buf); err != nil {
		log.Error("Failed to export catalog", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "product export")
		return
	}

	filename := "catalogo-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
