package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/cache"
	"github.com/phantomcommerce/phantom-backend/internal/metrics"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
)

// MaxSuggestions caps the type-ahead list.
const MaxSuggestions = 5

// SearchCategories are the category slugs a free-text query can resolve to.
var SearchCategories = []string{"aventura", "acao", "rpg", "estrategia", "esportes", "corrida"}

// Data sources reported on search metrics.
const (
	searchSourceCache    = "cache"
	searchSourceDatabase = "database"
)

// Suggestion is one type-ahead entry.
type Suggestion struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type SearchService interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
	Search(ctx context.Context, query string) ([]model.Product, error)
	Resolve(query string) string
	RefreshCache(ctx context.Context) error
}

type searchService struct {
	productRepo repository.ProductRepository
	cache       cache.ProductCache
}

func NewSearchService(productRepo repository.ProductRepository, productCache cache.ProductCache) SearchService {
	return &searchService{
		productRepo: productRepo,
		cache:       productCache,
	}
}

func (s *searchService) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Suggestion{}, nil
	}

	products, err := s.cachedProducts(ctx)
	if err != nil {
		logger.Error("Failed to load products for suggestions", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}
	metrics.SearchQueriesTotal.WithLabelValues("suggest", searchSourceCache).Inc()

	needle := strings.ToLower(query)
	suggestions := make([]Suggestion, 0, MaxSuggestions)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			suggestions = append(suggestions, Suggestion{ID: p.ID, Title: p.Title})
			if len(suggestions) == MaxSuggestions {
				break
			}
		}
	}
	return suggestions, nil
}

// Search matches titles containing query, case-insensitively, against the
// cached catalog. Without a usable cache it falls back to a title prefix
// scan in the database, which is case-sensitive.
func (s *searchService) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Product{}, nil
	}

	products, err := s.cachedProducts(ctx)
	if err != nil {
		logger.Warn("Catalog cache unavailable, using prefix search", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		metrics.SearchQueriesTotal.WithLabelValues("search", searchSourceDatabase).Inc()
		results, err := s.productRepo.FindByTitlePrefix(query)
		if err != nil {
			logger.Error("Prefix search failed", err, map[string]interface{}{
				"query": query,
			})
			return nil, err
		}
		return results, nil
	}
	metrics.SearchQueriesTotal.WithLabelValues("search", searchSourceCache).Inc()

	needle := strings.ToLower(query)
	results := []model.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			results = append(results, p)
		}
	}

	logger.Info("Search completed", map[string]interface{}{
		"query": query,
		"count": len(results),
	})
	return results, nil
}

// Resolve maps a submitted query to the route the storefront should open.
func (s *searchService) Resolve(query string) string {
	query = strings.TrimSpace(query)
	metrics.SearchQueriesTotal.WithLabelValues("resolve", "none").Inc()

	if _, err := strconv.ParseUint(query, 10, 64); err == nil {
		return "/product/" + query
	}
	lower := strings.ToLower(query)
	for _, c := range SearchCategories {
		if lower == c {
			return "/category/" + lower
		}
	}
	return "/search?q=" + url.QueryEscape(query)
}

func (s *searchService) RefreshCache(ctx context.Context) error {
	products, stored, err := s.loadIntoCache(ctx)
	metrics.CatalogCacheRefreshTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		logger.Error("Failed to refresh catalog cache", err)
		return err
	}

	logger.Info("Catalog cache refreshed", map[string]interface{}{
		"count":  len(products),
		"stored": stored,
	})
	return nil
}

// cachedProducts reads the cache and loads it from the database on a miss.
func (s *searchService) cachedProducts(ctx context.Context) ([]model.Product, error) {
	products, ok, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return products, nil
	}

	products, _, err = s.loadIntoCache(ctx)
	return products, err
}

// loadIntoCache reads the catalog and stores it unless a product was created
// while the query ran; the next reader then loads the newer list.
func (s *searchService) loadIntoCache(ctx context.Context) ([]model.Product, bool, error) {
	generation, err := s.cache.Generation(ctx)
	if err != nil {
		return nil, false, err
	}

	products, err := s.productRepo.FindAll()
	if err != nil {
		return nil, false, err
	}

	stored, err := s.cache.Fill(ctx, generation, products)
	if err != nil {
		logger.Warn("Failed to populate catalog cache", map[string]interface{}{
			"error": err.Error(),
		})
		return products, false, nil
	}
	return products, stored, nil
}
