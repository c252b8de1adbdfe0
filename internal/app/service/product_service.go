package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/cache"
	"github.com/phantomcommerce/phantom-backend/internal/catalog"
	"github.com/phantomcommerce/phantom-backend/internal/metrics"
	"github.com/phantomcommerce/phantom-backend/internal/storage"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("title, price and at least one category are required")
	ErrImageTooLarge   = storage.ErrImageTooLarge
)

const productImageFolder = "products"

// CategoryListing is one rendered category page.
type CategoryListing struct {
	Slug     string              `json:"slug"`
	Title    string              `json:"title"`
	Products []model.Product     `json:"products"`
	Count    int                 `json:"count"`
	Facets   catalog.Facets      `json:"facets"`
	State    catalog.FilterState `json:"state"`
	Query    string              `json:"query"`
}

// ProductDetail is a product with its related games resolved.
type ProductDetail struct {
	Product         *model.Product  `json:"product"`
	DiscountPercent int             `json:"discount_percent"`
	Related         []model.Product `json:"related"`
}

// CreateProductInput is the admin form. Image fields take data URLs or
// already-hosted URLs.
type CreateProductInput struct {
	Title              string
	Description        string
	About              string
	Price              float64
	OldPrice           *float64
	Developer          string
	Publisher          string
	ReleaseDate        string
	Classification     string
	Rating             float64
	HeaderImage        string
	CoverImage         string
	GalleryImages      []string
	Platforms          []string
	Categories         []string
	TrailerURLs        []string
	RelatedGameNames   []string
	SystemRequirements model.SystemRequirements
}

type ProductService interface {
	ListCategory(slug string, state catalog.FilterState) (*CategoryListing, error)
	GetProductDetail(id uint) (*ProductDetail, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error)
	ExportCatalog(w io.Writer) error
}

type productService struct {
	productRepo repository.ProductRepository
	images      storage.ImageStore
	cache       cache.ProductCache
	sorter      *catalog.Sorter
}

func NewProductService(
	productRepo repository.ProductRepository,
	images storage.ImageStore,
	productCache cache.ProductCache,
	sorter *catalog.Sorter,
) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
		cache:       productCache,
		sorter:      sorter,
	}
}

func (s *productService) ListCategory(slug string, state catalog.FilterState) (*CategoryListing, error) {
	state = state.Normalize()
	baseTag := catalog.BaseTag(slug)

	logger.Debug("Listing category", map[string]interface{}{
		"slug":      slug,
		"tags":      state.Tags,
		"platforms": state.Platforms,
		"sort":      state.Sort,
	})

	products, err := s.productRepo.FindByPrice(repository.PriceFilter{
		Min: state.Price.Min,
		Max: state.Price.Max,
	})
	if err != nil {
		logger.Error("Failed to list category", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}

	products = catalog.FilterCategory(products, slug)
	facets := catalog.BuildFacets(products)
	products = s.sorter.Apply(products, state, baseTag)

	metrics.CatalogListingsTotal.WithLabelValues(string(state.Sort)).Inc()

	logger.Info("Category listed", map[string]interface{}{
		"slug":  slug,
		"count": len(products),
	})

	return &CategoryListing{
		Slug:     slug,
		Title:    catalog.CategoryTitle(slug),
		Products: products,
		Count:    len(products),
		Facets:   facets,
		State:    state.WithBaseTag(slug),
		Query:    state.EncodeFor(slug),
	}, nil
}

func (s *productService) GetProductDetail(id uint) (*ProductDetail, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	related := []model.Product{}
	if len(product.RelatedGameNames) > 0 {
		found, err := s.productRepo.FindByTitles(product.RelatedGameNames)
		if err != nil {
			// The page still renders without the related strip.
			logger.Warn("Failed to resolve related games", map[string]interface{}{
				"product_id": id,
				"error":      err.Error(),
			})
		} else {
			for _, p := range found {
				if p.ID != product.ID {
					related = append(related, p)
				}
			}
		}
	}

	return &ProductDetail{
		Product:         product,
		DiscountPercent: product.DiscountPercent(),
		Related:         related,
	}, nil
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	categories := compact(input.Categories)
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Price <= 0 || len(categories) == 0 {
		logger.Warn("Product creation rejected: missing required fields", map[string]interface{}{
			"title":      title,
			"price":      input.Price,
			"categories": len(categories),
		})
		return nil, ErrInvalidProduct
	}

	header, err := s.storeImage(ctx, input.HeaderImage)
	if err != nil {
		return nil, err
	}
	cover, err := s.storeImage(ctx, input.CoverImage)
	if err != nil {
		return nil, err
	}
	gallery := make(model.StringList, 0, len(input.GalleryImages))
	for _, img := range input.GalleryImages {
		if strings.TrimSpace(img) == "" {
			continue
		}
		url, err := s.storeImage(ctx, img)
		if err != nil {
			return nil, err
		}
		gallery = append(gallery, url)
	}

	classification := strings.TrimSpace(input.Classification)
	if classification == "" {
		classification = model.DefaultClassification
	}

	var oldPrice *float64
	if input.OldPrice != nil && *input.OldPrice > 0 {
		v := *input.OldPrice
		oldPrice = &v
	}

	product := &model.Product{
		Title:              title,
		Description:        input.Description,
		About:              input.About,
		Price:              input.Price,
		OldPrice:           oldPrice,
		Developer:          strings.TrimSpace(input.Developer),
		Publisher:          strings.TrimSpace(input.Publisher),
		ReleaseDate:        strings.TrimSpace(input.ReleaseDate),
		Classification:     classification,
		Rating:             input.Rating,
		HeaderImageURL:     header,
		CoverImageURL:      cover,
		GalleryImageURLs:   gallery,
		TrailerURLs:        model.StringList(compact(input.TrailerURLs)),
		Categories:         model.StringList(categories),
		Platforms:          model.StringList(compact(input.Platforms)),
		RelatedGameNames:   model.StringList(compact(input.RelatedGameNames)),
		SystemRequirements: input.SystemRequirements,
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"title": title,
		})
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Warn("Failed to invalidate catalog cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
	})
	return product, nil
}

func (s *productService) storeImage(ctx context.Context, image string) (string, error) {
	if strings.TrimSpace(image) == "" {
		return "", nil
	}
	url, err := s.images.Store(ctx, productImageFolder, "", image)
	if err != nil {
		logger.Warn("Product image rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return "", fmt.Errorf("store product image: %w", err)
	}
	return url, nil
}

func (s *productService) ExportCatalog(w io.Writer) error {
	products, err := s.productRepo.FindAll()
	if err != nil {
		logger.Error("Failed to load catalog for export", err)
		return err
	}
	if err := WriteCatalogSheet(w, products); err != nil {
		logger.Error("Failed to write catalog sheet", err)
		return err
	}
	logger.Info("Catalog exported", map[string]interface{}{
		"count": len(products),
	})
	return nil
}

// compact trims values and drops blanks.
func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
