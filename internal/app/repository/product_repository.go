package repository

import (
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"gorm.io/gorm"
)

// TitlePrefixSentinel closes a prefix range: every title starting with q
// sorts below q+TitlePrefixSentinel.
const TitlePrefixSentinel = "\uf8ff"

// MaxRelatedTitles caps the title list of a related-games lookup.
const MaxRelatedTitles = 30

// PriceFilter holds the range predicates pushed down to the database.
type PriceFilter struct {
	Min *float64
	Max *float64
}

type ProductRepository interface {
	Create(product *model.Product) error
	BulkCreate(products []model.Product, batchSize int) error
	FindAll() ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	FindByPrice(filter PriceFilter) ([]model.Product, error)
	FindByTitles(titles []string) ([]model.Product, error)
	FindByTitlePrefix(prefix string) ([]model.Product, error)
	Count() (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"title":      product.Title,
		"price":      product.Price,
		"categories": []string(product.Categories),
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"title": product.Title,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
	})
	return nil
}

func (r *productRepository) BulkCreate(products []model.Product, batchSize int) error {
	logger.Debug("Bulk creating products in database", map[string]interface{}{
		"count":      len(products),
		"batch_size": batchSize,
	})

	if len(products) == 0 {
		return nil
	}

	if err := r.db.CreateInBatches(products, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create products in database", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}

	logger.Debug("Products bulk created in database", map[string]interface{}{
		"count": len(products),
	})
	return nil
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	return r.FindByPrice(PriceFilter{})
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
	})
	return &product, nil
}

// FindByPrice returns products within the bounds, in insertion order.
func (r *productRepository) FindByPrice(filter PriceFilter) ([]model.Product, error) {
	logger.Debug("Finding products by price in database", map[string]interface{}{
		"min_price": filter.Min,
		"max_price": filter.Max,
	})

	query := r.db.Model(&model.Product{})
	if filter.Min != nil {
		query = query.Where("price >= ?", *filter.Min)
	}
	if filter.Max != nil {
		query = query.Where("price <= ?", *filter.Max)
	}

	var products []model.Product
	if err := query.Order("id ASC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products by price in database", err, map[string]interface{}{
			"min_price": filter.Min,
			"max_price": filter.Max,
		})
		return nil, err
	}

	logger.Debug("Products found by price in database", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

// FindByTitles looks up at most MaxRelatedTitles exact titles.
func (r *productRepository) FindByTitles(titles []string) ([]model.Product, error) {
	if len(titles) > MaxRelatedTitles {
		titles = titles[:MaxRelatedTitles]
	}
	if len(titles) == 0 {
		return []model.Product{}, nil
	}

	logger.Debug("Finding products by titles in database", map[string]interface{}{
		"titles": titles,
	})

	var products []model.Product
	if err := r.db.Where("title IN ?", titles).Order("id ASC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products by titles in database", err, map[string]interface{}{
			"count": len(titles),
		})
		return nil, err
	}

	logger.Debug("Products found by titles in database", map[string]interface{}{
		"requested": len(titles),
		"count":     len(products),
	})
	return products, nil
}

// FindByTitlePrefix is a case-sensitive range scan over the title index.
func (r *productRepository) FindByTitlePrefix(prefix string) ([]model.Product, error) {
	logger.Debug("Finding products by title prefix in database", map[string]interface{}{
		"prefix": prefix,
	})

	var products []model.Product
	err := r.db.Where("title >= ? AND title < ?", prefix, prefix+TitlePrefixSentinel).
		Order("title ASC").
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find products by title prefix in database", err, map[string]interface{}{
			"prefix": prefix,
		})
		return nil, err
	}

	logger.Debug("Products found by title prefix in database", map[string]interface{}{
		"prefix": prefix,
		"count":  len(products),
	})
	return products, nil
}

func (r *productRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Product{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count products in database", err)
		return 0, err
	}
	return count, nil
}
