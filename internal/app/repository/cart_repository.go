package repository

import (
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByUserID(userID uint) ([]model.CartItem, error)
	// ReplaceForUser overwrites the whole cart of userID with items.
	ReplaceForUser(userID uint, items []model.CartItem) error
	DeleteByUserID(userID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUserID(userID uint) ([]model.CartItem, error) {
	logger.Debug("Finding cart items by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cartItems []model.CartItem
	err := r.db.Where("user_id = ?", userID).
		Order("position ASC").
		Order("id ASC").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to find cart items by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart items found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(cartItems),
	})
	return cartItems, nil
}

func (r *cartRepository) ReplaceForUser(userID uint, items []model.CartItem) error {
	logger.Debug("Replacing cart in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].UserID = userID
			items[i].Position = i
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		logger.Error("Failed to replace cart in database", err, map[string]interface{}{
			"user_id": userID,
			"count":   len(items),
		})
		return err
	}

	logger.Debug("Cart replaced in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})
	return nil
}

func (r *cartRepository) DeleteByUserID(userID uint) error {
	logger.Debug("Deleting cart items by user ID from database", map[string]interface{}{
		"user_id": userID,
	})

	if err := r.db.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items by user ID from database", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Debug("Cart items deleted by user ID from database", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
