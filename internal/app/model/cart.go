package model

import (
	"time"
)

// CartEntry is one line of a cart as clients see it. The price is the
// snapshot taken when the product was first added.
type CartEntry struct {
	ProductID uint      `json:"product_id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem is the persisted row of an authenticated user's cart.
type CartItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;index;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID     uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Title         string    `json:"title"`
	ImageURL      string    `gorm:"type:text" json:"image_url"`
	PriceSnapshot float64   `gorm:"not null" json:"price_snapshot"`
	Quantity      int       `gorm:"not null;default:1" json:"quantity"`
	Position      int       `gorm:"not null;default:0" json:"position"`
	AddedAt       time.Time `json:"added_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i CartItem) Entry() CartEntry {
	return CartEntry{
		ProductID: i.ProductID,
		Title:     i.Title,
		ImageURL:  i.ImageURL,
		Price:     i.PriceSnapshot,
		Quantity:  i.Quantity,
		AddedAt:   i.AddedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// NewCartItems converts entries to rows for userID, keeping list order.
func NewCartItems(userID uint, entries []CartEntry) []CartItem {
	items := make([]CartItem, 0, len(entries))
	for i, e := range entries {
		items = append(items, CartItem{
			UserID:        userID,
			ProductID:     e.ProductID,
			Title:         e.Title,
			ImageURL:      e.ImageURL,
			PriceSnapshot: e.Price,
			Quantity:      e.Quantity,
			Position:      i,
			AddedAt:       e.AddedAt,
		})
	}
	return items
}
