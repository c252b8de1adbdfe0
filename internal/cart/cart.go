// Package cart holds the ordered-list operations shared by user and guest carts.
// Every function returns a new slice and leaves its input untouched.
package cart

import (
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/shopspring/decimal"
)

// EntryFor snapshots product as a cart line with quantity 1.
func EntryFor(product *model.Product, now time.Time) model.CartEntry {
	image := product.CoverImageURL
	if image == "" {
		image = product.HeaderImageURL
	}
	return model.CartEntry{
		ProductID: product.ID,
		Title:     product.Title,
		ImageURL:  image,
		Price:     product.Price,
		Quantity:  1,
		AddedAt:   now,
		UpdatedAt: now,
	}
}

// Add increments the line for product by one, or appends a new line.
func Add(entries []model.CartEntry, product *model.Product, now time.Time) []model.CartEntry {
	out := clone(entries)
	if i := indexOf(out, product.ID); i >= 0 {
		out[i].Quantity++
		out[i].UpdatedAt = now
		return out
	}
	return append(out, EntryFor(product, now))
}

// Remove drops the line for productID. A missing line is not an error.
func Remove(entries []model.CartEntry, productID uint) []model.CartEntry {
	out := make([]model.CartEntry, 0, len(entries))
	for _, e := range entries {
		if e.ProductID != productID {
			out = append(out, e)
		}
	}
	return out
}

// SetQuantity sets the quantity of the line for productID; anything below 1
// removes it. found is false when no such line exists.
func SetQuantity(entries []model.CartEntry, productID uint, quantity int, now time.Time) (out []model.CartEntry, found bool) {
	i := indexOf(entries, productID)
	if i < 0 {
		return clone(entries), false
	}
	if quantity < 1 {
		return Remove(entries, productID), true
	}
	out = clone(entries)
	out[i].Quantity = quantity
	out[i].UpdatedAt = now
	return out, true
}

// Merge folds incoming into base: shared products sum their quantities,
// new ones are appended in incoming order.
func Merge(base, incoming []model.CartEntry, now time.Time) []model.CartEntry {
	out := Normalize(base)
	for _, e := range Normalize(incoming) {
		if i := indexOf(out, e.ProductID); i >= 0 {
			out[i].Quantity += e.Quantity
			out[i].UpdatedAt = now
			continue
		}
		out = append(out, e)
	}
	return out
}

// Normalize drops lines with a quantity below 1 and folds duplicate
// products into their first line.
func Normalize(entries []model.CartEntry) []model.CartEntry {
	out := make([]model.CartEntry, 0, len(entries))
	for _, e := range entries {
		if e.Quantity < 1 {
			continue
		}
		if i := indexOf(out, e.ProductID); i >= 0 {
			out[i].Quantity += e.Quantity
			continue
		}
		out = append(out, e)
	}
	return out
}

// Count is the number of units across all lines.
func Count(entries []model.CartEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Quantity
	}
	return n
}

// Total is the sum of snapshot price times quantity, rounded to cents.
func Total(entries []model.CartEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(decimal.NewFromFloat(e.Price).Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total.Round(2)
}

// Summary is the cart payload returned to clients and pushed over websockets.
type Summary struct {
	Items      []model.CartEntry `json:"items"`
	ItemCount  int               `json:"item_count"`
	TotalValue decimal.Decimal   `json:"total_value"`
}

func Summarize(entries []model.CartEntry) Summary {
	items := entries
	if items == nil {
		items = []model.CartEntry{}
	}
	return Summary{
		Items:      items,
		ItemCount:  Count(entries),
		TotalValue: Total(entries),
	}
}

func indexOf(entries []model.CartEntry, productID uint) int {
	for i, e := range entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

func clone(entries []model.CartEntry) []model.CartEntry {
	out := make([]model.CartEntry, len(entries))
	copy(out, entries)
	return out
}
