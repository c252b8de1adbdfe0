package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Platform labels offered by the admin form.
const (
	PlatformPlayStation = "PlayStation"
	PlatformXbox        = "Xbox"
	PlatformSteam       = "Steam"
	PlatformSwitch      = "Nintendo Switch"
	PlatformPC          = "PC"
)

// DefaultClassification is the age rating used when none is given.
const DefaultClassification = "Livre"

type HardwareSpec struct {
	CPU     string `json:"cpu"`
	RAM     string `json:"ram"`
	GPU     string `json:"gpu"`
	Storage string `json:"storage"`
}

type SystemRequirements struct {
	Minimum     HardwareSpec `gorm:"embedded;embeddedPrefix:min_" json:"minimum"`
	Recommended HardwareSpec `gorm:"embedded;embeddedPrefix:rec_" json:"recommended"`
}

type Product struct {
	ID             uint     `gorm:"primarykey" json:"id"`
	Title          string   `gorm:"not null;index" json:"title"`
	Description    string   `gorm:"type:text" json:"description"`
	About          string   `gorm:"type:text" json:"about"`
	Price          float64  `gorm:"not null;index" json:"price"` // current (effective) price
	OldPrice       *float64 `json:"old_price,omitempty"`
	Developer      string   `json:"developer"`
	Publisher      string   `json:"publisher"`
	ReleaseDate    string   `gorm:"type:varchar(32)" json:"release_date"`
	Classification string   `gorm:"type:varchar(32);default:'Livre'" json:"classification"`
	Rating         float64  `gorm:"default:0" json:"rating"`

	HeaderImageURL   string     `gorm:"type:text" json:"header_image_url"`
	CoverImageURL    string     `gorm:"type:text" json:"cover_image_url"`
	GalleryImageURLs StringList `json:"gallery_image_urls"`
	TrailerURLs      StringList `json:"trailer_urls"`

	Categories       StringList `json:"categories"`
	Platforms        StringList `json:"platforms"`
	RelatedGameNames StringList `json:"related_game_names"`

	SystemRequirements SystemRequirements `gorm:"embedded;embeddedPrefix:req_" json:"system_requirements"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// OriginalPrice is the prior price when one is recorded, the current price otherwise.
func (p *Product) OriginalPrice() float64 {
	if p.OldPrice != nil && *p.OldPrice > 0 {
		return *p.OldPrice
	}
	return p.Price
}

// DiscountPercent is the rounded markdown from OriginalPrice to Price.
func (p *Product) DiscountPercent() int {
	return DiscountPercent(p.OriginalPrice(), p.Price)
}

func DiscountPercent(original, discounted float64) int {
	if original <= 0 || discounted >= original {
		return 0
	}
	return int(math.Round((original - discounted) / original * 100))
}
