package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	RichDescription string          `json:"richDescription"`
	Image           string          `json:"image"`
	Images          []string        `json:"images"`
	Brand           string          `json:"brand"`
	Price           decimal.Decimal `json:"price"`
	CategoryID      string          `json:"category"`
	CountInStock    int             `json:"countInStock"`
	Rating          float64         `json:"rating"`
	NumReviews      int             `json:"numReviews"`
	IsFeatured      bool            `json:"isFeatured"`
	CreatedAt       time.Time       `json:"dateCreated"`
}

type ProductPatch struct {
	Name            *string
	Description     *string
	RichDescription *string
	Image           *string
	Images          *[]string
	Brand           *string
	Price           *decimal.Decimal
	CategoryID      *string
	CountInStock    *int
	Rating          *float64
	NumReviews      *int
	IsFeatured      *bool
}

// ProductFilter narrows product listings. Zero values match everything.
type ProductFilter struct {
	CategoryIDs  []string
	FeaturedOnly bool
	Limit        int64
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}
