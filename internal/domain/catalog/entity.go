// internal/domain/catalog/entity.go
package catalog

import (
	"github.com/shopspring/decimal"
)

// Variant is a sellable product variant as the commerce platform lists it
type Variant struct {
	ID          string
	SKU         string
	Name        string
	Image       string
	Price       decimal.Decimal
	CategoryID  string
	VariantUnit string // "weight" for products sold by weight
}

// Taxon is a product category
type Taxon struct {
	ID   string
	Name string
}

// Product is the kiosk view of a variant
type Product struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku,omitempty"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
}

// Category is a category referenced by at least one loaded product
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog holds the two disjoint product tables and the used categories
type Catalog struct {
	Products       map[string]Product  `json:"product_array"`
	WeightProducts map[string]Product  `json:"product_weight_array"`
	Categories     map[string]Category `json:"taxes_array"`
}

// Empty returns a catalog with no products
func Empty() *Catalog {
	return &Catalog{
		Products:       map[string]Product{},
		WeightProducts: map[string]Product{},
		Categories:     map[string]Category{},
	}
}
