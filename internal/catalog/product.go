package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is a flat label grouping products for campaigns and deliveries.
type Category struct {
	Title string `json:"title"`
}

// NewCategory constructs a category with the trimmed title.
func NewCategory(title string) Category {
	return Category{Title: strings.TrimSpace(title)}
}

// Product is a priced catalog entry. Identity is carried by ID, so two products
// built from the same fields are still distinct.
type Product struct {
	ID       uuid.UUID       `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Category Category        `json:"category"`
}

// NewProduct mints a product with a fresh identity.
func NewProduct(title string, price decimal.Decimal, category Category) *Product {
	return &Product{
		ID:       uuid.New(),
		Title:    title,
		Price:    price,
		Category: category,
	}
}
