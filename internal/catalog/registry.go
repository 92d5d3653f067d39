package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/common"
)

// Registry keeps the products known to the running service.
type Registry struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*Product
	order    []uuid.UUID
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{products: make(map[uuid.UUID]*Product)}
}

// Register validates and stores a new product.
func (r *Registry) Register(title string, price decimal.Decimal, category string) (*Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("product title required: %w", common.ErrInvalidArgument)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("product price must not be negative: %w", common.ErrInvalidArgument)
	}
	cat := NewCategory(category)
	if cat.Title == "" {
		return nil, fmt.Errorf("product category required: %w", common.ErrInvalidArgument)
	}
	p := NewProduct(title, price, cat)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	return p, nil
}

// Get returns the product registered under id.
func (r *Registry) Get(id uuid.UUID) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	return p, nil
}

// List returns one page of products in registration order along with the total count.
func (r *Registry) List(page, perPage int) ([]*Product, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := len(r.order)
	pages := 0
	if total > 0 {
		pages = (total-1)/perPage + 1
	}
	if page > pages {
		return []*Product{}, total
	}
	start := (page - 1) * perPage
	end := total
	if perPage < total-start {
		end = start + perPage
	}
	out := make([]*Product, 0, end-start)
	for _, id := range r.order[start:end] {
		out = append(out, r.products[id])
	}
	return out, total
}

// Categories lists the distinct categories of registered products sorted by title.
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	seen := make(map[string]struct{}, len(r.products))
	for _, p := range r.products {
		seen[p.Category.Title] = struct{}{}
	}
	r.mu.RUnlock()

	out := make([]Category, 0, len(seen))
	for title := range seen {
		out = append(out, Category{Title: title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}
