package cart

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/catalog"
)

// Line is a product held in the ledger with its accumulated quantity.
type Line struct {
	Product *catalog.Product
	Qty     int
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Ledger maps product identities to quantities, preserving first-insertion order.
// The zero value is ready to use. A Ledger is not safe for concurrent use.
type Ledger struct {
	index map[uuid.UUID]int
	lines []Line
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[uuid.UUID]int)}
}

// AddItem upserts qty units of p. A nil product, a non-positive quantity or an add
// that would overflow the line's quantity is ignored; the return value reports
// whether the ledger changed.
func (l *Ledger) AddItem(p *catalog.Product, qty int) bool {
	if p == nil || qty <= 0 {
		return false
	}
	if l.index == nil {
		l.index = make(map[uuid.UUID]int)
	}
	if i, ok := l.index[p.ID]; ok {
		if qty > math.MaxInt-l.lines[i].Qty {
			return false
		}
		l.lines[i].Qty += qty
		return true
	}
	l.index[p.ID] = len(l.lines)
	l.lines = append(l.lines, Line{Product: p, Qty: qty})
	return true
}

// Lines returns a copy of the ledger contents in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// TotalValue sums unit price times quantity over every line.
func (l *Ledger) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// DistinctCategoryCount counts unique category titles. Each one is a delivery.
func (l *Ledger) DistinctCategoryCount() int {
	seen := make(map[string]struct{}, len(l.lines))
	for _, line := range l.lines {
		seen[line.Product.Category.Title] = struct{}{}
	}
	return len(seen)
}

// DistinctProductCount counts distinct product identities, not units.
func (l *Ledger) DistinctProductCount() int {
	return len(l.lines)
}

// QuantityInCategory sums the quantities of products whose category title matches.
// Campaign eligibility is judged on it.
func (l *Ledger) QuantityInCategory(title string) int {
	var qty int
	for _, line := range l.lines {
		if line.Product.Category.Title == title {
			qty += line.Qty
		}
	}
	return qty
}
