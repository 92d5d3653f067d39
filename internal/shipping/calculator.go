package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/common"
)

// DefaultFixedCost is the flat surcharge added to every delivery quote.
var DefaultFixedCost = decimal.RequireFromString("2.99")

// Cart exposes the counts a delivery quote depends on.
type Cart interface {
	NumberOfDeliveries() int
	NumberOfProducts() int
}

// Calculator defines the behaviour required to price delivery for a cart.
type Calculator interface {
	CalculateFor(cart Cart) (decimal.Decimal, error)
}

// LinearCalculator charges per delivery (distinct category) and per distinct product
// on top of a fixed surcharge.
type LinearCalculator struct {
	CostPerDelivery decimal.Decimal
	CostPerProduct  decimal.Decimal
	FixedCost       decimal.Decimal
}

// NewLinearCalculator constructs a calculator using DefaultFixedCost.
func NewLinearCalculator(costPerDelivery, costPerProduct decimal.Decimal) LinearCalculator {
	return LinearCalculator{
		CostPerDelivery: costPerDelivery,
		CostPerProduct:  costPerProduct,
		FixedCost:       DefaultFixedCost,
	}
}

// CalculateFor returns perDelivery*deliveries + perProduct*products + fixed.
func (c LinearCalculator) CalculateFor(cart Cart) (decimal.Decimal, error) {
	if cart == nil {
		return decimal.Zero, fmt.Errorf("cart required to calculate delivery cost: %w", common.ErrInvalidArgument)
	}
	deliveries := decimal.NewFromInt(int64(cart.NumberOfDeliveries()))
	products := decimal.NewFromInt(int64(cart.NumberOfProducts()))
	return c.CostPerDelivery.Mul(deliveries).
		Add(c.CostPerProduct.Mul(products)).
		Add(c.FixedCost), nil
}

// CalculatorFunc adapts a function to the Calculator interface.
type CalculatorFunc func(cart Cart) (decimal.Decimal, error)

// CalculateFor calls f(cart).
func (f CalculatorFunc) CalculateFor(cart Cart) (decimal.Decimal, error) {
	return f(cart)
}
