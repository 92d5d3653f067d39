package shipping_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/shipping"
)

type stubCart struct {
	deliveries int
	products   int
}

func (s stubCart) NumberOfDeliveries() int { return s.deliveries }
func (s stubCart) NumberOfProducts() int   { return s.products }

func TestCalculateForNilCart(t *testing.T) {
	calc := shipping.NewLinearCalculator(decimal.NewFromInt(5), decimal.NewFromInt(10))
	_, err := calc.CalculateFor(nil)
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestCalculateForEmptyCartReturnsFixedCost(t *testing.T) {
	calc := shipping.NewLinearCalculator(decimal.NewFromInt(5), decimal.NewFromInt(10))
	cost, err := calc.CalculateFor(stubCart{})
	require.NoError(t, err)
	require.True(t, cost.Equal(shipping.DefaultFixedCost), "got %s", cost)
}

func TestCalculateForOneDeliveryOneProduct(t *testing.T) {
	calc := shipping.NewLinearCalculator(decimal.NewFromInt(5), decimal.NewFromInt(10))
	cost, err := calc.CalculateFor(stubCart{deliveries: 1, products: 1})
	require.NoError(t, err)
	want := decimal.NewFromInt(15).Add(shipping.DefaultFixedCost)
	require.True(t, cost.Equal(want), "got %s", cost)
}

func TestCalculateForCustomFixedCost(t *testing.T) {
	calc := shipping.LinearCalculator{
		CostPerDelivery: decimal.RequireFromString("1.5"),
		CostPerProduct:  decimal.RequireFromString("0.25"),
		FixedCost:       decimal.Zero,
	}
	cost, err := calc.CalculateFor(stubCart{deliveries: 2, products: 4})
	require.NoError(t, err)
	require.True(t, cost.Equal(decimal.NewFromInt(4)), "got %s", cost)
}
