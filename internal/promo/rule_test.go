package promo

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/common"
)

func TestParseKind(t *testing.T) {
	cases := map[string]DiscountKind{
		"amount":  KindAmount,
		" Rate ":  KindRate,
		"percent": KindRate,
		"FIXED":   KindAmount,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseKind("bogo")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestCampaignJSON(t *testing.T) {
	c := NewCampaign(catalog.NewCategory("Food"), decimal.NewFromInt(20), 3, KindRate)
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{"category":"Food","kind":"rate","magnitude":"20","minQuantity":3}`, string(raw))
}

func TestCouponJSON(t *testing.T) {
	c := NewCoupon(decimal.NewFromInt(100), decimal.NewFromInt(10), KindAmount)
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{"minPrice":"100","kind":"amount","magnitude":"10"}`, string(raw))
}
