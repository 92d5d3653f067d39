package promo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/common"
)

// DiscountKind selects how a rule's magnitude is applied.
type DiscountKind int

const (
	// KindUnknown is the zero value and never yields a discount.
	KindUnknown DiscountKind = iota
	// KindAmount subtracts the magnitude as a flat amount.
	KindAmount
	// KindRate subtracts magnitude percent of the amount.
	KindRate
)

// String implements fmt.Stringer.
func (k DiscountKind) String() string {
	switch k {
	case KindAmount:
		return "amount"
	case KindRate:
		return "rate"
	default:
		return "unknown"
	}
}

// ParseKind converts a wire name into a DiscountKind.
func ParseKind(value string) (DiscountKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "amount", "fixed":
		return KindAmount, nil
	case "rate", "percent":
		return KindRate, nil
	default:
		return KindUnknown, fmt.Errorf("unsupported discount kind %q: %w", value, common.ErrInvalidArgument)
	}
}

// MarshalJSON encodes the kind by name.
func (k DiscountKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Campaign discounts the whole cart once enough items of one category are present.
type Campaign struct {
	category    catalog.Category
	kind        DiscountKind
	magnitude   decimal.Decimal
	minQuantity int
}

// NewCampaign builds an immutable campaign. Rate magnitudes are percentages and are not range checked.
func NewCampaign(category catalog.Category, magnitude decimal.Decimal, minQuantity int, kind DiscountKind) *Campaign {
	return &Campaign{category: category, kind: kind, magnitude: magnitude, minQuantity: minQuantity}
}

func (c *Campaign) Category() catalog.Category { return c.category }
func (c *Campaign) Kind() DiscountKind         { return c.kind }
func (c *Campaign) Magnitude() decimal.Decimal { return c.magnitude }
func (c *Campaign) MinQuantity() int           { return c.minQuantity }

// MarshalJSON exposes the campaign fields for API responses.
func (c *Campaign) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category    string          `json:"category"`
		Kind        DiscountKind    `json:"kind"`
		Magnitude   decimal.Decimal `json:"magnitude"`
		MinQuantity int             `json:"minQuantity"`
	}{c.category.Title, c.kind, c.magnitude, c.minQuantity})
}

// Coupon discounts the cart after campaigns when the remaining amount reaches MinPrice.
type Coupon struct {
	minPrice  decimal.Decimal
	kind      DiscountKind
	magnitude decimal.Decimal
}

// NewCoupon builds an immutable coupon.
func NewCoupon(minPrice, magnitude decimal.Decimal, kind DiscountKind) *Coupon {
	return &Coupon{minPrice: minPrice, kind: kind, magnitude: magnitude}
}

func (c *Coupon) MinPrice() decimal.Decimal  { return c.minPrice }
func (c *Coupon) Kind() DiscountKind         { return c.kind }
func (c *Coupon) Magnitude() decimal.Decimal { return c.magnitude }

// MarshalJSON exposes the coupon fields for API responses.
func (c *Coupon) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MinPrice  decimal.Decimal `json:"minPrice"`
		Kind      DiscountKind    `json:"kind"`
		Magnitude decimal.Decimal `json:"magnitude"`
	}{c.minPrice, c.kind, c.magnitude})
}
