package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/promo"
)

// Money represents a monetary value.
type Money = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// Item describes a line item used for pricing calculation.
type Item struct {
	Category  string
	Qty       int
	UnitPrice Money
}

// Basket answers the per-category aggregate campaign eligibility is judged on.
type Basket interface {
	QuantityInCategory(category string) int
}

// Items adapts a plain item slice to Basket.
type Items []Item

// QuantityInCategory sums positive quantities of items in category.
func (items Items) QuantityInCategory(category string) int {
	var qty int
	for _, it := range items {
		if it.Category == category && it.Qty > 0 {
			qty += it.Qty
		}
	}
	return qty
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal           Money `json:"subtotal"`
	CampaignDiscount   Money `json:"campaignDiscount"`
	CouponDiscount     Money `json:"couponDiscount"`
	TotalAfterDiscount Money `json:"totalAfterDiscount"`
	DeliveryCost       Money `json:"deliveryCost"`
}

// Input bundles everything Compute needs. Basket defaults to Items when nil.
type Input struct {
	Items        []Item
	Basket       Basket
	Campaigns    []*promo.Campaign
	Coupon       *promo.Coupon
	DeliveryCost Money
}

// Compute calculates cart totals given the provided inputs.
func Compute(in Input) Summary {
	subtotal := Subtotal(in.Items)
	basket := in.Basket
	if basket == nil {
		basket = Items(in.Items)
	}
	campaign := CampaignDiscount(basket, subtotal, in.Campaigns)
	coupon := CouponDiscount(subtotal.Sub(campaign), in.Coupon)
	return Summary{
		Subtotal:           subtotal,
		CampaignDiscount:   campaign,
		CouponDiscount:     coupon,
		TotalAfterDiscount: subtotal.Sub(campaign).Sub(coupon),
		DeliveryCost:       in.DeliveryCost,
	}
}

// Subtotal sums unit price times quantity, skipping non-positive quantities.
func Subtotal(items []Item) Money {
	total := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return total
}

// CampaignDiscount returns the single largest discount any eligible campaign yields on amount.
func CampaignDiscount(basket Basket, amount Money, campaigns []*promo.Campaign) Money {
	_, discount := BestCampaign(basket, amount, campaigns)
	return discount
}

// BestCampaign picks the eligible campaign with the largest discount on amount.
// Campaigns never stack. The running maximum starts at zero and is replaced only by a
// strictly larger discount, so ties keep the earlier campaign. It returns nil and zero
// when amount is zero or nothing beats zero.
func BestCampaign(basket Basket, amount Money, campaigns []*promo.Campaign) (*promo.Campaign, Money) {
	best := decimal.Zero
	var winner *promo.Campaign
	if amount.IsZero() {
		return nil, best
	}
	for _, c := range campaigns {
		if c == nil || !Eligible(basket, c) {
			continue
		}
		remaining := applyCampaign(amount, c)
		discount := amount.Sub(remaining)
		if discount.GreaterThan(best) {
			best = discount
			winner = c
		}
	}
	return winner, best
}

// Eligible reports whether the basket holds at least the campaign's minimum quantity
// in its category. A category with no units in the basket is never eligible.
func Eligible(basket Basket, c *promo.Campaign) bool {
	if basket == nil {
		return false
	}
	qty := basket.QuantityInCategory(c.Category().Title)
	return qty > 0 && qty >= c.MinQuantity()
}

func applyCampaign(amount Money, c *promo.Campaign) Money {
	switch c.Kind() {
	case promo.KindAmount:
		return amount.Sub(c.Magnitude())
	case promo.KindRate:
		return amount.Sub(amount.Mul(c.Magnitude()).Div(hundred))
	default:
		return amount
	}
}

// CouponDiscount computes the coupon discount on an amount already net of campaigns.
func CouponDiscount(amount Money, coupon *promo.Coupon) Money {
	if amount.IsZero() || coupon == nil || amount.LessThan(coupon.MinPrice()) {
		return decimal.Zero
	}
	switch coupon.Kind() {
	case promo.KindAmount:
		return coupon.Magnitude()
	case promo.KindRate:
		return amount.Mul(coupon.Magnitude()).Div(hundred)
	default:
		return decimal.Zero
	}
}
