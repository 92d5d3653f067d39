package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/cart"
	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/promo"
	"github.com/noah-isme/toko-pricing/internal/shipping"
)

// Checkout is one pricing session: a ledger of items, the campaigns attached so far
// and at most one coupon. Every figure is recomputed on demand from current state.
// A Checkout is not safe for concurrent use; see Store for synchronised access.
type Checkout struct {
	ledger    *cart.Ledger
	campaigns []*promo.Campaign
	coupon    *promo.Coupon
	delivery  shipping.Calculator
}

// New constructs an empty checkout priced for delivery by calc.
func New(calc shipping.Calculator) *Checkout {
	return &Checkout{ledger: cart.NewLedger(), delivery: calc}
}

// AddItem adds qty units of p. Invalid input is ignored and reported as false.
func (c *Checkout) AddItem(p *catalog.Product, qty int) bool {
	return c.ledger.AddItem(p, qty)
}

// ApplyDiscounts appends campaigns to the active list. Calls are cumulative.
// A nil collection or a nil campaign is rejected and nothing is appended.
func (c *Checkout) ApplyDiscounts(campaigns ...*promo.Campaign) error {
	if campaigns == nil {
		return fmt.Errorf("campaigns must not be nil: %w", common.ErrInvalidArgument)
	}
	for i, campaign := range campaigns {
		if campaign == nil {
			return fmt.Errorf("campaign %d must not be nil: %w", i, common.ErrInvalidArgument)
		}
	}
	c.campaigns = append(c.campaigns, campaigns...)
	return nil
}

// ApplyCoupon replaces the active coupon.
func (c *Checkout) ApplyCoupon(coupon *promo.Coupon) error {
	if coupon == nil {
		return fmt.Errorf("coupon must not be nil: %w", common.ErrInvalidArgument)
	}
	c.coupon = coupon
	return nil
}

// TotalAmount is the raw cart value before discounts.
func (c *Checkout) TotalAmount() decimal.Decimal {
	return c.ledger.TotalValue()
}

// CampaignDiscount is the single best campaign discount on the current total.
func (c *Checkout) CampaignDiscount() decimal.Decimal {
	return pricing.CampaignDiscount(c.ledger, c.TotalAmount(), c.campaigns)
}

// CouponDiscount is the coupon discount on the total net of the campaign discount.
func (c *Checkout) CouponDiscount() decimal.Decimal {
	net := c.TotalAmount().Sub(c.CampaignDiscount())
	return pricing.CouponDiscount(net, c.coupon)
}

// TotalAfterDiscount subtracts both discounts from the raw total.
func (c *Checkout) TotalAfterDiscount() decimal.Decimal {
	return c.TotalAmount().Sub(c.CampaignDiscount()).Sub(c.CouponDiscount())
}

// DeliveryCost asks the configured calculator to price delivery for this checkout.
func (c *Checkout) DeliveryCost() (decimal.Decimal, error) {
	if c.delivery == nil {
		return decimal.Zero, fmt.Errorf("delivery calculator not configured: %w", common.ErrInvalidArgument)
	}
	return c.delivery.CalculateFor(c)
}

// NumberOfDeliveries is the number of distinct categories in the cart.
func (c *Checkout) NumberOfDeliveries() int {
	return c.ledger.DistinctCategoryCount()
}

// NumberOfProducts is the number of distinct products in the cart.
func (c *Checkout) NumberOfProducts() int {
	return c.ledger.DistinctProductCount()
}

// Lines returns the ledger contents in insertion order.
func (c *Checkout) Lines() []cart.Line {
	return c.ledger.Lines()
}

// Campaigns returns the attached campaigns in the order they were applied.
func (c *Checkout) Campaigns() []*promo.Campaign {
	out := make([]*promo.Campaign, len(c.campaigns))
	copy(out, c.campaigns)
	return out
}

// Coupon returns the active coupon, nil when none was applied.
func (c *Checkout) Coupon() *promo.Coupon {
	return c.coupon
}

// Summary snapshots every figure at once for reporting.
func (c *Checkout) Summary() (pricing.Summary, error) {
	delivery, err := c.DeliveryCost()
	if err != nil {
		return pricing.Summary{}, err
	}
	return pricing.Compute(pricing.Input{
		Items:        c.items(),
		Basket:       c.ledger,
		Campaigns:    c.campaigns,
		Coupon:       c.coupon,
		DeliveryCost: delivery,
	}), nil
}

// WinningCampaign returns the campaign currently providing the discount, if any.
func (c *Checkout) WinningCampaign() *promo.Campaign {
	winner, _ := pricing.BestCampaign(c.ledger, c.TotalAmount(), c.campaigns)
	return winner
}

func (c *Checkout) items() []pricing.Item {
	lines := c.ledger.Lines()
	items := make([]pricing.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, pricing.Item{
			Category:  line.Product.Category.Title,
			Qty:       line.Qty,
			UnitPrice: line.Product.Price,
		})
	}
	return items
}
