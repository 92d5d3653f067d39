package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/promo"
)

func money(v string) Money {
	return decimal.RequireFromString(v)
}

func requireMoney(t *testing.T, want string, got Money) {
	t.Helper()
	require.Truef(t, got.Equal(money(want)), "expected %s, got %s", want, got)
}

func campaign(category string, magnitude int64, minQty int, kind promo.DiscountKind) *promo.Campaign {
	return promo.NewCampaign(catalog.NewCategory(category), decimal.NewFromInt(magnitude), minQty, kind)
}

func TestSubtotalSkipsNonPositiveQty(t *testing.T) {
	items := []Item{
		{Category: "Food", Qty: 2, UnitPrice: money("25")},
		{Category: "Food", Qty: 0, UnitPrice: money("99")},
		{Category: "Food", Qty: 1, UnitPrice: money("50")},
	}
	requireMoney(t, "100", Subtotal(items))
	requireMoney(t, "0", Subtotal(nil))
}

func TestCampaignDiscount(t *testing.T) {
	oneApple := func(qty int) Items {
		return Items{{Category: "Food", Qty: qty, UnitPrice: money("25")}}
	}
	appleAndPear := func(apples, pears int, pearPrice string) Items {
		return Items{
			{Category: "Food", Qty: apples, UnitPrice: money("25")},
			{Category: "Food", Qty: pears, UnitPrice: money(pearPrice)},
		}
	}

	cases := []struct {
		name      string
		items     Items
		campaigns []*promo.Campaign
		want      string
	}{
		{"empty cart", nil, []*promo.Campaign{campaign("Food", 5, 1, promo.KindAmount)}, "0"},
		{"no campaigns", oneApple(4), nil, "0"},
		{"amount above minimum", Items{{Category: "Food", Qty: 3, UnitPrice: money("100")}}, []*promo.Campaign{campaign("Food", 5, 2, promo.KindAmount)}, "5"},
		{"rate above minimum", oneApple(4), []*promo.Campaign{campaign("Food", 5, 2, promo.KindRate)}, "5"},
		{"amount below minimum", oneApple(1), []*promo.Campaign{campaign("Food", 5, 2, promo.KindAmount)}, "0"},
		{"rate below minimum", oneApple(1), []*promo.Campaign{campaign("Food", 5, 2, promo.KindRate)}, "0"},
		{"rate two products above minimum", appleAndPear(4, 2, "50"), []*promo.Campaign{campaign("Food", 5, 5, promo.KindRate)}, "10"},
		{"amount two products above minimum", appleAndPear(4, 2, "50"), []*promo.Campaign{campaign("Food", 5, 5, promo.KindAmount)}, "5"},
		{"rate two products below minimum", appleAndPear(2, 2, "50"), []*promo.Campaign{campaign("Food", 5, 5, promo.KindRate)}, "0"},
		{"two campaigns both below minimum", oneApple(2), []*promo.Campaign{
			campaign("Food", 5, 5, promo.KindAmount),
			campaign("Food", 5, 10, promo.KindAmount),
		}, "0"},
		{"two campaigns one eligible amount", oneApple(4), []*promo.Campaign{
			campaign("Food", 5, 3, promo.KindAmount),
			campaign("Food", 25, 10, promo.KindAmount),
		}, "5"},
		{"two campaigns one eligible rate", oneApple(4), []*promo.Campaign{
			campaign("Food", 5, 3, promo.KindRate),
			campaign("Food", 20, 10, promo.KindRate),
		}, "5"},
		{"two campaigns two products below minimum", appleAndPear(2, 3, "25"), []*promo.Campaign{
			campaign("Food", 5, 6, promo.KindAmount),
			campaign("Food", 5, 10, promo.KindAmount),
		}, "0"},
		{"two campaigns two products one eligible amount", appleAndPear(4, 2, "50"), []*promo.Campaign{
			campaign("Food", 10, 3, promo.KindAmount),
			campaign("Food", 25, 10, promo.KindAmount),
		}, "10"},
		{"two campaigns two products one eligible rate", appleAndPear(4, 4, "50"), []*promo.Campaign{
			campaign("Food", 5, 3, promo.KindRate),
			campaign("Food", 20, 10, promo.KindRate),
		}, "15"},
		{"category not in cart", oneApple(4), []*promo.Campaign{campaign("Dress", 5, 0, promo.KindAmount)}, "0"},
		{"nil campaign skipped", oneApple(4), []*promo.Campaign{nil, campaign("Food", 5, 1, promo.KindAmount)}, "5"},
		{"unknown kind yields nothing", oneApple(4), []*promo.Campaign{campaign("Food", 5, 1, promo.KindUnknown)}, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount := Subtotal(tc.items)
			requireMoney(t, tc.want, CampaignDiscount(tc.items, amount, tc.campaigns))
		})
	}
}

func TestCampaignDiscountPicksLargestNotSum(t *testing.T) {
	items := Items{{Category: "Food", Qty: 4, UnitPrice: money("25")}}
	small := campaign("Food", 10, 1, promo.KindAmount)
	large := campaign("Food", 25, 1, promo.KindRate)

	requireMoney(t, "25", CampaignDiscount(items, money("100"), []*promo.Campaign{small, large}))
	requireMoney(t, "25", CampaignDiscount(items, money("100"), []*promo.Campaign{large, small}))

	winner, _ := BestCampaign(items, money("100"), []*promo.Campaign{large, small})
	require.Same(t, large, winner)
}

func TestBestCampaignTieKeepsEarlier(t *testing.T) {
	items := Items{{Category: "Food", Qty: 4, UnitPrice: money("25")}}
	first := campaign("Food", 10, 1, promo.KindAmount)
	second := campaign("Food", 10, 1, promo.KindRate)

	winner, discount := BestCampaign(items, money("100"), []*promo.Campaign{first, second})
	require.Same(t, first, winner)
	requireMoney(t, "10", discount)
}

func TestBestCampaignNegativeMagnitudeNeverWins(t *testing.T) {
	items := Items{{Category: "Food", Qty: 4, UnitPrice: money("25")}}
	winner, discount := BestCampaign(items, money("100"), []*promo.Campaign{campaign("Food", -5, 1, promo.KindAmount)})
	require.Nil(t, winner)
	requireMoney(t, "0", discount)
}

func TestCampaignRateIsNotClamped(t *testing.T) {
	items := Items{{Category: "Food", Qty: 1, UnitPrice: money("100")}}
	requireMoney(t, "150", CampaignDiscount(items, money("100"), []*promo.Campaign{campaign("Food", 150, 1, promo.KindRate)}))
}

func TestEligibleRequiresMatchingCategory(t *testing.T) {
	items := Items{{Category: "Food", Qty: 3, UnitPrice: money("1")}}
	require.True(t, Eligible(items, campaign("Food", 1, 3, promo.KindAmount)))
	require.False(t, Eligible(items, campaign("Food", 1, 4, promo.KindAmount)))
	require.False(t, Eligible(items, campaign("Dress", 1, 0, promo.KindAmount)))
}

func TestEligibleSkipsNonPositiveLines(t *testing.T) {
	items := Items{
		{Category: "Food", Qty: 0, UnitPrice: money("1")},
		{Category: "Food", Qty: -3, UnitPrice: money("1")},
	}
	require.Zero(t, items.QuantityInCategory("Food"))
	require.False(t, Eligible(items, campaign("Food", 1, 0, promo.KindAmount)))
	require.False(t, Eligible(nil, campaign("Food", 1, 0, promo.KindAmount)))
}

type fixedBasket map[string]int

func (b fixedBasket) QuantityInCategory(category string) int { return b[category] }

func TestComputeJudgesEligibilityOnBasket(t *testing.T) {
	in := Input{
		Items:     []Item{{Category: "Food", Qty: 1, UnitPrice: money("100")}},
		Basket:    fixedBasket{"Food": 5},
		Campaigns: []*promo.Campaign{campaign("Food", 10, 5, promo.KindRate)},
	}
	requireMoney(t, "10", Compute(in).CampaignDiscount)

	in.Basket = nil
	requireMoney(t, "0", Compute(in).CampaignDiscount)
}

func TestCouponDiscount(t *testing.T) {
	amountCoupon := promo.NewCoupon(money("50"), money("5"), promo.KindAmount)
	rateCoupon := promo.NewCoupon(money("50"), money("5"), promo.KindRate)

	cases := []struct {
		name   string
		amount string
		coupon *promo.Coupon
		want   string
	}{
		{"zero amount", "0", amountCoupon, "0"},
		{"nil coupon", "100", nil, "0"},
		{"below minimum amount", "40", amountCoupon, "0"},
		{"below minimum rate", "20", promo.NewCoupon(money("100"), money("5"), promo.KindRate), "0"},
		{"amount kind", "100", amountCoupon, "5"},
		{"amount kind is flat", "1000", amountCoupon, "5"},
		{"rate kind", "100", rateCoupon, "5"},
		{"exactly at minimum", "50", amountCoupon, "5"},
		{"unknown kind", "100", promo.NewCoupon(money("0"), money("5"), promo.KindUnknown), "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requireMoney(t, tc.want, CouponDiscount(money(tc.amount), tc.coupon))
		})
	}
}

func TestComputeAppliesCouponAfterCampaign(t *testing.T) {
	items := []Item{{Category: "Food", Qty: 4, UnitPrice: money("25")}}
	in := Input{
		Items:        items,
		Campaigns:    []*promo.Campaign{campaign("Food", 10, 1, promo.KindAmount)},
		Coupon:       promo.NewCoupon(money("95"), money("5"), promo.KindAmount),
		DeliveryCost: money("12.99"),
	}
	s := Compute(in)
	requireMoney(t, "100", s.Subtotal)
	requireMoney(t, "10", s.CampaignDiscount)
	requireMoney(t, "0", s.CouponDiscount)
	requireMoney(t, "90", s.TotalAfterDiscount)
	requireMoney(t, "12.99", s.DeliveryCost)

	in.Coupon = promo.NewCoupon(money("90"), money("10"), promo.KindRate)
	s = Compute(in)
	requireMoney(t, "9", s.CouponDiscount)
	requireMoney(t, "81", s.TotalAfterDiscount)
}

func TestComputeNoDiscounts(t *testing.T) {
	s := Compute(Input{Items: []Item{{Category: "Food", Qty: 1, UnitPrice: money("42.5")}}})
	requireMoney(t, "42.5", s.TotalAfterDiscount)
	requireMoney(t, "0", s.CampaignDiscount)
	requireMoney(t, "0", s.CouponDiscount)
}
