package checkout

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/promo"
)

// ProductLookup resolves products referenced by add-item requests.
type ProductLookup interface {
	Get(id uuid.UUID) (*catalog.Product, error)
}

// Handler wires checkout sessions to HTTP.
type Handler struct {
	Store    *Store
	Products ProductLookup
	Logger   zerolog.Logger
	Currency string
}

// MaxItemQty caps the units a single add-item request may carry.
const MaxItemQty = 10000

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,gt=0,lte=10000"`
}

type campaignRequest struct {
	Category    string          `json:"category" validate:"required,max=100"`
	Kind        string          `json:"kind" validate:"required,oneof=amount rate fixed percent"`
	Magnitude   decimal.Decimal `json:"magnitude"`
	MinQuantity int             `json:"minQuantity" validate:"gte=0"`
}

type applyCampaignsRequest struct {
	Campaigns []campaignRequest `json:"campaigns" validate:"required,min=1,dive"`
}

type couponRequest struct {
	MinPrice  decimal.Decimal `json:"minPrice"`
	Kind      string          `json:"kind" validate:"required,oneof=amount rate fixed percent"`
	Magnitude decimal.Decimal `json:"magnitude"`
}

type lineView struct {
	ProductID uuid.UUID       `json:"productId"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Qty       int             `json:"qty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type checkoutView struct {
	ID         uuid.UUID         `json:"id"`
	ExpiresAt  time.Time         `json:"expiresAt"`
	Items      []lineView        `json:"items"`
	Campaigns  []*promo.Campaign `json:"campaigns"`
	Coupon     *promo.Coupon     `json:"coupon"`
	Deliveries int               `json:"deliveries"`
	Products   int               `json:"products"`
	Pricing    pricing.Summary   `json:"pricing"`
	Currency   string            `json:"currency,omitempty"`
}

// Create handles POST /api/v1/checkouts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout store not configured", nil)
		return
	}
	sess := h.Store.Create()
	h.Logger.Debug().Str("checkout_id", sess.ID.String()).Msg("checkout created")
	common.Data(w, http.StatusCreated, map[string]any{
		"id":        sess.ID,
		"expiresAt": sess.ExpiresAt(),
	})
}

// Get handles GET /api/v1/checkouts/{id} and returns lines plus a pricing quote.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

// Delete handles DELETE /api/v1/checkouts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout store not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid checkout id", nil)
		return
	}
	if err := h.Store.Delete(id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/v1/checkouts/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload addItemRequest
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if h.Products == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "product lookup not configured", nil)
		return
	}
	product, err := h.Products.Get(uuid.MustParse(payload.ProductID))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	_ = sess.Do(func(co *Checkout) error {
		if !co.AddItem(product, payload.Qty) {
			h.Logger.Debug().Str("checkout_id", sess.ID.String()).Int("qty", payload.Qty).Msg("item ignored")
		}
		return nil
	})
	h.respond(w, r, http.StatusOK, sess)
}

// ApplyCampaigns handles POST /api/v1/checkouts/{id}/campaigns.
func (h *Handler) ApplyCampaigns(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload applyCampaignsRequest
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	campaigns := make([]*promo.Campaign, 0, len(payload.Campaigns))
	for i, c := range payload.Campaigns {
		kind, err := promo.ParseKind(c.Kind)
		if err != nil {
			common.WriteError(w, fmt.Errorf("campaign %d: %w", i, err))
			return
		}
		campaigns = append(campaigns, promo.NewCampaign(catalog.NewCategory(c.Category), c.Magnitude, c.MinQuantity, kind))
	}
	if err := sess.Do(func(co *Checkout) error { return co.ApplyDiscounts(campaigns...) }); err != nil {
		common.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

// ApplyCoupon handles PUT /api/v1/checkouts/{id}/coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload couponRequest
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	kind, err := promo.ParseKind(payload.Kind)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	coupon := promo.NewCoupon(payload.MinPrice, payload.Magnitude, kind)
	if err := sess.Do(func(co *Checkout) error { return co.ApplyCoupon(coupon) }); err != nil {
		common.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout store not configured", nil)
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid checkout id", nil)
		return nil, false
	}
	sess, err := h.Store.Get(id)
	if err != nil {
		common.WriteError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, sess *Session) {
	_, span := otel.Tracer(obs.TracerName).Start(r.Context(), "checkout.quote")
	defer span.End()

	result := "error"
	defer func() {
		if obs.CheckoutQuotesTotal != nil {
			obs.CheckoutQuotesTotal.WithLabelValues(result).Inc()
		}
	}()

	var (
		view   checkoutView
		winner *promo.Campaign
	)
	err := sess.Do(func(co *Checkout) error {
		summary, err := co.Summary()
		if err != nil {
			return err
		}
		lines := co.Lines()
		view = checkoutView{
			ID:         sess.ID,
			ExpiresAt:  sess.expiresAt,
			Items:      make([]lineView, 0, len(lines)),
			Campaigns:  co.Campaigns(),
			Coupon:     co.Coupon(),
			Deliveries: co.NumberOfDeliveries(),
			Products:   co.NumberOfProducts(),
			Pricing:    summary,
			Currency:   h.Currency,
		}
		for _, line := range lines {
			view.Items = append(view.Items, lineView{
				ProductID: line.Product.ID,
				Title:     line.Product.Title,
				Category:  line.Product.Category.Title,
				UnitPrice: line.Product.Price,
				Qty:       line.Qty,
				Subtotal:  line.Subtotal(),
			})
		}
		winner = co.WinningCampaign()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		h.Logger.Error().Err(err).Str("checkout_id", sess.ID.String()).Msg("quote checkout")
		common.WriteError(w, err)
		return
	}
	result = "ok"

	discount := view.Pricing.CampaignDiscount.Add(view.Pricing.CouponDiscount)
	span.SetAttributes(
		attribute.String("checkout.id", sess.ID.String()),
		attribute.String("checkout.subtotal", view.Pricing.Subtotal.String()),
		attribute.String("checkout.discount", discount.String()),
		attribute.Int("checkout.products", view.Products),
	)
	recordQuoteMetrics(view, winner, discount)
	common.Data(w, status, view)
}

func recordQuoteMetrics(view checkoutView, winner *promo.Campaign, discount decimal.Decimal) {
	if winner != nil && obs.CampaignQuotedTotal != nil {
		obs.CampaignQuotedTotal.WithLabelValues(winner.Kind().String()).Inc()
	}
	if view.Coupon != nil && view.Pricing.CouponDiscount.IsPositive() && obs.CouponQuotedTotal != nil {
		obs.CouponQuotedTotal.WithLabelValues(view.Coupon.Kind().String()).Inc()
	}
	if obs.CheckoutDiscountAmount != nil {
		obs.CheckoutDiscountAmount.Observe(discount.InexactFloat64())
	}
}
