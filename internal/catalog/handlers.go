package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	registry     *Registry
	defaultLimit int
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Registry     *Registry
	DefaultLimit int
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	return &Handler{registry: cfg.Registry, defaultLimit: limit}
}

type createProductRequest struct {
	Title    string          `json:"title" validate:"required,max=200"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category" validate:"required,max=100"`
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog registry not configured", nil)
		return
	}
	var payload createProductRequest
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.registry.Register(payload.Title, payload.Price, payload.Category)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, p)
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog registry not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.registry.Categories())
}

// Products handles GET /api/v1/products with pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog registry not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, h.defaultLimit)
	items, total := h.registry.List(page, perPage)
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	common.JSON(w, http.StatusOK, common.Envelope{
		Data:       items,
		Pagination: common.NewPagination(page, perPage, total),
	})
}

// ProductDetail handles GET /api/v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog registry not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	p, err := h.registry.Get(id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}
