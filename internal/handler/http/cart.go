package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/ghstore/internal/domain"
	"github.com/utafrali/ghstore/internal/service"
	"github.com/utafrali/ghstore/pkg/httputil"
	"github.com/utafrali/ghstore/pkg/middleware"
	"github.com/utafrali/ghstore/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
// unit_price accepts a JSON number or a decimal string.
type AddItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required,max=64"`
	VariantID   string          `json:"variant_id" validate:"max=64"`
	Name        string          `json:"name" validate:"required,min=1,max=255"`
	SKU         string          `json:"sku" validate:"max=64"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
	MaxQuantity int             `json:"max_quantity" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
}

// UpdateQuantityRequest is the JSON request body for updating an item's quantity.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// --- Response DTOs ---

type lineItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	Name        string `json:"name"`
	SKU         string `json:"sku,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	MaxQuantity int    `json:"max_quantity"`
	LineTotal   string `json:"line_total"`
	ImageURL    string `json:"image_url,omitempty"`
}

type summaryResponse struct {
	Subtotal             string `json:"subtotal"`
	ShippingCost         string `json:"shipping_cost"`
	Tax                  string `json:"tax"`
	Total                string `json:"total"`
	TotalItems           int    `json:"total_items"`
	FreeShipping         bool   `json:"free_shipping"`
	AmountToFreeShipping string `json:"amount_to_free_shipping"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Currency  string             `json:"currency"`
	Version   int                `json:"version"`
	Items     []lineItemResponse `json:"items"`
	Summary   *summaryResponse   `json:"summary,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// money renders an amount with two decimal places.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toCartResponse(cart *domain.Cart, summary *domain.Summary) cartResponse {
	items := make([]lineItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = lineItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Name:        item.Name,
			SKU:         item.SKU,
			UnitPrice:   money(item.UnitPrice),
			Quantity:    item.Quantity,
			MaxQuantity: item.MaxQuantity,
			LineTotal:   money(item.LineTotal()),
			ImageURL:    item.ImageURL,
		}
	}

	resp := cartResponse{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Currency:  cart.Currency,
		Version:   cart.Version,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
		ExpiresAt: cart.ExpiresAt,
	}
	if summary != nil {
		resp.Summary = &summaryResponse{
			Subtotal:             money(summary.Subtotal),
			ShippingCost:         money(summary.ShippingCost),
			Tax:                  money(summary.Tax),
			Total:                money(summary.Total),
			TotalItems:           summary.TotalItems,
			FreeShipping:         summary.FreeShipping(),
			AmountToFreeShipping: money(summary.AmountToFreeShipping),
		}
	}
	return resp
}

func viewResponse(view *service.CartView) cartResponse {
	return toCartResponse(view.Cart, &view.Summary)
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toCartResponse(cart, nil))
}

// GetSummary handles GET /api/v1/cart/summary
func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetSummary(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, viewResponse(view))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.AddItem(r.Context(), middleware.UserIDFromContext(r.Context()), service.AddItemInput{
		ProductID:   req.ProductID,
		VariantID:   req.VariantID,
		Name:        req.Name,
		SKU:         req.SKU,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
		MaxQuantity: req.MaxQuantity,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, viewResponse(view))
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{itemId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.UpdateItemQuantity(r.Context(), middleware.UserIDFromContext(r.Context()), itemID, *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, viewResponse(view))
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	view, err := h.service.RemoveItem(r.Context(), middleware.UserIDFromContext(r.Context()), itemID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, viewResponse(view))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "cleared"})
}
