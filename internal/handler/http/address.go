package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ghstore/internal/domain"
	"github.com/utafrali/ghstore/internal/service"
	"github.com/utafrali/ghstore/pkg/httputil"
	"github.com/utafrali/ghstore/pkg/middleware"
	"github.com/utafrali/ghstore/pkg/validator"
)

// AddressHandler handles HTTP requests for the address book.
type AddressHandler struct {
	service *service.AddressService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(svc *service.AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{
		service: svc,
		logger:  logger,
	}
}

// addressResponse adds the display form of the stored phone number.
type addressResponse struct {
	*domain.Address
	PhoneDisplay string `json:"phone_display,omitempty"`
}

func toAddressResponse(a *domain.Address) addressResponse {
	return addressResponse{Address: a, PhoneDisplay: a.DisplayPhone()}
}

// ListAddresses handles GET /api/v1/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.ListAddresses(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]addressResponse, len(addresses))
	for i := range addresses {
		out[i] = toAddressResponse(&addresses[i])
	}
	httputil.WriteData(w, http.StatusOK, out)
}

// CreateAddress handles POST /api/v1/addresses
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAddressInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	address, err := h.service.CreateAddress(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, toAddressResponse(address))
}

// GetAddress handles GET /api/v1/addresses/{id}
func (h *AddressHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	address, err := h.service.GetAddress(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toAddressResponse(address))
}

// UpdateAddress handles PUT /api/v1/addresses/{id}
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateAddressInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	address, err := h.service.UpdateAddress(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toAddressResponse(address))
}

// DeleteAddress handles DELETE /api/v1/addresses/{id}
func (h *AddressHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteAddress(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultAddress handles POST /api/v1/addresses/{id}/default
func (h *AddressHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	address, err := h.service.SetDefaultAddress(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toAddressResponse(address))
}
