package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ghstore/internal/service"
	"github.com/utafrali/ghstore/pkg/httputil"
	"github.com/utafrali/ghstore/pkg/phone"
	"github.com/utafrali/ghstore/pkg/validator"
)

// PhoneHandler exposes phone number inspection to storefront forms.
type PhoneHandler struct {
	service *service.PhoneService
	logger  *slog.Logger
}

// NewPhoneHandler creates a new phone HTTP handler.
func NewPhoneHandler(svc *service.PhoneService, logger *slog.Logger) *PhoneHandler {
	return &PhoneHandler{
		service: svc,
		logger:  logger,
	}
}

// InspectRequest is the JSON request body for POST /api/v1/phone/inspect.
type InspectRequest struct {
	Phone string `json:"phone" validate:"max=64"`
}

// ValidateRequest is the JSON request body for POST /api/v1/phone/validate.
type ValidateRequest struct {
	Phone    string `json:"phone" validate:"max=64"`
	Required bool   `json:"required"`
	Country  string `json:"country" validate:"omitempty,len=2,alpha"`
}

// NormalizeRequest is the JSON request body for POST /api/v1/phone/normalize.
type NormalizeRequest struct {
	Phones []string `json:"phones" validate:"required,max=100,dive,max=64"`
}

// Inspect handles POST /api/v1/phone/inspect
func (h *PhoneHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	var req InspectRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.service.Inspect(req.Phone))
}

// Validate handles POST /api/v1/phone/validate
func (h *PhoneHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.service.Validate(req.Phone, phone.ValidateOptions{
		Required: req.Required,
		Country:  req.Country,
	}))
}

// Normalize handles POST /api/v1/phone/normalize
func (h *PhoneHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	batch, err := h.service.NormalizeBatch(req.Phones)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, batch)
}
