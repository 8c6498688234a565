package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marviero/backoffice/internal/service"
	"github.com/marviero/backoffice/pkg/httputil"
	"github.com/marviero/backoffice/pkg/pagination"
	"github.com/marviero/backoffice/pkg/validator"
)

// InvoiceHandler handles HTTP requests for invoice endpoints.
type InvoiceHandler struct {
	service *service.InvoiceService
	logger  *slog.Logger
}

// NewInvoiceHandler creates a new invoice HTTP handler.
func NewInvoiceHandler(svc *service.InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: svc, logger: logger}
}

// CreateInvoiceRequest is the JSON request body for drafting an invoice.
type CreateInvoiceRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid4"`
}

// UpdateInvoiceStatusRequest is the JSON request body for moving an invoice.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT ISSUED PAID VOID"`
}

// Create handles POST /api/v1/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	invoice, err := h.service.CreateFromOrder(r.Context(), identity, req.OrderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: invoice})
}

// Get handles GET /api/v1/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	invoice, err := h.service.Get(r.Context(), identity, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: invoice})
}

// List handles GET /api/v1/invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	result, err := h.service.List(r.Context(), identity, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// UpdateStatus handles PUT /api/v1/invoices/{id}/status
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateInvoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	invoice, err := h.service.UpdateStatus(r.Context(), identity, id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: invoice})
}
