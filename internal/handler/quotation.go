package handler

import (
	"net/http"

	"github.com/Dan9191/quotation-service/internal/httputil"
	"github.com/Dan9191/quotation-service/internal/models"
	"github.com/Dan9191/quotation-service/internal/service"
)

type quotationResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// ListQuotations returns all quotations
func (h *Handler) ListQuotations(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.ListQuotations(r.Context())
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, qs)
}

// CreateQuotation stores a new quotation
func (h *Handler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	var in service.CreateQuotationInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	id, err := h.svc.CreateQuotation(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, quotationResponse{ID: id, Message: "Quotation created successfully"})
}

// UpdateQuotation applies a partial update
func (h *Handler) UpdateQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	var patch models.QuotationPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	if err := h.svc.UpdateQuotation(r.Context(), id, patch); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quotationResponse{ID: id, Message: "Quotation updated successfully"})
}

// UpdateQuotationStatus changes only the status
func (h *Handler) UpdateQuotationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	if err := h.svc.UpdateQuotationStatus(r.Context(), id, body.Status); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quotationResponse{ID: id, Status: body.Status, Message: "Quotation status updated successfully"})
}

// DeleteQuotation removes a quotation
func (h *Handler) DeleteQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	if err := h.svc.DeleteQuotation(r.Context(), id); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quotationResponse{ID: id, Message: "Quotation deleted successfully"})
}
