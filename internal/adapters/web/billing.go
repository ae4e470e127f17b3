package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shiv-erp/internal/app"
	"shiv-erp/internal/core"
)

// billingRoutes mounts the vendor bill or customer invoice endpoints.
func (h *Handler) billingRoutes(kind core.BillingKind) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.listBilling(kind))
		r.Post("/", h.createBilling(kind))
		r.Post("/from-order/{orderID}", h.billingFromOrder(kind))
		r.Get("/{id}", h.getBilling(kind))
		r.Put("/{id}", h.updateBilling(kind))
		r.Post("/{id}/confirm", h.transitionBilling(kind, core.ActionConfirm))
		r.Post("/{id}/cancel", h.transitionBilling(kind, core.ActionCancel))
		r.Post("/{id}/payments", h.addPayment(kind))
	}
}

func (h *Handler) listBilling(kind core.BillingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := listRequest(w, r)
		if !ok {
			return
		}
		page, err := h.svc.ListBillingDocuments(r.Context(), kind, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, page)
	}
}

func (h *Handler) createBilling(kind core.BillingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req app.CreateBillingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		doc, err := h.svc.CreateBillingDocument(r.Context(), kind, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, doc)
	}
}

func (h *Handler) billingFromOrder(kind core.BillingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := intParam(w, r, "orderID")
		if !ok {
			return
		}
		var req app.BillFromOrderRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		doc, err := h.svc.CreateBillFromOrder(r.Context(), kind, orderID, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, doc)
	}
}

func (h *Handler) getBilling(kind core.BillingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		doc, err := h.svc.GetBillingDocument(r.Context(), kind, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, doc)
	}
}

func (h *Handler) updateBilling(kind core.BillingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		var req app.UpdateBillingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		doc, err := h.svc.UpdateBillingDocument(r.Context(), kind, id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, doc)
	}
}

func (h *Handler) transitionBilling(kind core.BillingKind, action core.OrderAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		doc, err := h.svc.TransitionBillingDocument(r.Context(), kind, id, action)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, doc)
	}
}

// addPayment handles POST /{id}/payments. Body: {"mode": "Cash"|"Bank", "amount": "100.00"}.
func (h *Handler) addPayment(kind core.BillingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		var req app.PaymentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		doc, err := h.svc.AddPayment(r.Context(), kind, id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, doc)
	}
}
