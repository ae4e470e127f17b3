package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shiv-erp/internal/app"
	"shiv-erp/internal/core"
)

// orderRoutes mounts the order endpoints for one order kind. billKind is the
// document raised by POST /{id}/bill.
func (h *Handler) orderRoutes(kind core.OrderKind, billKind core.BillingKind) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.listOrders(kind))
		r.Post("/", h.createOrder(kind))
		r.Post("/preview", h.previewOrder(kind))
		r.Get("/{id}", h.getOrder(kind))
		r.Put("/{id}", h.updateOrder(kind))
		r.Post("/{id}/confirm", h.transitionOrder(kind, core.ActionConfirm))
		r.Post("/{id}/cancel", h.transitionOrder(kind, core.ActionCancel))
		r.Post("/{id}/revert", h.transitionOrder(kind, core.ActionRevert))
		r.Post("/{id}/bill", h.billOrder(billKind))
	}
}

func (h *Handler) listOrders(kind core.OrderKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := listRequest(w, r)
		if !ok {
			return
		}
		page, err := h.svc.ListOrders(r.Context(), kind, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, page)
	}
}

func (h *Handler) createOrder(kind core.OrderKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req app.CreateOrderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		o, err := h.svc.CreateOrder(r.Context(), kind, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, o)
	}
}

// previewOrder prices lines without saving. Body: {"items": [...]}.
func (h *Handler) previewOrder(kind core.OrderKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items []app.OrderLineRequest `json:"items"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		calc, err := h.svc.PreviewOrderTotals(r.Context(), kind, body.Items)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, calc)
	}
}

func (h *Handler) getOrder(kind core.OrderKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		o, err := h.svc.GetOrder(r.Context(), kind, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, o)
	}
}

func (h *Handler) updateOrder(kind core.OrderKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		var req app.UpdateOrderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		o, err := h.svc.UpdateOrder(r.Context(), kind, id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, o)
	}
}

func (h *Handler) transitionOrder(kind core.OrderKind, action core.OrderAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		o, err := h.svc.TransitionOrder(r.Context(), kind, id, action)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, o)
	}
}

// billOrder raises a bill or invoice from a confirmed order. The body is optional.
func (h *Handler) billOrder(kind core.BillingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		var req app.BillFromOrderRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		doc, err := h.svc.CreateBillFromOrder(r.Context(), kind, id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, doc)
	}
}
