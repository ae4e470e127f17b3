package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"shiv-erp/internal/app"
	"shiv-erp/internal/core"
)

// dateQuery reads from, to, date, month and year for the dated reports.
func dateQuery(r *http.Request) core.DateQuery {
	q := r.URL.Query()
	return core.DateQuery{
		From:  q.Get("from"),
		To:    q.Get("to"),
		Date:  q.Get("date"),
		Month: q.Get("month"),
		Year:  q.Get("year"),
	}
}

func (h *Handler) stockReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.StockReport(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

// profitAndLoss handles GET /api/reports/profit-loss?from=&to= (or month=, year=).
func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.ProfitAndLoss(r.Context(), dateQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.BalanceSheet(r.Context(), dateQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

// dashboard handles GET /api/reports/dashboard?period=7d|30d|90d|1y (default 30d).
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Dashboard(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rep)
}

// ── HSN and tax ──────────────────────────────────────────────────────────────

func (h *Handler) lookupHSN(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.LookupHSN(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// searchHSN handles GET /api/hsn/search?q=&services=true&limit=.
func (h *Handler) searchHSN(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	services, _ := strconv.ParseBool(q.Get("services"))
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	rates, err := h.svc.SearchHSN(r.Context(), q.Get("q"), services, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rates)
}

func (h *Handler) calculateTax(w http.ResponseWriter, r *http.Request) {
	var req app.CalculateTaxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CalculateTax(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) peekCounter(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.PeekCounter(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
