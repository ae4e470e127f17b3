package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"shiv-erp/internal/app"
	"shiv-erp/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log zerolog.Logger, bodyLimit int64) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer)
	r.Use(RequestBodyLimit(bodyLimit))

	r.Get("/api/health", h.health)

	r.Route("/api/contacts", func(r chi.Router) {
		r.Get("/", h.listContacts)
		r.Post("/", h.createContact)
		r.Get("/{id}", h.getContact)
		r.Post("/{id}/archive", h.archiveContact(true))
		r.Post("/{id}/unarchive", h.archiveContact(false))
	})
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
	})
	r.Route("/api/taxes", func(r chi.Router) {
		r.Get("/", h.listTaxes)
		r.Post("/", h.createTax)
		r.Get("/{id}", h.getTax)
	})
	r.Route("/api/accounts", func(r chi.Router) {
		r.Get("/", h.listAccounts)
		r.Post("/", h.createAccount)
		r.Post("/seed-defaults", h.seedAccounts)
	})
	r.Route("/api/stock", func(r chi.Router) {
		r.Post("/", h.recordStock)
		r.Get("/{productID}", h.stockLevel)
	})

	r.Route("/api/purchase-orders", h.orderRoutes(core.PurchaseOrderKind, core.VendorBillKind))
	r.Route("/api/sales-orders", h.orderRoutes(core.SalesOrderKind, core.CustomerInvoiceKind))
	r.Route("/api/vendor-bills", h.billingRoutes(core.VendorBillKind))
	r.Route("/api/customer-invoices", h.billingRoutes(core.CustomerInvoiceKind))

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/stock", h.stockReport)
		r.Get("/profit-loss", h.profitAndLoss)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/dashboard", h.dashboard)
	})
	r.Get("/api/hsn/search", h.searchHSN)
	r.Get("/api/hsn/{code}", h.lookupHSN)
	r.Post("/api/tax/calculate", h.calculateTax)
	r.Get("/api/counters/{key}", h.peekCounter)

	h.router = r
	return r
}

// health reports liveness. It does not touch the database.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// intParam reads a positive integer URL parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		writeErrorField(w, r, name+" must be a positive integer", "BAD_REQUEST", name, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		writeErrorField(w, r, name+" must be an integer", "BAD_REQUEST", name, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// listRequest reads status, counterparty_id, q, page and limit from the query string.
func listRequest(w http.ResponseWriter, r *http.Request) (app.ListRequest, bool) {
	q := r.URL.Query()
	req := app.ListRequest{
		Status: q.Get("status"),
		Query:  q.Get("q"),
	}
	var ok bool
	if req.CounterpartyID, ok = queryInt(w, r, "counterparty_id"); !ok {
		return req, false
	}
	if req.Page, ok = queryInt(w, r, "page"); !ok {
		return req, false
	}
	if req.Limit, ok = queryInt(w, r, "limit"); !ok {
		return req, false
	}
	return req, true
}
