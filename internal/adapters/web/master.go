package web

import (
	"net/http"
	"strconv"

	"shiv-erp/internal/app"
)

// ── Contacts ─────────────────────────────────────────────────────────────────

// listContacts handles GET /api/contacts?type=&active=&q=&page=&limit=.
func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListContactsRequest{Type: q.Get("type"), Query: q.Get("q")}
	if s := q.Get("active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			writeErrorField(w, r, "active must be true or false", "BAD_REQUEST", "active", http.StatusBadRequest)
			return
		}
		req.Active = &active
	}
	var ok bool
	if req.Page, ok = queryInt(w, r, "page"); !ok {
		return
	}
	if req.Limit, ok = queryInt(w, r, "limit"); !ok {
		return
	}

	page, err := h.svc.ListContacts(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	var req app.CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.CreateContact(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func (h *Handler) getContact(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.GetContact(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// archiveContact handles POST /api/contacts/{id}/archive and /unarchive.
func (h *Handler) archiveContact(archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		c, err := h.svc.SetContactArchived(r.Context(), id, archived)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, c)
	}
}

// ── Products ─────────────────────────────────────────────────────────────────

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	req, ok := listRequest(w, r)
	if !ok {
		return
	}
	page, err := h.svc.ListProducts(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// ── Taxes ────────────────────────────────────────────────────────────────────

// listTaxes handles GET /api/taxes?scope=Sales|Purchase.
func (h *Handler) listTaxes(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.svc.ListTaxes(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, taxes)
}

func (h *Handler) createTax(w http.ResponseWriter, r *http.Request) {
	var req app.CreateTaxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTax(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, t)
}

func (h *Handler) getTax(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetTax(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, t)
}

// ── Chart of accounts ────────────────────────────────────────────────────────

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, accounts)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req app.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.svc.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, a)
}

func (h *Handler) seedAccounts(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SeedDefaultAccounts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// ── Stock ────────────────────────────────────────────────────────────────────

func (h *Handler) recordStock(w http.ResponseWriter, r *http.Request) {
	var req app.RecordStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.svc.RecordStock(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, entry)
}

func (h *Handler) stockLevel(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "productID")
	if !ok {
		return
	}
	res, err := h.svc.GetStockLevel(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
