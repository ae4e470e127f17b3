package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiv-erp/internal/app"
	"shiv-erp/internal/core"
	"shiv-erp/internal/logger"
)

// fakeService implements only what the tests call; anything else panics
// through the nil embedded interface and is turned into a 500 by Recoverer.
type fakeService struct {
	app.ApplicationService

	gotKind   core.OrderKind
	gotAction core.OrderAction
	gotList   app.ListRequest
	gotBill   core.BillingKind
	gotOrder  int
	err       error
}

func (f *fakeService) GetOrder(_ context.Context, kind core.OrderKind, id int) (*core.Order, error) {
	f.gotKind = kind
	if f.err != nil {
		return nil, f.err
	}
	return &core.Order{ID: id, Kind: kind, Number: "PO00001", TotalAmount: decimal.RequireFromString("236")}, nil
}

func (f *fakeService) ListOrders(_ context.Context, kind core.OrderKind, req app.ListRequest) (*core.OrderPage, error) {
	f.gotKind = kind
	f.gotList = req
	return &core.OrderPage{Items: []core.Order{}, Page: 1, Limit: 20}, nil
}

func (f *fakeService) TransitionOrder(_ context.Context, kind core.OrderKind, id int, action core.OrderAction) (*core.Order, error) {
	f.gotKind = kind
	f.gotAction = action
	if f.err != nil {
		return nil, f.err
	}
	return &core.Order{ID: id, Kind: kind, Status: core.OrderConfirmed}, nil
}

func (f *fakeService) CreateBillFromOrder(_ context.Context, kind core.BillingKind, orderID int, _ app.BillFromOrderRequest) (*core.BillingDocument, error) {
	f.gotBill = kind
	f.gotOrder = orderID
	return &core.BillingDocument{ID: 1, Kind: kind}, nil
}

func (f *fakeService) AddPayment(_ context.Context, _ core.BillingKind, _ int, _ app.PaymentRequest) (*core.BillingDocument, error) {
	return nil, f.err
}

func (f *fakeService) CreateContact(_ context.Context, req app.CreateContactRequest) (*core.Contact, error) {
	return &core.Contact{ID: 9, Name: req.Name}, nil
}

func newTestServer(f *fakeService) http.Handler {
	return NewHandler(f, logger.Nop(), 1<<10)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestID(t *testing.T) {
	h := newTestServer(&fakeService{})

	t.Run("safe caller id is kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("unsafe caller id is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "<script>")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.NotEqual(t, "<script>", rec.Header().Get("X-Request-ID"))
		assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
	})
}

func TestOrderRoutesBindKind(t *testing.T) {
	f := &fakeService{}
	h := newTestServer(f)

	rec := do(t, h, http.MethodGet, "/api/purchase-orders/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.PurchaseOrderKind, f.gotKind)
	assert.Contains(t, rec.Body.String(), `"total_amount":"236"`)

	rec = do(t, h, http.MethodPost, "/api/sales-orders/5/revert", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.SalesOrderKind, f.gotKind)
	assert.Equal(t, core.ActionRevert, f.gotAction)

	rec = do(t, h, http.MethodPost, "/api/sales-orders/7/bill", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, core.CustomerInvoiceKind, f.gotBill)
	assert.Equal(t, 7, f.gotOrder)

	rec = do(t, h, http.MethodPost, "/api/vendor-bills/from-order/3", `{"reference":"R-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, core.VendorBillKind, f.gotBill)
	assert.Equal(t, 3, f.gotOrder)
}

func TestListQueryParsing(t *testing.T) {
	f := &fakeService{}
	h := newTestServer(f)

	rec := do(t, h, http.MethodGet, "/api/purchase-orders?status=draft&counterparty_id=2&q=chair&page=3&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.ListRequest{Status: "draft", CounterpartyID: 2, Query: "chair", Page: 3, Limit: 5}, f.gotList)

	rec = do(t, h, http.MethodGet, "/api/purchase-orders?page=two", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "page", decodeError(t, rec).Field)
}

func TestBadIDParam(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}), http.MethodGet, "/api/purchase-orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", decodeError(t, rec).Field)
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", &core.DomainError{Kind: core.ErrNotFound, Op: "get", Msg: "order not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"invalid state", &core.DomainError{Kind: core.ErrInvalidState, Op: "confirm", Msg: "already confirmed"}, http.StatusConflict, "INVALID_STATE"},
		{"invalid input", &core.DomainError{Kind: core.ErrInvalidInput, Op: "pay", Field: "amount"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"inconsistent", &core.DomainError{Kind: core.ErrCalculationInconsistency, Op: "price"}, http.StatusUnprocessableEntity, "CALCULATION_INCONSISTENCY"},
		{"dependency", &core.DomainError{Kind: core.ErrDependencyFailure, Op: "price"}, http.StatusBadGateway, "DEPENDENCY_FAILURE"},
		{"unclassified", assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeService{err: tt.err})
			rec := do(t, h, http.MethodPost, "/api/purchase-orders/1/confirm", "")
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}

	t.Run("field is reported", func(t *testing.T) {
		h := newTestServer(&fakeService{err: &core.DomainError{Kind: core.ErrInvalidInput, Op: "pay", Field: "amount", Msg: "overpayment"}})
		rec := do(t, h, http.MethodPost, "/api/customer-invoices/1/payments", `{"mode":"Bank","amount":"10"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "amount", decodeError(t, rec).Field)
	})

	t.Run("internal detail is hidden", func(t *testing.T) {
		h := newTestServer(&fakeService{err: assert.AnError})
		rec := do(t, h, http.MethodGet, "/api/purchase-orders/1", "")
		assert.Equal(t, "internal server error", decodeError(t, rec).Error)
	})
}

func TestBodyHandling(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodPost, "/api/contacts", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/contacts", `{"name":"`+strings.Repeat("x", 2048)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/contacts", `{"name":"Asha Interiors","type":"Customer"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":9`)
}

func TestRecovererOnPanic(t *testing.T) {
	// StockReport is not implemented by the fake, so the call panics.
	rec := do(t, newTestServer(&fakeService{}), http.MethodGet, "/api/reports/stock", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}
