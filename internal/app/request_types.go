package app

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shiv-erp/internal/core"
)

// CreateContactRequest is the input for creating a customer or vendor.
type CreateContactRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // Customer, Vendor or Both
	Email   string `json:"email"`
	Mobile  string `json:"mobile"`
	GSTNo   string `json:"gst_no"`
	City    string `json:"address_city"`
	State   string `json:"address_state"`
	Pincode string `json:"address_pincode"`
}

// ListRequest carries the common list filters.
type ListRequest struct {
	Status         string `json:"status"`
	CounterpartyID int    `json:"counterparty_id"`
	Query          string `json:"q"`
	Page           int    `json:"page"`
	Limit          int    `json:"limit"`
}

func (r ListRequest) filter() core.ListFilter {
	return core.ListFilter{
		Status:         r.Status,
		CounterpartyID: r.CounterpartyID,
		Query:          r.Query,
		Page:           r.Page,
		Limit:          r.Limit,
	}
}

// ListContactsRequest filters contacts. Active nil lists both active and archived.
type ListContactsRequest struct {
	Type   string `json:"type"`
	Active *bool  `json:"active"`
	Query  string `json:"q"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

// CreateProductRequest is the input for creating a product.
type CreateProductRequest struct {
	Name          string          `json:"name"`
	Type          string          `json:"type"` // Goods (default) or Service
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	HSNCode       string          `json:"hsn_code"`
	Category      string          `json:"category"`
}

// CreateTaxRequest is the input for creating a tax.
type CreateTaxRequest struct {
	Name         string          `json:"name"`
	Method       string          `json:"method"` // Percentage or Fixed
	Value        decimal.Decimal `json:"value"`
	ApplicableOn string          `json:"applicable_on"` // Sales or Purchase
}

// CreateAccountRequest is the input for adding to the chart of accounts.
type CreateAccountRequest struct {
	AccountName string `json:"account_name"`
	Type        string `json:"type"`
}

// RecordStockRequest is a single stock movement.
type RecordStockRequest struct {
	ProductID int             `json:"product_id"`
	Type      string          `json:"type"` // In or Out
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference"`
}

// OrderLineRequest is one requested line. Omitted prices default from the
// product; computed fields are never accepted from callers.
type OrderLineRequest struct {
	ProductID   *int             `json:"product_id"`
	ProductName string           `json:"product_name"`
	HSNCode     string           `json:"hsn_code"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TaxID       *int             `json:"tax_id"`
	TaxIDs      []int            `json:"tax_ids"`
	AccountID   *int             `json:"account_id"`
}

func toLines(in []OrderLineRequest) []core.OrderLine {
	if in == nil {
		return nil
	}
	out := make([]core.OrderLine, len(in))
	for i, l := range in {
		out[i] = core.OrderLine{
			ProductID:   l.ProductID,
			ProductName: strings.TrimSpace(l.ProductName),
			HSNCode:     strings.TrimSpace(l.HSNCode),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxID:       l.TaxID,
			TaxIDs:      l.TaxIDs,
			AccountID:   l.AccountID,
		}
	}
	return out
}

// CreateOrderRequest is the input for creating a sales or purchase order.
// The counterparty may be given as vendor_id, customer_id or counterparty_id.
type CreateOrderRequest struct {
	CounterpartyID int                `json:"counterparty_id"`
	VendorID       int                `json:"vendor_id"`
	CustomerID     int                `json:"customer_id"`
	Number         string             `json:"number"`
	Reference      string             `json:"reference"`
	Date           string             `json:"date"` // YYYY-MM-DD, defaults to today
	Items          []OrderLineRequest `json:"items"`
}

func firstNonZero(ids ...int) int {
	for _, id := range ids {
		if id != 0 {
			return id
		}
	}
	return 0
}

// UpdateOrderRequest edits a draft order. Nil fields are left unchanged.
type UpdateOrderRequest struct {
	CounterpartyID *int               `json:"counterparty_id"`
	Reference      *string            `json:"reference"`
	Date           *string            `json:"date"`
	Items          []OrderLineRequest `json:"items"`
}

// BillFromOrderRequest carries the optional header of a document raised from an order.
type BillFromOrderRequest struct {
	InvoiceDate string `json:"invoice_date"`
	DueDate     string `json:"due_date"`
	Reference   string `json:"reference"`
}

// CreateBillingRequest creates a standalone draft bill or invoice.
type CreateBillingRequest struct {
	CounterpartyID int                `json:"counterparty_id"`
	VendorID       int                `json:"vendor_id"`
	CustomerID     int                `json:"customer_id"`
	Reference      string             `json:"reference"`
	InvoiceDate    string             `json:"invoice_date"`
	DueDate        string             `json:"due_date"`
	Items          []OrderLineRequest `json:"items"`
}

// UpdateBillingRequest edits a draft bill or invoice. Nil fields are left unchanged.
type UpdateBillingRequest struct {
	CounterpartyID *int               `json:"counterparty_id"`
	Reference      *string            `json:"reference"`
	InvoiceDate    *string            `json:"invoice_date"`
	DueDate        *string            `json:"due_date"`
	Items          []OrderLineRequest `json:"items"`
}

// PaymentRequest records a Cash or Bank payment.
type PaymentRequest struct {
	Mode   string          `json:"mode"`
	Amount decimal.Decimal `json:"amount"`
}

// CalculateTaxRequest prices lines for a sales or purchase document.
type CalculateTaxRequest struct {
	Kind  string             `json:"kind"` // sales (default) or purchase
	Items []OrderLineRequest `json:"items"`
}

// parseDate parses an optional YYYY-MM-DD field. Empty means nil.
func parseDate(op, field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, &core.DomainError{
			Kind:  core.ErrInvalidInput,
			Op:    op,
			Field: field,
			Msg:   field + " must be a date in YYYY-MM-DD form",
		}
	}
	return &t, nil
}

func parseDatePtr(op, field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	return parseDate(op, field, *s)
}
