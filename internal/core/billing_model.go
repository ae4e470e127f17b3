package core

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BillingKind distinguishes vendor bills from customer invoices.
type BillingKind string

const (
	VendorBillKind      BillingKind = "vendor_bill"
	CustomerInvoiceKind BillingKind = "customer_invoice"
)

func (k BillingKind) String() string {
	if k == CustomerInvoiceKind {
		return "customer invoice"
	}
	return "vendor bill"
}

// OrderKind is the kind of order this document is raised from.
func (k BillingKind) OrderKind() OrderKind {
	if k == CustomerInvoiceKind {
		return SalesOrderKind
	}
	return PurchaseOrderKind
}

// BillingStatus is the closed set of billing document states.
type BillingStatus string

const (
	BillingDraft     BillingStatus = "draft"
	BillingConfirmed BillingStatus = "confirmed"
	BillingCancelled BillingStatus = "cancelled"
)

// NextBillingStatus is the billing document transition table:
//
//	draft     --confirm--> confirmed
//	draft     --cancel---> cancelled
//	confirmed --cancel---> cancelled
//
// cancelled is terminal.
func NextBillingStatus(kind BillingKind, from BillingStatus, action OrderAction) (BillingStatus, error) {
	switch {
	case from == BillingDraft && action == ActionConfirm:
		return BillingConfirmed, nil
	case (from == BillingDraft || from == BillingConfirmed) && action == ActionCancel:
		return BillingCancelled, nil
	}
	return "", invalidState(string(action)+" "+kind.String(), kind.String(), 0,
		"cannot %s a %s in status %s", action, kind, from)
}

type PaymentMode string

const (
	PaymentCash PaymentMode = "Cash"
	PaymentBank PaymentMode = "Bank"
)

// ParsePaymentMode accepts the mode case-insensitively.
func ParsePaymentMode(s string) (PaymentMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, true
	case "bank":
		return PaymentBank, true
	}
	return "", false
}

// BillingDocument is a vendor bill or customer invoice.
// AmountDue is kept equal to TotalAmount − PaidCash − PaidBank.
type BillingDocument struct {
	ID               int             `json:"id"`
	Kind             BillingKind     `json:"kind"`
	Number           string          `json:"number"`
	SourceOrderID    *int            `json:"source_order_id,omitempty"`
	CounterpartyID   int             `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name"`
	Reference        *string         `json:"reference,omitempty"`
	Items            []OrderLine     `json:"items"`
	InvoiceDate      time.Time       `json:"invoice_date"`
	DueDate          time.Time       `json:"due_date"`
	Status           BillingStatus   `json:"status"`
	UntaxedAmount    decimal.Decimal `json:"untaxed_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AmountDue        decimal.Decimal `json:"amount_due"`
	PaidCash         decimal.Decimal `json:"paid_cash"`
	PaidBank         decimal.Decimal `json:"paid_bank"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Warnings []string `json:"warnings,omitempty"`
}

// CreateFromOrderInput carries the optional header fields of a document
// raised from an order. Zero dates default to today and today + due days.
type CreateFromOrderInput struct {
	InvoiceDate *time.Time
	DueDate     *time.Time
	Reference   string
}

// CreateBillingInput creates a standalone draft document.
type CreateBillingInput struct {
	CounterpartyID int
	Reference      string
	InvoiceDate    *time.Time
	DueDate        *time.Time
	Items          []OrderLine
}

// UpdateBillingInput is a partial update of a draft document.
type UpdateBillingInput struct {
	CounterpartyID *int
	Reference      *string
	InvoiceDate    *time.Time
	DueDate        *time.Time
	Items          []OrderLine
}

// BillingPage is one page of List results.
type BillingPage = Page[BillingDocument]

// BillingService manages one kind of billing document.
type BillingService interface {
	Kind() BillingKind

	// CreateFromOrder raises a confirmed document from a confirmed order and
	// marks the order billed, atomically.
	CreateFromOrder(ctx context.Context, orderID int, in CreateFromOrderInput) (*BillingDocument, error)

	// AddPayment applies a cash or bank payment to a confirmed document.
	AddPayment(ctx context.Context, id int, mode PaymentMode, amount decimal.Decimal) (*BillingDocument, error)

	Create(ctx context.Context, in CreateBillingInput) (*BillingDocument, error)
	Update(ctx context.Context, id int, in UpdateBillingInput) (*BillingDocument, error)
	Confirm(ctx context.Context, id int) (*BillingDocument, error)
	Cancel(ctx context.Context, id int) (*BillingDocument, error)
	Get(ctx context.Context, id int) (*BillingDocument, error)
	List(ctx context.Context, f ListFilter) (*BillingPage, error)
}
