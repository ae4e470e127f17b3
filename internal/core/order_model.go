package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind distinguishes the two order aggregates. They share storage
// shape and lifecycle, but differ in counterparty role, default price
// and the cancel/revert rules.
type OrderKind string

const (
	SalesOrderKind    OrderKind = "sales"
	PurchaseOrderKind OrderKind = "purchase"
)

func (k OrderKind) String() string {
	if k == SalesOrderKind {
		return "sales order"
	}
	return "purchase order"
}

// OrderLine is one line item. It is stored embedded in the order (and later
// copied onto the billing document) as JSON.
//
// On input only ProductID, Quantity, UnitPrice, TaxID/TaxIDs and AccountID
// matter; the remaining fields are filled in when the order is priced.
type OrderLine struct {
	ProductID   *int             `json:"product_id,omitempty"`
	ProductName string           `json:"product_name"`
	HSNCode     string           `json:"hsn_code"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxID       *int             `json:"tax_id,omitempty"`
	TaxIDs      []int            `json:"tax_ids,omitempty"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
	AccountID   *int             `json:"account_id,omitempty"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	TaxAmount   decimal.Decimal  `json:"tax_amount"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
}

// Price returns the unit price, zero when unset.
func (l OrderLine) Price() decimal.Decimal {
	if l.UnitPrice == nil {
		return decimal.Zero
	}
	return *l.UnitPrice
}

// TaxRefs returns every tax referenced by the line, single field first.
func (l OrderLine) TaxRefs() []int {
	refs := make([]int, 0, len(l.TaxIDs)+1)
	if l.TaxID != nil {
		refs = append(refs, *l.TaxID)
	}
	return append(refs, l.TaxIDs...)
}

// Order is a sales or purchase order.
type Order struct {
	ID               int             `json:"id"`
	Kind             OrderKind       `json:"kind"`
	Number           string          `json:"number"`
	CounterpartyID   int             `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name"`
	Items            []OrderLine     `json:"items"`
	Status           OrderStatus     `json:"status"`
	Reference        *string         `json:"reference,omitempty"`
	Date             time.Time       `json:"date"`
	UntaxedAmount    decimal.Decimal `json:"untaxed_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Warnings lists degraded lookups and tax reconciliation notes from the
	// last pricing. It is not stored.
	Warnings []string `json:"warnings,omitempty"`
}

// CreateOrderInput holds the fields accepted when creating an order.
// Number is normally empty and allocated from the order series.
type CreateOrderInput struct {
	CounterpartyID int
	Number         string
	Reference      string
	Date           *time.Time
	Items          []OrderLine
}

// UpdateOrderInput is a partial update of a draft order. Nil fields are kept.
// Status is deliberately absent: status only moves through Confirm, Cancel
// and RevertToDraft.
type UpdateOrderInput struct {
	CounterpartyID *int
	Reference      *string
	Date           *time.Time
	Items          []OrderLine
}

// OrderPage is one page of List results.
type OrderPage = Page[Order]

// OrderService manages one kind of order.
type OrderService interface {
	Kind() OrderKind

	// Create prices the lines, allocates a number and stores a draft order.
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)

	// Update edits a draft order and reprices every line.
	Update(ctx context.Context, id int, in UpdateOrderInput) (*Order, error)

	Confirm(ctx context.Context, id int) (*Order, error)
	Cancel(ctx context.Context, id int) (*Order, error)

	// RevertToDraft is only supported for purchase orders.
	RevertToDraft(ctx context.Context, id int) (*Order, error)

	Get(ctx context.Context, id int) (*Order, error)
	List(ctx context.Context, f ListFilter) (*OrderPage, error)

	// PreviewTotals prices items exactly as Create would, without saving.
	PreviewTotals(ctx context.Context, items []OrderLine) (*OrderTaxCalculation, error)
}
