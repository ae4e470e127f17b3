package app

import (
	"context"

	"shiv-erp/internal/core"
)

// ApplicationService is the single interface the adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// ── Master data ──────────────────────────────────────────────────────────

	CreateContact(ctx context.Context, req CreateContactRequest) (*core.Contact, error)
	GetContact(ctx context.Context, id int) (*core.Contact, error)
	ListContacts(ctx context.Context, req ListContactsRequest) (*core.Page[core.Contact], error)
	// SetContactArchived archives (true) or restores (false) a contact.
	SetContactArchived(ctx context.Context, id int, archived bool) (*core.Contact, error)

	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)
	GetProduct(ctx context.Context, id int) (*core.Product, error)
	ListProducts(ctx context.Context, req ListRequest) (*core.Page[core.Product], error)

	CreateTax(ctx context.Context, req CreateTaxRequest) (*core.Tax, error)
	GetTax(ctx context.Context, id int) (*core.Tax, error)
	// ListTaxes returns active taxes; scope "" means both Sales and Purchase.
	ListTaxes(ctx context.Context, scope string) ([]core.Tax, error)

	CreateAccount(ctx context.Context, req CreateAccountRequest) (*core.Account, error)
	ListAccounts(ctx context.Context, typ string) ([]core.Account, error)
	// SeedDefaultAccounts inserts the standard chart of accounts, skipping existing rows.
	SeedDefaultAccounts(ctx context.Context) (*SeedResult, error)

	// ── Stock ────────────────────────────────────────────────────────────────

	RecordStock(ctx context.Context, req RecordStockRequest) (*core.StockLedgerEntry, error)
	GetStockLevel(ctx context.Context, productID int) (*StockLevelResult, error)

	// ── Orders ───────────────────────────────────────────────────────────────

	CreateOrder(ctx context.Context, kind core.OrderKind, req CreateOrderRequest) (*core.Order, error)
	UpdateOrder(ctx context.Context, kind core.OrderKind, id int, req UpdateOrderRequest) (*core.Order, error)
	// TransitionOrder applies confirm, cancel or revert. Billing goes through CreateBillFromOrder.
	TransitionOrder(ctx context.Context, kind core.OrderKind, id int, action core.OrderAction) (*core.Order, error)
	GetOrder(ctx context.Context, kind core.OrderKind, id int) (*core.Order, error)
	ListOrders(ctx context.Context, kind core.OrderKind, req ListRequest) (*core.OrderPage, error)
	PreviewOrderTotals(ctx context.Context, kind core.OrderKind, lines []OrderLineRequest) (*core.OrderTaxCalculation, error)

	// ── Billing ──────────────────────────────────────────────────────────────

	// CreateBillFromOrder raises a vendor bill (purchase) or customer invoice
	// (sales) from a confirmed order and marks the order billed.
	CreateBillFromOrder(ctx context.Context, kind core.BillingKind, orderID int, req BillFromOrderRequest) (*core.BillingDocument, error)
	CreateBillingDocument(ctx context.Context, kind core.BillingKind, req CreateBillingRequest) (*core.BillingDocument, error)
	UpdateBillingDocument(ctx context.Context, kind core.BillingKind, id int, req UpdateBillingRequest) (*core.BillingDocument, error)
	// TransitionBillingDocument applies confirm or cancel.
	TransitionBillingDocument(ctx context.Context, kind core.BillingKind, id int, action core.OrderAction) (*core.BillingDocument, error)
	AddPayment(ctx context.Context, kind core.BillingKind, id int, req PaymentRequest) (*core.BillingDocument, error)
	GetBillingDocument(ctx context.Context, kind core.BillingKind, id int) (*core.BillingDocument, error)
	ListBillingDocuments(ctx context.Context, kind core.BillingKind, req ListRequest) (*core.BillingPage, error)

	// ── Tax & HSN ────────────────────────────────────────────────────────────

	// CalculateTax prices lines against the tax master without saving anything.
	CalculateTax(ctx context.Context, req CalculateTaxRequest) (*TaxCalculationResult, error)
	LookupHSN(ctx context.Context, code string) (*HSNResult, error)
	SearchHSN(ctx context.Context, query string, services bool, limit int) ([]core.GSTRate, error)

	// ── Reports ──────────────────────────────────────────────────────────────

	StockReport(ctx context.Context) (*core.StockReport, error)
	ProfitAndLoss(ctx context.Context, q core.DateQuery) (*core.ProfitAndLoss, error)
	BalanceSheet(ctx context.Context, q core.DateQuery) (*core.BalanceSheet, error)
	Dashboard(ctx context.Context, period string) (*core.Dashboard, error)

	// ── Counters ─────────────────────────────────────────────────────────────

	// PeekCounter returns the last value handed out for key without allocating.
	PeekCounter(ctx context.Context, key string) (*CounterResult, error)
}
