package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shiv-erp/internal/core"
	"shiv-erp/internal/logger"
)

// Options tunes the services built by New.
type Options struct {
	Policy      core.EnrichmentPolicy
	BillDueDays int
}

// Services bundles the core services the application facade delegates to.
type Services struct {
	Contacts  core.ContactService
	Products  core.ProductService
	Taxes     core.TaxService
	Accounts  core.AccountService
	Rules     core.AccountRules
	Stock     core.StockService
	Sequences core.SequenceService
	Reports   core.ReportingService
	Orders    map[core.OrderKind]core.OrderService
	Billing   map[core.BillingKind]core.BillingService
}

// NewServices wires every core service onto pool.
func NewServices(pool *pgxpool.Pool, opts Options) Services {
	seq := core.NewSequenceService(pool)
	taxes := core.NewTaxService(pool)
	calc := core.NewTaxCalculator(taxes, opts.Policy, logger.WithComponent("tax"))
	rules := core.NewAccountRules(pool)
	orderLog := logger.WithComponent("orders")
	billingLog := logger.WithComponent("billing")

	return Services{
		Contacts:  core.NewContactService(pool),
		Products:  core.NewProductService(pool),
		Taxes:     taxes,
		Accounts:  core.NewAccountService(pool),
		Rules:     rules,
		Stock:     core.NewStockService(pool),
		Sequences: seq,
		Reports:   core.NewReportingService(pool, logger.WithComponent("reports")),
		Orders: map[core.OrderKind]core.OrderService{
			core.PurchaseOrderKind: core.NewPurchaseOrderService(pool, seq, calc, orderLog),
			core.SalesOrderKind:    core.NewSalesOrderService(pool, seq, calc, orderLog),
		},
		Billing: map[core.BillingKind]core.BillingService{
			core.VendorBillKind:      core.NewVendorBillService(pool, seq, rules, calc, opts.BillDueDays, billingLog),
			core.CustomerInvoiceKind: core.NewCustomerInvoiceService(pool, seq, rules, calc, opts.BillDueDays, billingLog),
		},
	}
}

type appService struct {
	svc Services
}

var timeNow = time.Now

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(svc Services) ApplicationService {
	return &appService{svc: svc}
}

// New wires the core services onto pool and returns the facade.
func New(pool *pgxpool.Pool, opts Options) ApplicationService {
	return NewAppService(NewServices(pool, opts))
}

func (s *appService) orders(kind core.OrderKind) (core.OrderService, error) {
	o, ok := s.svc.Orders[kind]
	if !ok {
		return nil, &core.DomainError{Kind: core.ErrInvalidInput, Op: "resolve order kind", Field: "kind",
			Msg: fmt.Sprintf("unknown order kind %q", kind)}
	}
	return o, nil
}

func (s *appService) billing(kind core.BillingKind) (core.BillingService, error) {
	b, ok := s.svc.Billing[kind]
	if !ok {
		return nil, &core.DomainError{Kind: core.ErrInvalidInput, Op: "resolve billing kind", Field: "kind",
			Msg: fmt.Sprintf("unknown billing kind %q", kind)}
	}
	return b, nil
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *appService) CreateContact(ctx context.Context, req CreateContactRequest) (*core.Contact, error) {
	return s.svc.Contacts.Create(ctx, core.ContactInput{
		Name:    req.Name,
		Type:    core.ContactType(strings.TrimSpace(req.Type)),
		Email:   req.Email,
		Mobile:  req.Mobile,
		GSTNo:   req.GSTNo,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
	})
}

func (s *appService) GetContact(ctx context.Context, id int) (*core.Contact, error) {
	return s.svc.Contacts.Get(ctx, id)
}

func (s *appService) ListContacts(ctx context.Context, req ListContactsRequest) (*core.Page[core.Contact], error) {
	return s.svc.Contacts.List(ctx, core.ContactFilter{
		Type:   core.ContactType(strings.TrimSpace(req.Type)),
		Active: req.Active,
		Query:  req.Query,
		Page:   req.Page,
		Limit:  req.Limit,
	})
}

func (s *appService) SetContactArchived(ctx context.Context, id int, archived bool) (*core.Contact, error) {
	if archived {
		return s.svc.Contacts.Archive(ctx, id)
	}
	return s.svc.Contacts.Unarchive(ctx, id)
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	return s.svc.Products.Create(ctx, core.ProductInput{
		Name:          req.Name,
		Type:          core.ProductType(strings.TrimSpace(req.Type)),
		SalesPrice:    req.SalesPrice,
		PurchasePrice: req.PurchasePrice,
		HSNCode:       req.HSNCode,
		Category:      req.Category,
	})
}

func (s *appService) GetProduct(ctx context.Context, id int) (*core.Product, error) {
	return s.svc.Products.Get(ctx, id)
}

func (s *appService) ListProducts(ctx context.Context, req ListRequest) (*core.Page[core.Product], error) {
	return s.svc.Products.List(ctx, req.filter())
}

func (s *appService) CreateTax(ctx context.Context, req CreateTaxRequest) (*core.Tax, error) {
	return s.svc.Taxes.Create(ctx, core.TaxInput{
		Name:         req.Name,
		Method:       core.TaxMethod(strings.TrimSpace(req.Method)),
		Value:        req.Value,
		ApplicableOn: core.TaxScope(strings.TrimSpace(req.ApplicableOn)),
	})
}

func (s *appService) GetTax(ctx context.Context, id int) (*core.Tax, error) {
	return s.svc.Taxes.GetTax(ctx, id)
}

func (s *appService) ListTaxes(ctx context.Context, scope string) ([]core.Tax, error) {
	return s.svc.Taxes.List(ctx, core.TaxScope(strings.TrimSpace(scope)))
}

func (s *appService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*core.Account, error) {
	return s.svc.Accounts.Create(ctx, req.AccountName, core.AccountType(strings.TrimSpace(req.Type)))
}

func (s *appService) ListAccounts(ctx context.Context, typ string) ([]core.Account, error) {
	return s.svc.Accounts.List(ctx, core.AccountType(strings.TrimSpace(typ)))
}

func (s *appService) SeedDefaultAccounts(ctx context.Context) (*SeedResult, error) {
	n, err := s.svc.Accounts.SeedDefaults(ctx)
	if err != nil {
		return nil, err
	}
	res := &SeedResult{Inserted: n, Total: len(core.DefaultAccounts)}
	if res.DefaultIncome, err = s.svc.Rules.DefaultAccount(ctx, core.AccountIncome); err != nil {
		return nil, err
	}
	if res.DefaultExpense, err = s.svc.Rules.DefaultAccount(ctx, core.AccountExpense); err != nil {
		return nil, err
	}
	return res, nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

func (s *appService) RecordStock(ctx context.Context, req RecordStockRequest) (*core.StockLedgerEntry, error) {
	return s.svc.Stock.Record(ctx, req.ProductID, core.StockMovement(strings.TrimSpace(req.Type)), req.Quantity, req.Reference)
}

func (s *appService) GetStockLevel(ctx context.Context, productID int) (*StockLevelResult, error) {
	onHand, err := s.svc.Stock.OnHand(ctx, productID)
	if err != nil {
		return nil, err
	}
	entries, err := s.svc.Stock.Entries(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockLevelResult{ProductID: productID, OnHand: onHand, Entries: entries}, nil
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, kind core.OrderKind, req CreateOrderRequest) (*core.Order, error) {
	svc, err := s.orders(kind)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("create "+kind.String(), "date", req.Date)
	if err != nil {
		return nil, err
	}
	return svc.Create(ctx, core.CreateOrderInput{
		CounterpartyID: firstNonZero(req.CounterpartyID, req.VendorID, req.CustomerID),
		Number:         req.Number,
		Reference:      req.Reference,
		Date:           date,
		Items:          toLines(req.Items),
	})
}

func (s *appService) UpdateOrder(ctx context.Context, kind core.OrderKind, id int, req UpdateOrderRequest) (*core.Order, error) {
	svc, err := s.orders(kind)
	if err != nil {
		return nil, err
	}
	date, err := parseDatePtr("update "+kind.String(), "date", req.Date)
	if err != nil {
		return nil, err
	}
	return svc.Update(ctx, id, core.UpdateOrderInput{
		CounterpartyID: req.CounterpartyID,
		Reference:      req.Reference,
		Date:           date,
		Items:          toLines(req.Items),
	})
}

func (s *appService) TransitionOrder(ctx context.Context, kind core.OrderKind, id int, action core.OrderAction) (*core.Order, error) {
	svc, err := s.orders(kind)
	if err != nil {
		return nil, err
	}
	switch action {
	case core.ActionConfirm:
		return svc.Confirm(ctx, id)
	case core.ActionCancel:
		return svc.Cancel(ctx, id)
	case core.ActionRevert:
		return svc.RevertToDraft(ctx, id)
	}
	return nil, &core.DomainError{Kind: core.ErrInvalidInput, Op: string(action) + " " + kind.String(), Field: "action",
		Msg: fmt.Sprintf("unsupported action %q", action)}
}

func (s *appService) GetOrder(ctx context.Context, kind core.OrderKind, id int) (*core.Order, error) {
	svc, err := s.orders(kind)
	if err != nil {
		return nil, err
	}
	return svc.Get(ctx, id)
}

func (s *appService) ListOrders(ctx context.Context, kind core.OrderKind, req ListRequest) (*core.OrderPage, error) {
	svc, err := s.orders(kind)
	if err != nil {
		return nil, err
	}
	return svc.List(ctx, req.filter())
}

func (s *appService) PreviewOrderTotals(ctx context.Context, kind core.OrderKind, lines []OrderLineRequest) (*core.OrderTaxCalculation, error) {
	svc, err := s.orders(kind)
	if err != nil {
		return nil, err
	}
	return svc.PreviewTotals(ctx, toLines(lines))
}

// ── Billing ──────────────────────────────────────────────────────────────────

func (s *appService) CreateBillFromOrder(ctx context.Context, kind core.BillingKind, orderID int, req BillFromOrderRequest) (*core.BillingDocument, error) {
	svc, err := s.billing(kind)
	if err != nil {
		return nil, err
	}
	op := "create " + kind.String() + " from order"
	invoiceDate, err := parseDate(op, "invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate(op, "due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	return svc.CreateFromOrder(ctx, orderID, core.CreateFromOrderInput{
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Reference:   strings.TrimSpace(req.Reference),
	})
}

func (s *appService) CreateBillingDocument(ctx context.Context, kind core.BillingKind, req CreateBillingRequest) (*core.BillingDocument, error) {
	svc, err := s.billing(kind)
	if err != nil {
		return nil, err
	}
	op := "create " + kind.String()
	invoiceDate, err := parseDate(op, "invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate(op, "due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	return svc.Create(ctx, core.CreateBillingInput{
		CounterpartyID: firstNonZero(req.CounterpartyID, req.VendorID, req.CustomerID),
		Reference:      req.Reference,
		InvoiceDate:    invoiceDate,
		DueDate:        dueDate,
		Items:          toLines(req.Items),
	})
}

func (s *appService) UpdateBillingDocument(ctx context.Context, kind core.BillingKind, id int, req UpdateBillingRequest) (*core.BillingDocument, error) {
	svc, err := s.billing(kind)
	if err != nil {
		return nil, err
	}
	op := "update " + kind.String()
	invoiceDate, err := parseDatePtr(op, "invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDatePtr(op, "due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	return svc.Update(ctx, id, core.UpdateBillingInput{
		CounterpartyID: req.CounterpartyID,
		Reference:      req.Reference,
		InvoiceDate:    invoiceDate,
		DueDate:        dueDate,
		Items:          toLines(req.Items),
	})
}

func (s *appService) TransitionBillingDocument(ctx context.Context, kind core.BillingKind, id int, action core.OrderAction) (*core.BillingDocument, error) {
	svc, err := s.billing(kind)
	if err != nil {
		return nil, err
	}
	switch action {
	case core.ActionConfirm:
		return svc.Confirm(ctx, id)
	case core.ActionCancel:
		return svc.Cancel(ctx, id)
	}
	return nil, &core.DomainError{Kind: core.ErrInvalidInput, Op: string(action) + " " + kind.String(), Field: "action",
		Msg: fmt.Sprintf("unsupported action %q", action)}
}

func (s *appService) AddPayment(ctx context.Context, kind core.BillingKind, id int, req PaymentRequest) (*core.BillingDocument, error) {
	svc, err := s.billing(kind)
	if err != nil {
		return nil, err
	}
	mode, ok := core.ParsePaymentMode(req.Mode)
	if !ok {
		mode = core.PaymentMode(req.Mode)
	}
	return svc.AddPayment(ctx, id, mode, req.Amount)
}

func (s *appService) GetBillingDocument(ctx context.Context, kind core.BillingKind, id int) (*core.BillingDocument, error) {
	svc, err := s.billing(kind)
	if err != nil {
		return nil, err
	}
	return svc.Get(ctx, id)
}

func (s *appService) ListBillingDocuments(ctx context.Context, kind core.BillingKind, req ListRequest) (*core.BillingPage, error) {
	svc, err := s.billing(kind)
	if err != nil {
		return nil, err
	}
	return svc.List(ctx, req.filter())
}

// ── Tax & HSN ────────────────────────────────────────────────────────────────

func (s *appService) CalculateTax(ctx context.Context, req CalculateTaxRequest) (*TaxCalculationResult, error) {
	kind := core.SalesOrderKind
	if strings.EqualFold(strings.TrimSpace(req.Kind), string(core.PurchaseOrderKind)) {
		kind = core.PurchaseOrderKind
	}
	if len(req.Items) == 0 {
		return nil, &core.DomainError{Kind: core.ErrInvalidInput, Op: "calculate tax", Field: "items",
			Msg: "at least one line is required"}
	}
	calc, err := s.PreviewOrderTotals(ctx, kind, req.Items)
	if err != nil {
		return nil, err
	}
	return &TaxCalculationResult{OrderTaxCalculation: calc, Validation: core.ValidateTaxCalculation(*calc)}, nil
}

func (s *appService) LookupHSN(_ context.Context, code string) (*HSNResult, error) {
	v := core.ValidateHSNCode(code)
	if !v.Valid {
		return nil, &core.DomainError{Kind: core.ErrInvalidInput, Op: "lookup hsn", Field: "code",
			Msg: strings.Join(v.Errors, "; ")}
	}
	return &HSNResult{
		Rate:       core.LookupHSN(v.CleanCode),
		Suggested:  core.SuggestGSTRate(v.CleanCode),
		Validation: v,
	}, nil
}

func (s *appService) SearchHSN(_ context.Context, query string, services bool, limit int) ([]core.GSTRate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &core.DomainError{Kind: core.ErrInvalidInput, Op: "search hsn", Field: "q",
			Msg: "search query is required"}
	}
	return core.SearchHSN(query, services, limit), nil
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *appService) StockReport(ctx context.Context) (*core.StockReport, error) {
	return s.svc.Reports.StockReport(ctx)
}

func (s *appService) ProfitAndLoss(ctx context.Context, q core.DateQuery) (*core.ProfitAndLoss, error) {
	r, err := core.ParseDateRange(q, timeNow())
	if err != nil {
		return nil, err
	}
	return s.svc.Reports.ProfitAndLoss(ctx, r)
}

func (s *appService) BalanceSheet(ctx context.Context, q core.DateQuery) (*core.BalanceSheet, error) {
	r, err := core.ParseDateRange(q, timeNow())
	if err != nil {
		return nil, err
	}
	return s.svc.Reports.BalanceSheet(ctx, r)
}

// Dashboard defaults an empty period to the last 30 days.
func (s *appService) Dashboard(ctx context.Context, period string) (*core.Dashboard, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		period = core.DefaultDashboardPeriod
	}
	return s.svc.Reports.DashboardSummary(ctx, period)
}

// ── Counters ─────────────────────────────────────────────────────────────────

func (s *appService) PeekCounter(ctx context.Context, key string) (*CounterResult, error) {
	v, err := s.svc.Sequences.Peek(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	return &CounterResult{Key: strings.TrimSpace(key), Value: v}, nil
}
