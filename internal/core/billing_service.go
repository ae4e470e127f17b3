package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type billingTable struct {
	table       string
	numberCol   string
	orderCol    string
	partyCol    string
	partyRole   string
	series      Series
	accountType AccountType
	accepts     func(*Contact) bool
}

var billingTables = map[BillingKind]billingTable{
	VendorBillKind: {
		table:       "vendor_bills",
		numberCol:   "bill_number",
		orderCol:    "purchase_order_id",
		partyCol:    "vendor_id",
		partyRole:   "vendor",
		series:      VendorBillSeries,
		accountType: AccountExpense,
		accepts:     (*Contact).CanSell,
	},
	CustomerInvoiceKind: {
		table:       "customer_invoices",
		numberCol:   "invoice_number",
		orderCol:    "sales_order_id",
		partyCol:    "customer_id",
		partyRole:   "customer",
		series:      CustomerInvoiceSeries,
		accountType: AccountIncome,
		accepts:     (*Contact).CanBuy,
	},
}

func (t billingTable) selectSQL() string {
	return fmt.Sprintf(`
		SELECT b.id, b.%s, b.%s, b.%s, c.name, b.reference, b.items, b.invoice_date, b.due_date,
		       b.status, b.untaxed_amount, b.tax_amount, b.total_amount, b.amount_due,
		       b.paid_cash, b.paid_bank, b.created_at, b.updated_at
		FROM %s b
		JOIN contacts c ON c.id = b.%s`,
		t.numberCol, t.orderCol, t.partyCol, t.table, t.partyCol)
}

func scanBilling(row rowScanner, kind BillingKind) (*BillingDocument, error) {
	b := &BillingDocument{Kind: kind}
	err := row.Scan(&b.ID, &b.Number, &b.SourceOrderID, &b.CounterpartyID, &b.CounterpartyName,
		&b.Reference, &b.Items, &b.InvoiceDate, &b.DueDate, &b.Status,
		&b.UntaxedAmount, &b.TaxAmount, &b.TotalAmount, &b.AmountDue,
		&b.PaidCash, &b.PaidBank, &b.CreatedAt, &b.UpdatedAt)
	if b.Items == nil {
		b.Items = []OrderLine{}
	}
	return b, err
}

type billingService struct {
	pool    *pgxpool.Pool
	kind    BillingKind
	table   billingTable
	seq     SequenceService
	rules   AccountRules
	pricer  linePricer
	dueDays int
	log     zerolog.Logger
	now     func() time.Time
}

// NewVendorBillService constructs the vendor bill converter.
func NewVendorBillService(pool *pgxpool.Pool, seq SequenceService, rules AccountRules, taxes *TaxCalculator, dueDays int, log zerolog.Logger) BillingService {
	return newBillingService(pool, VendorBillKind, seq, rules, taxes, dueDays, log)
}

// NewCustomerInvoiceService constructs the customer invoice converter.
func NewCustomerInvoiceService(pool *pgxpool.Pool, seq SequenceService, rules AccountRules, taxes *TaxCalculator, dueDays int, log zerolog.Logger) BillingService {
	return newBillingService(pool, CustomerInvoiceKind, seq, rules, taxes, dueDays, log)
}

func newBillingService(pool *pgxpool.Pool, kind BillingKind, seq SequenceService, rules AccountRules, taxes *TaxCalculator, dueDays int, log zerolog.Logger) *billingService {
	return &billingService{
		pool:    pool,
		kind:    kind,
		table:   billingTables[kind],
		seq:     seq,
		rules:   rules,
		pricer:  linePricer{kind: kind.OrderKind(), taxes: taxes, log: log},
		dueDays: dueDays,
		log:     log.With().Str("billing_kind", string(kind)).Logger(),
		now:     time.Now,
	}
}

func (s *billingService) Kind() BillingKind { return s.kind }

func (s *billingService) load(ctx context.Context, q querier, id int, lock bool) (*BillingDocument, error) {
	query := s.table.selectSQL() + " WHERE b.id = $1"
	if lock {
		query += " FOR UPDATE OF b"
	}
	b, err := scanBilling(q.QueryRow(ctx, query, id), s.kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get "+s.kind.String(), s.kind.String(), id)
		}
		return nil, fmt.Errorf("get %s %d: %w", s.kind, id, err)
	}
	return b, nil
}

// dates applies the invoice/due date defaults.
func (s *billingService) dates(invoice, due *time.Time) (time.Time, time.Time, error) {
	inv := s.now().UTC().Truncate(24 * time.Hour)
	if invoice != nil {
		inv = invoice.UTC()
	}
	d := inv.AddDate(0, 0, s.dueDays)
	if due != nil {
		d = due.UTC()
	}
	if d.Before(inv) {
		return time.Time{}, time.Time{}, invalidInput("set "+s.kind.String()+" dates", "due_date", "due date is before invoice date")
	}
	return inv, d, nil
}

// assignAccounts books every line without an account to the default
// account of the document's side. A missing default is an enrichment
// failure decided by the policy.
func (s *billingService) assignAccounts(ctx context.Context, tx pgx.Tx, op string, items []OrderLine) ([]OrderLine, []string, error) {
	out := make([]OrderLine, len(items))
	copy(out, items)

	var def *Account
	var defErr error
	looked := false
	outcomes := make([]LineEnrichment, 0, len(out))

	for i := range out {
		if out[i].AccountID != nil {
			continue
		}
		if !looked {
			def, defErr = s.rules.DefaultAccountTx(ctx, tx, s.table.accountType)
			looked = true
		}
		if defErr != nil {
			outcomes = append(outcomes, LineEnrichment{Index: i, What: "default account", Err: defErr})
			continue
		}
		id := def.ID
		out[i].AccountID = &id
	}

	warnings, err := s.pricer.taxes.Policy().Decide(op, outcomes, s.log)
	if err != nil {
		return nil, nil, err
	}
	return out, warnings, nil
}

func (s *billingService) CreateFromOrder(ctx context.Context, orderID int, in CreateFromOrderInput) (*BillingDocument, error) {
	op := "create " + s.kind.String() + " from order"
	orderKind := s.kind.OrderKind()

	invoiceDate, dueDate, err := s.dates(in.InvoiceDate, in.DueDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := loadOrder(ctx, tx, orderKind, orderID, true)
	if err != nil {
		return nil, err
	}
	billed, err := NextOrderStatus(orderKind, order.Status, ActionBill)
	if err != nil {
		return nil, withID(err, orderID)
	}

	number, err := s.seq.NextNumber(ctx, tx, s.table.series, invoiceDate)
	if err != nil {
		return nil, err
	}

	// Items are copied as ordered; only the booking account is filled in.
	items, warnings, err := s.assignAccounts(ctx, tx, op, order.Items)
	if err != nil {
		return nil, err
	}
	items, calc, err := s.pricer.price(ctx, tx, op, items, false)
	if err != nil {
		return nil, err
	}

	reference := in.Reference
	if reference == "" {
		reference = order.Number
	}

	var id int
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, reference, items, invoice_date, due_date, status,
		                untaxed_amount, tax_amount, total_amount, amount_due)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`, s.table.table, s.table.numberCol, s.table.orderCol, s.table.partyCol),
		number, orderID, order.CounterpartyID, optional(reference), items, invoiceDate, dueDate,
		BillingConfirmed, calc.Subtotal, calc.TaxAmount, calc.TotalAmount,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalidState(op, orderKind.String(), orderID, "%s has already been billed", orderKind)
		}
		return nil, fmt.Errorf("insert %s: %w", s.kind, err)
	}

	if err := setOrderStatus(ctx, tx, orderKind, orderID, billed); err != nil {
		return nil, err
	}

	doc, err := s.load(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s: %w", s.kind, err)
	}

	doc.Warnings = append(warnings, calc.Warnings...)
	s.log.Info().Int("id", doc.ID).Str("number", doc.Number).Int("order_id", orderID).
		Str("order_number", order.Number).Str("total", doc.TotalAmount.String()).Msg("billing document raised from order")
	return doc, nil
}

func (s *billingService) AddPayment(ctx context.Context, id int, mode PaymentMode, amount decimal.Decimal) (*BillingDocument, error) {
	op := "add payment to " + s.kind.String()

	col := ""
	switch mode {
	case PaymentCash:
		col = "paid_cash"
	case PaymentBank:
		col = "paid_bank"
	default:
		return nil, invalidInput(op, "mode", "payment mode must be Cash or Bank, got %q", mode)
	}
	if !amount.IsPositive() {
		return nil, invalidInput(op, "amount", "payment amount must be positive")
	}
	amount = Round2(amount)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := s.load(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if doc.Status != BillingConfirmed {
		return nil, invalidState(op, s.kind.String(), id, "payments need a confirmed document, status is %s", doc.Status)
	}
	if amount.GreaterThan(doc.AmountDue) {
		return nil, invalidInput(op, "amount", "payment %s exceeds amount due %s", amount.StringFixed(2), doc.AmountDue.StringFixed(2))
	}

	// SET expressions see the pre-update row, so amount_due subtracts the new payment explicitly.
	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET %s = %s + $1,
		    amount_due = total_amount - paid_cash - paid_bank - $1,
		    updated_at = NOW()
		WHERE id = $2`, s.table.table, col, col), amount, id)
	if err != nil {
		return nil, fmt.Errorf("apply payment to %s %d: %w", s.kind, id, err)
	}

	updated, err := s.load(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}

	s.log.Info().Int("id", id).Str("mode", string(mode)).Str("amount", amount.String()).
		Str("amount_due", updated.AmountDue.String()).Msg("payment recorded")
	return updated, nil
}

func (s *billingService) Create(ctx context.Context, in CreateBillingInput) (*BillingDocument, error) {
	op := "create " + s.kind.String()
	if len(in.Items) == 0 {
		return nil, invalidInput(op, "items", "%s must have at least one line", s.kind)
	}
	invoiceDate, dueDate, err := s.dates(in.InvoiceDate, in.DueDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	party, err := checkCounterparty(ctx, tx, op, s.table.partyRole, s.table.accepts, in.CounterpartyID)
	if err != nil {
		return nil, err
	}
	items, warnings, err := s.assignAccounts(ctx, tx, op, in.Items)
	if err != nil {
		return nil, err
	}
	items, calc, err := s.pricer.price(ctx, tx, op, items, true)
	if err != nil {
		return nil, err
	}
	number, err := s.seq.NextNumber(ctx, tx, s.table.series, invoiceDate)
	if err != nil {
		return nil, err
	}

	var id int
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s, %s, reference, items, invoice_date, due_date, status,
		                untaxed_amount, tax_amount, total_amount, amount_due)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id`, s.table.table, s.table.numberCol, s.table.partyCol),
		number, party.ID, optional(in.Reference), items, invoiceDate, dueDate,
		BillingDraft, calc.Subtotal, calc.TaxAmount, calc.TotalAmount,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", s.kind, err)
	}

	doc, err := s.load(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s: %w", s.kind, err)
	}
	doc.Warnings = append(warnings, calc.Warnings...)
	return doc, nil
}

func (s *billingService) Update(ctx context.Context, id int, in UpdateBillingInput) (*BillingDocument, error) {
	op := "update " + s.kind.String()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := s.load(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if doc.Status != BillingDraft {
		return nil, invalidState(op, s.kind.String(), id, "only draft documents can be edited, status is %s", doc.Status)
	}

	partyID := doc.CounterpartyID
	if in.CounterpartyID != nil && *in.CounterpartyID != partyID {
		if _, err := checkCounterparty(ctx, tx, op, s.table.partyRole, s.table.accepts, *in.CounterpartyID); err != nil {
			return nil, err
		}
		partyID = *in.CounterpartyID
	}
	reference := doc.Reference
	if in.Reference != nil {
		reference = optional(*in.Reference)
	}
	invoiceDate, dueDate := doc.InvoiceDate, doc.DueDate
	if in.InvoiceDate != nil {
		invoiceDate = in.InvoiceDate.UTC()
	}
	if in.DueDate != nil {
		dueDate = in.DueDate.UTC()
	}
	if dueDate.Before(invoiceDate) {
		return nil, invalidInput(op, "due_date", "due date is before invoice date")
	}
	items := doc.Items
	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, invalidInput(op, "items", "%s must have at least one line", s.kind)
		}
		items = in.Items
	}

	items, warnings, err := s.assignAccounts(ctx, tx, op, items)
	if err != nil {
		return nil, err
	}
	items, calc, err := s.pricer.price(ctx, tx, op, items, true)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, reference = $2, items = $3, invoice_date = $4, due_date = $5,
		    untaxed_amount = $6, tax_amount = $7, total_amount = $8,
		    amount_due = $8 - paid_cash - paid_bank, updated_at = NOW()
		WHERE id = $9`, s.table.table, s.table.partyCol),
		partyID, reference, items, invoiceDate, dueDate,
		calc.Subtotal, calc.TaxAmount, calc.TotalAmount, id)
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", s.kind, id, err)
	}

	updated, err := s.load(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s update: %w", s.kind, err)
	}
	updated.Warnings = append(warnings, calc.Warnings...)
	return updated, nil
}

func (s *billingService) Confirm(ctx context.Context, id int) (*BillingDocument, error) {
	return s.transition(ctx, id, ActionConfirm)
}

func (s *billingService) Cancel(ctx context.Context, id int) (*BillingDocument, error) {
	return s.transition(ctx, id, ActionCancel)
}

func (s *billingService) transition(ctx context.Context, id int, action OrderAction) (*BillingDocument, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := s.load(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	next, err := NextBillingStatus(s.kind, doc.Status, action)
	if err != nil {
		return nil, withID(err, id)
	}
	_, err = tx.Exec(ctx, "UPDATE "+s.table.table+" SET status = $1, updated_at = NOW() WHERE id = $2", next, id)
	if err != nil {
		return nil, fmt.Errorf("update %s %d status: %w", s.kind, id, err)
	}
	updated, err := s.load(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s %s: %w", s.kind, action, err)
	}

	s.log.Info().Int("id", id).Str("number", doc.Number).
		Str("from", string(doc.Status)).Str("to", string(next)).Msg("billing status changed")
	return updated, nil
}

func (s *billingService) Get(ctx context.Context, id int) (*BillingDocument, error) {
	return s.load(ctx, s.pool, id, false)
}

func (s *billingService) List(ctx context.Context, f ListFilter) (*BillingPage, error) {
	f = f.Normalize()

	var w whereBuilder
	if f.Status != "" {
		w.add("b.status = ?", f.Status)
	}
	if f.CounterpartyID != 0 {
		w.add("b."+s.table.partyCol+" = ?", f.CounterpartyID)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(b."+s.table.numberCol+" ILIKE ? OR b.reference ILIKE ? OR c.name ILIKE ?)", p, p, p)
	}

	page := &BillingPage{Items: []BillingDocument{}, Page: f.Page, Limit: f.Limit}
	countSQL := fmt.Sprintf("SELECT count(*) FROM %s b JOIN contacts c ON c.id = b.%s", s.table.table, s.table.partyCol)
	if err := s.pool.QueryRow(ctx, countSQL+w.sql(), w.args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count %ss: %w", s.kind, err)
	}

	query := s.table.selectSQL() + w.sql() +
		" ORDER BY b.created_at DESC, b.id DESC LIMIT " + w.next(f.Limit) + " OFFSET " + w.next(f.Offset())
	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBilling(rows, s.kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.kind, err)
		}
		page.Items = append(page.Items, *b)
	}
	return page, rows.Err()
}
