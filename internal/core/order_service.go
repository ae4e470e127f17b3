package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderTable maps an order kind onto its table and rules.
type orderTable struct {
	table     string
	numberCol string
	partyCol  string
	dateCol   string
	partyRole string
	series    Series
	accepts   func(*Contact) bool
}

var orderTables = map[OrderKind]orderTable{
	PurchaseOrderKind: {
		table:     "purchase_orders",
		numberCol: "po_number",
		partyCol:  "vendor_id",
		dateCol:   "po_date",
		partyRole: "vendor",
		series:    PurchaseOrderSeries,
		accepts:   (*Contact).CanSell,
	},
	SalesOrderKind: {
		table:     "sales_orders",
		numberCol: "so_number",
		partyCol:  "customer_id",
		dateCol:   "so_date",
		partyRole: "customer",
		series:    SalesOrderSeries,
		accepts:   (*Contact).CanBuy,
	},
}

func (t orderTable) selectSQL() string {
	return fmt.Sprintf(`
		SELECT o.id, o.%s, o.%s, c.name, o.items, o.status, o.reference, o.%s,
		       o.untaxed_amount, o.tax_amount, o.total_amount, o.created_at, o.updated_at
		FROM %s o
		JOIN contacts c ON c.id = o.%s`,
		t.numberCol, t.partyCol, t.dateCol, t.table, t.partyCol)
}

func scanOrder(row rowScanner, kind OrderKind) (*Order, error) {
	o := &Order{Kind: kind}
	err := row.Scan(&o.ID, &o.Number, &o.CounterpartyID, &o.CounterpartyName, &o.Items, &o.Status,
		&o.Reference, &o.Date, &o.UntaxedAmount, &o.TaxAmount, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if o.Items == nil {
		o.Items = []OrderLine{}
	}
	return o, err
}

// loadOrder reads one order. With lock set the order row is locked until
// the surrounding transaction ends.
func loadOrder(ctx context.Context, q querier, kind OrderKind, id int, lock bool) (*Order, error) {
	t := orderTables[kind]
	query := t.selectSQL() + " WHERE o.id = $1"
	if lock {
		query += " FOR UPDATE OF o"
	}
	o, err := scanOrder(q.QueryRow(ctx, query, id), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get "+kind.String(), kind.String(), id)
		}
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return o, nil
}

// setOrderStatus persists a status change decided by the transition table.
func setOrderStatus(ctx context.Context, tx pgx.Tx, kind OrderKind, id int, status OrderStatus) error {
	t := orderTables[kind]
	_, err := tx.Exec(ctx,
		"UPDATE "+t.table+" SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update %s %d status: %w", kind, id, err)
	}
	return nil
}

// withID attaches the document id to a transition error.
func withID(err error, id int) error {
	var de *DomainError
	if errors.As(err, &de) && de.ID == 0 {
		de.ID = id
	}
	return err
}

type orderService struct {
	pool   *pgxpool.Pool
	kind   OrderKind
	table  orderTable
	seq    SequenceService
	pricer linePricer
	log    zerolog.Logger
	now    func() time.Time
}

// NewPurchaseOrderService constructs the purchase order aggregate.
func NewPurchaseOrderService(pool *pgxpool.Pool, seq SequenceService, taxes *TaxCalculator, log zerolog.Logger) OrderService {
	return newOrderService(pool, PurchaseOrderKind, seq, taxes, log)
}

// NewSalesOrderService constructs the sales order aggregate.
func NewSalesOrderService(pool *pgxpool.Pool, seq SequenceService, taxes *TaxCalculator, log zerolog.Logger) OrderService {
	return newOrderService(pool, SalesOrderKind, seq, taxes, log)
}

func newOrderService(pool *pgxpool.Pool, kind OrderKind, seq SequenceService, taxes *TaxCalculator, log zerolog.Logger) *orderService {
	return &orderService{
		pool:   pool,
		kind:   kind,
		table:  orderTables[kind],
		seq:    seq,
		pricer: linePricer{kind: kind, taxes: taxes, log: log},
		log:    log.With().Str("order_kind", string(kind)).Logger(),
		now:    time.Now,
	}
}

func (s *orderService) Kind() OrderKind { return s.kind }

// checkCounterparty verifies the contact exists and may trade on this side.
func (s *orderService) checkCounterparty(ctx context.Context, q querier, op string, id int) (*Contact, error) {
	return checkCounterparty(ctx, q, op, s.table.partyRole, s.table.accepts, id)
}

func checkCounterparty(ctx context.Context, q querier, op, role string, accepts func(*Contact) bool, id int) (*Contact, error) {
	if id == 0 {
		return nil, invalidInput(op, role+"_id", "%s is required", role)
	}
	c, err := getContact(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !accepts(c) {
		return nil, invalidInput(op, role+"_id", "contact %d is a %s and cannot be used as %s", id, c.Type, role)
	}
	return c, nil
}

func (s *orderService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

func (s *orderService) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	op := "create " + s.kind.String()
	if len(in.Items) == 0 {
		return nil, invalidInput(op, "items", "%s must have at least one line", s.kind)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	party, err := s.checkCounterparty(ctx, tx, op, in.CounterpartyID)
	if err != nil {
		return nil, err
	}

	items, calc, err := s.pricer.price(ctx, tx, op, in.Items, true)
	if err != nil {
		return nil, err
	}

	date := s.today()
	if in.Date != nil {
		date = in.Date.UTC()
	}

	number := strings.TrimSpace(in.Number)
	if number == "" {
		number, err = s.seq.NextNumber(ctx, tx, s.table.series, date)
		if err != nil {
			return nil, err
		}
	}

	var id int
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s, %s, items, status, reference, %s, untaxed_amount, tax_amount, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`, s.table.table, s.table.numberCol, s.table.partyCol, s.table.dateCol),
		number, party.ID, items, OrderDraft, optional(in.Reference), date,
		calc.Subtotal, calc.TaxAmount, calc.TotalAmount,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalidInput(op, "number", "%s number %q already exists", s.kind, number)
		}
		return nil, fmt.Errorf("insert %s: %w", s.kind, err)
	}

	o, err := loadOrder(ctx, tx, s.kind, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s: %w", s.kind, err)
	}

	o.Warnings = calc.Warnings
	s.log.Info().Int("id", o.ID).Str("number", o.Number).Str("total", o.TotalAmount.String()).Msg("order created")
	return o, nil
}

func (s *orderService) Update(ctx context.Context, id int, in UpdateOrderInput) (*Order, error) {
	op := "update " + s.kind.String()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := loadOrder(ctx, tx, s.kind, id, true)
	if err != nil {
		return nil, err
	}
	if o.Status != OrderDraft {
		return nil, invalidState(op, s.kind.String(), id, "only draft orders can be edited, status is %s", o.Status)
	}

	partyID := o.CounterpartyID
	if in.CounterpartyID != nil && *in.CounterpartyID != partyID {
		if _, err := s.checkCounterparty(ctx, tx, op, *in.CounterpartyID); err != nil {
			return nil, err
		}
		partyID = *in.CounterpartyID
	}

	reference := o.Reference
	if in.Reference != nil {
		reference = optional(*in.Reference)
	}
	date := o.Date
	if in.Date != nil {
		date = in.Date.UTC()
	}
	items := o.Items
	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, invalidInput(op, "items", "%s must have at least one line", s.kind)
		}
		items = in.Items
	}

	priced, calc, err := s.pricer.price(ctx, tx, op, items, true)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, items = $2, reference = $3, %s = $4,
		    untaxed_amount = $5, tax_amount = $6, total_amount = $7, updated_at = NOW()
		WHERE id = $8`, s.table.table, s.table.partyCol, s.table.dateCol),
		partyID, priced, reference, date, calc.Subtotal, calc.TaxAmount, calc.TotalAmount, id)
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", s.kind, id, err)
	}

	updated, err := loadOrder(ctx, tx, s.kind, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s update: %w", s.kind, err)
	}
	updated.Warnings = calc.Warnings
	return updated, nil
}

func (s *orderService) Confirm(ctx context.Context, id int) (*Order, error) {
	return s.transition(ctx, id, ActionConfirm)
}

func (s *orderService) Cancel(ctx context.Context, id int) (*Order, error) {
	return s.transition(ctx, id, ActionCancel)
}

func (s *orderService) RevertToDraft(ctx context.Context, id int) (*Order, error) {
	return s.transition(ctx, id, ActionRevert)
}

// transition locks the order, applies action through the transition table
// and persists the new status. Totals are not recomputed.
func (s *orderService) transition(ctx context.Context, id int, action OrderAction) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := loadOrder(ctx, tx, s.kind, id, true)
	if err != nil {
		return nil, err
	}
	next, err := NextOrderStatus(s.kind, o.Status, action)
	if err != nil {
		return nil, withID(err, id)
	}
	if err := setOrderStatus(ctx, tx, s.kind, id, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s %s: %w", s.kind, action, err)
	}

	s.log.Info().Int("id", id).Str("number", o.Number).
		Str("from", string(o.Status)).Str("to", string(next)).Msg("order status changed")
	o.Status = next
	o.UpdatedAt = s.now().UTC()
	return o, nil
}

func (s *orderService) Get(ctx context.Context, id int) (*Order, error) {
	return loadOrder(ctx, s.pool, s.kind, id, false)
}

func (s *orderService) List(ctx context.Context, f ListFilter) (*OrderPage, error) {
	f = f.Normalize()

	var w whereBuilder
	if f.Status != "" {
		w.add("o.status = ?", f.Status)
	}
	if f.CounterpartyID != 0 {
		w.add("o."+s.table.partyCol+" = ?", f.CounterpartyID)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(o."+s.table.numberCol+" ILIKE ? OR o.reference ILIKE ? OR c.name ILIKE ?)", p, p, p)
	}

	page := &OrderPage{Items: []Order{}, Page: f.Page, Limit: f.Limit}
	countSQL := fmt.Sprintf("SELECT count(*) FROM %s o JOIN contacts c ON c.id = o.%s", s.table.table, s.table.partyCol)
	if err := s.pool.QueryRow(ctx, countSQL+w.sql(), w.args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count %ss: %w", s.kind, err)
	}

	query := s.table.selectSQL() + w.sql() +
		" ORDER BY o.created_at DESC, o.id DESC LIMIT " + w.next(f.Limit) + " OFFSET " + w.next(f.Offset())
	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows, s.kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.kind, err)
		}
		page.Items = append(page.Items, *o)
	}
	return page, rows.Err()
}

func (s *orderService) PreviewTotals(ctx context.Context, items []OrderLine) (*OrderTaxCalculation, error) {
	_, calc, err := s.pricer.price(ctx, s.pool, "preview "+s.kind.String()+" totals", items, true)
	return calc, err
}
