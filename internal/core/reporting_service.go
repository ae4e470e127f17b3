package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReportingService produces read-only summaries over confirmed billing
// documents and the stock ledger. Every report is a full scan of its
// inputs; there is no pagination.
type ReportingService interface {
	StockReport(ctx context.Context) (*StockReport, error)
	ProfitAndLoss(ctx context.Context, r DateRange) (*ProfitAndLoss, error)
	BalanceSheet(ctx context.Context, r DateRange) (*BalanceSheet, error)
	// DashboardSummary accepts 7d, 30d, 90d or 1y; anything else is unbounded.
	DashboardSummary(ctx context.Context, period string) (*Dashboard, error)
}

type reportingService struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	now  func() time.Time
}

// NewReportingService constructs a ReportingService backed by PostgreSQL.
func NewReportingService(pool *pgxpool.Pool, log zerolog.Logger) ReportingService {
	return &reportingService{pool: pool, log: log, now: time.Now}
}

// loadConfirmed returns confirmed documents of kind dated inside r, newest
// first. limit <= 0 means no limit.
func (s *reportingService) loadConfirmed(ctx context.Context, kind BillingKind, r DateRange, limit int) ([]BillingDocument, error) {
	t := billingTables[kind]

	var w whereBuilder
	w.add("b.status = ?", BillingConfirmed)
	if r.From != nil {
		w.add("b.invoice_date >= ?::date", r.From.UTC())
	}
	if r.To != nil {
		w.add("b.invoice_date <= ?::date", r.To.UTC())
	}
	query := t.selectSQL() + w.sql() + " ORDER BY b.invoice_date DESC, b.created_at DESC"
	if limit > 0 {
		query += " LIMIT " + w.next(limit)
	}

	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("load %ss: %w", kind, err)
	}
	defer rows.Close()

	docs := []BillingDocument{}
	for rows.Next() {
		d, err := scanBilling(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (s *reportingService) loadBoth(ctx context.Context, r DateRange) (invoices, bills []BillingDocument, err error) {
	if invoices, err = s.loadConfirmed(ctx, CustomerInvoiceKind, r, 0); err != nil {
		return nil, nil, err
	}
	if bills, err = s.loadConfirmed(ctx, VendorBillKind, r, 0); err != nil {
		return nil, nil, err
	}
	return invoices, bills, nil
}

func (s *reportingService) StockReport(ctx context.Context) (*StockReport, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+stockColumns+" FROM stock_ledger")
	if err != nil {
		return nil, fmt.Errorf("load stock ledger: %w", err)
	}
	defer rows.Close()

	var entries []StockLedgerEntry
	for rows.Next() {
		e, err := scanStockEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	products := map[int]Product{}
	prows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE id IN (SELECT DISTINCT product_id FROM stock_ledger)`)
	if err != nil {
		return nil, fmt.Errorf("load stocked products: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		p, err := scanProduct(prows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = *p
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	rep := BuildStockReport(entries, products)
	return &rep, nil
}

func (s *reportingService) ProfitAndLoss(ctx context.Context, r DateRange) (*ProfitAndLoss, error) {
	invoices, bills, err := s.loadBoth(ctx, r)
	if err != nil {
		return nil, err
	}

	accounts := map[int]Account{}
	rows, err := s.pool.Query(ctx, "SELECT "+accountColumns+" FROM chart_of_accounts")
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts[a.ID] = *a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pl := BuildProfitAndLoss(invoices, bills, accounts, r)
	return &pl, nil
}

func (s *reportingService) BalanceSheet(ctx context.Context, r DateRange) (*BalanceSheet, error) {
	invoices, bills, err := s.loadBoth(ctx, r)
	if err != nil {
		return nil, err
	}
	bs := BuildBalanceSheet(invoices, bills, r)
	if !bs.IsBalanced {
		s.log.Warn().Str("check", bs.Check.String()).Msg("balance sheet does not balance")
	}
	return &bs, nil
}

func (s *reportingService) DashboardSummary(ctx context.Context, period string) (*Dashboard, error) {
	now := s.now().UTC()
	in := DashboardInput{Now: now, Period: period}

	var r DateRange
	days := PeriodDays(period)
	if days > 0 {
		from := startOfDay(now).AddDate(0, 0, -days)
		r.From = &from
	}

	var err error
	if in.Invoices, in.Bills, err = s.loadBoth(ctx, r); err != nil {
		return nil, err
	}

	if r.From != nil {
		prevFrom := r.From.AddDate(0, 0, -days)
		prevTo := r.From.AddDate(0, 0, -1)
		prev, err := s.loadConfirmed(ctx, CustomerInvoiceKind, DateRange{From: &prevFrom, To: &prevTo}, 0)
		if err != nil {
			return nil, err
		}
		in.HasPrev = true
		in.PrevRevenue = decimal.Zero
		for _, d := range prev {
			in.PrevRevenue = in.PrevRevenue.Add(d.TotalAmount)
		}
	}

	err = s.pool.QueryRow(ctx, `
		SELECT count(*) FROM contacts
		WHERE is_active = true AND type IN ('Customer', 'Both')`).Scan(&in.ActiveClients)
	if err != nil {
		return nil, fmt.Errorf("count active clients: %w", err)
	}

	if in.RecentInvoices, err = s.loadConfirmed(ctx, CustomerInvoiceKind, DateRange{}, 10); err != nil {
		return nil, err
	}
	if in.RecentBills, err = s.loadConfirmed(ctx, VendorBillKind, DateRange{}, 10); err != nil {
		return nil, err
	}

	d := BuildDashboard(in)
	return &d, nil
}
