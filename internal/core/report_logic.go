package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds report queries by document date. Both ends are
// inclusive; a nil end is unbounded.
type DateRange struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// DateQuery is the raw form of a report date filter, as it arrives from a
// query string or CLI flags. Date wins over Month/Year, which win over From/To.
type DateQuery struct {
	From  string
	To    string
	Date  string
	Month string
	Year  string
}

const dateLayout = "2006-01-02"

func parseDay(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		if t, err2 := time.Parse(time.RFC3339, strings.TrimSpace(s)); err2 == nil {
			return t.UTC(), nil
		}
		return time.Time{}, invalidInput("parse date range", field, "%q is not a date (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// ParseDateRange turns q into a UTC range. A single Date covers that whole
// day; Month/Year cover the whole month (Month defaults to January, Year to
// the year of now).
func ParseDateRange(q DateQuery, now time.Time) (DateRange, error) {
	var r DateRange

	switch {
	case strings.TrimSpace(q.Date) != "":
		d, err := parseDay("date", q.Date)
		if err != nil {
			return r, err
		}
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
		r.From, r.To = &from, &to

	case strings.TrimSpace(q.Month) != "" || strings.TrimSpace(q.Year) != "":
		year := now.UTC().Year()
		if s := strings.TrimSpace(q.Year); s != "" {
			y, err := strconv.Atoi(s)
			if err != nil || y < 1 {
				return r, invalidInput("parse date range", "year", "invalid year %q", q.Year)
			}
			year = y
		}
		month := 1
		if s := strings.TrimSpace(q.Month); s != "" {
			m, err := strconv.Atoi(s)
			if err != nil || m < 1 || m > 12 {
				return r, invalidInput("parse date range", "month", "month must be 1-12, got %q", q.Month)
			}
			month = m
		}
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
		r.From, r.To = &from, &to

	default:
		if strings.TrimSpace(q.From) != "" {
			from, err := parseDay("from", q.From)
			if err != nil {
				return r, err
			}
			r.From = &from
		}
		if strings.TrimSpace(q.To) != "" {
			to, err := parseDay("to", q.To)
			if err != nil {
				return r, err
			}
			if len(strings.TrimSpace(q.To)) == len(dateLayout) {
				to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
			r.To = &to
		}
		if r.From != nil && r.To != nil && r.To.Before(*r.From) {
			return r, invalidInput("parse date range", "to", "to is before from")
		}
	}
	return r, nil
}

// DefaultDashboardPeriod is used when a dashboard request names no period.
const DefaultDashboardPeriod = "30d"

// PeriodDays maps a dashboard period token to its length in days.
// Unknown tokens return 0, meaning unbounded.
func PeriodDays(period string) int {
	switch period {
	case "7d":
		return 7
	case "30d":
		return 30
	case "90d":
		return 90
	case "1y":
		return 365
	}
	return 0
}

// ── Stock ────────────────────────────────────────────────────────────────────

type StockRow struct {
	ProductID     int             `json:"product_id"`
	ProductName   string          `json:"product_name"`
	OnHand        decimal.Decimal `json:"on_hand"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	StockValue    decimal.Decimal `json:"stock_value"`
}

type StockSummary struct {
	TotalQty   decimal.Decimal `json:"total_qty"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type StockReport struct {
	Rows    []StockRow   `json:"data"`
	Summary StockSummary `json:"summary"`
}

// BuildStockReport aggregates the ledger per product. Products missing from
// the catalog are reported as "#<id>" with a zero price.
func BuildStockReport(entries []StockLedgerEntry, products map[int]Product) StockReport {
	onHand := map[int]decimal.Decimal{}
	for _, e := range entries {
		switch e.Type {
		case StockIn:
			onHand[e.ProductID] = onHand[e.ProductID].Add(e.Quantity)
		case StockOut:
			onHand[e.ProductID] = onHand[e.ProductID].Sub(e.Quantity)
		}
	}

	rep := StockReport{Rows: make([]StockRow, 0, len(onHand))}
	for pid, qty := range onHand {
		row := StockRow{ProductID: pid, ProductName: fmt.Sprintf("#%d", pid), OnHand: qty}
		if p, ok := products[pid]; ok {
			row.ProductName = p.Name
			row.PurchasePrice = p.PurchasePrice
		}
		row.StockValue = Round2(qty.Mul(row.PurchasePrice))
		rep.Rows = append(rep.Rows, row)
		rep.Summary.TotalQty = rep.Summary.TotalQty.Add(qty)
		rep.Summary.TotalValue = rep.Summary.TotalValue.Add(row.StockValue)
	}
	sort.Slice(rep.Rows, func(i, j int) bool {
		if rep.Rows[i].ProductName != rep.Rows[j].ProductName {
			return rep.Rows[i].ProductName < rep.Rows[j].ProductName
		}
		return rep.Rows[i].ProductID < rep.Rows[j].ProductID
	})
	return rep
}

// ── Profit & loss ────────────────────────────────────────────────────────────

type AccountAmount struct {
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

type ProfitAndLoss struct {
	Incomes      []AccountAmount `json:"incomes"`
	Expenses     []AccountAmount `json:"expenses"`
	IncomeTotal  decimal.Decimal `json:"income_total"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	// NetProfitByAccount only counts lines booked to an active account of
	// the right type. See BalanceSheet.NetProfitByTotals for the other figure.
	NetProfitByAccount decimal.Decimal `json:"net_profit_by_account"`
	Period             DateRange       `json:"period"`
}

// LineAmount is the booked amount of a line: its stored total, or
// quantity × unit price × (1 + tax rate/100) when no total was stored.
func LineAmount(l OrderLine) decimal.Decimal {
	if l.LineTotal != nil {
		return *l.LineTotal
	}
	return l.Quantity.Mul(l.Price()).Mul(one.Add(l.TaxRate.Div(hundred)))
}

func groupByAccount(docs []BillingDocument, accounts map[int]Account, want AccountType) []AccountAmount {
	sums := map[string]decimal.Decimal{}
	for _, d := range docs {
		for _, l := range d.Items {
			if l.AccountID == nil {
				continue
			}
			acc, ok := accounts[*l.AccountID]
			if !ok || !acc.IsActive || acc.Type != want {
				continue
			}
			sums[acc.AccountName] = sums[acc.AccountName].Add(LineAmount(l))
		}
	}
	out := make([]AccountAmount, 0, len(sums))
	for name, amt := range sums {
		out = append(out, AccountAmount{AccountName: name, Amount: Round2(amt)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountName < out[j].AccountName })
	return out
}

func sumAmounts(rows []AccountAmount) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}

// BuildProfitAndLoss groups confirmed invoice lines into Income accounts and
// confirmed bill lines into Expense accounts.
func BuildProfitAndLoss(invoices, bills []BillingDocument, accounts map[int]Account, period DateRange) ProfitAndLoss {
	pl := ProfitAndLoss{
		Incomes:  groupByAccount(invoices, accounts, AccountIncome),
		Expenses: groupByAccount(bills, accounts, AccountExpense),
		Period:   period,
	}
	pl.IncomeTotal = sumAmounts(pl.Incomes)
	pl.ExpenseTotal = sumAmounts(pl.Expenses)
	pl.NetProfitByAccount = pl.IncomeTotal.Sub(pl.ExpenseTotal)
	return pl
}

// ── Balance sheet ────────────────────────────────────────────────────────────

type BalanceAssets struct {
	Bank    decimal.Decimal `json:"bank"`
	Cash    decimal.Decimal `json:"cash"`
	Debtors decimal.Decimal `json:"debtors"`
	Total   decimal.Decimal `json:"total"`
}

type BalanceLiabilities struct {
	NetProfit decimal.Decimal `json:"net_profit"`
	Creditors decimal.Decimal `json:"creditors"`
	Total     decimal.Decimal `json:"total"`
}

type BalanceSheet struct {
	Assets      BalanceAssets      `json:"assets"`
	Liabilities BalanceLiabilities `json:"liabilities"`
	// NetProfitByTotals is invoice totals minus bill totals, which differs
	// from ProfitAndLoss.NetProfitByAccount whenever lines are unbooked.
	NetProfitByTotals decimal.Decimal `json:"net_profit_by_totals"`
	Equation          string          `json:"equation"`
	Check             decimal.Decimal `json:"check"`
	IsBalanced        bool            `json:"is_balanced"`
	Note              string          `json:"note"`
	Period            DateRange       `json:"period"`
}

const balanceSheetNote = "net profit here is invoice totals minus bill totals; " +
	"the profit and loss report groups booked lines by account and can differ"

// BuildBalanceSheet derives the simplified balance sheet from confirmed
// invoices and bills. Bank and cash are receipts minus payments.
// The sheet balances whenever every document keeps amount_due = total − paid.
func BuildBalanceSheet(invoices, bills []BillingDocument, period DateRange) BalanceSheet {
	var bank, cash, debtors, creditors, income, expense decimal.Decimal
	for _, i := range invoices {
		bank = bank.Add(i.PaidBank)
		cash = cash.Add(i.PaidCash)
		debtors = debtors.Add(i.AmountDue)
		income = income.Add(i.TotalAmount)
	}
	for _, b := range bills {
		bank = bank.Sub(b.PaidBank)
		cash = cash.Sub(b.PaidCash)
		creditors = creditors.Add(b.AmountDue)
		expense = expense.Add(b.TotalAmount)
	}
	net := income.Sub(expense)

	bs := BalanceSheet{
		Assets: BalanceAssets{
			Bank:    Round2(bank),
			Cash:    Round2(cash),
			Debtors: Round2(debtors),
			Total:   Round2(bank.Add(cash).Add(debtors)),
		},
		Liabilities: BalanceLiabilities{
			NetProfit: Round2(net),
			Creditors: Round2(creditors),
			Total:     Round2(creditors.Add(net)),
		},
		NetProfitByTotals: Round2(net),
		Equation:          "Assets == Liabilities",
		Note:              balanceSheetNote,
		Period:            period,
	}
	bs.Check = Round2(bs.Assets.Total.Sub(bs.Liabilities.Total))
	bs.IsBalanced = bs.Check.Abs().LessThanOrEqual(tolerance)
	return bs
}

// ── Dashboard ────────────────────────────────────────────────────────────────

type QuickStats struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	ActiveClients int             `json:"active_clients"`
	GrowthRate    decimal.Decimal `json:"growth_rate"`
}

type TimeBuckets struct {
	Last24Hours decimal.Decimal `json:"last_24_hours"`
	Last7Days   decimal.Decimal `json:"last_7_days"`
	Last30Days  decimal.Decimal `json:"last_30_days"`
	Change24h   decimal.Decimal `json:"change_24h"`
	Change7d    decimal.Decimal `json:"change_7d"`
}

type TimeBasedStats struct {
	TotalInvoice  TimeBuckets `json:"total_invoice"`
	TotalPurchase TimeBuckets `json:"total_purchase"`
	TotalPayment  TimeBuckets `json:"total_payment"`
}

type MonthPoint struct {
	Month     string          `json:"month"`
	Sales     decimal.Decimal `json:"sales"`
	Purchases decimal.Decimal `json:"purchases"`
}

type Transaction struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	DateLabel   string          `json:"date_label"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference"`
	Balance     decimal.Decimal `json:"balance"`
}

type Dashboard struct {
	Period             string         `json:"period"`
	QuickStats         QuickStats     `json:"quick_stats"`
	TimeBasedStats     TimeBasedStats `json:"time_based_stats"`
	ChartData          []MonthPoint   `json:"chart_data"`
	RecentTransactions []Transaction  `json:"recent_transactions"`
}

// DashboardInput is everything BuildDashboard needs. Invoices and Bills are
// the confirmed documents inside the period; PrevRevenue is the invoice
// total of the equally long window before it (ignored when HasPrev is false).
type DashboardInput struct {
	Now            time.Time
	Period         string
	Invoices       []BillingDocument
	Bills          []BillingDocument
	PrevRevenue    decimal.Decimal
	HasPrev        bool
	ActiveClients  int
	RecentInvoices []BillingDocument
	RecentBills    []BillingDocument
}

// PercentChange is (cur − prev)/prev × 100, with a zero baseline giving 100
// when cur is positive and 0 otherwise.
func PercentChange(cur, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		if cur.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return Round2(cur.Sub(prev).Div(prev).Mul(hundred))
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sumIn(docs []BillingDocument, from, to time.Time, amount func(BillingDocument) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range docs {
		if !d.InvoiceDate.Before(from) && d.InvoiceDate.Before(to) {
			total = total.Add(amount(d))
		}
	}
	return total
}

// bucketize sums amounts into the dashboard windows. "Last 24 hours" is the
// current UTC day; the 7 and 30 day windows end at the start of today.
func bucketize(docs []BillingDocument, now time.Time, amount func(BillingDocument) decimal.Decimal) TimeBuckets {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	yesterday := today.AddDate(0, 0, -1)
	weekStart := today.AddDate(0, 0, -7)
	prevWeekStart := weekStart.AddDate(0, 0, -7)
	monthStart := today.AddDate(0, 0, -30)

	b := TimeBuckets{
		Last24Hours: sumIn(docs, today, tomorrow, amount),
		Last7Days:   sumIn(docs, weekStart, today, amount),
		Last30Days:  sumIn(docs, monthStart, today, amount),
	}
	prev24 := sumIn(docs, yesterday, today, amount)
	prev7 := sumIn(docs, prevWeekStart, weekStart, amount)
	b.Change24h = PercentChange(b.Last24Hours, prev24)
	b.Change7d = PercentChange(b.Last7Days, prev7)
	return b
}

func totalOf(d BillingDocument) decimal.Decimal { return d.TotalAmount }
func paidOf(d BillingDocument) decimal.Decimal  { return d.PaidCash.Add(d.PaidBank) }

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func roundBuckets(b TimeBuckets) TimeBuckets {
	return TimeBuckets{
		Last24Hours: Round2(b.Last24Hours),
		Last7Days:   Round2(b.Last7Days),
		Last30Days:  Round2(b.Last30Days),
		Change24h:   Round2(b.Change24h),
		Change7d:    Round2(b.Change7d),
	}
}

// BuildDashboard assembles the dashboard summary.
func BuildDashboard(in DashboardInput) Dashboard {
	now := in.Now.UTC()

	revenue := decimal.Zero
	for _, i := range in.Invoices {
		revenue = revenue.Add(i.TotalAmount)
	}
	growth := decimal.Zero
	if in.HasPrev {
		growth = PercentChange(revenue, in.PrevRevenue)
	}

	paidIn := bucketize(in.Invoices, now, paidOf)
	paidOut := bucketize(in.Bills, now, paidOf)
	payment := TimeBuckets{
		Last24Hours: nonNegative(paidIn.Last24Hours.Sub(paidOut.Last24Hours)),
		Last7Days:   nonNegative(paidIn.Last7Days.Sub(paidOut.Last7Days)),
		Last30Days:  nonNegative(paidIn.Last30Days.Sub(paidOut.Last30Days)),
		Change24h:   paidIn.Change24h.Sub(paidOut.Change24h),
		Change7d:    paidIn.Change7d.Sub(paidOut.Change7d),
	}

	return Dashboard{
		Period: in.Period,
		QuickStats: QuickStats{
			TotalRevenue:  Round2(revenue),
			ActiveClients: in.ActiveClients,
			GrowthRate:    Round2(growth),
		},
		TimeBasedStats: TimeBasedStats{
			TotalInvoice:  roundBuckets(bucketize(in.Invoices, now, totalOf)),
			TotalPurchase: roundBuckets(bucketize(in.Bills, now, totalOf)),
			TotalPayment:  roundBuckets(payment),
		},
		ChartData:          monthlySeries(in.Invoices, in.Bills, now),
		RecentTransactions: recentTransactions(in.RecentInvoices, in.RecentBills),
	}
}

// monthlySeries covers the twelve calendar months ending with the current one.
func monthlySeries(invoices, bills []BillingDocument, now time.Time) []MonthPoint {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	points := make([]MonthPoint, 12)
	index := map[string]int{}
	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = MonthPoint{Month: m.Format("Jan 06")}
		index[m.Format("2006-01")] = i
	}
	for _, d := range invoices {
		if i, ok := index[d.InvoiceDate.UTC().Format("2006-01")]; ok {
			points[i].Sales = points[i].Sales.Add(d.TotalAmount)
		}
	}
	for _, d := range bills {
		if i, ok := index[d.InvoiceDate.UTC().Format("2006-01")]; ok {
			points[i].Purchases = points[i].Purchases.Add(d.TotalAmount)
		}
	}
	for i := range points {
		points[i].Sales = points[i].Sales.Round(0)
		points[i].Purchases = points[i].Purchases.Round(0)
	}
	return points
}

func toTransaction(d BillingDocument) Transaction {
	t := Transaction{
		Date:      d.InvoiceDate,
		DateLabel: d.InvoiceDate.UTC().Format("02 Jan 2006"),
		Category:  d.CounterpartyName,
		Amount:    d.TotalAmount,
		Status:    "pending",
		Method:    "Bank",
		Balance:   d.AmountDue,
	}
	if d.Reference != nil {
		t.Reference = *d.Reference
	}
	if d.AmountDue.IsZero() {
		t.Status = "completed"
	}
	if d.PaidCash.IsPositive() && !d.PaidBank.IsPositive() {
		t.Method = "Cash"
	}
	if d.Kind == CustomerInvoiceKind {
		t.ID = fmt.Sprintf("INV-%d", d.ID)
		t.Type = "income"
		t.Description = "Invoice #" + d.Number
		if t.Category == "" {
			t.Category = "Customer"
		}
	} else {
		t.ID = fmt.Sprintf("BILL-%d", d.ID)
		t.Type = "expense"
		t.Description = "Vendor Bill #" + d.Number
		if t.Category == "" {
			t.Category = "Vendor"
		}
	}
	return t
}

// recentTransactions merges invoices and bills, newest first, capped at 10.
func recentTransactions(invoices, bills []BillingDocument) []Transaction {
	all := make([]BillingDocument, 0, len(invoices)+len(bills))
	all = append(all, invoices...)
	all = append(all, bills...)
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].InvoiceDate.Equal(all[j].InvoiceDate) {
			return all[i].InvoiceDate.After(all[j].InvoiceDate)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > 10 {
		all = all[:10]
	}
	out := make([]Transaction, 0, len(all))
	for _, d := range all {
		out = append(out, toTransaction(d))
	}
	return out
}
