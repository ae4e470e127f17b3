package core_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiv-erp/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

	t.Run("single date covers the whole day", func(t *testing.T) {
		r, err := core.ParseDateRange(core.DateQuery{Date: "2025-03-02", From: "2020-01-01"}, now)
		require.NoError(t, err)
		assert.Equal(t, day(2025, time.March, 2), *r.From)
		assert.True(t, r.Contains(time.Date(2025, time.March, 2, 23, 59, 59, 0, time.UTC)))
		assert.False(t, r.Contains(day(2025, time.March, 3)))
	})

	t.Run("month defaults to current year", func(t *testing.T) {
		r, err := core.ParseDateRange(core.DateQuery{Month: "2"}, now)
		require.NoError(t, err)
		assert.Equal(t, day(2025, time.February, 1), *r.From)
		assert.True(t, r.Contains(time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC)))
		assert.False(t, r.Contains(day(2025, time.March, 1)))
	})

	t.Run("year alone means January", func(t *testing.T) {
		r, err := core.ParseDateRange(core.DateQuery{Year: "2024"}, now)
		require.NoError(t, err)
		assert.Equal(t, day(2024, time.January, 1), *r.From)
		assert.False(t, r.Contains(day(2024, time.February, 1)))
	})

	t.Run("date-only upper bound is inclusive", func(t *testing.T) {
		r, err := core.ParseDateRange(core.DateQuery{From: "2025-01-01", To: "2025-01-31"}, now)
		require.NoError(t, err)
		assert.True(t, r.Contains(time.Date(2025, time.January, 31, 18, 0, 0, 0, time.UTC)))
	})

	t.Run("open ended", func(t *testing.T) {
		r, err := core.ParseDateRange(core.DateQuery{}, now)
		require.NoError(t, err)
		assert.Nil(t, r.From)
		assert.Nil(t, r.To)
	})

	errCases := map[string]core.DateQuery{
		"bad date":       {Date: "02/03/2025"},
		"bad month":      {Month: "13"},
		"bad year":       {Year: "twenty"},
		"to before from": {From: "2025-02-01", To: "2025-01-01"},
	}
	for name, q := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := core.ParseDateRange(q, now)
			assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestPeriodDays(t *testing.T) {
	assert.Equal(t, 7, core.PeriodDays("7d"))
	assert.Equal(t, 365, core.PeriodDays("1y"))
	assert.Equal(t, 0, core.PeriodDays("all"))
}

func TestBuildStockReport(t *testing.T) {
	entries := []core.StockLedgerEntry{
		{ProductID: 1, Type: core.StockIn, Quantity: dec("10")},
		{ProductID: 1, Type: core.StockOut, Quantity: dec("3")},
		{ProductID: 2, Type: core.StockIn, Quantity: dec("2.5")},
		{ProductID: 9, Type: core.StockIn, Quantity: dec("1")},
	}
	products := map[int]core.Product{
		1: {ID: 1, Name: "Office Chair", PurchasePrice: dec("100")},
		2: {ID: 2, Name: "Desk", PurchasePrice: dec("33.333")},
	}

	rep := core.BuildStockReport(entries, products)
	require.Len(t, rep.Rows, 3)

	assert.Equal(t, "#9", rep.Rows[0].ProductName)
	assert.Equal(t, "Desk", rep.Rows[1].ProductName)
	assert.True(t, rep.Rows[1].StockValue.Equal(dec("83.33")), "value %s", rep.Rows[1].StockValue)
	assert.Equal(t, "Office Chair", rep.Rows[2].ProductName)
	assert.True(t, rep.Rows[2].OnHand.Equal(dec("7")))
	assert.True(t, rep.Rows[2].StockValue.Equal(dec("700")))

	assert.True(t, rep.Summary.TotalQty.Equal(dec("10.5")))
	assert.True(t, rep.Summary.TotalValue.Equal(dec("783.33")))
}

func invoice(id int, date time.Time, total, cash, bank string, lines ...core.OrderLine) core.BillingDocument {
	d := core.BillingDocument{
		ID: id, Kind: core.CustomerInvoiceKind, Number: fmt.Sprintf("INV/2025/%04d", id),
		CounterpartyName: "Asha Interiors", Items: lines, InvoiceDate: date,
		Status: core.BillingConfirmed, TotalAmount: dec(total), PaidCash: dec(cash), PaidBank: dec(bank),
	}
	d.AmountDue = d.TotalAmount.Sub(d.PaidCash).Sub(d.PaidBank)
	return d
}

func bill(id int, date time.Time, total, cash, bank string, lines ...core.OrderLine) core.BillingDocument {
	d := invoice(id, date, total, cash, bank, lines...)
	d.Kind = core.VendorBillKind
	d.CounterpartyName = "Timber Traders"
	return d
}

func bookedLine(accountID int, total string) core.OrderLine {
	return core.OrderLine{AccountID: intPtr(accountID), LineTotal: decPtr(total)}
}

func TestBuildProfitAndLoss(t *testing.T) {
	accounts := map[int]core.Account{
		1: {ID: 1, AccountName: "Sales Income", Type: core.AccountIncome, IsActive: true},
		2: {ID: 2, AccountName: "Other Income", Type: core.AccountIncome, IsActive: true},
		3: {ID: 3, AccountName: "Purchase Expense", Type: core.AccountExpense, IsActive: true},
		4: {ID: 4, AccountName: "Retired", Type: core.AccountIncome, IsActive: false},
	}
	d := day(2025, time.May, 1)
	invoices := []core.BillingDocument{
		invoice(1, d, "350", "0", "0", bookedLine(1, "200"), bookedLine(2, "100"), bookedLine(4, "50")),
		invoice(2, d, "118", "0", "0", bookedLine(1, "118"),
			core.OrderLine{Quantity: dec("1"), UnitPrice: decPtr("10")}),
	}
	bills := []core.BillingDocument{
		bill(3, d, "236", "0", "0", bookedLine(3, "236"), bookedLine(1, "999")),
	}

	pl := core.BuildProfitAndLoss(invoices, bills, accounts, core.DateRange{})

	require.Len(t, pl.Incomes, 2)
	assert.Equal(t, "Other Income", pl.Incomes[0].AccountName)
	assert.Equal(t, "Sales Income", pl.Incomes[1].AccountName)
	assert.True(t, pl.Incomes[1].Amount.Equal(dec("318")))
	require.Len(t, pl.Expenses, 1, "income accounts on bills are ignored")
	assert.True(t, pl.IncomeTotal.Equal(dec("418")))
	assert.True(t, pl.ExpenseTotal.Equal(dec("236")))
	assert.True(t, pl.NetProfitByAccount.Equal(dec("182")))
}

func TestLineAmount_WithoutStoredTotal(t *testing.T) {
	l := core.OrderLine{Quantity: dec("2"), UnitPrice: decPtr("50"), TaxRate: dec("18")}
	assert.True(t, core.LineAmount(l).Equal(dec("118")))
}

func TestBuildBalanceSheet_Balances(t *testing.T) {
	d := day(2025, time.May, 1)
	invoices := []core.BillingDocument{
		invoice(1, d, "1180", "180", "500"),
		invoice(2, d, "236", "0", "0"),
	}
	bills := []core.BillingDocument{
		bill(3, d, "590", "90", "100"),
	}

	bs := core.BuildBalanceSheet(invoices, bills, core.DateRange{})

	assert.True(t, bs.Assets.Bank.Equal(dec("400")))
	assert.True(t, bs.Assets.Cash.Equal(dec("90")))
	assert.True(t, bs.Assets.Debtors.Equal(dec("736")))
	assert.True(t, bs.Liabilities.Creditors.Equal(dec("400")))
	assert.True(t, bs.Liabilities.NetProfit.Equal(dec("826")))
	assert.True(t, bs.Assets.Total.Equal(bs.Liabilities.Total), "assets %s liabilities %s", bs.Assets.Total, bs.Liabilities.Total)
	assert.True(t, bs.IsBalanced)
	assert.True(t, bs.Check.IsZero())
}

func TestBuildBalanceSheet_DetectsDrift(t *testing.T) {
	inv := invoice(1, day(2025, time.May, 1), "100", "0", "0")
	inv.AmountDue = dec("90")

	bs := core.BuildBalanceSheet([]core.BillingDocument{inv}, nil, core.DateRange{})
	assert.False(t, bs.IsBalanced)
	assert.True(t, bs.Check.Equal(dec("-10")))
}

func TestPercentChange(t *testing.T) {
	assert.True(t, core.PercentChange(dec("150"), dec("100")).Equal(dec("50")))
	assert.True(t, core.PercentChange(dec("50"), dec("100")).Equal(dec("-50")))
	assert.True(t, core.PercentChange(dec("10"), decimal.Zero).Equal(dec("100")))
	assert.True(t, core.PercentChange(decimal.Zero, decimal.Zero).IsZero())
	assert.True(t, core.PercentChange(dec("1"), dec("3")).Equal(dec("-66.67")))
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC)
	today := day(2025, time.June, 15)

	invoices := []core.BillingDocument{
		invoice(1, today, "1000", "0", "400"),
		invoice(2, today.AddDate(0, 0, -3), "500", "500", "0"),
		invoice(3, day(2025, time.January, 20), "250.6", "0", "0"),
	}
	bills := []core.BillingDocument{
		bill(4, today, "300", "0", "600"),
		bill(5, today.AddDate(0, 0, -2), "200", "0", "0"),
	}

	d := core.BuildDashboard(core.DashboardInput{
		Now:            now,
		Period:         "1y",
		Invoices:       invoices,
		Bills:          bills,
		PrevRevenue:    dec("1000"),
		HasPrev:        true,
		ActiveClients:  4,
		RecentInvoices: invoices,
		RecentBills:    bills,
	})

	assert.True(t, d.QuickStats.TotalRevenue.Equal(dec("1750.6")))
	assert.True(t, d.QuickStats.GrowthRate.Equal(dec("75.06")))
	assert.Equal(t, 4, d.QuickStats.ActiveClients)

	inv := d.TimeBasedStats.TotalInvoice
	assert.True(t, inv.Last24Hours.Equal(dec("1000")))
	assert.True(t, inv.Last7Days.Equal(dec("500")), "7 day window ends at the start of today")
	assert.True(t, inv.Change24h.Equal(dec("100")))

	pay := d.TimeBasedStats.TotalPayment
	assert.True(t, pay.Last24Hours.IsZero(), "net payments are floored at zero, got %s", pay.Last24Hours)
	assert.True(t, pay.Last7Days.Equal(dec("500")))

	require.Len(t, d.ChartData, 12)
	assert.Equal(t, "Jul 24", d.ChartData[0].Month)
	assert.Equal(t, "Jun 25", d.ChartData[11].Month)
	assert.True(t, d.ChartData[11].Sales.Equal(dec("1500")))
	assert.True(t, d.ChartData[11].Purchases.Equal(dec("500")))
	assert.True(t, d.ChartData[6].Sales.Equal(dec("251")), "chart values are whole numbers")

	require.Len(t, d.RecentTransactions, 5)
	first := d.RecentTransactions[0]
	assert.Equal(t, "15 Jun 2025", first.DateLabel)
	assert.Contains(t, []string{"INV-1", "BILL-4"}, first.ID)

	byID := map[string]core.Transaction{}
	for _, tx := range d.RecentTransactions {
		byID[tx.ID] = tx
	}
	assert.Equal(t, "income", byID["INV-2"].Type)
	assert.Equal(t, "completed", byID["INV-2"].Status)
	assert.Equal(t, "Cash", byID["INV-2"].Method)
	assert.Equal(t, "pending", byID["INV-1"].Status)
	assert.Equal(t, "Bank", byID["INV-1"].Method)
	assert.Equal(t, "expense", byID["BILL-5"].Type)
	assert.Equal(t, "INV-3", d.RecentTransactions[4].ID)
}
