package cli

import (
	"fmt"
	"io"
	"strings"

	"shiv-erp/internal/app"
	"shiv-erp/internal/core"
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func periodLabel(p core.DateRange) string {
	switch {
	case p.From != nil && p.To != nil:
		return p.From.Format("2006-01-02") + " to " + p.To.Format("2006-01-02")
	case p.From != nil:
		return "from " + p.From.Format("2006-01-02")
	case p.To != nil:
		return "up to " + p.To.Format("2006-01-02")
	}
	return "all time"
}

func printStockReport(w io.Writer, rep *core.StockReport) {
	fmt.Fprintln(w)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  %-68s\n", "STOCK REPORT")
	rule(w, "=", 72)
	if len(rep.Rows) == 0 {
		fmt.Fprintln(w, "  No stock movements recorded.")
		rule(w, "=", 72)
		return
	}
	fmt.Fprintf(w, "  %-30s %10s %12s %14s\n", "PRODUCT", "ON HAND", "COST", "VALUE")
	rule(w, "-", 72)
	for _, r := range rep.Rows {
		fmt.Fprintf(w, "  %-30s %10s %12s %14s\n",
			r.ProductName, r.OnHand.String(), r.PurchasePrice.StringFixed(2), r.StockValue.StringFixed(2))
	}
	rule(w, "-", 72)
	fmt.Fprintf(w, "  %-30s %10s %12s %14s\n", "TOTAL", rep.Summary.TotalQty.String(), "", rep.Summary.TotalValue.StringFixed(2))
	rule(w, "=", 72)
}

func printProfitAndLoss(w io.Writer, rep *core.ProfitAndLoss) {
	fmt.Fprintln(w)
	rule(w, "=", 62)
	fmt.Fprintf(w, "  PROFIT AND LOSS (%s)\n", periodLabel(rep.Period))
	rule(w, "=", 62)
	section := func(title string, rows []core.AccountAmount, total string) {
		fmt.Fprintf(w, "  %s\n", title)
		for _, a := range rows {
			fmt.Fprintf(w, "    %-40s %15s\n", a.AccountName, a.Amount.StringFixed(2))
		}
		fmt.Fprintf(w, "    %-40s %15s\n", "Total", total)
		rule(w, "-", 62)
	}
	section("INCOME", rep.Incomes, rep.IncomeTotal.StringFixed(2))
	section("EXPENSES", rep.Expenses, rep.ExpenseTotal.StringFixed(2))
	fmt.Fprintf(w, "  %-42s %15s\n", "NET PROFIT", rep.NetProfitByAccount.StringFixed(2))
	rule(w, "=", 62)
}

func printBalanceSheet(w io.Writer, rep *core.BalanceSheet) {
	fmt.Fprintln(w)
	rule(w, "=", 62)
	fmt.Fprintf(w, "  BALANCE SHEET (%s)\n", periodLabel(rep.Period))
	rule(w, "=", 62)
	row := func(label, amount string) {
		fmt.Fprintf(w, "    %-40s %15s\n", label, amount)
	}
	fmt.Fprintln(w, "  ASSETS")
	row("Bank", rep.Assets.Bank.StringFixed(2))
	row("Cash", rep.Assets.Cash.StringFixed(2))
	row("Debtors", rep.Assets.Debtors.StringFixed(2))
	row("Total", rep.Assets.Total.StringFixed(2))
	rule(w, "-", 62)
	fmt.Fprintln(w, "  LIABILITIES")
	row("Net profit", rep.Liabilities.NetProfit.StringFixed(2))
	row("Creditors", rep.Liabilities.Creditors.StringFixed(2))
	row("Total", rep.Liabilities.Total.StringFixed(2))
	rule(w, "-", 62)
	status := "BALANCED"
	if !rep.IsBalanced {
		status = "NOT BALANCED (difference " + rep.Check.StringFixed(2) + ")"
	}
	fmt.Fprintf(w, "  %s\n", status)
	rule(w, "=", 62)
}

func printDashboard(w io.Writer, d *core.Dashboard) {
	fmt.Fprintln(w)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  DASHBOARD (%s)\n", d.Period)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  Revenue        : %s\n", d.QuickStats.TotalRevenue.StringFixed(2))
	fmt.Fprintf(w, "  Growth         : %s%%\n", d.QuickStats.GrowthRate.StringFixed(2))
	fmt.Fprintf(w, "  Active clients : %d\n", d.QuickStats.ActiveClients)
	rule(w, "-", 72)
	fmt.Fprintf(w, "  %-8s %14s %14s\n", "MONTH", "SALES", "PURCHASES")
	for _, m := range d.ChartData {
		fmt.Fprintf(w, "  %-8s %14s %14s\n", m.Month, m.Sales.StringFixed(2), m.Purchases.StringFixed(2))
	}
	if len(d.RecentTransactions) > 0 {
		rule(w, "-", 72)
		fmt.Fprintf(w, "  %-12s %-8s %-30s %14s\n", "DATE", "TYPE", "DESCRIPTION", "AMOUNT")
		for _, t := range d.RecentTransactions {
			fmt.Fprintf(w, "  %-12s %-8s %-30s %14s\n",
				t.Date.Format("2006-01-02"), t.Type, t.Description, t.Amount.StringFixed(2))
		}
	}
	rule(w, "=", 72)
}

func printSeedResult(w io.Writer, res *app.SeedResult) {
	fmt.Fprintf(w, "%d of %d default accounts inserted\n", res.Inserted, res.Total)
	if res.DefaultIncome != nil {
		fmt.Fprintf(w, "  Invoice lines default to: %s (#%d)\n", res.DefaultIncome.AccountName, res.DefaultIncome.ID)
	}
	if res.DefaultExpense != nil {
		fmt.Fprintf(w, "  Bill lines default to:    %s (#%d)\n", res.DefaultExpense.AccountName, res.DefaultExpense.ID)
	}
}

func printHSN(w io.Writer, res *app.HSNResult) {
	r := res.Rate
	fmt.Fprintf(w, "HSN %s  %s (%s)\n", r.HSNCode, r.Description, r.Category)
	fmt.Fprintf(w, "  GST %s%%  = CGST %s%% + SGST %s%%  (IGST %s%%)\n",
		r.TotalGST.String(), r.CGST.String(), r.SGST.String(), r.IGST.String())
	if !r.Cess.IsZero() {
		fmt.Fprintf(w, "  Cess %s%%\n", r.Cess.String())
	}
	fmt.Fprintf(w, "  Source: %s\n", r.Source)
	for _, warn := range res.Validation.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warn)
	}
}

func printRates(w io.Writer, rates []core.GSTRate) {
	if len(rates) == 0 {
		fmt.Fprintln(w, "No matching codes.")
		return
	}
	fmt.Fprintf(w, "%-8s %6s  %-20s %s\n", "CODE", "GST%", "CATEGORY", "DESCRIPTION")
	for _, r := range rates {
		fmt.Fprintf(w, "%-8s %6s  %-20s %s\n", r.HSNCode, r.TotalGST.String(), r.Category, r.Description)
	}
}
