package cli

import (
	"context"

	"github.com/spf13/cobra"

	"shiv-erp/internal/app"
	"shiv-erp/internal/core"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print stock, profit and loss, balance sheet or dashboard reports",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stock",
			Short: "Quantity on hand and stock value per product",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
					rep, err := svc.StockReport(ctx)
					if err != nil {
						return err
					}
					if wantJSON(cmd) {
						return printJSON(cmd.OutOrStdout(), rep)
					}
					printStockReport(cmd.OutOrStdout(), rep)
					return nil
				})
			},
		},
		withDateFlags(&cobra.Command{
			Use:     "pl",
			Aliases: []string{"profit-loss"},
			Short:   "Income and expense per account",
			Example: `  erp report pl --month 2025-06
  erp report pl --from 2025-04-01 --to 2026-03-31`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				q := dateQueryFromFlags(cmd)
				return withApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
					rep, err := svc.ProfitAndLoss(ctx, q)
					if err != nil {
						return err
					}
					if wantJSON(cmd) {
						return printJSON(cmd.OutOrStdout(), rep)
					}
					printProfitAndLoss(cmd.OutOrStdout(), rep)
					return nil
				})
			},
		}),
		withDateFlags(&cobra.Command{
			Use:     "bs",
			Aliases: []string{"balance-sheet"},
			Short:   "Bank, cash, debtors and creditors",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				q := dateQueryFromFlags(cmd)
				return withApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
					rep, err := svc.BalanceSheet(ctx, q)
					if err != nil {
						return err
					}
					if wantJSON(cmd) {
						return printJSON(cmd.OutOrStdout(), rep)
					}
					printBalanceSheet(cmd.OutOrStdout(), rep)
					return nil
				})
			},
		}),
		newDashboardCommand(),
	)
	return cmd
}

func newDashboardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Revenue, growth and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, _ := cmd.Flags().GetString("period")
			return withApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				rep, err := svc.Dashboard(ctx, period)
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return printJSON(cmd.OutOrStdout(), rep)
				}
				printDashboard(cmd.OutOrStdout(), rep)
				return nil
			})
		},
	}
	cmd.Flags().String("period", core.DefaultDashboardPeriod, "Window: 7d, 30d, 90d or 1y")
	return cmd
}

func withDateFlags(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().String("date", "", "Single day (YYYY-MM-DD)")
	cmd.Flags().String("month", "", "Calendar month (YYYY-MM)")
	cmd.Flags().String("year", "", "Calendar year (YYYY)")
	return cmd
}

func dateQueryFromFlags(cmd *cobra.Command) core.DateQuery {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return core.DateQuery{
		From:  get("from"),
		To:    get("to"),
		Date:  get("date"),
		Month: get("month"),
		Year:  get("year"),
	}
}
