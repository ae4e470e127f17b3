package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shiv-erp/internal/app"
)

// offline is the facade without a database; HSN lookups only read the
// built-in rate tables.
func offline() app.ApplicationService {
	return app.NewAppService(app.Services{})
}

func newHSNCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hsn",
		Short: "Look up GST rates by HSN/SAC code",
	}

	rate := &cobra.Command{
		Use:     "rate <code>",
		Short:   "Show the GST rate for an HSN or SAC code",
		Example: "  erp hsn rate 9403",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := offline().LookupHSN(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printHSN(cmd.OutOrStdout(), res)
			return nil
		},
	}

	search := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search the HSN/SAC tables by code prefix or description",
		Example: "  erp hsn search furniture\n  erp hsn search --services consult",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, _ := cmd.Flags().GetBool("services")
			limit, _ := cmd.Flags().GetInt("limit")
			rates, err := offline().SearchHSN(cmd.Context(), args[0], services, limit)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), rates)
			}
			printRates(cmd.OutOrStdout(), rates)
			return nil
		},
	}
	search.Flags().Bool("services", false, "Search SAC (services) codes instead of goods")
	search.Flags().Int("limit", 10, "Maximum results")

	cmd.AddCommand(rate, search)
	return cmd
}

func newCounterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Inspect document numbering counters",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "peek <key>",
		Short:   "Show the last number handed out for a series without allocating",
		Example: "  erp counter peek po\n  erp counter peek vb-2025",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.PeekCounter(ctx, args[0])
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %d\n", res.Key, res.Value)
				return nil
			})
		},
	})
	return cmd
}
