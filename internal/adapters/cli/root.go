// Package cli is the erp command line: server, migrations, seeding and
// read-only reports over the same ApplicationService the web adapter uses.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"shiv-erp/internal/app"
	"shiv-erp/internal/config"
	"shiv-erp/internal/core"
	"shiv-erp/internal/db"
	"shiv-erp/internal/logger"
)

var version = "0.1.0"

// NewRootCommand builds the erp command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "erp",
		Short: "Shiv ERP: orders, billing, GST and reports",
		Long: `erp runs the Shiv ERP HTTP API and offers maintenance and reporting
commands against the same database.

Configuration is read from the environment (optionally a .env file):
  DATABASE_URL       - PostgreSQL connection string
  SERVER_PORT        - HTTP port for serve (default 8080)
  ENRICHMENT_POLICY  - degrade (default) or strict
  BILL_DUE_DAYS      - default payment terms for bills and invoices (default 30)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "Print results as JSON")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(),
		newReportCommand(),
		newHSNCommand(),
		newCounterCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}
	return cfg, nil
}

// openPool loads config and connects to the database.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// withApp runs fn against an ApplicationService backed by the configured database.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, svc app.ApplicationService) error) error {
	ctx := cmd.Context()
	cfg, pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, app.New(pool, appOptions(cfg)))
}

func appOptions(cfg *config.Config) app.Options {
	return app.Options{
		Policy:      core.ParseEnrichmentPolicy(cfg.EnrichmentPolicy),
		BillDueDays: cfg.BillDueDays,
	}
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
