package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"shiv-erp/internal/app"
	"shiv-erp/internal/db"
	"shiv-erp/internal/logger"
	"shiv-erp/migrations"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending SQL migrations in order. Each file runs in its own
transaction and is recorded in schema_migrations with its sha256 checksum.
An applied file whose checksum changed aborts the run.`,
		Example: `  # Use the migrations built into the binary
  erp migrate

  # Use migrations from a directory
  erp migrate --dir ./migrations`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
	cmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}

	ctx := cmd.Context()
	_, pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool, fsys, logger.WithComponent("migrate"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", len(applied))
	return nil
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the default chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.SeedDefaultAccounts(ctx)
				if err != nil {
					return err
				}
				if wantJSON(cmd) {
					return printJSON(cmd.OutOrStdout(), res)
				}
				printSeedResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}
