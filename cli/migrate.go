package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront/config"
	"storefront/database"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Seed   bool
	SQLite string
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		Long: `Create any missing tables in the configured MySQL database.

With --sqlite the schema is applied to that SQLite file instead. With
--seed the sample catalog is inserted when the products table is empty.

Example:
  storefront migrate --seed
  storefront migrate --sqlite ./database.sqlite`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "insert sample products into an empty catalog")
	cmd.Flags().StringVar(&opts.SQLite, "sqlite", "", "apply to this SQLite file instead of MySQL")

	return cmd
}

func runMigrate(cmd *cobra.Command, opts *MigrateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load(opts.EnvFile)

	store, err := openForMigrate(ctx, cfg, opts.SQLite)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ApplySchema(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema applied (%s)\n", store.Driver())

	if opts.Seed {
		n, err := store.SeedSampleProducts(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d sample products\n", n)
	}
	return nil
}

func openForMigrate(ctx context.Context, cfg *config.Config, sqlitePath string) (*database.SQLStore, error) {
	if sqlitePath != "" {
		return database.OpenSQLite(ctx, sqlitePath)
	}
	return database.OpenMySQL(ctx, cfg)
}
