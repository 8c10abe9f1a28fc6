package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"policy-reserve-lab/internal/config"
	"policy-reserve-lab/internal/idhash"
	"policy-reserve-lab/internal/ingest"
	"policy-reserve-lab/internal/storage/migrations"
	"policy-reserve-lab/internal/storage/postgres"
)

var (
	importMigrate bool

	importCmd = &cobra.Command{
		Use:   "import <policies.csv>",
		Short: "Load a policy CSV into the Postgres policies table",
		Long: `Reads and imputes a policy CSV and inserts every row into Postgres so later
runs can use --source postgres. Rows without a policy id get a stable id
derived from their contents. Re-importing an existing id fails.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
)

func init() {
	importCmd.Flags().BoolVar(&importMigrate, "migrate", false, "Apply Postgres migrations before importing")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(nil)
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("%w: postgres dsn is required for import", config.ErrInvalidConfig)
	}

	records, stats, err := ingest.NewCSVSource(args[0]).Load(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].PolicyID == "" {
			records[i].PolicyID = idhash.ComputePolicyID(&records[i])
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if importMigrate {
		if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
	}

	if err := postgres.NewPolicyStore(pool).InsertBulk(ctx, records); err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	logger.Info("policies imported", "path", args[0], "rows", len(records), "imputed_cells", stats.TotalImputed())
	return nil
}
