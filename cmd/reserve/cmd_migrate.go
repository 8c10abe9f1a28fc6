package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"policy-reserve-lab/internal/config"
	"policy-reserve-lab/internal/storage/migrations"
	"policy-reserve-lab/internal/storage/postgres"
)

var (
	migratePostgres   bool
	migrateClickHouse bool

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres and ClickHouse schema migrations",
		Long: `Applies the embedded migrations to every store with a configured DSN.
Use --postgres or --clickhouse to limit the run to one store.`,
		RunE: runMigrate,
	}
)

func init() {
	migrateCmd.Flags().BoolVar(&migratePostgres, "postgres", false, "Migrate Postgres only")
	migrateCmd.Flags().BoolVar(&migrateClickHouse, "clickhouse", false, "Migrate ClickHouse only")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(nil)
	if err != nil {
		return err
	}

	both := !migratePostgres && !migrateClickHouse
	ran := 0

	if (both || migratePostgres) && cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Info("migrations applied", "store", "postgres", "versions", applied)
		ran++
	}

	if (both || migrateClickHouse) && cfg.ClickHouse.DSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		if err := conn.Close(); err != nil {
			logger.Warn("close clickhouse", "error", err)
		}
		logger.Info("migrations applied", "store", "clickhouse")
		ran++
	}

	if ran == 0 {
		return fmt.Errorf("%w: no DSN configured for the selected stores (set %s or %s)",
			config.ErrInvalidConfig, config.EnvPostgresDSN, config.EnvClickHouseDSN)
	}
	return nil
}
