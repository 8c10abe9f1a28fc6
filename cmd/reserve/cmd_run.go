package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"policy-reserve-lab/internal/config"
	"policy-reserve-lab/internal/money"
	"policy-reserve-lab/internal/observability"
	"policy-reserve-lab/internal/pipeline"
	chstore "policy-reserve-lab/internal/storage/clickhouse"
	"policy-reserve-lab/internal/storage/objectstore"
	"policy-reserve-lab/internal/storage/postgres"
)

var (
	runSource    sourceFlags
	runOutputDir string
	runID        string

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the full batch and write the report",
		Long: `Loads the portfolio, scores and aggregates it, computes reserves and stress
results, writes REPORT.md and the CSV tables to the output directory and
exports to every configured sink.

Examples:
  reserve run --input data/policies.csv --output-dir output
  reserve run --config reserve.yaml --as-of 2024-12-31`,
		RunE: runBatch,
	}
)

func init() {
	runSource.register(runCmd)
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "Directory for the report and CSV files")
	runCmd.Flags().StringVar(&runID, "run-id", "", "Run id (default: random UUID)")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(func(c *config.Config) {
		runSource.apply(c)
		if runOutputDir != "" {
			c.Output.Dir = runOutputDir
		}
	})
	if err != nil {
		return err
	}

	id := runID
	if id == "" {
		id = uuid.NewString()
	}

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	p, err := newPipeline(cfg, source, logger)
	if err != nil {
		return err
	}
	m := observability.NewMetrics(cfg.Metrics.Namespace)
	p.WithRunID(id).WithMetrics(m)

	closeSinks, err := attachSinks(ctx, cfg, p, id, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	res, runErr := p.Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		if err := m.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, id); err != nil {
			logger.Error("metrics push failed", "error", err)
		}
	}

	if res != nil {
		fmt.Printf("Run %s: %d policies, data version %s\n", res.Run.RunID, res.Run.PolicyCount, res.Run.DataVersion)
		fmt.Printf("  Required reserves: %s\n", money.Format(res.Capital.TotalRequired))
		fmt.Printf("  Capital adequacy:  %s\n", money.Format(res.Capital.OverallAdequacy))
		fmt.Printf("  Files written to %s: %d\n", cfg.Output.Dir, len(res.Files))
	}
	if runErr != nil {
		if errors.Is(runErr, pipeline.ErrSinkFailed) {
			logger.Warn("output files were written but at least one sink failed")
		}
		return runErr
	}
	return nil
}

// attachSinks connects every sink enabled in cfg and returns a func that
// closes them.
func attachSinks(ctx context.Context, cfg config.Config, p *pipeline.Pipeline, runID string, logger *slog.Logger) (func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Postgres.Export {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("postgres sink: %w", err)
		}
		closers = append(closers, pool.Close)
		p.WithReserveStore(postgres.NewReserveStore(pool))
		logger.Info("sink attached", "sink", "postgres")
	}

	if cfg.ClickHouse.Export {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.ClickHouse.Database != "" {
			conn, err = chstore.NewConnWithDatabase(ctx, cfg.ClickHouse.DSN, cfg.ClickHouse.Database)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		}
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("clickhouse sink: %w", err)
		}
		closers = append(closers, func() {
			if err := conn.Close(); err != nil {
				logger.Warn("close clickhouse", "error", err)
			}
		})
		p.WithAggregateStore(chstore.NewAggregateStore(conn))
		logger.Info("sink attached", "sink", "clickhouse")
	}

	if cfg.S3.Enabled {
		store, err := objectstore.New(ctx, objectstore.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Secure:    cfg.S3.Secure,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("s3 sink: %w", err)
		}
		p.WithArtifactStore(store.WithPrefix(path.Join(cfg.S3.Prefix, runID)))
		logger.Info("sink attached", "sink", "s3", "bucket", cfg.S3.Bucket)
	}

	return closeAll, nil
}
