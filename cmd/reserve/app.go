package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"policy-reserve-lab/internal/config"
	"policy-reserve-lab/internal/ingest"
	"policy-reserve-lab/internal/pipeline"
	"policy-reserve-lab/internal/storage"
	"policy-reserve-lab/internal/storage/postgres"
)

// sourceFlags are shared by the commands that load a portfolio.
type sourceFlags struct {
	source string
	input  string
	asOf   string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "Policy source: csv, postgres, fixtures")
	cmd.Flags().StringVar(&f.input, "input", "", "CSV file path (implies --source csv)")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "Valuation date YYYY-MM-DD (default: today)")
}

func (f *sourceFlags) apply(cfg *config.Config) {
	if f.input != "" {
		cfg.Input.Source = config.SourceCSV
		cfg.Input.Path = f.input
	}
	if f.source != "" {
		cfg.Input.Source = f.source
	}
	if f.asOf != "" {
		cfg.Run.AsOf = f.asOf
	}
}

// loadConfig layers the .env file, the YAML config, the environment and
// then the command's flags, and validates the result.
func loadConfig(apply func(*config.Config)) (config.Config, *slog.Logger, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if apply != nil {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, cfg.Log.NewLogger(os.Stderr), nil
}

// openSource returns the configured policy source and a cleanup func.
func openSource(ctx context.Context, cfg config.Config) (storage.PolicySource, func(), error) {
	switch cfg.Input.Source {
	case config.SourceCSV:
		return ingest.NewCSVSource(cfg.Input.Path), func() {}, nil
	case config.SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		src := postgres.NewPolicyStore(pool).WithFilter(postgres.PolicyFilter{
			PolicyTypes: cfg.Input.PolicyTypes,
			Locations:   cfg.Input.Locations,
		})
		return src, pool.Close, nil
	case config.SourceFixtures:
		return pipeline.NewFixtureSource(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Input.Source)
	}
}

// newPipeline builds a pipeline with the run settings from cfg.
func newPipeline(cfg config.Config, source storage.PolicySource, logger *slog.Logger) (*pipeline.Pipeline, error) {
	asOf, err := cfg.Run.AsOfTime()
	if err != nil {
		return nil, err
	}
	dims, err := cfg.Run.DimensionList()
	if err != nil {
		return nil, err
	}
	return pipeline.New(source, cfg.Output.Dir).
		WithAsOf(asOf).
		WithDimensions(dims).
		WithScenarios(cfg.Run.StressScenarios()).
		WithQualityChecker(pipeline.NewQualityChecker().
			WithThresholds(cfg.Run.MaxImputedShare, cfg.Run.MaxUnknownStartShare)).
		WithLogger(logger), nil
}
