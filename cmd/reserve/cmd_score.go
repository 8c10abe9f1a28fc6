package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"policy-reserve-lab/internal/reporting"
)

var (
	scoreSource sourceFlags
	scoreOutput string

	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "Score every policy and write the enriched table as CSV",
		Long: `Loads the portfolio, imputes missing values and adds the derived columns
(risk score and category, loss ratio, age and income groups, claims
amount, start year and month). Writes to stdout unless --out is given.`,
		RunE: runScore,
	}
)

func init() {
	scoreSource.register(scoreCmd)
	scoreCmd.Flags().StringVarP(&scoreOutput, "out", "o", "", "Output CSV file (default stdout)")
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(scoreSource.apply)
	if err != nil {
		return err
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
	policies, err := p.Score(ctx)
	if err != nil {
		return err
	}

	data, err := reporting.RenderEnrichedPoliciesCSV(policies)
	if err != nil {
		return fmt.Errorf("render enriched policies: %w", err)
	}

	if scoreOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(scoreOutput, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", scoreOutput, err)
	}
	logger.Info("enriched policies written", "path", scoreOutput, "rows", len(policies))
	return nil
}
