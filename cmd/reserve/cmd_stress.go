package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/money"
)

var (
	stressSource sourceFlags

	stressCmd = &cobra.Command{
		Use:   "stress",
		Short: "Run the stress scenarios and print the results",
		Long: `Loads the portfolio and applies each stress scenario to the portfolio
totals. Nothing is written to the output directory.

Stressed required reserves use the premium-based method only.`,
		RunE: runStress,
	}
)

func init() {
	stressSource.register(stressCmd)
}

func runStress(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(stressSource.apply)
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
	totals, results, err := p.Stress(ctx)
	if err != nil {
		return err
	}

	printStress(os.Stdout, totals, results)
	return nil
}

func printStress(w io.Writer, totals domain.PortfolioTotals, results []domain.StressResult) {
	fmt.Fprintf(w, "Portfolio: %d policies, premiums %s, claims %s, avg loss ratio %.4f\n\n",
		totals.TotalPolicies, money.Format(totals.TotalPremiums), money.Format(totals.TotalClaims), totals.AvgLossRatio)
	fmt.Fprintf(w, "%-20s %16s %16s %12s %16s %16s %16s  %s\n",
		"Scenario", "Premiums", "Claims", "Loss Ratio", "Required", "Exposure", "Adequacy", "Status")
	for _, r := range results {
		fmt.Fprintf(w, "%-20s %16s %16s %12s %16s %16s %16s  %s\n",
			r.Scenario.Name,
			money.Format(r.StressedPremiums),
			money.Format(r.StressedClaims),
			r.StressedLossRatio,
			money.Format(r.RequiredReserves),
			money.Format(r.ActualExposure),
			money.Format(r.CapitalAdequacy),
			r.Status)
	}
}
