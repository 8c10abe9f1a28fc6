// Package main is the reserve batch CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "reserve",
		Short: "Risk scoring, reserve requirements and stress testing for an insurance portfolio",
		Long: `reserve loads a policy portfolio, scores each policy's risk, aggregates
premiums and claims by segment, computes reserve requirements per risk
category and runs the stress scenarios. Results are written as a markdown
report plus CSV tables and optionally exported to Postgres, ClickHouse and
S3-compatible storage.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config (default reserve.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "KEY=VALUE file loaded before the environment overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd, stressCmd, scoreCmd, migrateCmd, importCmd)
}

func main() {
	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
