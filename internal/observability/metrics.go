// Package observability provides Prometheus metrics for reserve runs.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"policy-reserve-lab/internal/domain"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the Prometheus metrics of one batch process.
// Each instance owns its registry so runs and tests do not share state.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	SinkErrors    *prometheus.CounterVec

	// Input metrics
	PoliciesLoaded     prometheus.Gauge
	ImputedCells       *prometheus.GaugeVec
	NonPositivePremium prometheus.Gauge
	AggregateRows      *prometheus.GaugeVec

	// Reserve metrics
	OverallLossRatio     prometheus.Gauge
	RequiredReserves     *prometheus.GaugeVec
	ReserveAdequacy      *prometheus.GaugeVec
	PortfolioAdequacy    prometheus.Gauge
	InadequateCategories prometheus.Gauge
	StressAdequacy       *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "policy_reserve"
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of reserve runs by status",
		}, []string{"status"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "sink_errors_total",
			Help:      "Total number of export sink failures",
		}, []string{"sink"}),

		PoliciesLoaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "policies_loaded",
			Help:      "Number of policies in the last run",
		}),
		ImputedCells: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "imputed_cells",
			Help:      "Number of imputed cells by column in the last run",
		}, []string{"column"}),
		NonPositivePremium: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "non_positive_premium_policies",
			Help:      "Number of policies with zero or missing premium",
		}),
		AggregateRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "aggregates",
			Name:      "rows",
			Help:      "Number of aggregate rows by dimension",
		}, []string{"dimension"}),

		OverallLossRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reserves",
			Name:      "overall_loss_ratio",
			Help:      "Portfolio loss ratio of the last run",
		}),
		RequiredReserves: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reserves",
			Name:      "required",
			Help:      "Required reserves by risk category",
		}, []string{"category"}),
		ReserveAdequacy: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reserves",
			Name:      "adequacy",
			Help:      "Reserve adequacy (required minus exposure) by risk category",
		}, []string{"category"}),
		PortfolioAdequacy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reserves",
			Name:      "portfolio_adequacy",
			Help:      "Overall portfolio reserve adequacy",
		}),
		InadequateCategories: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reserves",
			Name:      "inadequate_categories",
			Help:      "Number of risk categories with negative adequacy",
		}),
		StressAdequacy: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stress",
			Name:      "capital_adequacy",
			Help:      "Capital adequacy by stress scenario",
		}, []string{"scenario"}),

		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful reserve run",
		}),
	}
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(status string, finishedAt time.Time) {
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.LastSuccessfulRun.Set(float64(finishedAt.Unix()))
	}
}

// RecordSinkError counts a failed export.
func (m *Metrics) RecordSinkError(sink string) {
	m.SinkErrors.WithLabelValues(sink).Inc()
}

// RecordLoad records input size and imputation counts.
func (m *Metrics) RecordLoad(stats *domain.LoadStats) {
	if stats == nil {
		return
	}
	m.PoliciesLoaded.Set(float64(stats.Rows))
	m.NonPositivePremium.Set(float64(stats.NonPositivePremium))
	for col, n := range stats.Imputed {
		m.ImputedCells.WithLabelValues(col).Set(float64(n))
	}
}

// RecordAggregates records the row count of each dimension table.
func (m *Metrics) RecordAggregates(tables []domain.AggregateTable) {
	for i := range tables {
		m.AggregateRows.WithLabelValues(tables[i].Dimension).Set(float64(len(tables[i].Rows)))
	}
}

// RecordReserves records per-category requirements and the portfolio roll-up.
func (m *Metrics) RecordReserves(reqs []domain.ReserveRequirement, capital domain.CapitalAdequacy, lossRatio float64) {
	inadequate := 0
	for _, r := range reqs {
		m.RequiredReserves.WithLabelValues(string(r.Category)).Set(r.TotalRequired)
		m.ReserveAdequacy.WithLabelValues(string(r.Category)).Set(r.Adequacy)
		if r.Adequacy < 0 {
			inadequate++
		}
	}
	m.InadequateCategories.Set(float64(inadequate))
	m.PortfolioAdequacy.Set(capital.OverallAdequacy)
	m.OverallLossRatio.Set(lossRatio)
}

// RecordStress records the capital adequacy of each scenario.
func (m *Metrics) RecordStress(results []domain.StressResult) {
	for _, r := range results {
		m.StressAdequacy.WithLabelValues(r.Scenario.Name).Set(r.CapitalAdequacy)
	}
}

// Push sends all metrics to a Prometheus Pushgateway under job,
// grouped by run id.
func (m *Metrics) Push(ctx context.Context, url, job, runID string) error {
	p := push.New(url, job).Gatherer(m.registry)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
