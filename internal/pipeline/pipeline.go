// Package pipeline runs a reserve batch: load, enrich, aggregate, reserve,
// stress, then write the report files and export to the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/idhash"
	"policy-reserve-lab/internal/metrics"
	"policy-reserve-lab/internal/observability"
	"policy-reserve-lab/internal/reporting"
	"policy-reserve-lab/internal/reserve"
	"policy-reserve-lab/internal/risk"
	"policy-reserve-lab/internal/storage"
	"policy-reserve-lab/internal/stress"
)

var (
	// ErrEmptyPortfolio is returned when the source has no policies.
	ErrEmptyPortfolio = errors.New("empty portfolio")

	// ErrSinkFailed wraps export failures. Output files are already written.
	ErrSinkFailed = errors.New("sink export failed")
)

// Output file names.
const (
	FileReport           = "REPORT.md"
	FileEnrichedPolicies = "enriched_policies.csv"
	FileReserves         = "reserve_analysis.csv"
	FileCapital          = "capital_adequacy_ratios.csv"
	FileRecommendations  = "reserve_recommendations.csv"
	FileStress           = "stress_test_results.csv"
	FileKPIs             = "kpi_metrics.csv"
	FileRiskDistribution = "risk_distribution.csv"
)

// Content types of output files.
const (
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeCSV      = "text/csv; charset=utf-8"
)

// Stage names used in logs and metrics.
const (
	StageLoad      = "load"
	StageVersion   = "version"
	StageEnrich    = "enrich"
	StageQuality   = "quality"
	StageAggregate = "aggregate"
	StageReserves  = "reserves"
	StageStress    = "stress"
	StageKPIs      = "kpis"
)

// runIDNamespace seeds run ids derived from data version and clock.
var runIDNamespace = uuid.MustParse("6f1c2d0a-8a55-4a8e-9f1e-3b5c7d9e2a41")

// AggregateFileName returns the CSV file name of a dimension table.
func AggregateFileName(dimension string) string {
	return "aggregates_" + dimension + ".csv"
}

// Result holds everything a run computed.
type Result struct {
	Run             domain.RunInfo
	Policies        []domain.EnrichedPolicy
	LoadStats       *domain.LoadStats
	Quality         *QualityResult
	Aggregates      []domain.AggregateTable
	Reserves        []domain.ReserveRequirement
	Capital         domain.CapitalAdequacy
	Recommendations []domain.Recommendation
	Totals          domain.PortfolioTotals
	Stress          []domain.StressResult
	KPIs            []domain.KPI
	Distribution    []domain.RiskDistributionRow

	// Files lists written output file names, sorted. Empty after Compute.
	Files []string
}

// Pipeline orchestrates one reserve batch.
type Pipeline struct {
	source     storage.PolicySource
	outputDir  string
	clock      func() time.Time
	asOf       time.Time // zero means clock()
	dimensions []metrics.Dimension
	scenarios  []domain.StressScenario
	runID      string // empty means derived

	quality   *QualityChecker
	engine    *reserve.Engine
	advisor   *reserve.Advisor
	reportGen *reporting.Generator

	logger  *slog.Logger
	metrics *observability.Metrics

	// Optional sinks
	aggStore     storage.AggregateStore
	reserveStore storage.ReserveStore
	artifacts    storage.ArtifactStore
}

// New creates a pipeline reading from source and writing to outputDir.
func New(source storage.PolicySource, outputDir string) *Pipeline {
	clock := func() time.Time { return time.Now().UTC() }
	return &Pipeline{
		source:     source,
		outputDir:  outputDir,
		clock:      clock,
		dimensions: metrics.StandardDimensions(),
		scenarios:  domain.DefaultStressScenarios(),
		quality:    NewQualityChecker(),
		engine:     reserve.NewEngine(),
		advisor:    reserve.NewAdvisor(),
		reportGen:  reporting.NewGenerator().WithClock(clock),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithAsOf sets the valuation date used for policy durations.
func (p *Pipeline) WithAsOf(asOf time.Time) *Pipeline {
	p.asOf = asOf
	return p
}

// WithDimensions replaces the named dimensions to aggregate and export.
func (p *Pipeline) WithDimensions(dims []metrics.Dimension) *Pipeline {
	p.dimensions = dims
	return p
}

// WithScenarios replaces the stress scenario catalog.
func (p *Pipeline) WithScenarios(scenarios []domain.StressScenario) *Pipeline {
	p.scenarios = scenarios
	return p
}

// WithRunID fixes the run id. Must be a UUID when a Postgres sink is used.
func (p *Pipeline) WithRunID(runID string) *Pipeline {
	p.runID = runID
	return p
}

// WithQualityChecker replaces the data quality checker.
func (p *Pipeline) WithQualityChecker(c *QualityChecker) *Pipeline {
	p.quality = c
	return p
}

// WithLogger sets the structured logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// WithMetrics enables Prometheus metrics recording.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// WithAggregateStore exports every dimension table after the files are written.
func (p *Pipeline) WithAggregateStore(s storage.AggregateStore) *Pipeline {
	p.aggStore = s
	return p
}

// WithReserveStore exports the run, reserves and stress results.
func (p *Pipeline) WithReserveStore(s storage.ReserveStore) *Pipeline {
	p.reserveStore = s
	return p
}

// WithArtifactStore uploads every output file.
func (p *Pipeline) WithArtifactStore(s storage.ArtifactStore) *Pipeline {
	p.artifacts = s
	return p
}

// Score loads and enriches the portfolio without aggregating it.
func (p *Pipeline) Score(ctx context.Context) ([]domain.EnrichedPolicy, error) {
	res := &Result{}
	if err := p.load(ctx, res); err != nil {
		return nil, err
	}
	if err := p.enrich(res); err != nil {
		return nil, err
	}
	return res.Policies, nil
}

// Stress loads the portfolio and runs only the stress scenarios.
func (p *Pipeline) Stress(ctx context.Context) (domain.PortfolioTotals, []domain.StressResult, error) {
	res := &Result{}
	if err := p.load(ctx, res); err != nil {
		return domain.PortfolioTotals{}, nil, err
	}
	if err := p.enrich(res); err != nil {
		return domain.PortfolioTotals{}, nil, err
	}
	if err := p.stress(res); err != nil {
		return domain.PortfolioTotals{}, nil, err
	}
	return res.Totals, res.Stress, nil
}

// Compute runs every stage in order. Any error aborts the batch.
func (p *Pipeline) Compute(ctx context.Context) (*Result, error) {
	res := &Result{}

	if err := p.load(ctx, res); err != nil {
		return nil, err
	}

	if err := p.stage(StageVersion, func() error {
		generatedAt := p.clock()
		asOf := p.asOf
		if asOf.IsZero() {
			asOf = generatedAt
		}
		version := idhash.ComputeDataVersion(recordsOf(res.Policies))
		runID := p.runID
		if runID == "" {
			runID = uuid.NewSHA1(runIDNamespace, []byte(version+"|"+generatedAt.Format(time.RFC3339Nano))).String()
		}
		res.Run = domain.RunInfo{
			RunID:       runID,
			DataVersion: version,
			Source:      p.source.Name(),
			AsOf:        asOf,
			PolicyCount: len(res.Policies),
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.enrich(res); err != nil {
		return nil, err
	}

	if err := p.stage(StageQuality, func() error {
		res.Quality = p.quality.Check(res.Policies, res.LoadStats)
		for _, w := range res.Quality.Warnings {
			p.logger.Warn("data quality", "warning", w)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.stage(StageAggregate, func() error {
		res.Aggregates = metrics.AggregateAll(res.Policies, p.dimensions)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.stage(StageReserves, func() error {
		dim, ok := metrics.DimensionByName(metrics.DimRiskCategory)
		if !ok {
			return fmt.Errorf("dimension %s not defined", metrics.DimRiskCategory)
		}
		byCategory := metrics.GroupBy(res.Policies, dim)
		reqs, err := p.engine.Compute(byCategory.Rows)
		if err != nil {
			return err
		}
		res.Reserves = reqs
		res.Capital = reserve.CapitalAdequacy(reqs)
		res.Recommendations = p.advisor.Evaluate(reqs)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.stress(res); err != nil {
		return nil, err
	}

	if err := p.stage(StageKPIs, func() error {
		res.KPIs = metrics.ComputeKPIs(res.Policies)
		res.Distribution = metrics.RiskDistribution(res.Policies)
		return nil
	}); err != nil {
		return nil, err
	}

	return res, nil
}

// Run computes, writes every output file, then exports to the configured
// sinks. Sink failures do not remove written files; they are joined and
// returned wrapped in ErrSinkFailed together with the result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res, err := p.Compute(ctx)
	if err != nil {
		p.recordRun(observability.StatusFailure)
		return nil, err
	}

	files, err := p.render(res)
	if err != nil {
		p.recordRun(observability.StatusFailure)
		return nil, fmt.Errorf("render: %w", err)
	}

	if err := p.writeFiles(files); err != nil {
		p.recordRun(observability.StatusFailure)
		return nil, err
	}
	for _, f := range files {
		res.Files = append(res.Files, f.name)
	}
	p.logger.Info("output written", "dir", p.outputDir, "files", len(files), "run_id", res.Run.RunID)

	p.recordResult(res)

	if err := p.export(ctx, res, files); err != nil {
		p.recordRun(observability.StatusFailure)
		return res, fmt.Errorf("%w: %w", ErrSinkFailed, err)
	}

	p.recordRun(observability.StatusSuccess)
	return res, nil
}

func (p *Pipeline) load(ctx context.Context, res *Result) error {
	return p.stage(StageLoad, func() error {
		records, stats, err := p.source.Load(ctx)
		if err != nil {
			return fmt.Errorf("load %s: %w", p.source.Name(), err)
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyPortfolio, p.source.Name())
		}
		res.LoadStats = stats
		// Wrapped until enrichment replaces them.
		res.Policies = make([]domain.EnrichedPolicy, len(records))
		for i := range records {
			res.Policies[i].PolicyRecord = records[i]
		}
		p.logger.Info("policies loaded", "source", p.source.Name(), "rows", len(records),
			"imputed_cells", stats.TotalImputed())
		return nil
	})
}

func (p *Pipeline) enrich(res *Result) error {
	return p.stage(StageEnrich, func() error {
		asOf := res.Run.AsOf
		if asOf.IsZero() {
			asOf = p.asOf
		}
		if asOf.IsZero() {
			asOf = p.clock()
		}
		res.Policies = risk.NewEnricher(asOf).EnrichAll(recordsOf(res.Policies))
		return nil
	})
}

func (p *Pipeline) stress(res *Result) error {
	return p.stage(StageStress, func() error {
		res.Totals = metrics.Totals(res.Policies)
		res.Stress = stress.NewTester().WithScenarios(p.scenarios).Run(res.Totals)
		return nil
	})
}

// stage times fn and records the duration.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.ObserveStage(name, elapsed)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Debug("stage complete", "stage", name, "duration", elapsed)
	return nil
}

// artifact is one rendered output file.
type artifact struct {
	name        string
	data        []byte
	contentType string
}

// render produces every output file, sorted by name.
func (p *Pipeline) render(res *Result) ([]artifact, error) {
	report := p.reportGen.Generate(reporting.Input{
		Run:             res.Run,
		Policies:        res.Policies,
		LoadStats:       res.LoadStats,
		DataQuality:     toDataQuality(res.Quality),
		KPIs:            res.KPIs,
		Distribution:    res.Distribution,
		Aggregates:      res.Aggregates,
		Reserves:        res.Reserves,
		Capital:         res.Capital,
		Recommendations: res.Recommendations,
		Stress:          res.Stress,
	})

	files := []artifact{{FileReport, []byte(reporting.RenderMarkdown(report)), contentTypeMarkdown}}

	renderers := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{FileEnrichedPolicies, func() ([]byte, error) { return reporting.RenderEnrichedPoliciesCSV(res.Policies) }},
		{FileReserves, func() ([]byte, error) { return reporting.RenderReservesCSV(res.Reserves) }},
		{FileCapital, func() ([]byte, error) { return reporting.RenderCapitalCSV(res.Capital) }},
		{FileRecommendations, func() ([]byte, error) { return reporting.RenderRecommendationsCSV(res.Recommendations) }},
		{FileStress, func() ([]byte, error) { return reporting.RenderStressCSV(res.Stress) }},
		{FileKPIs, func() ([]byte, error) { return reporting.RenderKPICSV(res.KPIs) }},
		{FileRiskDistribution, func() ([]byte, error) { return reporting.RenderRiskDistributionCSV(res.Distribution) }},
	}
	for i := range res.Aggregates {
		t := &res.Aggregates[i]
		renderers = append(renderers, struct {
			name   string
			render func() ([]byte, error)
		}{AggregateFileName(t.Dimension), func() ([]byte, error) { return reporting.RenderAggregateCSV(t) }})
	}

	for _, r := range renderers {
		data, err := r.render()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.name, err)
		}
		files = append(files, artifact{r.name, data, contentTypeCSV})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

func (p *Pipeline) writeFiles(files []artifact) error {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(p.outputDir, f.name), f.data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

// export writes to every configured sink. A failing sink does not stop the others.
func (p *Pipeline) export(ctx context.Context, res *Result, files []artifact) error {
	var errs []error
	fail := func(sink string, err error) {
		p.logger.Error("sink export failed", "sink", sink, "run_id", res.Run.RunID, "error", err)
		if p.metrics != nil {
			p.metrics.RecordSinkError(sink)
		}
		errs = append(errs, fmt.Errorf("%s: %w", sink, err))
	}

	if p.reserveStore != nil {
		if err := p.exportReserves(ctx, res); err != nil {
			fail("reserves", err)
		}
	} else {
		p.logger.Debug("sink not configured", "sink", "reserves")
	}

	if p.aggStore != nil {
		for i := range res.Aggregates {
			if err := p.aggStore.InsertBulk(ctx, res.Run.RunID, res.Aggregates[i]); err != nil {
				fail("aggregates", fmt.Errorf("%s: %w", res.Aggregates[i].Dimension, err))
				break
			}
		}
	} else {
		p.logger.Debug("sink not configured", "sink", "aggregates")
	}

	if p.artifacts != nil {
		for _, f := range files {
			if err := p.artifacts.Put(ctx, f.name, f.data, f.contentType); err != nil {
				fail("artifacts", err)
				break
			}
		}
	} else {
		p.logger.Debug("sink not configured", "sink", "artifacts")
	}

	return errors.Join(errs...)
}

func (p *Pipeline) exportReserves(ctx context.Context, res *Result) error {
	run := res.Run
	if err := p.reserveStore.InsertRun(ctx, &run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if err := p.reserveStore.InsertReserves(ctx, run.RunID, res.Reserves); err != nil {
		return fmt.Errorf("insert reserves: %w", err)
	}
	if err := p.reserveStore.InsertStressResults(ctx, run.RunID, res.Stress); err != nil {
		return fmt.Errorf("insert stress results: %w", err)
	}
	return nil
}

func (p *Pipeline) recordResult(res *Result) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordLoad(res.LoadStats)
	p.metrics.RecordAggregates(res.Aggregates)
	p.metrics.RecordReserves(res.Reserves, res.Capital, metrics.OverallLossRatio(res.Policies))
	p.metrics.RecordStress(res.Stress)
}

func (p *Pipeline) recordRun(status string) {
	if p.metrics != nil {
		p.metrics.RecordRun(status, p.clock())
	}
}

func recordsOf(policies []domain.EnrichedPolicy) []domain.PolicyRecord {
	out := make([]domain.PolicyRecord, len(policies))
	for i := range policies {
		out[i] = policies[i].PolicyRecord
	}
	return out
}
