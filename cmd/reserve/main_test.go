package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-reserve-lab/internal/config"
	"policy-reserve-lab/internal/pipeline"
)

// useConfig points the global flags at a temp config and no .env file.
func useConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reserve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	oldConfig, oldEnv, oldLevel := configPath, envFile, logLevel
	configPath, envFile, logLevel = path, filepath.Join(dir, ".env"), ""
	t.Cleanup(func() { configPath, envFile, logLevel = oldConfig, oldEnv, oldLevel })
}

func TestSourceFlags_Apply(t *testing.T) {
	cfg := config.Default()
	f := sourceFlags{input: "data/policies.csv", asOf: "2024-12-31"}
	f.apply(&cfg)

	assert.Equal(t, config.SourceCSV, cfg.Input.Source)
	assert.Equal(t, "data/policies.csv", cfg.Input.Path)
	assert.Equal(t, "2024-12-31", cfg.Run.AsOf)

	// An explicit source wins over the one implied by --input.
	cfg = config.Default()
	f = sourceFlags{source: config.SourceFixtures, input: "x.csv"}
	f.apply(&cfg)
	assert.Equal(t, config.SourceFixtures, cfg.Input.Source)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	useConfig(t, "output:\n  dir: from-file\nlog:\n  level: info\n")
	logLevel = "debug"

	cfg, logger, err := loadConfig(func(c *config.Config) { c.Output.Dir = "from-flag" })
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Equal(t, "from-flag", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	useConfig(t, "input:\n  source: csv\n")

	_, _, err := loadConfig(nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestOpenSource_Fixtures(t *testing.T) {
	src, closeSource, err := openSource(context.Background(), config.Default())
	require.NoError(t, err)
	defer closeSource()
	assert.Equal(t, pipeline.FixtureSourceName, src.Name())
}

func TestOpenSource_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Source = "ftp"
	_, _, err := openSource(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunBatch_Fixtures(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	useConfig(t, "run:\n  as_of: 2024-12-31\n")

	oldOut, oldID := runOutputDir, runID
	runOutputDir, runID = out, "3f1c1c9e-7a0a-4a57-9d0e-2b6f1b9f6f10"
	t.Cleanup(func() { runOutputDir, runID = oldOut, oldID })

	runCmd.SetContext(context.Background())
	require.NoError(t, runBatch(runCmd, nil))

	report, err := os.ReadFile(filepath.Join(out, pipeline.FileReport))
	require.NoError(t, err)
	assert.Contains(t, string(report), "Run: 3f1c1c9e-7a0a-4a57-9d0e-2b6f1b9f6f10")
	assert.FileExists(t, filepath.Join(out, pipeline.FileStress))
}

func TestRunScore_File(t *testing.T) {
	useConfig(t, "run:\n  as_of: 2024-12-31\n")
	path := filepath.Join(t.TempDir(), "scored.csv")

	old := scoreOutput
	scoreOutput = path
	t.Cleanup(func() { scoreOutput = old })

	scoreCmd.SetContext(context.Background())
	require.NoError(t, runScore(scoreCmd, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, len(pipeline.FixturePolicies())+1)
}

func TestPrintStress(t *testing.T) {
	useConfig(t, "")
	cfg, logger, err := loadConfig(nil)
	require.NoError(t, err)

	p, err := newPipeline(cfg, pipeline.NewFixtureSource(), logger)
	require.NoError(t, err)
	totals, results, err := p.Stress(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	printStress(&buf, totals, results)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	// Totals line, blank line, header, one line per scenario.
	require.Len(t, lines, 3+len(results))
	assert.Contains(t, lines[0], "12 policies")
	assert.True(t, strings.HasPrefix(lines[3], "Base Case"), lines[3])
}
