// Package config loads the reserve batch configuration from YAML, the
// environment and a local .env file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/metrics"
)

// DefaultPath is read when no config file is given and it exists.
const DefaultPath = "reserve.yaml"

// Input sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceFixtures = "fixtures"
)

// Environment overrides.
const (
	EnvPostgresDSN    = "RESERVE_POSTGRES_DSN"
	EnvClickHouseDSN  = "RESERVE_CLICKHOUSE_DSN"
	EnvPushgatewayURL = "RESERVE_PUSHGATEWAY_URL"
	EnvS3AccessKey    = "RESERVE_S3_ACCESS_KEY"
	EnvS3SecretKey    = "RESERVE_S3_SECRET_KEY"
	EnvLogLevel       = "RESERVE_LOG_LEVEL"
)

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full batch configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Run        RunConfig        `yaml:"run"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	S3         S3Config         `yaml:"s3"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// InputConfig selects the policy source.
type InputConfig struct {
	Source      string   `yaml:"source" validate:"oneof=csv postgres fixtures"`
	Path        string   `yaml:"path" validate:"required_if=Source csv"`
	PolicyTypes []string `yaml:"policy_types" validate:"dive,required"`
	Locations   []string `yaml:"locations" validate:"dive,required"`
}

// OutputConfig is where report files are written.
type OutputConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// RunConfig tunes the computation.
type RunConfig struct {
	AsOf                 string           `yaml:"as_of" validate:"omitempty,datetime=2006-01-02"`
	Dimensions           []string         `yaml:"dimensions" validate:"dive,required"`
	Scenarios            []ScenarioConfig `yaml:"scenarios" validate:"dive"`
	MaxImputedShare      float64          `yaml:"max_imputed_share" validate:"gte=0,lte=1"`
	MaxUnknownStartShare float64          `yaml:"max_unknown_start_share" validate:"gte=0,lte=1"`
}

// ScenarioConfig is one custom stress scenario.
type ScenarioConfig struct {
	Name              string  `yaml:"name" validate:"required"`
	ClaimsMultiplier  float64 `yaml:"claims_multiplier" validate:"gt=0"`
	PremiumMultiplier float64 `yaml:"premium_multiplier" validate:"gt=0"`
	Description       string  `yaml:"description"`
}

// PostgresConfig is used as a policy source and as a result sink.
type PostgresConfig struct {
	DSN    string `yaml:"dsn"`
	Export bool   `yaml:"export"`
}

// ClickHouseConfig is the aggregate sink.
type ClickHouseConfig struct {
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
	Export   bool   `yaml:"export"`
}

// S3Config is the artifact upload target.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint" validate:"required_if=Enabled true"`
	Bucket    string `yaml:"bucket" validate:"required_if=Enabled true"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// MetricsConfig controls the Pushgateway push after a run.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `yaml:"job" validate:"required"`
	Namespace      string `yaml:"namespace"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateSinks, Config{})
	return v
}

// validateSinks checks settings that span sections.
func validateSinks(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.Input.Source == SourcePostgres && c.Postgres.DSN == "" {
		sl.ReportError(c.Postgres.DSN, "Postgres.DSN", "DSN", "required_for_postgres_source", "")
	}
	if c.Postgres.Export && c.Postgres.DSN == "" {
		sl.ReportError(c.Postgres.DSN, "Postgres.DSN", "DSN", "required_for_export", "")
	}
	if c.ClickHouse.Export && c.ClickHouse.DSN == "" {
		sl.ReportError(c.ClickHouse.DSN, "ClickHouse.DSN", "DSN", "required_for_export", "")
	}
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Input:  InputConfig{Source: SourceFixtures},
		Output: OutputConfig{Dir: "output"},
		Run: RunConfig{
			MaxImputedShare:      0.05,
			MaxUnknownStartShare: 0.05,
		},
		Metrics: MetricsConfig{Job: "policy_reserve"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path falls back to DefaultPath when that file exists.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// decode rejects unknown keys so typos do not silently fall back to defaults.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Postgres.DSN, EnvPostgresDSN)
	set(&c.ClickHouse.DSN, EnvClickHouseDSN)
	set(&c.Metrics.PushgatewayURL, EnvPushgatewayURL)
	set(&c.S3.AccessKey, EnvS3AccessKey)
	set(&c.S3.SecretKey, EnvS3SecretKey)
	set(&c.Log.Level, EnvLogLevel)
}

// Validate checks struct tags, cross-section rules and named dimensions.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Run.DimensionList(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AsOfTime parses the valuation date. Zero when unset.
func (r RunConfig) AsOfTime() (time.Time, error) {
	if r.AsOf == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", r.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of: %w", err)
	}
	return t, nil
}

// DimensionList resolves dimension names. Empty means every standard dimension.
func (r RunConfig) DimensionList() ([]metrics.Dimension, error) {
	if len(r.Dimensions) == 0 {
		return metrics.StandardDimensions(), nil
	}
	dims := make([]metrics.Dimension, 0, len(r.Dimensions))
	for _, name := range r.Dimensions {
		d, ok := metrics.DimensionByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown dimension %q", name)
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// StressScenarios returns the configured catalog, or the default six.
func (r RunConfig) StressScenarios() []domain.StressScenario {
	if len(r.Scenarios) == 0 {
		return domain.DefaultStressScenarios()
	}
	out := make([]domain.StressScenario, len(r.Scenarios))
	for i, s := range r.Scenarios {
		out[i] = domain.StressScenario{
			Name:              s.Name,
			ClaimsMultiplier:  s.ClaimsMultiplier,
			PremiumMultiplier: s.PremiumMultiplier,
			Description:       s.Description,
		}
	}
	return out
}

// NewLogger builds the structured logger described by the config.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
