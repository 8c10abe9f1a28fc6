package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/storage"
)

// Accepted start date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// CSVSource loads policies from a CSV file with a header row.
type CSVSource struct {
	path string
	open func() (io.ReadCloser, error)
}

// NewCSVSource creates a source reading the file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{
		path: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewCSVReaderSource creates a source over an in-memory reader. The reader is
// consumed by the first Load.
func NewCSVReaderSource(name string, r io.Reader) *CSVSource {
	return &CSVSource{
		path: name,
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// Name returns the file path.
func (s *CSVSource) Name() string {
	return s.path
}

// Load reads, validates and imputes the whole file.
// Returns ErrMissingColumns before reading any row when the header is incomplete.
func (s *CSVSource) Load(ctx context.Context) ([]domain.PolicyRecord, *domain.LoadStats, error) {
	f, err := s.open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	raws, err := readRaw(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	records, stats := Impute(raws)
	return records, stats, nil
}

func readRaw(ctx context.Context, r io.Reader) ([]RawPolicy, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var raws []RawPolicy
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		raw, err := parseRow(idx, row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidRow, line, err)
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func parseRow(idx headerIndex, row []string) (RawPolicy, error) {
	raw := RawPolicy{
		PolicyID:          idx.cell(row, ColID),
		Gender:            idx.cell(row, ColGender),
		MaritalStatus:     idx.cell(row, ColMaritalStatus),
		Occupation:        idx.cell(row, ColOccupation),
		EducationLevel:    idx.cell(row, ColEducationLevel),
		SmokingStatus:     idx.cell(row, ColSmokingStatus),
		ExerciseFrequency: idx.cell(row, ColExerciseFrequency),
		PolicyType:        idx.cell(row, ColPolicyType),
		Location:          idx.cell(row, ColLocation),
	}
	if fb := idx.cell(row, ColCustomerFeedback); fb != "" {
		raw.CustomerFeedback = &fb
	}

	numeric := []struct {
		col string
		dst **float64
	}{
		{ColAge, &raw.Age},
		{ColAnnualIncome, &raw.AnnualIncome},
		{ColNumberOfDependents, &raw.NumberOfDependents},
		{ColHealthScore, &raw.HealthScore},
		{ColPreviousClaims, &raw.PreviousClaims},
		{ColCreditScore, &raw.CreditScore},
		{ColPremiumAmount, &raw.PremiumAmount},
		{ColInsuranceDuration, &raw.InsuranceDuration},
	}
	for _, n := range numeric {
		v, err := parseOptionalFloat(idx.cell(row, n.col))
		if err != nil {
			return RawPolicy{}, fmt.Errorf("column %q: %w", n.col, err)
		}
		*n.dst = v
	}

	start, err := ParseStartDate(idx.cell(row, ColPolicyStartDate))
	if err != nil {
		return RawPolicy{}, fmt.Errorf("column %q: %w", ColPolicyStartDate, err)
	}
	raw.StartDate = start

	return raw, nil
}

// errNonFinite rejects Inf cells, which would propagate into every sum.
var errNonFinite = errors.New("non-finite number")

// parseOptionalFloat returns nil for empty and NaN cells.
func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	if math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %s", errNonFinite, s)
	}
	return &v, nil
}

// ParseStartDate parses a policy start date. Empty means unknown (zero time).
func ParseStartDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

var _ storage.PolicySource = (*CSVSource)(nil)
