package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sorting directions. Ascending means a higher score ranks first on the
// leaderboard; descending means a lower score (error-style metrics) wins.
const (
	SortAscending  = "ascending"
	SortDescending = "descending"
)

var (
	// ErrUnknownMetric indicates the requested metric is not registered.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrLengthMismatch indicates expected and output line counts differ.
	ErrLengthMismatch = errors.New("expected and output lengths differ")

	// ErrEmptyInput indicates there is nothing to score.
	ErrEmptyInput = errors.New("empty input")
)

// Params holds metric parameters decoded from a test's JSON object.
type Params map[string]interface{}

// ParamInfo describes one accepted metric parameter.
type ParamInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	DefaultValue string `json:"default_value"`
}

// Info describes a metric for the metric listing endpoint.
type Info struct {
	Name       string      `json:"name"`
	Link       string      `json:"link"`
	Sorting    string      `json:"sorting"`
	Parameters []ParamInfo `json:"parameters"`
}

// Metric scores submission output against expected results.
type Metric interface {
	// Name returns the registry name of the metric.
	Name() string

	// Info returns metric metadata for API listings.
	Info() Info

	// Sorting returns the leaderboard direction for this metric.
	Sorting() string

	// Calculate scores out against expected. Both slices hold the raw
	// lines of the respective files.
	Calculate(expected, out []string, params Params) (float64, error)
}

var registry = map[string]Metric{}

func register(m Metric) {
	registry[m.Name()] = m
}

func init() {
	register(accuracy{})
	register(balancedAccuracy{})
	register(precision{})
	register(recall{})
	register(f1{})
	register(fbetaScore{})
	register(hammingLoss{})
	register(cohenKappa{})
	register(matthewsCorrelation{})
	register(logLoss{})
	register(meanAbsoluteError{})
	register(meanSquaredError{})
	register(rootMeanSquaredError{})
	register(explainedVariance{})
	register(rSquared{})
	register(medianAbsoluteError{})
	register(wordErrorRate{})
}

// Get returns the named metric.
func Get(name string) (Metric, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return m, nil
}

// Exists reports whether the named metric is registered.
func Exists(name string) bool {
	_, ok := registry[name]
	return ok
}

// All returns every registered metric sorted by name.
func All() []Metric {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Metric, 0, len(names))
	for _, name := range names {
		result = append(result, registry[name])
	}
	return result
}

// Calculate runs the named metric against the given lines.
func Calculate(name string, expected, out []string, params Params) (float64, error) {
	m, err := Get(name)
	if err != nil {
		return 0, err
	}
	return m.Calculate(expected, out, params)
}

// ValidateParams checks that params only contains parameters the named
// metric accepts.
func ValidateParams(name string, params Params) error {
	m, err := Get(name)
	if err != nil {
		return err
	}
	known := map[string]bool{}
	for _, p := range m.Info().Parameters {
		known[p.Name] = true
	}
	for key := range params {
		if !known[key] {
			return fmt.Errorf("unknown parameter %q for metric %q", key, name)
		}
	}
	return nil
}

// Shared helpers for metric implementations.

func checkLengths(expected, out []string) error {
	if len(expected) != len(out) {
		return fmt.Errorf("%w: %d expected vs %d output", ErrLengthMismatch, len(expected), len(out))
	}
	if len(expected) == 0 {
		return ErrEmptyInput
	}
	return nil
}

func parseFloats(lines []string) ([]float64, error) {
	values := make([]float64, len(lines))
	for i, line := range lines {
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimSpace(line)
	}
	return out
}

func boolParam(params Params, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q must be a boolean", key)
	}
	return b, nil
}

func stringParam(params Params, key, def string) (string, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", key)
	}
	return s, nil
}

func floatParam(params Params, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("parameter %q must be a number", key)
	}
	return f, nil
}
