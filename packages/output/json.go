package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/equivspec/packages/core/runner"
	"github.com/google/uuid"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Summary  JSONSummary `json:"summary"`
	Pairs    []JSONPair  `json:"pairs"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONPair represents the comparison of one pair of documents
type JSONPair struct {
	Name          string        `json:"name"`
	Expectation   string        `json:"expectation"`
	Subject       string        `json:"subject"`
	Passed        bool          `json:"passed"`
	Skipped       bool          `json:"skipped,omitempty"`
	SkipReason    string        `json:"skipReason,omitempty"`
	Duration      float64       `json:"duration"`
	Error         string        `json:"error,omitempty"`
	Failures      []JSONFailure `json:"failures,omitempty"`
	Configuration string        `json:"configuration,omitempty"`
	Trace         string        `json:"trace,omitempty"`
}

// JSONFailure represents one difference between the documents
type JSONFailure struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer  io.Writer
	runID   string
	results []JSONPair
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		runID:   uuid.NewString(),
		results: make([]JSONPair, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithRunID replaces the generated run id.
func JSONWithRunID(id string) JSONOption {
	return func(f *JSONFormatter) {
		f.runID = id
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		pair := JSONPair{
			Name:        r.Name,
			Expectation: r.Expectation,
			Subject:     r.Subject,
			Passed:      r.Passed,
			Skipped:     r.Skipped,
			Duration:    float64(r.Duration.Milliseconds()),
			Trace:       r.Trace,
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			pair.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			pair.Error = r.Error.Error()
		}

		if len(r.Failures) > 0 {
			pair.Configuration = r.Configuration
			pair.Failures = make([]JSONFailure, len(r.Failures))
			for i, failure := range r.Failures {
				pair.Failures[i] = JSONFailure{Path: failure.Path, Message: failure.Message}
			}
		}

		f.results = append(f.results, pair)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual pair results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, p := range f.results {
		if p.Skipped {
			skipped++
		} else if p.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		RunID: f.runID,
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Pairs:    f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
