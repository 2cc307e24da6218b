package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/equivspec/packages/document"
	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultConcurrency is the default number of concurrent comparisons in parallel mode
	DefaultConcurrency = 5
)

// ErrOddArguments is returned when paths do not form expectation and
// subject pairs.
var ErrOddArguments = errors.New("arguments must be pairs of <expectation> <subject>")

type Runner struct {
	config *Config
	log    *slog.Logger
}

type Config struct {
	Verbose     bool
	Bail        bool
	Parallel    bool
	Concurrency int
	NameFilter  string
	// Select narrows both documents to a gjson path before comparing.
	Select string
	// Schema is a JSON schema file every subject must match.
	Schema string
	// Configure is applied to the options of every comparison.
	Configure []equivalency.Configure
	// Trace records how every pair was compared in PairResult.Trace.
	Trace  bool
	Logger *slog.Logger
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		config: cfg,
		log:    log,
	}
}

// Pair names an expectation document and the subject document compared
// against it.
type Pair struct {
	Name        string
	Expectation string
	Subject     string
}

// PairsFromArgs groups paths into pairs: expectation, subject, expectation,
// subject and so on.
func PairsFromArgs(args []string) ([]Pair, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, ErrOddArguments
	}
	pairs := make([]Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, Pair{
			Name:        fmt.Sprintf("%s vs %s", filepath.Base(args[i+1]), filepath.Base(args[i])),
			Expectation: args[i],
			Subject:     args[i+1],
		})
	}
	return pairs, nil
}

type RunResult struct {
	Results  []*PairResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

// HasErrors reports whether any pair could not be compared.
func (r *RunResult) HasErrors() bool {
	for _, p := range r.Results {
		if p.Error != nil {
			return true
		}
	}
	return false
}

type PairResult struct {
	Name        string
	Expectation string
	Subject     string
	Passed      bool
	Skipped     bool
	SkipReason  string
	Failures    []equivalency.Failure
	// Configuration summarizes the options the pair was compared with.
	Configuration string
	Trace         string
	Duration      time.Duration
	Error         error
}

// Run compares every pair.
func (r *Runner) Run(pairs []Pair) *RunResult {
	start := time.Now()
	result := &RunResult{}

	var selected []Pair
	for _, p := range pairs {
		if !matchesPattern(p.Name, r.config.NameFilter) {
			result.Results = append(result.Results, &PairResult{
				Name:        p.Name,
				Expectation: p.Expectation,
				Subject:     p.Subject,
				Skipped:     true,
				SkipReason:  "filtered out",
			})
			result.Skipped++
			continue
		}
		selected = append(selected, p)
	}

	if r.config.Parallel {
		for _, pairResult := range r.runParallel(selected) {
			result.add(pairResult)
		}
	} else {
		for i, p := range selected {
			pairResult := r.runPair(p)
			result.add(pairResult)
			if !pairResult.Passed && r.config.Bail {
				for _, rest := range selected[i+1:] {
					result.add(&PairResult{
						Name:        rest.Name,
						Expectation: rest.Expectation,
						Subject:     rest.Subject,
						Skipped:     true,
						SkipReason:  "bail after first mismatch",
					})
				}
				break
			}
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *RunResult) add(p *PairResult) {
	r.Results = append(r.Results, p)
	switch {
	case p.Skipped:
		r.Skipped++
	case p.Passed:
		r.Passed++
	default:
		r.Failed++
	}
}

func (r *Runner) runParallel(pairs []Pair) []*PairResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*PairResult, len(pairs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, p := range pairs {
		wg.Add(1)
		sem <- struct{}{} // acquire semaphore

		go func(idx int, pair Pair) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			results[idx] = r.runPair(pair)
		}(i, p)
	}

	wg.Wait()
	return results
}

func (r *Runner) runPair(p Pair) *PairResult {
	result := &PairResult{
		Name:        p.Name,
		Expectation: p.Expectation,
		Subject:     p.Subject,
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	log := r.log.With("pair", p.Name)

	expectation, subject, err := r.load(p)
	if err != nil {
		result.Error = err
		log.Error("failed to load pair", "error", err)
		return result
	}

	if r.config.Schema != "" {
		failures, err := validateSchema(subject, r.config.Schema)
		if err != nil {
			result.Error = err
			return result
		}
		result.Failures = append(result.Failures, failures...)
	}

	configure := append([]equivalency.Configure(nil), r.config.Configure...)
	var tracer *equivalency.StringTracer
	switch {
	case r.config.Trace:
		tracer = &equivalency.StringTracer{}
		configure = append(configure, withTracer(tracer))
	case r.config.Verbose:
		configure = append(configure, withTracer(equivalency.NewSlogTracer(log)))
	}

	opts, err := equivalency.Configured(configure...)
	if err != nil {
		result.Error = err
		return result
	}
	result.Configuration = opts.String()

	failures, err := equivalency.New(opts).Validate(subject, expectation, nil)
	if tracer != nil {
		result.Trace = tracer.String()
	}
	if err != nil {
		result.Error = err
		return result
	}
	result.Failures = append(result.Failures, failures...)
	result.Passed = len(result.Failures) == 0

	log.Debug("compared pair", "passed", result.Passed, "failures", len(result.Failures))
	return result
}

func withTracer(t equivalency.Tracer) equivalency.Configure {
	return func(c *equivalency.Configurator) *equivalency.Configurator {
		return c.WithTracing(t)
	}
}

// load reads both documents of a pair and applies the selection.
func (r *Runner) load(p Pair) (expectation, subject any, err error) {
	expectation, err = document.Load(p.Expectation)
	if err != nil {
		return nil, nil, fmt.Errorf("loading expectation: %w", err)
	}
	subject, err = document.Load(p.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("loading subject: %w", err)
	}
	if r.config.Select == "" {
		return expectation, subject, nil
	}

	expectation, ok, err := document.Select(expectation, r.config.Select)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("expectation %s has no value at %q", p.Expectation, r.config.Select)
	}
	// A subject without the selected value is compared as nil, which
	// surfaces as a mismatch rather than an input error.
	subject, _, err = document.Select(subject, r.config.Select)
	if err != nil {
		return nil, nil, err
	}
	return expectation, subject, nil
}

func validateSchema(subject any, schemaPath string) ([]equivalency.Failure, error) {
	err := document.ValidateSchema(subject, schemaPath)
	var schemaErr *document.SchemaError
	switch {
	case err == nil:
		return nil, nil
	case errors.As(err, &schemaErr):
		failures := make([]equivalency.Failure, len(schemaErr.Violations))
		for i, v := range schemaErr.Violations {
			failures[i] = equivalency.Failure{
				Message: fmt.Sprintf("Expected subject to match schema %s, but %s.", schemaPath, v),
			}
		}
		return failures, nil
	default:
		return nil, err
	}
}

// matchesPattern reports whether name matches the glob pattern. An empty
// pattern matches every name and a malformed one matches none.
func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
