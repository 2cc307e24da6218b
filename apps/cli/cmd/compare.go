package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/equivspec/packages/core/config"
	"github.com/abdul-hamid-achik/equivspec/packages/core/runner"
	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
	"github.com/abdul-hamid-achik/equivspec/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

type compareOptions struct {
	configFile  string
	name        string
	verbose     int
	noColor     bool
	output      string
	outputFile  string
	bail        bool
	parallel    bool
	concurrency int
	watch       bool
	trace       bool
	selectPath  string
	schema      string

	strictOrdering    bool
	strictOrderingFor []string
	include           []string
	exclude           []string
	excludeMissing    bool
	autoConversion    bool
	enumsByName       bool
	ignoreCase        bool
	maxDepth          int
}

func newCompareCmd() *cobra.Command {
	opts := &compareOptions{}
	compareCmd := &cobra.Command{
		Use:   "compare <expectation> <subject> [<expectation> <subject>...]",
		Short: "Compare documents structurally",
		Long: `Compare JSON or YAML documents member by member. Arguments are pairs of
an expectation followed by the subject that has to be equivalent to it.

Examples:
  equivspec compare want.json got.json
  equivspec compare want.yaml got.json --strict-ordering
  equivspec compare want.json got.json --exclude "meta.*" --exclude "**.updatedAt"
  equivspec compare want.json got.json --select data.items --schema item.schema.json
  equivspec compare a/want.json a/got.json b/want.json b/got.json --parallel -o junit`,
		Args: func(cmd *cobra.Command, args []string) error {
			if _, err := runner.PairsFromArgs(args); err != nil {
				return withExitCode(ExitUsageError, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, opts, args)
		},
	}

	flags := compareCmd.Flags()
	flags.StringVar(&opts.configFile, "config", getEnvString("EQUIVSPEC_CONFIG", ""), "Path to config file (env: EQUIVSPEC_CONFIG)")
	flags.StringVarP(&opts.name, "name", "n", "", "Compare only pairs matching name pattern")

	// Policy flags
	flags.BoolVar(&opts.strictOrdering, "strict-ordering", getEnvBool("EQUIVSPEC_STRICT_ORDERING", false), "Require collections in the same order (env: EQUIVSPEC_STRICT_ORDERING)")
	flags.StringSliceVar(&opts.strictOrderingFor, "strict-ordering-for", nil, "Require the same order for collections matching a member path pattern")
	flags.StringSliceVar(&opts.include, "include", nil, "Compare only members matching a path pattern")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "Skip members matching a path pattern")
	flags.BoolVar(&opts.excludeMissing, "exclude-missing", getEnvBool("EQUIVSPEC_EXCLUDE_MISSING", false), "Skip expectation members the subject does not have (env: EQUIVSPEC_EXCLUDE_MISSING)")
	flags.BoolVar(&opts.autoConversion, "auto-conversion", getEnvBool("EQUIVSPEC_AUTO_CONVERSION", false), "Convert subject values to the expectation's type before comparing (env: EQUIVSPEC_AUTO_CONVERSION)")
	flags.BoolVar(&opts.enumsByName, "enums-by-name", false, "Compare enums by name instead of value")
	flags.BoolVar(&opts.ignoreCase, "ignore-case", getEnvBool("EQUIVSPEC_IGNORE_CASE", false), "Compare strings case-insensitively (env: EQUIVSPEC_IGNORE_CASE)")
	flags.IntVar(&opts.maxDepth, "max-depth", getEnvInt("EQUIVSPEC_MAX_DEPTH", 0), "Maximum recursion depth (env: EQUIVSPEC_MAX_DEPTH)")

	// Document flags
	flags.StringVar(&opts.selectPath, "select", getEnvString("EQUIVSPEC_SELECT", ""), "Compare only the value at this path of every document (env: EQUIVSPEC_SELECT)")
	flags.StringVar(&opts.schema, "schema", getEnvString("EQUIVSPEC_SCHEMA", ""), "JSON schema every subject must match (env: EQUIVSPEC_SCHEMA)")

	// Output flags
	flags.CountVarP(&opts.verbose, "verbose", "v", "Verbose output (-v, -vv to log every comparison step)")
	flags.BoolVar(&opts.noColor, "no-color", getEnvBool("EQUIVSPEC_NO_COLOR", false), "Disable colored output (env: EQUIVSPEC_NO_COLOR)")
	flags.StringVarP(&opts.output, "output", "o", getEnvString("EQUIVSPEC_OUTPUT", ""), "Output format: console, json, junit, tap (env: EQUIVSPEC_OUTPUT)")
	flags.StringVar(&opts.outputFile, "output-file", getEnvString("EQUIVSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: EQUIVSPEC_OUTPUT_FILE)")
	flags.BoolVar(&opts.trace, "trace", getEnvBool("EQUIVSPEC_TRACE", false), "Include how every pair was compared (env: EQUIVSPEC_TRACE)")

	// Execution flags
	flags.BoolVar(&opts.bail, "bail", getEnvBool("EQUIVSPEC_BAIL", false), "Stop on first mismatch (env: EQUIVSPEC_BAIL)")
	flags.BoolVarP(&opts.parallel, "parallel", "p", getEnvBool("EQUIVSPEC_PARALLEL", false), "Compare pairs in parallel (env: EQUIVSPEC_PARALLEL)")
	flags.IntVar(&opts.concurrency, "concurrency", getEnvInt("EQUIVSPEC_CONCURRENCY", 0), "Number of concurrent comparisons when running in parallel (env: EQUIVSPEC_CONCURRENCY)")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Watch documents for changes and compare again")

	return compareCmd
}

// overrides turns the flags into a config applied over the loaded one.
// Booleans only override when set, so that a config file can enable them.
func (o *compareOptions) overrides(cmd *cobra.Command) *config.Config {
	flags := cmd.Flags()
	set := func(name string, value bool) *bool {
		if value || flags.Changed(name) {
			return config.BoolPtr(value)
		}
		return nil
	}

	cfg := &config.Config{
		Select:      o.selectPath,
		Schema:      o.schema,
		Concurrency: o.concurrency,
		Parallel:    set("parallel", o.parallel),
		Bail:        set("bail", o.bail),
		Verbose:     set("verbose", o.verbose > 0),
		NoColor:     set("no-color", o.noColor),
		Trace:       set("trace", o.trace),
		Policy: config.Policy{
			StrictOrdering:    set("strict-ordering", o.strictOrdering),
			StrictOrderingFor: o.strictOrderingFor,
			Include:           o.include,
			Exclude:           o.exclude,
			ExcludeMissing:    set("exclude-missing", o.excludeMissing),
			AutoConversion:    set("auto-conversion", o.autoConversion),
			IgnoreCase:        set("ignore-case", o.ignoreCase),
			MaxDepth:          o.maxDepth,
		},
	}
	if o.enumsByName {
		cfg.Policy.Enums = config.EnumsByName
	}
	if o.output != "" {
		cfg.Reporters = []string{o.output}
	}
	return cfg
}

func runCompare(cmd *cobra.Command, opts *compareOptions, args []string) error {
	pairs, err := runner.PairsFromArgs(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	out := cmd.OutOrStdout()
	if opts.outputFile != "" {
		f, err := os.Create(opts.outputFile)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	log := newLogger(cmd.ErrOrStderr(), logLevel(opts.verbose))
	current, err := opts.prepare(cmd, out, log)
	if err != nil {
		return err
	}

	result, err := current.run(pairs)
	if err != nil {
		return err
	}

	if !opts.watch {
		return outcome(result)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := make([]string, 0, len(pairs)*2+2)
	for _, p := range pairs {
		files = append(files, p.Expectation, p.Subject)
	}
	if opts.configFile != "" {
		files = append(files, opts.configFile)
	}
	if current.cfg.Schema != "" {
		files = append(files, current.cfg.Schema)
	}

	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")
	return watchFiles(ctx, files, WatchDebounceDelay, log, func(changed string) {
		fmt.Fprintf(out, "\n\nFile changed: %s\nComparing again...\n\n", changed)
		if next, err := opts.prepare(cmd, out, log); err != nil {
			log.Error("cannot reload config, keeping the previous one", "error", err)
		} else {
			current = next
		}
		if _, err := current.run(pairs); err != nil {
			log.Error("compare failed", "error", err)
		}
		fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")
	})
}

// comparison is one configured pass over the pairs.
type comparison struct {
	cfg      *config.Config
	reporter string
	runner   *runner.Runner
	out      io.Writer
	log      *slog.Logger
}

// prepare loads the config file, applies the flags over it and builds the
// runner. Watch mode calls it again on every change.
func (o *compareOptions) prepare(cmd *cobra.Command, out io.Writer, log *slog.Logger) (*comparison, error) {
	loaded, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("cannot load config: %w", err))
	}
	cfg := loaded.Merge(o.overrides(cmd))
	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("invalid config: %w", err))
	}

	c := &comparison{cfg: cfg, reporter: "console", out: out, log: log}
	if len(cfg.Reporters) > 0 {
		c.reporter = cfg.Reporters[0]
	}
	if _, err := c.formatter(); err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}

	c.runner = runner.NewRunner(&runner.Config{
		Verbose:     o.verbose >= 2,
		Bail:        cfg.GetBail(),
		Parallel:    cfg.GetParallel(),
		Concurrency: cfg.Concurrency,
		NameFilter:  o.name,
		Select:      cfg.Select,
		Schema:      cfg.Schema,
		Configure:   []equivalency.Configure{cfg.Policy.Configure()},
		Trace:       cfg.GetTrace(),
		Logger:      log,
	})
	return c, nil
}

func (c *comparison) formatter() (output.Formatter, error) {
	return output.New(c.reporter, output.Options{
		Writer:  c.out,
		Verbose: c.cfg.GetVerbose(),
		NoColor: c.cfg.GetNoColor(),
	})
}

func (c *comparison) run(pairs []runner.Pair) (*runner.RunResult, error) {
	formatter, err := c.formatter()
	if err != nil {
		return nil, err
	}
	formatter.FormatHeader(version)
	result := c.runner.Run(pairs)
	formatter.FormatResult(result)
	if err := output.Flush(formatter, result.Duration); err != nil {
		return nil, fmt.Errorf("error writing output: %w", err)
	}
	c.log.Info("compared pairs", "passed", result.Passed, "failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

// outcome maps a run to the exit code it finishes with.
func outcome(result *runner.RunResult) error {
	switch {
	case result.HasErrors():
		return withExitCode(ExitInputError, nil)
	case result.Failed > 0:
		return withExitCode(ExitMismatch, nil)
	}
	return nil
}

// watchFiles calls onChange, debounced by delay, whenever one of files is
// written or replaced, until ctx is done.
func watchFiles(ctx context.Context, files []string, delay time.Duration, log *slog.Logger, onChange func(changed string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so directories are watched instead.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	changes := make(chan string, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(delay, func() {
				select {
				case changes <- event.Name:
				default:
				}
			})

		case changed := <-changes:
			onChange(changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)
		}
	}
}
