package equivalency

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Tracer records the decisions made during a comparison.
type Tracer interface {
	// WriteLine records one line at the current nesting level.
	WriteLine(line string)
	// Block records line and nests everything written until the returned
	// function is called.
	Block(line string) (end func())
}

// StringTracer collects trace lines in memory, indenting nested blocks.
type StringTracer struct {
	mu     sync.Mutex
	lines  []string
	indent int
}

func (t *StringTracer) WriteLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, strings.Repeat("  ", t.indent)+line)
}

func (t *StringTracer) Block(line string) func() {
	t.WriteLine(line)
	t.mu.Lock()
	t.indent++
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		t.indent--
		t.mu.Unlock()
	}
}

func (t *StringTracer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

// Reset discards everything recorded so far.
func (t *StringTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = nil
	t.indent = 0
}

// SlogTracer writes trace lines as debug records. Every tracer gets its
// own trace_id so that lines of concurrent comparisons can be told apart.
type SlogTracer struct {
	log   *slog.Logger
	mu    sync.Mutex
	depth int
}

func NewSlogTracer(log *slog.Logger) *SlogTracer {
	if log == nil {
		log = slog.Default()
	}
	return &SlogTracer{log: log.With("trace_id", uuid.NewString())}
}

func (t *SlogTracer) WriteLine(line string) {
	t.mu.Lock()
	depth := t.depth
	t.mu.Unlock()
	t.log.Log(context.Background(), slog.LevelDebug, line, "depth", depth)
}

func (t *SlogTracer) Block(line string) func() {
	t.WriteLine(line)
	t.mu.Lock()
	t.depth++
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		t.depth--
		t.mu.Unlock()
	}
}
