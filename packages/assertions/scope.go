package assertions

import (
	"fmt"
	"strings"
	"sync"
)

// Scope collects the failures of several assertions and reports them
// together when closed. It implements TestingT, so assertions are pointed
// at a scope instead of the test:
//
//	scope := assertions.NewScope(t)
//	defer scope.Close()
//	assertions.That(scope, order.ID).Equal(7)
//	assertions.That(scope, order.Lines).HaveLength(2)
type Scope struct {
	t TestingT

	mu       sync.Mutex
	messages []string
}

// NewScope returns a scope reporting to t.
func NewScope(t TestingT) *Scope {
	return &Scope{t: t}
}

func (s *Scope) Errorf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, fmt.Sprintf(format, args...))
}

// Helper marks the caller as a test helper when the parent supports it.
func (s *Scope) Helper() {
	if h, ok := s.t.(tHelper); ok {
		h.Helper()
	}
}

// FailNow reports what was collected so far and stops the test when the
// parent supports it.
func (s *Scope) FailNow() {
	s.Close()
	if f, ok := s.t.(failNower); ok {
		f.FailNow()
	}
}

// HasFailures reports whether any assertion failed so far.
func (s *Scope) HasFailures() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) > 0
}

// Messages returns the collected failure messages.
func (s *Scope) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// Discard returns the collected messages and forgets them, so Close will
// not report them.
func (s *Scope) Discard() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.messages
	s.messages = nil
	return messages
}

// Close reports all collected failures as one error. Closing twice reports
// only what was collected in between.
func (s *Scope) Close() {
	s.mu.Lock()
	messages := s.messages
	s.messages = nil
	s.mu.Unlock()

	if len(messages) == 0 {
		return
	}
	if h, ok := s.t.(tHelper); ok {
		h.Helper()
	}
	s.t.Errorf("%s", strings.Join(messages, "\n"))
}
