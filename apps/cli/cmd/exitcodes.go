package cmd

import (
	"errors"
	"fmt"
)

// Exit codes for equivspec CLI
const (
	// ExitSuccess indicates every pair is equivalent
	ExitSuccess = 0

	// ExitMismatch indicates one or more pairs differ
	ExitMismatch = 1

	// ExitInputError indicates a document could not be loaded or compared
	ExitInputError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code a command finished with. A nil err
// means the outcome was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitUsageError
}
