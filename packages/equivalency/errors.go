package equivalency

import (
	"errors"
	"fmt"
)

// Sentinel errors for misuse of the API. Use errors.Is to test an error
// returned by AreEquivalent or Configurator.Build against them.
var (
	ErrArgumentNil      = errors.New("argument is nil")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidSelector  = errors.New("invalid member selector")
)

// ErrorKind represents the type of misuse.
type ErrorKind int

const (
	KindArgumentNil ErrorKind = iota
	KindInvalidOperation
	KindInvalidSelector
)

func (k ErrorKind) String() string {
	switch k {
	case KindArgumentNil:
		return "argument nil"
	case KindInvalidSelector:
		return "invalid selector"
	default:
		return "invalid operation"
	}
}

// Error reports misuse of the equivalency API. It is never used for
// differences between the compared graphs.
type Error struct {
	Kind    ErrorKind
	Param   string // Offending parameter if applicable
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s (parameter %q)", e.Message, e.Param)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel error for the kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrArgumentNil:
		return e.Kind == KindArgumentNil
	case ErrInvalidOperation:
		return e.Kind == KindInvalidOperation
	case ErrInvalidSelector:
		return e.Kind == KindInvalidSelector
	}
	return false
}

func argumentNil(param string) *Error {
	return &Error{
		Kind:    KindArgumentNil,
		Param:   param,
		Message: "value cannot be nil",
	}
}

func invalidOperationf(format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidOperation,
		Message: fmt.Sprintf(format, args...),
	}
}

func invalidSelectorf(cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidSelector,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
