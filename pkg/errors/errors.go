package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinel causes wrapped by LoadError and EventRegistry
var (
	ErrMissingDescriptor = stderrors.New("no descriptor exported")
	ErrMissingName       = stderrors.New("descriptor has no name")
	ErrMissingRun        = stderrors.New("descriptor has no run function")
	ErrMissingEvent      = stderrors.New("descriptor has no event type")
	ErrAlreadyBound      = stderrors.New("event handlers already bound")
)

// LoadError reports a module file that could not be imported or validated.
// The module is skipped and discovery continues.
type LoadError struct {
	Kind   string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Kind, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DuplicateNameError reports a name or alias that is already registered.
// The first registration is kept.
type DuplicateNameError struct {
	Kind     string
	Name     string
	Source   string
	Existing string
}

func (e *DuplicateNameError) Error() string {
	if e.Existing != "" && e.Existing != e.Name {
		return fmt.Sprintf("duplicate %s %q from %s (already used by %q)", e.Kind, e.Name, e.Source, e.Existing)
	}
	return fmt.Sprintf("duplicate %s %q from %s", e.Kind, e.Name, e.Source)
}

// HandlerExecutionError wraps a failure or panic raised inside a handler's Run
type HandlerExecutionError struct {
	Kind  string
	Name  string
	Err   error
	Panic interface{}
}

func (e *HandlerExecutionError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s %q panicked: %v", e.Kind, e.Name, e.Panic)
	}
	return fmt.Sprintf("%s %q failed: %v", e.Kind, e.Name, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }

// RemoteSyncError reports a command catalog publish rejected by the platform
type RemoteSyncError struct {
	Scope string
	Count int
	Err   error
}

func (e *RemoteSyncError) Error() string {
	return fmt.Sprintf("publish %d commands to %s: %v", e.Count, e.Scope, e.Err)
}

func (e *RemoteSyncError) Unwrap() error { return e.Err }

// ConnectionError reports a failed gateway login. It ends the lifecycle attempt.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("gateway connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports whether any error in err's tree matches target
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// New returns an error that formats as the given text
func New(text string) error { return stderrors.New(text) }
