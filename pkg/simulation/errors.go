package simulation

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrInvalidState  = errors.New("invalid engine state")
)

// InvalidConfigError reports a run configuration that cannot be executed
// against the graph it was given. It is returned before any state changes.
type InvalidConfigError struct {
	Field string
	Value string
	Cause error
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid simulation config: %s %q: %v", e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid simulation config: %s: %v", e.Field, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *InvalidConfigError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match ErrInvalidConfig.
func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// InvalidStateError reports an operation the engine cannot perform in its
// current lifecycle state.
type InvalidStateError struct {
	Op    string
	State State
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: engine is %s", e.Op, e.State)
}

// Is lets errors.Is match ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

func configError(field, value string, format string, args ...any) error {
	return &InvalidConfigError{Field: field, Value: value, Cause: fmt.Errorf(format, args...)}
}
