package reactchart

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned when the chart is used before Initialize.
	ErrNotReady = errors.New("chart not ready")
	// ErrNoRoot is returned when the chart has no active root state.
	ErrNoRoot = errors.New("chart has no active root")
	// ErrAlreadyEntered is returned by a second call to Enter.
	ErrAlreadyEntered = errors.New("chart already entered")
	// ErrMalformedChart wraps every structural configuration error.
	ErrMalformedChart = errors.New("malformed chart")
	// ErrUnknownState is returned for handles or paths that do not name a state.
	ErrUnknownState = errors.New("unknown state")

	// ErrUndefinedProperty is returned when a condition reads a property that was never set.
	ErrUndefinedProperty = errors.New("undefined property")
	// ErrTypeMismatch is returned when a property does not have the kind a condition expects.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrExpression wraps parse and evaluation failures of expression guards.
	ErrExpression = errors.New("expression error")

	// ErrMicrostepLimit is returned when one transition batch runs away.
	ErrMicrostepLimit = errors.New("microstep limit exceeded")
)

// PropertyError reports a failed property read by a condition.
type PropertyError struct {
	Property string
	Want     string // expected kind(s), empty for undefined properties
	Got      Kind
	Err      error
}

func (e *PropertyError) Error() string {
	if errors.Is(e.Err, ErrUndefinedProperty) {
		return fmt.Sprintf("property %q: %v", e.Property, e.Err)
	}
	return fmt.Sprintf("property %q: %v: want %s, got %s", e.Property, e.Err, e.Want, e.Got)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// ExpressionError carries the diagnostic of a failed expression guard.
type ExpressionError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("%v: %q at offset %d: %s", ErrExpression, e.Source, e.Pos, e.Msg)
}

func (e *ExpressionError) Unwrap() error { return ErrExpression }

// ConfigError reports a structural problem found by Initialize.
type ConfigError struct {
	State string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("%v: %s", ErrMalformedChart, e.Msg)
	}
	return fmt.Sprintf("%v: state %s: %s", ErrMalformedChart, e.State, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrMalformedChart }

func configErrorf(state, format string, args ...any) error {
	return &ConfigError{State: state, Msg: fmt.Sprintf(format, args...)}
}
