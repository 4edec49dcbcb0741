package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidConfiguration marks a missing, malformed or physically
	// impossible parameter. Always detected before the first step.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNumerical marks an undefined or non-finite state during a run.
	ErrNumerical = errors.New("numerical error")

	// ErrMainsEquilibrium is the cause when the down-mixing denominator
	// (tank minus mains temperature) vanishes under the abort policy.
	ErrMainsEquilibrium = errors.New("tank temperature equals mains temperature")

	// ErrNonFinite is the cause when a rate or temperature becomes NaN or Inf.
	ErrNonFinite = errors.New("non-finite value")

	// ErrPresentation marks a chart rendering failure.
	ErrPresentation = errors.New("presentation error")
)

// ConfigurationError names the offending parameter.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Param, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NumericalError aborts a run. It carries the step index, hour index and
// the raw inputs of the failing operation.
type NumericalError struct {
	Step   int
	Hour   int
	TimeH  float64
	Op     string
	Values map[string]float64
	Err    error
}

func (e *NumericalError) Error() string {
	keys := make([]string, 0, len(e.Values))
	for k := range e.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, e.Values[k]))
	}
	return fmt.Sprintf("numerical error at step %d (t=%gh, hour %d) in %s: %v [%s]",
		e.Step, e.TimeH, e.Hour, e.Op, e.Err, strings.Join(parts, " "))
}

func (e *NumericalError) Unwrap() error {
	return e.Err
}

func (e *NumericalError) Is(target error) bool {
	return target == ErrNumerical
}

// PresentationError wraps a rendering failure for one chart.
type PresentationError struct {
	Chart string
	Err   error
}

func (e *PresentationError) Error() string {
	return fmt.Sprintf("rendering %s chart: %v", e.Chart, e.Err)
}

func (e *PresentationError) Unwrap() error {
	return e.Err
}

func (e *PresentationError) Is(target error) bool {
	return target == ErrPresentation
}
