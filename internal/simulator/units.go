package simulator

import (
	"fmt"
	"math"

	"solar_water_heater/internal/model"
)

const (
	secondsPerHour = 3600.0

	// timeEpsilon absorbs float error when comparing simulated instants
	// against whole-hour marks and the end instant.
	timeEpsilon = 1e-9

	// equilibriumEpsilon is the |tank - mains| below which down-mixing is
	// treated as undefined.
	equilibriumEpsilon = 1e-9
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func requirePositive(param string, v float64) error {
	if !finite(v) || v <= 0 {
		return &model.ConfigurationError{Param: param, Reason: fmt.Sprintf("must be positive, got %g", v)}
	}
	return nil
}

func requireNonNegative(param string, v float64) error {
	if !finite(v) || v < 0 {
		return &model.ConfigurationError{Param: param, Reason: fmt.Sprintf("must be non-negative, got %g", v)}
	}
	return nil
}

func requireFinite(param string, v float64) error {
	if !finite(v) {
		return &model.ConfigurationError{Param: param, Reason: "must be finite"}
	}
	return nil
}
