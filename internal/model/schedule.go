package model

import (
	"fmt"
	"math"
)

// HoursPerDay is the length of every hour-of-day table.
const HoursPerDay = 24

// Schedule holds the hour-of-day irradiance and load draw tables.
// It is immutable after NewSchedule returns.
type Schedule struct {
	irradiance [HoursPerDay]float64 // W/m²
	load       [HoursPerDay]float64 // m³/h
}

// NewSchedule validates and copies the two tables. Irradiance is in W/m²,
// load in m³ per hour.
func NewSchedule(irradiance, load []float64) (*Schedule, error) {
	s := &Schedule{}
	if err := fillTable(&s.irradiance, irradiance, "solar.irradiance"); err != nil {
		return nil, err
	}
	if err := fillTable(&s.load, load, "load.profile"); err != nil {
		return nil, err
	}
	return s, nil
}

func fillTable(dst *[HoursPerDay]float64, src []float64, param string) error {
	if len(src) != HoursPerDay {
		return &ConfigurationError{
			Param:  param,
			Reason: fmt.Sprintf("expected %d entries, got %d", HoursPerDay, len(src)),
		}
	}
	for h, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigurationError{Param: param, Reason: fmt.Sprintf("hour %d is not finite", h)}
		}
		if v < 0 {
			return &ConfigurationError{Param: param, Reason: fmt.Sprintf("hour %d is negative (%g)", h, v)}
		}
		dst[h] = v
	}
	return nil
}

// IrradianceAt returns the irradiance for hour mod 24.
func (s *Schedule) IrradianceAt(hour int) float64 {
	return s.irradiance[wrapHour(hour)]
}

// LoadAt returns the volumetric draw for hour mod 24.
func (s *Schedule) LoadAt(hour int) float64 {
	return s.load[wrapHour(hour)]
}

// Irradiance returns a copy of the irradiance table.
func (s *Schedule) Irradiance() []float64 {
	out := make([]float64, HoursPerDay)
	copy(out, s.irradiance[:])
	return out
}

// Load returns a copy of the load table.
func (s *Schedule) Load() []float64 {
	out := make([]float64, HoursPerDay)
	copy(out, s.load[:])
	return out
}

func wrapHour(hour int) int {
	h := hour % HoursPerDay
	if h < 0 {
		h += HoursPerDay
	}
	return h
}
