package solar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"solar_water_heater/internal/model"
)

// cutoff is the fraction of peak below which a synthesized hour is zeroed.
const cutoff = 0.01

// ClearSky describes a bell-shaped daily irradiance curve.
type ClearSky struct {
	// PeakWm2 is the irradiance at PeakHour.
	PeakWm2 float64 `yaml:"peak"`
	// PeakHour is the hour of day [0-23] with the highest irradiance.
	PeakHour float64 `yaml:"peak_hour"`
	// WidthH is the standard deviation of the curve in hours.
	WidthH float64 `yaml:"width"`
}

// DefaultClearSky peaks at solar noon with roughly 12 h of daylight.
func DefaultClearSky(peakWm2 float64) ClearSky {
	return ClearSky{PeakWm2: peakWm2, PeakHour: 12, WidthH: 3}
}

func (c ClearSky) Validate() error {
	if math.IsNaN(c.PeakWm2) || c.PeakWm2 < 0 {
		return &model.ConfigurationError{Param: "solar.clear_sky.peak", Reason: fmt.Sprintf("must be non-negative, got %g", c.PeakWm2)}
	}
	if math.IsNaN(c.PeakHour) || c.PeakHour < 0 || c.PeakHour >= model.HoursPerDay {
		return &model.ConfigurationError{Param: "solar.clear_sky.peak_hour", Reason: fmt.Sprintf("must be in [0, 24), got %g", c.PeakHour)}
	}
	if math.IsNaN(c.WidthH) || c.WidthH <= 0 {
		return &model.ConfigurationError{Param: "solar.clear_sky.width", Reason: fmt.Sprintf("must be positive, got %g", c.WidthH)}
	}
	return nil
}

// Table returns the 24-entry irradiance table in W/m².
func (c ClearSky) Table() []float64 {
	out := make([]float64, model.HoursPerDay)
	for h := range out {
		dist := float64(h) - c.PeakHour
		factor := math.Exp(-dist * dist / (2 * c.WidthH * c.WidthH))
		if factor < cutoff {
			factor = 0
		}
		out[h] = c.PeakWm2 * factor
	}
	return out
}

// PeakHour returns the hour with the highest value (the first on ties).
func PeakHour(table []float64) int {
	peak := 0
	for h, v := range table {
		if v > table[peak] {
			peak = h
		}
	}
	return peak
}

// Interpolate returns the linearly interpolated value for a fractional
// hour, wrapping around midnight.
func Interpolate(table []float64, hour float64) float64 {
	n := float64(len(table))
	if n == 0 {
		return 0
	}
	hour = math.Mod(hour, n)
	if hour < 0 {
		hour += n
	}

	lo := int(math.Floor(hour)) % len(table)
	hi := (lo + 1) % len(table)
	frac := hour - math.Floor(hour)

	return table[lo]*(1-frac) + table[hi]*frac
}

// DailyInsolation integrates a table to Wh/m² per day.
func DailyInsolation(table []float64) float64 {
	return floats.Sum(table)
}
