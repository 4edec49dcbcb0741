package simulator

import (
	"fmt"
	"math"

	"solar_water_heater/internal/model"
)

// MaxSteps bounds the recorded instants of one run so a tiny step over a
// long horizon is a configuration error instead of an allocation failure.
const MaxSteps = 10_000_000

// Clock is the fixed-step simulation horizon, in hours.
type Clock struct {
	StartH float64
	EndH   float64
	StepH  float64
}

func (c Clock) Validate() error {
	if err := requireFinite("simulation.start", c.StartH); err != nil {
		return err
	}
	if err := requireFinite("simulation.end", c.EndH); err != nil {
		return err
	}
	if err := requirePositive("simulation.timestep", c.StepH); err != nil {
		return err
	}
	if c.EndH < c.StartH {
		return &model.ConfigurationError{
			Param:  "simulation.end",
			Reason: fmt.Sprintf("end %g is before start %g", c.EndH, c.StartH),
		}
	}
	if n := math.Floor((c.EndH-c.StartH)/c.StepH+timeEpsilon) + 1; n > MaxSteps {
		return &model.ConfigurationError{
			Param:  "simulation.timestep",
			Reason: fmt.Sprintf("step %g h over [%g, %g] gives %.0f instants, more than %d", c.StepH, c.StartH, c.EndH, n, MaxSteps),
		}
	}
	return nil
}

// Steps returns the number of recorded instants, initial state included.
func (c Clock) Steps() int {
	return int(math.Floor((c.EndH-c.StartH)/c.StepH+timeEpsilon)) + 1
}

// TimeAt returns the instant of series index i. It is computed rather
// than accumulated so long runs do not drift.
func (c Clock) TimeAt(i int) float64 {
	return c.StartH + float64(i)*c.StepH
}

// StepSeconds is the step size in seconds, the unit of every rate.
func (c Clock) StepSeconds() float64 {
	return c.StepH * secondsPerHour
}

// Timeline returns every recorded instant.
func (c Clock) Timeline() []float64 {
	out := make([]float64, c.Steps())
	for i := range out {
		out[i] = c.TimeAt(i)
	}
	return out
}

// HourCounter derives the hour-of-day index used to read the schedule.
// It starts at floor(start) and is bumped once for every whole-hour mark
// reached, the mark at a whole-hour start instant included, so a run
// starting at 0 reads hour 1 for its first interval. With steps longer
// than an hour it skips the hours in between (dt = 2 reads 1, 3, 5)
// rather than adding one per step.
type HourCounter struct {
	hour    int
	mark    float64
	started bool
}

func NewHourCounter(startH float64) *HourCounter {
	return &HourCounter{hour: wrapHour(int(math.Floor(startH + timeEpsilon)))}
}

// Hour returns the current index without advancing.
func (h *HourCounter) Hour() int {
	return h.hour
}

// Advance moves the counter to instant t and returns the hour index for
// the step beginning at t. Instants must be passed in increasing order.
func (h *HourCounter) Advance(t float64) int {
	mark := math.Floor(t + timeEpsilon)
	if !h.started {
		h.started = true
		if math.Abs(t-math.Round(t)) < timeEpsilon {
			h.hour++
		}
	} else {
		h.hour += int(mark - h.mark)
	}
	h.mark = mark
	h.hour = wrapHour(h.hour)
	return h.hour
}

func wrapHour(hour int) int {
	h := hour % model.HoursPerDay
	if h < 0 {
		h += model.HoursPerDay
	}
	return h
}
