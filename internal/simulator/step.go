package simulator

import (
	"fmt"
	"math"

	"solar_water_heater/internal/model"
)

// MainsPolicy decides what happens when the tank sits at mains temperature
// and the down-mixing ratio is undefined.
type MainsPolicy int

const (
	// PolicyZeroFlow draws no tank fluid: a tank at mains temperature has
	// no usable heat to deliver.
	PolicyZeroFlow MainsPolicy = iota
	// PolicyAbort stops the run with a NumericalError.
	PolicyAbort
)

func (p MainsPolicy) String() string {
	switch p {
	case PolicyZeroFlow:
		return "zero"
	case PolicyAbort:
		return "abort"
	default:
		return fmt.Sprintf("MainsPolicy(%d)", int(p))
	}
}

// ParseMainsPolicy maps "zero" and "abort" (and "" for the default).
func ParseMainsPolicy(s string) (MainsPolicy, error) {
	switch s {
	case "", "zero":
		return PolicyZeroFlow, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return 0, &model.ConfigurationError{
			Param:  "simulation.mains_equilibrium",
			Reason: fmt.Sprintf("unknown policy %q (want zero or abort)", s),
		}
	}
}

// Inputs are the schedule values and position of one step.
type Inputs struct {
	Step          int // index of the instant the step starts from
	TimeH         float64
	Hour          int
	IrradianceWm2 float64
	LoadM3h       float64
}

// StepRecord is one entry of the time series. Rates describe the step
// that ended at TimeH; the initial entry has zero rates.
type StepRecord struct {
	Index         int
	TimeH         float64
	Hour          int
	IrradianceWm2 float64
	LoadM3h       float64

	CollectorGainW  float64
	TankLossW       float64 // environmental loss at PreOverrideC, before any aux override
	LoadDrawW       float64
	LoadMassKgS     float64
	TankMassKgS     float64
	PreOverrideC    float64 // tank temperature at step entry
	IntegratedFromC float64 // tank temperature the Euler update started from
	AuxEnergyJ      float64
	Clamped         bool

	TankC      float64
	CollectorC float64
}

// Advance computes one forward-Euler step of the coupled collector/tank
// energy balance. The inputs are values, so the caller's state is never
// touched; the returned Collector and Tank are the state at the end of
// the step.
func Advance(c Collector, t Tank, in Inputs, dtSeconds float64, policy MainsPolicy) (Collector, Tank, StepRecord, error) {
	rec := StepRecord{
		Hour:          in.Hour,
		IrradianceWm2: in.IrradianceWm2,
		LoadM3h:       in.LoadM3h,
		PreOverrideC:  t.TemperatureC,
	}
	fail := func(op string, cause error, values map[string]float64) error {
		return &model.NumericalError{
			Step:   in.Step,
			Hour:   in.Hour,
			TimeH:  in.TimeH,
			Op:     op,
			Values: values,
			Err:    cause,
		}
	}

	qCollect := c.GainW(in.IrradianceWm2)
	qLoss := t.LossW()
	if !finite(qCollect) || !finite(qLoss) {
		return c, t, rec, fail("heat rates", model.ErrNonFinite, map[string]float64{
			"q_collect":      qCollect,
			"q_loss":         qLoss,
			"collector_temp": c.TemperatureC,
			"tank_temp":      t.TemperatureC,
		})
	}

	loadMass := t.DensityKgM3 * in.LoadM3h / secondsPerHour

	// Tank fluid needed so that, blended with mains makeup, the draw is
	// delivered at the target temperature and flow.
	var tankMass float64
	denom := t.TemperatureC - t.MainsC
	switch {
	case loadMass == 0:
		tankMass = 0
	case math.Abs(denom) <= equilibriumEpsilon:
		if policy == PolicyAbort {
			return c, t, rec, fail("down-mixing", model.ErrMainsEquilibrium, map[string]float64{
				"tank_temp":      t.TemperatureC,
				"mains_temp":     t.MainsC,
				"load_mass_rate": loadMass,
			})
		}
		tankMass = 0
	default:
		tankMass = loadMass * (t.LoadTargetC - t.MainsC) / denom
	}

	if t.Auxiliary.Enabled && t.TemperatureC < t.Auxiliary.SetpointC {
		rec.AuxEnergyJ = t.HeatCapacityJK() * (t.Auxiliary.SetpointC - t.TemperatureC)
		t.TemperatureC = t.Auxiliary.SetpointC
	}
	rec.IntegratedFromC = t.TemperatureC

	qLoad := tankMass * t.SpecificHeatJKgK * (t.TemperatureC - t.MainsC)
	if t.TemperatureC >= t.LoadTargetC {
		qLoad = loadMass * t.SpecificHeatJKgK * (t.LoadTargetC - t.MainsC)
	}

	next := t.TemperatureC + dtSeconds*(qCollect-qLoss-qLoad)/t.HeatCapacityJK()
	if !finite(next) || !finite(qLoad) {
		return c, t, rec, fail("integration", model.ErrNonFinite, map[string]float64{
			"q_collect": qCollect,
			"q_loss":    qLoss,
			"q_load":    qLoad,
			"tank_temp": t.TemperatureC,
			"dt_s":      dtSeconds,
		})
	}
	t.TemperatureC = next

	if t.TemperatureC > t.MaxC {
		t.TemperatureC = t.MaxC
		rec.Clamped = true
	}

	c = c.Recouple(t.TemperatureC)

	rec.CollectorGainW = qCollect
	rec.TankLossW = qLoss
	rec.LoadDrawW = qLoad
	rec.LoadMassKgS = loadMass
	rec.TankMassKgS = tankMass
	rec.TankC = t.TemperatureC
	rec.CollectorC = c.TemperatureC
	return c, t, rec, nil
}
