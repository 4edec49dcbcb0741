package simulator

import (
	"fmt"

	"solar_water_heater/internal/model"
)

// AuxiliaryHeater is the electric backup. SetpointC is meaningful only
// when Enabled.
type AuxiliaryHeater struct {
	Enabled   bool
	SetpointC float64
}

// Tank is the single well-mixed storage node.
type Tank struct {
	VolumeM3         float64
	AreaM2           float64 // envelope area
	InsulationWM2K   float64
	Fluid            string
	DensityKgM3      float64
	SpecificHeatJKgK float64
	AmbientC         float64
	MainsC           float64
	TemperatureC     float64
	MaxC             float64
	LoadTargetC      float64
	Auxiliary        AuxiliaryHeater
}

// MassKg is volume times density.
func (t Tank) MassKg() float64 {
	return t.VolumeM3 * t.DensityKgM3
}

// HeatCapacityJK is m·cp.
func (t Tank) HeatCapacityJK() float64 {
	return t.MassKg() * t.SpecificHeatJKgK
}

// LossW is the rate of heat lost to the surroundings.
func (t Tank) LossW() float64 {
	return t.InsulationWM2K * t.AreaM2 * (t.TemperatureC - t.AmbientC)
}

// Validate checks the physical parameters and the temperature limits.
// An auxiliary setpoint above the max temperature is rejected: the
// override would inject energy that the clamp then discards.
func (t Tank) Validate() error {
	checks := []error{
		requirePositive("tank.volume", t.VolumeM3),
		requirePositive("tank.area", t.AreaM2),
		requireNonNegative("tank.insul", t.InsulationWM2K),
		requirePositive("tank.density", t.DensityKgM3),
		requirePositive("tank.cp", t.SpecificHeatJKgK),
		requireFinite("tank.ambient", t.AmbientC),
		requireFinite("tank.mains_temp", t.MainsC),
		requireFinite("tank.start_temp", t.TemperatureC),
		requireFinite("tank.max_temp", t.MaxC),
		requireFinite("load.temp", t.LoadTargetC),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if t.TemperatureC > t.MaxC {
		return &model.ConfigurationError{
			Param:  "tank.start_temp",
			Reason: fmt.Sprintf("%g exceeds max temperature %g", t.TemperatureC, t.MaxC),
		}
	}
	if t.Auxiliary.Enabled {
		if err := requireFinite("tank.aux_temp", t.Auxiliary.SetpointC); err != nil {
			return err
		}
		if t.Auxiliary.SetpointC > t.MaxC {
			return &model.ConfigurationError{
				Param:  "tank.aux_temp",
				Reason: fmt.Sprintf("setpoint %g exceeds max temperature %g", t.Auxiliary.SetpointC, t.MaxC),
			}
		}
	}
	return nil
}
