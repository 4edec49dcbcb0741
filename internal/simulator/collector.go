package simulator

import (
	"fmt"

	"solar_water_heater/internal/model"
)

// Collector is the flat solar panel. TemperatureC is the only field that
// changes during a run; the engine sets it from the tank every step.
type Collector struct {
	AreaM2            float64 // aperture area
	OpticalEfficiency float64 // (0, 1]
	LossPerK          float64 // linear thermal loss, fraction of irradiance per K
	Fluid             string
	DensityKgM3       float64
	SpecificHeatJKgK  float64
	AmbientC          float64
	TemperatureC      float64
}

// Validate checks the physical parameters.
func (c Collector) Validate() error {
	if err := requirePositive("panel.area", c.AreaM2); err != nil {
		return err
	}
	if !finite(c.OpticalEfficiency) || c.OpticalEfficiency <= 0 || c.OpticalEfficiency > 1 {
		return &model.ConfigurationError{
			Param:  "panel.optical_eff",
			Reason: fmt.Sprintf("must be in (0, 1], got %g", c.OpticalEfficiency),
		}
	}
	if err := requireNonNegative("panel.insul", c.LossPerK); err != nil {
		return err
	}
	if err := requirePositive("panel.density", c.DensityKgM3); err != nil {
		return err
	}
	if err := requirePositive("panel.cp", c.SpecificHeatJKgK); err != nil {
		return err
	}
	if err := requireFinite("panel.ambient", c.AmbientC); err != nil {
		return err
	}
	return requireFinite("panel.start_temp", c.TemperatureC)
}

// GainW returns the collection rate in watts for the given irradiance:
// optical gain minus a loss term linear in (collector - ambient).
// It is negative when the loss term dominates.
func (c Collector) GainW(irradianceWm2 float64) float64 {
	return irradianceWm2 * c.AreaM2 * (c.OpticalEfficiency - c.LossPerK*(c.TemperatureC-c.AmbientC))
}

// Recouple sets the inlet temperature from the tank (100% exchanger) and
// caps it at ambient.
func (c Collector) Recouple(tankC float64) Collector {
	c.TemperatureC = tankC
	if c.TemperatureC > c.AmbientC {
		c.TemperatureC = c.AmbientC
	}
	return c
}
