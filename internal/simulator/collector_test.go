package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solar_water_heater/internal/model"
)

func TestCollector_GainW(t *testing.T) {
	c := testCollector
	c.TemperatureC = 30

	// 800 W/m² * 2 m² * (0.7 - 0.01*10)
	assert.InDelta(t, 960, c.GainW(800), 1e-9)
	assert.InDelta(t, 0, c.GainW(0), 1e-12)
}

func TestCollector_GainCanBeNegative(t *testing.T) {
	c := testCollector
	c.TemperatureC = 120 // loss term 0.01*100 exceeds 0.7
	assert.Less(t, c.GainW(500), 0.0)
}

func TestCollector_RecoupleCapsAtAmbient(t *testing.T) {
	c := testCollector.Recouple(55)
	assert.Equal(t, testCollector.AmbientC, c.TemperatureC)

	c = testCollector.Recouple(12)
	assert.Equal(t, 12.0, c.TemperatureC)
}

func TestCollector_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Collector)
		param  string
	}{
		{"zero area", func(c *Collector) { c.AreaM2 = 0 }, "panel.area"},
		{"efficiency above one", func(c *Collector) { c.OpticalEfficiency = 1.2 }, "panel.optical_eff"},
		{"zero efficiency", func(c *Collector) { c.OpticalEfficiency = 0 }, "panel.optical_eff"},
		{"negative loss", func(c *Collector) { c.LossPerK = -0.1 }, "panel.insul"},
		{"zero density", func(c *Collector) { c.DensityKgM3 = 0 }, "panel.density"},
		{"negative cp", func(c *Collector) { c.SpecificHeatJKgK = -1 }, "panel.cp"},
	}

	assert.NoError(t, testCollector.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCollector
			tt.mutate(&c)
			err := c.Validate()
			assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
			var cfgErr *model.ConfigurationError
			if assert.ErrorAs(t, err, &cfgErr) {
				assert.Equal(t, tt.param, cfgErr.Param)
			}
		})
	}
}
