package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"solar_water_heater/internal/model"
)

func flatTable(v float64) []float64 {
	out := make([]float64, model.HoursPerDay)
	for h := range out {
		out[h] = v
	}
	return out
}

func flatSchedule(t *testing.T, irradiance, load float64) *model.Schedule {
	t.Helper()
	s, err := model.NewSchedule(flatTable(irradiance), flatTable(load))
	require.NoError(t, err)
	return s
}

// daySchedule is a rough clear-sky day with morning and evening draws.
func daySchedule(t *testing.T) *model.Schedule {
	t.Helper()
	irr := []float64{0, 0, 0, 0, 0, 0, 50, 150, 300, 450, 600, 700,
		750, 700, 600, 450, 300, 150, 50, 0, 0, 0, 0, 0}
	load := flatTable(0)
	load[7], load[8], load[19], load[20] = 0.04, 0.03, 0.05, 0.02
	s, err := model.NewSchedule(irr, load)
	require.NoError(t, err)
	return s
}

var testCollector = Collector{
	AreaM2:            2,
	OpticalEfficiency: 0.7,
	LossPerK:          0.01,
	Fluid:             "water",
	DensityKgM3:       1000,
	SpecificHeatJKgK:  4186,
	AmbientC:          20,
	TemperatureC:      20,
}

var testTank = Tank{
	VolumeM3:         0.2,
	AreaM2:           2,
	InsulationWM2K:   0.5,
	Fluid:            "water",
	DensityKgM3:      1000,
	SpecificHeatJKgK: 4186,
	AmbientC:         20,
	MainsC:           10,
	TemperatureC:     60,
	MaxC:             95,
	LoadTargetC:      45,
}
