package simulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar_water_heater/internal/model"
)

func TestAdvance_ZeroInputsOnlyLoses(t *testing.T) {
	c, tk, rec, err := Advance(testCollector, testTank, Inputs{}, 3600, PolicyZeroFlow)
	require.NoError(t, err)

	// 3600 s * 40 W / (200 kg * 4186 J/kgK)
	want := 60 - 3600*40/(200*4186.0)
	assert.InDelta(t, want, tk.TemperatureC, 1e-9)
	assert.InDelta(t, 40, rec.TankLossW, 1e-9)
	assert.Zero(t, rec.CollectorGainW)
	assert.Zero(t, rec.LoadDrawW)
	assert.Equal(t, testCollector.AmbientC, c.TemperatureC)
}

func TestAdvance_DoesNotMutateInputs(t *testing.T) {
	c := testCollector
	tk := testTank
	_, _, _, err := Advance(c, tk, Inputs{IrradianceWm2: 800, LoadM3h: 0.05}, 900, PolicyZeroFlow)
	require.NoError(t, err)
	assert.Equal(t, testCollector, c)
	assert.Equal(t, testTank, tk)
}

func TestAdvance_LoadAboveTarget(t *testing.T) {
	// 0.036 m³/h * 1000 kg/m³ / 3600 = 0.01 kg/s
	_, _, rec, err := Advance(testCollector, testTank, Inputs{LoadM3h: 0.036}, 60, PolicyZeroFlow)
	require.NoError(t, err)

	assert.InDelta(t, 0.01, rec.LoadMassKgS, 1e-12)
	// Down-mixed: 0.01 * (45-10) / (60-10)
	assert.InDelta(t, 0.007, rec.TankMassKgS, 1e-12)
	// Delivered at target: 0.01 * 4186 * 35
	assert.InDelta(t, 1465.1, rec.LoadDrawW, 1e-9)
}

func TestAdvance_LoadBelowTargetDeliversTankHeat(t *testing.T) {
	tk := testTank
	tk.TemperatureC = 30
	_, _, rec, err := Advance(testCollector, tk, Inputs{LoadM3h: 0.036}, 60, PolicyZeroFlow)
	require.NoError(t, err)

	// tankMass = 0.01 * 35 / 20
	assert.InDelta(t, 0.0175, rec.TankMassKgS, 1e-12)
	// Qout = 0.0175 * 4186 * 20
	assert.InDelta(t, 1465.1, rec.LoadDrawW, 1e-9)
}

func TestAdvance_AuxOverrideBeforeIntegration(t *testing.T) {
	tk := testTank
	tk.TemperatureC = 30
	tk.Auxiliary = AuxiliaryHeater{Enabled: true, SetpointC: 50}

	_, next, rec, err := Advance(testCollector, tk, Inputs{}, 3600, PolicyZeroFlow)
	require.NoError(t, err)

	assert.InDelta(t, tk.HeatCapacityJK()*20, rec.AuxEnergyJ, 1e-6)
	assert.Equal(t, 30.0, rec.PreOverrideC)
	assert.Equal(t, 50.0, rec.IntegratedFromC)

	// Loss is computed from the pre-override temperature (30 °C).
	lossW := 0.5 * 2 * (30.0 - 20)
	assert.InDelta(t, lossW, rec.TankLossW, 1e-9)
	assert.InDelta(t, 50-3600*lossW/tk.HeatCapacityJK(), next.TemperatureC, 1e-9)
}

func TestAdvance_AuxIdleAboveSetpoint(t *testing.T) {
	tk := testTank
	tk.Auxiliary = AuxiliaryHeater{Enabled: true, SetpointC: 50}
	_, _, rec, err := Advance(testCollector, tk, Inputs{}, 3600, PolicyZeroFlow)
	require.NoError(t, err)
	assert.Zero(t, rec.AuxEnergyJ)
	assert.Equal(t, 60.0, rec.IntegratedFromC)
}

func TestAdvance_ClampsAtMax(t *testing.T) {
	tk := testTank
	tk.TemperatureC = 94
	_, next, rec, err := Advance(testCollector, tk, Inputs{IrradianceWm2: 1000}, 3600, PolicyZeroFlow)
	require.NoError(t, err)
	assert.True(t, rec.Clamped)
	assert.Equal(t, tk.MaxC, next.TemperatureC)
	assert.Equal(t, tk.MaxC, rec.TankC)
}

func TestAdvance_MainsEquilibrium(t *testing.T) {
	tk := testTank
	tk.TemperatureC = tk.MainsC
	tk.AmbientC = tk.MainsC
	in := Inputs{Step: 7, Hour: 8, TimeH: 7, LoadM3h: 0.05}

	t.Run("zero flow", func(t *testing.T) {
		_, next, rec, err := Advance(testCollector, tk, in, 3600, PolicyZeroFlow)
		require.NoError(t, err)
		assert.Zero(t, rec.TankMassKgS)
		assert.Zero(t, rec.LoadDrawW)
		assert.Equal(t, tk.MainsC, next.TemperatureC)
	})

	t.Run("abort", func(t *testing.T) {
		_, _, _, err := Advance(testCollector, tk, in, 3600, PolicyAbort)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNumerical)
		assert.ErrorIs(t, err, model.ErrMainsEquilibrium)

		var numErr *model.NumericalError
		require.True(t, errors.As(err, &numErr))
		assert.Equal(t, 7, numErr.Step)
		assert.Equal(t, 8, numErr.Hour)
		assert.Equal(t, tk.MainsC, numErr.Values["tank_temp"])
	})

	t.Run("no draw needs no ratio", func(t *testing.T) {
		noDraw := in
		noDraw.LoadM3h = 0
		_, _, _, err := Advance(testCollector, tk, noDraw, 3600, PolicyAbort)
		assert.NoError(t, err)
	})
}

func TestAdvance_NonFiniteAborts(t *testing.T) {
	c := testCollector
	c.LossPerK = 1e308
	c.TemperatureC = 30

	_, _, _, err := Advance(c, testTank, Inputs{IrradianceWm2: 1000}, 3600, PolicyZeroFlow)
	assert.ErrorIs(t, err, model.ErrNonFinite)
	assert.ErrorIs(t, err, model.ErrNumerical)
}

func TestParseMainsPolicy(t *testing.T) {
	p, err := ParseMainsPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyZeroFlow, p)

	p, err = ParseMainsPolicy("abort")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)
	assert.Equal(t, "abort", p.String())

	_, err = ParseMainsPolicy("maybe")
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}
