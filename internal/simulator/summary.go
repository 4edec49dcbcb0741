package simulator

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const joulesPerKWh = 3.6e6

// Summary holds run totals.
type Summary struct {
	Steps int `json:"steps"`

	MinTankC   float64 `json:"min_tank_c"`
	MeanTankC  float64 `json:"mean_tank_c"`
	MaxTankC   float64 `json:"max_tank_c"`
	FinalTankC float64 `json:"final_tank_c"`

	SolarJ     float64 `json:"solar_j"`
	LossJ      float64 `json:"loss_j"`
	LoadJ      float64 `json:"load_j"`
	AuxJ       float64 `json:"aux_j"`
	SolarKWh   float64 `json:"solar_kwh"`
	LoadKWh    float64 `json:"load_kwh"`
	AuxKWh     float64 `json:"aux_kwh"`
	ClampSteps int     `json:"clamp_steps"`

	// SolarFraction is solar / (solar + auxiliary), 0 when both are zero.
	SolarFraction float64 `json:"solar_fraction"`
}

// Summarize computes totals over a series. dtSeconds converts step rates
// to energies.
func Summarize(s *TimeSeries, dtSeconds float64) Summary {
	var sum Summary
	sum.Steps = s.Len()
	if s.Len() == 0 {
		return sum
	}

	temps := s.TankTemperature()
	sum.MinTankC = floats.Min(temps)
	sum.MaxTankC = floats.Max(temps)
	sum.MeanTankC = stat.Mean(temps, nil)
	sum.FinalTankC = temps[len(temps)-1]

	n := s.Len() - 1
	gain := make([]float64, 0, n)
	loss := make([]float64, 0, n)
	load := make([]float64, 0, n)
	for _, r := range s.records[1:] {
		gain = append(gain, r.CollectorGainW)
		loss = append(loss, r.TankLossW)
		load = append(load, r.LoadDrawW)
		if r.Clamped {
			sum.ClampSteps++
		}
	}
	sum.SolarJ = floats.Sum(gain) * dtSeconds
	sum.LossJ = floats.Sum(loss) * dtSeconds
	sum.LoadJ = floats.Sum(load) * dtSeconds
	sum.AuxJ = floats.Sum(s.AuxiliaryEnergy())

	sum.SolarKWh = sum.SolarJ / joulesPerKWh
	sum.LoadKWh = sum.LoadJ / joulesPerKWh
	sum.AuxKWh = sum.AuxJ / joulesPerKWh

	if total := sum.SolarJ + sum.AuxJ; total > 0 {
		sum.SolarFraction = sum.SolarJ / total
	}
	return sum
}

// StabilityRatio is dt·UA/(m·cp) for the tank loss term. At or above 1 the
// explicit update overshoots the ambient equilibrium within one step; at
// or above 2 it diverges.
func StabilityRatio(t Tank, c Clock) float64 {
	capacity := t.HeatCapacityJK()
	if capacity <= 0 {
		return 0
	}
	return c.StepSeconds() * t.InsulationWM2K * t.AreaM2 / capacity
}
