// Package chart renders the diagnostic charts of a finished run as PNG
// files. It only reads the result; a rendering failure never touches the
// computed series.
package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"solar_water_heater/internal/model"
	"solar_water_heater/internal/simulator"
)

const (
	defaultOutputDir = "charts"
	joulesPerKJ      = 1000.0
	litresPerM3      = 1000.0
)

// Toggles selects which charts to draw.
type Toggles struct {
	TankTemperature bool
	AuxHeating      bool
	Load            bool
	Irradiance      bool
	OutputDir       string
}

// Any reports whether at least one chart is enabled.
func (t Toggles) Any() bool {
	return t.TankTemperature || t.AuxHeating || t.Load || t.Irradiance
}

// Renderer draws the enabled charts.
type Renderer struct {
	Toggles Toggles
	Width   vg.Length
	Height  vg.Length
}

func NewRenderer(t Toggles) *Renderer {
	if t.OutputDir == "" {
		t.OutputDir = defaultOutputDir
	}
	return &Renderer{Toggles: t, Width: 20 * vg.Centimeter, Height: 12 * vg.Centimeter}
}

type chartSpec struct {
	name    string
	file    string
	title   string
	xLabel  string
	yLabel  string
	xs, ys  []float64
	enabled bool
}

// Render writes every enabled chart and returns the paths written. All
// charts are attempted; failures are returned joined, each as a
// *model.PresentationError.
func (r *Renderer) Render(res *simulator.Result) ([]string, error) {
	if !r.Toggles.Any() {
		return nil, nil
	}
	if err := os.MkdirAll(r.Toggles.OutputDir, 0o755); err != nil {
		return nil, &model.PresentationError{Chart: "output directory", Err: err}
	}

	var written []string
	var errs []error
	for _, spec := range r.specs(res) {
		if !spec.enabled {
			continue
		}
		path := filepath.Join(r.Toggles.OutputDir, spec.file)
		if err := r.draw(spec, path); err != nil {
			errs = append(errs, &model.PresentationError{Chart: spec.name, Err: err})
			continue
		}
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}

func (r *Renderer) specs(res *simulator.Result) []chartSpec {
	elapsed := res.Series.Timeline()
	for i := range elapsed {
		elapsed[i] -= res.Clock.StartH
	}
	auxKJ := res.Series.AuxiliaryEnergy()
	for i := range auxKJ {
		auxKJ[i] /= joulesPerKJ
	}
	hours := make([]float64, model.HoursPerDay)
	for h := range hours {
		hours[h] = float64(h)
	}
	loadL := res.Schedule.Load()
	for h := range loadL {
		loadL[h] *= litresPerM3
	}

	return []chartSpec{
		{
			name:    "tank temperature",
			file:    "tank_temperature.png",
			title:   fmt.Sprintf("System Performance over %g hours", res.Clock.EndH-res.Clock.StartH),
			xLabel:  "Hours Elapsed",
			yLabel:  model.QuantityTankTemp.Label(),
			xs:      elapsed,
			ys:      res.Series.TankTemperature(),
			enabled: r.Toggles.TankTemperature,
		},
		{
			name:    "auxiliary heating",
			file:    "aux_heating.png",
			title:   "Auxiliary heating per step",
			xLabel:  "Hours Elapsed",
			yLabel:  "Auxiliary heating, kJ",
			xs:      elapsed,
			ys:      auxKJ,
			enabled: r.Toggles.AuxHeating,
		},
		{
			name:    "load profile",
			file:    "load_profile.png",
			title:   fmt.Sprintf("Daily load profile, desired temp %g °C", res.Tank.LoadTargetC),
			xLabel:  "Hour of the Day",
			yLabel:  "Water demand, L/h",
			xs:      hours,
			ys:      loadL,
			enabled: r.Toggles.Load,
		},
		{
			name:    "irradiance",
			file:    "irradiance.png",
			title:   "Solar energy profile",
			xLabel:  "Hour of the Day",
			yLabel:  model.QuantityIrradiance.Label(),
			xs:      hours,
			ys:      res.Schedule.Irradiance(),
			enabled: r.Toggles.Irradiance,
		},
	}
}

func (r *Renderer) draw(spec chartSpec, path string) error {
	p, err := linePlot(spec)
	if err != nil {
		return err
	}
	return p.Save(r.Width, r.Height, path)
}

func linePlot(spec chartSpec) (*plot.Plot, error) {
	if len(spec.xs) != len(spec.ys) {
		return nil, fmt.Errorf("%d x values for %d y values", len(spec.xs), len(spec.ys))
	}
	if len(spec.xs) == 0 {
		return nil, errors.New("no data")
	}

	pts := make(plotter.XYs, len(spec.xs))
	for i := range spec.xs {
		pts[i].X = spec.xs[i]
		pts[i].Y = spec.ys[i]
	}

	p := plot.New()
	p.Title.Text = spec.title
	p.X.Label.Text = spec.xLabel
	p.Y.Label.Text = spec.yLabel
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	p.Add(line, points)
	return p, nil
}
