// Package config loads the installation description from YAML. Sections
// mirror the physical parts: panel, solar, tank, load, simulation and
// graphing. Volumes are written in litres and converted to m³ here; every
// other quantity is already SI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"solar_water_heater/internal/chart"
	"solar_water_heater/internal/ingest"
	"solar_water_heater/internal/model"
	"solar_water_heater/internal/simulator"
	"solar_water_heater/internal/solar"
)

const litresPerCubicMetre = 1000.0

type file struct {
	Panel      panelSection      `yaml:"panel"`
	Solar      solarSection      `yaml:"solar"`
	Tank       tankSection       `yaml:"tank"`
	Load       loadSection       `yaml:"load"`
	Simulation simulationSection `yaml:"simulation"`
	Graphing   graphingSection   `yaml:"graphing"`
}

type panelSection struct {
	Area       *float64 `yaml:"area"`        // m²
	OpticalEff *float64 `yaml:"optical_eff"` // (0, 1]
	Insul      *float64 `yaml:"insul"`       // 1/K
	Fluid      *string  `yaml:"fluid"`
	Density    *float64 `yaml:"density"`    // kg/m³
	Cp         *float64 `yaml:"cp"`         // J/(kg·K)
	Ambient    *float64 `yaml:"ambient"`    // °C
	StartTemp  *float64 `yaml:"start_temp"` // °C
}

type solarSection struct {
	Irradiance Table           `yaml:"irradiance"` // W/m²
	ProfileCSV string          `yaml:"profile_csv"`
	ClearSky   *solar.ClearSky `yaml:"clear_sky"`
}

type tankSection struct {
	Volume    *float64 `yaml:"volume"` // L
	Area      *float64 `yaml:"area"`   // m²
	Insul     *float64 `yaml:"insul"`  // W/(m²·K)
	Fluid     *string  `yaml:"fluid"`
	Density   *float64 `yaml:"density"` // kg/m³
	Cp        *float64 `yaml:"cp"`      // J/(kg·K)
	Ambient   *float64 `yaml:"ambient"`
	MainsTemp *float64 `yaml:"mains_temp"`
	StartTemp *float64 `yaml:"start_temp"`
	MaxTemp   *float64 `yaml:"max_temp"`
	AuxHeat   *bool    `yaml:"aux_heat"`
	AuxTemp   *float64 `yaml:"aux_temp"`
}

type loadSection struct {
	Profile    Table    `yaml:"profile"` // L/h
	ProfileCSV string   `yaml:"profile_csv"`
	Temp       *float64 `yaml:"temp"` // °C
}

type simulationSection struct {
	Start            *float64 `yaml:"start"`    // h
	End              *float64 `yaml:"end"`      // h
	Timestep         *float64 `yaml:"timestep"` // h
	MainsEquilibrium string   `yaml:"mains_equilibrium"`
}

type graphingSection struct {
	TankTemperature bool   `yaml:"tank_temperature"`
	AuxHeating      bool   `yaml:"aux_heating"`
	Load            bool   `yaml:"load"`
	Irradiance      bool   `yaml:"irradiance"`
	OutputDir       string `yaml:"output_dir"`
}

// Config is a fully validated installation. Tables are kept in the units
// they were written in; Build converts them.
type Config struct {
	Collector     simulator.Collector
	Tank          simulator.Tank
	Clock         simulator.Clock
	MainsPolicy   simulator.MainsPolicy
	IrradianceWm2 []float64
	LoadLh        []float64
	Graphing      chart.Toggles
}

// Run is the independently owned input of one simulation.
type Run struct {
	Schedule  *model.Schedule
	Collector simulator.Collector
	Tank      simulator.Tank
	Clock     simulator.Clock
	Options   simulator.Options
}

// Engine builds the engine for this run.
func (r Run) Engine() (*simulator.Engine, error) {
	return simulator.New(r.Schedule, r.Collector, r.Tank, r.Clock, r.Options)
}

// Load reads and validates a config file. Relative profile_csv paths are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.ConfigurationError{Param: "file", Reason: err.Error()}
	}
	defer f.Close()
	return parse(f, filepath.Dir(path))
}

// Parse reads and validates a config from r. Relative profile_csv paths
// are resolved against the working directory.
func Parse(r io.Reader) (*Config, error) {
	return parse(r, ".")
}

func parse(r io.Reader, baseDir string) (*Config, error) {
	var raw file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &model.ConfigurationError{Param: "file", Reason: "empty"}
		}
		return nil, &model.ConfigurationError{Param: "yaml", Reason: err.Error()}
	}

	cfg, err := raw.resolve(baseDir)
	if err != nil {
		return nil, err
	}
	run, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if err := run.Collector.Validate(); err != nil {
		return nil, err
	}
	if err := run.Tank.Validate(); err != nil {
		return nil, err
	}
	if err := run.Clock.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Build converts the config into a fresh Run. Every call returns new
// values, so concurrent runs never share state.
func (c *Config) Build() (Run, error) {
	load := make([]float64, len(c.LoadLh))
	for i, v := range c.LoadLh {
		load[i] = v / litresPerCubicMetre
	}
	sched, err := model.NewSchedule(c.IrradianceWm2, load)
	if err != nil {
		return Run{}, err
	}
	return Run{
		Schedule:  sched,
		Collector: c.Collector,
		Tank:      c.Tank,
		Clock:     c.Clock,
		Options:   simulator.Options{MainsPolicy: c.MainsPolicy},
	}, nil
}

// Clone returns a deep copy that can be modified independently.
func (c *Config) Clone() *Config {
	out := *c
	out.IrradianceWm2 = append([]float64(nil), c.IrradianceWm2...)
	out.LoadLh = append([]float64(nil), c.LoadLh...)
	return &out
}

// TankVolumeL returns the tank volume in litres.
func (c *Config) TankVolumeL() float64 {
	return c.Tank.VolumeM3 * litresPerCubicMetre
}

// SetTankVolumeL sets the tank volume from litres.
func (c *Config) SetTankVolumeL(litres float64) {
	c.Tank.VolumeM3 = litres / litresPerCubicMetre
}

func (f *file) resolve(baseDir string) (*Config, error) {
	r := &reader{}
	cfg := &Config{}

	p := f.Panel
	cfg.Collector = simulator.Collector{
		AreaM2:            r.float("panel.area", p.Area),
		OpticalEfficiency: r.float("panel.optical_eff", p.OpticalEff),
		LossPerK:          r.float("panel.insul", p.Insul),
		Fluid:             r.str("panel.fluid", p.Fluid),
		DensityKgM3:       r.float("panel.density", p.Density),
		SpecificHeatJKgK:  r.float("panel.cp", p.Cp),
		AmbientC:          r.float("panel.ambient", p.Ambient),
		TemperatureC:      r.float("panel.start_temp", p.StartTemp),
	}

	t := f.Tank
	cfg.Tank = simulator.Tank{
		VolumeM3:         r.float("tank.volume", t.Volume) / litresPerCubicMetre,
		AreaM2:           r.float("tank.area", t.Area),
		InsulationWM2K:   r.float("tank.insul", t.Insul),
		Fluid:            r.str("tank.fluid", t.Fluid),
		DensityKgM3:      r.float("tank.density", t.Density),
		SpecificHeatJKgK: r.float("tank.cp", t.Cp),
		AmbientC:         r.float("tank.ambient", t.Ambient),
		MainsC:           r.float("tank.mains_temp", t.MainsTemp),
		TemperatureC:     r.float("tank.start_temp", t.StartTemp),
		MaxC:             r.float("tank.max_temp", t.MaxTemp),
		LoadTargetC:      r.float("load.temp", f.Load.Temp),
	}
	if r.boolean("tank.aux_heat", t.AuxHeat) {
		cfg.Tank.Auxiliary = simulator.AuxiliaryHeater{
			Enabled:   true,
			SetpointC: r.float("tank.aux_temp", t.AuxTemp),
		}
	}

	s := f.Simulation
	cfg.Clock = simulator.Clock{
		StartH: r.float("simulation.start", s.Start),
		EndH:   r.float("simulation.end", s.End),
		StepH:  r.float("simulation.timestep", s.Timestep),
	}
	if r.err != nil {
		return nil, r.err
	}

	policy, err := simulator.ParseMainsPolicy(s.MainsEquilibrium)
	if err != nil {
		return nil, err
	}
	cfg.MainsPolicy = policy

	if cfg.IrradianceWm2, err = f.Solar.table(baseDir); err != nil {
		return nil, err
	}
	if cfg.LoadLh, err = f.Load.table(baseDir); err != nil {
		return nil, err
	}

	g := f.Graphing
	cfg.Graphing = chart.Toggles{
		TankTemperature: g.TankTemperature,
		AuxHeating:      g.AuxHeating,
		Load:            g.Load,
		Irradiance:      g.Irradiance,
		OutputDir:       g.OutputDir,
	}
	return cfg, nil
}

func (s solarSection) table(baseDir string) ([]float64, error) {
	sources := 0
	for _, set := range []bool{s.Irradiance != nil, s.ProfileCSV != "", s.ClearSky != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, &model.ConfigurationError{
			Param:  "solar",
			Reason: "set exactly one of irradiance, profile_csv, clear_sky",
		}
	}

	switch {
	case s.Irradiance != nil:
		return s.Irradiance, nil
	case s.ProfileCSV != "":
		prof, err := readProfile(baseDir, s.ProfileCSV, "solar.profile_csv")
		if err != nil {
			return nil, err
		}
		return prof.IrradianceWm2, nil
	default:
		if err := s.ClearSky.Validate(); err != nil {
			return nil, err
		}
		return s.ClearSky.Table(), nil
	}
}

func (l loadSection) table(baseDir string) ([]float64, error) {
	if (l.Profile != nil) == (l.ProfileCSV != "") {
		return nil, &model.ConfigurationError{
			Param:  "load",
			Reason: "set exactly one of profile, profile_csv",
		}
	}
	if l.Profile != nil {
		return l.Profile, nil
	}
	prof, err := readProfile(baseDir, l.ProfileCSV, "load.profile_csv")
	if err != nil {
		return nil, err
	}
	return prof.LoadLh, nil
}

func readProfile(baseDir, path, param string) (ingest.Profile, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return ingest.Profile{}, &model.ConfigurationError{Param: param, Reason: err.Error()}
	}
	defer f.Close()
	return ingest.NewProfileParser(param).Parse(f)
}

// reader records the first missing key and returns zero values after it.
type reader struct {
	err error
}

func (r *reader) missing(param string) {
	if r.err == nil {
		r.err = &model.ConfigurationError{Param: param, Reason: "missing"}
	}
}

func (r *reader) float(param string, v *float64) float64 {
	if v == nil {
		r.missing(param)
		return 0
	}
	return *v
}

func (r *reader) str(param string, v *string) string {
	if v == nil {
		r.missing(param)
		return ""
	}
	return *v
}

func (r *reader) boolean(param string, v *bool) bool {
	if v == nil {
		r.missing(param)
		return false
	}
	return *v
}

// String summarises the installation for logs.
func (c *Config) String() string {
	aux := "off"
	if c.Tank.Auxiliary.Enabled {
		aux = fmt.Sprintf("%g°C", c.Tank.Auxiliary.SetpointC)
	}
	return fmt.Sprintf("panel %gm² eff %g, tank %gL max %g°C aux %s, %g-%gh step %gh",
		c.Collector.AreaM2, c.Collector.OpticalEfficiency, c.TankVolumeL(), c.Tank.MaxC, aux,
		c.Clock.StartH, c.Clock.EndH, c.Clock.StepH)
}
