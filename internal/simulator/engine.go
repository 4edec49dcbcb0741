package simulator

import (
	"errors"

	"solar_water_heater/internal/model"
)

// ErrFinished is returned by Step once the end instant has been recorded.
var ErrFinished = errors.New("simulation finished")

// Callback receives simulation events. It must not retain or mutate
// engine state.
type Callback interface {
	OnStep(record StepRecord)
	OnFinish(summary Summary)
}

// Options tune a run.
type Options struct {
	MainsPolicy MainsPolicy
	Callback    Callback // may be nil
}

// Result is everything a run produced.
type Result struct {
	Schedule  *model.Schedule
	Clock     Clock
	Series    *TimeSeries
	Collector Collector // final state
	Tank      Tank      // final state
	Summary   Summary
}

// Engine owns the collector and tank state of exactly one run. It is not
// safe for concurrent use; batch callers build one engine per run.
type Engine struct {
	schedule  *model.Schedule
	clock     Clock
	collector Collector
	tank      Tank
	opts      Options

	hours     *HourCounter
	index     int // series index of the latest recorded instant
	steps     int
	dtSeconds float64
	series    *TimeSeries
}

// New validates every parameter and records the initial state. Collector
// and tank are copied; the caller's values are never modified.
func New(schedule *model.Schedule, collector Collector, tank Tank, clock Clock, opts Options) (*Engine, error) {
	if schedule == nil {
		return nil, &model.ConfigurationError{Param: "schedule", Reason: "missing"}
	}
	if err := collector.Validate(); err != nil {
		return nil, err
	}
	if err := tank.Validate(); err != nil {
		return nil, err
	}
	if err := clock.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		schedule:  schedule,
		clock:     clock,
		collector: collector,
		tank:      tank,
		opts:      opts,
		hours:     NewHourCounter(clock.StartH),
		steps:     clock.Steps(),
		dtSeconds: clock.StepSeconds(),
	}
	e.series = newTimeSeries(e.steps)

	initial := StepRecord{
		Index:           0,
		TimeH:           clock.TimeAt(0),
		Hour:            e.hours.Hour(),
		PreOverrideC:    tank.TemperatureC,
		IntegratedFromC: tank.TemperatureC,
		TankC:           tank.TemperatureC,
		CollectorC:      collector.TemperatureC,
	}
	e.record(initial)
	return e, nil
}

// Done reports whether the end instant has been recorded.
func (e *Engine) Done() bool {
	return e.index >= e.steps-1
}

// Collector returns the current collector state.
func (e *Engine) Collector() Collector {
	return e.collector
}

// Tank returns the current tank state.
func (e *Engine) Tank() Tank {
	return e.tank
}

// Series returns the series recorded so far.
func (e *Engine) Series() *TimeSeries {
	return e.series
}

// Step advances the simulation by one fixed step and records the new
// instant. Useful for deterministic testing.
func (e *Engine) Step() (StepRecord, error) {
	if e.Done() {
		return StepRecord{}, ErrFinished
	}

	t := e.clock.TimeAt(e.index)
	hour := e.hours.Advance(t)
	in := Inputs{
		Step:          e.index,
		TimeH:         t,
		Hour:          hour,
		IrradianceWm2: e.schedule.IrradianceAt(hour),
		LoadM3h:       e.schedule.LoadAt(hour),
	}

	collector, tank, rec, err := Advance(e.collector, e.tank, in, e.dtSeconds, e.opts.MainsPolicy)
	if err != nil {
		return StepRecord{}, err
	}
	e.collector = collector
	e.tank = tank
	e.index++

	rec.Index = e.index
	rec.TimeH = e.clock.TimeAt(e.index)
	e.record(rec)
	return rec, nil
}

// Run steps until the end instant and returns the result. On a numerical
// error the partial series is discarded.
func (e *Engine) Run() (*Result, error) {
	for !e.Done() {
		if _, err := e.Step(); err != nil {
			return nil, err
		}
	}

	summary := Summarize(e.series, e.dtSeconds)
	if e.opts.Callback != nil {
		e.opts.Callback.OnFinish(summary)
	}
	return &Result{
		Schedule:  e.schedule,
		Clock:     e.clock,
		Series:    e.series,
		Collector: e.collector,
		Tank:      e.tank,
		Summary:   summary,
	}, nil
}

func (e *Engine) record(r StepRecord) {
	e.series.append(r)
	if e.opts.Callback != nil {
		e.opts.Callback.OnStep(r)
	}
}

// Simulate runs one simulation over [start, end] with step dt (hours) and
// returns the instants, tank temperatures (°C) and auxiliary energy (J).
func Simulate(schedule *model.Schedule, collector Collector, tank Tank, start, end, dt float64) (timeline, tankC, auxJ []float64, err error) {
	e, err := New(schedule, collector, tank, Clock{StartH: start, EndH: end, StepH: dt}, Options{})
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := e.Run()
	if err != nil {
		return nil, nil, nil, err
	}
	return res.Series.Timeline(), res.Series.TankTemperature(), res.Series.AuxiliaryEnergy(), nil
}
