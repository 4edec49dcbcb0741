package simulator

// TimeSeries is the append-only record of a run. Index i corresponds to
// the instant start + i·dt; index 0 is the initial state.
type TimeSeries struct {
	records []StepRecord
}

func newTimeSeries(capacity int) *TimeSeries {
	return &TimeSeries{records: make([]StepRecord, 0, capacity)}
}

func (s *TimeSeries) append(r StepRecord) {
	s.records = append(s.records, r)
}

// Len returns the number of recorded instants.
func (s *TimeSeries) Len() int {
	return len(s.records)
}

// At returns the record at index i.
func (s *TimeSeries) At(i int) StepRecord {
	return s.records[i]
}

// Records returns a copy of every record.
func (s *TimeSeries) Records() []StepRecord {
	out := make([]StepRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Timeline returns the simulated instants in hours.
func (s *TimeSeries) Timeline() []float64 {
	return s.column(func(r StepRecord) float64 { return r.TimeH })
}

// TankTemperature returns the tank temperature at every instant.
func (s *TimeSeries) TankTemperature() []float64 {
	return s.column(func(r StepRecord) float64 { return r.TankC })
}

// CollectorTemperature returns the collector inlet temperature at every instant.
func (s *TimeSeries) CollectorTemperature() []float64 {
	return s.column(func(r StepRecord) float64 { return r.CollectorC })
}

// AuxiliaryEnergy returns the auxiliary energy, in joules, injected during
// the step ending at every instant.
func (s *TimeSeries) AuxiliaryEnergy() []float64 {
	return s.column(func(r StepRecord) float64 { return r.AuxEnergyJ })
}

func (s *TimeSeries) column(f func(StepRecord) float64) []float64 {
	out := make([]float64, len(s.records))
	for i, r := range s.records {
		out[i] = f(r)
	}
	return out
}
