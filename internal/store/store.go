package store

import (
	"sort"
	"sync"

	"solar_water_heater/internal/simulator"
)

type entry struct {
	result  *simulator.Result
	records []simulator.StepRecord // sorted by TimeH
}

// Store holds finished runs in memory, indexed by name.
type Store struct {
	mu   sync.RWMutex
	runs map[string]entry
}

func New() *Store {
	return &Store{runs: make(map[string]entry)}
}

// Add stores a run, replacing any run with the same name.
func (s *Store) Add(name string, res *simulator.Result) {
	records := res.Series.Records()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TimeH < records[j].TimeH
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[name] = entry{result: res, records: records}
}

// Get returns the stored run.
func (s *Store) Get(name string) (*simulator.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.runs[name]
	return e.result, ok
}

// Delete removes a run and reports whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[name]
	delete(s.runs, name)
	return ok
}

// Names returns the stored run names in lexical order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.runs))
	for name := range s.runs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// RecordCount returns the number of instants recorded for a run.
func (s *Store) RecordCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs[name].records)
}

// TimeRange returns the first and last simulated instant of a run.
func (s *Store) TimeRange(name string) (fromH, toH float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.runs[name].records
	if len(records) == 0 {
		return 0, 0, false
	}
	return records[0].TimeH, records[len(records)-1].TimeH, true
}

// Window returns the records of a run between fromH (inclusive) and toH
// (exclusive).
func (s *Store) Window(name string, fromH, toH float64) []simulator.StepRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.runs[name].records
	if len(all) == 0 {
		return nil
	}

	startIdx := sort.Search(len(all), func(i int) bool {
		return all[i].TimeH >= fromH
	})
	endIdx := sort.Search(len(all), func(i int) bool {
		return all[i].TimeH >= toH
	})

	if startIdx >= endIdx {
		return nil
	}

	result := make([]simulator.StepRecord, endIdx-startIdx)
	copy(result, all[startIdx:endIdx])
	return result
}

// RecordAt returns the latest record at or before t.
func (s *Store) RecordAt(name string, t float64) (simulator.StepRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.runs[name].records
	if len(all) == 0 {
		return simulator.StepRecord{}, false
	}

	// Find first record after t
	idx := sort.Search(len(all), func(i int) bool {
		return all[i].TimeH > t
	})

	if idx == 0 {
		return simulator.StepRecord{}, false
	}
	return all[idx-1], true
}
