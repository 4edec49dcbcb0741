// Package export writes a finished run to disk: the time series as CSV
// and the summary as JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"solar_water_heater/internal/simulator"
)

// Row is one CSV line of the time series.
type Row struct {
	TimeH          float64 `csv:"time_h"`
	Hour           int     `csv:"hour"`
	TankC          float64 `csv:"tank_temp_c"`
	CollectorC     float64 `csv:"collector_temp_c"`
	AuxEnergyJ     float64 `csv:"aux_energy_j"`
	CollectorGainW float64 `csv:"q_collect_w"`
	TankLossW      float64 `csv:"q_loss_w"` // at the tank temperature before the aux override
	LoadDrawW      float64 `csv:"q_load_w"`
	Clamped        bool    `csv:"clamped"`
}

// Rows flattens the series, one row per recorded instant.
func Rows(s *simulator.TimeSeries) []*Row {
	rows := make([]*Row, 0, s.Len())
	for _, r := range s.Records() {
		rows = append(rows, &Row{
			TimeH:          r.TimeH,
			Hour:           r.Hour,
			TankC:          r.TankC,
			CollectorC:     r.CollectorC,
			AuxEnergyJ:     r.AuxEnergyJ,
			CollectorGainW: r.CollectorGainW,
			TankLossW:      r.TankLossW,
			LoadDrawW:      r.LoadDrawW,
			Clamped:        r.Clamped,
		})
	}
	return rows
}

// WriteCSV writes the series with a header line.
func WriteCSV(w io.Writer, s *simulator.TimeSeries) error {
	if err := gocsv.Marshal(Rows(s), w); err != nil {
		return fmt.Errorf("writing series CSV: %w", err)
	}
	return nil
}

// ReadCSV parses a file written by WriteCSV.
func ReadCSV(r io.Reader) ([]*Row, error) {
	var rows []*Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading series CSV: %w", err)
	}
	return rows, nil
}

// WriteSummaryJSON writes the summary as indented JSON.
func WriteSummaryJSON(w io.Writer, sum simulator.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return fmt.Errorf("writing summary JSON: %w", err)
	}
	return nil
}

// SaveAll writes series.csv and summary.json into dir and returns the
// paths written.
func SaveAll(dir string, res *simulator.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	csvPath := filepath.Join(dir, "series.csv")
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, res.Series) }); err != nil {
		return nil, err
	}
	jsonPath := filepath.Join(dir, "summary.json")
	if err := writeFile(jsonPath, func(w io.Writer) error { return WriteSummaryJSON(w, res.Summary) }); err != nil {
		return []string{csvPath}, err
	}
	return []string{csvPath, jsonPath}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
