package ingest

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"solar_water_heater/internal/model"
)

// ProfileRow is one line of an hourly profile CSV.
//
// Expected format:
//
//	hour,irradiance_w_m2,load_l_h
//	0,0,0
//	7,150,40
type ProfileRow struct {
	Hour          int     `csv:"hour"`
	IrradianceWm2 float64 `csv:"irradiance_w_m2"`
	LoadLh        float64 `csv:"load_l_h"`
}

// ProfileParser parses hourly profile CSVs. Rows may come in any order but
// every hour 0-23 must appear exactly once.
type ProfileParser struct {
	// Param names the configuration key in errors.
	Param string
}

func NewProfileParser(param string) *ProfileParser {
	return &ProfileParser{Param: param}
}

func (p *ProfileParser) Parse(r io.Reader) (Profile, error) {
	var rows []ProfileRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return Profile{}, p.fail(fmt.Sprintf("parsing CSV: %v", err))
	}
	if len(rows) != model.HoursPerDay {
		return Profile{}, p.fail(fmt.Sprintf("expected %d rows, got %d", model.HoursPerDay, len(rows)))
	}

	prof := Profile{
		IrradianceWm2: make([]float64, model.HoursPerDay),
		LoadLh:        make([]float64, model.HoursPerDay),
	}
	var seen [model.HoursPerDay]bool
	for i, row := range rows {
		line := i + 2 // header is line 1
		if row.Hour < 0 || row.Hour >= model.HoursPerDay {
			return Profile{}, p.fail(fmt.Sprintf("line %d: hour %d out of range", line, row.Hour))
		}
		if seen[row.Hour] {
			return Profile{}, p.fail(fmt.Sprintf("line %d: duplicate hour %d", line, row.Hour))
		}
		seen[row.Hour] = true
		prof.IrradianceWm2[row.Hour] = row.IrradianceWm2
		prof.LoadLh[row.Hour] = row.LoadLh
	}
	return prof, nil
}

func (p *ProfileParser) fail(reason string) error {
	param := p.Param
	if param == "" {
		param = "profile_csv"
	}
	return &model.ConfigurationError{Param: param, Reason: reason}
}

// WriteProfile writes the two tables back out in the format Parse reads.
func WriteProfile(w io.Writer, prof Profile) error {
	if len(prof.IrradianceWm2) != model.HoursPerDay || len(prof.LoadLh) != model.HoursPerDay {
		return fmt.Errorf("profile needs %d entries per table", model.HoursPerDay)
	}
	rows := make([]ProfileRow, model.HoursPerDay)
	for h := range rows {
		rows[h] = ProfileRow{Hour: h, IrradianceWm2: prof.IrradianceWm2[h], LoadLh: prof.LoadLh[h]}
	}
	return gocsv.Marshal(rows, w)
}
