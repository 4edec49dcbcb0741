package ingest

import (
	"io"
)

// Parser reads hour-of-day tables from a source.
type Parser interface {
	Parse(r io.Reader) (Profile, error)
}

// Profile holds the two hour-of-day tables in the units they were read in.
type Profile struct {
	IrradianceWm2 []float64 // W/m²
	LoadLh        []float64 // litres per hour
}
