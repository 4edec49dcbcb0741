// Command swh simulates a solar water heater from a YAML installation file,
// logs the run summary, and optionally exports the series and draws charts.
package main

import (
	"errors"
	goflag "flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"solar_water_heater/internal/chart"
	"solar_water_heater/internal/config"
	"solar_water_heater/internal/export"
	"solar_water_heater/internal/ingest"
	"solar_water_heater/internal/model"
	"solar_water_heater/internal/simulator"
)

// Exit codes.
const (
	exitOK = iota
	exitFailure
	exitConfiguration
	exitNumerical
	exitPresentation
)

type options struct {
	configPath  string
	outputDir   string
	chartDir    string
	noCharts    bool
	dumpProfile string
}

func parseFlags(fs *pflag.FlagSet, args []string) (options, error) {
	var opts options
	fs.StringVarP(&opts.configPath, "config", "c", "configs/swh.yaml", "installation YAML file")
	fs.StringVarP(&opts.outputDir, "output", "o", "", "directory for series.csv and summary.json (empty disables export)")
	fs.StringVar(&opts.chartDir, "chart-dir", "", "override graphing.output_dir")
	fs.BoolVar(&opts.noCharts, "no-charts", false, "skip chart rendering")
	fs.StringVar(&opts.dumpProfile, "dump-profile", "", "write the effective hourly profile as CSV to this path")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func main() {
	fs := pflag.NewFlagSet("swh", pflag.ExitOnError)
	// glog registers its flags on the standard flag set.
	fs.AddGoFlagSet(goflag.CommandLine)
	opts, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	_ = goflag.CommandLine.Parse([]string{})

	code := exitOK
	if err := run(opts, os.Stdout); err != nil {
		glog.Errorf("%v", err)
		code = exitCode(err)
	}
	glog.Flush()
	os.Exit(code)
}

func run(opts options, stdout io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	glog.Infof("Loaded %s: %s", opts.configPath, cfg)

	if opts.dumpProfile != "" {
		if err := dumpProfile(opts.dumpProfile, cfg); err != nil {
			return err
		}
		glog.Infof("Wrote profile to %s", opts.dumpProfile)
	}

	r, err := cfg.Build()
	if err != nil {
		return err
	}
	if ratio := simulator.StabilityRatio(r.Tank, r.Clock); ratio >= 1 {
		glog.Warningf("Timestep %gh is unstable for the tank loss term (dt·UA/(m·cp) = %.2f); results may oscillate", r.Clock.StepH, ratio)
	}

	engine, err := r.Engine()
	if err != nil {
		return err
	}
	res, err := engine.Run()
	if err != nil {
		return err
	}
	printSummary(stdout, res)

	if opts.outputDir != "" {
		paths, err := export.SaveAll(opts.outputDir, res)
		if err != nil {
			return err
		}
		for _, p := range paths {
			glog.Infof("Wrote %s", p)
		}
	}

	toggles := cfg.Graphing
	if opts.chartDir != "" {
		toggles.OutputDir = opts.chartDir
	}
	if opts.noCharts || !toggles.Any() {
		return nil
	}
	paths, err := chart.NewRenderer(toggles).Render(res)
	for _, p := range paths {
		glog.Infof("Wrote %s", p)
	}
	return err
}

func dumpProfile(path string, cfg *config.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ingest.WriteProfile(f, ingest.Profile{IrradianceWm2: cfg.IrradianceWm2, LoadLh: cfg.LoadLh}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, res *simulator.Result) {
	s := res.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Solar Water Heater, %g-%gh at %gh steps (%d instants)\n",
		res.Clock.StartH, res.Clock.EndH, res.Clock.StepH, s.Steps)
	fmt.Fprintf(w, "  Tank temperature: min %.2f °C, mean %.2f °C, max %.2f °C, final %.2f °C\n",
		s.MinTankC, s.MeanTankC, s.MaxTankC, s.FinalTankC)
	fmt.Fprintf(w, "  Solar collected:  %8.2f kWh\n", s.SolarKWh)
	fmt.Fprintf(w, "  Load delivered:   %8.2f kWh\n", s.LoadKWh)
	fmt.Fprintf(w, "  Auxiliary heat:   %8.2f kWh\n", s.AuxKWh)
	fmt.Fprintf(w, "  Solar fraction:   %7.1f%%\n", s.SolarFraction*100)
	if s.ClampSteps > 0 {
		fmt.Fprintf(w, "  Max-temperature clamp engaged on %d steps\n", s.ClampSteps)
	}
	fmt.Fprintln(w)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, model.ErrInvalidConfiguration):
		return exitConfiguration
	case errors.Is(err, model.ErrNumerical):
		return exitNumerical
	case errors.Is(err, model.ErrPresentation):
		return exitPresentation
	default:
		return exitFailure
	}
}
