// Command sweep runs the same installation over a grid of tank volumes and
// collector areas and prints a comparison table.
package main

import (
	"context"
	goflag "flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"solar_water_heater/internal/config"
	"solar_water_heater/internal/simulator"
)

type variant struct {
	volumeL float64
	areaM2  float64
}

type result struct {
	variant
	summary simulator.Summary
}

func main() {
	configPath := pflag.StringP("config", "c", "configs/swh.yaml", "installation YAML file")
	volumesFlag := pflag.String("volumes", "100,150,200,300,400", "comma-separated tank volumes in litres")
	areasFlag := pflag.String("areas", "", "comma-separated collector areas in m² (default: the configured area)")
	workers := pflag.IntP("workers", "j", runtime.NumCPU(), "concurrent simulations")
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	pflag.Parse()
	_ = goflag.CommandLine.Parse([]string{})
	defer glog.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}

	volumes, err := parseList(*volumesFlag, "volume")
	if err != nil {
		glog.Fatalf("Invalid volumes %q: %v", *volumesFlag, err)
	}
	areas := []float64{cfg.Collector.AreaM2}
	if *areasFlag != "" {
		if areas, err = parseList(*areasFlag, "area"); err != nil {
			glog.Fatalf("Invalid areas %q: %v", *areasFlag, err)
		}
	}

	results, err := sweep(context.Background(), cfg, variants(volumes, areas), *workers)
	if err != nil {
		glog.Fatalf("Sweep failed: %v", err)
	}
	printTable(os.Stdout, cfg, results)
}

func variants(volumes, areas []float64) []variant {
	sort.Float64s(volumes)
	sort.Float64s(areas)
	out := make([]variant, 0, len(volumes)*len(areas))
	for _, a := range areas {
		for _, v := range volumes {
			out = append(out, variant{volumeL: v, areaM2: a})
		}
	}
	return out
}

// sweep runs every variant on its own copy of the configuration. Results
// keep the order of vs; the first failure cancels the remaining runs.
func sweep(ctx context.Context, base *config.Config, vs []variant, workers int) ([]result, error) {
	results := make([]result, len(vs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, v := range vs {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := base.Clone()
			cfg.SetTankVolumeL(v.volumeL)
			cfg.Collector.AreaM2 = v.areaM2

			r, err := cfg.Build()
			if err != nil {
				return err
			}
			engine, err := r.Engine()
			if err != nil {
				return fmt.Errorf("%g L, %g m²: %w", v.volumeL, v.areaM2, err)
			}
			res, err := engine.Run()
			if err != nil {
				return fmt.Errorf("%g L, %g m²: %w", v.volumeL, v.areaM2, err)
			}
			results[i] = result{variant: v, summary: res.Summary}
			glog.V(1).Infof("%g L, %g m² done", v.volumeL, v.areaM2)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printTable(w io.Writer, cfg *config.Config, results []result) {
	if len(results) == 0 {
		return
	}

	aux := "off"
	if cfg.Tank.Auxiliary.Enabled {
		aux = fmt.Sprintf("%g °C", cfg.Tank.Auxiliary.SetpointC)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tank Size Comparison")
	fmt.Fprintf(w, "  Horizon: %g-%gh at %gh steps, aux setpoint: %s, delivery: %g °C\n",
		cfg.Clock.StartH, cfg.Clock.EndH, cfg.Clock.StepH, aux, cfg.Tank.LoadTargetC)
	fmt.Fprintln(w)

	fmt.Fprintf(w, " %8s │ %7s │ %9s │ %9s │ %10s │ %10s │ %8s\n",
		"Volume", "Area", "Min Tank", "Mean Tank", "Solar", "Auxiliary", "Solar %")
	fmt.Fprintf(w, "──────────┼─────────┼───────────┼───────────┼────────────┼────────────┼──────────\n")
	for _, r := range results {
		fmt.Fprintf(w, " %6.0f L │ %4.1f m² │ %6.1f °C │ %6.1f °C │ %6.2f kWh │ %6.2f kWh │ %7.1f%%\n",
			r.volumeL,
			r.areaM2,
			r.summary.MinTankC,
			r.summary.MeanTankC,
			r.summary.SolarKWh,
			r.summary.AuxKWh,
			r.summary.SolarFraction*100,
		)
	}
	fmt.Fprintln(w)
}

func parseList(s, what string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %v", what, v)
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("no %ss specified", what)
	}
	return vals, nil
}
