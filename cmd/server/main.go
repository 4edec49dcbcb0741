package main

import (
	goflag "flag"
	"fmt"
	"net/http"
	"os"

	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"solar_water_heater/internal/config"
	"solar_water_heater/internal/store"
	"solar_water_heater/internal/ws"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/swh.yaml", "installation YAML file")
	frontendDir := pflag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	addr := pflag.String("addr", ":8080", "listen address")
	preload := pflag.Bool("preload", true, "run the base configuration at startup and store it as \"base\"")
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	pflag.Parse()
	_ = goflag.CommandLine.Parse([]string{})
	defer glog.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}
	glog.Infof("Config loaded: %s", cfg)

	runs := store.New()
	if *preload {
		if err := preloadBase(cfg, runs); err != nil {
			glog.Fatalf("Base run failed: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := ws.NewHub()
	handler := ws.NewHandler(hub, cfg, runs)
	handler.SetMetrics(ws.NewMetrics(reg))
	router := newRouter(handler, reg, *frontendDir)

	glog.Infof("Starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, handlers.LoggingHandler(os.Stdout, router)); err != nil {
		glog.Fatal(err)
	}
}

// preloadBase runs the unmodified configuration so clients have a run to
// query before requesting their own.
func preloadBase(cfg *config.Config, runs *store.Store) error {
	r, err := cfg.Build()
	if err != nil {
		return err
	}
	engine, err := r.Engine()
	if err != nil {
		return err
	}
	res, err := engine.Run()
	if err != nil {
		return err
	}
	runs.Add("base", res)
	glog.Infof("Base run: %d instants, final tank %.2f°C", res.Summary.Steps, res.Summary.FinalTankC)
	return nil
}

func newRouter(handler http.Handler, gatherer prometheus.Gatherer, frontendDir string) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.Handle("/ws", handler)

	// Serve frontend static files
	if _, err := os.Stat(frontendDir); err == nil {
		glog.Infof("Serving frontend from %s", frontendDir)
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(frontendDir)))
	}
	return router
}
