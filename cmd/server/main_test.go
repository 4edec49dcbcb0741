package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar_water_heater/internal/config"
	"solar_water_heater/internal/store"
	"solar_water_heater/internal/ws"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRouter_Health(t *testing.T) {
	router := newRouter(http.NotFoundHandler(), prometheus.NewRegistry(), filepath.Join(t.TempDir(), "missing"))
	server := httptest.NewServer(router)
	defer server.Close()

	status, body := get(t, server.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)

	resp, err := http.Post(server.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ws.NewMetrics(reg)

	server := httptest.NewServer(newRouter(http.NotFoundHandler(), reg, filepath.Join(t.TempDir(), "missing")))
	defer server.Close()

	status, body := get(t, server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "swh_ws_clients")
}

func TestRouter_Frontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>swh</h1>"), 0o644))

	server := httptest.NewServer(newRouter(http.NotFoundHandler(), prometheus.NewRegistry(), dir))
	defer server.Close()

	status, body := get(t, server.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "swh")
}

func TestPreloadBase(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "swh.yaml"))
	require.NoError(t, err)

	runs := store.New()
	require.NoError(t, preloadBase(cfg, runs))

	res, ok := runs.Get("base")
	require.True(t, ok)
	assert.Equal(t, cfg.Clock.Steps(), res.Series.Len())
	assert.Equal(t, []string{"base"}, runs.Names())
}
