package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar_water_heater/internal/config"
	"solar_water_heater/internal/store"
)

const baseYAML = `
panel: {area: 2, optical_eff: 0.7, insul: 0.01, fluid: water, density: 1000, cp: 4186, ambient: 20, start_temp: 20}
solar:
  irradiance: "0 0 0 0 0 0 50 150 300 450 600 700 750 700 600 450 300 150 50 0 0 0 0 0"
tank: {volume: 200, area: 2, insul: 0.5, fluid: water, density: 1000, cp: 4186, ambient: 20, mains_temp: 10, start_temp: 45, max_temp: 95, aux_heat: true, aux_temp: 50}
load:
  profile: "0 0 0 0 0 0 10 40 30 10 5 5 10 5 5 5 10 20 30 40 20 10 5 0"
  temp: 45
simulation: {start: 0, end: 24, timestep: 1}
`

// testHandler parses the base config and wires a handler to a fresh store.
func testHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()
	cfg, err := config.Parse(strings.NewReader(baseYAML))
	require.NoError(t, err)
	st := store.New()
	return NewHandler(NewHub(), cfg, st), st
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// readUntil reads messages until one of the given type arrives and
// returns everything read, that message last.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		env := readJSON(t, conn)
		out = append(out, env)
		if env.Type == msgType {
			return out
		}
	}
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHandler_InitialMessage(t *testing.T) {
	handler, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	env := readJSON(t, conn)
	assert.Equal(t, TypeDataLoaded, env.Type)

	var dl DataLoadedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &dl))
	assert.Len(t, dl.IrradianceWm2, 24)
	assert.Len(t, dl.LoadLh, 24)
	assert.Equal(t, 40.0, dl.LoadLh[7])
	assert.Equal(t, 45.0, dl.LoadTargetC)
	assert.Equal(t, ClockInfo{StartH: 0, EndH: 24, StepH: 1}, dl.Clock)
	assert.Empty(t, dl.Runs)
}

func TestHandler_SimRunStreamsSteps(t *testing.T) {
	handler, st := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn) // data:loaded

	sendJSON(t, conn, TypeSimRun, SimRunPayload{Name: "base", Stride: 6})

	msgs := readUntil(t, conn, TypeSimDone)
	var indices []int
	for _, env := range msgs[:len(msgs)-1] {
		require.Equal(t, TypeSimStep, env.Type)
		var p StepPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, "base", p.Run)
		indices = append(indices, p.Index)
	}
	assert.Equal(t, []int{0, 6, 12, 18, 24}, indices)

	var done DonePayload
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Payload, &done))
	assert.Equal(t, "base", done.Run)
	assert.Equal(t, 25, done.Summary.Steps)

	// The finished run is announced to everyone
	env := readJSON(t, conn)
	require.Equal(t, TypeRunList, env.Type)
	var list RunListPayload
	require.NoError(t, json.Unmarshal(env.Payload, &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, RunInfo{Name: "base", FromH: 0, ToH: 24, Steps: 25}, list.Runs[0])

	_, ok := st.Get("base")
	assert.True(t, ok)
}

func TestHandler_SimRunDefaultName(t *testing.T) {
	handler, st := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimRun, nil)
	readUntil(t, conn, TypeRunList)

	names := st.Names()
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "run-"), names[0])
	assert.Len(t, names[0], len("run-")+8)
}

func TestHandler_Metrics(t *testing.T) {
	handler, _ := testHandler(t)
	m := NewMetrics(prometheus.NewRegistry())
	handler.SetMetrics(m)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clients))

	sendJSON(t, conn, TypeSimRun, SimRunPayload{Name: "ok", Stride: 100})
	readUntil(t, conn, TypeRunList)

	setpoint := 99.0
	sendJSON(t, conn, TypeSimRun, SimRunPayload{Name: "bad", Overrides: RunOverrides{AuxSetpointC: &setpoint}})
	readUntil(t, conn, TypeSimError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(outcomeError)))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.steps))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.setClients(3)
	m.observeRun(time.Now(), 10, nil)
}

func TestHandler_SimRunOverrides(t *testing.T) {
	handler, st := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	vol, step, off := 300.0, 0.5, false
	sendJSON(t, conn, TypeSimRun, SimRunPayload{
		Name:   "big",
		Stride: 100,
		Overrides: RunOverrides{
			TankVolumeL: &vol,
			TimestepH:   &step,
			AuxEnabled:  &off,
		},
	})
	readUntil(t, conn, TypeRunList)

	res, ok := st.Get("big")
	require.True(t, ok)
	assert.InDelta(t, 0.3, res.Tank.VolumeM3, 1e-12)
	assert.Equal(t, 49, res.Series.Len())
	assert.Equal(t, 0.0, res.Summary.AuxJ)

	// The base configuration is untouched
	assert.InDelta(t, 0.2, handler.base.Tank.VolumeM3, 1e-12)
	assert.Equal(t, 1.0, handler.base.Clock.StepH)
	assert.True(t, handler.base.Tank.Auxiliary.Enabled)
}

func TestHandler_SimRunConfigurationError(t *testing.T) {
	handler, st := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	setpoint := 99.0
	sendJSON(t, conn, TypeSimRun, SimRunPayload{Name: "bad", Overrides: RunOverrides{AuxSetpointC: &setpoint}})

	env := readJSON(t, conn)
	require.Equal(t, TypeSimError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "bad", p.Run)
	assert.Equal(t, ErrorKindConfiguration, p.Kind)
	assert.Contains(t, p.Message, "tank.aux_temp")
	assert.Equal(t, 0, st.Len())
}

func TestHandler_SimRunBadTimestep(t *testing.T) {
	tests := []struct {
		name string
		step float64
	}{
		{"zero", 0},
		{"above socket limit", 1e-5},
		{"above engine limit", 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, st := testHandler(t)

			conn, cleanup := dialHandler(t, handler)
			defer cleanup()
			readJSON(t, conn)

			step := tt.step
			sendJSON(t, conn, TypeSimRun, SimRunPayload{Name: "z", Overrides: RunOverrides{TimestepH: &step}})

			env := readJSON(t, conn)
			require.Equal(t, TypeSimError, env.Type)
			var p ErrorPayload
			require.NoError(t, json.Unmarshal(env.Payload, &p))
			assert.Equal(t, ErrorKindConfiguration, p.Kind)
			assert.Contains(t, p.Message, "simulation.timestep")
			assert.Equal(t, 0, st.Len())
		})
	}
}

func TestHandler_RunGet(t *testing.T) {
	handler, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimRun, SimRunPayload{Name: "base", Stride: 100})
	readUntil(t, conn, TypeRunList)

	sendJSON(t, conn, TypeRunGet, RunGetPayload{Name: "base", FromH: 6, ToH: 12})
	env := readJSON(t, conn)
	require.Equal(t, TypeRunWindow, env.Type)

	var w RunWindowPayload
	require.NoError(t, json.Unmarshal(env.Payload, &w))
	assert.Equal(t, "base", w.Name)
	require.Len(t, w.Records, 6)
	assert.Equal(t, 6, w.Records[0].Index)
	assert.Equal(t, 11, w.Records[5].Index)
}

func TestHandler_RunGetErrors(t *testing.T) {
	handler, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	sendJSON(t, conn, TypeRunGet, RunGetPayload{Name: "missing", FromH: 0, ToH: 1})
	env := readJSON(t, conn)
	require.Equal(t, TypeSimError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, ErrorKindRequest, p.Kind)
	assert.Contains(t, p.Message, "missing")
}

func TestHandler_RunList(t *testing.T) {
	handler, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	sendJSON(t, conn, TypeRunList, nil)
	env := readJSON(t, conn)
	require.Equal(t, TypeRunList, env.Type)

	var list RunListPayload
	require.NoError(t, json.Unmarshal(env.Payload, &list))
	assert.Empty(t, list.Runs)
}

func TestHandler_InvalidMessage(t *testing.T) {
	handler, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	// Send invalid JSON and an unknown type; should not crash
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	sendJSON(t, conn, "sim:unknown", nil)

	// Connection still serves requests
	sendJSON(t, conn, TypeRunList, nil)
	env := readJSON(t, conn)
	assert.Equal(t, TypeRunList, env.Type)
}

func TestHandler_InvalidRunPayload(t *testing.T) {
	handler, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"sim:run","payload":{"stride":"x"}}`)))
	env := readJSON(t, conn)
	require.Equal(t, TypeSimError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, ErrorKindRequest, p.Kind)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, ErrorKindRequest, errorKind(assert.AnError))
}
