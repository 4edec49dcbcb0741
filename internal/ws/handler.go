package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"solar_water_heater/internal/config"
	"solar_water_heater/internal/model"
	"solar_water_heater/internal/store"
)

// maxRunSteps bounds the instants of a run requested over the socket.
// Every instant may be streamed and is kept in the store.
const maxRunSteps = 1_000_000

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections, runs simulations on request and
// serves completed runs from the store.
type Handler struct {
	hub     *Hub
	base    *config.Config
	store   *store.Store
	metrics *Metrics

	// runMu serialises runs; each run still builds its own state.
	runMu sync.Mutex
}

func NewHandler(hub *Hub, base *config.Config, st *store.Store) *Handler {
	return &Handler{hub: hub, base: base, store: st}
}

// SetMetrics enables instrumentation.
func (h *Handler) SetMetrics(m *Metrics) {
	h.metrics = m
	h.hub.OnClientCount(m.setClients)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := newClient(conn, clientBuffer)
	h.hub.Register(client)
	go client.writePump()

	h.hub.Send(client, TypeDataLoaded, h.dataLoaded())

	// Read messages from client
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				glog.Warningf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		glog.Warningf("Invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeSimRun:
		var p SimRunPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				h.hub.Send(c, TypeSimError, ErrorPayload{Kind: ErrorKindRequest, Message: fmt.Sprintf("invalid sim:run payload: %v", err)})
				return
			}
		}
		name, err := h.runSimulation(p)
		if err != nil {
			glog.Warningf("Run %q failed: %v", name, err)
			h.hub.Send(c, TypeSimError, ErrorPayload{Run: name, Kind: errorKind(err), Message: err.Error()})
			return
		}
		h.hub.Broadcast(TypeRunList, h.runList())

	case TypeRunList:
		h.hub.Send(c, TypeRunList, h.runList())

	case TypeRunGet:
		var p RunGetPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.hub.Send(c, TypeSimError, ErrorPayload{Kind: ErrorKindRequest, Message: fmt.Sprintf("invalid run:get payload: %v", err)})
			return
		}
		window, err := h.window(p)
		if err != nil {
			h.hub.Send(c, TypeSimError, ErrorPayload{Run: p.Name, Kind: ErrorKindRequest, Message: err.Error()})
			return
		}
		h.hub.Send(c, TypeRunWindow, window)

	default:
		glog.Warningf("Unknown message type: %s", env.Type)
	}
}

// runSimulation executes one simulation from the base config plus
// overrides and stores it under the returned name. Steps and the summary
// are broadcast while it runs.
func (h *Handler) runSimulation(p SimRunPayload) (name string, err error) {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	if p.Name == "" {
		p.Name = "run-" + uuid.NewString()[:8]
	}
	start := time.Now()
	steps := 0
	defer func() { h.metrics.observeRun(start, steps, err) }()

	cfg := h.base.Clone()
	p.Overrides.apply(cfg)

	run, err := cfg.Build()
	if err != nil {
		return p.Name, err
	}
	if err := run.Clock.Validate(); err != nil {
		return p.Name, err
	}
	if n := run.Clock.Steps(); n > maxRunSteps {
		return p.Name, &model.ConfigurationError{
			Param:  "simulation.timestep",
			Reason: fmt.Sprintf("%d instants requested, at most %d per run", n, maxRunSteps),
		}
	}
	run.Options.Callback = NewBridge(h.hub, p.Name, p.Stride, run.Clock.Steps())

	engine, err := run.Engine()
	if err != nil {
		return p.Name, err
	}
	res, err := engine.Run()
	if err != nil {
		return p.Name, err
	}
	h.store.Add(p.Name, res)
	steps = res.Series.Len()
	glog.Infof("Run %q finished: %d instants, final tank %.2f°C", p.Name, res.Summary.Steps, res.Summary.FinalTankC)
	return p.Name, nil
}

func (o RunOverrides) apply(cfg *config.Config) {
	if o.TimestepH != nil {
		cfg.Clock.StepH = *o.TimestepH
	}
	if o.AuxEnabled != nil {
		cfg.Tank.Auxiliary.Enabled = *o.AuxEnabled
	}
	if o.AuxSetpointC != nil {
		cfg.Tank.Auxiliary.SetpointC = *o.AuxSetpointC
	}
	if o.TankVolumeL != nil {
		cfg.SetTankVolumeL(*o.TankVolumeL)
	}
}

func (h *Handler) window(p RunGetPayload) (RunWindowPayload, error) {
	if _, ok := h.store.Get(p.Name); !ok {
		return RunWindowPayload{}, fmt.Errorf("unknown run %q", p.Name)
	}
	if p.ToH <= p.FromH {
		return RunWindowPayload{}, fmt.Errorf("empty window [%g, %g)", p.FromH, p.ToH)
	}

	records := h.store.Window(p.Name, p.FromH, p.ToH)
	out := RunWindowPayload{
		Name:    p.Name,
		FromH:   p.FromH,
		ToH:     p.ToH,
		Records: make([]StepPayload, 0, len(records)),
	}
	for _, r := range records {
		out.Records = append(out.Records, StepFromRecord("", r))
	}
	return out, nil
}

func (h *Handler) runList() RunListPayload {
	names := h.store.Names()
	out := RunListPayload{Runs: make([]RunInfo, 0, len(names))}
	for _, name := range names {
		from, to, _ := h.store.TimeRange(name)
		out.Runs = append(out.Runs, RunInfo{
			Name:  name,
			FromH: from,
			ToH:   to,
			Steps: h.store.RecordCount(name),
		})
	}
	return out
}

func (h *Handler) dataLoaded() DataLoadedPayload {
	return DataLoadedPayload{
		IrradianceWm2: h.base.IrradianceWm2,
		LoadLh:        h.base.LoadLh,
		LoadTargetC:   h.base.Tank.LoadTargetC,
		Clock: ClockInfo{
			StartH: h.base.Clock.StartH,
			EndH:   h.base.Clock.EndH,
			StepH:  h.base.Clock.StepH,
		},
		Runs: h.store.Names(),
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidConfiguration):
		return ErrorKindConfiguration
	case errors.Is(err, model.ErrNumerical):
		return ErrorKindNumerical
	default:
		return ErrorKindRequest
	}
}
