package ws

import (
	"encoding/json"

	"solar_water_heater/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimRun  = "sim:run"
	TypeRunList = "run:list" // the reply uses the same type
	TypeRunGet  = "run:get"

	// Server -> Client
	TypeDataLoaded = "data:loaded"
	TypeSimStep    = "sim:step"
	TypeSimDone    = "sim:done"
	TypeSimError   = "sim:error"
	TypeRunWindow  = "run:window"
)

// Error kinds carried by sim:error.
const (
	ErrorKindConfiguration = "configuration"
	ErrorKindNumerical     = "numerical"
	ErrorKindRequest       = "request"
)

// Client -> Server messages

// RunOverrides replace parts of the base configuration for one run. Nil
// fields keep the base value.
type RunOverrides struct {
	TimestepH    *float64 `json:"timestep_h,omitempty"`
	AuxEnabled   *bool    `json:"aux_enabled,omitempty"`
	AuxSetpointC *float64 `json:"aux_setpoint_c,omitempty"`
	TankVolumeL  *float64 `json:"tank_volume_l,omitempty"`
}

type SimRunPayload struct {
	Name      string       `json:"name"`
	Stride    int          `json:"stride"`
	Overrides RunOverrides `json:"overrides"`
}

type RunGetPayload struct {
	Name  string  `json:"name"`
	FromH float64 `json:"from_h"`
	ToH   float64 `json:"to_h"`
}

// Server -> Client messages

type ClockInfo struct {
	StartH float64 `json:"start_h"`
	EndH   float64 `json:"end_h"`
	StepH  float64 `json:"step_h"`
}

type DataLoadedPayload struct {
	IrradianceWm2 []float64 `json:"irradiance_w_m2"`
	LoadLh        []float64 `json:"load_l_h"`
	LoadTargetC   float64   `json:"load_target_c"`
	Clock         ClockInfo `json:"clock"`
	Runs          []string  `json:"runs"`
}

type StepPayload struct {
	Run            string  `json:"run,omitempty"`
	Index          int     `json:"index"`
	TimeH          float64 `json:"time_h"`
	Hour           int     `json:"hour"`
	TankC          float64 `json:"tank_c"`
	CollectorC     float64 `json:"collector_c"`
	AuxEnergyJ     float64 `json:"aux_energy_j"`
	CollectorGainW float64 `json:"q_collect_w"`
	TankLossW      float64 `json:"q_loss_w"`
	LoadDrawW      float64 `json:"q_load_w"`
	Clamped        bool    `json:"clamped"`
}

type DonePayload struct {
	Run     string            `json:"run"`
	Summary simulator.Summary `json:"summary"`
}

type ErrorPayload struct {
	Run     string `json:"run,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type RunInfo struct {
	Name  string  `json:"name"`
	FromH float64 `json:"from_h"`
	ToH   float64 `json:"to_h"`
	Steps int     `json:"steps"`
}

type RunListPayload struct {
	Runs []RunInfo `json:"runs"`
}

type RunWindowPayload struct {
	Name    string        `json:"name"`
	FromH   float64       `json:"from_h"`
	ToH     float64       `json:"to_h"`
	Records []StepPayload `json:"records"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func StepFromRecord(run string, r simulator.StepRecord) StepPayload {
	return StepPayload{
		Run:            run,
		Index:          r.Index,
		TimeH:          r.TimeH,
		Hour:           r.Hour,
		TankC:          r.TankC,
		CollectorC:     r.CollectorC,
		AuxEnergyJ:     r.AuxEnergyJ,
		CollectorGainW: r.CollectorGainW,
		TankLossW:      r.TankLossW,
		LoadDrawW:      r.LoadDrawW,
		Clamped:        r.Clamped,
	}
}
