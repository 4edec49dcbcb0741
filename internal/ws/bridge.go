package ws

import (
	"github.com/golang/glog"

	"solar_water_heater/internal/simulator"
)

// Bridge implements simulator.Callback and broadcasts every stride-th
// step of one run, plus its final step, to the WebSocket hub.
type Bridge struct {
	hub    *Hub
	run    string
	stride int
	last   int // index of the final instant
}

// NewBridge streams a run of total instants. A stride below 1 streams
// every step.
func NewBridge(hub *Hub, run string, stride, total int) *Bridge {
	if stride < 1 {
		stride = 1
	}
	return &Bridge{hub: hub, run: run, stride: stride, last: total - 1}
}

func (b *Bridge) OnStep(r simulator.StepRecord) {
	if r.Index%b.stride != 0 && r.Index != b.last {
		return
	}
	b.hub.Broadcast(TypeSimStep, StepFromRecord(b.run, r))
}

func (b *Bridge) OnFinish(s simulator.Summary) {
	glog.V(1).Infof("Run %q done after %d instants", b.run, s.Steps)
	b.hub.Broadcast(TypeSimDone, DonePayload{Run: b.run, Summary: s})
}
