// Package status provides a thread-safe status tracker for the light
// controller. It is read by the HTTP handlers and the heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/light-controller/internal/mux"
	"github.com/sweeney/light-controller/internal/turnsignal"
)

// Config contains controller configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Chip        string
	Serial      string
	Expander    string // I2C bus of the output expander, empty when outputs are on the chip
	Mode        string
}

// Snapshot is a point-in-time view of controller state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Inputs        mux.InputMask
	Faults        mux.DiagMask
	Latched       turnsignal.Intent
	Mode          turnsignal.Mode
	Counts        turnsignal.Counts
	FaultLines    int // fault lines written since startup
	Scans         int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Mode:      turnsignal.ModeInactive,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the result of one scan. Called from the run loop every tick.
func (t *Tracker) Update(inputs mux.InputMask, faults mux.DiagMask, state *turnsignal.RuntimeState, counts turnsignal.Counts, faultLines int) {
	t.mu.Lock()
	t.snap.Inputs = inputs
	t.snap.Faults = faults
	if state != nil {
		t.snap.Latched = state.Intent()
		t.snap.Mode = state.Mode()
	}
	t.snap.Counts = counts
	t.snap.FaultLines += faultLines
	t.snap.Scans++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
