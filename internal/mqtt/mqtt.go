// Package mqtt publishes turn signal, output fault and lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/light-controller/internal/mux"
	"github.com/sweeney/light-controller/internal/turnsignal"
)

// Topics.
const (
	TopicEvents = "vehicle/lights/controller/events"
	TopicFaults = "vehicle/lights/controller/faults"
	TopicSystem = "vehicle/lights/controller/system"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a turn signal transition.
	// Returns error if publishing fails (should not crash the process).
	Publish(event SignalEvent) error

	// PublishFault sends an output fault change.
	PublishFault(event FaultEvent) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SignalEvent is one applied turn signal transition and the state after it.
type SignalEvent struct {
	Timestamp  time.Time
	Transition turnsignal.Transition
	Latched    turnsignal.Intent
	Mode       turnsignal.Mode
}

// FaultEvent reports an output channel whose fault line changed.
type FaultEvent struct {
	Timestamp time.Time
	Channel   int
	Raised    bool
	Mask      mux.DiagMask // all faulted channels after the change
}

// Fault event names.
const (
	EventFaultRaised  = "FAULT_RAISED"
	EventFaultCleared = "FAULT_CLEARED"
)

// Name returns FAULT_RAISED or FAULT_CLEARED.
func (e FaultEvent) Name() string {
	if e.Raised {
		return EventFaultRaised
	}
	return EventFaultCleared
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// SignalPayload is the JSON envelope of a signal event.
type SignalPayload struct {
	Signal SignalPayloadInner `json:"signal"`
}

// SignalPayloadInner contains the signal event details.
type SignalPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Mode      string `json:"mode"`
	Left      string `json:"left"`
	Right     string `json:"right"`
	Hazard    string `json:"hazard"`
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// FormatPayload creates the JSON payload for a signal event.
func FormatPayload(event SignalEvent) ([]byte, error) {
	return json.Marshal(SignalPayload{
		Signal: SignalPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Transition.String(),
			Mode:      string(event.Mode),
			Left:      onOff(event.Latched.Left),
			Right:     onOff(event.Latched.Right),
			Hazard:    onOff(event.Latched.Hazard),
		},
	})
}

// FaultPayload is the JSON envelope of a fault event.
type FaultPayload struct {
	Fault FaultPayloadInner `json:"fault"`
}

// FaultPayloadInner contains the fault event details.
type FaultPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Channel   int    `json:"channel"`
	Faulted   []int  `json:"faulted"`
}

// FormatFaultPayload creates the JSON payload for a fault event.
func FormatFaultPayload(event FaultEvent) ([]byte, error) {
	faulted := event.Mask.Channels()
	if faulted == nil {
		faulted = []int{}
	}
	return json.Marshal(FaultPayload{
		Fault: FaultPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Name(),
			Channel:   event.Channel,
			Faulted:   faulted,
		},
	})
}

// SystemPayload is used for events that carry no status snapshot (LWT,
// RECONNECTED).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// FaultEdges compares two diagnostic scans and returns one event per channel
// whose fault line changed, in channel order.
func FaultEdges(prev, cur mux.DiagMask, at time.Time) []FaultEvent {
	changed := prev ^ cur
	if changed == 0 {
		return nil
	}
	var out []FaultEvent
	for _, ch := range changed.Channels() {
		out = append(out, FaultEvent{
			Timestamp: at,
			Channel:   ch,
			Raised:    cur.Faulted(ch),
			Mask:      cur,
		})
	}
	return out
}
