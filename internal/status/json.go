package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/light-controller/internal/mux"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Mode          string     `json:"mode"`
	Left          bool       `json:"left"`
	Right         bool       `json:"right"`
	Hazard        bool       `json:"hazard"`
	Inputs        []int      `json:"active_inputs"`
	Faults        []int      `json:"faulted_outputs"`
	FaultLines    int        `json:"fault_lines"`
	Scans         int        `json:"scans"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	LeftOn    int `json:"left_on"`
	LeftOff   int `json:"left_off"`
	RightOn   int `json:"right_on"`
	RightOff  int `json:"right_off"`
	HazardOn  int `json:"hazard_on"`
	HazardOff int `json:"hazard_off"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Chip        string `json:"chip"`
	Serial      string `json:"serial,omitempty"`
	Expander    string `json:"expander,omitempty"`
	Mode        string `json:"mode"`
}

func nonNil(chs []int) []int {
	if chs == nil {
		return []int{}
	}
	return chs
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}
	return StatusInner{
		Mode:          mode,
		Left:          snap.Latched.Left,
		Right:         snap.Latched.Right,
		Hazard:        snap.Latched.Hazard,
		Inputs:        nonNil(snap.Inputs.Channels()),
		Faults:        nonNil(snap.Faults.Channels()),
		FaultLines:    snap.FaultLines,
		Scans:         snap.Scans,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			LeftOn:    snap.Counts.LeftOn,
			LeftOff:   snap.Counts.LeftOff,
			RightOn:   snap.Counts.RightOn,
			RightOff:  snap.Counts.RightOff,
			HazardOn:  snap.Counts.HazardOn,
			HazardOff: snap.Counts.HazardOff,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Chip:        snap.Config.Chip,
			Serial:      snap.Config.Serial,
			Expander:    snap.Config.Expander,
			Mode:        snap.Config.Mode,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// ChannelList renders channel indices for display, "none" when empty.
func ChannelList(chs []int) string {
	if len(chs) == 0 {
		return "none"
	}
	return mux.FormatChannels(chs)
}
