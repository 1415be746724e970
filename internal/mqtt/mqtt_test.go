package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/light-controller/internal/turnsignal"
)

var testTime = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

func TestTopics(t *testing.T) {
	if TopicEvents != "vehicle/lights/controller/events" {
		t.Errorf("unexpected events topic %q", TopicEvents)
	}
	if TopicFaults != "vehicle/lights/controller/faults" {
		t.Errorf("unexpected faults topic %q", TopicFaults)
	}
	if TopicSystem != "vehicle/lights/controller/system" {
		t.Errorf("unexpected system topic %q", TopicSystem)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	event := SignalEvent{
		Timestamp:  testTime,
		Transition: turnsignal.Transition{Flag: turnsignal.FlagLeft, On: true},
		Latched:    turnsignal.Intent{Left: true},
		Mode:       turnsignal.ModeLeftActive,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"signal":{"timestamp":"2026-02-10T08:30:00Z","event":"LEFT_ON","mode":"LEFT","left":"ON","right":"OFF","hazard":"OFF"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	event := SignalEvent{
		Timestamp:  time.Date(2026, 2, 10, 9, 30, 0, 0, loc),
		Transition: turnsignal.Transition{Flag: turnsignal.FlagHazard},
		Mode:       turnsignal.ModeInactive,
	}

	payload, _ := FormatPayload(event)
	var parsed SignalPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Signal.Timestamp != "2026-02-10T08:30:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Signal.Timestamp)
	}
	if parsed.Signal.Event != "HAZARD_OFF" {
		t.Errorf("expected HAZARD_OFF, got %s", parsed.Signal.Event)
	}
}

func TestFormatFaultPayload(t *testing.T) {
	event := FaultEvent{Timestamp: testTime, Channel: 3, Raised: true, Mask: 1<<3 | 1<<7}

	payload, err := FormatFaultPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"fault":{"timestamp":"2026-02-10T08:30:00Z","event":"FAULT_RAISED","channel":3,"faulted":[3,7]}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatFaultPayloadClearedEmptyList(t *testing.T) {
	payload, _ := FormatFaultPayload(FaultEvent{Timestamp: testTime, Channel: 0})
	expected := `{"fault":{"timestamp":"2026-02-10T08:30:00Z","event":"FAULT_CLEARED","channel":0,"faulted":[]}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFaultEdges(t *testing.T) {
	if got := FaultEdges(0b101, 0b101, testTime); got != nil {
		t.Errorf("unchanged mask gave %v", got)
	}

	got := FaultEdges(0b0101, 0b0110, testTime)
	if len(got) != 2 {
		t.Fatalf("expected 2 edges, got %v", got)
	}
	if got[0].Channel != 0 || got[0].Raised {
		t.Errorf("expected channel 0 cleared, got %+v", got[0])
	}
	if got[1].Channel != 1 || !got[1].Raised {
		t.Errorf("expected channel 1 raised, got %+v", got[1])
	}
	if got[1].Mask != 0b0110 {
		t.Errorf("expected current mask, got %b", got[1].Mask)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: testTime,
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: testTime, Event: "RECONNECTED"})
	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{}}`)
	payload, _ := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	ev := SignalEvent{Timestamp: testTime, Transition: turnsignal.Transition{Flag: turnsignal.FlagRight, On: true}}

	if err := f.Publish(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishFault(FaultEvent{Timestamp: testTime, Channel: 2, Raised: true, Mask: 1 << 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: testTime, Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 || len(f.Payloads) != 1 {
		t.Errorf("expected 1 signal event, got %d", len(f.Events))
	}
	if len(f.FaultEvents) != 1 || f.FaultEvents[0].Channel != 2 {
		t.Errorf("unexpected fault events %+v", f.FaultEvents)
	}
	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Errorf("unexpected system events %+v", f.SystemEvents)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(SignalEvent{}); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishFault(FaultEvent{}); err == nil {
		t.Error("expected PublishFault error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(f.Events)+len(f.FaultEvents)+len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(SignalEvent{})
	f.Connected = true
	f.Close()

	f.Reset()

	if len(f.Events) != 0 || f.Closed || f.Connected {
		t.Errorf("reset left state behind: %+v", f)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(SignalEvent{}); err != nil {
		t.Error(err)
	}
	if err := p.PublishFault(FaultEvent{}); err != nil {
		t.Error(err)
	}
	if err := p.PublishSystem(SystemEvent{}); err != nil {
		t.Error(err)
	}
	if (NopPublisher{}).IsConnected() {
		t.Error("nop publisher should report disconnected")
	}
}
