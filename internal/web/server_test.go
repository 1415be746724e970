package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/light-controller/internal/status"
	"github.com/sweeney/light-controller/internal/turnsignal"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{
		PollMs:      10,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		Chip:        "gpiochip0",
		Mode:        "run",
	})
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	var state turnsignal.RuntimeState
	tr.Update(0b001, 1<<5, &state, turnsignal.Counts{LeftOn: 5, LeftOff: 4}, 1)
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if len(sj.Status.Faults) != 1 || sj.Status.Faults[0] != 5 {
		t.Errorf("Faults: got %v, want [5]", sj.Status.Faults)
	}
	if sj.Status.Counts.LeftOn != 5 || sj.Status.Counts.LeftOff != 4 {
		t.Errorf("unexpected counts %+v", sj.Status.Counts)
	}
	if sj.Status.Config.Chip != "gpiochip0" {
		t.Errorf("Config.Chip: got %q", sj.Status.Config.Chip)
	}
}

func TestIndexPage(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(0b100, 0, nil, turnsignal.Counts{HazardOn: 1}, 0)

	resp, body := get(t, ts.URL+"/")

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}
	for _, want := range []string{"Light Controller", "INACTIVE", `<td id="inputs">2</td>`, `<td id="faults" class="">none</td>`, "tcp://192.168.1.200:1883"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndexHTMLAlias(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/index.html")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestFaultHighlighted(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(0, 1<<0|1<<11, nil, turnsignal.Counts{}, 2)

	_, body := get(t, ts.URL+"/")
	if !strings.Contains(body, `<td id="faults" class="fault">0,11</td>`) {
		t.Error("faulted outputs should be listed and highlighted")
	}
}

func TestFaultsEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	var state turnsignal.RuntimeState
	tr.Update(0, 1<<3|1<<11, &state, turnsignal.Counts{}, 2)

	resp, body := get(t, ts.URL+"/faults")

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 13 {
		t.Fatalf("expected 12 channels and a total, got %q", body)
	}
	for _, want := range []string{"out0 ok", "out3 FAULT", "out4 ok", "out11 FAULT"} {
		if !strings.Contains(body, want+"\n") {
			t.Errorf("missing %q in %q", want, body)
		}
	}
	if lines[12] != "fault lines: 2" {
		t.Errorf("unexpected total %q", lines[12])
	}
}
