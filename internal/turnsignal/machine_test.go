package turnsignal

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/mux"
	"github.com/sweeney/light-controller/internal/pinmap"
	"github.com/sweeney/light-controller/internal/timer"
)

// recordingTimer logs Reset and Disable calls in order.
type recordingTimer struct {
	calls []string
}

func (r *recordingTimer) Reset()   { r.calls = append(r.calls, "reset") }
func (r *recordingTimer) Disable() { r.calls = append(r.calls, "disable") }

func (r *recordingTimer) last() string {
	if len(r.calls) == 0 {
		return ""
	}
	return r.calls[len(r.calls)-1]
}

func newTestMachine() (*Machine, *gpio.Fake, *recordingTimer) {
	pins := gpio.NewFake()
	rt := &recordingTimer{}
	return NewMachine(pins, rt), pins, rt
}

func TestIntentFromInputs(t *testing.T) {
	tests := []struct {
		mask mux.InputMask
		want Intent
	}{
		{0, Intent{}},
		{0b001, Intent{Left: true}},
		{0b010, Intent{Right: true}},
		{0b100, Intent{Hazard: true}},
		{0b101, Intent{Left: true, Hazard: true}},
		{0xFFF8, Intent{}},
	}
	for _, tt := range tests {
		if got := IntentFromInputs(tt.mask); got != tt.want {
			t.Errorf("IntentFromInputs(%#x) = %+v, want %+v", uint16(tt.mask), got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := (Intent{Left: true, Hazard: true}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Intent{Left: true, Right: true}).Validate(); !errors.Is(err, ErrLeftRightConflict) {
		t.Errorf("expected ErrLeftRightConflict, got %v", err)
	}
}

func TestInitialStateInactive(t *testing.T) {
	m, _, _ := newTestMachine()
	if m.State().Mode() != ModeInactive {
		t.Errorf("expected INACTIVE, got %s", m.State().Mode())
	}
	if m.State().Intent() != (Intent{}) {
		t.Errorf("expected no latched flags, got %+v", m.State().Intent())
	}
}

func TestLeftOn(t *testing.T) {
	m, pins, rt := newTestMachine()

	got := m.Process(Intent{Left: true})

	if len(got) != 1 || got[0] != (Transition{Flag: FlagLeft, On: true}) {
		t.Fatalf("unexpected transitions %v", got)
	}
	if got[0].String() != "LEFT_ON" {
		t.Errorf("expected LEFT_ON, got %s", got[0])
	}
	for _, p := range []pinmap.PinID{pinmap.LeftFront, pinmap.LeftBack} {
		if pins.Level(p) != gpio.High {
			t.Errorf("%s should be high", p)
		}
	}
	for _, p := range []pinmap.PinID{pinmap.RightFront, pinmap.RightBack} {
		if pins.Level(p) != gpio.Low {
			t.Errorf("%s should be low", p)
		}
	}
	if rt.last() != "reset" {
		t.Errorf("expected timer reset, got %v", rt.calls)
	}
	if m.State().Mode() != ModeLeftActive {
		t.Errorf("expected LEFT, got %s", m.State().Mode())
	}
}

func TestLeftOnThenOff(t *testing.T) {
	m, pins, rt := newTestMachine()

	m.Process(IntentFromInputs(0b001))
	got := m.Process(IntentFromInputs(0b000))

	if len(got) != 1 || got[0].String() != "LEFT_OFF" {
		t.Fatalf("unexpected transitions %v", got)
	}
	if pins.Level(pinmap.LeftFront) != gpio.Low || pins.Level(pinmap.LeftBack) != gpio.Low {
		t.Error("left lamps should be low")
	}
	if want := []string{"reset", "disable"}; !equal(rt.calls, want) {
		t.Errorf("timer calls = %v, want %v", rt.calls, want)
	}
	if m.State().Mode() != ModeInactive {
		t.Errorf("expected INACTIVE, got %s", m.State().Mode())
	}
	c := m.Counts()
	if c.LeftOn != 1 || c.LeftOff != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
}

func TestProcessIdempotent(t *testing.T) {
	intents := []Intent{{}, {Left: true}, {Right: true, Hazard: true}, {Hazard: true}}
	for _, in := range intents {
		m, pins, rt := newTestMachine()
		m.Process(in)
		pins.ClearOps()
		calls := len(rt.calls)

		if got := m.Process(in); len(got) != 0 {
			t.Errorf("%+v: second Process gave transitions %v", in, got)
		}
		if ops := pins.Ops(); len(ops) != 0 {
			t.Errorf("%+v: second Process touched pins: %v", in, ops)
		}
		if len(rt.calls) != calls {
			t.Errorf("%+v: second Process touched timer: %v", in, rt.calls[calls:])
		}
	}
}

func TestLeftAndRightPanics(t *testing.T) {
	m, pins, rt := newTestMachine()

	defer func() {
		r := recover()
		cv, ok := r.(*ContractViolation)
		if !ok {
			t.Fatalf("expected *ContractViolation panic, got %v", r)
		}
		if !errors.Is(cv, ErrLeftRightConflict) {
			t.Errorf("expected ErrLeftRightConflict, got %v", cv.Err)
		}
		if len(pins.Ops()) != 0 || len(rt.calls) != 0 {
			t.Error("rejected intent must not drive outputs")
		}
		if m.State().Intent() != (Intent{}) {
			t.Errorf("rejected intent latched %+v", m.State().Intent())
		}
	}()

	m.Process(IntentFromInputs(0b011))
	t.Fatal("expected panic")
}

func TestHazardAndLeftSameScan(t *testing.T) {
	m, pins, rt := newTestMachine()

	got := m.Process(Intent{Left: true, Hazard: true})

	if len(got) != 2 || got[0].Flag != FlagLeft || got[1].Flag != FlagHazard {
		t.Fatalf("expected LEFT then HAZARD, got %v", got)
	}
	for _, p := range []pinmap.PinID{pinmap.LeftFront, pinmap.LeftBack, pinmap.RightFront, pinmap.RightBack} {
		if pins.Level(p) != gpio.High {
			t.Errorf("%s should be high", p)
		}
	}
	if m.State().Mode() != ModeHazardActive {
		t.Errorf("hazard should take precedence, got %s", m.State().Mode())
	}

	// Left off while hazard stays on: the shared timer is disabled last.
	m.Process(Intent{Hazard: true})
	if rt.last() != "disable" {
		t.Errorf("expected last timer call disable, got %v", rt.calls)
	}
}

func TestLastTimerCallWins(t *testing.T) {
	m, _, rt := newTestMachine()
	m.Process(Intent{Left: true})
	rt.calls = nil

	// Left falls and hazard rises on one scan: disable then reset.
	m.Process(Intent{Hazard: true})

	if want := []string{"disable", "reset"}; !equal(rt.calls, want) {
		t.Errorf("timer calls = %v, want %v", rt.calls, want)
	}
}

func TestTurnPulseTogglesLatchedLamps(t *testing.T) {
	m, pins, _ := newTestMachine()
	m.Process(Intent{Right: true})
	pins.ClearOps()

	pulse := m.Pulse()
	pulse.OnTick(nil)

	toggles := pins.OpsOf(gpio.OpToggle)
	if len(toggles) != 2 {
		t.Fatalf("expected 2 toggles, got %v", toggles)
	}
	if toggles[0].Pin != pinmap.RightFront || toggles[1].Pin != pinmap.RightBack {
		t.Errorf("unexpected toggle order %v", toggles)
	}
	if pins.Level(pinmap.RightFront) != gpio.Low {
		t.Error("right front should be low after one pulse")
	}
}

func TestTurnPulseInactiveWritesNothing(t *testing.T) {
	m, pins, _ := newTestMachine()
	m.Process(Intent{Left: true})
	m.Process(Intent{})
	pins.ClearOps()

	m.Pulse().OnTick(nil)

	if ops := pins.Ops(); len(ops) != 0 {
		t.Errorf("expected no pin operations, got %v", ops)
	}
}

func TestBlinkWithRealTimer(t *testing.T) {
	pins := gpio.NewFake()
	h := timer.New("turn")
	h.Init(timer.TurnPulsePeriod, timer.IRQTurnPulse)
	m := NewMachine(pins, h)
	d := timer.NewDispatcher(h, m.Pulse())

	m.Process(Intent{Left: true})
	pins.ClearOps()

	const n = 4
	for i := 0; i < n; i++ {
		if h.Advance(timer.TurnPulsePeriod) {
			d.HandleIRQ(timer.IRQTurnPulse)
		}
	}
	if got := len(pins.OpsOf(gpio.OpToggle)); got != 2*n {
		t.Errorf("expected %d toggles, got %d", 2*n, got)
	}
	if pins.Level(pinmap.LeftFront) != gpio.High {
		t.Error("even number of pulses should leave the lamp on")
	}

	m.Process(Intent{})
	pins.ClearOps()
	for i := 0; i < n; i++ {
		if h.Advance(timer.TurnPulsePeriod) {
			d.HandleIRQ(timer.IRQTurnPulse)
		}
	}
	if ops := pins.Ops(); len(ops) != 0 {
		t.Errorf("expected no writes after left off, got %v", ops)
	}
	if h.Enabled() {
		t.Error("turn timer should be disabled")
	}
}

func TestResetDelaysFirstPulse(t *testing.T) {
	pins := gpio.NewFake()
	h := timer.New("turn")
	h.Init(time.Second, timer.IRQTurnPulse)
	m := NewMachine(pins, h)

	h.Advance(900 * time.Millisecond)
	m.Process(Intent{Hazard: true})

	if h.Advance(200 * time.Millisecond) {
		t.Error("reset should restart the period")
	}
	if !h.Advance(800 * time.Millisecond) {
		t.Error("expected update one period after reset")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
