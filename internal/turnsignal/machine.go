package turnsignal

import (
	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/pinmap"
	"github.com/sweeney/light-controller/internal/timer"
)

// Lamp pins of each flag.
var (
	leftLamps   = []pinmap.PinID{pinmap.LeftFront, pinmap.LeftBack}
	rightLamps  = []pinmap.PinID{pinmap.RightFront, pinmap.RightBack}
	hazardLamps = []pinmap.PinID{pinmap.LeftFront, pinmap.LeftBack, pinmap.RightFront, pinmap.RightBack}
)

// BlinkTimer is the part of the timer capability the state machine uses.
type BlinkTimer interface {
	Reset()
	Disable()
}

var _ BlinkTimer = (*timer.Handle)(nil)

// Machine applies driver intent to the lamps.
type Machine struct {
	pins   gpio.Pins
	timer  BlinkTimer
	state  *RuntimeState
	counts Counts
}

// NewMachine creates a Machine with every flag inactive.
func NewMachine(pins gpio.Pins, t BlinkTimer) *Machine {
	return &Machine{
		pins:  pins,
		timer: t,
		state: &RuntimeState{},
	}
}

// State returns the runtime state shared with the turn pulse callback.
func (m *Machine) State() *RuntimeState { return m.state }

// Counts returns a copy of the transition counters.
func (m *Machine) Counts() Counts { return m.counts }

// Pulse returns the timer callback that blinks the latched lamps.
func (m *Machine) Pulse() *TurnPulse {
	return &TurnPulse{pins: m.pins, state: m.state}
}

// Process applies intent and returns the transitions it caused, in the order
// left, right, hazard.
//
// A rising flag switches its lamps on and restarts the blink timer; a falling
// flag switches its lamps off and disables the blink timer. All flags share
// the one timer, so when several flags change at once the last reset or
// disable applied decides whether blinking continues.
//
// Intent with both left and right set panics with *ContractViolation.
func (m *Machine) Process(intent Intent) []Transition {
	if err := intent.Validate(); err != nil {
		panic(&ContractViolation{Intent: intent, Err: err})
	}

	var out []Transition
	if t, ok := m.apply(&m.state.left, intent.Left, FlagLeft, leftLamps); ok {
		out = append(out, t)
	}
	if t, ok := m.apply(&m.state.right, intent.Right, FlagRight, rightLamps); ok {
		out = append(out, t)
	}
	if t, ok := m.apply(&m.state.hazard, intent.Hazard, FlagHazard, hazardLamps); ok {
		out = append(out, t)
	}
	return out
}

type flagCell interface {
	Load() bool
	Store(bool)
}

func (m *Machine) apply(cell flagCell, want bool, flag Flag, lamps []pinmap.PinID) (Transition, bool) {
	if cell.Load() == want {
		return Transition{}, false
	}
	cell.Store(want)

	level := gpio.Low
	if want {
		level = gpio.High
	}
	for _, p := range lamps {
		m.pins.Write(p, level)
	}
	if want {
		m.timer.Reset()
	} else {
		m.timer.Disable()
	}

	m.count(flag, want)
	return Transition{Flag: flag, On: want}, true
}

func (m *Machine) count(flag Flag, on bool) {
	switch {
	case flag == FlagLeft && on:
		m.counts.LeftOn++
	case flag == FlagLeft:
		m.counts.LeftOff++
	case flag == FlagRight && on:
		m.counts.RightOn++
	case flag == FlagRight:
		m.counts.RightOff++
	case flag == FlagHazard && on:
		m.counts.HazardOn++
	case flag == FlagHazard:
		m.counts.HazardOff++
	}
}

// TurnPulse blinks the lamps of every latched flag. Register it with the turn
// pulse timer's dispatcher.
type TurnPulse struct {
	pins  gpio.Pins
	state *RuntimeState
}

var _ timer.Callback = (*TurnPulse)(nil)

// OnTick toggles the lamps of the latched flags. Hazard toggles all four lamps
// in addition to any side that is latched.
func (p *TurnPulse) OnTick(*timer.Handle) {
	if p.state.Left() {
		p.toggle(leftLamps)
	}
	if p.state.Right() {
		p.toggle(rightLamps)
	}
	if p.state.Hazard() {
		p.toggle(hazardLamps)
	}
}

func (p *TurnPulse) toggle(lamps []pinmap.PinID) {
	for _, l := range lamps {
		p.pins.Toggle(l)
	}
}
