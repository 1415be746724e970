// Package turnsignal contains the turn-signal and hazard light state machine.
// It drives lamp pins through the GPIO capability and owns the runtime state
// read by the turn pulse timer callback.
package turnsignal

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sweeney/light-controller/internal/mux"
)

// Input channels carrying driver intent.
const (
	InputLeft   = 0
	InputRight  = 1
	InputHazard = 2
)

// ErrLeftRightConflict means the left and right turn inputs were both active.
// This is a wiring or sensor fault, never a state to resolve.
var ErrLeftRightConflict = errors.New("left and right turn signal both requested")

// Intent is what the driver asks for on this scan.
type Intent struct {
	Left   bool
	Right  bool
	Hazard bool
}

// IntentFromInputs derives intent from input channels 0 (left), 1 (right) and
// 2 (hazard).
func IntentFromInputs(m mux.InputMask) Intent {
	return Intent{
		Left:   m.Active(InputLeft),
		Right:  m.Active(InputRight),
		Hazard: m.Active(InputHazard),
	}
}

// Validate checks the left/right exclusion.
func (i Intent) Validate() error {
	if i.Left && i.Right {
		return ErrLeftRightConflict
	}
	return nil
}

// ContractViolation is the panic value raised when invalid intent reaches the
// state machine.
type ContractViolation struct {
	Intent Intent
	Err    error
}

func (c *ContractViolation) Error() string {
	return fmt.Sprintf("turn signal contract violation: %v (intent %+v)", c.Err, c.Intent)
}

func (c *ContractViolation) Unwrap() error { return c.Err }

// Mode is the latched signalling mode for reporting.
type Mode string

const (
	ModeInactive     Mode = "INACTIVE"
	ModeLeftActive   Mode = "LEFT"
	ModeRightActive  Mode = "RIGHT"
	ModeHazardActive Mode = "HAZARD"
)

// RuntimeState is the latched signal state.
//
// The run loop is the only writer and the turn pulse callback the only reader.
// Each flag is its own atomic so a read always sees the value before or after
// a transition, never a torn update of a shared word.
type RuntimeState struct {
	left   atomic.Bool
	right  atomic.Bool
	hazard atomic.Bool
}

// Left reports whether the left turn signal is latched.
func (s *RuntimeState) Left() bool { return s.left.Load() }

// Right reports whether the right turn signal is latched.
func (s *RuntimeState) Right() bool { return s.right.Load() }

// Hazard reports whether the hazard lights are latched.
func (s *RuntimeState) Hazard() bool { return s.hazard.Load() }

// Intent returns the latched flags.
func (s *RuntimeState) Intent() Intent {
	return Intent{Left: s.Left(), Right: s.Right(), Hazard: s.Hazard()}
}

// Mode returns the latched mode. Hazard takes precedence.
func (s *RuntimeState) Mode() Mode {
	switch {
	case s.Hazard():
		return ModeHazardActive
	case s.Left():
		return ModeLeftActive
	case s.Right():
		return ModeRightActive
	default:
		return ModeInactive
	}
}

// Flag names one of the latched signals.
type Flag string

const (
	FlagLeft   Flag = "LEFT"
	FlagRight  Flag = "RIGHT"
	FlagHazard Flag = "HAZARD"
)

// Transition is one applied change of a latched flag.
type Transition struct {
	Flag Flag
	On   bool
}

func (t Transition) String() string {
	if t.On {
		return string(t.Flag) + "_ON"
	}
	return string(t.Flag) + "_OFF"
}

// Counts tracks applied transitions since startup.
type Counts struct {
	LeftOn    int
	LeftOff   int
	RightOn   int
	RightOff  int
	HazardOn  int
	HazardOff int
}
