// Package lights switches the outputs that do not blink: head and rear lights,
// brake light and horn. The turn and hazard lamps belong to package turnsignal.
package lights

import (
	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/mux"
	"github.com/sweeney/light-controller/internal/pinmap"
)

// Input channels of the driver controls. Channels 0-2 are the turn signal and
// hazard switches.
const (
	InputIgnition   = 3
	InputLightOn    = 4
	InputFullBeam   = 5
	InputBrakeFront = 6
	InputBrakeRear  = 7
	InputHorn       = 8
	InputKillSwitch = 9
	InputSideStand  = 10
)

// Output channels driven by Apply.
const (
	OutputLowBeam  = 0
	OutputFullBeam = 1
	OutputParking  = 2
	OutputRear     = 7
	OutputBrake    = 8
	OutputHorn     = 9
)

// Controls is the state of the driver controls other than the turn switches.
type Controls struct {
	Ignition   bool
	LightOn    bool
	FullBeam   bool
	BrakeFront bool
	BrakeRear  bool
	Horn       bool
	KillSwitch bool // on KILL
	SideStand  bool // stand out
}

// ControlsFromInputs decodes the driver controls from a scan.
func ControlsFromInputs(m mux.InputMask) Controls {
	return Controls{
		Ignition:   m.Active(InputIgnition),
		LightOn:    m.Active(InputLightOn),
		FullBeam:   m.Active(InputFullBeam),
		BrakeFront: m.Active(InputBrakeFront),
		BrakeRear:  m.Active(InputBrakeRear),
		Horn:       m.Active(InputHorn),
		KillSwitch: m.Active(InputKillSwitch),
		SideStand:  m.Active(InputSideStand),
	}
}

// Outputs is the wanted level of each light.
type Outputs struct {
	LowBeam  bool
	FullBeam bool
	Parking  bool
	Rear     bool
	Brake    bool
	Horn     bool
}

// Switch computes the lights for c.
//
// With the ignition on, the light switch gives low beam and rear light, and
// full beam follows its switch. With the ignition off, the light switch gives
// parking and rear light only and full beam is ignored. Brake and horn work
// regardless of the ignition.
func Switch(c Controls) Outputs {
	out := Outputs{
		Brake: c.BrakeFront || c.BrakeRear,
		Horn:  c.Horn,
	}
	if !c.LightOn {
		return out
	}
	out.Rear = true
	if c.Ignition {
		out.LowBeam = true
		out.FullBeam = c.FullBeam
	} else {
		out.Parking = true
	}
	return out
}

// Apply writes o to the output stage.
func Apply(pins gpio.Pins, o Outputs) {
	pins.Write(pinmap.OutputPin(OutputLowBeam), gpio.Level(o.LowBeam))
	pins.Write(pinmap.OutputPin(OutputFullBeam), gpio.Level(o.FullBeam))
	pins.Write(pinmap.OutputPin(OutputParking), gpio.Level(o.Parking))
	pins.Write(pinmap.OutputPin(OutputRear), gpio.Level(o.Rear))
	pins.Write(pinmap.OutputPin(OutputBrake), gpio.Level(o.Brake))
	pins.Write(pinmap.OutputPin(OutputHorn), gpio.Level(o.Horn))
}
