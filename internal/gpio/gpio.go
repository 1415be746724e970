// Package gpio provides the GPIO capability used by the lighting core.
// The real implementations use the Linux GPIO character device and an MCP23017
// port expander. The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/light-controller/internal/pinmap"

// Level is the physical level of a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Bit returns 1 for High and 0 for Low.
func (l Level) Bit() uint16 {
	if l {
		return 1
	}
	return 0
}

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// Mode selects the pin direction.
type Mode uint8

const (
	Input Mode = iota
	Output
)

// Pull selects the pin bias.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Pins reads and drives logical pins.
//
// Only Configure reports errors. Write, Toggle and Read are total: a backend
// that fails at runtime logs the failure and carries on, so the scan engines
// and the state machine never see an error.
type Pins interface {
	// Configure sets the direction and bias of pin. Outputs start Low.
	Configure(pin pinmap.PinID, mode Mode, pull Pull) error

	// Write drives pin to level.
	Write(pin pinmap.PinID, level Level)

	// Toggle inverts the driven level of pin.
	Toggle(pin pinmap.PinID)

	// Read returns the current level of pin.
	Read(pin pinmap.PinID) Level

	// Close releases GPIO resources.
	Close() error
}
