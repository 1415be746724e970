//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/light-controller/internal/pinmap"
)

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string, pins pinmap.Map) (*Chip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Configure is not implemented on non-Linux platforms.
func (c *Chip) Configure(pin pinmap.PinID, mode Mode, pull Pull) error {
	return errors.New("gpio: not supported")
}

// Write is not implemented on non-Linux platforms.
func (c *Chip) Write(pin pinmap.PinID, level Level) {}

// Toggle is not implemented on non-Linux platforms.
func (c *Chip) Toggle(pin pinmap.PinID) {}

// Read is not implemented on non-Linux platforms.
func (c *Chip) Read(pin pinmap.PinID) Level { return Low }

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}
