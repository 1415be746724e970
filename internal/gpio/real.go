//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"

	"github.com/sweeney/light-controller/internal/pinmap"
	"github.com/warthog618/go-gpiocdev"
)

// Chip drives pins on a Linux GPIO character device.
type Chip struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	pins   pinmap.Map
	lines  map[pinmap.PinID]*gpiocdev.Line
	levels map[pinmap.PinID]Level
}

// OpenChip opens the named chip (e.g. "gpiochip0") using pins to resolve
// logical pins to line offsets.
func OpenChip(name string, pins pinmap.Map) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &Chip{
		chip:   chip,
		pins:   pins,
		lines:  make(map[pinmap.PinID]*gpiocdev.Line),
		levels: make(map[pinmap.PinID]Level),
	}, nil
}

func biasOption(pull Pull) gpiocdev.LineBias {
	switch pull {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}

// Configure requests the line for pin, or reconfigures it if already held.
func (c *Chip) Configure(pin pinmap.PinID, mode Mode, pull Pull) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	offset := c.pins.Offset(pin)
	if l, ok := c.lines[pin]; ok {
		var err error
		if mode == Output {
			err = l.Reconfigure(gpiocdev.AsOutput(0), biasOption(pull))
		} else {
			err = l.Reconfigure(gpiocdev.AsInput, biasOption(pull))
		}
		if err != nil {
			return fmt.Errorf("reconfigure %s (line %d): %w", pin, offset, err)
		}
		c.levels[pin] = Low
		return nil
	}

	var (
		l   *gpiocdev.Line
		err error
	)
	if mode == Output {
		l, err = c.chip.RequestLine(offset, gpiocdev.AsOutput(0), biasOption(pull), gpiocdev.WithConsumer("light-controller"))
	} else {
		l, err = c.chip.RequestLine(offset, gpiocdev.AsInput, biasOption(pull), gpiocdev.WithConsumer("light-controller"))
	}
	if err != nil {
		return fmt.Errorf("request %s (line %d): %w", pin, offset, err)
	}
	c.lines[pin] = l
	c.levels[pin] = Low
	return nil
}

// Write drives pin to level.
func (c *Chip) Write(pin pinmap.PinID, level Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeLocked(pin, level)
}

func (c *Chip) writeLocked(pin pinmap.PinID, level Level) {
	l, ok := c.lines[pin]
	if !ok {
		log.Printf("gpio: write to unconfigured pin %s", pin)
		return
	}
	if err := l.SetValue(int(level.Bit())); err != nil {
		log.Printf("gpio: write %s: %v", pin, err)
		return
	}
	c.levels[pin] = level
}

// Toggle inverts the last level written to pin.
func (c *Chip) Toggle(pin pinmap.PinID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeLocked(pin, !c.levels[pin])
}

// Read returns the level of pin. Read errors report Low.
func (c *Chip) Read(pin pinmap.PinID) Level {
	c.mu.Lock()
	l, ok := c.lines[pin]
	c.mu.Unlock()
	if !ok {
		log.Printf("gpio: read from unconfigured pin %s", pin)
		return Low
	}
	v, err := l.Value()
	if err != nil {
		log.Printf("gpio: read %s: %v", pin, err)
		return Low
	}
	return v != 0
}

// Close releases all lines and the chip.
// Lines are reconfigured to input with pull-down before release so the lamps
// and selector lines are not left driven while the daemon is down.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for pin, l := range c.lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", pin, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", pin, err))
		}
	}
	c.lines = make(map[pinmap.PinID]*gpiocdev.Line)
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
