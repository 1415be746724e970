package gpio

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sweeney/light-controller/internal/pinmap"
	"tinygo.org/x/drivers"
)

// MCP23017 registers in the default paired layout (IOCON.BANK=0). Port A is
// the low byte and port B the high byte of every 16-bit register.
const (
	regIODIR = 0x00 // 1: input, 0: output
	regGPPU  = 0x0C // 1: 100k pull-up
	regGPIO  = 0x12
	regOLAT  = 0x14
)

// ExpanderAddress is the MCP23017 address with A0-A2 tied low.
const ExpanderAddress = 0x20

// ErrPullDownUnsupported is returned when a pull-down is requested on an
// expander input; the MCP23017 only has pull-ups.
var ErrPullDownUnsupported = errors.New("mcp23017: pull-down not supported")

// Expander drives pins on an MCP23017 I2C port expander.
type Expander struct {
	mu   sync.Mutex
	bus  drivers.I2C
	addr uint16
	pins map[pinmap.PinID]uint8 // logical pin -> expander pin 0..15

	iodir uint16
	gppu  uint16
	olat  uint16
}

// NewExpander resets the expander at addr to all-inputs and returns it.
// pins assigns each logical pin handled by the expander to an expander pin
// (0-7 on port A, 8-15 on port B).
func NewExpander(bus drivers.I2C, addr uint16, pins map[pinmap.PinID]uint8) (*Expander, error) {
	for p, n := range pins {
		if n > 15 {
			return nil, fmt.Errorf("mcp23017: %s mapped to pin %d", p, n)
		}
	}
	e := &Expander{
		bus:   bus,
		addr:  addr,
		pins:  pins,
		iodir: 0xFFFF,
	}
	if err := e.writeReg(regOLAT, 0); err != nil {
		return nil, fmt.Errorf("mcp23017 at %#x: %w", addr, err)
	}
	if err := e.writeReg(regGPPU, 0); err != nil {
		return nil, fmt.Errorf("mcp23017 at %#x: %w", addr, err)
	}
	if err := e.writeReg(regIODIR, e.iodir); err != nil {
		return nil, fmt.Errorf("mcp23017 at %#x: %w", addr, err)
	}
	return e, nil
}

// OutputChannelPins maps the twelve output channels to expander pins 0-11.
func OutputChannelPins() map[pinmap.PinID]uint8 {
	m := make(map[pinmap.PinID]uint8, pinmap.NumOutputs)
	for ch := 0; ch < pinmap.NumOutputs; ch++ {
		m[pinmap.OutputPin(ch)] = uint8(ch)
	}
	return m
}

// Handles reports whether pin is wired to this expander.
func (e *Expander) Handles(pin pinmap.PinID) bool {
	_, ok := e.pins[pin]
	return ok
}

func (e *Expander) writeReg(reg uint8, v uint16) error {
	return e.bus.Tx(e.addr, []byte{reg, byte(v), byte(v >> 8)}, nil)
}

func (e *Expander) readReg(reg uint8) (uint16, error) {
	buf := make([]byte, 2)
	if err := e.bus.Tx(e.addr, []byte{reg}, buf); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

func (e *Expander) mask(pin pinmap.PinID) (uint16, bool) {
	n, ok := e.pins[pin]
	if !ok {
		return 0, false
	}
	return 1 << n, true
}

// Configure sets the direction and pull-up of pin. Outputs start Low.
func (e *Expander) Configure(pin pinmap.PinID, mode Mode, pull Pull) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.mask(pin)
	if !ok {
		return fmt.Errorf("mcp23017: %s not wired to expander", pin)
	}
	if mode == Input && pull == PullDown {
		return fmt.Errorf("configure %s: %w", pin, ErrPullDownUnsupported)
	}

	// Outputs are push-pull; the requested bias only matters for inputs.
	gppu := e.gppu &^ m
	if mode == Input && pull == PullUp {
		gppu |= m
	}
	if gppu != e.gppu {
		if err := e.writeReg(regGPPU, gppu); err != nil {
			return fmt.Errorf("configure %s pull: %w", pin, err)
		}
		e.gppu = gppu
	}

	iodir := e.iodir | m
	if mode == Output {
		olat := e.olat &^ m
		if err := e.writeReg(regOLAT, olat); err != nil {
			return fmt.Errorf("configure %s latch: %w", pin, err)
		}
		e.olat = olat
		iodir = e.iodir &^ m
	}
	if iodir != e.iodir {
		if err := e.writeReg(regIODIR, iodir); err != nil {
			return fmt.Errorf("configure %s direction: %w", pin, err)
		}
		e.iodir = iodir
	}
	return nil
}

func (e *Expander) setLatch(pin pinmap.PinID, olat uint16) {
	if err := e.writeReg(regOLAT, olat); err != nil {
		log.Printf("gpio: mcp23017 write %s: %v", pin, err)
		return
	}
	e.olat = olat
}

// Write drives pin to level.
func (e *Expander) Write(pin pinmap.PinID, level Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.mask(pin)
	if !ok {
		log.Printf("gpio: mcp23017 write to foreign pin %s", pin)
		return
	}
	olat := e.olat &^ m
	if level == High {
		olat |= m
	}
	e.setLatch(pin, olat)
}

// Toggle inverts the latched level of pin.
func (e *Expander) Toggle(pin pinmap.PinID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.mask(pin)
	if !ok {
		log.Printf("gpio: mcp23017 toggle of foreign pin %s", pin)
		return
	}
	e.setLatch(pin, e.olat^m)
}

// Read returns the level on pin. Bus errors report Low.
func (e *Expander) Read(pin pinmap.PinID) Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.mask(pin)
	if !ok {
		log.Printf("gpio: mcp23017 read of foreign pin %s", pin)
		return Low
	}
	v, err := e.readReg(regGPIO)
	if err != nil {
		log.Printf("gpio: mcp23017 read %s: %v", pin, err)
		return Low
	}
	return v&m != 0
}

// Close returns every pin to input without pull-up.
func (e *Expander) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writeReg(regIODIR, 0xFFFF); err != nil {
		return fmt.Errorf("mcp23017 release: %w", err)
	}
	e.iodir = 0xFFFF
	if err := e.writeReg(regGPPU, 0); err != nil {
		return fmt.Errorf("mcp23017 release: %w", err)
	}
	e.gppu = 0
	return nil
}
