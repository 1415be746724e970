package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/light-controller/internal/pinmap"
)

// OpKind identifies a recorded pin operation.
type OpKind string

const (
	OpConfigure OpKind = "CONFIGURE"
	OpWrite     OpKind = "WRITE"
	OpToggle    OpKind = "TOGGLE"
	OpRead      OpKind = "READ"
)

// Op is one recorded operation on a Fake.
type Op struct {
	Kind  OpKind
	Pin   pinmap.PinID
	Level Level // written level, level after toggle, or level read
	Mode  Mode
	Pull  Pull
}

// ReadFunc answers a Read. levels holds the currently driven level of every
// pin, so a fake multiplexer can look at its selector lines.
type ReadFunc func(pin pinmap.PinID, levels map[pinmap.PinID]Level) Level

// Fake is a test double that records pin operations in order.
// It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	ops    []Op
	levels map[pinmap.PinID]Level
	modes  map[pinmap.PinID]Mode

	// OnRead, if set, answers Read. Otherwise Read returns the driven level.
	OnRead ReadFunc

	// ConfigureError, if set, will be returned by Configure.
	ConfigureError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a Fake with every pin Low.
func NewFake() *Fake {
	return &Fake{
		levels: make(map[pinmap.PinID]Level),
		modes:  make(map[pinmap.PinID]Mode),
	}
}

// Configure records the configuration of pin.
func (f *Fake) Configure(pin pinmap.PinID, mode Mode, pull Pull) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.modes[pin] = mode
	if mode == Output {
		f.levels[pin] = Low
	}
	f.ops = append(f.ops, Op{Kind: OpConfigure, Pin: pin, Mode: mode, Pull: pull})
	return nil
}

// Write records and applies a write.
func (f *Fake) Write(pin pinmap.PinID, level Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[pin] = level
	f.ops = append(f.ops, Op{Kind: OpWrite, Pin: pin, Level: level})
}

// Toggle records and applies a toggle.
func (f *Fake) Toggle(pin pinmap.PinID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[pin] = !f.levels[pin]
	f.ops = append(f.ops, Op{Kind: OpToggle, Pin: pin, Level: f.levels[pin]})
}

// Read records a read and returns the level given by OnRead.
func (f *Fake) Read(pin pinmap.PinID) Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	level := f.levels[pin]
	if f.OnRead != nil {
		level = f.OnRead(pin, f.levels)
	}
	f.ops = append(f.ops, Op{Kind: OpRead, Pin: pin, Level: level})
	return level
}

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Ops returns a copy of the recorded operations.
func (f *Fake) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Op, len(f.ops))
	copy(out, f.ops)
	return out
}

// OpsOf returns the recorded operations of the given kinds.
func (f *Fake) OpsOf(kinds ...OpKind) []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Op
	for _, op := range f.ops {
		for _, k := range kinds {
			if op.Kind == k {
				out = append(out, op)
				break
			}
		}
	}
	return out
}

// Level returns the level currently driven on pin.
func (f *Fake) Level(pin pinmap.PinID) Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[pin]
}

// SetLevel sets the level of pin without recording an operation.
func (f *Fake) SetLevel(pin pinmap.PinID, level Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[pin] = level
}

// ModeOf returns the configured mode of pin and whether it was configured.
func (f *Fake) ModeOf(pin pinmap.PinID) (Mode, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.modes[pin]
	return m, ok
}

// ClearOps forgets recorded operations but keeps pin levels.
func (f *Fake) ClearOps() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = nil
}

// ErrFakeConfigure is a convenience error for tests.
var ErrFakeConfigure = errors.New("fake configure failure")
