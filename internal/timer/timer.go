// Package timer provides periodic timers that raise an update interrupt and a
// dispatcher that runs one registered callback per timer.
//
// A Handle is owned by two parties: the run loop calls Reset and Disable, the
// timer goroutine calls Advance and the dispatcher. Handle methods are safe for
// that split.
package timer

import (
	"sync"
	"time"
)

// IRQ identifies the interrupt line a timer raises.
type IRQ int

// NoIRQ starts a timer that only counts and never interrupts.
const NoIRQ IRQ = -1

// Interrupt lines of the two board timers.
const (
	IRQLED       IRQ = 28
	IRQTurnPulse IRQ = 29
)

// Default periods of the board timers.
const (
	LEDPeriod       = 500 * time.Millisecond
	TurnPulsePeriod = 1000 * time.Millisecond
)

// Handle is a periodic countdown with an update flag.
type Handle struct {
	mu sync.Mutex

	name   string
	period time.Duration
	irq    IRQ

	count     time.Duration // elapsed within the current period
	running   bool          // counter enabled
	itEnabled bool          // update interrupt enabled
	flag      bool          // update pending
	acks      int
}

// New creates an uninitialized timer. Call Init before use.
func New(name string) *Handle {
	return &Handle{name: name, irq: NoIRQ}
}

// Name returns the timer's name.
func (h *Handle) Name() string { return h.name }

// IRQ returns the interrupt line set by Init.
func (h *Handle) IRQ() IRQ {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.irq
}

// Init sets the period and starts the timer. With irq other than NoIRQ the
// update interrupt is enabled too.
func (h *Handle) Init(period time.Duration, irq IRQ) {
	if period <= 0 {
		panic("timer: period must be positive")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.period = period
	h.irq = irq
	h.count = 0
	h.flag = false
	h.running = true
	h.itEnabled = irq != NoIRQ
}

// Poll returns the elapsed count of the current period in milliseconds.
func (h *Handle) Poll() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return uint32(h.count / time.Millisecond)
}

// Reset clears the count and any pending update, then re-arms the interrupt.
// The next update fires one full period later.
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count = 0
	h.flag = false
	h.running = true
	h.itEnabled = h.irq != NoIRQ
}

// Disable stops the timer and its interrupt and clears the count. No further
// callbacks are dispatched until Reset.
func (h *Handle) Disable() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
	h.itEnabled = false
	h.flag = false
	h.count = 0
}

// Enabled reports whether the update interrupt is armed.
func (h *Handle) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.itEnabled
}

// Advance moves the counter forward by d. It sets the update flag when a
// period elapses and reports whether an interrupt should be raised.
func (h *Handle) Advance(d time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running || h.period <= 0 {
		return false
	}
	h.count += d
	for h.count >= h.period {
		h.count -= h.period
		h.flag = true
	}
	return h.flag && h.itEnabled
}

// Acks returns the number of acknowledged update interrupts.
func (h *Handle) Acks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acks
}

// takeUpdate clears and acknowledges a pending update raised on source.
// It returns false for spurious or foreign interrupts.
func (h *Handle) takeUpdate(source IRQ) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.flag {
		return false
	}
	if !h.itEnabled || source != h.irq {
		return false
	}
	h.flag = false
	h.acks++
	return true
}
