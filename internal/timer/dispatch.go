package timer

import (
	"context"
	"time"

	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/pinmap"
)

// Callback runs on every update interrupt of the timer it is registered with.
// It runs on the timer goroutine and must be short and non-blocking.
type Callback interface {
	OnTick(h *Handle)
}

// Dispatcher delivers update interrupts of one timer to one callback.
type Dispatcher struct {
	handle   *Handle
	callback Callback
}

// NewDispatcher registers callback for h.
func NewDispatcher(h *Handle, callback Callback) *Dispatcher {
	return &Dispatcher{handle: h, callback: callback}
}

// Handle returns the timer served by d.
func (d *Dispatcher) Handle() *Handle { return d.handle }

// HandleIRQ services an interrupt raised on source. The callback runs only if
// the update flag is set and the interrupt is enabled on that line; the flag
// is cleared and acknowledged before the callback is invoked.
func (d *Dispatcher) HandleIRQ(source IRQ) bool {
	if !d.handle.takeUpdate(source) {
		return false
	}
	d.callback.OnTick(d.handle)
	return true
}

// Run advances the timer by the wall time between ticks and dispatches its
// interrupts until ctx is done. start is the time the timer was started.
func (d *Dispatcher) Run(ctx context.Context, start time.Time, tick <-chan time.Time) {
	last := start
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick:
			elapsed := now.Sub(last)
			last = now
			if elapsed <= 0 {
				continue
			}
			if d.handle.Advance(elapsed) {
				d.HandleIRQ(d.handle.IRQ())
			}
		}
	}
}

// LEDBlink toggles a status LED on every tick.
type LEDBlink struct {
	Pins gpio.Pins
	Pin  pinmap.PinID
}

// OnTick toggles the LED.
func (b LEDBlink) OnTick(*Handle) {
	b.Pins.Toggle(b.Pin)
}
