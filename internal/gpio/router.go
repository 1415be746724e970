package gpio

import (
	"fmt"

	"github.com/sweeney/light-controller/internal/pinmap"
)

// Router sends each pin to the backend it is wired to.
type Router struct {
	fallback Pins
	routes   map[pinmap.PinID]Pins
	backends []Pins
}

// NewRouter creates a Router that sends unrouted pins to fallback.
func NewRouter(fallback Pins) *Router {
	return &Router{
		fallback: fallback,
		routes:   make(map[pinmap.PinID]Pins),
		backends: []Pins{fallback},
	}
}

// Route sends pins to backend. A pin can only be routed once.
func (r *Router) Route(backend Pins, pins ...pinmap.PinID) error {
	for _, p := range pins {
		if _, dup := r.routes[p]; dup {
			return fmt.Errorf("gpio: %s already routed", p)
		}
	}
	for _, p := range pins {
		r.routes[p] = backend
	}
	for _, b := range r.backends {
		if b == backend {
			return nil
		}
	}
	r.backends = append(r.backends, backend)
	return nil
}

func (r *Router) backend(pin pinmap.PinID) Pins {
	if b, ok := r.routes[pin]; ok {
		return b
	}
	return r.fallback
}

func (r *Router) Configure(pin pinmap.PinID, mode Mode, pull Pull) error {
	return r.backend(pin).Configure(pin, mode, pull)
}

func (r *Router) Write(pin pinmap.PinID, level Level) { r.backend(pin).Write(pin, level) }

func (r *Router) Toggle(pin pinmap.PinID) { r.backend(pin).Toggle(pin) }

func (r *Router) Read(pin pinmap.PinID) Level { return r.backend(pin).Read(pin) }

// Close closes every backend, last routed first.
func (r *Router) Close() error {
	var errs []error
	for i := len(r.backends) - 1; i >= 0; i-- {
		if err := r.backends[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
