package mqtt

import (
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultQueueDepth is the number of events an AsyncPublisher holds while the
// underlying publisher is busy.
const DefaultQueueDepth = 64

// closeTimeout bounds how long Close waits for queued events to drain.
const closeTimeout = 3 * time.Second

// ErrQueueFull is returned when an event is dropped because the queue is full.
var ErrQueueFull = errors.New("mqtt: publish queue full")

// ErrClosed is returned for events published after Close.
var ErrClosed = errors.New("mqtt: publisher closed")

type job struct {
	what string
	send func(Publisher) error
}

// AsyncPublisher hands events to another Publisher on its own goroutine. The
// Publish methods never wait on the network; errors from the underlying
// publisher are logged.
type AsyncPublisher struct {
	next  Publisher
	queue chan job
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewAsyncPublisher starts a goroutine that publishes to next, buffering up to
// depth events.
func NewAsyncPublisher(next Publisher, depth int) *AsyncPublisher {
	if depth < 1 {
		depth = 1
	}
	a := &AsyncPublisher{
		next:  next,
		queue: make(chan job, depth),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for j := range a.queue {
		if err := j.send(a.next); err != nil {
			log.Printf("mqtt: %s: %v", j.what, err)
		}
	}
}

func (a *AsyncPublisher) enqueue(j job) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish queues a turn signal transition.
func (a *AsyncPublisher) Publish(event SignalEvent) error {
	return a.enqueue(job{what: "publish " + event.Transition.String(), send: func(p Publisher) error {
		return p.Publish(event)
	}})
}

// PublishFault queues an output fault change.
func (a *AsyncPublisher) PublishFault(event FaultEvent) error {
	return a.enqueue(job{what: "publish " + event.Name(), send: func(p Publisher) error {
		return p.PublishFault(event)
	}})
}

// PublishSystem queues a system lifecycle event.
func (a *AsyncPublisher) PublishSystem(event SystemEvent) error {
	return a.enqueue(job{what: "publish " + event.Event, send: func(p Publisher) error {
		return p.PublishSystem(event)
	}})
}

// IsConnected reports the underlying publisher's connection state, or false
// when it does not report one.
func (a *AsyncPublisher) IsConnected() bool {
	if cs, ok := a.next.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close stops accepting events, waits up to closeTimeout for the queue to
// drain, then closes the underlying publisher.
func (a *AsyncPublisher) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(closeTimeout):
		log.Printf("mqtt: gave up waiting for %d queued events", len(a.queue))
	}
	return a.next.Close()
}
