// Package diag writes the controller's diagnostic text stream: the startup
// banner, per-scan output fault lines and the optional input activity report.
package diag

import (
	"errors"
	"io"
	"sync"
)

// Sink receives diagnostic bytes. Write errors are never fatal to the caller.
type Sink interface {
	io.Writer
}

// Discard is used when no diagnostic port is configured.
var Discard Sink = io.Discard

// FakeSink records everything written to it.
type FakeSink struct {
	mu     sync.Mutex
	writes []string

	// WriteError, if set, will be returned by Write. Nothing is recorded.
	WriteError error
}

// Write records p.
func (f *FakeSink) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return 0, f.WriteError
	}
	f.writes = append(f.writes, string(p))
	return len(p), nil
}

// Writes returns a copy of the recorded writes.
func (f *FakeSink) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

// String returns all recorded bytes concatenated.
func (f *FakeSink) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, w := range f.writes {
		n += len(w)
	}
	b := make([]byte, 0, n)
	for _, w := range f.writes {
		b = append(b, w...)
	}
	return string(b)
}

// Reset forgets recorded writes.
func (f *FakeSink) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

// ErrFakeWrite is a convenience error for tests.
var ErrFakeWrite = errors.New("fake write failure")
