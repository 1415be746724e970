package diag

import (
	"fmt"
	"strings"

	"github.com/sweeney/light-controller/internal/mux"
	"github.com/sweeney/light-controller/internal/pinmap"
)

// Startup is written once when the controller is ready.
const Startup = "Initialized!"

// Reporter formats diagnostic lines onto a Sink.
type Reporter struct {
	sink Sink
}

// NewReporter creates a Reporter writing to sink. A nil sink discards.
func NewReporter(sink Sink) *Reporter {
	if sink == nil {
		sink = Discard
	}
	return &Reporter{sink: sink}
}

// Line writes s followed by CRLF.
func (r *Reporter) Line(s string) {
	r.write(s + "\r\n")
}

// Faults writes one line per faulted output channel and returns the number of
// lines written. A clear mask writes nothing.
func (r *Reporter) Faults(mask mux.DiagMask) int {
	n := 0
	for ch := 0; ch < pinmap.NumOutputs; ch++ {
		if !mask.Faulted(ch) {
			continue
		}
		r.write(fmt.Sprintf("Error on Output Ch[%d]\r\n", ch))
		n++
	}
	return n
}

// Activity writes the list of active input channels on one line. Nothing is
// written when no input is active.
func (r *Reporter) Activity(mask mux.InputMask) int {
	chs := mask.Channels()
	if len(chs) == 0 {
		return 0
	}
	var b strings.Builder
	for _, ch := range chs {
		fmt.Fprintf(&b, "Channel %d,", ch)
	}
	b.WriteString("\r\n")
	r.write(b.String())
	return len(chs)
}

func (r *Reporter) write(s string) {
	// Sink failures are ignored.
	_, _ = r.sink.Write([]byte(s))
}
