// Package mux scans the analog multiplexers of the lighting board: two 8-channel
// input muxes and the output-driver diagnostic mux.
package mux

import "fmt"

// Selector is the bit pattern placed on a mux's selector lines to connect one
// channel to the shared data line. Bit i drives selector line Si.
type Selector struct {
	Bits  uint8
	Width int
}

// Bit returns the level of selector line i.
func (s Selector) Bit(i int) bool {
	return s.Bits&(1<<i) != 0
}

func (s Selector) String() string {
	return fmt.Sprintf("%0*b", s.Width, s.Bits)
}

// sel builds a selector from the line values s0, s1, s2, ...
func sel(lines ...uint8) Selector {
	var bits uint8
	for i, v := range lines {
		bits |= (v & 1) << i
	}
	return Selector{Bits: bits, Width: len(lines)}
}

// Table maps a logical channel index to the selector that reaches it.
// The physical wiring of the mux outputs is not sequential, so the order of
// entries is part of the hardware description.
type Table struct {
	name    string
	entries []Selector
}

// Len returns the number of channels in the table.
func (t Table) Len() int { return len(t.entries) }

// Name identifies the table in errors and logs.
func (t Table) Name() string { return t.name }

// SelectorFor returns the selector of channel. An index outside the table is
// a programming error and panics.
func (t Table) SelectorFor(channel int) Selector {
	if channel < 0 || channel >= len(t.entries) {
		panic(fmt.Sprintf("mux: %s channel %d out of range [0,%d)", t.name, channel, len(t.entries)))
	}
	return t.entries[channel]
}

// InputSelectors is the 74HC4051 / MAX4558 wiring of both input muxes,
// written as (s0, s1, s2). s0-s2 are the chip's A, B and C inputs.
var InputSelectors = Table{
	name: "input",
	entries: []Selector{
		sel(1, 1, 0), // Y3 -> channel 0
		sel(0, 0, 0), // Y0 -> channel 1
		sel(1, 0, 0), // Y1 -> channel 2
		sel(0, 1, 0), // Y2 -> channel 3
		sel(1, 0, 1), // Y5 -> channel 4
		sel(1, 1, 1), // Y7 -> channel 5
		sel(0, 1, 1), // Y6 -> channel 6
		sel(0, 0, 1), // Y4 -> channel 7
	},
}

// DiagSelectors is the wiring of the 16:1 diagnostic mux on the output stage,
// written as (s0, s1, s2, s3). Output driver i reports on mux input Yi.
// Board revisions that swap the selector order only change this table.
var DiagSelectors = Table{
	name: "diag",
	entries: []Selector{
		sel(0, 0, 0, 0), // Y0 -> output 0
		sel(1, 0, 0, 0), // Y1 -> output 1
		sel(0, 1, 0, 0), // Y2 -> output 2
		sel(1, 1, 0, 0), // Y3 -> output 3
		sel(0, 0, 1, 0), // Y4 -> output 4
		sel(1, 0, 1, 0), // Y5 -> output 5
		sel(0, 1, 1, 0), // Y6 -> output 6
		sel(1, 1, 1, 0), // Y7 -> output 7
		sel(0, 0, 0, 1), // Y8 -> output 8
		sel(1, 0, 0, 1), // Y9 -> output 9
		sel(0, 1, 0, 1), // Y10 -> output 10
		sel(1, 1, 0, 1), // Y11 -> output 11
	},
}
