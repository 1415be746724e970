package mux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/pinmap"
)

// NumInputs is the number of logical input channels across both input muxes.
const NumInputs = 16

// InputMask holds one bit per input channel, built fresh on every scan.
type InputMask uint16

// Active reports whether input channel i is high.
func (m InputMask) Active(i int) bool {
	return m&(1<<i) != 0
}

// Channels returns the indices of the active channels in ascending order.
func (m InputMask) Channels() []int {
	return channels(uint16(m), NumInputs)
}

// DiagMask holds one fault bit per output channel, built fresh on every scan.
type DiagMask uint16

// Faulted reports whether output channel i reports a fault.
func (m DiagMask) Faulted(i int) bool {
	return m&(1<<i) != 0
}

// Channels returns the indices of the faulted channels in ascending order.
func (m DiagMask) Channels() []int {
	return channels(uint16(m), pinmap.NumOutputs)
}

func channels(mask uint16, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		if mask&(1<<i) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// FormatChannels renders channel indices as a comma separated list.
func FormatChannels(chs []int) string {
	parts := make([]string, len(chs))
	for i, c := range chs {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// Group is one physical mux: its selector lines, its data line, the selector
// table and the absolute bit position of its channel 0.
type Group struct {
	Select []pinmap.PinID
	Data   pinmap.PinID
	Table  Table
	Offset int
}

// InputGroups returns the two input muxes: U2 for channels 0-7 and U3 for
// channels 8-15.
func InputGroups() []Group {
	return []Group{
		{
			Select: []pinmap.PinID{pinmap.Input0S0, pinmap.Input0S1, pinmap.Input0S2},
			Data:   pinmap.Input0Data,
			Table:  InputSelectors,
			Offset: 0,
		},
		{
			Select: []pinmap.PinID{pinmap.Input1S0, pinmap.Input1S1, pinmap.Input1S2},
			Data:   pinmap.Input1Data,
			Table:  InputSelectors,
			Offset: 8,
		},
	}
}

// DiagGroup returns the diagnostic mux covering all output channels.
func DiagGroup() Group {
	return Group{
		Select: []pinmap.PinID{pinmap.DiagS0, pinmap.DiagS1, pinmap.DiagS2, pinmap.DiagS3},
		Data:   pinmap.DiagData,
		Table:  DiagSelectors,
		Offset: 0,
	}
}

func (g Group) validate() error {
	if g.Table.Len() == 0 {
		return fmt.Errorf("mux: %s table is empty", g.Table.Name())
	}
	for i := 0; i < g.Table.Len(); i++ {
		if w := g.Table.SelectorFor(i).Width; w != len(g.Select) {
			return fmt.Errorf("mux: %s channel %d has %d selector bits, group has %d lines", g.Table.Name(), i, w, len(g.Select))
		}
	}
	if g.Offset+g.Table.Len() > 16 {
		return fmt.Errorf("mux: %s group at offset %d overflows a 16-bit mask", g.Table.Name(), g.Offset)
	}
	return nil
}

// Scanner drives selector lines and samples data lines.
type Scanner struct {
	pins   gpio.Pins
	inputs []Group
	diag   Group
}

// NewScanner creates a Scanner for the given input muxes and diagnostic mux.
func NewScanner(pins gpio.Pins, inputs []Group, diag Group) (*Scanner, error) {
	for _, g := range inputs {
		if err := g.validate(); err != nil {
			return nil, err
		}
	}
	if err := diag.validate(); err != nil {
		return nil, err
	}
	return &Scanner{pins: pins, inputs: inputs, diag: diag}, nil
}

// Configure sets every selector line to a push-pull output with pull-down and
// every data line to a floating input.
func (s *Scanner) Configure() error {
	groups := append(append([]Group(nil), s.inputs...), s.diag)
	for _, g := range groups {
		for _, p := range g.Select {
			if err := s.pins.Configure(p, gpio.Output, gpio.PullDown); err != nil {
				return fmt.Errorf("configure selector: %w", err)
			}
		}
		if err := s.pins.Configure(g.Data, gpio.Input, gpio.PullNone); err != nil {
			return fmt.Errorf("configure data line: %w", err)
		}
	}
	return nil
}

// sample selects channel ch of g and reads the data line right after the last
// selector write. Selector lines must be stable before the data line is valid.
func (s *Scanner) sample(g Group, ch int) uint16 {
	sel := g.Table.SelectorFor(ch)
	for i, p := range g.Select {
		s.pins.Write(p, gpio.Level(sel.Bit(i)))
	}
	return s.pins.Read(g.Data).Bit() << (g.Offset + ch)
}

func (s *Scanner) scan(g Group) uint16 {
	var mask uint16
	for ch := 0; ch < g.Table.Len(); ch++ {
		mask |= s.sample(g, ch)
	}
	return mask
}

// ScanInputs reads all input channels, one mux after the other.
func (s *Scanner) ScanInputs() InputMask {
	var mask uint16
	for _, g := range s.inputs {
		mask |= s.scan(g)
	}
	return InputMask(mask)
}

// ScanDiagnostics reads the fault line of every output channel.
func (s *Scanner) ScanDiagnostics() DiagMask {
	return DiagMask(s.scan(s.diag))
}
