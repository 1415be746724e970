// Package pinmap names every logical pin of the lighting board and maps it to a
// GPIO line offset. The map is fixed at startup.
package pinmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// PinID is a logical pin. The core never sees physical line numbers.
type PinID int

const (
	OnBoardLED PinID = iota

	// Input mux U2, channels 0-7
	Input0S0
	Input0S1
	Input0S2
	Input0Data

	// Input mux U3, channels 8-15
	Input1S0
	Input1S1
	Input1S2
	Input1Data

	Output0
	Output1
	Output2
	Output3
	Output4
	Output5
	Output6
	Output7
	Output8
	Output9
	Output10
	Output11

	// Output driver diagnostic mux
	DiagS0
	DiagS1
	DiagS2
	DiagS3
	DiagData

	NumPins
)

// NumOutputs is the number of switched output channels.
const NumOutputs = int(Output11-Output0) + 1

// Turn lamp wiring on the output stage.
const (
	LeftFront  = Output3
	LeftBack   = Output4
	RightFront = Output5
	RightBack  = Output6
)

// OutputPin returns the pin driving output channel ch.
func OutputPin(ch int) PinID {
	if ch < 0 || ch >= NumOutputs {
		panic(fmt.Sprintf("pinmap: output channel %d out of range", ch))
	}
	return Output0 + PinID(ch)
}

// IsOutput reports whether p is one of the switched output channels.
func IsOutput(p PinID) bool {
	return p >= Output0 && p <= Output11
}

var names = [NumPins]string{
	OnBoardLED: "led",
	Input0S0:   "in0.s0",
	Input0S1:   "in0.s1",
	Input0S2:   "in0.s2",
	Input0Data: "in0.data",
	Input1S0:   "in1.s0",
	Input1S1:   "in1.s1",
	Input1S2:   "in1.s2",
	Input1Data: "in1.data",
	Output0:    "out0",
	Output1:    "out1",
	Output2:    "out2",
	Output3:    "out3",
	Output4:    "out4",
	Output5:    "out5",
	Output6:    "out6",
	Output7:    "out7",
	Output8:    "out8",
	Output9:    "out9",
	Output10:   "out10",
	Output11:   "out11",
	DiagS0:     "diag.s0",
	DiagS1:     "diag.s1",
	DiagS2:     "diag.s2",
	DiagS3:     "diag.s3",
	DiagData:   "diag.data",
}

// Name returns the stable name of p as accepted by Parse.
func Name(p PinID) string {
	if p < 0 || p >= NumPins {
		return "pin(" + strconv.Itoa(int(p)) + ")"
	}
	return names[p]
}

func (p PinID) String() string { return Name(p) }

// Lookup returns the pin with the given name.
func Lookup(name string) (PinID, bool) {
	for i, n := range names {
		if n == name {
			return PinID(i), true
		}
	}
	return 0, false
}

// Map holds the GPIO line offset of every logical pin.
type Map [NumPins]int

// Default returns the wiring of the production board (BCM numbering on gpiochip0).
func Default() Map {
	return Map{
		OnBoardLED: 4,

		Input0S0:   17,
		Input0S1:   27,
		Input0S2:   22,
		Input0Data: 23,

		Input1S0:   5,
		Input1S1:   6,
		Input1S2:   13,
		Input1Data: 24,

		Output0:  7,
		Output1:  8,
		Output2:  9,
		Output3:  10,
		Output4:  11,
		Output5:  12,
		Output6:  14,
		Output7:  15,
		Output8:  16,
		Output9:  18,
		Output10: 19,
		Output11: 20,

		DiagS0:   21,
		DiagS1:   25,
		DiagS2:   26,
		DiagS3:   0,
		DiagData: 1,
	}
}

// Offset returns the line offset of p.
func (m Map) Offset(p PinID) int {
	return m[p]
}

// Parse applies overrides to base. The overrides are a whitespace separated list of
// name=offset tokens, for example `in0.s0=15 "led=13"`.
func Parse(base Map, overrides string) (Map, error) {
	tokens, err := shlex.Split(overrides)
	if err != nil {
		return base, fmt.Errorf("split pin overrides: %w", err)
	}

	m := base
	for _, tok := range tokens {
		name, value, ok := strings.Cut(tok, "=")
		if !ok {
			return base, fmt.Errorf("pin override %q: expected name=offset", tok)
		}
		p, ok := Lookup(strings.TrimSpace(name))
		if !ok {
			return base, fmt.Errorf("pin override %q: unknown pin %q", tok, name)
		}
		off, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || off < 0 {
			return base, fmt.Errorf("pin override %q: invalid offset %q", tok, value)
		}
		m[p] = off
	}
	return m, nil
}

// Validate checks that no two pins share a line offset.
func (m Map) Validate() error {
	seen := make(map[int]PinID, NumPins)
	for i, off := range m {
		if prev, dup := seen[off]; dup {
			return fmt.Errorf("pins %s and %s share line %d", prev, PinID(i), off)
		}
		seen[off] = PinID(i)
	}
	return nil
}
