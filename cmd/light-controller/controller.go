package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sweeney/light-controller/internal/diag"
	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/lights"
	"github.com/sweeney/light-controller/internal/mqtt"
	"github.com/sweeney/light-controller/internal/mux"
	"github.com/sweeney/light-controller/internal/pinmap"
	"github.com/sweeney/light-controller/internal/timer"
	"github.com/sweeney/light-controller/internal/turnsignal"
)

// runMode selects what a scan does with the inputs.
type runMode string

const (
	modeRun         runMode = "run"         // turn signal state machine
	modePassthrough runMode = "passthrough" // input i drives output i
	modeLampTest    runMode = "lamp-test"   // every output on
)

func parseMode(s string) (runMode, error) {
	switch m := runMode(s); m {
	case modeRun, modePassthrough, modeLampTest:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want run, passthrough or lamp-test)", s)
}

// patchedInput is routed to patchedOutput in passthrough mode. Board v0.1 has
// a cut trace on that output.
const (
	patchedInput  = 12
	patchedOutput = 6
)

// scanResult is what one iteration of the control loop observed and did.
type scanResult struct {
	Inputs      mux.InputMask
	Faults      mux.DiagMask
	Transitions []turnsignal.Transition
	Lights      lights.Outputs
	FaultEdges  []mqtt.FaultEvent
	FaultLines  int
}

// controller runs one iteration of the control loop per call to step.
type controller struct {
	pins         gpio.Pins
	scanner      *mux.Scanner
	machine      *turnsignal.Machine
	reporter     *diag.Reporter
	mode         runMode
	reportInputs bool

	faults mux.DiagMask // previous diagnostic scan
}

// configureBoard sets up the status LED and the output channels. The LED is
// lit until the controller is ready.
func configureBoard(pins gpio.Pins) error {
	if err := pins.Configure(pinmap.OnBoardLED, gpio.Output, gpio.PullUp); err != nil {
		return fmt.Errorf("configure %s: %w", pinmap.OnBoardLED, err)
	}
	pins.Write(pinmap.OnBoardLED, gpio.High)

	for ch := 0; ch < pinmap.NumOutputs; ch++ {
		p := pinmap.OutputPin(ch)
		if err := pins.Configure(p, gpio.Output, gpio.PullDown); err != nil {
			return fmt.Errorf("configure %s: %w", p, err)
		}
	}
	return nil
}

// step scans the inputs, applies them according to the mode, then scans and
// reports the output diagnostics. The order is fixed.
func (c *controller) step(at time.Time) scanResult {
	var res scanResult

	res.Inputs = c.scanner.ScanInputs()
	switch c.mode {
	case modePassthrough:
		passthrough(c.pins, res.Inputs)
	case modeLampTest:
		allOutputsOn(c.pins)
	default:
		res.Transitions = c.machine.Process(turnsignal.IntentFromInputs(res.Inputs))
		res.Lights = lights.Switch(lights.ControlsFromInputs(res.Inputs))
		lights.Apply(c.pins, res.Lights)
	}

	res.Faults = c.scanner.ScanDiagnostics()
	res.FaultLines = c.reporter.Faults(res.Faults)
	if c.reportInputs {
		c.reporter.Activity(res.Inputs)
	}

	res.FaultEdges = mqtt.FaultEdges(c.faults, res.Faults, at)
	c.faults = res.Faults
	return res
}

// newTurnTimer returns the blink timer with its period and interrupt line set
// but disarmed. The first rising flag arms it.
func newTurnTimer() *timer.Handle {
	h := timer.New("turn")
	h.Init(timer.TurnPulsePeriod, timer.IRQTurnPulse)
	h.Disable()
	return h
}

// passthrough drives output i from input i.
func passthrough(pins gpio.Pins, inputs mux.InputMask) {
	for ch := 0; ch < pinmap.NumOutputs; ch++ {
		pins.Write(pinmap.OutputPin(ch), gpio.Level(inputs.Active(ch)))
	}
	pins.Write(pinmap.OutputPin(patchedOutput), gpio.Level(inputs.Active(patchedInput)))
}

func allOutputsOn(pins gpio.Pins) {
	for ch := 0; ch < pinmap.NumOutputs; ch++ {
		pins.Write(pinmap.OutputPin(ch), gpio.High)
	}
}

// faultPattern is the LED sequence shown when the controller cannot start:
// three short pulses then a pause, one entry per tick.
var faultPattern = []gpio.Level{
	gpio.High, gpio.Low, gpio.High, gpio.Low, gpio.High, gpio.Low,
	gpio.Low, gpio.Low, gpio.Low, gpio.Low,
}

// faultLoop blinks faultPattern on the status LED until a signal arrives.
// Normal operation never starts after it.
func faultLoop(pins gpio.Pins, tick <-chan time.Time, sig <-chan os.Signal) os.Signal {
	i := 0
	for {
		select {
		case s := <-sig:
			pins.Write(pinmap.OnBoardLED, gpio.Low)
			return s
		case <-tick:
			pins.Write(pinmap.OnBoardLED, faultPattern[i])
			i = (i + 1) % len(faultPattern)
		}
	}
}
