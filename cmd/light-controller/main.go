// Command light-controller reads the driver's switch inputs, drives the turn
// signal and hazard lamps, and reports output faults.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/light-controller/internal/diag"
	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/mqtt"
	"github.com/sweeney/light-controller/internal/mux"
	"github.com/sweeney/light-controller/internal/pinmap"
	"github.com/sweeney/light-controller/internal/status"
	"github.com/sweeney/light-controller/internal/timer"
	"github.com/sweeney/light-controller/internal/turnsignal"
	"github.com/sweeney/light-controller/internal/web"
)

const (
	timerResolution = 10 * time.Millisecond
	faultStep       = 100 * time.Millisecond
)

type config struct {
	poll         time.Duration
	heartbeat    time.Duration
	broker       string
	chip         string
	pins         string
	expanderBus  string
	expanderAddr uint
	serial       string
	baud         int
	httpAddr     string
	mode         runMode
	reportInputs bool
	printInputs  bool
}

func main() {
	var cfg config
	flag.DurationVar(&cfg.poll, "poll", 10*time.Millisecond, "Input scan interval")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	flag.StringVar(&cfg.chip, "chip", "gpiochip0", "GPIO chip")
	flag.StringVar(&cfg.pins, "pins", "", `Pin overrides as name=offset pairs, e.g. "led=13 in0.s0=15"`)
	flag.StringVar(&cfg.expanderBus, "expander-bus", "", "I2C bus of an MCP23017 carrying the outputs, e.g. /dev/i2c-1 (empty: outputs on the GPIO chip)")
	flag.UintVar(&cfg.expanderAddr, "expander-addr", gpio.ExpanderAddress, "I2C address of the output expander")
	flag.StringVar(&cfg.serial, "serial", "/dev/ttyGS0", "Diagnostic serial port (empty to disable)")
	flag.IntVar(&cfg.baud, "baud", diag.DefaultConfig("").Baud, "Diagnostic serial baud rate")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	mode := flag.String("mode", string(modeRun), "Operating mode: run, passthrough or lamp-test")
	flag.BoolVar(&cfg.reportInputs, "report-inputs", false, "Write active input channels to the diagnostic port every scan")
	flag.BoolVar(&cfg.printInputs, "print-inputs", false, "Print active input channels and exit")

	flag.Parse()

	m, err := parseMode(*mode)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	cfg.mode = m

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	pm, err := pinmap.Parse(pinmap.Default(), cfg.pins)
	if err != nil {
		return fmt.Errorf("pin map: %w", err)
	}
	if err := pm.Validate(); err != nil {
		return fmt.Errorf("pin map: %w", err)
	}

	pins, closePins, err := openPins(cfg, pm)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer closePins()

	if err := configureBoard(pins); err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	scanner, err := mux.NewScanner(pins, mux.InputGroups(), mux.DiagGroup())
	if err != nil {
		return fmt.Errorf("init mux: %w", err)
	}
	if err := scanner.Configure(); err != nil {
		return fmt.Errorf("init mux: %w", err)
	}

	if cfg.printInputs {
		fmt.Printf("inputs: %s\n", status.ChannelList(scanner.ScanInputs().Channels()))
		return nil
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var sink diag.Sink = diag.Discard
	if cfg.serial != "" {
		sc := diag.DefaultConfig(cfg.serial)
		sc.Baud = cfg.baud
		port, err := diag.OpenSerial(sc)
		if err != nil {
			log.Printf("diagnostic port unavailable, halting: %v", err)
			ticker := time.NewTicker(faultStep)
			defer ticker.Stop()
			s := faultLoop(pins, ticker.C, sigCh)
			return fmt.Errorf("open diagnostic port: %w (stopped by %v)", err, s)
		}
		defer port.Close()
		sink = port
	}
	reporter := diag.NewReporter(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledTimer := timer.New("led")
	ledTimer.Init(timer.LEDPeriod, timer.IRQLED)
	turnTimer := newTurnTimer()
	machine := turnsignal.NewMachine(pins, turnTimer)

	startDispatcher(ctx, timer.NewDispatcher(ledTimer, timer.LEDBlink{Pins: pins, Pin: pinmap.OnBoardLED}))
	startDispatcher(ctx, timer.NewDispatcher(turnTimer, machine.Pulse()))

	reporter.Line(diag.Startup)
	pins.Write(pinmap.OnBoardLED, gpio.Low)

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.broker == "" {
		publisher, mqttStatus = mqtt.NopPublisher{}, mqtt.NopPublisher{}
	} else {
		p := mqtt.NewAsyncPublisher(mqtt.NewRealPublisher(cfg.broker), mqtt.DefaultQueueDepth)
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.poll.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
		Chip:        cfg.chip,
		Serial:      cfg.serial,
		Expander:    cfg.expanderBus,
		Mode:        string(cfg.mode),
	})

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: mode=%s poll=%v broker=%q heartbeat=%v", cfg.mode, cfg.poll, cfg.broker, cfg.heartbeat)

	c := &controller{
		pins:         pins,
		scanner:      scanner,
		machine:      machine,
		reporter:     reporter,
		mode:         cfg.mode,
		reportInputs: cfg.reportInputs,
	}

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	return runLoop(c, publisher, mqttStatus, tracker, cfg.heartbeat, time.Now, ticker.C, sigCh)
}

// openPins opens the GPIO chip and, when configured, moves the output
// channels onto the I2C expander. The returned func releases everything.
func openPins(cfg config, pm pinmap.Map) (gpio.Pins, func(), error) {
	chip, err := gpio.OpenChip(cfg.chip, pm)
	if err != nil {
		return nil, nil, err
	}
	if cfg.expanderBus == "" {
		return chip, func() { chip.Close() }, nil
	}

	bus, err := gpio.OpenI2CDev(cfg.expanderBus)
	if err != nil {
		chip.Close()
		return nil, nil, err
	}
	exp, err := gpio.NewExpander(bus, uint16(cfg.expanderAddr), gpio.OutputChannelPins())
	if err != nil {
		bus.Close()
		chip.Close()
		return nil, nil, err
	}

	router := gpio.NewRouter(chip)
	outputs := make([]pinmap.PinID, 0, pinmap.NumOutputs)
	for ch := 0; ch < pinmap.NumOutputs; ch++ {
		outputs = append(outputs, pinmap.OutputPin(ch))
	}
	if err := router.Route(exp, outputs...); err != nil {
		router.Close()
		bus.Close()
		return nil, nil, err
	}
	log.Printf("outputs on mcp23017 %s@%#x", cfg.expanderBus, cfg.expanderAddr)

	return router, func() {
		if err := router.Close(); err != nil {
			log.Printf("gpio close: %v", err)
		}
		bus.Close()
	}, nil
}

// startDispatcher runs d on its own goroutine until ctx is done.
func startDispatcher(ctx context.Context, d *timer.Dispatcher) {
	ticker := time.NewTicker(timerResolution)
	start := time.Now()
	go func() {
		defer ticker.Stop()
		d.Run(ctx, start, ticker.C)
	}()
}

func runLoop(c *controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			return nil

		case <-tick:
			t := now()
			res := c.step(t)

			state := c.machine.State()
			for _, tr := range res.Transitions {
				log.Printf("signal: %s (mode=%s)", tr, state.Mode())
				err := publisher.Publish(mqtt.SignalEvent{
					Timestamp:  t,
					Transition: tr,
					Latched:    state.Intent(),
					Mode:       state.Mode(),
				})
				if err != nil {
					log.Printf("publish error: %v", err)
				}
			}
			for _, fe := range res.FaultEdges {
				log.Printf("output %d: %s", fe.Channel, fe.Name())
				if err := publisher.PublishFault(fe); err != nil {
					log.Printf("publish fault error: %v", err)
				}
			}

			if tracker != nil {
				tracker.Update(res.Inputs, res.Faults, state, c.machine.Counts(), res.FaultLines)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				counts := c.machine.Counts()
				log.Printf("heartbeat: mode=%s left_on=%d right_on=%d hazard_on=%d faults=%s",
					state.Mode(), counts.LeftOn, counts.RightOn, counts.HazardOn, status.ChannelList(res.Faults.Channels()))

				hb := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
				if tracker != nil {
					hb.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
