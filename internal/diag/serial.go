package diag

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// Config describes the diagnostic serial port.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig returns settings for a USB CDC port. CDC ignores the baud
// rate but the tty layer still wants one.
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// SerialSink writes diagnostics to a serial port.
type SerialSink struct {
	port *serial.Port
	cfg  Config
}

// OpenSerial opens the port described by cfg.
func OpenSerial(cfg Config) (*SerialSink, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device not set")
	}
	if cfg.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", cfg.Baud)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return &SerialSink{port: port, cfg: cfg}, nil
}

// Device returns the port's device path.
func (s *SerialSink) Device() string { return s.cfg.Device }

// Write writes p to the port.
func (s *SerialSink) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Close closes the port.
func (s *SerialSink) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
