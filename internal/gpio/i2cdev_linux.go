//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
	"tinygo.org/x/drivers"
)

// i2cSlave is the i2c-dev ioctl selecting the target address.
const i2cSlave = 0x0703

// I2CDev is a drivers.I2C bus on a Linux i2c-dev node such as /dev/i2c-1.
type I2CDev struct {
	mu   sync.Mutex
	fd   int
	path string
	addr uint16
}

var _ drivers.I2C = (*I2CDev)(nil)

// OpenI2CDev opens the i2c-dev node at path.
func OpenI2CDev(path string) (*I2CDev, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &I2CDev{fd: fd, path: path, addr: 0xFFFF}, nil
}

// Tx writes w and then reads len(r) bytes from the device at addr.
// The write and read are separate transfers with a stop in between, which the
// MCP23017 accepts.
func (d *I2CDev) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if addr != d.addr {
		if err := unix.IoctlSetInt(d.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("%s: select %#x: %w", d.path, addr, err)
		}
		d.addr = addr
	}
	if len(w) > 0 {
		n, err := unix.Write(d.fd, w)
		if err != nil {
			return fmt.Errorf("%s: write: %w", d.path, err)
		}
		if n != len(w) {
			return fmt.Errorf("%s: short write %d/%d", d.path, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(d.fd, r)
		if err != nil {
			return fmt.Errorf("%s: read: %w", d.path, err)
		}
		if n != len(r) {
			return fmt.Errorf("%s: short read %d/%d", d.path, n, len(r))
		}
	}
	return nil
}

// Close closes the device node.
func (d *I2CDev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return unix.Close(d.fd)
}
