//go:build !linux

package gpio

import "errors"

// I2CDev is not available on non-Linux platforms.
type I2CDev struct{}

// OpenI2CDev returns an error on non-Linux platforms.
func OpenI2CDev(path string) (*I2CDev, error) {
	return nil, errors.New("i2c: not supported on this platform (requires Linux)")
}

// Tx is not implemented on non-Linux platforms.
func (d *I2CDev) Tx(addr uint16, w, r []byte) error {
	return errors.New("i2c: not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *I2CDev) Close() error { return nil }
