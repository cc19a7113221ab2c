// Package tun opens layer 3 TUN interfaces for packet I/O.
package tun

import (
	"errors"
	"fmt"
	"os"
)

// maxNameLen is IFNAMSIZ without the terminating NUL.
const maxNameLen = 15

// ErrNameTooLong is returned by Open for names the kernel cannot hold.
var ErrNameTooLong = errors.New("tun: interface name too long")

// Device is an open TUN interface without packet information header.
// Each Read returns exactly one IP packet and each Write takes exactly one.
type Device struct {
	file *os.File
	name string
}

// Open attaches to the TUN interface called name, creating it if needed.
// An empty name lets the kernel pick one; Name reports the result.
func Open(name string) (*Device, error) {
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}
	return open(name)
}

func (d *Device) Read(p []byte) (int, error) {
	return d.file.Read(p)
}

func (d *Device) Write(p []byte) (int, error) {
	return d.file.Write(p)
}

// Name is the interface name assigned by the kernel.
func (d *Device) Name() string {
	return d.name
}

// Close detaches from the interface. Blocked reads return os.ErrClosed.
func (d *Device) Close() error {
	return d.file.Close()
}
