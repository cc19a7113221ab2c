package modem

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

//go:generate go tool mockgen -destination=mock_modem_test.go -package=modem . Transport,Dialer,NetDevice

// DefaultBaudRate is the rate the ESP8285 AT firmware listens on after reset.
const DefaultBaudRate = 115200

// Transport represents an established, bidirectional byte stream to an
// ESP8285-class modem.
//
// A Transport is assumed to be already connected and configured for raw
// 8N1 operation without flow control. Besides the I/O primitives it must be
// able to change the local baud rate, because the handshake raises the rate
// on both ends of the link.
type Transport interface {
	io.ReadWriteCloser

	// SetBaudRate reconfigures the local end of the link. It is called
	// right after the modem accepted the same rate.
	SetBaudRate(baud int) error
}

// Dialer opens a Transport to a modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port or a test double) and is intended to be used during modem
// construction only. Once a Transport is obtained, the Dialer is no longer
// needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

// NetDevice is the point-to-point network interface packets are tunneled
// for. Read returns exactly one packet; Write takes exactly one packet.
type NetDevice interface {
	io.ReadWriter
}

// SerialDialer opens a modem over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the serial device, e.g. "/dev/ttyUSB0".
	PortName string
	// Mode is the initial port configuration. When nil, DefaultBaudRate
	// 8N1 is used.
	Mode *serial.Mode
}

// Dial opens and configures the serial port. Bytes already waiting in the
// input buffer (boot messages, leftovers of a previous session) are
// discarded.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("esp: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("esp: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if d.Mode != nil {
		mode = *d.Mode
	}

	port, err := serial.Open(d.PortName, &mode)
	if err != nil {
		return nil, fmt.Errorf("esp: open serial port %q: %w", d.PortName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("esp: flush serial port %q: %w", d.PortName, err)
	}

	return &serialTransport{Port: port, mode: mode}, nil
}

// serialTransport adapts a serial.Port to Transport.
type serialTransport struct {
	serial.Port
	mode serial.Mode
}

func (t *serialTransport) SetBaudRate(baud int) error {
	mode := t.mode
	mode.BaudRate = baud
	if err := t.Port.SetMode(&mode); err != nil {
		return fmt.Errorf("esp: set baud rate %d: %w", baud, err)
	}
	t.mode = mode
	return nil
}
