package modem

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNoDevice is returned when a Modem is constructed without the
	// network device inbound packets are delivered to.
	ErrNoDevice = errors.New("no network device configured")

	// ErrInvalidConfig is returned by the config builder for missing or out
	// of range session parameters.
	ErrInvalidConfig = errors.New("invalid modem config")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has not completed the handshake.
	//
	// This can occur if initialization failed or if the Modem was not created
	// via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// still running.
	ErrLoopRunning = errors.New("loop already running")

	// ErrTransportClosed is returned when the transport reports end of
	// stream. A serial link that went away cannot be resynchronized.
	ErrTransportClosed = errors.New("transport closed")

	// ErrTransportWrite wraps write failures, short writes included.
	ErrTransportWrite = errors.New("transport write failed")

	// ErrBufferFull is returned when the response buffer is full and still
	// holds no complete response or packet frame.
	//
	// This indicates the byte stream is out of sync with the modem, e.g.
	// because bytes were lost at high baud rates.
	ErrBufferFull = errors.New("response buffer full with unterminated response")

	// ErrCommandFailed is returned when the modem answers a command with
	// FAIL, ERROR or ALREADY CONNECTED.
	ErrCommandFailed = errors.New("modem reported failure")
)

// HandshakeError reports the initialization step the modem rejected.
type HandshakeError struct {
	// Step describes the failed command, e.g. "switch to station mode".
	Step string
	// State is the last state reached before the failure.
	State State
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("could not %s (state %s): %v", e.Step, e.State, ErrCommandFailed)
}

func (e *HandshakeError) Unwrap() error {
	return ErrCommandFailed
}
