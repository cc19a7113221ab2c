package modem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"i4.energy/across/esptun/at"
)

// Modem is one session with an ESP8285-class modem that tunnels IP packets
// over a single UDP connection.
//
// All protocol state (the response buffer, the handshake state and the
// command in flight) belongs to the goroutine that calls New and then Loop.
// Only Close and Stats may be called from other goroutines.
type Modem struct {
	// transport provides the physical connection to the modem
	transport Transport
	// device receives inbound packets and provides outbound ones
	device NetDevice
	// config contains the session settings
	config Config
	logger *slog.Logger

	// buf accumulates modem output until it can be classified
	buf *responseBuffer
	// source is where pump reads from: the transport during the handshake,
	// the transport reader goroutine while the loop runs
	source io.Reader
	state  State
	stats  counters

	// closed indicates if the modem has been shut down
	closed atomic.Bool
	// loopRunning indicates if the Loop is currently running
	loopRunning atomic.Bool

	mu sync.Mutex
	// loopCancel stops a running Loop
	loopCancel context.CancelFunc
}

// New creates a new Modem with the given configuration. It establishes
// the transport connection and runs the initialization handshake, leaving
// the modem with one open UDP connection, ready for Loop.
//
// Returns an error if the transport connection or any handshake step
// fails; a failed step is reported as a *HandshakeError.
func New(ctx context.Context, config Config) (*Modem, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Modem{
		transport: transport,
		device:    config.device,
		config:    config,
		logger:    config.logger,
		buf:       newResponseBuffer(config.bufferSize),
		source:    transport,
	}

	if err := m.init(ctx); err != nil {
		transport.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	return m, nil
}

// State returns the handshake progress.
func (m *Modem) State() State {
	return m.state
}

// Stats returns a snapshot of the tunnel counters. It is safe to call
// while Loop runs.
func (m *Modem) Stats() Stats {
	return m.stats.snapshot()
}

// Close shuts down the modem and releases all resources.
// It stops the event loop and closes the transport connection.
// After calling Close(), the modem cannot be reused.
func (m *Modem) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}

	m.mu.Lock()
	if m.loopCancel != nil {
		m.loopCancel()
	}
	m.mu.Unlock()

	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// send writes one command line. The transport is a local character device,
// so a short write means the link is broken, not that it is busy.
func (m *Modem) send(cmd *at.Command) error {
	m.logger.Debug("Sending command", "command", cmd.String())
	return m.write(cmd.Bytes())
}

func (m *Modem) write(p []byte) error {
	n, err := m.transport.Write(p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransportWrite, err)
	}
	if n != len(p) {
		return fmt.Errorf("%w: %w (%d of %d bytes)", ErrTransportWrite, io.ErrShortWrite, n, len(p))
	}
	return nil
}

// exec sends a command and waits for its final status.
func (m *Modem) exec(cmd *at.Command) (bool, error) {
	if err := m.send(cmd); err != nil {
		return false, err
	}
	return m.pump(m.source, false)
}
