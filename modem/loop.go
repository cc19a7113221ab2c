package modem

import (
	"context"
	"fmt"
	"io"
)

// devicePacketSize bounds one read from the network device; it must be at
// least the interface MTU.
const devicePacketSize = 2000

// chunk is one read from the transport.
type chunk struct {
	data []byte
	err  error
}

// packet is one read from the network device.
type packet struct {
	data []byte
	err  error
}

// chunkReader turns the chunks of the transport reader goroutine back into
// an io.Reader for pump. Read blocks until a chunk arrives.
type chunkReader struct {
	ch      <-chan chunk
	pending []byte
	err     error
}

func (r *chunkReader) add(c chunk) {
	if len(r.pending) == 0 {
		r.pending = c.data
	} else {
		r.pending = append(r.pending, c.data...)
	}
	if c.err != nil && r.err == nil {
		r.err = c.err
	}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 && r.err == nil {
		c, ok := <-r.ch
		if !ok {
			c.err = io.EOF
		}
		r.add(c)
	}
	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	return 0, r.err
}

// Buffered returns the number of received bytes not yet read.
func (r *chunkReader) Buffered() int {
	return len(r.pending)
}

// ready reports whether Read would return without waiting.
func (r *chunkReader) ready() bool {
	return len(r.pending) > 0 || r.err != nil
}

// Loop is the packet loop. It must be called once New succeeded and runs
// until the context is cancelled, the modem is closed or a fatal error
// occurs:
//
//  1. Everything the modem sends is dispatched: +IPD packets go to the
//     device in the order their frames complete, status lines are logged.
//  2. Each packet read from the device is sent with SendPacket, but only
//     after all transport data received so far has been dispatched, so a
//     burst of outbound traffic cannot hold back inbound packets.
//  3. A send completes (the modem answered SEND OK or a failure) before the
//     next device packet is taken.
//
// Two goroutines read the transport and the device and only hand over
// bytes; all protocol state stays with the goroutine running Loop.
//
// Usage:
//
//	m, err := modem.New(ctx, config)
//	if err != nil { return err }
//	defer m.Close()
//
//	err = m.Loop(ctx)
func (m *Modem) Loop(ctx context.Context) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	if m.state != StateStreaming {
		return ErrNotInitialized
	}
	if !m.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer m.loopRunning.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.mu.Lock()
	m.loopCancel = cancel
	m.mu.Unlock()
	if m.closed.Load() {
		return ErrAlreadyClosed
	}

	chunks := make(chan chunk, 16)
	packets := make(chan packet)
	go readTransport(ctx, m.transport, chunks, m.config.bufferSize)
	go readDevice(ctx, m.device, packets)

	src := &chunkReader{ch: chunks}
	m.source = src

	m.logger.Info("Starting packet loop")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c, ok := <-chunks:
			if !ok {
				c.err = io.EOF
			}
			src.add(c)
			if err := m.drain(src); err != nil {
				return loopErr(ctx, err)
			}

		case p := <-packets:
			if p.err != nil {
				return loopErr(ctx, fmt.Errorf("read from device: %w", p.err))
			}
			if err := m.drain(src); err != nil {
				return loopErr(ctx, err)
			}
			if err := m.SendPacket(p.data); err != nil {
				return loopErr(ctx, err)
			}
		}
	}
}

// drain dispatches every transport chunk that has already arrived.
func (m *Modem) drain(src *chunkReader) error {
	for {
		if !src.ready() {
			select {
			case c, ok := <-src.ch:
				if !ok {
					c.err = io.EOF
				}
				src.add(c)
			default:
				return nil
			}
		}
		if _, err := m.pump(src, true); err != nil {
			return err
		}
	}
}

// loopErr prefers the cancellation cause over the I/O error it provoked.
func loopErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func readTransport(ctx context.Context, r io.Reader, out chan<- chunk, size int) {
	defer close(out)
	for {
		buf := make([]byte, size)
		n, err := r.Read(buf)
		if n == 0 && err == nil {
			err = io.ErrNoProgress
		}
		select {
		case out <- chunk{data: buf[:n], err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func readDevice(ctx context.Context, r io.Reader, out chan<- packet) {
	for {
		buf := make([]byte, devicePacketSize)
		n, err := r.Read(buf)
		if n == 0 && err == nil {
			err = io.ErrNoProgress
		}
		select {
		case out <- packet{data: buf[:n], err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
