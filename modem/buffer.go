package modem

import (
	"errors"
	"fmt"
	"io"

	"i4.energy/across/esptun/at"
)

// responseBuffer accumulates modem output until complete responses can be
// classified. data[:end] is pending; the capacity never changes.
type responseBuffer struct {
	data []byte
	end  int
}

func newResponseBuffer(size int) *responseBuffer {
	return &responseBuffer{data: make([]byte, size)}
}

func (b *responseBuffer) free() []byte {
	return b.data[b.end:]
}

func (b *responseBuffer) pending() []byte {
	return b.data[:b.end]
}

func (b *responseBuffer) full() bool {
	return b.end == len(b.data)
}

// compact slides the first n bytes out of the buffer.
func (b *responseBuffer) compact(n int) {
	if n == 0 {
		return
	}
	copy(b.data, b.data[n:b.end])
	b.end -= n
}

// buffered is implemented by sources that may already hold bytes received
// from the transport, like bufio.Reader.
type buffered interface {
	Buffered() int
}

// pump reads from r and dispatches complete responses until a final
// status (OK, FAIL, ...) has been seen. It returns whether the last final
// status in this call reported success.
//
// Packet frames are written to the device whenever they complete, whatever
// command is in flight.
//
// With earlyTerminate, pump also returns (successfully) as soon as
// everything received so far has been dispatched, so the caller can go back
// to waiting on both the transport and the device.
//
// Errors are fatal to the session: the transport failed or the stream can
// no longer be framed.
func (m *Modem) pump(r io.Reader, earlyTerminate bool) (bool, error) {
	var (
		finished bool
		success  bool
	)

	for !finished {
		n, readErr := r.Read(m.buf.free())
		if n == 0 && readErr == nil {
			readErr = io.ErrNoProgress
		}
		m.buf.end += n

		consumed := 0
		for consumed < m.buf.end {
			unit, err := at.Classify(m.buf.pending()[consumed:])
			if err != nil {
				return false, fmt.Errorf("classify response %q: %w",
					m.buf.pending()[consumed:min(m.buf.end, consumed+32)], err)
			}
			if unit.Kind == at.Incomplete {
				break
			}

			if t, ok := m.dispatch(unit); ok {
				finished = true
				success = t == at.TypeSuccess
			}
			consumed += unit.Length
		}

		if consumed == 0 && m.buf.full() {
			return false, ErrBufferFull
		}
		m.buf.compact(consumed)

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrNoProgress) {
				return false, ErrTransportClosed
			}
			return false, fmt.Errorf("read from transport: %w", readErr)
		}

		if earlyTerminate && !finished && m.buf.end == 0 && !hasBuffered(r) {
			finished = true
			success = true
		}
	}

	return success, nil
}

func hasBuffered(r io.Reader) bool {
	b, ok := r.(buffered)
	return ok && b.Buffered() > 0
}

// dispatch handles one classified unit. It returns the response type and
// true when the unit is a final status.
func (m *Modem) dispatch(unit at.Unit) (at.ResponseType, bool) {
	switch unit.Kind {
	case at.PacketFrame:
		m.logger.Debug("Received packet",
			"header", string(unit.Header), "packet", packetSummary(unit.Payload))
		m.deliver(unit.Payload)
		return at.TypeData, false

	case at.StatusLine:
		m.logger.Debug("Received response", "line", quoted(unit.Line))

		t := at.ClassifyLine(unit.Line)
		switch t {
		case at.TypeInfo:
			m.logger.Info("Modem status", "status", statusText(unit.Line))
		case at.TypeURC:
			m.logger.Warn("Unsolicited modem notification", "status", statusText(unit.Line))
		}
		return t, t.Terminal()
	}
	return at.TypeData, false
}

// deliver writes an inbound packet to the device. Failures are logged and
// the packet is dropped.
func (m *Modem) deliver(payload []byte) {
	m.stats.addFromModem(len(payload))
	if _, err := m.device.Write(payload); err != nil {
		m.stats.deviceWriteErrors.Add(1)
		m.logger.Warn("Failed to write packet to device", "error", err, "length", len(payload))
	}
}

// statusText strips the line terminator and, for station IP reports, the
// +CIPSTA_CUR prefix.
func statusText(line []byte) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if len(line) > len(at.StationIP) && string(line[:len(at.StationIP)]) == at.StationIP {
		line = line[len(at.StationIP):]
		if line[0] == ':' {
			line = line[1:]
		}
	}
	return string(line)
}
