package modem

import "sync/atomic"

// Stats is a snapshot of the tunnel counters. Counters only grow.
type Stats struct {
	// PacketsToModem counts packets read from the device and announced to
	// the modem.
	PacketsToModem uint64
	// PacketsFromModem counts +IPD frames received from the modem.
	PacketsFromModem uint64
	BytesToModem     uint64
	BytesFromModem   uint64
	// SendsRejected counts outbound packets dropped because the modem
	// answered AT+CIPSEND or the payload with a failure.
	SendsRejected uint64
	// DeviceWriteErrors counts inbound packets the device refused.
	DeviceWriteErrors uint64
}

type counters struct {
	packetsToModem    atomic.Uint64
	packetsFromModem  atomic.Uint64
	bytesToModem      atomic.Uint64
	bytesFromModem    atomic.Uint64
	sendsRejected     atomic.Uint64
	deviceWriteErrors atomic.Uint64
}

func (c *counters) addToModem(n int) {
	c.packetsToModem.Add(1)
	c.bytesToModem.Add(uint64(n))
}

func (c *counters) addFromModem(n int) {
	c.packetsFromModem.Add(1)
	c.bytesFromModem.Add(uint64(n))
}

func (c *counters) snapshot() Stats {
	return Stats{
		PacketsToModem:    c.packetsToModem.Load(),
		PacketsFromModem:  c.packetsFromModem.Load(),
		BytesToModem:      c.bytesToModem.Load(),
		BytesFromModem:    c.bytesFromModem.Load(),
		SendsRejected:     c.sendsRejected.Load(),
		DeviceWriteErrors: c.deviceWriteErrors.Load(),
	}
}

// Sub returns the counter increase since prev.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		PacketsToModem:    s.PacketsToModem - prev.PacketsToModem,
		PacketsFromModem:  s.PacketsFromModem - prev.PacketsFromModem,
		BytesToModem:      s.BytesToModem - prev.BytesToModem,
		BytesFromModem:    s.BytesFromModem - prev.BytesFromModem,
		SendsRejected:     s.SendsRejected - prev.SendsRejected,
		DeviceWriteErrors: s.DeviceWriteErrors - prev.DeviceWriteErrors,
	}
}

// IsZero reports whether no counter is set.
func (s Stats) IsZero() bool {
	return s == Stats{}
}
