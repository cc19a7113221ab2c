package modem

import (
	"i4.energy/across/esptun/at"
)

// SendPacket transmits one packet as a datagram on the open UDP connection.
//
// The length is announced with AT+CIPSEND and the raw payload is written
// only after the modem accepted it. A packet the modem rejects is dropped
// without error; UDP semantics allow that and retries belong above this
// layer. Returned errors are transport or framing failures and end the
// session.
//
// SendPacket must be called from the goroutine running the session; while
// Loop runs that is Loop itself.
func (m *Modem) SendPacket(payload []byte) error {
	if m.state != StateStreaming {
		return ErrNotInitialized
	}
	if m.closed.Load() {
		return ErrAlreadyClosed
	}

	m.stats.addToModem(len(payload))
	m.logger.Debug("Sending packet", "packet", packetSummary(payload))

	ok, err := m.exec(at.Send(len(payload)))
	if err != nil {
		return err
	}
	if !ok {
		m.stats.sendsRejected.Add(1)
		m.logger.Debug("Modem rejected send, packet dropped", "length", len(payload))
		return nil
	}

	if err := m.write(payload); err != nil {
		return err
	}
	ok, err = m.pump(m.source, false)
	if err != nil {
		return err
	}
	if !ok {
		m.stats.sendsRejected.Add(1)
		m.logger.Debug("Modem failed to send packet", "length", len(payload))
	}
	return nil
}
