package modem

import (
	"context"
	"fmt"

	"i4.energy/across/esptun/at"
)

// State tracks the initialization handshake. A state is entered once the
// modem accepted the corresponding command.
type State int

const (
	StateIdle State = iota
	StateEchoDisabled
	StateStationMode
	StateSingleConnection
	StateBaudRaised
	StateLinkVerified
	StateJoined
	StateIPQueried
	StateSocketOpen
	StateStreaming
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateEchoDisabled:     "echo-disabled",
	StateStationMode:      "station-mode",
	StateSingleConnection: "single-connection",
	StateBaudRaised:       "baud-raised",
	StateLinkVerified:     "link-verified",
	StateJoined:           "joined",
	StateIPQueried:        "ip-queried",
	StateSocketOpen:       "socket-open",
	StateStreaming:        "streaming",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// handshakeStep is one command of the initialization sequence.
type handshakeStep struct {
	// next is the state entered when the modem accepts the command
	next State
	// desc names the step in errors: "could not <desc>"
	desc    string
	command func(c *Config) *at.Command
	// after runs once the modem accepted the command
	after func(m *Modem) error
}

// handshake is the fixed initialization sequence. Single connection mode
// is required because +IPD frames are parsed without a connection id.
var handshake = []handshakeStep{
	{
		next:    StateEchoDisabled,
		desc:    "disable echo",
		command: func(*Config) *at.Command { return at.EchoOff() },
	},
	{
		next:    StateStationMode,
		desc:    "switch to station mode",
		command: func(*Config) *at.Command { return at.StationMode() },
	},
	{
		next:    StateSingleConnection,
		desc:    "switch to single-connection mode",
		command: func(*Config) *at.Command { return at.SingleConnection() },
	},
	{
		next:    StateBaudRaised,
		desc:    "set faster baud rate",
		command: func(c *Config) *at.Command { return at.SetUART(uint32(c.baudRate)) },
		after: func(m *Modem) error {
			// The modem already switched; both ends have to match before
			// the next command or the link is lost until reset.
			if err := m.transport.SetBaudRate(m.config.baudRate); err != nil {
				return fmt.Errorf("reconfigure transport: %w", err)
			}
			return nil
		},
	},
	{
		next:    StateLinkVerified,
		desc:    "verify link at new baud rate",
		command: func(*Config) *at.Command { return at.Test() },
	},
	{
		next:    StateJoined,
		desc:    "connect to access point",
		command: func(c *Config) *at.Command { return at.JoinAP(c.ssid, c.password) },
	},
	{
		next:    StateIPQueried,
		desc:    "query IP",
		command: func(*Config) *at.Command { return at.QueryIP() },
	},
	{
		next:    StateSocketOpen,
		desc:    "open UDP connection",
		command: func(c *Config) *at.Command { return at.StartUDP(c.host, c.port) },
	},
}

// init performs the initial setup sequence for the modem. Every step must
// succeed; there are no retries, a rejected command needs an operator.
func (m *Modem) init(ctx context.Context) error {
	for _, step := range handshake {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", step.desc, err)
		}

		switch step.next {
		case StateBaudRaised:
			m.logger.Info("Changing baud rate", "baud_rate", m.config.baudRate)
		case StateJoined:
			m.logger.Info("Connecting to access point", "ssid", m.config.ssid)
		case StateSocketOpen:
			m.logger.Info("Opening UDP connection",
				"host", m.config.host, "port", m.config.port, "local_port", m.config.port)
		}

		ok, err := m.exec(step.command(&m.config))
		if err != nil {
			return fmt.Errorf("%s: %w", step.desc, err)
		}
		if !ok {
			return &HandshakeError{Step: step.desc, State: m.state}
		}

		if step.after != nil {
			if err := step.after(m); err != nil {
				return fmt.Errorf("%s: %w", step.desc, err)
			}
		}
		m.state = step.next
	}

	m.state = StateStreaming
	return nil
}
