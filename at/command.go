package at

import (
	"strconv"
	"strings"
)

// Command accumulates one AT command line. The zero value is an empty
// command; use NewCommand to start from a command name.
//
//	at.NewCommand(at.CmdJoinAP).Quoted(ssid).Raw(",").Quoted(password).Bytes()
type Command struct {
	buf []byte
}

// NewCommand starts a command with the given literal text.
func NewCommand(text string) *Command {
	return &Command{buf: []byte(text)}
}

// Raw appends text as is.
func (c *Command) Raw(text string) *Command {
	c.buf = append(c.buf, text...)
	return c
}

// Escaped appends raw with '\\', ',' and '"' backslash-escaped.
func (c *Command) Escaped(raw string) *Command {
	c.buf = AppendEscaped(c.buf, raw)
	return c
}

// Quoted appends raw escaped and surrounded by double quotes.
func (c *Command) Quoted(raw string) *Command {
	c.buf = append(c.buf, '"')
	c.buf = AppendEscaped(c.buf, raw)
	c.buf = append(c.buf, '"')
	return c
}

// Uint appends v in decimal without leading zeros.
func (c *Command) Uint(v uint32) *Command {
	c.buf = strconv.AppendUint(c.buf, uint64(v), 10)
	return c
}

// Bytes returns the command line terminated by CRLF.
func (c *Command) Bytes() []byte {
	out := make([]byte, 0, len(c.buf)+len(CRLF))
	out = append(out, c.buf...)
	return append(out, CRLF...)
}

// String returns the command without its terminator.
func (c *Command) String() string {
	return string(c.buf)
}

// AppendEscaped appends s to dst, inserting a backslash before every '\\',
// ',' and '"' so the string can be embedded in a quoted AT argument.
func AppendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', ',', '"':
			dst = append(dst, '\\')
		}
		dst = append(dst, s[i])
	}
	return dst
}

// Escape returns s escaped like AppendEscaped.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\,\"") {
		return s
	}
	return string(AppendEscaped(make([]byte, 0, len(s)+4), s))
}

func EchoOff() *Command          { return NewCommand(CmdEchoOff) }
func StationMode() *Command      { return NewCommand(CmdStationMode) }
func SingleConnection() *Command { return NewCommand(CmdSingleConnection) }
func Test() *Command             { return NewCommand(CmdAt) }
func QueryIP() *Command          { return NewCommand(CmdQueryIP) }

// SetUART changes the modem side baud rate for the current session,
// 8 data bits, 1 stop bit, no parity, no flow control.
func SetUART(baud uint32) *Command {
	return NewCommand(CmdSetUART).Uint(baud).Raw(",8,1,0,0")
}

// JoinAP connects to an access point for the current session.
func JoinAP(ssid, password string) *Command {
	return NewCommand(CmdJoinAP).Quoted(ssid).Raw(",").Quoted(password)
}

// StartUDP opens the single UDP connection. The local port is the same as
// the remote one.
func StartUDP(host string, port uint16) *Command {
	return NewCommand(CmdStart).Raw(`"UDP",`).Quoted(host).Raw(",").
		Uint(uint32(port)).Raw(",").Uint(uint32(port))
}

// Send announces n bytes of raw payload on the open connection.
func Send(n int) *Command {
	return NewCommand(CmdSend).Uint(uint32(n))
}
