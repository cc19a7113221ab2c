package at

import (
	"bytes"
	"errors"
	"strconv"
)

// ErrMalformedFrame is returned by Classify when a buffer starts with the
// +IPD prefix but the declared payload length is missing, not decimal, or
// out of range. The stream can no longer be framed after this.
var ErrMalformedFrame = errors.New("malformed +IPD frame header")

// Kind tags the result of Classify.
type Kind int

const (
	// Incomplete means more bytes are needed before anything can be decided.
	Incomplete Kind = iota
	// StatusLine is a '\n' terminated response that is not a packet frame.
	StatusLine
	// PacketFrame is an inbound +IPD packet.
	PacketFrame
)

func (k Kind) String() string {
	switch k {
	case Incomplete:
		return "incomplete"
	case StatusLine:
		return "status"
	case PacketFrame:
		return "packet"
	default:
		return "unknown"
	}
}

// Unit is one classified piece of the modem byte stream. The slices alias
// the buffer given to Classify and are only valid until it is modified.
type Unit struct {
	Kind Kind
	// Length is the number of bytes the unit occupies, terminator and
	// payload included. It is zero for Incomplete.
	Length int
	// Line is the whole status line including its terminator.
	Line []byte
	// Header holds the bytes between the +IPD prefix and the ':' delimiter.
	Header []byte
	// Payload holds exactly the declared number of packet bytes.
	Payload []byte
}

// Classify decides whether data starts with a complete status line or
// packet frame.
//
// A buffer that is a proper prefix of "+IPD," is always Incomplete, so a
// packet frame split across reads is never mistaken for a status line.
// Packet payloads are delimited by the declared length only; they may hold
// any byte, line terminators included.
func Classify(data []byte) (Unit, error) {
	i := 0
	for i < len(IPDPrefix) && i < len(data) && data[i] == IPDPrefix[i] {
		i++
	}

	switch {
	case i == len(IPDPrefix):
		return classifyFrame(data)
	case i == len(data):
		return Unit{}, nil
	}

	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		return Unit{}, nil
	}
	return Unit{Kind: StatusLine, Length: end + 1, Line: data[:end+1]}, nil
}

func classifyFrame(data []byte) (Unit, error) {
	start := len(IPDPrefix)
	digits := start
	for digits < len(data) && data[digits] >= '0' && data[digits] <= '9' {
		digits++
	}
	if digits == len(data) {
		return Unit{}, nil
	}
	if digits == start || (data[digits] != ',' && data[digits] != ':') {
		return Unit{}, ErrMalformedFrame
	}

	length, err := strconv.ParseUint(string(data[start:digits]), 10, 31)
	if err != nil {
		return Unit{}, ErrMalformedFrame
	}

	colon := bytes.IndexByte(data[digits:], ':')
	if colon < 0 {
		return Unit{}, nil
	}
	colon += digits

	// Compare without adding so a length near the 31 bit limit cannot
	// overflow a 32 bit int.
	if int(length) > len(data)-colon-1 {
		return Unit{}, nil
	}
	total := colon + 1 + int(length)

	return Unit{
		Kind:    PacketFrame,
		Length:  total,
		Header:  data[start:colon],
		Payload: data[colon+1 : total],
	}, nil
}

// ClassifyLine identifies the nature of a status line. Matching is by prefix
// so the trailing "\r\n" does not matter.
func ClassifyLine(line []byte) ResponseType {
	switch {
	case hasPrefix(line, OK), hasPrefix(line, SendOK):
		return TypeSuccess
	case hasPrefix(line, FAIL), hasPrefix(line, SendFail),
		hasPrefix(line, ERROR), hasPrefix(line, AlreadyConnected):
		return TypeFailure
	case hasPrefix(line, StationIP), hasPrefix(line, WifiStatus):
		return TypeInfo
	case hasPrefix(line, UrcReady), hasPrefix(line, UrcClosed), hasPrefix(line, UrcBusy):
		return TypeURC
	default:
		return TypeData
	}
}

func hasPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == prefix
}
