package modem

import (
	"fmt"
	"log/slog"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// packetSummary logs an IP packet as "src->dst proto len". Decoding only
// happens when the record is actually emitted.
type packetSummary []byte

func (p packetSummary) LogValue() slog.Value {
	return slog.StringValue(p.String())
}

func (p packetSummary) String() string {
	if len(p) == 0 {
		return "empty"
	}

	var first gopacket.LayerType
	switch p[0] >> 4 {
	case 4:
		first = layers.LayerTypeIPv4
	case 6:
		first = layers.LayerTypeIPv6
	default:
		return fmt.Sprintf("non-IP %d bytes", len(p))
	}

	pkt := gopacket.NewPacket(p, first, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	network := pkt.NetworkLayer()
	if network == nil || pkt.ErrorLayer() != nil {
		return fmt.Sprintf("undecodable %d bytes", len(p))
	}

	proto := "-"
	if transport := pkt.TransportLayer(); transport != nil {
		proto = transport.LayerType().String()
	} else {
		switch ip := network.(type) {
		case *layers.IPv4:
			proto = ip.Protocol.String()
		case *layers.IPv6:
			proto = ip.NextHeader.String()
		}
	}

	return fmt.Sprintf("%s %s %d bytes", network.NetworkFlow(), proto, len(p))
}

// quoted renders raw modem output with non-printable bytes escaped.
type quoted []byte

func (q quoted) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("%q", []byte(q)))
}
