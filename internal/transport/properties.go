// Package transport provides a uniform, cancellable, time-bounded API over
// stream, datagram, and related connection-oriented transports, for both
// IPv4 and IPv6.
package transport

import "fmt"

// Family restricts which IP address family a Transport may resolve to.
type Family int

const (
	FamilyEither Family = iota
	FamilyV4
	FamilyV6
)

func (f Family) String() string {
	switch f {
	case FamilyV4:
		return "ipv4"
	case FamilyV6:
		return "ipv6"
	default:
		return "either"
	}
}

// Kind is the socket type underlying a transport.
type Kind int

const (
	KindStream         Kind = iota // SOCK_STREAM
	KindDatagram                   // SOCK_DGRAM
	KindSeqPacket                  // SOCK_SEQPACKET
	KindDatagramCongestion         // SOCK_DCCP
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindDatagram:
		return "datagram"
	case KindSeqPacket:
		return "seqpacket"
	case KindDatagramCongestion:
		return "dccp"
	default:
		return "unknown"
	}
}

// Properties fully describes the transport to use for a connection:
// address family, socket kind, and wire protocol number. Immutable once
// constructed.
type Properties struct {
	Name     string // "tcp", "udp", "sctp", "dccp", "raw"
	Family   Family
	Kind     Kind
	Protocol int // IP protocol number, 0 where not applicable
}

// IsConnectionOriented reports whether this transport kind requires
// listen/accept semantics. Per the spec's explicit mapping: stream and
// datagram-congestion are connection-oriented; datagram and
// sequenced-packet are connection-less for server fan-out purposes.
func (p Properties) IsConnectionOriented() bool {
	return p.Kind == KindStream || p.Kind == KindDatagramCongestion
}

// NewProperties resolves one of the five named transport constructors:
// tcp, udp, sctp, dccp, raw:<proto>. name is matched case-insensitively.
func NewProperties(name string, family Family) (Properties, error) {
	switch lowered(name) {
	case "tcp":
		return Properties{Name: "tcp", Family: family, Kind: KindStream, Protocol: 0}, nil
	case "udp":
		return Properties{Name: "udp", Family: family, Kind: KindDatagram, Protocol: 0}, nil
	case "sctp":
		return Properties{Name: "sctp", Family: family, Kind: KindStream, Protocol: protoSCTP}, nil
	case "dccp":
		return Properties{Name: "dccp", Family: family, Kind: KindDatagramCongestion, Protocol: protoDCCP}, nil
	case "ip", "raw":
		// The descriptor grammar's bare "ip" proto token names a raw
		// socket without a specific wire protocol number; "raw:<proto>"
		// form is also accepted wherever a caller already knows it.
		return Properties{Name: "raw", Family: family, Kind: KindDatagram, Protocol: 0}, nil
	default:
		if proto, ok := parseRaw(name); ok {
			return Properties{Name: "raw", Family: family, Kind: KindDatagram, Protocol: proto}, nil
		}
		return Properties{}, fmt.Errorf("transport: unknown constructor %q", name)
	}
}

func lowered(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func parseRaw(name string) (int, bool) {
	const prefix = "raw:"
	if len(name) <= len(prefix) || lowered(name[:len(prefix)]) != prefix {
		return 0, false
	}
	n := 0
	for _, c := range name[len(prefix):] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
