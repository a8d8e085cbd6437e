//go:build !linux

package transport

// IANA protocol numbers, used only to label sctp/dccp descriptors on
// platforms where we can't actually open such sockets (see exotic_other.go).
const (
	protoSCTP = 132
	protoDCCP = 33
)
