//go:build linux

package transport

import "golang.org/x/sys/unix"

const (
	protoSCTP = unix.IPPROTO_SCTP
	protoDCCP = unix.IPPROTO_DCCP
)
