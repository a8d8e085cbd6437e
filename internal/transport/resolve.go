package transport

import (
	"context"
	"fmt"
	"net"
)

// resolveCandidates returns candidate IPs for host, consistent with the
// requested family, in the order a connect attempt should try them.
func resolveCandidates(ctx context.Context, host string, family Family) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if !matchesFamily(ip, family) {
			return nil, fmt.Errorf("%w: %s does not match requested family %s", ErrAddressResolution, host, family)
		}
		return []net.IP{ip}, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAddressResolution, err)
	}
	var out []net.IP
	for _, a := range addrs {
		if matchesFamily(a.IP, family) {
			out = append(out, a.IP)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no %s addresses for %s", ErrAddressResolution, family, host)
	}
	return out, nil
}

func matchesFamily(ip net.IP, family Family) bool {
	switch family {
	case FamilyV4:
		return ip.To4() != nil
	case FamilyV6:
		return ip.To4() == nil && ip.To16() != nil
	default:
		return true
	}
}

func networkFor(props Properties) string {
	base := props.Name
	switch base {
	case "raw":
		base = "ip"
	}
	switch props.Family {
	case FamilyV4:
		return base + "4"
	case FamilyV6:
		return base + "6"
	default:
		return base
	}
}
