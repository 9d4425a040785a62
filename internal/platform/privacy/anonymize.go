// Package privacy keeps personal data out of operational output. Stored
// consent records carry the real origin IP as evidence of the decision; log
// lines must not.
package privacy

import "net/netip"

// Prefix widths wide enough that the remainder cannot single out a host.
const (
	v4Bits = 24
	v6Bits = 48
)

// AnonymizeIP reduces an address to its network prefix: /24 for IPv4, /48
// for IPv6. Empty input yields "unknown", unparseable input "invalid"; both
// are safe to log as-is.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := v6Bits
	if addr.Is4() {
		bits = v4Bits
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
