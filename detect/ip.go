package detect

import "net"

// isPublicIP reports whether a source identifier is a routable public
// IP. Private, loopback, link-local, multicast, and unspecified
// addresses are exempt from the unknown-IP-spike rule, as is anything
// that does not parse as an IP (including the "unknown" placeholder).
func isPublicIP(value string) bool {
	ip := net.ParseIP(value)
	if ip == nil {
		return false
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsMulticast() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return false
	}
	return true
}
