package util

import (
	"fmt"
	"net"
)

// ParseSubnets turns CIDR ranges and bare addresses into networks.
// A bare address becomes a network holding only that host.
func ParseSubnets(entries []string) ([]*net.IPNet, error) {
	var subnets []*net.IPNet

	for _, entry := range entries {
		if _, block, err := net.ParseCIDR(entry); err == nil {
			subnets = append(subnets, block)
			continue
		}

		host := net.ParseIP(entry)
		if host == nil {
			return nil, fmt.Errorf("invalid subnet entry %q", entry)
		}

		bits := 8 * net.IPv6len
		if v4 := host.To4(); v4 != nil {
			host = v4
			bits = 8 * net.IPv4len
		}
		subnets = append(subnets, &net.IPNet{IP: host, Mask: net.CIDRMask(bits, bits)})
	}
	return subnets, nil
}

//ContainsIP reports whether any of the subnets holds ip
func ContainsIP(subnets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}

	for _, block := range subnets {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
