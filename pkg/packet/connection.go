package packet

import (
	"fmt"
	"strconv"
	"strings"
)

// IncompleteConnection collects every record missing an endpoint address
const IncompleteConnection ConnectionID = "incomplete_connection"

// ConnectionID names a bidirectional conversation between two endpoints.
// Both directions of a flow produce the same ConnectionID.
type ConnectionID string

// endpoint is an address and a port as they appear in a ConnectionID
type endpoint struct {
	ip   string
	port string
}

func (e endpoint) less(other endpoint) bool {
	if e.ip != other.ip {
		return e.ip < other.ip
	}
	return e.port < other.port
}

func (e endpoint) String() string {
	return e.ip + ":" + e.port
}

// NewConnectionID builds the direction independent key
// "ip_lo:port_lo <-> ip_hi:port_hi". Endpoints are ordered by comparing the
// address strings and then the decimal port strings. An empty address on
// either side yields IncompleteConnection.
func NewConnectionID(srcIP string, srcPort int, dstIP string, dstPort int) ConnectionID {
	srcIP = strings.TrimSpace(srcIP)
	dstIP = strings.TrimSpace(dstIP)
	if srcIP == "" || dstIP == "" {
		return IncompleteConnection
	}

	lo := endpoint{ip: srcIP, port: strconv.Itoa(srcPort)}
	hi := endpoint{ip: dstIP, port: strconv.Itoa(dstPort)}
	if hi.less(lo) {
		lo, hi = hi, lo
	}
	return ConnectionID(fmt.Sprintf("%s <-> %s", lo, hi))
}
