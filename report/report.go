// Package report formats the human-readable port-scan detection line
// (spec.md §6): an ISO-8601 timestamp with timezone, then
// ": Port scan detected: ", then "source_ip -> dest_ip on ports P1 P2 ...",
// ports ascending.
package report

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Detection describes one port-scan-detected event, ready to format.
type Detection struct {
	When   time.Time
	Source uint32
	Dest   uint32
	Ports  []uint16 // ascending
}

// Line renders d per spec.md §6.
func Line(d Detection) string {
	var b strings.Builder
	b.WriteString(d.When.Format("2006-01-02T15:04:05Z07:00"))
	b.WriteString(": Port scan detected: ")
	b.WriteString(IPString(d.Source))
	b.WriteString(" -> ")
	b.WriteString(IPString(d.Dest))
	b.WriteString(" on ports")
	for _, p := range d.Ports {
		fmt.Fprintf(&b, " %d", p)
	}
	return b.String()
}

// IPString renders a host-byte-order IPv4 address for display.
func IPString(hostOrder uint32) string {
	return net.IPv4(
		byte(hostOrder>>24),
		byte(hostOrder>>16),
		byte(hostOrder>>8),
		byte(hostOrder),
	).String()
}
