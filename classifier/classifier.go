// Package classifier implements the bounds-safe Ethernet→IPv4→TCP parse,
// blacklist lookup, and SYN-event emission that runs at the earliest
// ingress hook (C1). Every structured read is preceded by an explicit
// bounds check against the end of the packet buffer, mirroring the
// discipline an eBPF verifier imposes on the real kernel/XDP build of this
// same algorithm (no unbounded loops, no heap allocation, no library
// calls) — see xdpfilter.bpf.c for the program this function is a
// byte-for-byte port of the control flow of.
package classifier

import (
	"encoding/binary"

	"github.com/dfluck/xdpfilter-go/transport"
)

// Verdict is the classifier's disposition for a packet.
type Verdict int

const (
	Pass Verdict = iota
	Drop
)

const (
	ethHeaderLen  = 14
	ethTypeIPv4   = 0x0800
	ethTypeIPv6   = 0x86DD
	ipv4MinHeader = 20
	tcpMinHeader  = 20

	tcpFlagFIN = 0x01
	tcpFlagSYN = 0x02
	tcpFlagRST = 0x04
	tcpFlagACK = 0x10
)

// Lookup is the read-only view of the blacklist the classifier needs.
// blacklist.Set satisfies this structurally; the narrower interface keeps
// this package free of any dependency beyond transport's Event type.
type Lookup interface {
	Contains(ip uint32) bool
}

// Classify parses one packet buffer (Ethernet through TCP) and returns the
// verdict. Every TCP SYN (SYN=1, ACK=0) seen over IPv4 is also reserved and
// submitted as a transport.Event; reservation failure silently drops the
// event but never changes the verdict (spec.md §4.1 step 7).
func Classify(pkt []byte, bl Lookup, prod transport.Producer) Verdict {
	// 1. Ethernet header.
	if len(pkt) < ethHeaderLen {
		return Drop
	}
	etherType := binary.BigEndian.Uint16(pkt[12:14])
	if etherType == ethTypeIPv6 {
		return Pass
	}
	if etherType != ethTypeIPv4 {
		// Anything else (ARP, 802.1Q, ...) is outside scope; treat like
		// the real program would for a type it doesn't special-case:
		// there is no IPv4 header to inspect, so pass it through
		// untouched rather than guessing at an offset.
		return Pass
	}

	// 2. IPv4 header (fixed offset, variable length).
	ipStart := ethHeaderLen
	if len(pkt) < ipStart+ipv4MinHeader {
		return Drop
	}
	ipHeader := pkt[ipStart:]

	host := binary.BigEndian.Uint32(ipHeader[12:16])
	dest := binary.BigEndian.Uint32(ipHeader[16:20])

	// 3. Blacklist lookup. Don't return yet: a blocked source's SYNs are
	// still counted so the rate engine keeps observing the attempt.
	verdict := Pass
	if bl != nil && bl.Contains(host) {
		verdict = Drop
	}

	ihl := int(ipHeader[0] & 0x0f)
	ipHeaderLen := ihl * 4
	if ipHeaderLen < ipv4MinHeader {
		return Drop
	}

	// 4. End of IPv4 header must lie within the packet.
	tcpStart := ipStart + ipHeaderLen
	if len(pkt) < tcpStart {
		return Drop
	}

	// 5. TCP header.
	if len(pkt) < tcpStart+tcpMinHeader {
		return Drop
	}
	tcpHeader := pkt[tcpStart:]
	flags := tcpHeader[13]

	// 6. Only SYN (not SYN-ACK) produces an event.
	if flags&tcpFlagSYN == 0 || flags&tcpFlagACK != 0 {
		return verdict
	}

	// 7/8. Reserve and submit; lossy on overflow, verdict unaffected.
	if prod == nil {
		return verdict
	}
	e, ok := prod.Reserve()
	if !ok {
		return verdict
	}
	e.Host = host
	e.Dest = dest
	e.Port = binary.BigEndian.Uint16(tcpHeader[2:4])
	prod.Submit(e)

	return verdict
}
