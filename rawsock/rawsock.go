//go:build linux

// Package rawsock is a userspace-only fallback ingress transport for hosts
// where no XDP program is loaded: an AF_PACKET socket on one interface,
// pre-filtered with a classic BPF program (IPv4 + TCP only) and fed
// through the same classifier.Classify used by the real kernel path.
// Grounded on two corpus shapes: the AF_PACKET socket/bind sequence in
// carverauto-serviceradar's syn_scanner.go (there used for sending, here
// for receiving) and wireguard-go's rwcancel package for the self-pipe
// cancellation of a blocking read.
//
// This mode is strictly observe-only: a raw socket receives a copy of
// every frame the kernel has already decided to deliver, so returning
// classifier.Drop here logs the verdict but cannot stop the packet. Inline
// enforcement requires the XDP/TC hook this package stands in for, which
// is out of scope (spec.md Non-goals).
package rawsock

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"

	"github.com/dfluck/xdpfilter-go/classifier"
	"github.com/dfluck/xdpfilter-go/transport"
	"github.com/dfluck/xdpfilter-go/xlog"
)

const snapLen = 1500

// Listener reads raw Ethernet frames from one interface and classifies
// each one.
type Listener struct {
	fd      int
	iface   *net.Interface
	bl      classifier.Lookup
	prod    transport.Producer
	log     xlog.Logger
	cancelR int
	cancelW int
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}

// New opens an AF_PACKET socket bound to ifaceName, with the classic BPF
// pre-filter attached.
func New(ifaceName string, bl classifier.Lookup, prod transport.Producer, log xlog.Logger) (*Listener, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("rawsock: interface %s: %w", ifaceName, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("rawsock: socket: %w", err)
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: bind %s: %w", ifaceName, err)
	}

	if err := attachFilter(fd); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: attach filter: %w", err)
	}

	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_NONBLOCK); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: cancel pipe: %w", err)
	}

	return &Listener{
		fd:      fd,
		iface:   iface,
		bl:      bl,
		prod:    prod,
		log:     log,
		cancelR: pipeFds[0],
		cancelW: pipeFds[1],
	}, nil
}

// attachFilter assembles a classic BPF program that accepts only
// EtherType IPv4 frames carrying the TCP protocol. classifier.Classify
// passes non-IPv4 frames on its own, but it does not check the IPv4
// protocol field: any IPv4 payload reaching it is parsed as a TCP header.
// On this path the filter is what keeps UDP, ICMP and other IPv4 traffic
// from being counted as SYNs.
func attachFilter(fd int) error {
	prog := []bpf.Instruction{
		// Load EtherType (offset 12, 2 bytes).
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x0800, SkipTrue: 1},
		bpf.RetConstant{Val: 0},
		// Load IPv4 protocol field (offset 14+9).
		bpf.LoadAbsolute{Off: 23, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: unix.IPPROTO_TCP, SkipTrue: 1},
		bpf.RetConstant{Val: 0},
		bpf.RetConstant{Val: snapLen},
	}

	raw, err := bpf.Assemble(prog)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	sockFilter := make([]unix.SockFilter, len(raw))
	for i, ins := range raw {
		sockFilter[i] = unix.SockFilter{
			Code: ins.Op,
			Jt:   ins.Jt,
			Jf:   ins.Jf,
			K:    ins.K,
		}
	}
	fprog := unix.SockFprog{
		Len:    uint16(len(sockFilter)),
		Filter: &sockFilter[0],
	}
	return unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &fprog)
}

// Run blocks, classifying frames until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		var one [1]byte
		unix.Write(l.cancelW, one[:])
	}()

	buf := make([]byte, snapLen)
	for {
		fds := []unix.PollFd{
			{Fd: int32(l.fd), Events: unix.POLLIN},
			{Fd: int32(l.cancelR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(fds, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("rawsock: poll: %w", err)
		}
		if n == 0 {
			continue
		}
		if fds[1].Revents&unix.POLLIN != 0 {
			return nil
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		nRead, _, err := unix.Recvfrom(l.fd, buf, 0)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			l.log.Errorf("rawsock: recvfrom: %v", err)
			continue
		}

		verdict := classifier.Classify(buf[:nRead], l.bl, l.prod)
		if verdict == classifier.Drop {
			l.log.Debugf("rawsock: would drop frame on %s (observe-only)", l.iface.Name)
		}
	}
}

// Close releases the socket and cancellation pipe.
func (l *Listener) Close() error {
	unix.Close(l.cancelW)
	unix.Close(l.cancelR)
	return unix.Close(l.fd)
}
