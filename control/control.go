// Package control exposes a small Unix-domain admin socket for runtime
// introspection: current blacklist membership, configured thresholds. This
// is additive to spec.md — the original tool's only observability is its
// stdout detection line — modeled on wireguard-go's ipc.UAPIOpen (same
// socket-directory layout, same "remove a stale socket and retry" dance).
package control

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/dfluck/xdpfilter-go/report"
	"github.com/dfluck/xdpfilter-go/xlog"
)

// Snapshot is the point-in-time state rendered to a connecting client.
type Snapshot struct {
	Interface     string
	NumPackets    int
	TimePeriod    time.Duration
	BlacklistSize int
	Blacklist     []uint32
}

// Server accepts connections on a Unix-domain socket and writes a snapshot
// to each one, then closes it. There is no request syntax beyond
// "connect": every accepted connection gets the current state.
type Server struct {
	path     string
	snapshot func() Snapshot
	log      xlog.Logger
}

const defaultSocketDir = "/var/run/xdpfilter"

// SocketPath mirrors ipc.sockPath's per-interface naming.
func SocketPath(iface string) string {
	return filepath.Join(defaultSocketDir, iface+".sock")
}

// New creates a control server listening at path, reporting snapshot() on
// every connection.
func New(path string, snapshot func() Snapshot, log xlog.Logger) *Server {
	return &Server{path: path, snapshot: snapshot, log: log}
}

// listen opens the Unix-domain socket, cleaning up a stale one left behind
// by a prior crashed instance, matching ipc.UAPIOpen's retry shape.
func (s *Server) listen() (*net.UnixListener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("control: mkdir: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unix", s.path)
	if err != nil {
		return nil, err
	}

	ln, err := net.ListenUnix("unix", addr)
	if err == nil {
		return ln, nil
	}

	if _, dialErr := net.Dial("unix", s.path); dialErr == nil {
		return nil, errors.New("control: socket already in use")
	}
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
		return nil, fmt.Errorf("control: remove stale socket: %w", rmErr)
	}
	return net.ListenUnix("unix", addr)
}

// Serve accepts connections until done is closed. A listener accept
// failure that isn't caused by Serve's own shutdown is logged at ERROR;
// per SPEC_FULL.md §7 this does not stop the data plane.
func (s *Server) Serve(done <-chan struct{}) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}

	go func() {
		<-done
		ln.Close()
		os.Remove(s.path)
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-done:
				return nil
			default:
				s.log.Errorf("control: accept: %v", err)
				return err
			}
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	w := bufio.NewWriter(conn)
	defer w.Flush()

	snap := s.snapshot()
	fmt.Fprintf(w, "interface=%s\n", snap.Interface)
	fmt.Fprintf(w, "num_packets=%d\n", snap.NumPackets)
	fmt.Fprintf(w, "time_period=%s\n", snap.TimePeriod)
	fmt.Fprintf(w, "blacklist_size=%d\n", snap.BlacklistSize)
	for _, ip := range snap.Blacklist {
		fmt.Fprintf(w, "blacklist=%s\n", report.IPString(ip))
	}
}
