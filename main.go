//go:build linux

// Command xdpfilter-go is the control-plane daemon: it wires together the
// blacklist, the transport consumer, the window store, the rate engine,
// and the event loop, then blocks until interrupted (spec.md §6).
//
// This build always runs the in-process Mock transport feeding a rawsock
// Listener on the chosen interface (SPEC_FULL.md §4.2): a real deployment
// that attaches the XDP program and reads a BPF_MAP_TYPE_RINGBUF map would
// swap in transport.NewRingbufConsumer and blacklist.NewKernel instead,
// which this file's structure is already shaped to accept.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dfluck/xdpfilter-go/blacklist"
	"github.com/dfluck/xdpfilter-go/config"
	"github.com/dfluck/xdpfilter-go/control"
	"github.com/dfluck/xdpfilter-go/eventloop"
	"github.com/dfluck/xdpfilter-go/flags"
	"github.com/dfluck/xdpfilter-go/rateengine"
	"github.com/dfluck/xdpfilter-go/rawsock"
	"github.com/dfluck/xdpfilter-go/transport"
	"github.com/dfluck/xdpfilter-go/window"
	"github.com/dfluck/xdpfilter-go/xlog"
)

const (
	measurePeriod = time.Second // measure tick, spec.md §4.5 default
	transportCap  = 4096
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	opts := flags.NewOptions()

	// A config file path can only be honored before the full flag parse
	// assigns opts' other defaults, so it gets a narrow first pass of its
	// own; the CLI flags parsed afterward always win (flags.Parse docs).
	if path := preParseConfigFlag(); path != "" {
		if err := config.Load(path, opts); err != nil {
			return err
		}
	}

	if err := flags.Parse(opts); err != nil {
		return err
	}

	level := xlog.LevelInfo
	if opts.Verbose {
		level = xlog.LevelDebug
	}
	log := xlog.New(level, "("+opts.Interface+") ")

	bl := blacklist.NewMemory(blacklist.Capacity)
	defer bl.Close()

	mock := transport.NewMock(transportCap)

	listener, err := rawsock.New(opts.Interface, bl, mock, log)
	if err != nil {
		return fmt.Errorf("xdpfilter-go: %w", err)
	}
	defer listener.Close()

	store := window.NewStore()
	timePeriod := time.Duration(opts.TimePeriod) * time.Second
	engine := rateengine.New(rateengine.Config{
		NumPackets: opts.NumPackets,
		TimePeriod: timePeriod,
	}, store, bl, log)

	loop := eventloop.New(mock, engine, timePeriod, measurePeriod, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutdown requested")
		cancel()
	}()

	adminDone := make(chan struct{})
	admin := control.New(control.SocketPath(opts.Interface), func() control.Snapshot {
		return control.Snapshot{
			Interface:     opts.Interface,
			NumPackets:    opts.NumPackets,
			TimePeriod:    timePeriod,
			BlacklistSize: bl.Len(),
		}
	}, log)
	go func() {
		if err := admin.Serve(adminDone); err != nil {
			log.Errorf("admin socket: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- listener.Run(ctx) }()

	loopErr := loop.Run(ctx)
	close(adminDone)

	if rawErr := <-errCh; rawErr != nil && loopErr == nil {
		return rawErr
	}
	return loopErr
}

// preParseConfigFlag does a narrow scan of os.Args for -c/--config, ahead
// of the full pflag.Parse, so a config file's values can seed opts before
// CLI flags are applied over them.
func preParseConfigFlag() string {
	for i, a := range os.Args[1:] {
		switch {
		case a == "-c" || a == "--config":
			if i+2 < len(os.Args) {
				return os.Args[i+2]
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		case strings.HasPrefix(a, "-c="):
			return strings.TrimPrefix(a, "-c=")
		}
	}
	return ""
}
