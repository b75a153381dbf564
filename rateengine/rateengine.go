// Package rateengine is the sliding-window rate estimator (C5). It
// consumes drained transport.Events into the window store, rotates the
// store on each sample tick, and on each measure tick computes a
// fractional-decay rate per source and drives blacklist insert/remove
// transitions, exactly per spec.md §4.5.
package rateengine

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/dfluck/xdpfilter-go/blacklist"
	"github.com/dfluck/xdpfilter-go/report"
	"github.com/dfluck/xdpfilter-go/transport"
	"github.com/dfluck/xdpfilter-go/window"
	"github.com/dfluck/xdpfilter-go/xlog"
)

// Config holds the two tunables exposed on the CLI (spec.md §6).
type Config struct {
	NumPackets int           // rate threshold
	TimePeriod time.Duration // sample interval
}

// Engine is the rate engine. It is not safe for concurrent use: spec.md §5
// places all window/blacklist mutation on a single goroutine, the event
// loop.
type Engine struct {
	cfg   Config
	store *window.Store
	bl    blacklist.Set
	log   xlog.Logger

	// fullLimiter throttles the "blacklist full" log line so a sustained
	// attack against an exhausted blacklist can't flood the log. Modeled
	// on ratelimiter.Ratelimiter's token-bucket shape, retargeted from
	// "drop packets" to "drop duplicate log lines".
	fullLimiter *rate.Limiter
}

// New creates a rate engine over store and bl with the given config.
func New(cfg Config, store *window.Store, bl blacklist.Set, log xlog.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		store:       store,
		bl:          bl,
		log:         log,
		fullLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// HandleEvent is the (a) event-arrival reaction: insert the observed
// (host, dest, port) into the current window.
func (e *Engine) HandleEvent(ev transport.Event) {
	e.store.Insert(ev.Host, ev.Dest, ev.Port)
}

// SampleTick is the (b) sample-tick reaction: rotate the window store.
// fraction is the fraction of the sample interval elapsed at the moment
// the tick fired; in steady state this is 1.0.
func (e *Engine) SampleTick(fraction float64) {
	e.store.Rotate(fraction)
}

// MeasureTick is the (c) measure-tick reaction: for every source in the
// current window, compute rate(s) = p*r + c and drive blacklist
// transitions. residual is the time remaining before the next sample
// rotation; r is residual/TimePeriod clamped to [0, 1] (spec.md §9 Open
// Question: this divides by the configured period, not a hardcoded 60).
func (e *Engine) MeasureTick(now time.Time, residual time.Duration) {
	r := residual.Seconds() / e.cfg.TimePeriod.Seconds()
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}

	for source, ports := range e.store.IterateCurrent() {
		p := e.store.SizePrevious(source)
		c := ports.Size()
		est := float64(p)*r + float64(c)

		blacklisted := e.bl.Contains(source)

		switch {
		case est > float64(e.cfg.NumPackets) && !blacklisted:
			inserted, ok := e.bl.InsertIfAbsent(source)
			if !ok {
				if e.fullLimiter.Allow() {
					e.log.Infof("blacklist full, cannot block %s", report.IPString(source))
				}
				continue
			}
			if inserted {
				e.log.Info(report.Line(report.Detection{
					When:   now,
					Source: source,
					Dest:   ports.Dest(),
					Ports:  ports.Ports(),
				}))
			}
		case est <= float64(e.cfg.NumPackets) && blacklisted:
			e.bl.Remove(source)
		}
	}
}
