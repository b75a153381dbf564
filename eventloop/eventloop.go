// Package eventloop multiplexes the three readiness sources spec.md §4.6
// names — transport consumer readiness, the sample timer, and the measure
// timer — and dispatches to the rate engine. The C implementation uses
// epoll over a ring-buffer fd and two timerfds; here the same
// level-triggered multiplexing is expressed with a select over channels,
// which is the idiomatic Go mechanism for exactly this shape of problem
// and sidesteps the C version's "timer read failure" error class entirely
// (a time.Ticker channel cannot fail the way a timerfd read(2) can).
package eventloop

import (
	"context"
	"time"

	"github.com/dfluck/xdpfilter-go/rateengine"
	"github.com/dfluck/xdpfilter-go/transport"
	"github.com/dfluck/xdpfilter-go/xlog"
)

// Loop owns the tickers and drives Engine from Consumer events.
type Loop struct {
	consumer   transport.Consumer
	engine     *rateengine.Engine
	samplePer  time.Duration
	measurePer time.Duration
	log        xlog.Logger
}

// New creates an event loop. samplePeriod and measurePeriod are the sample
// and measure tick intervals (spec.md §4.5: default 60s and 1s
// respectively).
func New(consumer transport.Consumer, engine *rateengine.Engine, samplePeriod, measurePeriod time.Duration, log xlog.Logger) *Loop {
	return &Loop{
		consumer:   consumer,
		engine:     engine,
		samplePer:  samplePeriod,
		measurePer: measurePeriod,
		log:        log,
	}
}

// Run blocks, dispatching events until ctx is cancelled. Cancellation is
// checked between dispatches, never mid-dispatch: an in-flight drain or
// tick handler always completes (spec.md §5).
func (l *Loop) Run(ctx context.Context) error {
	sampleTicker := time.NewTicker(l.samplePer)
	defer sampleTicker.Stop()
	measureTicker := time.NewTicker(l.measurePer)
	defer measureTicker.Stop()
	defer l.consumer.Close()

	lastRotate := time.Now()

	for {
		select {
		case <-ctx.Done():
			l.log.Debug("event loop: shutdown requested")
			return nil

		case <-sampleTicker.C:
			now := time.Now()
			elapsed := now.Sub(lastRotate)
			fraction := elapsed.Seconds() / l.samplePer.Seconds()
			l.engine.SampleTick(fraction)
			lastRotate = now

		case <-measureTicker.C:
			now := time.Now()
			residual := l.samplePer - now.Sub(lastRotate)
			l.engine.MeasureTick(now, residual)

		case <-l.consumer.Ready():
			if err := l.consumer.Drain(l.engine.HandleEvent); err != nil {
				l.log.Errorf("event loop: drain failed: %v", err)
				return err
			}
		}
	}
}
