package rateengine

import (
	"testing"
	"time"

	"github.com/dfluck/xdpfilter-go/blacklist"
	"github.com/dfluck/xdpfilter-go/transport"
	"github.com/dfluck/xdpfilter-go/window"
	"github.com/dfluck/xdpfilter-go/xlog"
)

func newTestEngine(numPackets int) (*Engine, *window.Store, *blacklist.Memory) {
	store := window.NewStore()
	bl := blacklist.NewMemory(16)
	log := xlog.New(xlog.LevelSilent, "")
	cfg := Config{NumPackets: numPackets, TimePeriod: 60 * time.Second}
	return New(cfg, store, bl, log), store, bl
}

func TestHandleEventInsertsIntoCurrentWindow(t *testing.T) {
	e, store, _ := newTestEngine(3)
	e.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: 80})
	e.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: 443})

	if got := store.SizeCurrent(1); got != 2 {
		t.Fatalf("SizeCurrent(1) = %d, want 2", got)
	}
}

// A source whose current-window port count alone exceeds the threshold
// must be blacklisted at the very first measure tick, with r irrelevant
// since there is no previous-window contribution yet.
func TestMeasureTickBlacklistsOverThreshold(t *testing.T) {
	e, _, bl := newTestEngine(3)
	for _, p := range []uint16{1, 2, 3, 4} {
		e.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: p})
	}

	e.MeasureTick(time.Now(), 60*time.Second)

	if !bl.Contains(1) {
		t.Fatal("source with 4 ports over a threshold of 3 was not blacklisted")
	}
}

func TestMeasureTickLeavesUnderThresholdSourceAlone(t *testing.T) {
	e, _, bl := newTestEngine(3)
	e.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: 80})

	e.MeasureTick(time.Now(), 60*time.Second)

	if bl.Contains(1) {
		t.Fatal("source with 1 port under a threshold of 3 was blacklisted")
	}
}

// rate(s) = p*r + c: a source that went silent in the current window but
// had activity in the previous one still carries a decaying rate,
// weighted by r = residual/TimePeriod.
func TestMeasureTickAppliesDecayFromPreviousWindow(t *testing.T) {
	e, store, bl := newTestEngine(3)
	for _, p := range []uint16{1, 2, 3, 4, 5} {
		e.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: p})
	}
	store.Rotate(1.0) // 5-port window becomes previous; current gets a ghost

	// Half the sample interval remains: r = 0.5, est = 5*0.5 + 0 = 2.5 < 3.
	e.MeasureTick(time.Now(), 30*time.Second)
	if bl.Contains(1) {
		t.Fatal("est=2.5 against threshold 3 should not blacklist")
	}

	// Nearly the full interval remains: r ~= 1, est ~= 5 > 3.
	e.MeasureTick(time.Now(), 59*time.Second)
	if !bl.Contains(1) {
		t.Fatal("est~=5 against threshold 3 should blacklist")
	}
}

// Once a source drops back under the threshold it is removed from the
// blacklist; a second measure tick at the same decayed state is a no-op,
// not an error (idempotent membership transitions). This is scenario S2:
// a source goes silent after one rotation, and as r shrinks toward the
// next sample tick its ghosted contribution decays below the threshold.
func TestMeasureTickRemovesSourceThatFellBelowThreshold(t *testing.T) {
	e, store, bl := newTestEngine(3)
	for _, p := range []uint16{1, 2, 3, 4} {
		e.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: p})
	}
	e.MeasureTick(time.Now(), 60*time.Second)
	if !bl.Contains(1) {
		t.Fatal("setup: source should be blacklisted")
	}

	store.Rotate(1.0) // 4-port window becomes previous; current gets a ghost
	e.HandleEvent(transport.Event{Host: 2, Dest: 0, Port: 0}) // keep the window non-empty

	// r = 0.5: est = 4*0.5 + 0 = 2 <= 3, so source 1 should be removed.
	e.MeasureTick(time.Now(), 30*time.Second)
	if bl.Contains(1) {
		t.Fatal("source should have been removed after its rate decayed to 2")
	}

	// Idempotent: calling again with the same state must not error or
	// re-add the source.
	e.MeasureTick(time.Now(), 30*time.Second)
	if bl.Contains(1) {
		t.Fatal("repeated measure tick re-added a source that should stay removed")
	}
}

func TestMeasureTickBlacklistFullLogsInsteadOfBlocking(t *testing.T) {
	store := window.NewStore()
	tinyBL := blacklist.NewMemory(1)
	log := xlog.New(xlog.LevelSilent, "")
	eng := New(Config{NumPackets: 1, TimePeriod: 60 * time.Second}, store, tinyBL, log)

	eng.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: 1})
	eng.HandleEvent(transport.Event{Host: 1, Dest: 100, Port: 2})
	eng.HandleEvent(transport.Event{Host: 2, Dest: 200, Port: 1})
	eng.HandleEvent(transport.Event{Host: 2, Dest: 200, Port: 2})

	eng.MeasureTick(time.Now(), 60*time.Second)

	if tinyBL.Len() != 1 {
		t.Fatalf("blacklist should hold exactly 1 entry at capacity, got %d", tinyBL.Len())
	}
}
