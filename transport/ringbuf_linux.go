//go:build linux

package transport

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/ringbuf"
)

// eventRecordSize is the on-the-wire size of struct event from
// xdpfilter.h: two u32s and a u16, with no trailing padding the decoder
// needs to skip because it never reads past port.
const eventRecordSize = 4 + 4 + 2

// RingbufConsumer adapts a *ringbuf.Reader over a BPF_MAP_TYPE_RINGBUF map
// to the Consumer interface. It does not implement ring buffer semantics
// itself — cilium/ebpf's ringbuf.Reader already does the mmap bookkeeping
// against the kernel-resident ring; this is purely a decode-and-dispatch
// shim so the rest of the system never imports cilium/ebpf directly. The
// reader's blocking Read is pumped from a background goroutine into a
// buffered channel so Drain (called from the single-threaded event loop)
// never blocks.
type RingbufConsumer struct {
	reader *ringbuf.Reader
	events chan Event
	ready  chan struct{}
	done   chan struct{}
}

// NewRingbufConsumer opens a ring buffer reader over m, which must be a
// BPF_MAP_TYPE_RINGBUF map created by the loader/attacher toolchain (out of
// scope for this package — see blacklist.Kernel for the sibling map).
func NewRingbufConsumer(m *ebpf.Map) (*RingbufConsumer, error) {
	r, err := ringbuf.NewReader(m)
	if err != nil {
		return nil, fmt.Errorf("transport: open ringbuf reader: %w", err)
	}
	c := &RingbufConsumer{
		reader: r,
		events: make(chan Event, 4096),
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go c.pump()
	return c, nil
}

func (c *RingbufConsumer) pump() {
	defer close(c.done)
	for {
		record, err := c.reader.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return
			}
			continue
		}
		e, ok := decodeEvent(record.RawSample)
		if !ok {
			continue
		}
		select {
		case c.events <- e:
		default:
			// Backlog full: drop, matching the lossy-under-overflow
			// contract the classifier side already accepts.
		}
		select {
		case c.ready <- struct{}{}:
		default:
		}
	}
}

// Ready signals whenever the pump goroutine has queued at least one
// record for Drain to pick up.
func (c *RingbufConsumer) Ready() <-chan struct{} {
	return c.ready
}

// Drain invokes fn for every record currently queued, without blocking.
func (c *RingbufConsumer) Drain(fn func(Event)) error {
	for {
		select {
		case e := <-c.events:
			fn(e)
		default:
			return nil
		}
	}
}

func decodeEvent(raw []byte) (Event, bool) {
	if len(raw) < eventRecordSize {
		return Event{}, false
	}
	return Event{
		Host: binary.NativeEndian.Uint32(raw[0:4]),
		Dest: binary.NativeEndian.Uint32(raw[4:8]),
		Port: binary.NativeEndian.Uint16(raw[8:10]),
	}, true
}

func (c *RingbufConsumer) Close() error {
	err := c.reader.Close()
	<-c.done
	return err
}
