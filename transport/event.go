// Package transport defines the SYN-event message carried between the
// kernel classifier and the user-space rate engine, and the producer /
// consumer contract around it. The ring buffer itself — its lock-free
// internals, its backing memory — is an external collaborator; this package
// only pins down the record layout and the ordering guarantees the rest of
// the system is allowed to depend on.
package transport

// Event is the fixed-layout SYN record emitted by the classifier for every
// TCP SYN (not SYN-ACK) seen over IPv4. Fields are already in host byte
// order by the time a consumer observes them. Immutable once submitted.
type Event struct {
	Host uint32 // source IPv4
	Dest uint32 // destination IPv4
	Port uint16 // destination TCP port
}

// Producer is implemented by whatever runs at the classifier side: reserve
// a slot, fill it, submit it. Reservation failure is expected under load
// and must never block or panic.
type Producer interface {
	// Reserve returns a writable event slot, or ok=false if the transport
	// is full. The caller fills the returned pointer and calls Submit.
	Reserve() (e *Event, ok bool)
	// Submit makes a previously reserved event visible to the consumer.
	Submit(e *Event)
}

// Consumer is implemented by whatever the event loop polls on the
// user-space side.
type Consumer interface {
	// Drain invokes fn once per record currently available, in
	// producer-submission order per producer. No cross-producer order is
	// guaranteed.
	Drain(fn func(Event)) error
	// Ready returns the level-triggered readiness channel the event loop
	// selects on: a receive succeeds whenever Drain would find at least
	// one record. This stands in for the readable file descriptor a real
	// ring buffer exposes (spec.md §4.3), translated to the idiomatic Go
	// multiplexing primitive.
	Ready() <-chan struct{}
	// Close releases any resources (file descriptors, mmaped regions)
	// held by the consumer.
	Close() error
}
