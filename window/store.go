// Package window implements the double-buffered per-source PortSet
// structure (C4): a previous window (fully elapsed) and a current window
// (accumulating), rotated on each sample tick with the ghost-entry trick
// so the rate engine can still compute a decaying contribution from a
// source that has gone silent.
package window

import "sync"

// Store owns the (previous, current) window pair. All methods are meant
// to be called from the single user-space control-plane goroutine
// (spec.md §5); there is no internal locking.
type Store struct {
	previous *window
	current  *window
	pool     sync.Pool
}

// NewStore creates an empty window store.
func NewStore() *Store {
	s := &Store{
		previous: newWindow(),
		current:  newWindow(),
	}
	s.pool.New = func() any { return newPortSet() }
	return s
}

func (s *Store) acquirePortSet() *PortSet {
	return s.pool.Get().(*PortSet)
}

func (s *Store) release(ps *PortSet) {
	ps.reset()
	s.pool.Put(ps)
}

// Insert ensures source has an entry in the current window, records dest
// as its last observed destination, and inserts port into its PortSet
// (idempotent on port).
func (s *Store) Insert(source, dest uint32, port uint16) {
	ps := s.current.sources[source]
	if ps == nil {
		ps = s.acquirePortSet()
		s.current.sources[source] = ps
	}
	ps.insert(port, dest)
}

// SizeCurrent returns the cardinality of source's current-window PortSet,
// or 0 if source has no entry.
func (s *Store) SizeCurrent(source uint32) int {
	return s.current.size(source)
}

// SizePrevious returns the cardinality of source's previous-window
// PortSet, or 0 if source has no entry.
func (s *Store) SizePrevious(source uint32) int {
	return s.previous.size(source)
}

// IterateCurrent returns a range-over-func iterator yielding every
// (source, PortSet) pair in the current window. It replaces the original
// implementation's opaque-pointer callback table walk (spec.md §9 Design
// Notes) with a typed Go 1.23 iterator:
//
//	for source, ports := range store.IterateCurrent() {
//	        ...
//	}
func (s *Store) IterateCurrent() func(yield func(source uint32, ports *PortSet) bool) {
	return func(yield func(uint32, *PortSet) bool) {
		for source, ps := range s.current.sources {
			if !yield(source, ps) {
				return
			}
		}
	}
}

// Rotate performs the swap-and-ghost operation: the accumulated current
// window becomes previous, a freshly reclaimed window becomes current,
// and every source with nonzero activity in the new previous window gets
// an empty ghost entry installed in the new current window so the rate
// formula can still associate a decaying contribution with it.
//
// fraction is the fraction of the sample interval that had elapsed at the
// moment rotation was triggered. In steady-state operation rotation always
// fires at the tick boundary (fraction == 1.0); the parameter exists to
// match the contract in spec.md §4.4 and Rotate does not read it.
func (s *Store) Rotate(fraction float64) {
	newPrevious := s.current
	reclaimed := s.previous

	for source, ps := range reclaimed.sources {
		s.release(ps)
		delete(reclaimed.sources, source)
	}

	s.previous = newPrevious
	s.current = reclaimed

	for source, ps := range s.previous.sources {
		if ps.Size() == 0 {
			continue
		}
		ghost := s.acquirePortSet()
		ghost.dest = ps.dest
		s.current.sources[source] = ghost
	}
}
