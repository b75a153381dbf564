package window

import "github.com/google/btree"

// PortSet is a sorted set of destination TCP ports observed for one source
// in one window, plus the most recently observed destination IPv4 for that
// source. The destination is advisory only — it never participates in set
// identity or equality, only in reporting (spec.md §3).
//
// Ports are kept in a github.com/google/btree tree rather than a plain Go
// map so iteration yields them in ascending order for free, matching both
// the "sorted set" invariant and original_source's apr_skiplist-backed
// ports list.
type PortSet struct {
	ports *btree.BTreeG[uint16]
	dest  uint32
}

func lessPort(a, b uint16) bool { return a < b }

func newPortSet() *PortSet {
	return &PortSet{ports: btree.NewG[uint16](32, lessPort)}
}

// reset empties the PortSet for reuse by a later window, keeping the
// tree's internal node freelist so the next round of inserts doesn't pay
// for fresh allocations. Rotate calls this once for each PortSet of the
// outgoing window.
func (p *PortSet) reset() {
	p.ports.Clear(true)
	p.dest = 0
}

// insert adds port if not already present (idempotent) and records dest as
// the most recently observed destination for this source.
func (p *PortSet) insert(port uint16, dest uint32) {
	p.ports.ReplaceOrInsert(port)
	p.dest = dest
}

// Size returns the number of distinct ports observed.
func (p *PortSet) Size() int {
	if p == nil {
		return 0
	}
	return p.ports.Len()
}

// Dest returns the most recently observed destination IPv4 for this
// source in this window.
func (p *PortSet) Dest() uint32 {
	if p == nil {
		return 0
	}
	return p.dest
}

// Ports returns the observed ports in ascending order, matching the report
// line format in spec.md §6 ("on ports P1 P2 ...").
func (p *PortSet) Ports() []uint16 {
	if p == nil {
		return nil
	}
	out := make([]uint16, 0, p.ports.Len())
	p.ports.Ascend(func(port uint16) bool {
		out = append(out, port)
		return true
	})
	return out
}
