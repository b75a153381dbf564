//go:build linux

package blacklist

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
)

// Kernel backs the blacklist with the BPF_MAP_TYPE_HASH map the classifier
// reads from when attached as an XDP program. Presence is the signal: the
// map's value is a single sentinel byte, matching xdpfilter.bpf.c's
// key=u32/value=bool layout (BPF maps have no native bool, so the value is
// stored as a single byte).
type Kernel struct {
	m *ebpf.Map
}

var sentinel = [1]byte{1}

// NewKernel wraps an already-created or already-pinned blacklist map. The
// map's creation and pinning is the loader/attacher toolchain's job (out of
// scope here); this constructor only requires that m's key/value sizes
// match what xdpfilter.bpf.c declares.
func NewKernel(m *ebpf.Map) (*Kernel, error) {
	if m.KeySize() != 4 || m.ValueSize() != 1 {
		return nil, fmt.Errorf("blacklist: unexpected kernel map layout: key=%d value=%d", m.KeySize(), m.ValueSize())
	}
	return &Kernel{m: m}, nil
}

func (k *Kernel) Contains(ip uint32) bool {
	var v [1]byte
	return k.m.Lookup(ip, &v) == nil
}

func (k *Kernel) InsertIfAbsent(ip uint32) (inserted, ok bool) {
	err := k.m.Update(ip, sentinel, ebpf.UpdateNoExist)
	if err == nil {
		return true, true
	}
	if errors.Is(err, ebpf.ErrKeyExist) {
		return false, true
	}
	return false, false
}

func (k *Kernel) Remove(ip uint32) {
	_ = k.m.Delete(ip)
}

func (k *Kernel) Close() error {
	return k.m.Close()
}
