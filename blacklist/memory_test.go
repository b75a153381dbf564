package blacklist

import "testing"

func TestMemoryInsertIfAbsentIsIdempotent(t *testing.T) {
	m := NewMemory(2)

	inserted, ok := m.InsertIfAbsent(1)
	if !inserted || !ok {
		t.Fatalf("first insert: inserted=%v ok=%v, want true,true", inserted, ok)
	}

	inserted, ok = m.InsertIfAbsent(1)
	if inserted || !ok {
		t.Fatalf("repeat insert: inserted=%v ok=%v, want false,true", inserted, ok)
	}
}

func TestMemoryInsertIfAbsentRespectsCapacity(t *testing.T) {
	m := NewMemory(1)
	if _, ok := m.InsertIfAbsent(1); !ok {
		t.Fatal("first insert into capacity-1 set should succeed")
	}
	if _, ok := m.InsertIfAbsent(2); ok {
		t.Fatal("second insert into a full capacity-1 set should report ok=false")
	}
}

func TestMemoryRemoveOfAbsentKeyIsNoop(t *testing.T) {
	m := NewMemory(4)
	m.Remove(1) // must not panic
	if m.Contains(1) {
		t.Fatal("Contains should be false after removing a never-inserted key")
	}
}

func TestMemoryContainsReflectsState(t *testing.T) {
	m := NewMemory(4)
	if m.Contains(1) {
		t.Fatal("empty set should not contain 1")
	}
	m.InsertIfAbsent(1)
	if !m.Contains(1) {
		t.Fatal("set should contain 1 after insert")
	}
	m.Remove(1)
	if m.Contains(1) {
		t.Fatal("set should not contain 1 after remove")
	}
}
