package window

import "testing"

func TestStoreInsertAccumulatesInCurrent(t *testing.T) {
	s := NewStore()
	s.Insert(1, 100, 80)
	s.Insert(1, 100, 443)
	s.Insert(2, 200, 22)

	if got := s.SizeCurrent(1); got != 2 {
		t.Fatalf("SizeCurrent(1) = %d, want 2", got)
	}
	if got := s.SizeCurrent(2); got != 1 {
		t.Fatalf("SizeCurrent(2) = %d, want 1", got)
	}
	if got := s.SizeCurrent(3); got != 0 {
		t.Fatalf("SizeCurrent(unknown) = %d, want 0", got)
	}
}

func TestStoreRotateMovesCurrentToPrevious(t *testing.T) {
	s := NewStore()
	s.Insert(1, 100, 80)
	s.Rotate(1.0)

	if got := s.SizePrevious(1); got != 1 {
		t.Fatalf("SizePrevious(1) after rotate = %d, want 1", got)
	}
	if got := s.SizeCurrent(1); got != 0 {
		t.Fatalf("SizeCurrent(1) after rotate = %d, want 0 (ghost entry is empty)", got)
	}
}

func TestStoreRotateLeavesGhostEntryForSilentSource(t *testing.T) {
	s := NewStore()
	s.Insert(1, 100, 80)
	s.Rotate(1.0) // current -> previous, ghost installed in new current

	found := false
	for source := range s.IterateCurrent() {
		if source == 1 {
			found = true
		}
	}
	if !found {
		t.Fatal("source 1 has no ghost entry in current window after rotate")
	}
	if got := s.SizeCurrent(1); got != 0 {
		t.Fatalf("ghost entry SizeCurrent(1) = %d, want 0", got)
	}
}

func TestStoreRotateDropsSourceWithNoActivity(t *testing.T) {
	s := NewStore()
	s.Insert(1, 100, 80)
	s.Rotate(1.0) // source 1: current -> previous (ghosted forward)
	s.Rotate(1.0) // source 1 was a ghost (size 0) in current, so no further ghost

	if got := s.SizePrevious(1); got != 0 {
		t.Fatalf("SizePrevious(1) after second rotate = %d, want 0", got)
	}
	for source := range s.IterateCurrent() {
		if source == 1 {
			t.Fatal("source 1 still present in current window after going fully silent")
		}
	}
}

func TestStoreIterateCurrentStopsOnFalse(t *testing.T) {
	s := NewStore()
	s.Insert(1, 0, 1)
	s.Insert(2, 0, 2)
	s.Insert(3, 0, 3)

	seen := 0
	for range s.IterateCurrent() {
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("iterator did not stop after yield returned false: saw %d", seen)
	}
}
