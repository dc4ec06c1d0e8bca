package history

import (
	"testing"

	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
)

func fp(b byte) fingerprint.WindowFP {
	var w fingerprint.WindowFP
	w[0] = b
	return w
}

func TestAppendMonotonic(t *testing.T) {
	h := New(0)

	p0, ev0 := h.Append(fp(1))
	p1, ev1 := h.Append(fp(2))

	if ev0 != nil || ev1 != nil {
		t.Fatalf("unbounded FIFO should never evict")
	}
	if p0 != 0 || p1 != 1 {
		t.Fatalf("positions = %d, %d; want 0, 1", p0, p1)
	}
	if h.NextPosition() != 2 {
		t.Fatalf("NextPosition = %d, want 2", h.NextPosition())
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	h := New(2)

	h.Append(fp(1))
	h.Append(fp(2))
	_, evicted := h.Append(fp(3))

	if evicted == nil || evicted.Position != 0 || evicted.FP != fp(1) {
		t.Fatalf("evicted = %+v, want position 0 fp(1)", evicted)
	}
	if _, ok := h.EntryAt(0); ok {
		t.Fatalf("evicted position 0 should no longer be live")
	}
	if got := h.PositionsFor(fp(1)); len(got) != 0 {
		t.Fatalf("reverse index for evicted fp should be empty, got %v", got)
	}
	if h.OldestPosition() != 1 {
		t.Fatalf("OldestPosition = %d, want 1", h.OldestPosition())
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}
}

func TestEvictionDoesNotInvalidateHigherPositions(t *testing.T) {
	h := New(1)

	h.Append(fp(1))
	h.Append(fp(2))

	entry, ok := h.EntryAt(1)
	if !ok || entry.FP != fp(2) {
		t.Fatalf("position 1 should still be live with fp(2), got %+v ok=%v", entry, ok)
	}
}

func TestPositionsForAscending(t *testing.T) {
	h := New(0)
	target := fp(9)

	h.Append(fp(1))
	h.Append(target)
	h.Append(fp(2))
	h.Append(target)

	got := h.PositionsFor(target)
	want := []int64{1, 3}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("PositionsFor = %v, want %v", got, want)
	}
}

func TestSetFirstOutputLineIdempotent(t *testing.T) {
	h := New(0)
	h.Append(fp(1))

	h.SetFirstOutputLine(0, 5)
	h.SetFirstOutputLine(0, 99) // second write must not overwrite

	entry, _ := h.EntryAt(0)
	line, ok := entry.FirstOutputLineOK()
	if !ok || line != 5 {
		t.Fatalf("FirstOutputLine = %d, ok=%v; want 5, true", line, ok)
	}
}

func TestSetFirstOutputLineOnEvictedIsNoop(t *testing.T) {
	h := New(1)
	h.Append(fp(1))
	h.Append(fp(2)) // evicts position 0

	h.SetFirstOutputLine(0, 5) // must not panic
}
