package match

import (
	"testing"

	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
)

// fakeSeq is a minimal in-memory KnownSequence for unit tests.
type fakeSeq struct {
	windows    []fingerprint.WindowFP
	positions  []int64 // positions[i] is the tracked start of windows[i]; -1 means unknown
	lines      []int   // lines[i] is the first-output-line of windows[i]; -1 means unknown
	preloaded  bool
}

func (f *fakeSeq) WindowAt(offset int64) (fingerprint.WindowFP, bool) {
	if offset < 0 || int(offset) >= len(f.windows) {
		return fingerprint.WindowFP{}, false
	}
	return f.windows[offset], true
}

func (f *fakeSeq) Position(offset int64) (int64, bool) {
	if offset < 0 || int(offset) >= len(f.positions) || f.positions[offset] < 0 {
		return 0, false
	}
	return f.positions[offset], true
}

func (f *fakeSeq) FirstOutputLine(offset int64) (int, bool) {
	if offset < 0 || int(offset) >= len(f.lines) || f.lines[offset] < 0 {
		return 0, false
	}
	return f.lines[offset], true
}

func (f *fakeSeq) Preloaded() bool { return f.preloaded }

func wfp(b byte) fingerprint.WindowFP {
	var w fingerprint.WindowFP
	w[0] = b
	return w
}

func TestAdvanceContinuesOnMatch(t *testing.T) {
	seq := &fakeSeq{windows: []fingerprint.WindowFP{wfp(1), wfp(2), wfp(3)}}
	mgr := NewManager(0)
	m := &ActiveMatch{Seq: seq, StartOffset: 0, NextOffset: 1}
	mgr.TryAdd(m)

	diverged := Advance(mgr, wfp(2))

	if len(diverged) != 0 {
		t.Fatalf("expected no divergence, got %d", len(diverged))
	}
	if m.NextOffset != 2 {
		t.Fatalf("NextOffset = %d, want 2", m.NextOffset)
	}
	if mgr.Len() != 1 {
		t.Fatalf("match should still be active")
	}
}

func TestAdvanceDivergesOnMismatch(t *testing.T) {
	seq := &fakeSeq{windows: []fingerprint.WindowFP{wfp(1), wfp(2)}}
	mgr := NewManager(0)
	m := &ActiveMatch{Seq: seq, StartOffset: 0, NextOffset: 1}
	mgr.TryAdd(m)

	diverged := Advance(mgr, wfp(99))

	if len(diverged) != 1 || diverged[0] != m {
		t.Fatalf("expected m to diverge, got %v", diverged)
	}
	if mgr.Len() != 0 {
		t.Fatalf("diverged match should be removed from active set")
	}
}

func TestAdvanceDivergesAtEndOfSequence(t *testing.T) {
	seq := &fakeSeq{windows: []fingerprint.WindowFP{wfp(1)}}
	mgr := NewManager(0)
	m := &ActiveMatch{Seq: seq, StartOffset: 0, NextOffset: 1} // offset 1 is out of range
	mgr.TryAdd(m)

	diverged := Advance(mgr, wfp(1))
	if len(diverged) != 1 {
		t.Fatalf("expected divergence at end of sequence")
	}
}

func TestManagerCapacityEvictsLatestStart(t *testing.T) {
	mgr := NewManager(2)
	early := &ActiveMatch{TrackedLineAtStart: 1}
	late := &ActiveMatch{TrackedLineAtStart: 10}

	if !mgr.TryAdd(early) || !mgr.TryAdd(late) {
		t.Fatalf("first two adds should succeed")
	}

	middle := &ActiveMatch{TrackedLineAtStart: 5}
	if !mgr.TryAdd(middle) {
		t.Fatalf("an earlier-starting add at capacity should evict the latest start and succeed")
	}

	all := mgr.All()
	if len(all) != 2 {
		t.Fatalf("manager should still hold 2 matches, got %d", len(all))
	}
	for _, m := range all {
		if m == late {
			t.Fatalf("latest-started match should have been evicted")
		}
	}
}

func TestManagerCapacityRejectsNewLatestStart(t *testing.T) {
	mgr := NewManager(1)
	only := &ActiveMatch{TrackedLineAtStart: 1}
	mgr.TryAdd(only)

	candidate := &ActiveMatch{TrackedLineAtStart: 100}
	if mgr.TryAdd(candidate) {
		t.Fatalf("a later-starting candidate must not evict an earlier one")
	}
	if mgr.Len() != 1 || mgr.All()[0] != only {
		t.Fatalf("manager should be unchanged")
	}
}

func TestSpawnSkipsOverlap(t *testing.T) {
	seq := &fakeSeq{positions: []int64{5}}
	idx := fakeIndex{wfp(1): {{Seq: seq, Offset: 0}}}
	mgr := NewManager(0)

	// window_size=3, current window starts at 6: position 5 + 3 = 8 > 6 -> overlap, skip.
	Spawn(mgr, idx, wfp(1), 3, 6, 0)
	if mgr.Len() != 0 {
		t.Fatalf("overlapping candidate should be rejected")
	}

	// current window starts at 9: position 5 + 3 = 8 <= 9 -> no overlap.
	Spawn(mgr, idx, wfp(1), 3, 9, 0)
	if mgr.Len() != 1 {
		t.Fatalf("non-overlapping candidate should spawn")
	}
}

func TestSpawnDedupsIdenticalStart(t *testing.T) {
	seq := &fakeSeq{positions: []int64{-1}}
	idx := fakeIndex{wfp(1): {{Seq: seq, Offset: 0}, {Seq: seq, Offset: 0}}}
	mgr := NewManager(0)

	Spawn(mgr, idx, wfp(1), 3, 100, 0)
	if mgr.Len() != 1 {
		t.Fatalf("duplicate (sequence, offset) candidates must collapse to one, got %d", mgr.Len())
	}
}

type fakeIndex map[fingerprint.WindowFP][]WindowIndexEntry

func (f fakeIndex) WindowsFor(fp fingerprint.WindowFP) []WindowIndexEntry { return f[fp] }

func TestResolveDefersWhileLongerMatchActive(t *testing.T) {
	seq := &fakeSeq{lines: []int{-1}}
	short := &ActiveMatch{Seq: seq, TrackedLineAtStart: 1, StartOffset: 0, NextOffset: 3}

	toRecord, deferred := Resolve([]*ActiveMatch{short}, map[int64]bool{1: true})

	if len(toRecord) != 0 {
		t.Fatalf("should defer, not record, while a same-origin match is still active")
	}
	if len(deferred) != 1 {
		t.Fatalf("expected 1 deferred match, got %d", len(deferred))
	}
}

func TestResolvePicksLongestThenEarliestOutputLine(t *testing.T) {
	seqA := &fakeSeq{lines: []int{10}}
	seqB := &fakeSeq{lines: []int{5}}
	seqC := &fakeSeq{lines: []int{1}}

	short := &ActiveMatch{Seq: seqA, TrackedLineAtStart: 1, StartOffset: 0, NextOffset: 2} // length 2
	longA := &ActiveMatch{Seq: seqB, TrackedLineAtStart: 1, StartOffset: 0, NextOffset: 4} // length 4, line 5
	longB := &ActiveMatch{Seq: seqC, TrackedLineAtStart: 1, StartOffset: 0, NextOffset: 4} // length 4, line 1

	toRecord, deferred := Resolve([]*ActiveMatch{short, longA, longB}, map[int64]bool{})

	if len(deferred) != 0 {
		t.Fatalf("nothing should be deferred, no still-active matches")
	}
	if len(toRecord) != 1 || toRecord[0] != longB {
		t.Fatalf("expected longB (longest, earliest output line) to win, got %v", toRecord)
	}
}

func TestResolveUnknownOutputLineSortsLast(t *testing.T) {
	known := &fakeSeq{lines: []int{7}}
	unknown := &fakeSeq{lines: []int{-1}} // e.g. preloaded, never emitted

	a := &ActiveMatch{Seq: unknown, TrackedLineAtStart: 1, StartOffset: 0, NextOffset: 3}
	b := &ActiveMatch{Seq: known, TrackedLineAtStart: 1, StartOffset: 0, NextOffset: 3}

	toRecord, _ := Resolve([]*ActiveMatch{a, b}, map[int64]bool{})

	if len(toRecord) != 1 || toRecord[0] != b {
		t.Fatalf("a known output line should win over an unknown one")
	}
}

func TestResolveIndependentPerStartingPosition(t *testing.T) {
	seq := &fakeSeq{lines: []int{1}}
	atOne := &ActiveMatch{Seq: seq, TrackedLineAtStart: 1, StartOffset: 0, NextOffset: 2}
	atFive := &ActiveMatch{Seq: seq, TrackedLineAtStart: 5, StartOffset: 0, NextOffset: 2}

	toRecord, deferred := Resolve([]*ActiveMatch{atOne, atFive}, map[int64]bool{})

	if len(toRecord) != 2 || len(deferred) != 0 {
		t.Fatalf("distinct starting positions must resolve independently, got record=%d deferred=%d", len(toRecord), len(deferred))
	}
}
