package emit

import (
	"bytes"
	"testing"
	"text/template"

	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
	"github.com/JeffreyUrban/uniqseq/pkg/history"
	"github.com/JeffreyUrban/uniqseq/pkg/match"
)

func TestUniqueRecordsEmitInOrder(t *testing.T) {
	p := New(3, false, nil, history.New(0))
	for i := 1; i <= 5; i++ {
		p.PushRecord(TrackedRecord{OriginalIndex: i, TrackedIndex: int64(i), Bytes: []byte{byte(i)}})
	}
	out := p.Flush()
	if len(out) != 5 {
		t.Fatalf("got %d records, want 5", len(out))
	}
	if p.Stats().Emitted != 5 || p.Stats().Skipped != 0 {
		t.Fatalf("stats = %+v", p.Stats())
	}
}

func TestRangeSkippedInNormalMode(t *testing.T) {
	p := New(3, false, nil, history.New(0))
	for i := int64(1); i <= 6; i++ {
		p.PushRecord(TrackedRecord{OriginalIndex: int(i), TrackedIndex: i, Bytes: []byte{byte(i)}})
	}
	p.AddRange(Range{StartTracked: 4, EndTracked: 6, Count: 1})
	out := p.Flush()
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3 (duplicates skipped)", len(out))
	}
	if p.Stats().Emitted != 3 || p.Stats().Skipped != 3 {
		t.Fatalf("stats = %+v", p.Stats())
	}
}

func TestInverseModeFlipsEmitSkip(t *testing.T) {
	p := New(3, true, nil, history.New(0))
	for i := int64(1); i <= 6; i++ {
		p.PushRecord(TrackedRecord{OriginalIndex: int(i), TrackedIndex: i, Bytes: []byte{byte(i)}})
	}
	p.AddRange(Range{StartTracked: 4, EndTracked: 6, Count: 1})
	out := p.Flush()
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3 (only duplicates emitted in inverse mode)", len(out))
	}
	if p.Stats().Emitted != 3 || p.Stats().Skipped != 3 {
		t.Fatalf("stats = %+v", p.Stats())
	}
}

func TestPreloadedRangeAlwaysSuppressed(t *testing.T) {
	p := New(3, true, nil, history.New(0))
	for i := int64(1); i <= 3; i++ {
		p.PushRecord(TrackedRecord{OriginalIndex: int(i), TrackedIndex: i, Bytes: []byte{byte(i)}})
	}
	p.AddRange(Range{StartTracked: 1, EndTracked: 3, Preloaded: true, Count: 1})
	out := p.Flush()
	if len(out) != 0 {
		t.Fatalf("preloaded duplicates must never be emitted, even inverse, got %d", len(out))
	}
	if p.Stats().Skipped != 3 {
		t.Fatalf("stats = %+v", p.Stats())
	}
}

func TestBypassInterleavesByOriginalIndex(t *testing.T) {
	p := New(3, false, nil, history.New(0))
	p.PushBypass(BypassRecord{OriginalIndex: 1, Bytes: []byte("bypass1")})
	p.PushRecord(TrackedRecord{OriginalIndex: 2, TrackedIndex: 1, Bytes: []byte("tracked1")})
	p.PushBypass(BypassRecord{OriginalIndex: 3, Bytes: []byte("bypass2")})
	p.PushRecord(TrackedRecord{OriginalIndex: 4, TrackedIndex: 2, Bytes: []byte("tracked2")})

	out := p.Flush()
	want := [][]byte{[]byte("bypass1"), []byte("tracked1"), []byte("bypass2"), []byte("tracked2")}
	if len(out) != len(want) {
		t.Fatalf("got %d records, want %d", len(out), len(want))
	}
	for i := range want {
		if !bytes.Equal(out[i], want[i]) {
			t.Fatalf("record %d = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestAnnotationEmittedOnRangeStart(t *testing.T) {
	tmpl := template.Must(template.New("a").Parse("skip {{.Start}}-{{.End}} (matches {{.MatchStart}}-{{.MatchEnd}}, x{{.Count}})"))
	p := New(3, false, tmpl, history.New(0))
	for i := int64(1); i <= 6; i++ {
		p.PushRecord(TrackedRecord{OriginalIndex: int(i), TrackedIndex: i, Bytes: []byte{byte(i)}})
	}
	p.AddRange(Range{StartTracked: 4, EndTracked: 6, MatchStartLine: 1, MatchEndLine: 3, HasMatchLines: true, Count: 2})
	out := p.Flush()

	if len(out) != 4 { // 3 unique + 1 annotation
		t.Fatalf("got %d records, want 4", len(out))
	}
	if string(out[3]) != "skip 4-6 (matches 1-3, x2)" {
		t.Fatalf("annotation = %q", out[3])
	}
}

func TestMinBufferDepthFloorsAtWindowSize(t *testing.T) {
	if got := MinBufferDepth(nil, 10, 3); got != 3 {
		t.Fatalf("got %d, want window size 3", got)
	}
}

func TestMinBufferDepthReflectsLongestActiveMatch(t *testing.T) {
	matches := []*match.ActiveMatch{
		{TrackedLineAtStart: 5},
		{TrackedLineAtStart: 2},
	}
	if got := MinBufferDepth(matches, 10, 3); got != 9 { // 10 - 2 + 1
		t.Fatalf("got %d, want 9", got)
	}
}

func TestFirstOutputLineStampedOnUniqueEmission(t *testing.T) {
	hist := history.New(0)
	var fp fingerprint.WindowFP
	fp[0] = 1
	position, _ := hist.Append(fp)

	p := New(3, false, nil, hist)
	p.PushRecord(TrackedRecord{OriginalIndex: 1, TrackedIndex: position + 1, Bytes: []byte("a")})
	p.Flush()

	entry, ok := hist.EntryAt(position)
	if !ok {
		t.Fatalf("expected history entry to still exist")
	}
	line, hasLine := entry.FirstOutputLineOK()
	if !hasLine || line != 1 {
		t.Fatalf("first output line = (%d, %v), want (1, true)", line, hasLine)
	}
}
