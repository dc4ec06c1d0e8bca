package library

import (
	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
	"github.com/JeffreyUrban/uniqseq/pkg/history"
)

// HistorySequence is the virtual Known Sequence backed directly by the
// live History FIFO (spec §3's "History-as-Sequence"): its window at
// offset K is simply History entry K. This lets the Match Engine treat
// matches against History and matches against Recorded Sequences
// uniformly, with no source-type branching (spec §9).
type HistorySequence struct {
	fifo *history.FIFO
}

// NewHistorySequence wraps fifo as a match.KnownSequence.
func NewHistorySequence(fifo *history.FIFO) *HistorySequence {
	return &HistorySequence{fifo: fifo}
}

// WindowAt implements match.KnownSequence: offset is interpreted
// directly as a History position.
func (h *HistorySequence) WindowAt(offset int64) (fingerprint.WindowFP, bool) {
	entry, ok := h.fifo.EntryAt(offset)
	if !ok {
		return fingerprint.WindowFP{}, false
	}
	return entry.FP, true
}

// Position implements match.KnownSequence by returning the History
// position itself. The window at position P starts at tracked record
// P+1, so the value is one below that tracked index; Spawn's overlap
// check uses it as is.
func (h *HistorySequence) Position(offset int64) (int64, bool) {
	if _, ok := h.fifo.EntryAt(offset); !ok {
		return 0, false
	}
	return offset, true
}

// FirstOutputLine implements match.KnownSequence: unlike a Recorded
// Sequence, each History position has its own independently-set
// first-output-line.
func (h *HistorySequence) FirstOutputLine(offset int64) (int, bool) {
	entry, ok := h.fifo.EntryAt(offset)
	if !ok {
		return 0, false
	}
	return entry.FirstOutputLineOK()
}

// Preloaded implements match.KnownSequence: History is never preloaded.
func (h *HistorySequence) Preloaded() bool { return false }
