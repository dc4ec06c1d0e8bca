package library

import (
	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
	"github.com/JeffreyUrban/uniqseq/pkg/match"
)

// WindowIndex maps a window fingerprint to every (KnownSequence, offset)
// pair known to contain it — across both the Library's Recorded
// Sequences and History, indexed uniformly behind the single "virtual"
// entry described in spec §4.3.
type WindowIndex struct {
	entries map[fingerprint.WindowFP][]match.WindowIndexEntry
}

// NewWindowIndex constructs an empty index.
func NewWindowIndex() *WindowIndex {
	return &WindowIndex{entries: make(map[fingerprint.WindowFP][]match.WindowIndexEntry)}
}

// Register adds one (seq, offset) pair under fp.
func (w *WindowIndex) Register(fp fingerprint.WindowFP, seq match.KnownSequence, offset int64) {
	w.entries[fp] = append(w.entries[fp], match.WindowIndexEntry{Seq: seq, Offset: offset})
}

// Unregister removes exactly one (seq, offset) pair under fp, used when
// a single History position is evicted (spec §4.4 Phase D).
func (w *WindowIndex) Unregister(fp fingerprint.WindowFP, seq match.KnownSequence, offset int64) {
	entries := w.entries[fp]
	for i, e := range entries {
		if e.Seq == seq && e.Offset == offset {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(w.entries, fp)
	} else {
		w.entries[fp] = entries
	}
}

// RemoveSequence removes every entry belonging to seq, used when the
// Library LRU-evicts a Recorded Sequence (spec §4.3's add()).
func (w *WindowIndex) RemoveSequence(seq match.KnownSequence) {
	for fp, entries := range w.entries {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Seq != seq {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(w.entries, fp)
		} else {
			w.entries[fp] = filtered
		}
	}
}

// WindowsFor implements match.WindowIndex.
func (w *WindowIndex) WindowsFor(fp fingerprint.WindowFP) []match.WindowIndexEntry {
	return w.entries[fp]
}
