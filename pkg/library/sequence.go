// Package library implements the Sequence Library (spec §4.3): the set
// of Recorded Sequences — observed or preloaded — each indexed by every
// window fingerprint it contains, LRU-evicted at a size cap that exempts
// preloaded sequences entirely.
package library

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
	"golang.org/x/crypto/blake2b"
)

// Sequence is a Recorded Sequence (spec §3): a known, ordered run of
// window fingerprints, either promoted from a History region on
// divergence resolution or preloaded at construction.
type Sequence struct {
	windows []fingerprint.WindowFP

	// Records holds the raw record bytes the sequence spans (used by
	// SaveSequenceCallback and persistence): the matched records for a
	// sequence promoted from History, the split source records for a
	// preloaded one.
	Records [][]byte

	firstOutputLine int
	hasOutputLine   bool
	preloaded       bool

	// MatchCounts maps a matched subsequence length to how many times a
	// repeat of that length has been observed against this sequence.
	MatchCounts map[int64]int64

	hash string
}

// newSequence builds a Sequence from its window fingerprints. Use
// firstOutputLine/hasOutputLine=false for preloaded sequences (spec's
// "preloaded / never emitted" sentinel).
func newSequence(windows []fingerprint.WindowFP, records [][]byte, firstOutputLine int, hasOutputLine, preloaded bool) *Sequence {
	s := &Sequence{
		windows:         windows,
		Records:         records,
		firstOutputLine: firstOutputLine,
		hasOutputLine:   hasOutputLine,
		preloaded:       preloaded,
		MatchCounts:     make(map[int64]int64),
	}
	s.hash = computeHash(windows)
	return s
}

// NewObservedSequence builds a Sequence promoted from a matched History
// slice (spec §4.4 Phase B): firstOutputLine is the output line of the
// origin window's first record, hasOutputLine false if it was never
// observed (already evicted before first emission).
func NewObservedSequence(windows []fingerprint.WindowFP, records [][]byte, firstOutputLine int, hasOutputLine bool) *Sequence {
	return newSequence(windows, records, firstOutputLine, hasOutputLine, false)
}

// Hash is the stable content identity used as the Library map key and as
// the `<hash>.uniqseq` persistence filename stem (spec §6).
func (s *Sequence) Hash() string { return s.hash }

// Len is the number of windows in the sequence; a run of n records at
// window size W has n-W+1 windows.
func (s *Sequence) Len() int { return len(s.windows) }

// WindowAt implements match.KnownSequence.
func (s *Sequence) WindowAt(offset int64) (fingerprint.WindowFP, bool) {
	if offset < 0 || int(offset) >= len(s.windows) {
		return fingerprint.WindowFP{}, false
	}
	return s.windows[offset], true
}

// Position implements match.KnownSequence. A Recorded Sequence has no
// tracked-record position of its own; spec §4.4 has overlap rejection
// for sequence matches fall back to "the source window's own
// first-output-line plus W", so we report firstOutputLine+offset as a
// proxy position. Preloaded sequences are always non-overlapping.
func (s *Sequence) Position(offset int64) (int64, bool) {
	if s.preloaded || !s.hasOutputLine {
		return 0, false
	}
	return int64(s.firstOutputLine) + offset, true
}

// FirstOutputLine implements match.KnownSequence. A Recorded Sequence's
// first-output-line is one scalar for the whole sequence, regardless of
// which offset a match started at (unlike History, whose per-position
// entries each have their own).
func (s *Sequence) FirstOutputLine(_ int64) (int, bool) {
	if s.preloaded || !s.hasOutputLine {
		return 0, false
	}
	return s.firstOutputLine, true
}

// Preloaded implements match.KnownSequence.
func (s *Sequence) Preloaded() bool { return s.preloaded }

// RecordMatch increments the observed-count for a repeat of the given
// matched length (spec §4.4's "increments its subsequence-length count
// by one").
func (s *Sequence) RecordMatch(matchedLength int64) {
	s.MatchCounts[matchedLength]++
}

func computeHash(windows []fingerprint.WindowFP) string {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err)
	}

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(windows)))
	h.Write(lenBuf[:])

	for _, w := range windows {
		h.Write(w[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}
