// Package match implements the Match Engine's active-match tracking and
// divergence-resolution policy (spec §4.4, §9): the windowed hashing
// scheme's consumer, not the scheme itself.
//
// The package stays agnostic to where a Known Sequence's windows come
// from (spec §9's "History-as-Sequence unification"): both the live
// History FIFO and a Recorded Sequence in the Library satisfy
// KnownSequence, so the advance/spawn/resolve logic here never branches
// on source type.
package match

import "github.com/JeffreyUrban/uniqseq/pkg/fingerprint"

// KnownSequence is either History (virtual, offset == position) or a
// Recorded Sequence in the Library. Offsets are 0-based window indices
// within the sequence.
type KnownSequence interface {
	// WindowAt returns the window fingerprint at offset, or ok=false if
	// offset is out of range (end of sequence, or evicted from History).
	WindowAt(offset int64) (fp fingerprint.WindowFP, ok bool)

	// Position returns the tracked-record index at which the window at
	// offset starts, used to reject matches that would overlap the
	// stream's current window. ok=false means the position is unknown
	// (e.g. a preloaded sequence, which spec §4.4 treats as always
	// non-overlapping).
	Position(offset int64) (pos int64, ok bool)

	// FirstOutputLine returns the output line number at which the
	// record starting the window at offset was first emitted. ok=false
	// if that window has never been emitted (preloaded, or not yet
	// reached in normal-mode output).
	FirstOutputLine(offset int64) (line int, ok bool)

	// Preloaded reports whether this sequence was supplied at
	// construction rather than observed in the stream. Preloaded
	// sequences are never evicted and their matches are never emitted,
	// even in inverse mode (spec §4.5, Glossary).
	Preloaded() bool
}

// WindowIndexEntry is one (sequence, offset) pair registered under a
// window fingerprint, the unit Phase C spawns new matches from.
type WindowIndexEntry struct {
	Seq    KnownSequence
	Offset int64
}

// WindowIndex resolves a window fingerprint to every known (sequence,
// offset) pair containing it — across both History and the Library, per
// spec §4.3 ("a single 'virtual' entry so match-spawning code treats both
// sources uniformly").
type WindowIndex interface {
	WindowsFor(fp fingerprint.WindowFP) []WindowIndexEntry
}
