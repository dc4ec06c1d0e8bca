package uniqseq

import (
	"time"

	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
	"github.com/JeffreyUrban/uniqseq/pkg/filter"
)

// Config enumerates the Engine's construction parameters (spec §6,
// "Engine API"). Zero means unlimited for every capacity field.
type Config struct {
	// WindowSize is W, the number of consecutive records that must
	// repeat before a duplicate is recognized. Must be >= 1.
	WindowSize int

	// MaxHistory bounds the window-fingerprint History FIFO. 0 means
	// unlimited.
	MaxHistory int

	// MaxUniqueSequences bounds the non-preloaded Recorded Sequence
	// count. 0 means unlimited.
	MaxUniqueSequences int

	// MaxCandidates bounds the Active Match set. 0 means unlimited.
	MaxCandidates int

	// SkipPrefix elides this many leading bytes before record hashing.
	SkipPrefix int

	// HashTransform, if set, is applied to a record before fingerprinting
	// (see pkg/transform for the subprocess-backed implementation).
	HashTransform fingerprint.Transform

	// Delimiter frames preloaded sequences and annotation records; it
	// plays no role in record fingerprinting itself.
	Delimiter []byte

	// BinaryMode disables filter patterns and permits a hex delimiter
	// (spec §6, §7).
	BinaryMode bool

	// PreloadedSequences are raw byte blobs split by Delimiter and
	// registered as preloaded Recorded Sequences at construction.
	PreloadedSequences [][]byte

	// SaveSequenceCallback, if set, is invoked synchronously with the raw
	// matched records on first observation of a newly recorded sequence.
	// A callback failure is logged and otherwise ignored (spec §7,
	// "locally recovered").
	SaveSequenceCallback func(records [][]byte) error

	// FilterPatterns classify records as tracked or bypassed (spec §4.6).
	FilterPatterns []filter.Pattern

	// Inverse flips the Emit Pipeline's emit/skip roles (spec §4.5).
	Inverse bool

	// Annotate enables synthetic annotation records describing skipped
	// duplicate ranges.
	Annotate bool

	// AnnotationFormat is a text/template source referencing
	// {{.Start}}, {{.End}}, {{.MatchStart}}, {{.MatchEnd}}, {{.Count}},
	// {{.WindowSize}} (spec §6).
	AnnotationFormat string

	// Explain enables verbose decision logging to the diagnostic
	// side-channel (spec §6).
	Explain bool

	// TransformTimeout is carried in the configuration but not read by
	// the Engine; the subprocess timeout is the one passed to
	// transform.New when building HashTransform.
	TransformTimeout time.Duration
}
