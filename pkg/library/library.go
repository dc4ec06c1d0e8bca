package library

import (
	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
	"github.com/JeffreyUrban/uniqseq/pkg/framing"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Library is the Sequence Library (spec §4.3): a set of Recorded
// Sequences, LRU-evicted at MaxUnique (0 means unlimited), plus the
// shared WindowIndex used to spawn matches against any subsequence of
// any known sequence. Preloaded sequences live outside the LRU entirely
// and are never evicted.
type Library struct {
	maxUnique int

	cache     *lru.Cache[string, *Sequence] // non-nil only when bounded
	unbounded map[string]*Sequence           // used only when unbounded

	preloaded map[string]*Sequence

	Index *WindowIndex
}

// New constructs a Library capped at maxUnique non-preloaded sequences
// (0 for unlimited).
func New(maxUnique int) *Library {
	lib := &Library{
		maxUnique: maxUnique,
		preloaded: make(map[string]*Sequence),
		Index:     NewWindowIndex(),
	}

	if maxUnique > 0 {
		cache, err := lru.NewWithEvict[string, *Sequence](maxUnique, func(_ string, seq *Sequence) {
			lib.Index.RemoveSequence(seq)
		})
		if err != nil {
			panic(err) // only fails for maxUnique <= 0, already excluded
		}
		lib.cache = cache
	} else {
		lib.unbounded = make(map[string]*Sequence)
	}

	return lib
}

// Add inserts seq (observed or preloaded), registering every window it
// contains in the shared index. If an identical sequence already exists
// (by content hash), the existing one is touched and returned instead of
// inserting a duplicate; added reports whether seq itself was the one
// inserted.
func (l *Library) Add(seq *Sequence) (result *Sequence, added bool) {
	if existing, ok := l.lookup(seq.hash); ok {
		l.Touch(existing)
		return existing, false
	}

	if seq.preloaded {
		l.preloaded[seq.hash] = seq
	} else if l.cache != nil {
		l.cache.Add(seq.hash, seq)
	} else {
		l.unbounded[seq.hash] = seq
	}

	l.registerAllWindows(seq)
	return seq, true
}

func (l *Library) registerAllWindows(seq *Sequence) {
	for offset := 0; offset < seq.Len(); offset++ {
		fp, _ := seq.WindowAt(int64(offset))
		l.Index.Register(fp, seq, int64(offset))
	}
}

func (l *Library) lookup(hash string) (*Sequence, bool) {
	if seq, ok := l.preloaded[hash]; ok {
		return seq, true
	}
	if l.cache != nil {
		if seq, ok := l.cache.Peek(hash); ok {
			return seq, true
		}
		return nil, false
	}
	seq, ok := l.unbounded[hash]
	return seq, ok
}

// Touch marks seq as most-recently-used, called on every successful
// advance against it and when a match against it is recorded (spec
// §4.3). No-op for preloaded sequences and
// unbounded libraries, which never evict.
func (l *Library) Touch(seq *Sequence) {
	if seq.preloaded || l.cache == nil {
		return
	}
	l.cache.Get(seq.hash) // Get promotes recency as a side effect
}

// Len returns the number of non-preloaded sequences currently held.
func (l *Library) Len() int {
	if l.cache != nil {
		return l.cache.Len()
	}
	return len(l.unbounded)
}

// Preload splits raw into records on delimiter and registers the
// resulting window fingerprints as a preloaded Recorded Sequence (spec
// §4.3). Sequences shorter than windowSize are silently discarded.
// Preload ignores skip-prefix and hash-transform configuration, matching
// the engine's record hashing contract for preloaded content.
func (l *Library) Preload(raw []byte, delimiter []byte, windowSize int) *Sequence {
	records := framing.Split(raw, delimiter)
	if len(records) < windowSize {
		return nil
	}

	recordFPs := make([]fingerprint.RecordFP, len(records))
	for i, r := range records {
		fp, _ := fingerprint.Record(r, 0, nil)
		recordFPs[i] = fp
	}

	nWindows := len(records) - windowSize + 1
	windows := make([]fingerprint.WindowFP, nWindows)
	for i := 0; i < nWindows; i++ {
		windows[i] = fingerprint.Window(windowSize, recordFPs[i:i+windowSize])
	}

	seq := newSequence(windows, records, 0, false, true)
	result, _ := l.Add(seq)
	return result
}
