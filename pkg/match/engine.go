package match

import "github.com/JeffreyUrban/uniqseq/pkg/fingerprint"

// Advance implements Phase A (spec §4.4): every active match either
// consumes the current window (its expected next window fingerprint
// equals now) or is removed from mgr and returned as diverged.
func Advance(mgr *Manager, now fingerprint.WindowFP) []*ActiveMatch {
	var diverged []*ActiveMatch

	for _, m := range mgr.All() {
		expected, ok := m.Seq.WindowAt(m.NextOffset)
		if !ok || expected != now {
			diverged = append(diverged, m)
			mgr.Discard(m)
			continue
		}
		m.NextOffset++
	}

	return diverged
}

// StillActiveStarts collects the TrackedLineAtStart of every match
// remaining active after Phase A, for Phase B's defer check.
func StillActiveStarts(mgr *Manager) map[int64]bool {
	starts := make(map[int64]bool, mgr.Len())
	for _, m := range mgr.All() {
		starts[m.TrackedLineAtStart] = true
	}
	return starts
}

// Spawn implements Phase C (spec §4.4): for every (sequence, offset)
// pair registered under now in idx, start a new Active Match unless it
// would overlap the current window in its source sequence, or an
// identical (sequence, startOffset) candidate is already active.
//
// currentWindowStart is the tracked-line position at which the
// just-processed window begins; outputCursor is the current output line
// counter, stamped onto any spawned match.
func Spawn(mgr *Manager, idx WindowIndex, now fingerprint.WindowFP, windowSize int, currentWindowStart int64, outputCursor int) {
	for _, entry := range idx.WindowsFor(now) {
		if pos, ok := entry.Seq.Position(entry.Offset); ok && pos+int64(windowSize) > currentWindowStart {
			continue // would overlap the window we're currently processing
		}

		if mgr.Has(entry.Seq, entry.Offset) {
			continue
		}

		mgr.TryAdd(&ActiveMatch{
			Seq:                 entry.Seq,
			StartOffset:         entry.Offset,
			NextOffset:          entry.Offset + 1,
			TrackedLineAtStart:  currentWindowStart,
			OutputCursorAtStart: outputCursor,
		})
	}
}
