package match

// Resolved is one diverged match chosen to be recorded: its matched span
// plus the matched length at the moment it diverged.
type Resolved struct {
	Match        *ActiveMatch
	MatchedLines int64 // window_size + (MatchedLength - 1) is left to the caller
}

// Resolve implements Phase B (spec §4.4): the divergence-resolution
// policy. It is deliberately a pure function of its inputs — no side
// effects, no access to History or the Library — making it the clearest
// unit-test target in the engine (spec §9).
//
// diverged is grouped by TrackedLineAtStart. A group is resolved (one
// match chosen to record) only if stillActive does not contain that
// start position — i.e. no longer-running match from the same origin is
// still outstanding, since it will eventually record a longer span.
//
// Within a resolved group: matches tie for the maximum matched length;
// among those, the one whose KnownSequence reports the earliest
// FirstOutputLine at its starting offset wins. A sequence with no known
// first-output-line (preloaded, or not yet emitted) sorts last. Any
// remaining tie is broken by position in diverged (match-creation order).
func Resolve(diverged []*ActiveMatch, stillActive map[int64]bool) (toRecord, deferred []*ActiveMatch) {
	groups := make(map[int64][]*ActiveMatch)
	var order []int64

	for _, m := range diverged {
		start := m.TrackedLineAtStart
		if _, seen := groups[start]; !seen {
			order = append(order, start)
		}
		groups[start] = append(groups[start], m)
	}

	for _, start := range order {
		group := groups[start]

		if stillActive[start] {
			deferred = append(deferred, group...)
			continue
		}

		toRecord = append(toRecord, pickWinner(group))
	}

	return toRecord, deferred
}

func pickWinner(group []*ActiveMatch) *ActiveMatch {
	var maxLen int64 = -1
	for _, m := range group {
		if l := m.MatchedLength(); l > maxLen {
			maxLen = l
		}
	}

	var best *ActiveMatch
	var bestLine int
	var bestHasLine bool

	for _, m := range group {
		if m.MatchedLength() != maxLen {
			continue
		}

		line, ok := m.Seq.FirstOutputLine(m.StartOffset)

		switch {
		case best == nil:
			best, bestLine, bestHasLine = m, line, ok
		case ok && !bestHasLine:
			best, bestLine, bestHasLine = m, line, ok
		case ok && bestHasLine && line < bestLine:
			best, bestLine, bestHasLine = m, line, ok
		}
		// Otherwise keep the earlier candidate (bestHasLine && !ok, or a
		// tie on line) — first-seen-wins preserves match-creation order.
	}

	return best
}
