package match

// ActiveMatch is a cursor into exactly one KnownSequence, advancing one
// window per incoming stream window, per spec §3's "Active Match".
type ActiveMatch struct {
	Seq KnownSequence

	// StartOffset is the offset within Seq that was matched when this
	// candidate was spawned (Phase C).
	StartOffset int64

	// NextOffset is the offset within Seq to compare against the next
	// incoming window fingerprint.
	NextOffset int64

	// TrackedLineAtStart is the tracked input line number of the first
	// record in the window that started this match.
	TrackedLineAtStart int64

	// OutputCursorAtStart is the output line counter at the moment this
	// match was spawned. The Emit Pipeline sizes its buffer from
	// TrackedLineAtStart and does not read this field.
	OutputCursorAtStart int
}

// MatchedLength is the number of consecutive windows matched so far.
func (m *ActiveMatch) MatchedLength() int64 {
	return m.NextOffset - m.StartOffset
}

// Manager owns the active-match set, bounded by MaxCandidates (0 means
// unlimited). On overflow it evicts the candidate with the latest start,
// preferring to keep earlier-started matches since they can still grow
// into the longest possible recorded span (spec §4.4, §9).
type Manager struct {
	MaxCandidates int

	matches []*ActiveMatch
}

// NewManager constructs a Manager bounded at maxCandidates (0 for
// unlimited).
func NewManager(maxCandidates int) *Manager {
	return &Manager{MaxCandidates: maxCandidates}
}

// TryAdd inserts m, evicting the latest-started existing match if at
// capacity and m starts strictly earlier than it. On a tie, or when m
// starts later, m itself is dropped and TryAdd returns false.
func (mgr *Manager) TryAdd(m *ActiveMatch) bool {
	if mgr.MaxCandidates <= 0 || len(mgr.matches) < mgr.MaxCandidates {
		mgr.matches = append(mgr.matches, m)
		return true
	}

	latestIdx := -1
	for i, existing := range mgr.matches {
		if latestIdx == -1 || existing.TrackedLineAtStart > mgr.matches[latestIdx].TrackedLineAtStart {
			latestIdx = i
		}
	}

	if latestIdx == -1 || mgr.matches[latestIdx].TrackedLineAtStart <= m.TrackedLineAtStart {
		// Every existing candidate started no later than m (or there is
		// no room at all); m is the latest-started, so it is dropped.
		return false
	}

	mgr.matches[latestIdx] = m
	return true
}

// Discard removes m from the active set by identity.
func (mgr *Manager) Discard(m *ActiveMatch) {
	for i, existing := range mgr.matches {
		if existing == m {
			mgr.matches = append(mgr.matches[:i], mgr.matches[i+1:]...)
			return
		}
	}
}

// Clear removes every active match, returning them (used at EOF to treat
// all remaining matches as diverged).
func (mgr *Manager) Clear() []*ActiveMatch {
	all := mgr.matches
	mgr.matches = nil
	return all
}

// All returns a snapshot slice of the currently active matches. Callers
// must not mutate the active set while iterating the result; Advance
// takes a snapshot internally for exactly this reason.
func (mgr *Manager) All() []*ActiveMatch {
	out := make([]*ActiveMatch, len(mgr.matches))
	copy(out, mgr.matches)
	return out
}

// Len reports the number of active matches.
func (mgr *Manager) Len() int { return len(mgr.matches) }

// Has reports whether a match already exists for the given (sequence,
// starting offset) pair, used by Phase C to dedup redundant candidates.
func (mgr *Manager) Has(seq KnownSequence, startOffset int64) bool {
	for _, m := range mgr.matches {
		if m.Seq == seq && m.StartOffset == startOffset {
			return true
		}
	}
	return false
}
