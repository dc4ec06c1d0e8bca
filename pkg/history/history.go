// Package history implements the Positional FIFO described in spec §4.2:
// an ordered record of window fingerprints, with a reverse index for
// fingerprint lookup and a capacity bound that evicts the oldest entry.
package history

import "github.com/JeffreyUrban/uniqseq/pkg/fingerprint"

// Entry is one History position: the window fingerprint observed there,
// and the output line at which that window's first record was emitted
// (unset until emission actually occurs).
type Entry struct {
	FP              fingerprint.WindowFP
	FirstOutputLine int
	hasOutputLine   bool
}

// FirstOutputLineOK reports the output line recorded for this entry, if
// any emission has occurred yet.
func (e *Entry) FirstOutputLineOK() (int, bool) {
	return e.FirstOutputLine, e.hasOutputLine
}

// Evicted describes the entry removed from History to make room for a
// new one, so callers can keep external indices (e.g. the Sequence
// Library's window index) coherent.
type Evicted struct {
	Position int64
	FP       fingerprint.WindowFP
}

// FIFO is the positional history of window fingerprints. maxSize == 0
// means unlimited.
type FIFO struct {
	maxSize int

	positionToEntry map[int64]*Entry
	fpToPositions   map[fingerprint.WindowFP][]int64

	nextPosition   int64
	oldestPosition int64
}

// New constructs a FIFO bounded at maxSize entries (0 for unlimited).
func New(maxSize int) *FIFO {
	return &FIFO{
		maxSize:         maxSize,
		positionToEntry: make(map[int64]*Entry),
		fpToPositions:   make(map[fingerprint.WindowFP][]int64),
	}
}

// Append assigns the next monotonic position to fp. If the FIFO is at
// capacity, the oldest entry is evicted first and returned.
func (f *FIFO) Append(fp fingerprint.WindowFP) (position int64, evicted *Evicted) {
	position = f.nextPosition

	if f.maxSize > 0 && len(f.positionToEntry) >= f.maxSize {
		evicted = f.evictOldest()
	}

	f.positionToEntry[position] = &Entry{FP: fp}
	f.fpToPositions[fp] = append(f.fpToPositions[fp], position)
	f.nextPosition++

	return position, evicted
}

func (f *FIFO) evictOldest() *Evicted {
	pos := f.oldestPosition
	entry, ok := f.positionToEntry[pos]
	f.oldestPosition++
	if !ok {
		// Positions are contiguous from oldestPosition; this should be
		// unreachable unless oldestPosition has drifted past nextPosition.
		return nil
	}

	delete(f.positionToEntry, pos)

	positions := f.fpToPositions[entry.FP]
	for i, p := range positions {
		if p == pos {
			positions = append(positions[:i], positions[i+1:]...)
			break
		}
	}
	if len(positions) == 0 {
		delete(f.fpToPositions, entry.FP)
	} else {
		f.fpToPositions[entry.FP] = positions
	}

	return &Evicted{Position: pos, FP: entry.FP}
}

// PositionsFor returns every live position holding fp, in ascending
// order (insertion order, since positions only ever increase).
func (f *FIFO) PositionsFor(fp fingerprint.WindowFP) []int64 {
	return f.fpToPositions[fp]
}

// EntryAt returns the entry at position, or (nil, false) if it has been
// evicted or never existed.
func (f *FIFO) EntryAt(position int64) (*Entry, bool) {
	e, ok := f.positionToEntry[position]
	return e, ok
}

// SetFirstOutputLine idempotently records the output line at which the
// window starting at position was first emitted. First write wins.
func (f *FIFO) SetFirstOutputLine(position int64, line int) {
	entry, ok := f.positionToEntry[position]
	if !ok || entry.hasOutputLine {
		return
	}
	entry.FirstOutputLine = line
	entry.hasOutputLine = true
}

// NextPosition is the position that will be assigned to the next
// appended fingerprint.
func (f *FIFO) NextPosition() int64 { return f.nextPosition }

// OldestPosition is the lowest position still live in the FIFO.
func (f *FIFO) OldestPosition() int64 { return f.oldestPosition }

// Len returns the number of live entries.
func (f *FIFO) Len() int { return len(f.positionToEntry) }
