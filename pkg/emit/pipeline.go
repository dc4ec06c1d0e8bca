// Package emit implements the Emit Pipeline (spec §4.5): a record buffer
// and a side bypass buffer, drained in input order once the minimum
// buffer depth required by outstanding Active Matches permits it,
// skipping or keeping duplicate ranges per mode.
package emit

import (
	"bytes"
	"text/template"

	"github.com/JeffreyUrban/uniqseq/pkg/history"
	"github.com/JeffreyUrban/uniqseq/pkg/match"
)

// TrackedRecord is one in-flight tracked record awaiting emission.
type TrackedRecord struct {
	OriginalIndex int
	TrackedIndex  int64
	Bytes         []byte
}

// BypassRecord is one record routed around the Match Engine, awaiting
// ordered interleaving with tracked output.
type BypassRecord struct {
	OriginalIndex int
	Bytes         []byte
}

// Range is one resolved duplicate span (the Diverged Range Set of spec
// §3): tracked indices [StartTracked, EndTracked] will be skipped (or, in
// inverse mode, emitted) as they drain from the record buffer.
// MatchStartLine/MatchEndLine describe the original occurrence this range
// repeats, when known (unknown for matches against a preloaded sequence).
type Range struct {
	StartTracked   int64
	EndTracked     int64
	MatchStartLine int
	MatchEndLine   int
	HasMatchLines  bool
	Count          int64
	Preloaded      bool
}

// annotationVars is the data made available to an annotation template
// (spec §6: `{start}, {end}, {match_start}, {match_end}, {count},
// {window_size}`).
type annotationVars struct {
	Start      int64
	End        int64
	MatchStart int
	MatchEnd   int
	Count      int64
	WindowSize int
}

// Pipeline holds the record and bypass buffers and drains them in input
// order as Active Matches release their hold on the tail of the stream.
type Pipeline struct {
	windowSize int
	inverse    bool
	tmpl       *template.Template
	hist       *history.FIFO

	records []TrackedRecord
	bypass  []BypassRecord
	ranges  []Range

	nextOutputLine int64
	emitted        int64
	skipped        int64
}

// New constructs a Pipeline. tmpl may be nil (annotations disabled); hist
// receives first-output-line stamps as unique tracked records are emitted.
func New(windowSize int, inverse bool, tmpl *template.Template, hist *history.FIFO) *Pipeline {
	return &Pipeline{windowSize: windowSize, inverse: inverse, tmpl: tmpl, hist: hist}
}

// PushRecord enqueues a freshly tracked record.
func (p *Pipeline) PushRecord(r TrackedRecord) { p.records = append(p.records, r) }

// PushBypass enqueues a bypassed record for ordered interleaving.
func (p *Pipeline) PushBypass(r BypassRecord) { p.bypass = append(p.bypass, r) }

// AddRange registers a resolved duplicate span (Match Engine Phase B).
// Ranges are expected in non-decreasing StartTracked order, matching the
// order matches are resolved in the stream.
func (p *Pipeline) AddRange(r Range) { p.ranges = append(p.ranges, r) }

// MinBufferDepth computes the floor below which the record buffer must
// not be drained: the widest span, from its start, still covered by any
// Active Match, lower-bounded by the window size (spec §4.5).
func MinBufferDepth(matches []*match.ActiveMatch, currentTracked int64, windowSize int) int64 {
	depth := int64(windowSize)
	for _, m := range matches {
		span := currentTracked - m.TrackedLineAtStart + 1
		if span > depth {
			depth = span
		}
	}
	return depth
}

// Drain emits as many leading records as the buffer depth floor allows,
// interleaving bypass records in original-index order, and returns the
// output records produced (data records and, if enabled, annotations).
func (p *Pipeline) Drain(minDepth int64) [][]byte {
	var out [][]byte

	for int64(len(p.records)) > minDepth {
		front := p.records[0]
		if b, ok := p.nextBypassBefore(front.OriginalIndex); ok {
			out = append(out, b.Bytes)
			continue
		}
		out = append(out, p.emitOrSkip(front)...)
		p.records = p.records[1:]
	}

	// No tracked record is pending, so every buffered bypass record is
	// already known to precede nothing outstanding; release them now
	// rather than holding them until the buffer next drains past floor.
	if len(p.records) == 0 {
		for _, b := range p.bypass {
			out = append(out, b.Bytes)
		}
		p.bypass = nil
	}

	return out
}

// Flush drains unconditionally (EOF): every remaining tracked record and
// bypass record is emitted in order.
func (p *Pipeline) Flush() [][]byte {
	var out [][]byte
	for len(p.records) > 0 {
		front := p.records[0]
		if b, ok := p.nextBypassBefore(front.OriginalIndex); ok {
			out = append(out, b.Bytes)
			continue
		}
		out = append(out, p.emitOrSkip(front)...)
		p.records = p.records[1:]
	}
	for _, b := range p.bypass {
		out = append(out, b.Bytes)
	}
	p.bypass = nil
	return out
}

func (p *Pipeline) nextBypassBefore(originalIndex int) (BypassRecord, bool) {
	if len(p.bypass) == 0 {
		return BypassRecord{}, false
	}
	if p.bypass[0].OriginalIndex >= originalIndex {
		return BypassRecord{}, false
	}
	b := p.bypass[0]
	p.bypass = p.bypass[1:]
	return b, true
}

// emitOrSkip processes the front tracked record against the current
// Diverged Range Set, returning zero or more output records (the data
// record itself, an annotation, or nothing).
func (p *Pipeline) emitOrSkip(r TrackedRecord) [][]byte {
	rng, atStart, atEnd := p.currentRange(r.TrackedIndex)

	if rng == nil {
		// Unique record.
		if p.inverse {
			p.skipped++
			return nil
		}
		p.emitted++
		p.nextOutputLine++
		if p.hist != nil {
			p.hist.SetFirstOutputLine(r.TrackedIndex-1, int(p.nextOutputLine))
		}
		return [][]byte{r.Bytes}
	}

	// Duplicate record, inside a resolved range.
	var out [][]byte
	if atStart && !p.inverse && p.tmpl != nil && rng.HasMatchLines {
		if ann, ok := p.renderAnnotation(*rng); ok {
			out = append(out, ann)
			p.nextOutputLine++
		}
	}

	if rng.Preloaded {
		// Preloaded duplicates are suppressed in every mode (spec §4.5).
		p.skipped++
	} else if p.inverse {
		p.emitted++
		p.nextOutputLine++
		out = append(out, r.Bytes)
	} else {
		p.skipped++
	}

	if atEnd {
		p.ranges = p.ranges[1:]
	}
	return out
}

// currentRange reports the Diverged Range covering trackedIndex, if any,
// along with whether this is the first/last index of that range.
func (p *Pipeline) currentRange(trackedIndex int64) (rng *Range, atStart, atEnd bool) {
	if len(p.ranges) == 0 {
		return nil, false, false
	}
	r := &p.ranges[0]
	if trackedIndex < r.StartTracked || trackedIndex > r.EndTracked {
		return nil, false, false
	}
	return r, trackedIndex == r.StartTracked, trackedIndex == r.EndTracked
}

func (p *Pipeline) renderAnnotation(r Range) ([]byte, bool) {
	var buf bytes.Buffer
	vars := annotationVars{
		Start:      r.StartTracked,
		End:        r.EndTracked,
		MatchStart: r.MatchStartLine,
		MatchEnd:   r.MatchEndLine,
		Count:      r.Count,
		WindowSize: p.windowSize,
	}
	if err := p.tmpl.Execute(&buf, vars); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// Stats snapshots the pipeline's emitted/skipped counters.
type Stats struct {
	Emitted int64
	Skipped int64
}

// Stats returns the current tracked-record emit/skip counters (spec §6's
// `emitted`/`skipped`, tracked records only — bypassed records are not
// counted here).
func (p *Pipeline) Stats() Stats { return Stats{Emitted: p.emitted, Skipped: p.skipped} }

// PendingRecords reports how many tracked records currently sit in the
// buffer.
func (p *Pipeline) PendingRecords() int { return len(p.records) }

// OutputLine reports the current output line counter, stamped onto newly
// spawned Active Matches as their OutputCursorAtStart.
func (p *Pipeline) OutputLine() int64 { return p.nextOutputLine }
