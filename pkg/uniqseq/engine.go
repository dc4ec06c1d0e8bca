// Package uniqseq wires the Fingerprinter, History, Sequence Library,
// Match Engine, and Emit Pipeline into the single streaming
// deduplication engine described across spec §2-§4: feed it records one
// at a time via Process, drain the tail with Finish, and read Stats.
package uniqseq

import (
	"fmt"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/JeffreyUrban/uniqseq/pkg/emit"
	"github.com/JeffreyUrban/uniqseq/pkg/filter"
	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
	"github.com/JeffreyUrban/uniqseq/pkg/history"
	"github.com/JeffreyUrban/uniqseq/pkg/library"
	"github.com/JeffreyUrban/uniqseq/pkg/match"
)

// Stats snapshots the counters spec §6 names: `total_input`, `emitted`,
// `skipped`, `redundancy_percent`, `unique_sequences`.
type Stats struct {
	TotalInput        int64
	Emitted           int64
	Skipped           int64
	RedundancyPercent float64
	UniqueSequences   int
}

// Engine is the streaming sequence-deduplication core.
type Engine struct {
	cfg Config

	filter   *filter.Filter
	hist     *history.FIFO
	histSeq  *library.HistorySequence
	lib      *library.Library
	mgr      *match.Manager
	pipeline *emit.Pipeline

	recentFPs []fingerprint.RecordFP

	// recordArchive retains raw record bytes for every tracked record
	// still live in History, keyed by tracked index (1-based); it is
	// trimmed in lockstep with History eviction. The Emit Pipeline's own
	// buffer cannot serve this role because a Recorded Sequence's origin
	// records may have drained from output long before the sequence is
	// ever matched again.
	recordArchive map[int64][]byte

	inputIndex   int
	trackedIndex int64

	totalInput int64
}

// New validates cfg and constructs an Engine (spec §6, §7: invalid
// configuration is a fatal, host-surfaced error).
func New(cfg Config) (*Engine, error) {
	if cfg.WindowSize < 1 {
		return nil, ErrWindowSizeInvalid
	}
	if cfg.MaxHistory > 0 && cfg.WindowSize > cfg.MaxHistory {
		return nil, ErrWindowExceedsHistory
	}
	if cfg.BinaryMode && len(cfg.FilterPatterns) > 0 {
		return nil, ErrFilterPatternsBinaryMode
	}

	var tmpl *template.Template
	if cfg.Annotate && cfg.AnnotationFormat != "" {
		t, err := template.New("annotation").Parse(cfg.AnnotationFormat)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAnnotationFormat, err)
		}
		tmpl = t
	}

	f, err := filter.New(cfg.FilterPatterns)
	if err != nil {
		return nil, err
	}

	hist := history.New(cfg.MaxHistory)
	lib := library.New(cfg.MaxUniqueSequences)
	histSeq := library.NewHistorySequence(hist)

	e := &Engine{
		cfg:           cfg,
		filter:        f,
		hist:          hist,
		histSeq:       histSeq,
		lib:           lib,
		mgr:           match.NewManager(cfg.MaxCandidates),
		pipeline:      emit.New(cfg.WindowSize, cfg.Inverse, tmpl, hist),
		recordArchive: make(map[int64][]byte),
	}

	for _, raw := range cfg.PreloadedSequences {
		lib.Preload(raw, cfg.Delimiter, cfg.WindowSize)
	}

	return e, nil
}

// Process feeds one record through filter → (bypass | match engine) →
// emit pipeline, returning whatever output records the pipeline released
// as a result (spec §6's `process(record)`).
func (e *Engine) Process(record []byte) ([][]byte, error) {
	e.inputIndex++
	e.totalInput++

	if e.filter.Classify(string(record)) == filter.Bypass {
		e.pipeline.PushBypass(emit.BypassRecord{OriginalIndex: e.inputIndex, Bytes: record})
		return e.drain(), nil
	}

	e.trackedIndex++
	recordFP, err := fingerprint.Record(record, e.cfg.SkipPrefix, e.cfg.HashTransform)
	if err != nil {
		return nil, fmt.Errorf("uniqseq: hash transform: %w", err)
	}

	e.pipeline.PushRecord(emit.TrackedRecord{
		OriginalIndex: e.inputIndex,
		TrackedIndex:  e.trackedIndex,
		Bytes:         record,
	})
	e.recordArchive[e.trackedIndex] = record

	e.recentFPs = append(e.recentFPs, recordFP)
	if len(e.recentFPs) > e.cfg.WindowSize {
		e.recentFPs = e.recentFPs[1:]
	}

	if len(e.recentFPs) == e.cfg.WindowSize {
		e.step()
	}

	return e.drain(), nil
}

// Finish signals EOF: every remaining Active Match is treated as
// diverged, then the buffer is fully drained (spec §4.4 "At EOF").
func (e *Engine) Finish() [][]byte {
	diverged := e.mgr.Clear()
	stillActive := map[int64]bool{}
	toRecord, _ := match.Resolve(diverged, stillActive)
	for _, m := range toRecord {
		e.record(m)
	}
	return e.pipeline.Flush()
}

// drain runs Phase E (spec §4.4 "Emit — Invoke the Emit Pipeline"): the
// pipeline releases every buffered record it can without risking the
// span of any still-active match.
func (e *Engine) drain() [][]byte {
	minDepth := emit.MinBufferDepth(e.mgr.All(), e.trackedIndex, e.cfg.WindowSize)
	return e.pipeline.Drain(minDepth)
}

// Stats snapshots the engine's counters (spec §6).
func (e *Engine) Stats() Stats {
	s := e.pipeline.Stats()
	var redundancy float64
	if e.totalInput > 0 {
		redundancy = float64(s.Skipped) / float64(e.totalInput) * 100
	}
	return Stats{
		TotalInput:        e.totalInput,
		Emitted:           s.Emitted,
		Skipped:           s.Skipped,
		RedundancyPercent: redundancy,
		UniqueSequences:   e.lib.Len(),
	}
}

// step runs the fixed five-phase Match Engine step (spec §4.4) for the
// window fingerprint just completed by recentFPs.
func (e *Engine) step() {
	now := fingerprint.Window(e.cfg.WindowSize, e.recentFPs)
	currentWindowStart := e.trackedIndex - int64(e.cfg.WindowSize) + 1

	// Phase A
	diverged := match.Advance(e.mgr, now)
	for _, m := range e.mgr.All() {
		if seq, ok := m.Seq.(*library.Sequence); ok {
			e.lib.Touch(seq)
		}
	}

	// Phase B
	stillActive := match.StillActiveStarts(e.mgr)
	toRecord, _ := match.Resolve(diverged, stillActive)
	for _, m := range toRecord {
		e.record(m)
	}

	// Phase C
	match.Spawn(e.mgr, e.lib.Index, now, e.cfg.WindowSize, currentWindowStart, int(e.pipeline.OutputLine()))

	// Phase D
	position, evicted := e.hist.Append(now)
	if evicted != nil {
		e.lib.Index.Unregister(evicted.FP, e.histSeq, evicted.Position)
		delete(e.recordArchive, evicted.Position+1)
	}
	e.lib.Index.Register(now, e.histSeq, position)

	if e.cfg.Explain {
		log.Debug().
			Int64("tracked_line", e.trackedIndex).
			Int("diverged", len(diverged)).
			Int("recorded", len(toRecord)).
			Int("active_matches", e.mgr.Len()).
			Msg("match engine step")
	}
}

// record promotes a resolved diverged match into a Diverged Range and,
// if its source is History, a newly promoted Recorded Sequence (spec
// §4.4 Phase B).
func (e *Engine) record(m *match.ActiveMatch) {
	length := m.MatchedLength()
	if length <= 0 {
		return
	}

	startTracked := m.TrackedLineAtStart
	endTracked := startTracked + length + int64(e.cfg.WindowSize) - 2

	rng := emit.Range{
		StartTracked: startTracked,
		EndTracked:   endTracked,
		Count:        length,
		Preloaded:    m.Seq.Preloaded(),
	}
	if line, ok := m.Seq.FirstOutputLine(m.StartOffset); ok {
		rng.MatchStartLine = line
		rng.MatchEndLine = line + int(length) + e.cfg.WindowSize - 2
		rng.HasMatchLines = true
	}
	e.pipeline.AddRange(rng)

	switch seq := m.Seq.(type) {
	case *library.HistorySequence:
		e.promoteFromHistory(m, length)
	case *library.Sequence:
		seq.RecordMatch(length)
		e.lib.Touch(seq)
	default:
		log.Warn().Msg("uniqseq: resolved match against unknown KnownSequence implementation")
	}
}

// promoteFromHistory synthesizes a new Recorded Sequence from the
// matched History slice [m.StartOffset, m.StartOffset+length), carrying
// the length+W-1 raw records those windows span, and inserts it into
// the Library (spec §4.4 Phase B).
func (e *Engine) promoteFromHistory(m *match.ActiveMatch, length int64) {
	windows := make([]fingerprint.WindowFP, 0, length)
	records := make([][]byte, 0, length)

	for off := m.StartOffset; off < m.StartOffset+length; off++ {
		w, ok := e.histSeq.WindowAt(off)
		if !ok {
			// The window backing this offset has already been evicted from
			// History; the sequence is promoted on a best-effort basis with
			// whatever windows remain (spec §7: history eviction of a
			// position referenced by an active match is locally recovered).
			continue
		}
		windows = append(windows, w)
	}
	// History position P starts at tracked record P+1; the last matched
	// window ends W-1 records after its own start.
	for tracked := m.StartOffset + 1; tracked < m.StartOffset+length+int64(e.cfg.WindowSize); tracked++ {
		if raw, ok := e.recordArchive[tracked]; ok {
			records = append(records, raw)
		}
	}
	if len(windows) == 0 {
		return
	}

	firstOutputLine, hasLine := m.Seq.FirstOutputLine(m.StartOffset)

	seq := library.NewObservedSequence(windows, records, firstOutputLine, hasLine)
	result, isNew := e.lib.Add(seq)

	if isNew && e.cfg.SaveSequenceCallback != nil {
		if err := e.cfg.SaveSequenceCallback(result.Records); err != nil {
			log.Warn().Err(err).Str("hash", result.Hash()).Msg("uniqseq: save_sequence_callback failed")
		}
	}
}
