package library

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/JeffreyUrban/uniqseq/pkg/framing"
)

// filenameHashLen is the number of hex characters of a sequence's Hash
// (a blake2b digest over its window fingerprints) used as its on-disk
// filename stem.
const filenameHashLen = 12

// SaveToDir writes every sequence in lib that carries raw record bytes
// (observed sequences promoted from History; preloaded sequences loaded
// from raw bytes) as one `<hash>.uniqseq` file per spec §6: raw record
// bytes joined by delimiter, with no trailing delimiter.
func SaveToDir(lib *Library, dir string, delimiter []byte) (saved int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	for _, seq := range lib.all() {
		if len(seq.Records) == 0 {
			continue
		}
		name := seq.hash
		if len(name) > filenameHashLen {
			name = name[:filenameHashLen]
		}
		path := filepath.Join(dir, name+".uniqseq")

		content := joinRecords(seq.Records, delimiter)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return saved, err
		}
		saved++
	}

	return saved, nil
}

func joinRecords(records [][]byte, delimiter []byte) []byte {
	var out []byte
	for i, r := range records {
		if i > 0 {
			out = append(out, delimiter...)
		}
		out = append(out, r...)
	}
	return out
}

// all returns every sequence currently held, preloaded and non-preloaded,
// for persistence and diagnostics.
func (l *Library) all() []*Sequence {
	var out []*Sequence
	out = append(out, valuesOf(l.preloaded)...)
	if l.cache != nil {
		for _, hash := range l.cache.Keys() {
			if seq, ok := l.cache.Peek(hash); ok {
				out = append(out, seq)
			}
		}
	} else {
		out = append(out, valuesOf(l.unbounded)...)
	}
	return out
}

func valuesOf(m map[string]*Sequence) []*Sequence {
	out := make([]*Sequence, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// LoadFromDir reads every `*.uniqseq` file in dir and returns its raw
// bytes, suitable for use as Config.PreloadedSequences (spec §6: loaded
// sequences are exempt from eviction and their matches are always
// suppressed, exactly like sequences preloaded at construction).
func LoadFromDir(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out [][]byte
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".uniqseq" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return out, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// Metadata is the per-run sidecar written alongside a library directory
// (spec §6): timestamp, run configuration, and discovery counts.
type Metadata struct {
	Timestamp           string `json:"timestamp"`
	WindowSize          int    `json:"window_size"`
	Mode                string `json:"mode"`
	Delimiter           string `json:"delimiter"`
	MaxHistory          string `json:"max_history"`
	SequencesDiscovered int    `json:"sequences_discovered"`
	SequencesPreloaded  int    `json:"sequences_preloaded"`
	SequencesSaved      int    `json:"sequences_saved"`
	TotalRecords        int64  `json:"total_records"`
	RecordsSkipped      int64  `json:"records_skipped"`
}

// MaxHistoryLabel renders a max_history cap as spec §6 requires: the
// integer, or the literal "unlimited" for 0/negative.
func MaxHistoryLabel(maxHistory int) string {
	if maxHistory <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(maxHistory)
}

// WriteMetadata writes meta as `dir/metadata-<runID>/config.json`, runID
// disambiguating sub-second repeated runs (spec §6).
func WriteMetadata(dir, runID string, meta Metadata) error {
	sidecarDir := filepath.Join(dir, "metadata-"+runID)
	if err := os.MkdirAll(sidecarDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(sidecarDir, "config.json"), data, 0o644)
}

// DelimiterLabel renders delimiter for the metadata sidecar: escaped text
// or hex, matching the mode (spec §6).
func DelimiterLabel(delimiter []byte, binaryMode bool) string {
	return framing.EscapeForDisplay(delimiter, binaryMode)
}
