package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/blake2b"

	"github.com/JeffreyUrban/uniqseq/pkg/library"
	"github.com/JeffreyUrban/uniqseq/pkg/transform"
	"github.com/JeffreyUrban/uniqseq/pkg/uniqseq"
)

func run(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(v, v.GetString("config"))
	if err != nil {
		return fatalf("config: %w", err)
	}

	if cfg.Quiet || cfg.Explain {
		lvl := zerolog.WarnLevel
		if cfg.Explain {
			lvl = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(lvl)
	}

	delimiter, err := resolveDelimiter(cfg)
	if err != nil {
		return fatalf("delimiter: %w", err)
	}

	filterPatterns, err := parseFilterPatterns(cfg.Filters, cfg.ByteMode)
	if err != nil {
		return fatalf("filter: %w", err)
	}

	var preloaded [][]byte
	for _, path := range cfg.Preload {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fatalf("preload %s: %w", path, err)
		}
		preloaded = append(preloaded, raw)
	}
	if cfg.Library != "" {
		fromLibrary, err := library.LoadFromDir(cfg.Library)
		if err != nil && !os.IsNotExist(err) {
			return fatalf("library %s: %w", cfg.Library, err)
		}
		preloaded = append(preloaded, fromLibrary...)
	}

	engineCfg := uniqseq.Config{
		WindowSize:         cfg.WindowSize,
		MaxHistory:         cfg.MaxHistory,
		MaxUniqueSequences: cfg.MaxUniqueSequences,
		MaxCandidates:      cfg.MaxCandidates,
		SkipPrefix:         cfg.SkipPrefix,
		Delimiter:          delimiter,
		BinaryMode:         cfg.ByteMode,
		PreloadedSequences: preloaded,
		FilterPatterns:     filterPatterns,
		Inverse:            cfg.Inverse,
		Annotate:           cfg.Annotate,
		AnnotationFormat:   cfg.AnnotationFormat,
		Explain:            cfg.Explain,
		TransformTimeout:   transformTimeout,
	}

	if cfg.HashTransform != "" {
		engineCfg.HashTransform = transform.New(cfg.HashTransform, nil, transformTimeout, delimiter)
	}

	var savedSequences [][][]byte
	if cfg.Library != "" {
		engineCfg.SaveSequenceCallback = func(records [][]byte) error {
			savedSequences = append(savedSequences, records)
			return nil
		}
	}

	engine, err := uniqseq.New(engineCfg)
	if err != nil {
		return fatalf("configuration: %w", err)
	}

	showProgress := cfg.Progress && !cfg.Quiet && isatty.IsTerminal(os.Stdout.Fd())

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if err := processStream(cmd.InOrStdin(), out, engine, delimiter, showProgress); err != nil {
		return fatalf("processing: %w", err)
	}

	if cfg.Library != "" {
		if err := persistLibrary(cfg, delimiter, engine, savedSequences); err != nil {
			log.Warn().Err(err).Msg("uniqseq: library persistence failed")
		}
	}

	if !cfg.Quiet {
		renderStats(os.Stderr, engine.Stats())
	}

	return nil
}

// processStream frames in on delimiter, feeds each record through engine,
// and writes every output record to out followed by delimiter.
func processStream(in io.Reader, out io.Writer, engine *uniqseq.Engine, delimiter []byte, showProgress bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if len(delimiter) == 1 {
		scanner.Split(splitOnByte(delimiter[0]))
	}

	var lineNum int64
	for scanner.Scan() {
		lineNum++
		record := append([]byte(nil), scanner.Bytes()...)

		records, err := engine.Process(record)
		if err != nil {
			if tail, ferr := noErrFinish(engine); ferr == nil {
				_ = writeRecords(out, tail, delimiter)
			}
			return err
		}
		if err := writeRecords(out, records, delimiter); err != nil {
			return err
		}
		if showProgress && lineNum%10_000 == 0 {
			fmt.Fprintf(os.Stderr, "\r%d records processed", lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		if tail, ferr := noErrFinish(engine); ferr == nil {
			_ = writeRecords(out, tail, delimiter)
		}
		return err
	}

	tail, err := noErrFinish(engine)
	if err != nil {
		return err
	}
	if err := writeRecords(out, tail, delimiter); err != nil {
		return err
	}

	if showProgress {
		fmt.Fprintln(os.Stderr)
	}

	return nil
}

func noErrFinish(engine *uniqseq.Engine) (records [][]byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during flush: %v", r)
		}
	}()
	return engine.Finish(), nil
}

func writeRecords(out io.Writer, records [][]byte, delimiter []byte) error {
	for _, r := range records {
		if _, err := out.Write(r); err != nil {
			return err
		}
		if _, err := out.Write(delimiter); err != nil {
			return err
		}
	}
	return nil
}

// splitOnByte returns a bufio.SplitFunc that frames on a single-byte
// delimiter (the common case); multi-byte delimiters fall back to the
// scanner's default newline framing, documented as a CLI limitation.
func splitOnByte(delim byte) func(data []byte, atEOF bool) (advance int, token []byte, err error) {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		for i, b := range data {
			if b == delim {
				return i + 1, data[:i], nil
			}
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

func persistLibrary(cfg cliConfig, delimiter []byte, engine *uniqseq.Engine, savedSequences [][][]byte) error {
	mode := "text"
	if cfg.ByteMode {
		mode = "binary"
	}

	stats := engine.Stats()
	now := time.Now().UTC()
	meta := library.Metadata{
		Timestamp:           now.Format(time.RFC3339),
		WindowSize:          cfg.WindowSize,
		Mode:                mode,
		Delimiter:           library.DelimiterLabel(delimiter, cfg.ByteMode),
		MaxHistory:          library.MaxHistoryLabel(cfg.MaxHistory),
		SequencesSaved:      len(savedSequences),
		TotalRecords:        stats.TotalInput,
		RecordsSkipped:      stats.Skipped,
		SequencesDiscovered: stats.UniqueSequences,
	}

	for _, records := range savedSequences {
		if err := writeSequenceFile(cfg.Library, records, delimiter); err != nil {
			return err
		}
	}

	runID := now.Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
	return library.WriteMetadata(cfg.Library, runID, meta)
}

func writeSequenceFile(dir string, records [][]byte, delimiter []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var content []byte
	for i, r := range records {
		if i > 0 {
			content = append(content, delimiter...)
		}
		content = append(content, r...)
	}
	sum := blake2b.Sum256(content)
	path := dir + "/" + hex.EncodeToString(sum[:])[:12] + ".uniqseq"
	return os.WriteFile(path, content, 0o644)
}
