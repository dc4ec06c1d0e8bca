// Command uniqseq is the CLI front end for the streaming
// sequence-deduplication core in pkg/uniqseq: it frames stdin into
// records, drives the Engine, and writes deduplicated output to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "uniqseq",
		Short: "Eliminate repeated multi-line record sequences from a stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "optional YAML config file; flags and UNIQSEQ_* env vars take precedence")
	flags.IntP("window-size", "w", 10, "minimum repeated window length, in records")
	flags.IntP("max-history", "m", 100_000, "window-fingerprint history capacity (0 = unlimited)")
	flags.Int("max-candidates", 1_000, "active-match capacity (0 = unlimited)")
	flags.Int("max-unique-sequences", 10_000, "recorded-sequence capacity (0 = unlimited)")
	flags.Int("skip-prefix", 0, "bytes/chars elided from each record before hashing")
	flags.String("delimiter", "", "literal record delimiter (default newline); escapes \\n \\t \\0 decoded")
	flags.String("hex-delimiter", "", "hex-encoded record delimiter (binary mode only)")
	flags.Bool("byte-mode", false, "treat the stream as raw binary records rather than UTF-8 text")
	flags.StringArray("filter", nil, "ordered filter pattern `ACTION:REGEX` (e.g. track:^ERROR); first match wins")
	flags.StringArray("preload", nil, "path to a raw sequence file to preload into the library")
	flags.String("library", "", "directory to load preloaded sequences from and save newly recorded ones to")
	flags.String("hash-transform", "", "optional external command invoked per record before hashing")
	flags.Bool("inverse", false, "emit duplicates and skip uniques instead of the reverse")
	flags.Bool("annotate", false, "emit a synthetic record describing each skipped duplicate range")
	flags.String("annotation-format", "-- skipped records {{.Start}}-{{.End}} (duplicate of {{.MatchStart}}-{{.MatchEnd}}, x{{.Count}}) --",
		"text/template source for annotation records")
	flags.Bool("explain", false, "log verbose match-engine decisions to stderr")
	flags.Bool("quiet", false, "suppress stats and progress output")
	flags.Bool("progress", false, "show a progress indicator on stderr when stdout is a terminal (ignored with --quiet)")

	if err := v.BindPFlags(flags); err != nil {
		panic(err) // flag names are static and known-good at compile time
	}
	v.SetEnvPrefix("UNIQSEQ")
	v.AutomaticEnv()

	return cmd
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func fatalf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
