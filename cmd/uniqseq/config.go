package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	"github.com/JeffreyUrban/uniqseq/pkg/filter"
	"github.com/JeffreyUrban/uniqseq/pkg/framing"
	"github.com/JeffreyUrban/uniqseq/pkg/uniqseq"
)

// cliConfig mirrors the flag surface in newRootCmd, resolved through
// viper's file/env/flag layering.
type cliConfig struct {
	WindowSize         int
	MaxHistory         int
	MaxCandidates      int
	MaxUniqueSequences int
	SkipPrefix         int
	Delimiter          string
	HexDelimiter       string
	ByteMode           bool
	Filters            []string
	Preload            []string
	Library            string
	HashTransform      string
	Inverse            bool
	Annotate           bool
	AnnotationFormat   string
	Explain            bool
	Quiet              bool
	Progress           bool
	ConfigFile         string
}

func loadConfig(v *viper.Viper, configFile string) (cliConfig, error) {
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return cliConfig{}, fmt.Errorf("reading --config %s: %w", configFile, err)
		}
		var fileValues map[string]any
		if err := yaml.Unmarshal(data, &fileValues); err != nil {
			return cliConfig{}, fmt.Errorf("parsing --config %s: %w", configFile, err)
		}
		for k, val := range fileValues {
			if !v.IsSet(k) {
				v.Set(k, val)
			}
		}
	}

	return cliConfig{
		WindowSize:         v.GetInt("window-size"),
		MaxHistory:         v.GetInt("max-history"),
		MaxCandidates:      v.GetInt("max-candidates"),
		MaxUniqueSequences: v.GetInt("max-unique-sequences"),
		SkipPrefix:         v.GetInt("skip-prefix"),
		Delimiter:          v.GetString("delimiter"),
		HexDelimiter:       v.GetString("hex-delimiter"),
		ByteMode:           v.GetBool("byte-mode"),
		Filters:            v.GetStringSlice("filter"),
		Preload:            v.GetStringSlice("preload"),
		Library:            v.GetString("library"),
		HashTransform:      v.GetString("hash-transform"),
		Inverse:            v.GetBool("inverse"),
		Annotate:           v.GetBool("annotate"),
		AnnotationFormat:   v.GetString("annotation-format"),
		Explain:            v.GetBool("explain"),
		Quiet:              v.GetBool("quiet"),
		Progress:           v.GetBool("progress"),
	}, nil
}

// resolveDelimiter applies spec §6/§7's framing rules: a hex delimiter is
// fatal outside binary mode; a literal delimiter has its escapes decoded;
// the default is newline.
func resolveDelimiter(cfg cliConfig) ([]byte, error) {
	if cfg.HexDelimiter != "" {
		return framing.DecodeHex(cfg.HexDelimiter, cfg.ByteMode)
	}
	if cfg.Delimiter != "" {
		return []byte(framing.DecodeLiteral(cfg.Delimiter)), nil
	}
	return []byte("\n"), nil
}

// parseFilterPatterns parses `ACTION:REGEX` flag values into filter.Pattern
// (spec §4.6). Binary mode rejects any filter patterns as a fatal
// configuration error.
func parseFilterPatterns(raw []string, byteMode bool) ([]filter.Pattern, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if byteMode {
		return nil, uniqseq.ErrFilterPatternsBinaryMode
	}

	patterns := make([]filter.Pattern, 0, len(raw))
	for _, spec := range raw {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --filter %q, want ACTION:REGEX", spec)
		}
		var action filter.Action
		switch parts[0] {
		case "track":
			action = filter.Track
		case "bypass":
			action = filter.Bypass
		default:
			return nil, fmt.Errorf("invalid --filter action %q, want track or bypass", parts[0])
		}
		patterns = append(patterns, filter.Pattern{Expr: parts[1], Action: action})
	}
	return patterns, nil
}

// transformTimeout bounds the optional hash-transform subprocess.
const transformTimeout = 5 * time.Second
