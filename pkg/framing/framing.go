// Package framing turns a raw byte stream into records, the host-visible
// concern spec §6 calls out as external to the core: newline-delimited
// by default, a literal delimiter string (with common escapes decoded),
// or a hex delimiter restricted to binary mode.
package framing

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	// ErrHexDelimiterTextMode is fatal configuration error per spec §7:
	// a hex delimiter outside binary mode.
	ErrHexDelimiterTextMode = errors.New("framing: hex delimiter requires binary mode")
	// ErrInvalidHexDelimiter reports a malformed --hex-delimiter value.
	ErrInvalidHexDelimiter = errors.New("framing: invalid hex delimiter")
)

// Split breaks raw into records on delimiter exactly as bytes.Split does,
// so a trailing delimiter yields a final empty record; empty raw yields
// nil. Library sequence files are stored without a trailing delimiter
// (spec §6).
func Split(raw []byte, delimiter []byte) [][]byte {
	if len(raw) == 0 {
		return nil
	}
	return bytes.Split(raw, delimiter)
}

// DecodeLiteral expands the common escape sequences `\n`, `\t`, `\0` in a
// user-supplied delimiter string (e.g. --delimiter '\t'), leaving
// anything else untouched.
func DecodeLiteral(s string) string {
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\0`, "\x00")
	return replacer.Replace(s)
}

// DecodeHex parses a hex-encoded delimiter (--hex-delimiter), valid only
// in binary mode per spec §7.
func DecodeHex(s string, binaryMode bool) ([]byte, error) {
	if !binaryMode {
		return nil, ErrHexDelimiterTextMode
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Join(ErrInvalidHexDelimiter, err)
	}
	return b, nil
}

// EscapeForDisplay renders a delimiter for human-readable metadata
// (spec §6's metadata sidecar: "delimiter (escaped for text, hex for
// binary)").
func EscapeForDisplay(delimiter []byte, binaryMode bool) string {
	if binaryMode {
		return hex.EncodeToString(delimiter)
	}
	s := string(delimiter)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\x00", `\0`)
	return s
}
