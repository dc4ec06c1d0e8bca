// Package transform wraps an optional external hash-transform as a
// fingerprint.Transform: a subprocess invoked once per record, bracketed
// by a timeout, whose output must be exactly one record with no embedded
// delimiter (spec §4.1, §9's "treat as external I/O, bracketed by
// timeout; any framing violation is a fatal configuration error").
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JeffreyUrban/uniqseq/pkg/fingerprint"
)

// ErrFraming reports that the subprocess emitted something other than
// exactly one record: zero or multiple records, or a record containing
// the delimiter itself.
var ErrFraming = errors.New("transform: output must be exactly one record with no embedded delimiter")

// New builds a fingerprint.Transform that runs name with args, feeding
// the record on stdin and reading the transformed record from stdout,
// subject to timeout. delimiter is used only to validate output framing.
func New(name string, args []string, timeout time.Duration, delimiter []byte) fingerprint.Transform {
	return func(record []byte) ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = bytes.NewReader(record)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("transform: %s timed out after %s", name, timeout)
			}
			return nil, fmt.Errorf("transform: %s failed: %w (stderr: %s)", name, err, stderr.String())
		}

		out := stdout.Bytes()
		if len(delimiter) > 0 {
			if parts := bytes.Split(out, delimiter); len(parts) != 1 {
				log.Error().Str("transform", name).Int("records", len(parts)).Msg("hash transform produced multiple records")
				return nil, ErrFraming
			}
		}

		return out, nil
	}
}
