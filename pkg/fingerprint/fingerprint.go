// Package fingerprint implements the digest scheme uniqseq uses to turn
// records and windows of records into fixed-width equality keys.
//
// Record fingerprints are a fast, non-cryptographic 64-bit digest
// (cespare/xxhash): they only need to probe equality cheaply, never to
// resist deliberate collision. Window fingerprints fold W record
// fingerprints plus W itself into a single 128-bit blake2b digest, which
// disambiguates windows of different widths sharing one history or
// library (spec §3: "Including W disambiguates windows of different
// widths should W change across runs sharing a library").
package fingerprint

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// RecordFP is a record fingerprint: a digest of one record's hashable
// bytes.
type RecordFP uint64

// WindowFP is a window fingerprint: a digest over W consecutive record
// fingerprints plus the scalar W.
type WindowFP [16]byte

// Transform is a pluggable pure function applied to a record before
// hashing. The original record is always retained for output; only the
// fingerprint is computed from the transformed view.
type Transform func(record []byte) ([]byte, error)

// Record computes fp_record(record, skipPrefix, transform) per spec §4.1.
//
// If skipPrefix exceeds the (possibly transformed) record's length, the
// empty string is hashed instead of erroring — spec §9 calls this out as
// implementation-defined and recommends exactly this safe choice.
func Record(record []byte, skipPrefix int, transform Transform) (RecordFP, error) {
	hashable := record

	if transform != nil {
		transformed, err := transform(record)
		if err != nil {
			return 0, err
		}
		hashable = transformed
	}

	if skipPrefix > 0 {
		if skipPrefix >= len(hashable) {
			hashable = nil
		} else {
			hashable = hashable[skipPrefix:]
		}
	}

	return RecordFP(xxhash.Sum64(hashable)), nil
}

// Window computes fp_window(W, recordFPs) per spec §4.1: a deterministic,
// endianness-independent digest over the window width and the W record
// fingerprints it contains.
func Window(w int, recordFPs []RecordFP) WindowFP {
	// 8 bytes for W, 8 bytes per record fingerprint.
	buf := make([]byte, 8+8*len(recordFPs))
	binary.LittleEndian.PutUint64(buf[:8], uint64(w))
	for i, fp := range recordFPs {
		binary.LittleEndian.PutUint64(buf[8+8*i:8+8*i+8], uint64(fp))
	}

	h, err := blake2b.New(16, nil)
	if err != nil {
		// Only possible if the key were too long; nil key never fails.
		panic(err)
	}
	h.Write(buf)

	var out WindowFP
	copy(out[:], h.Sum(nil))
	return out
}
