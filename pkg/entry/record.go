// Package entry defines a Record type describing one input record. The
// pipeline packages (emit, uniqseq) use their own record types and do
// not import it.
package entry

// Record is one opaque unit of the input stream: a line in text mode, or a
// delimited blob in binary mode. uniqseq never interprets the bytes; it
// only ever compares their fingerprints.
type Record struct {
	// Bytes is the original, unmodified payload. It is always what gets
	// written to output; hashing may operate on a transformed view of it.
	Bytes []byte

	// InputIndex is the 1-based position of this record among *all*
	// records read from the input, tracked or bypassed.
	InputIndex int

	// TrackedIndex is the 1-based position of this record among only the
	// tracked records (i.e. excluding anything a Filter routed to bypass).
	// Zero for bypassed records.
	TrackedIndex int

	// FP is the record fingerprint: a digest of Bytes[SkipPrefix:], after
	// any configured hash transform. Zero until computed.
	FP uint64
}
