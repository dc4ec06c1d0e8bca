package uniqseq

import "errors"

// Fatal configuration and runtime errors (spec §7): surfaced to the
// host, which aborts processing after attempting to flush the record
// buffer.
var (
	ErrWindowSizeInvalid        = errors.New("uniqseq: window_size must be >= 1")
	ErrWindowExceedsHistory     = errors.New("uniqseq: window_size exceeds max_history")
	ErrFilterPatternsBinaryMode = errors.New("uniqseq: filter patterns are incompatible with binary mode")
	ErrHexDelimiterTextMode     = errors.New("uniqseq: hex delimiter requires binary mode")
	ErrAnnotationFormat         = errors.New("uniqseq: invalid annotation_format template")
)
