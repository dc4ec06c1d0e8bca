package main

import (
	"fmt"
	"io"

	"github.com/JeffreyUrban/uniqseq/pkg/uniqseq"
)

// renderStats writes the end-of-run summary spec §6 calls out: total
// input, emitted, skipped, redundancy percentage, and how many distinct
// sequences the run discovered.
func renderStats(w io.Writer, stats uniqseq.Stats) {
	fmt.Fprintf(w, "uniqseq: %d records in, %d emitted, %d skipped (%.1f%% redundancy), %d unique sequences\n",
		stats.TotalInput, stats.Emitted, stats.Skipped, stats.RedundancyPercent, stats.UniqueSequences)
}
