package dedup

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/fastqdedup/trie"
)

// FormatTrieStats renders the trie's per-depth node table as TSV, with
// a bucket column per arity, a totals row, and the memory split
// between node slots and stored suffixes. Computing the table walks
// the whole trie, so callers only do this for debug output.
func FormatTrieStats(t *trie.Trie) string {
	rawStats := t.RawStats()
	layerSize := len(t.Alphabet()) + 1

	var buf bytes.Buffer
	w := tsv.NewWriter(&buf)
	w.WriteString("layer")
	w.WriteString("terminal")
	for i := 1; i < layerSize; i++ {
		w.WriteString(strconv.Itoa(i))
	}
	w.WriteString("total")
	_ = w.EndLine()

	allTotals := make([]int64, layerSize+1)
	for layer, layerStats := range rawStats {
		var total int64
		w.WriteString(strconv.Itoa(layer))
		for bucket, count := range layerStats {
			w.WriteString(strconv.FormatInt(count, 10))
			allTotals[bucket] += count
			total += count
		}
		allTotals[layerSize] += total
		w.WriteString(strconv.FormatInt(total, 10))
		_ = w.EndLine()
	}
	w.WriteString("total")
	for _, count := range allTotals {
		w.WriteString(strconv.FormatInt(count, 10))
	}
	_ = w.EndLine()
	_ = w.Flush()

	// Node memory covers headers and child slots; whatever remains of
	// the exact memory size is suffix bytes.
	var nodeMemory int64
	for arity := 0; arity < layerSize; arity++ {
		nodeMemory += (8 + 8*int64(arity)) * allTotals[arity]
	}
	totalMemory := t.MemorySize()
	const gib = 1 << 30
	fmt.Fprintf(&buf, "Node memory usage: %.2f GiB\n", float64(nodeMemory)/gib)
	fmt.Fprintf(&buf, "Suffix memory usage: %.2f GiB\n", float64(totalMemory-nodeMemory)/gib)
	fmt.Fprintf(&buf, "Total memory usage: %.2f GiB\n", float64(totalMemory)/gib)
	return buf.String()
}
