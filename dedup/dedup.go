// Package dedup deduplicates FASTQ files whose reads carry a unique
// molecular identifier. Reads are keyed by (a slice of) their
// sequence, near-identical keys are clustered with a radix trie, and
// one representative per distinct molecule is written back out.
package dedup

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/fastqdedup/encoding/fastq"
	"github.com/grailbio/fastqdedup/trie"
	"github.com/grailbio/fastqdedup/util"
	"github.com/minio/highwayhash"
	pkgerrors "github.com/pkg/errors"
)

// Defaults for Opts.
const (
	DefaultPrefix              = "fastqdedup_R"
	DefaultMaxDistance         = 1
	DefaultMaxAverageErrorRate = 0.001
	DefaultDissectionMethod    = "directional"
)

// Opts configures a deduplication run.
type Opts struct {
	// InputPaths are the FASTQ files holding mates of the same
	// fragments: forward, and optionally reverse and UMI reads.
	InputPaths []string
	// OutputPaths receive the deduplicated records, one per input.
	OutputPaths []string
	// CheckLengths optionally restricts, per input file, the part of
	// the sequence used for duplicate detection. Empty means whole
	// sequences.
	CheckLengths []CheckSlice
	// MaxDistance is the distance at which two keys still count as the
	// same molecule.
	MaxDistance int
	// UseEditDistance clusters under edit distance instead of Hamming
	// distance.
	UseEditDistance bool
	// MaxAverageErrorRate drops reads whose average per-base error rate
	// exceeds it. A value of 1 or higher disables the filter.
	MaxAverageErrorRate float64
	// DissectionMethod picks representatives from a cluster; one of
	// highest_count, adjacency, directional.
	DissectionMethod string
	// PhredOffset is the quality string encoding offset.
	PhredOffset byte
	// Verbose additionally reports the trie shape and memory after the
	// first pass. The walk over the whole trie is not free.
	Verbose bool
}

// Stats summarizes a deduplication run.
type Stats struct {
	TotalRecords     int64
	DiscardedRecords int64
	Clusters         int64
	DistinctReads    int64
}

// The retained-key set stores hashes instead of keys; a collision
// between distinct retained keys merely drops one extra record.
var hashSeed [32]byte

func hashKey(key string) uint64 {
	return highwayhash.Sum64([]byte(key), hashSeed[:])
}

func (o *Opts) key(reads []fastq.Read) string {
	return o.join(reads, func(r *fastq.Read) string { return r.Seq })
}

func (o *Opts) qualities(reads []fastq.Read) string {
	return o.join(reads, func(r *fastq.Read) string { return r.Qual })
}

func (o *Opts) join(reads []fastq.Read, field func(r *fastq.Read) string) string {
	if len(reads) == 1 && len(o.CheckLengths) == 0 {
		return field(&reads[0])
	}
	var sb []byte
	for i := range reads {
		part := field(&reads[i])
		if len(o.CheckLengths) > 0 {
			part = o.CheckLengths[i].Apply(part)
		}
		sb = append(sb, part...)
	}
	return string(sb)
}

func (o *Opts) validate() error {
	if len(o.InputPaths) == 0 {
		return pkgerrors.New("no input files")
	}
	if len(o.OutputPaths) != len(o.InputPaths) {
		return pkgerrors.Errorf(
			"amount of output files (%d) must be equal to the amount of input files (%d)",
			len(o.OutputPaths), len(o.InputPaths))
	}
	if len(o.CheckLengths) != 0 && len(o.CheckLengths) != len(o.InputPaths) {
		return pkgerrors.Errorf(
			"amount of check lengths (%d) must be equal to the amount of input files (%d)",
			len(o.CheckLengths), len(o.InputPaths))
	}
	if o.DissectionMethod == "" {
		o.DissectionMethod = DefaultDissectionMethod
	}
	if DissectionMethods[o.DissectionMethod] == nil {
		return pkgerrors.Errorf("unknown cluster dissection method %q", o.DissectionMethod)
	}
	if o.PhredOffset == 0 {
		o.PhredOffset = fastq.DefaultPhredOffset
	}
	return nil
}

// DefaultOutputPaths derives gzipped output names from the prefix, one
// per input file.
func DefaultOutputPaths(prefix string, numInputs int) []string {
	paths := make([]string, numInputs)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s%d.fastq.gz", prefix, i+1)
	}
	return paths
}

// Deduplicate runs the two-pass deduplication: a first pass builds the
// key trie from quality-filtered records, the trie is drained one
// cluster at a time to select the distinct reads, and a second pass
// streams the inputs again, writing the records whose keys were
// retained.
func Deduplicate(ctx context.Context, opts Opts) (Stats, error) {
	var stats Stats
	if err := opts.validate(); err != nil {
		return stats, err
	}

	keyTrie, err := trie.New("ACGTN")
	if err != nil {
		return stats, err
	}
	filter := fastq.NewQualityFilter(opts.MaxAverageErrorRate, opts.PhredOffset)
	filterOnQuality := opts.MaxAverageErrorRate < 1.0

	start := time.Now()
	err = opts.scanInputs(ctx, func(reads []fastq.Read) error {
		stats.TotalRecords++
		if filterOnQuality {
			pass, err := filter.PassesFilter(opts.qualities(reads))
			if err != nil {
				return err
			}
			if !pass {
				stats.DiscardedRecords++
				return nil
			}
		}
		return keyTrie.AddSequence(opts.key(reads))
	})
	if err != nil {
		return stats, err
	}
	if filterOnQuality {
		log.Printf("%d records out of %d records had an error rate higher than %g and were discarded",
			stats.DiscardedRecords, stats.TotalRecords, opts.MaxAverageErrorRate)
	}
	log.Printf("processed %d sequences (%s)", keyTrie.NumberOfSequences(), time.Since(start).Round(time.Second))
	if opts.Verbose {
		log.Printf("trie stats:\n%s", FormatTrieStats(keyTrie))
	} else if log.At(log.Debug) {
		log.Debug.Printf("trie stats:\n%s", FormatTrieStats(keyTrie))
	}

	// Drain the trie cluster by cluster; the dissection method decides
	// which members are distinct molecules.
	start = time.Now()
	within := func(s1, s2 string) bool {
		if opts.UseEditDistance {
			return util.WithinEditDistance(s1, s2, opts.MaxDistance)
		}
		return util.WithinHammingDistance(s1, s2, opts.MaxDistance)
	}
	dissect := DissectionMethods[opts.DissectionMethod]
	retained := make(map[uint64]struct{})
	for keyTrie.NumberOfSequences() > 0 {
		cluster, err := keyTrie.PopCluster(opts.MaxDistance, opts.UseEditDistance)
		if err != nil {
			return stats, err
		}
		stats.Clusters++
		for _, sequence := range dissect(cluster, within) {
			retained[hashKey(sequence)] = struct{}{}
		}
	}
	stats.DistinctReads = int64(len(retained))
	log.Printf("found %d distinct reads in %d clusters (%s)",
		stats.DistinctReads, stats.Clusters, time.Since(start).Round(time.Second))

	// Second pass: write out the first record seen for each retained
	// key.
	start = time.Now()
	outputs := make([]*fastq.Output, len(opts.OutputPaths))
	outWriters := make([]io.Writer, len(opts.OutputPaths))
	closeOutputs := func() error {
		closeErr := errors.Once{}
		for i, out := range outputs {
			if out != nil {
				outputs[i] = nil
				closeErr.Set(pkgerrors.Wrapf(out.Close(ctx), "close %s", opts.OutputPaths[i]))
			}
		}
		return closeErr.Err()
	}
	for i, path := range opts.OutputPaths {
		if outputs[i], err = fastq.CreateFile(ctx, path); err != nil {
			_ = closeOutputs()
			return stats, err
		}
		outWriters[i] = outputs[i].Writer()
	}
	writer := fastq.NewSyncWriter(outWriters...)
	err = opts.scanInputs(ctx, func(reads []fastq.Read) error {
		h := hashKey(opts.key(reads))
		if _, ok := retained[h]; !ok {
			return nil
		}
		delete(retained, h)
		return pkgerrors.Wrap(writer.Write(reads), "write output")
	})
	if e := closeOutputs(); err == nil {
		err = e
	}
	if err != nil {
		return stats, err
	}
	log.Printf("filtered FASTQ files based on distinct reads from each cluster (%s)",
		time.Since(start).Round(time.Second))
	return stats, nil
}

// scanInputs streams all input files in sync, calling fn once per
// record tuple.
func (o *Opts) scanInputs(ctx context.Context, fn func(reads []fastq.Read) error) error {
	inputs := make([]*fastq.Input, len(o.InputPaths))
	closeAll := func() error {
		closeErr := errors.Once{}
		for i, in := range inputs {
			if in != nil {
				closeErr.Set(pkgerrors.Wrapf(in.Close(ctx), "close %s", o.InputPaths[i]))
			}
		}
		return closeErr.Err()
	}
	readers := make([]io.Reader, len(o.InputPaths))
	for i, path := range o.InputPaths {
		in, err := fastq.OpenFile(ctx, path)
		if err != nil {
			_ = closeAll()
			return err
		}
		inputs[i] = in
		readers[i] = in.Reader()
	}
	scanner := fastq.NewSyncScanner(readers...)
	reads := make([]fastq.Read, len(readers))
	var err error
	for scanner.Scan(reads) {
		if err = fn(reads); err != nil {
			break
		}
	}
	if err == nil {
		err = scanner.Err()
	}
	if e := closeAll(); err == nil {
		err = e
	}
	return err
}
