// fastq-dedup removes duplicated reads from FASTQ files.
//
// Reads are considered duplicates of the same molecule when their
// sequences, or the parts selected with --check-lengths, are within a
// small distance of each other. One or more FASTQ files can be given;
// multiple files are read in sync, so R1/R2 pairs and separate UMI
// files deduplicate together:
//
//	fastq-dedup --check-lengths 16,8 R1.fastq.gz R2.fastq.gz
//
// Input files may be gzip compressed. By default the output files are
// named after --prefix and gzip compressed.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/fastqdedup/dedup"
	"github.com/grailbio/fastqdedup/encoding/fastq"
)

// stringList collects the values of a repeatable flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type dedupFlags struct {
	outputs          stringList
	prefix           string
	checkLengths     string
	maxDistance      int
	maxErrorRate     float64
	noErrorRateCheck bool
	useEdit          bool
	dissectionMethod string
	verbose          bool
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] FASTQ [FASTQ...]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flags := dedupFlags{}
	flag.Usage = usage
	flag.Var(&flags.outputs, "output",
		"Output file. Specify multiple times for multiple input files, "+
			"for example 'fastq-dedup -output dedupR1.fastq -output dedupR2.fastq R1.fastq R2.fastq'.")
	flag.StringVar(&flags.prefix, "prefix", dedup.DefaultPrefix,
		"Prefix for the output files when -output is not given.")
	flag.StringVar(&flags.checkLengths, "check-lengths", "",
		"Comma-separated maximum string check length for each file, "+
			"for example '16,8'. Slice notation such as '4:8' or '::8' is also supported.")
	flag.IntVar(&flags.maxDistance, "max-distance", dedup.DefaultMaxDistance,
		"The maximum distance at which reads are still considered the same molecule.")
	flag.Float64Var(&flags.maxErrorRate, "max-average-error-rate", dedup.DefaultMaxAverageErrorRate,
		"The maximum average per base error rate for each FASTQ record. "+
			"The average is evaluated over the bases selected by -check-lengths.")
	flag.BoolVar(&flags.noErrorRateCheck, "no-average-error-rate-filter", false,
		"Do not filter on average per base error rate.")
	flag.BoolVar(&flags.useEdit, "edit", false,
		"Cluster under edit (Levenshtein) distance instead of Hamming distance.")
	flag.StringVar(&flags.dissectionMethod, "cluster-dissection-method", dedup.DefaultDissectionMethod,
		"How to treat clusters with multiple reads: 'highest_count' keeps only the "+
			"read with the highest count, 'adjacency' keeps every read not directly "+
			"within the distance of a kept read, 'directional' additionally uses counts "+
			"to tell PCR and sequencing artifacts from distinct molecules.")
	flag.BoolVar(&flags.verbose, "verbose", false,
		"Report the trie shape and memory usage after the first pass.")
	cleanup := grail.Init()
	defer cleanup()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	opts := dedup.Opts{
		InputPaths:          flag.Args(),
		OutputPaths:         flags.outputs,
		MaxDistance:         flags.maxDistance,
		UseEditDistance:     flags.useEdit,
		MaxAverageErrorRate: flags.maxErrorRate,
		DissectionMethod:    flags.dissectionMethod,
		PhredOffset:         fastq.DefaultPhredOffset,
		Verbose:             flags.verbose,
	}
	if flags.noErrorRateCheck {
		opts.MaxAverageErrorRate = 1.0
	}
	if len(opts.OutputPaths) == 0 {
		opts.OutputPaths = dedup.DefaultOutputPaths(flags.prefix, len(opts.InputPaths))
	}
	if flags.checkLengths != "" {
		checkLengths, err := dedup.ParseCheckLengths(flags.checkLengths)
		if err != nil {
			log.Fatalf("parsing -check-lengths: %v", err)
		}
		opts.CheckLengths = checkLengths
	}

	ctx := vcontext.Background()
	log.Printf("input files: %s", strings.Join(opts.InputPaths, ", "))
	log.Printf("output files: %s", strings.Join(opts.OutputPaths, ", "))
	log.Printf("maximum distance: %d (edit: %v)", opts.MaxDistance, opts.UseEditDistance)
	log.Printf("maximum average error rate: %g", opts.MaxAverageErrorRate)
	log.Printf("cluster dissection method: %s", opts.DissectionMethod)
	stats, err := dedup.Deduplicate(ctx, opts)
	if err != nil {
		log.Fatalf("fastq-dedup: %v", err)
	}
	log.Printf("finished: %d records in, %d discarded, %d distinct reads in %d clusters",
		stats.TotalRecords, stats.DiscardedRecords, stats.DistinctReads, stats.Clusters)
}
