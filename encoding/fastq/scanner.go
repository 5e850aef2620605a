// Package fastq provides FASTQ scanning and writing for the
// deduplication pipeline, including synchronized scanning of several
// FASTQ streams holding mates of the same fragments, and quality
// string utilities.
package fastq

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
	// ErrDiscordant is returned when underlying FASTQ files go out of
	// sync: one ends before another, or records are not mates.
	ErrDiscordant = errors.New("discordant FASTQ files")
)

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string.
type Read struct {
	ID, Seq, Unk, Qual string
}

// Name returns the read name: the ID without the leading "@" and
// anything from the first whitespace on.
func (r *Read) Name() string {
	name := strings.TrimPrefix(r.ID, "@")
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return name
}

// MateOf reports whether r and other carry reads of the same fragment.
// Names must be equal, except that a trailing "/1" style pair suffix
// may differ in its digit.
func (r *Read) MateOf(other *Read) bool {
	n1, n2 := r.Name(), other.Name()
	if len(n1) != len(n2) {
		return false
	}
	if len(n1) >= 2 && n1[len(n1)-2] == '/' && n2[len(n2)-2] == '/' {
		n1 = n1[:len(n1)-1]
		n2 = n2[:len(n2)-1]
	}
	return n1 == n2
}

var errEOF = errors.New("eof")

// Scanner reads FASTQ records from a stream. The Scan method fills the
// next read, returning a boolean indicating whether it succeeded. Once
// Scan returns false it never returns true again; Err tells whether
// scanning stopped on an error or on a clean end of stream. Scanners
// are not threadsafe.
//
// Scanner validates record framing only: ID lines must begin with "@",
// line 3 must begin with "+", and the sequence and quality strings of
// a record must have equal length.
type Scanner struct {
	b   *bufio.Scanner
	err error
}

// NewScanner constructs a Scanner reading raw FASTQ data from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{b: bufio.NewScanner(r)}
}

// Scan the next record into read.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = errEOF
		}
		return false
	}
	id := s.b.Text()
	if len(id) == 0 || id[0] != '@' {
		s.err = ErrInvalid
		return false
	}
	read.ID = id
	if !s.scan() {
		return false
	}
	read.Seq = s.b.Text()
	if !s.scan() {
		return false
	}
	unk := s.b.Text()
	if len(unk) == 0 || unk[0] != '+' {
		s.err = ErrInvalid
		return false
	}
	read.Unk = unk
	if !s.scan() {
		return false
	}
	read.Qual = s.b.Text()
	if len(read.Qual) != len(read.Seq) {
		s.err = ErrInvalid
		return false
	}
	return true
}

func (s *Scanner) scan() bool {
	ok := s.b.Scan()
	if !ok {
		if s.err = s.b.Err(); s.err == nil {
			s.err = ErrShort
		}
	}
	return ok
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// SyncScanner composes scanners over N FASTQ streams that carry mates
// of the same fragments in the same order, such as an R1/R2 pair or an
// R1/R2/UMI triple.
type SyncScanner struct {
	scanners []*Scanner
	err      error
}

// NewSyncScanner creates a SyncScanner from the provided readers.
func NewSyncScanner(readers ...io.Reader) *SyncScanner {
	s := &SyncScanner{}
	for _, r := range readers {
		s.scanners = append(s.scanners, NewScanner(r))
	}
	return s
}

// Scan scans the next record from every stream into the corresponding
// element of reads, which must have one entry per stream. All streams
// must produce a record or all must end; the records of one scan must
// be mates of each other.
func (s *SyncScanner) Scan(reads []Read) bool {
	if s.err != nil {
		return false
	}
	ok := s.scanners[0].Scan(&reads[0])
	for i := 1; i < len(s.scanners); i++ {
		if s.scanners[i].Scan(&reads[i]) != ok {
			s.err = ErrDiscordant
			return false
		}
	}
	if !ok {
		return false
	}
	for i := 1; i < len(reads); i++ {
		if !reads[0].MateOf(&reads[i]) {
			s.err = ErrDiscordant
			return false
		}
	}
	return true
}

// Err returns the scanning error, if any. It should be checked after
// Scan returns false.
func (s *SyncScanner) Err() error {
	for _, scanner := range s.scanners {
		if err := scanner.Err(); err != nil {
			return err
		}
	}
	return s.err
}
