package fastq

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Input is an open FASTQ input file, decompressed transparently based
// on the path suffix.
type Input struct {
	f      file.File
	r      io.Reader
	decomp io.Reader
}

// OpenFile opens path for reading. Compressed files are decompressed
// on the fly.
func OpenFile(ctx context.Context, path string) (*Input, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	in := &Input{f: f}
	in.r = f.Reader(ctx)
	if decomp := compress.NewReaderPath(in.r, path); decomp != nil {
		in.decomp = decomp
		in.r = decomp
	}
	return in, nil
}

// Reader returns the decompressed stream.
func (in *Input) Reader() io.Reader {
	return in.r
}

// Close closes the decompressor, when any, and the underlying file.
func (in *Input) Close(ctx context.Context) error {
	var err error
	if closer, ok := in.decomp.(io.Closer); ok {
		err = closer.Close()
	}
	if e := in.f.Close(ctx); err == nil {
		err = e
	}
	return err
}

// Output is an open FASTQ output file. Paths ending in .gz are
// compressed with a fast gzip setting; deduplicated reads are usually
// recompressed by downstream tools anyway.
type Output struct {
	f  file.File
	bw *bufio.Writer
	gz *gzip.Writer
	w  io.Writer
}

// CreateFile creates path for writing, compressing when the path ends
// in .gz.
func CreateFile(ctx context.Context, path string) (*Output, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	out := &Output{f: f}
	out.bw = bufio.NewWriter(f.Writer(ctx))
	out.w = out.bw
	if strings.HasSuffix(path, ".gz") {
		if out.gz, err = gzip.NewWriterLevel(out.bw, gzip.BestSpeed); err != nil {
			_ = f.Close(ctx)
			return nil, errors.Wrapf(err, "create %s", path)
		}
		out.w = out.gz
	}
	return out, nil
}

// Writer returns the stream to write FASTQ records to.
func (out *Output) Writer() io.Writer {
	return out.w
}

// Close flushes and closes the compressor and the underlying file.
func (out *Output) Close(ctx context.Context) error {
	var err error
	if out.gz != nil {
		err = out.gz.Close()
	}
	if e := out.bw.Flush(); err == nil {
		err = e
	}
	if e := out.f.Close(ctx); err == nil {
		err = e
	}
	return err
}
