package demux

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/demux/encoding/fastq"
	"github.com/klauspost/compress/gzip"
)

// writerQueueLen bounds the dispatch→writer queue. A stalled gzip
// encoder therefore stalls the dispatcher instead of buffering records
// without limit.
const writerQueueLen = 2048

// sampleWriter owns one compressed output stream for the lifetime of a
// pipeline. Records arrive over a bounded channel from the dispatch
// stage; the goroutine draining that channel is the file's only writer.
type sampleWriter struct {
	sampleID string
	path     string
	ch       chan *fastq.Read

	f   file.File
	gz  *gzip.Writer
	fq  *fastq.Writer
	err error // first write failure; later records are drained unwritten
}

// newSampleWriter eagerly creates the output file, so that the full
// sample set is visible on disk as soon as the pipeline starts.
func newSampleWriter(ctx context.Context, path, sampleID string, level int) (*sampleWriter, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	gz, err := gzip.NewWriterLevel(f.Writer(ctx), level)
	if err != nil {
		_ = f.Close(ctx)
		return nil, errors.E(err, "gzip writer", path)
	}
	return &sampleWriter{
		sampleID: sampleID,
		path:     path,
		ch:       make(chan *fastq.Read, writerQueueLen),
		f:        f,
		gz:       gz,
		fq:       fastq.NewWriter(gz),
	}, nil
}

// run drains the inbound queue until it is closed, then flushes and
// closes the file. On a write failure it records the error, keeps
// draining without writing, and cancels the pipeline so that upstream
// stages stop producing.
func (w *sampleWriter) run(ctx context.Context, errs *errors.Once, cancel context.CancelFunc) {
	for rec := range w.ch {
		if w.err != nil {
			continue
		}
		if err := w.fq.Write(rec); err != nil {
			w.err = errors.E(err, "write", w.path)
			errs.Set(w.err)
			cancel()
		}
	}
	w.close(ctx, errs)
}

// close flushes the gzip stream and closes the file. Close errors are
// not reported on a stream that already failed.
func (w *sampleWriter) close(ctx context.Context, errs *errors.Once) {
	if err := w.gz.Close(); err != nil && w.err == nil {
		errs.Set(errors.E(err, "gzip close", w.path))
	}
	if err := w.f.Close(ctx); err != nil && w.err == nil {
		errs.Set(errors.E(err, "close", w.path))
	}
}
