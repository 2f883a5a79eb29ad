package demux

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/demux/encoding/fastq"
	"github.com/klauspost/compress/gzip"
)

const (
	// framerQueueLen bounds the framer→dispatch queue.
	framerQueueLen = 8192
	// progressInterval is how often dispatch logs progress, in records.
	progressInterval = 1 << 20
)

// pipeline is one independent read pipeline (R1 or R2): primary framer,
// optional sidecar framers, a single dispatch stage owning the index
// source and classifier cache, and one writer per output stream.
//
// The pipeline moves Running → Draining on primary EOF or the first
// fatal error (fail cancels the context; producers stop at the next
// queue operation), and Draining → Closed once every writer has
// flushed, which is when run returns.
type pipeline struct {
	suffix  string // output filename suffix, "r1" or "r2"
	primary string
	sidecar [2]string // I1, I2 paths, ModeSidecar only
	mode    Mode
	palette *Palette
	outDir  string
	opts    Opts

	errs   errors.Once
	cancel context.CancelFunc
	stats  Stats

	files   []file.File
	readers []io.ReadCloser
}

// fail records a fatal error and cancels the pipeline. The first error
// wins; later ones are dropped.
func (p *pipeline) fail(err error) {
	if err == nil {
		return
	}
	p.errs.Set(err)
	p.cancel()
}

// open opens one gzip-compressed input for scanning. The file and the
// gzip reader are retained for closing at shutdown.
func (p *pipeline) open(ctx context.Context, path string) (*fastq.Scanner, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	gz, err := gzip.NewReader(f.Reader(ctx))
	if err != nil {
		_ = f.Close(ctx)
		return nil, errors.E(err, "gzip", path)
	}
	p.files = append(p.files, f)
	p.readers = append(p.readers, gz)
	return fastq.NewScanner(gz, path), nil
}

func (p *pipeline) closeInputs(ctx context.Context) {
	for _, r := range p.readers {
		if err := r.Close(); err != nil {
			p.errs.Set(err)
		}
	}
	for _, f := range p.files {
		if err := f.Close(ctx); err != nil {
			p.errs.Set(err)
		}
	}
	p.readers, p.files = nil, nil
}

// frame scans records from one input and forwards them downstream
// until EOF, a framing error, or cancellation.
func (p *pipeline) frame(ctx context.Context, sc *fastq.Scanner, out chan<- *fastq.Read) {
	defer close(out)
	for {
		rec := &fastq.Read{}
		if !sc.Scan(rec) {
			break
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		p.fail(err)
	}
}

// dispatch owns the index source and the classifier cache. It is the
// sole consumer of the framer queue and the sole producer for every
// writer queue.
func (p *pipeline) dispatch(ctx context.Context, in <-chan *fastq.Read, src indexSource, writers map[string]*sampleWriter) {
	cl := newClassifier(p.palette, p.opts)
	defer func() { p.stats.DistinctPairs = cl.distinct() }()
	for rec := range in {
		idx1, idx2, ok, err := src.observe(rec)
		if err != nil {
			p.fail(err)
			return
		}
		var id string
		if !ok {
			id = Unassigned
			p.stats.BadBarcodes++
		} else {
			id = cl.assign(idx1, idx2)
		}
		p.stats.count(id)
		select {
		case writers[id].ch <- rec:
		case <-ctx.Done():
			return
		}
		if p.stats.Records%progressInterval == 0 {
			log.Printf("%s: %dMi records", p.primary, p.stats.Records/progressInterval)
		}
	}
}

// run executes the pipeline to completion and returns its stats and the
// first fatal error, if any.
func (p *pipeline) run(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	defer cancel()
	p.stats = newStats()

	// Open every input up front so a missing or corrupt file fails the
	// run before any worker starts.
	primary, err := p.open(ctx, p.primary)
	if err != nil {
		return p.stats, err
	}
	var i1, i2 *fastq.Scanner
	if p.mode == ModeSidecar {
		if i1, err = p.open(ctx, p.sidecar[0]); err == nil {
			i2, err = p.open(ctx, p.sidecar[1])
		}
		if err != nil {
			p.closeInputs(ctx)
			return p.stats, err
		}
	}

	// Create all output streams eagerly: every sample plus the two
	// reserved ones.
	ids := append(p.palette.SampleIDs(), Ambiguous, Unassigned)
	writers := make(map[string]*sampleWriter, len(ids))
	for _, id := range ids {
		path := filepath.Join(p.outDir, fmt.Sprintf("%s_%s.fq.gz", id, p.suffix))
		w, err := newSampleWriter(ctx, path, id, p.opts.CompressionLevel)
		if err != nil {
			p.errs.Set(err)
			break
		}
		writers[id] = w
	}
	if err := p.errs.Err(); err != nil {
		for _, w := range writers {
			w.close(ctx, &p.errs)
		}
		p.closeInputs(ctx)
		return p.stats, err
	}

	var writerWG sync.WaitGroup
	for _, w := range writers {
		writerWG.Add(1)
		go func(w *sampleWriter) {
			defer writerWG.Done()
			w.run(ctx, &p.errs, p.cancel)
		}(w)
	}

	var framerWG sync.WaitGroup
	recCh := make(chan *fastq.Read, framerQueueLen)
	framerWG.Add(1)
	go func() {
		defer framerWG.Done()
		p.frame(ctx, primary, recCh)
	}()

	var src indexSource = headerSource{}
	if p.mode == ModeSidecar {
		i1Ch := make(chan *fastq.Read, framerQueueLen)
		i2Ch := make(chan *fastq.Read, framerQueueLen)
		framerWG.Add(2)
		go func() {
			defer framerWG.Done()
			p.frame(ctx, i1, i1Ch)
		}()
		go func() {
			defer framerWG.Done()
			p.frame(ctx, i2, i2Ch)
		}()
		src = &sidecarSource{ctx: ctx, i1: i1Ch, i2: i2Ch, path1: p.sidecar[0], path2: p.sidecar[1]}
	}

	p.dispatch(ctx, recCh, src, writers)

	// Dispatch has returned: primary EOF or a fatal error. Release any
	// framer still blocked on a send, then shut the stages down in
	// order. Records already handed to writers are still written.
	cancel()
	framerWG.Wait()
	for _, w := range writers {
		close(w.ch)
	}
	writerWG.Wait()
	p.closeInputs(ctx)

	log.Debug.Printf("%s: closed %d output streams", p.primary, len(writers))
	return p.stats, p.errs.Err()
}
