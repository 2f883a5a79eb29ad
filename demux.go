// Package demux demultiplexes paired-end Illumina FASTQ files into
// per-sample compressed outputs by matching observed dual-index
// barcodes against a sample sheet under bounded edit distance.
//
// The work happens in one streaming pass per read file: a framer
// goroutine decodes gzip and frames four-line records, a dispatch
// goroutine attaches the observed index pair (from the header or from
// sidecar index files), classifies it against the palette with a
// memoized Levenshtein scan, and routes the record to one writer
// goroutine per sample. All queues between stages are bounded, so a
// slow compressor applies backpressure instead of growing memory.
package demux

import (
	"context"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
)

// Mode selects how observed index pairs are obtained.
type Mode int

const (
	// ModeHeader slices the pair out of each primary record's ID line.
	ModeHeader Mode = iota
	// ModeSidecar joins two parallel index FASTQ files (I1, I2).
	ModeSidecar
)

// Inputs names the gzip-compressed FASTQ files of one paired run. I1
// and I2 are consulted only in ModeSidecar.
type Inputs struct {
	R1, R2 string
	I1, I2 string
	Mode   Mode
}

// Run executes one end-to-end demultiplexing pass: the R1 and R2
// pipelines run independently and in parallel, each writing
// {outDir}/{sample}_{r1,r2}.fq.gz for every palette sample plus the
// reserved AMBIGUOUS and UNASSIGNED outputs. All output files exist
// (possibly empty) once the pipelines have started.
//
// The returned stats are indexed R1, R2. The first fatal error cancels
// both pipelines and is returned; in-flight records already dispatched
// are still written best-effort so per-stream files stay valid.
func Run(ctx context.Context, inputs Inputs, palette *Palette, outDir string, opts Opts) ([2]Stats, error) {
	var stats [2]Stats
	if err := os.MkdirAll(outDir, 0775); err != nil {
		return stats, errors.E(err, "mkdir", outDir)
	}
	type end struct {
		suffix  string
		primary string
	}
	ends := [2]end{{"r1", inputs.R1}, {"r2", inputs.R2}}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var errs errors.Once
	_ = traverse.Each(2, func(i int) error {
		p := &pipeline{
			suffix:  ends[i].suffix,
			primary: ends[i].primary,
			mode:    inputs.Mode,
			palette: palette,
			outDir:  outDir,
			opts:    opts,
		}
		if inputs.Mode == ModeSidecar {
			p.sidecar = [2]string{inputs.I1, inputs.I2}
		}
		var err error
		stats[i], err = p.run(ctx)
		if err != nil {
			// Record the error before cancelling so that it, and not the
			// other pipeline's cancellation, is what Run returns.
			errs.Set(err)
			cancel()
		}
		return err
	})
	return stats, errs.Err()
}
