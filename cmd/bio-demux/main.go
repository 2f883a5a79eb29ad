package main

// bio-demux splits a pooled paired-end Illumina run into one
// gzip-compressed FASTQ per sample by matching the dual index barcodes
// observed on each read against a sample sheet, tolerating a bounded
// number of sequencing errors in the barcodes. Reads whose barcodes
// match no sample, or more than one equally well, land in the reserved
// UNASSIGNED and AMBIGUOUS outputs.

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/demux"
	"github.com/grailbio/demux/samplesheet"
)

var (
	mm1 = flag.Int("mm1", demux.DefaultOpts.MM1,
		"Maximum edit distance on index 1 for a read to be assignable")
	mm2 = flag.Int("mm2", demux.DefaultOpts.MM2,
		"Maximum edit distance on index 2 for a read to be assignable")
	maxDist = flag.Int("max-dist", demux.DefaultOpts.MaxDistance,
		"Maximum summed edit distance across both indexes")
	gzipLevel = flag.Int("gzip-level", demux.DefaultOpts.CompressionLevel,
		"Compression level of the output files (1=fastest, 9=best)")
)

func bioDemuxUsage() {
	fmt.Printf("Usage: %s [OPTIONS] samplesheet outdir inputprefix\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

// misuse reports an invalid invocation and exits with status 2; fatal
// runtime errors exit with status 1 via log.Fatalf.
func misuse(format string, args ...interface{}) {
	log.Error.Printf(format, args...)
	os.Exit(2)
}

func main() {
	flag.Usage = bioDemuxUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}
	args := flag.Args()
	sheetPath, outDir, prefix := args[0], args[1], args[2]
	ctx := vcontext.Background()

	entries, err := samplesheet.ReadFile(ctx, sheetPath)
	if err != nil {
		misuse("%s: %v", sheetPath, err)
	}
	palette, err := demux.NewPalette(entries)
	if err != nil {
		misuse("%s: %v", sheetPath, err)
	}
	inputs, err := discoverInputs(prefix)
	if err != nil {
		misuse("%v", err)
	}

	opts := demux.Opts{
		MM1:              *mm1,
		MM2:              *mm2,
		MaxDistance:      *maxDist,
		CompressionLevel: *gzipLevel,
	}
	mode := "in-header"
	if inputs.Mode == demux.ModeSidecar {
		mode = "sidecar"
	}
	log.Printf("demultiplexing %s (%d samples, %s indexes) into %s",
		prefix, len(palette.Entries()), mode, outDir)
	stats, err := demux.Run(ctx, inputs, palette, outDir, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	report(palette, [2]string{inputs.R1, inputs.R2}, stats)
}

func report(palette *demux.Palette, primaries [2]string, stats [2]demux.Stats) {
	for i, s := range stats {
		log.Printf("%s: %d records: %d assigned, %d ambiguous, %d unassigned (%d without parseable barcode), %d distinct index pairs",
			primaries[i], s.Records, s.Assigned, s.Ambiguous, s.Unassigned, s.BadBarcodes, s.DistinctPairs)
		for _, id := range palette.SampleIDs() {
			log.Printf("  %s: %d", id, s.PerSample[id])
		}
	}
}
