package demux

import "github.com/klauspost/compress/gzip"

// Opts collects the tunables of one demultiplexing pass.
type Opts struct {
	// MM1 and MM2 bound the per-index edit distance: the winning palette
	// entry must be within MM1 edits on index 1 and MM2 edits on index 2
	// or the read is unassigned.
	MM1 int
	MM2 int

	// MaxDistance is the aggregate cap: the sum of the two per-index
	// distances of the winning entry must not exceed it.
	//
	// Both controls apply. The defaults set MM1 and MM2 equal to
	// MaxDistance, so that out of the box only the aggregate cap binds.
	MaxDistance int

	// CompressionLevel is the gzip level of the output files.
	CompressionLevel int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	MM1:              4,
	MM2:              4,
	MaxDistance:      4,
	CompressionLevel: gzip.BestSpeed,
}
