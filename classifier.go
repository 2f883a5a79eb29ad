package demux

import (
	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/demux/util"
)

// classifier resolves observed index pairs to sample IDs, memoizing
// each distinct pair. The number of distinct pairs per run is tiny
// compared to the number of records (sequencing errors over two 8-mers),
// so after warmup almost every record is a cache hit.
//
// A classifier is owned by a single dispatch goroutine; only the
// palette it references is shared.
type classifier struct {
	palette *Palette
	opts    Opts
	// cache maps the farmhash fingerprint of the canonical "idx1+idx2"
	// string to its assignment. Hashing the pair instead of storing it
	// keeps the hot path free of per-record key allocations; fingerprint
	// collisions over the few thousand distinct pairs of a run are not a
	// realistic concern. Entries are never overwritten.
	cache map[uint64]string
	key   []byte // scratch buffer for the canonical pair
}

func newClassifier(palette *Palette, opts Opts) *classifier {
	return &classifier{
		palette: palette,
		opts:    opts,
		cache:   make(map[uint64]string),
	}
}

// assign returns the sample ID for an observed index pair.
func (c *classifier) assign(idx1, idx2 string) string {
	c.key = append(c.key[:0], idx1...)
	c.key = append(c.key, '+')
	c.key = append(c.key, idx2...)
	h := farm.Fingerprint64(c.key)
	if id, ok := c.cache[h]; ok {
		return id
	}
	id := c.classify(idx1, idx2)
	c.cache[h] = id
	return id
}

// distinct returns the number of distinct pairs seen so far.
func (c *classifier) distinct() int { return len(c.cache) }

// classify scans the palette for the entry with the minimum summed edit
// distance to the observed pair. Ties on the minimum are broken toward
// the lexicographically smallest sample ID so that the outcome is
// independent of sample-sheet row order.
func (c *classifier) classify(idx1, idx2 string) string {
	const unset = int(^uint(0) >> 1)
	best, second := unset, unset
	var bestID string
	var bestOK bool // winning entry within the per-index tolerances
	for i := range c.palette.entries {
		e := &c.palette.entries[i]
		d1 := util.Levenshtein(idx1, e.Index1)
		d2 := util.Levenshtein(idx2, e.Index2)
		sum := d1 + d2
		switch {
		case sum < best:
			second = best
			best = sum
			bestID = e.SampleID
			bestOK = d1 <= c.opts.MM1 && d2 <= c.opts.MM2
		case sum == best:
			second = sum
			if e.SampleID < bestID {
				bestID = e.SampleID
				bestOK = d1 <= c.opts.MM1 && d2 <= c.opts.MM2
			}
		case sum < second:
			second = sum
		}
	}
	switch {
	case best > c.opts.MaxDistance:
		return Unassigned
	case best == second:
		return Ambiguous
	case !bestOK:
		return Unassigned
	}
	return bestID
}
