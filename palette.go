package demux

import (
	"github.com/grailbio/base/errors"
)

// Reserved sample names. Reads whose observed barcode pair cannot be
// resolved to exactly one palette entry are routed to one of these
// outputs instead of a sample's.
const (
	// Ambiguous receives reads whose best-matching entry is tied with
	// another entry.
	Ambiguous = "AMBIGUOUS"
	// Unassigned receives reads whose best match is outside the
	// configured distance bounds, and reads without a parseable barcode.
	Unassigned = "UNASSIGNED"
)

// Entry is one row of the sample sheet: a pair of expected index
// barcodes, the sample they select, and two opaque hints carried
// through for the caller.
type Entry struct {
	Index1, Index2 string
	SampleID       string
	R1, R2         string
}

// Palette is the set of expected barcode pairs for one run. It is
// immutable after construction and may be shared across goroutines.
type Palette struct {
	entries []Entry
}

// NewPalette validates entries and builds a palette. Sample IDs must be
// unique, non-empty, and must not collide with the reserved Ambiguous
// and Unassigned names. Indexes must be non-empty strings over ACGT;
// keeping N out of the palette guarantees that an N in an observed
// barcode can never match and always costs one edit.
func NewPalette(entries []Entry) (*Palette, error) {
	if len(entries) == 0 {
		return nil, errors.E("palette: no barcode entries")
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.SampleID == "" {
			return nil, errors.E("palette: empty sample ID")
		}
		if e.SampleID == Ambiguous || e.SampleID == Unassigned {
			return nil, errors.E("palette: sample ID collides with reserved name:", e.SampleID)
		}
		if seen[e.SampleID] {
			return nil, errors.E("palette: duplicate sample ID:", e.SampleID)
		}
		seen[e.SampleID] = true
		for _, index := range []string{e.Index1, e.Index2} {
			if len(index) == 0 {
				return nil, errors.E("palette: empty index for sample", e.SampleID)
			}
			for i := 0; i < len(index); i++ {
				switch index[i] {
				case 'A', 'C', 'G', 'T':
				default:
					return nil, errors.E("palette: index", index, "for sample", e.SampleID,
						"contains a base outside ACGT")
				}
			}
		}
	}
	p := &Palette{entries: make([]Entry, len(entries))}
	copy(p.entries, entries)
	return p, nil
}

// Entries returns the palette entries in sample-sheet order.
func (p *Palette) Entries() []Entry { return p.entries }

// SampleIDs returns the sample IDs in sample-sheet order, without the
// reserved names.
func (p *Palette) SampleIDs() []string {
	ids := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		ids = append(ids, e.SampleID)
	}
	return ids
}
