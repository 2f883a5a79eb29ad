package demux

import (
	"context"
	"fmt"

	"github.com/grailbio/demux/encoding/fastq"
)

const (
	indexLen = 8
	// pairLen is the canonical "idx1+idx2" block at the end of an
	// Illumina header: two 8-base indexes joined by '+'.
	pairLen = 2*indexLen + 1
)

// IndexDesyncError reports that a primary stream and its sidecar index
// streams have fallen out of step.
type IndexDesyncError struct {
	Primary string // primary record ID ("" when the sidecar ended early)
	Sidecar string // sidecar record ID, or its path when it ended early
}

func (e *IndexDesyncError) Error() string {
	if e.Primary == "" {
		return fmt.Sprintf("index file %s ended before the primary stream", e.Sidecar)
	}
	return fmt.Sprintf("index record %q does not match primary record %q", e.Sidecar, e.Primary)
}

// An indexSource yields the observed barcode pair for each primary
// record. ok=false means the record carries no usable pair and routes
// to Unassigned; a non-nil error is fatal to the pipeline.
type indexSource interface {
	observe(rec *fastq.Read) (idx1, idx2 string, ok bool, err error)
}

// headerSource slices the observed pair out of the primary record's ID
// line: the final 17 bytes, 8 bases + '+' + 8 bases. Headers too short
// or without the '+' in place yield ok=false rather than an error, so a
// stray record cannot take down the run.
type headerSource struct{}

func (headerSource) observe(rec *fastq.Read) (string, string, bool, error) {
	id := rec.ID
	n := len(id)
	if n < pairLen || id[n-indexLen-1] != '+' {
		return "", "", false, nil
	}
	return id[n-pairLen : n-indexLen-1], id[n-indexLen:], true, nil
}

// sidecarSource joins two framed index streams (I1, I2) to the primary
// stream, consuming exactly one record from each per primary record.
// The three records must agree on the instrument/coordinate prefix of
// their IDs (everything before the first whitespace). It holds no more
// than the one pending triple.
type sidecarSource struct {
	ctx    context.Context
	i1, i2 <-chan *fastq.Read
	path1  string
	path2  string
}

func (s *sidecarSource) observe(rec *fastq.Read) (string, string, bool, error) {
	idx1, err := s.next(s.i1, s.path1, rec)
	if err != nil {
		return "", "", false, err
	}
	idx2, err := s.next(s.i2, s.path2, rec)
	if err != nil {
		return "", "", false, err
	}
	return idx1.Seq, idx2.Seq, true, nil
}

func (s *sidecarSource) next(ch <-chan *fastq.Read, path string, primary *fastq.Read) (*fastq.Read, error) {
	select {
	case idx, ok := <-ch:
		if !ok {
			return nil, &IndexDesyncError{Sidecar: path}
		}
		if coordPrefix(idx.ID) != coordPrefix(primary.ID) {
			return nil, &IndexDesyncError{Primary: primary.ID, Sidecar: idx.ID}
		}
		return idx, nil
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

// coordPrefix returns the instrument/coordinate prefix of a FASTQ ID:
// everything before the first space or tab.
func coordPrefix(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == ' ' || id[i] == '\t' {
			return id[:i]
		}
	}
	return id
}
