// Package samplesheet parses the demultiplexer's sample-sheet CSV. The
// format is a header row (skipped) followed by data rows of
//
//	sample_id,idx1+idx2,r1_hint,r2_hint
//
// where the second column is the pair of expected index barcodes joined
// by '+', and the last two columns are opaque strings carried through
// for the caller. Row order defines palette iteration order.
package samplesheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/demux"
)

// Read parses a sample sheet. The returned entries are in row order and
// have not been validated beyond the row shape; palette construction
// does the rest.
func Read(r io.Reader) ([]demux.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var entries []demux.Entry
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.E(err, "sample sheet")
		}
		line++
		if line == 1 {
			// Header row.
			continue
		}
		if len(row) != 4 {
			return nil, errors.E(fmt.Sprintf("sample sheet: row %d has %d columns, want 4", line, len(row)))
		}
		sep := strings.IndexByte(row[1], '+')
		if sep < 0 {
			return nil, errors.E("sample sheet: row for", row[0], "has no '+' in the index column:", row[1])
		}
		entries = append(entries, demux.Entry{
			SampleID: row[0],
			Index1:   row[1][:sep],
			Index2:   row[1][sep+1:],
			R1:       row[2],
			R2:       row[3],
		})
	}
	return entries, nil
}

// ReadFile parses the sample sheet at path.
func ReadFile(ctx context.Context, path string) ([]demux.Entry, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open sample sheet", path)
	}
	entries, err := Read(f.Reader(ctx))
	if cerr := f.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return entries, err
}
