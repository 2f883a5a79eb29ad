package demux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassifier(t *testing.T, entries []Entry, opts Opts) *classifier {
	t.Helper()
	palette, err := NewPalette(entries)
	require.NoError(t, err)
	return newClassifier(palette, opts)
}

var testEntries = []Entry{
	{Index1: "AAAAAAAA", Index2: "CCCCCCCC", SampleID: "S1"},
	{Index1: "GGGGGGGG", Index2: "TTTTTTTT", SampleID: "S2"},
}

func TestClassifyExact(t *testing.T) {
	c := testClassifier(t, testEntries, DefaultOpts)
	assert.Equal(t, "S1", c.assign("AAAAAAAA", "CCCCCCCC"))
	assert.Equal(t, "S2", c.assign("GGGGGGGG", "TTTTTTTT"))
}

func TestClassifyNearMatch(t *testing.T) {
	c := testClassifier(t, testEntries, DefaultOpts)
	// One mismatch per index, sum 2, well under the cap.
	assert.Equal(t, "S1", c.assign("AAAAAAAC", "CCCCCCCT"))
}

func TestClassifyCrossedPair(t *testing.T) {
	c := testClassifier(t, testEntries, DefaultOpts)
	// S1's index 1 with S2's index 2: both candidates score 8.
	assert.Equal(t, Unassigned, c.assign("AAAAAAAA", "TTTTTTTT"))
}

func TestClassifyAmbiguous(t *testing.T) {
	entries := []Entry{
		{Index1: "AAAAAAAA", Index2: "CCCCCCCC", SampleID: "S1"},
		{Index1: "AAAAAAAT", Index2: "CCCCCCCC", SampleID: "S2"},
	}
	c := testClassifier(t, entries, DefaultOpts)
	// Distance 0 beats distance 1.
	assert.Equal(t, "S1", c.assign("AAAAAAAA", "CCCCCCCC"))
	// The N base is one edit from both candidates.
	assert.Equal(t, Ambiguous, c.assign("AAAAAAAN", "CCCCCCCC"))
}

func TestClassifyCapBoundary(t *testing.T) {
	entries := []Entry{{Index1: "AAAAAAAA", Index2: "CCCCCCCC", SampleID: "S1"}}
	c := testClassifier(t, entries, DefaultOpts)
	// Summed distance exactly at the cap is still assigned.
	assert.Equal(t, "S1", c.assign("AAAATTTT", "CCCCCCCC"))
	// One past the cap is not.
	assert.Equal(t, Unassigned, c.assign("AAATTTTT", "CCCCCCCC"))
}

func TestClassifyPerIndexBounds(t *testing.T) {
	entries := []Entry{{Index1: "AAAAAAAA", Index2: "CCCCCCCC", SampleID: "S1"}}
	opts := DefaultOpts
	opts.MM1 = 1
	opts.MM2 = 1
	c := testClassifier(t, entries, opts)
	// Sum 2 is within the aggregate cap, but index 1 alone exceeds MM1.
	assert.Equal(t, Unassigned, c.assign("AAAAAATT", "CCCCCCCC"))
	// One mismatch on each index satisfies both per-index bounds.
	assert.Equal(t, "S1", c.assign("AAAAAAAT", "CCCCCCCT"))
}

// TestClassifyOrderIndependence verifies that sample-sheet row order
// does not affect assignments.
func TestClassifyOrderIndependence(t *testing.T) {
	entries := []Entry{
		{Index1: "AAAAAAAA", Index2: "CCCCCCCC", SampleID: "S1"},
		{Index1: "AAAAAAAT", Index2: "CCCCCCCC", SampleID: "S2"},
		{Index1: "GGGGGGGG", Index2: "TTTTTTTT", SampleID: "S3"},
	}
	reversed := []Entry{entries[2], entries[1], entries[0]}
	forward := testClassifier(t, entries, DefaultOpts)
	backward := testClassifier(t, reversed, DefaultOpts)
	observed := [][2]string{
		{"AAAAAAAA", "CCCCCCCC"},
		{"AAAAAAAN", "CCCCCCCC"},
		{"GGGGGGGT", "TTTTTTTA"},
		{"CCCCCCCC", "AAAAAAAA"},
		{"NNNNNNNN", "NNNNNNNN"},
	}
	for _, pair := range observed {
		assert.Equal(t, forward.assign(pair[0], pair[1]), backward.assign(pair[0], pair[1]),
			"observed %s+%s", pair[0], pair[1])
	}
}

func TestClassifyCacheStability(t *testing.T) {
	c := testClassifier(t, testEntries, DefaultOpts)
	first := c.assign("AAAAAAAC", "CCCCCCCC")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.assign("AAAAAAAC", "CCCCCCCC"))
	}
	assert.Equal(t, 1, c.distinct())
	c.assign("GGGGGGGG", "TTTTTTTT")
	assert.Equal(t, 2, c.distinct())
}
