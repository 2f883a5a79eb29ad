package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/demux"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
}

func TestDiscoverInputsHeaderMode(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	touch(t, tempDir, "run_R1.fq.gz", "run_R2.fq.gz", "other_R1.fq.gz", "run_R1.txt")

	inputs, err := discoverInputs(filepath.Join(tempDir, "run"))
	require.NoError(t, err)
	assert.Equal(t, demux.ModeHeader, inputs.Mode)
	assert.Equal(t, filepath.Join(tempDir, "run_R1.fq.gz"), inputs.R1)
	assert.Equal(t, filepath.Join(tempDir, "run_R2.fq.gz"), inputs.R2)
}

func TestDiscoverInputsSidecarMode(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	touch(t, tempDir, "run_R1.fq.gz", "run_R2.fq.gz", "run_I1.fq.gz", "run_I2.fq.gz")

	inputs, err := discoverInputs(filepath.Join(tempDir, "run"))
	require.NoError(t, err)
	assert.Equal(t, demux.ModeSidecar, inputs.Mode)
	assert.Equal(t, filepath.Join(tempDir, "run_I1.fq.gz"), inputs.I1)
	assert.Equal(t, filepath.Join(tempDir, "run_I2.fq.gz"), inputs.I2)
}

func TestDiscoverInputsErrors(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	// No matches at all.
	_, err := discoverInputs(filepath.Join(tempDir, "run"))
	assert.Error(t, err)

	// R2 missing.
	touch(t, tempDir, "a_R1.fq.gz")
	_, err = discoverInputs(filepath.Join(tempDir, "a"))
	assert.Error(t, err)

	// Three files.
	touch(t, tempDir, "b_R1.fq.gz", "b_R2.fq.gz", "b_I1.fq.gz")
	_, err = discoverInputs(filepath.Join(tempDir, "b"))
	assert.Error(t, err)

	// A .gz match without a recognized read tag.
	touch(t, tempDir, "c_R1.fq.gz", "c_R2.fq.gz", "c_notes.gz")
	_, err = discoverInputs(filepath.Join(tempDir, "c"))
	assert.Error(t, err)

	// Two files claiming the same slot.
	touch(t, tempDir, "d_R1.fq.gz", "d_R1_copy.fq.gz")
	_, err = discoverInputs(filepath.Join(tempDir, "d"))
	assert.Error(t, err)
}
