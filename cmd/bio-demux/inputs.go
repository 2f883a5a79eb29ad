package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/demux"
)

// discoverInputs expands the input prefix into the run's file set: the
// trailing path component is matched against *.gz files in its parent
// directory, and the matches are classified by the conventional
// _R1/_R2/_I1/_I2 name tags. Exactly {R1,R2} selects in-header mode;
// exactly {R1,R2,I1,I2} selects sidecar mode; anything else is an
// error.
func discoverInputs(prefix string) (demux.Inputs, error) {
	dir, base := filepath.Split(prefix)
	if dir == "" {
		dir = "."
	}
	matches, err := filepath.Glob(filepath.Join(dir, base+"*.gz"))
	if err != nil {
		return demux.Inputs{}, errors.E(err, "bad input prefix", prefix)
	}
	var inputs demux.Inputs
	n := 0
	for _, m := range matches {
		name := filepath.Base(m)
		var slot *string
		switch {
		case strings.Contains(name, "_R1"):
			slot = &inputs.R1
		case strings.Contains(name, "_R2"):
			slot = &inputs.R2
		case strings.Contains(name, "_I1"):
			slot = &inputs.I1
		case strings.Contains(name, "_I2"):
			slot = &inputs.I2
		default:
			return demux.Inputs{}, errors.E("input", m, "matches the prefix but carries none of _R1/_R2/_I1/_I2")
		}
		if *slot != "" {
			return demux.Inputs{}, errors.E("inputs", *slot, "and", m, "claim the same read slot")
		}
		*slot = m
		n++
	}
	if inputs.R1 == "" || inputs.R2 == "" {
		return demux.Inputs{}, errors.E(fmt.Sprintf("prefix %s must match both an _R1 and an _R2 file, got %d file(s)", prefix, n))
	}
	switch {
	case n == 2:
		inputs.Mode = demux.ModeHeader
	case n == 4:
		inputs.Mode = demux.ModeSidecar
	default:
		return demux.Inputs{}, errors.E(fmt.Sprintf("prefix %s matches %d files; expected 2 (R1/R2) or 4 (R1/R2/I1/I2)", prefix, n))
	}
	return inputs, nil
}
