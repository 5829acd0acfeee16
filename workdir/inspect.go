// irsat: an iterative read subset assembly tool.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/exascience/irsat/blob/master/LICENSE.txt>.

package workdir

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/exascience/irsat/internal"
	"github.com/willf/bitset"
)

// State is a snapshot of the iteration directories found under an
// output root.
type State struct {
	root      string
	contigs   string
	completed *bitset.BitSet
}

// Inspect scans root for iteration directories. An iteration counts as
// completed when its directory holds the retained contig file named
// contigsName at the top level. A missing root yields an empty State.
//
// Inspect only reads the file system, so it can be repeated at will.
func Inspect(root, contigsName string) (*State, error) {
	state := &State{
		root:      root,
		contigs:   filepath.Base(contigsName),
		completed: bitset.New(64),
	}
	names, err := internal.Directory(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return nil, &FilesystemError{Op: "read output directory", Path: root, Err: err}
	}
	for _, name := range names {
		iteration, err := strconv.Atoi(name)
		if err != nil || iteration < 1 || IterationDirectory(root, iteration) != filepath.Join(root, name) {
			continue
		}
		info, err := os.Stat(state.Contigs(iteration))
		if err == nil && info.Mode().IsRegular() {
			state.completed.Set(uint(iteration))
		}
	}
	return state, nil
}

// Completed reports whether the given iteration left a contig file.
func (s *State) Completed(iteration int) bool {
	return iteration > 0 && s.completed.Test(uint(iteration))
}

// Iterations returns the completed iterations in increasing order.
func (s *State) Iterations() (iterations []int) {
	for i, ok := s.completed.NextSet(0); ok; i, ok = s.completed.NextSet(i + 1) {
		iterations = append(iterations, int(i))
	}
	return iterations
}

// LastCompleted returns the highest completed iteration, or 0.
func (s *State) LastCompleted() int {
	iterations := s.Iterations()
	if len(iterations) == 0 {
		return 0
	}
	return iterations[len(iterations)-1]
}

// Contigs returns the location of the retained contig file of an
// iteration, whether it exists or not.
func (s *State) Contigs(iteration int) string {
	return filepath.Join(IterationDirectory(s.root, iteration), s.contigs)
}
