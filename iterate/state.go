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

package iterate

import "fmt"

// State is the step an Engine is executing.
type State int32

// The engine states, in the order an iteration passes through them.
// Merging is skipped in iteration 1, Cleaning when intermediate files
// are kept.
const (
	Preparing State = iota
	Indexing
	Mapping
	Merging
	Assembling
	Cleaning
	Done
	Failed
)

var stateNames = [...]string{
	Preparing:  "PREPARING",
	Indexing:   "INDEXING",
	Mapping:    "MAPPING",
	Merging:    "MERGING",
	Assembling: "ASSEMBLING",
	Cleaning:   "CLEANING",
	Done:       "DONE",
	Failed:     "FAILED",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Observer is called on every state transition of an Engine.
type Observer func(iteration int, state State)
