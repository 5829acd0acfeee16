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

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/exascience/irsat/fasta"
	"github.com/exascience/irsat/workdir"
	"github.com/exascience/pargo/parallel"
)

// Mode is the combination of read types given for a run.
type Mode int

// The read modes.
const (
	PairedOnly Mode = iota
	UnpairedOnly
	Both
)

func (m Mode) String() string {
	switch m {
	case PairedOnly:
		return "paired reads"
	case UnpairedOnly:
		return "unpaired reads"
	case Both:
		return "paired and unpaired reads"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// AssemblyKey is the key of the assembly section that holds the
// commands for m.
func (m Mode) AssemblyKey() string {
	switch m {
	case PairedOnly:
		return "paired_reads"
	case UnpairedOnly:
		return "unpaired_reads"
	default:
		return "both"
	}
}

// Run is the configuration of one run. It does not change once the run
// has started.
type Run struct {
	ConfigFile string
	Target     string
	Mate1      string
	Mate2      string
	Unpaired   string
	Iterations int
	Resume     int
	OutputDir  string
	Keep       bool
}

// Paired reports whether mate files are given.
func (r Run) Paired() bool {
	return r.Mate1 != "" && r.Mate2 != ""
}

// HasUnpaired reports whether an unpaired read file is given.
func (r Run) HasUnpaired() bool {
	return r.Unpaired != ""
}

// Mode returns the read mode of the run.
func (r Run) Mode() Mode {
	switch {
	case r.Paired() && r.HasUnpaired():
		return Both
	case r.Paired():
		return PairedOnly
	default:
		return UnpairedOnly
	}
}

// Categories returns the filtered read categories of the run.
func (r Run) Categories() (categories []workdir.Category) {
	if r.Paired() {
		categories = append(categories, workdir.Mate1, workdir.Mate2)
	}
	if r.HasUnpaired() {
		categories = append(categories, workdir.Unpaired)
	}
	return categories
}

// FirstIteration is the first iteration the run executes.
func (r Run) FirstIteration() int {
	return r.Resume + 1
}

// LastIteration is the last iteration the run executes.
func (r Run) LastIteration() int {
	return r.Resume + r.Iterations
}

type inputFile struct {
	description, name string
}

func checkInputs(inputs []inputFile) []string {
	problems := make([]string, len(inputs))
	parallel.Range(0, len(inputs), 0, func(low, high int) {
		for i := low; i < high; i++ {
			input := inputs[i]
			info, err := os.Stat(input.name)
			switch {
			case errors.Is(err, os.ErrNotExist):
				problems[i] = fmt.Sprintf("the %v %v could not be found", input.description, input.name)
			case errors.Is(err, os.ErrPermission):
				problems[i] = fmt.Sprintf("no permission to read the %v %v", input.description, input.name)
			case err != nil:
				problems[i] = fmt.Sprintf("error %v when trying to access the %v %v", err, input.description, input.name)
			case info.IsDir():
				problems[i] = fmt.Sprintf("the %v %v is a directory", input.description, input.name)
			}
		}
	})
	return problems
}

// Validate checks the run configuration without looking at the command
// templates.
func (r Run) Validate() error {
	var e Error

	if r.Mate1 == "" && r.Mate2 == "" && r.Unpaired == "" {
		e.addf("files must be given for paired reads, unpaired reads or both")
	}
	if r.Mate1 == "" && r.Mate2 != "" {
		e.addf("if a second mate file is given, then a first mate file is also required")
	}
	if r.Mate1 != "" && r.Mate2 == "" {
		e.addf("if a first mate file is given, then a second mate file is also required")
	}
	if r.Target == "" {
		e.addf("a target file is required")
	}
	if r.OutputDir == "" {
		e.addf("an output directory is required")
	}
	if r.Iterations < 1 {
		e.addf("the number of iterations must be at least 1, not %v", r.Iterations)
	}
	if r.Resume < 0 {
		e.addf("the resume iteration cannot be negative, not %v", r.Resume)
	}

	var inputs []inputFile
	if r.Target != "" {
		inputs = append(inputs, inputFile{"target file", r.Target})
	}
	if r.Mate1 != "" {
		inputs = append(inputs, inputFile{"first mate file", r.Mate1})
	}
	if r.Mate2 != "" {
		inputs = append(inputs, inputFile{"second mate file", r.Mate2})
	}
	if r.Unpaired != "" {
		inputs = append(inputs, inputFile{"unpaired file", r.Unpaired})
	}
	targetFound := r.Target != ""
	for i, problem := range checkInputs(inputs) {
		if problem != "" {
			e.addf("%v", problem)
			if inputs[i].name == r.Target {
				targetFound = false
			}
		}
	}
	if targetFound {
		if _, err := fasta.SequenceNames(r.Target, false); err != nil {
			e.add(err, "the target file: %v", err)
		}
	}
	return e.orNil()
}

// Load validates cfg, then loads and validates the command
// configuration file it names. All problems are reported together.
func Load(cfg Run) (*Commands, error) {
	var e Error
	e.merge(cfg.Validate())
	if cfg.ConfigFile == "" {
		e.addf("a configuration file is required")
		return nil, &e
	}
	cmds, err := LoadCommands(cfg.ConfigFile)
	if err != nil {
		e.merge(err)
		return nil, &e
	}
	if cfg.Paired() || cfg.HasUnpaired() {
		e.merge(cmds.Validate(cfg.Mode()))
	}
	if err := e.orNil(); err != nil {
		return nil, err
	}
	cmds.Tools = LoadTools()
	return cmds, nil
}
