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
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/exascience/irsat/template"
	"github.com/exascience/irsat/workdir"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultIndexCommand builds the aligner index when the configuration
// file does not name an index command.
const DefaultIndexCommand = "bowtie2-build REFERENCE INDEX"

// Placeholders available to each kind of stage.
var (
	IndexPlaceholders           = []string{template.Reference, template.Index, template.Directory}
	PairedMappingPlaceholders   = []string{template.Index, template.Mate1, template.Mate2, template.Directory}
	UnpairedMappingPlaceholders = []string{template.Index, template.Unpaired, template.Directory}
)

// AssemblyPlaceholders returns the placeholders available to the
// assembly commands of a read mode.
func AssemblyPlaceholders(mode Mode) []string {
	switch mode {
	case PairedOnly:
		return []string{template.Directory, template.Mate1, template.Mate2}
	case UnpairedOnly:
		return []string{template.Directory, template.Unpaired}
	default:
		return []string{template.Directory, template.Mate1, template.Mate2, template.Unpaired}
	}
}

// commandsFile is the YAML layout of a command configuration file.
type commandsFile struct {
	Index   string `yaml:"index,omitempty"`
	Mapping struct {
		PairedReads   string `yaml:"paired_reads,omitempty"`
		UnpairedReads string `yaml:"unpaired_reads,omitempty"`
	} `yaml:"mapping"`
	Assembly struct {
		PairedReads   string `yaml:"paired_reads,omitempty"`
		UnpairedReads string `yaml:"unpaired_reads,omitempty"`
		Both          string `yaml:"both,omitempty"`
		Contigs       string `yaml:"contigs"`
		Graph         string `yaml:"graph,omitempty"`
	} `yaml:"assembly"`
}

// Tools locates the programs that irsat invokes itself.
type Tools struct {
	Samtools string
	Bedtools string
}

// DefaultTools are the program names looked up in PATH.
var DefaultTools = Tools{Samtools: "samtools", Bedtools: "bedtools"}

// LoadTools reads IRSAT_SAMTOOLS and IRSAT_BEDTOOLS from the
// environment, after loading an optional .env file from the working
// directory.
func LoadTools() Tools {
	_ = godotenv.Load()
	tools := DefaultTools
	if s := strings.TrimSpace(os.Getenv("IRSAT_SAMTOOLS")); s != "" {
		tools.Samtools = s
	}
	if s := strings.TrimSpace(os.Getenv("IRSAT_BEDTOOLS")); s != "" {
		tools.Bedtools = s
	}
	return tools
}

// Commands holds the parsed command templates of all stages.
type Commands struct {
	Index            template.Template
	MapPaired        template.Template
	MapUnpaired      template.Template
	AssemblePaired   template.Sequence
	AssembleUnpaired template.Sequence
	AssembleBoth     template.Sequence

	// Contigs and Graph are paths relative to the assembly directory.
	// Graph is optional.
	Contigs string
	Graph   string

	Tools Tools
}

// ParseCommands decodes a YAML command configuration.
func ParseCommands(data []byte) (*Commands, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newError("the configuration file is empty")
	}
	var file commandsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &Error{Problems: []string{fmt.Sprintf("cannot decode configuration: %v", err)}, causes: []error{err}}
	}
	index := file.Index
	if strings.TrimSpace(index) == "" {
		index = DefaultIndexCommand
	}
	return &Commands{
		Index:            template.Parse(index),
		MapPaired:        template.Parse(file.Mapping.PairedReads),
		MapUnpaired:      template.Parse(file.Mapping.UnpairedReads),
		AssemblePaired:   template.ParseSequence(file.Assembly.PairedReads),
		AssembleUnpaired: template.ParseSequence(file.Assembly.UnpairedReads),
		AssembleBoth:     template.ParseSequence(file.Assembly.Both),
		Contigs:          strings.TrimSpace(file.Assembly.Contigs),
		Graph:            strings.TrimSpace(file.Assembly.Graph),
		Tools:            DefaultTools,
	}, nil
}

// LoadCommands reads and decodes a YAML command configuration file.
func LoadCommands(filename string) (*Commands, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &Error{Problems: []string{fmt.Sprintf("the configuration file could not be read: %v", err)}, causes: []error{err}}
	}
	cmds, err := ParseCommands(data)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			for i, problem := range e.Problems {
				e.Problems[i] = filename + ": " + problem
			}
		}
		return nil, err
	}
	return cmds, nil
}

// Assembly returns the assembly commands for a read mode.
func (c *Commands) Assembly(mode Mode) template.Sequence {
	switch mode {
	case PairedOnly:
		return c.AssemblePaired
	case UnpairedOnly:
		return c.AssembleUnpaired
	default:
		return c.AssembleBoth
	}
}

func checkOutputName(kind, name string) string {
	if filepath.IsAbs(name) {
		return fmt.Sprintf("the %v file %v must be relative to the assembly directory", kind, name)
	}
	if clean := filepath.Clean(name); clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Sprintf("the %v file %v lies outside the assembly directory", kind, name)
	}
	return ""
}

// checkRetainedNames reports contig and graph files that would be
// copied over each other, or over the filtered reads, at the top level
// of an iteration directory.
func (c *Commands) checkRetainedNames() (problems []string) {
	taken := make(map[string]string)
	for _, category := range []workdir.Category{workdir.Mate1, workdir.Mate2, workdir.Unpaired} {
		taken[filepath.Base(workdir.FilteredReads("", category))] = "the " + category.String() + " filtered reads"
	}
	for _, output := range []struct{ kind, name string }{{"contigs", c.Contigs}, {"graph", c.Graph}} {
		if output.name == "" {
			continue
		}
		base := filepath.Base(output.name)
		if owner, ok := taken[base]; ok {
			problems = append(problems, fmt.Sprintf("the %v file %v would be kept as %v, the same name as %v", output.kind, output.name, base, owner))
			continue
		}
		taken[base] = "the " + output.kind + " file " + output.name
	}
	return problems
}

// Validate checks that every command needed for mode is present and
// that all of their placeholders can be resolved.
func (c *Commands) Validate(mode Mode) error {
	var e Error
	check := func(stage string, err error) {
		if err != nil {
			e.add(err, "%v: %v", stage, err)
		}
	}

	if len(c.Index) == 0 {
		e.addf("the index command is empty")
	} else {
		check("index", template.Check(c.Index, IndexPlaceholders...))
	}

	if mode != UnpairedOnly {
		if len(c.MapPaired) == 0 {
			e.addf("paired reads are given, but the mapping section has no paired_reads command")
		} else {
			check("mapping paired_reads", template.Check(c.MapPaired, PairedMappingPlaceholders...))
		}
	}
	if mode != PairedOnly {
		if len(c.MapUnpaired) == 0 {
			e.addf("unpaired reads are given, but the mapping section has no unpaired_reads command")
		} else {
			check("mapping unpaired_reads", template.Check(c.MapUnpaired, UnpairedMappingPlaceholders...))
		}
	}

	if assembly := c.Assembly(mode); len(assembly) == 0 {
		e.addf("the assembly section has no %v command", mode.AssemblyKey())
	} else {
		check("assembly "+mode.AssemblyKey(), assembly.Check(AssemblyPlaceholders(mode)...))
	}

	if c.Contigs == "" {
		e.addf("the assembly section does not name a contigs file")
	} else if problem := checkOutputName("contigs", c.Contigs); problem != "" {
		e.addf("%v", problem)
	}
	if c.Graph != "" {
		if problem := checkOutputName("graph", c.Graph); problem != "" {
			e.addf("%v", problem)
		}
	}
	e.Problems = append(e.Problems, c.checkRetainedNames()...)
	return e.orNil()
}
