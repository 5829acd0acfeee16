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

import (
	"context"
	"log"
	"path/filepath"

	"github.com/exascience/irsat/command"
	"github.com/exascience/irsat/fastq"
	"github.com/exascience/irsat/internal"
	"github.com/exascience/irsat/template"
	"github.com/exascience/irsat/workdir"
)

// Intermediate files of the mapping steps, inside the alignment
// directories.
const (
	alignmentsBam = "alignments.bam"
	bothMappedBam = "both_mapped.bam"
	justReadBam   = "just_read_mapped.bam"
	justMateBam   = "just_mate_mapped.bam"
	mergedBam     = "merged.bam"
	filteredBam   = "filtered.bam"
)

// referenceJoiner separates the inputs of the index build.
const referenceJoiner = ","

// retained returns where an assembler output named in the
// configuration is kept at the top level of an iteration directory.
func retained(iterDir, name string) string {
	return filepath.Join(iterDir, filepath.Base(name))
}

func (e *Engine) buildIndex(ctx context.Context, c *Context) error {
	indexDir, err := workdir.MakeSubdirectory(c.Directory, workdir.IndexDir)
	if err != nil {
		return err
	}
	reference := e.cfg.Target
	if c.Previous != nil {
		reference += referenceJoiner + c.Previous.Contigs
	}
	args, err := e.cmds.Index.Substitute(c.with(
		template.Reference, reference,
		template.Directory, indexDir,
	))
	if err != nil {
		return err
	}
	_, err = e.runner.Run(ctx, command.Pipeline{
		Name:   "index build",
		Stages: []command.Command{command.New(args...)},
	})
	return err
}

// alignAndSort runs the aligner with its SAM output converted to BAM
// and sorted by read name, so that mates stay adjacent.
func (e *Engine) alignAndSort(ctx context.Context, name string, aligner []string, alignments string) error {
	samtools := e.cmds.Tools.Samtools
	_, err := e.runner.Run(ctx, command.Pipeline{
		Name: name,
		Stages: []command.Command{
			command.New(aligner...),
			command.New(samtools, "view", "-Shu", "-"),
			command.New(samtools, "sort", "-n", "-o", alignments, "-"),
		},
	})
	return err
}

// mapPairedReads keeps the pairs where at least one of the mates
// aligned.
func (e *Engine) mapPairedReads(ctx context.Context, c *Context) error {
	dir, err := workdir.MakeSubdirectory(c.Directory, workdir.PairedAlignmentDir)
	if err != nil {
		return err
	}
	aligner, err := e.cmds.MapPaired.Substitute(c.with(
		template.Mate1, e.cfg.Mate1,
		template.Mate2, e.cfg.Mate2,
		template.Directory, dir,
	))
	if err != nil {
		return err
	}
	alignments := filepath.Join(dir, alignmentsBam)
	if err := e.alignAndSort(ctx, "paired read mapping", aligner, alignments); err != nil {
		return err
	}

	samtools, bedtools := e.cmds.Tools.Samtools, e.cmds.Tools.Bedtools
	both := filepath.Join(dir, bothMappedBam)
	justRead := filepath.Join(dir, justReadBam)
	justMate := filepath.Join(dir, justMateBam)
	merged := filepath.Join(dir, mergedBam)
	_, err = e.runner.RunSequence(ctx, "paired read filtering", []command.Command{
		command.New(samtools, "view", "-u", "-F", "12", "-o", both, alignments),
		command.New(samtools, "view", "-u", "-f", "8", "-F", "4", "-o", justRead, alignments),
		command.New(samtools, "view", "-u", "-f", "4", "-F", "8", "-o", justMate, alignments),
		command.New(samtools, "merge", "-f", "-n", merged, both, justRead, justMate),
		command.New(bedtools, "bamtofastq", "-i", merged,
			"-fq", workdir.FilteredReads(c.Directory, workdir.Mate1),
			"-fq2", workdir.FilteredReads(c.Directory, workdir.Mate2)),
	})
	return err
}

// mapUnpairedReads keeps the reads that aligned.
func (e *Engine) mapUnpairedReads(ctx context.Context, c *Context) error {
	dir, err := workdir.MakeSubdirectory(c.Directory, workdir.UnpairedAlignmentDir)
	if err != nil {
		return err
	}
	aligner, err := e.cmds.MapUnpaired.Substitute(c.with(
		template.Unpaired, e.cfg.Unpaired,
		template.Directory, dir,
	))
	if err != nil {
		return err
	}
	alignments := filepath.Join(dir, alignmentsBam)
	if err := e.alignAndSort(ctx, "unpaired read mapping", aligner, alignments); err != nil {
		return err
	}

	filtered := filepath.Join(dir, filteredBam)
	_, err = e.runner.RunSequence(ctx, "unpaired read filtering", []command.Command{
		command.New(e.cmds.Tools.Samtools, "view", "-u", "-F", "4", "-o", filtered, alignments),
		command.New(e.cmds.Tools.Bedtools, "bamtofastq", "-i", filtered,
			"-fq", workdir.FilteredReads(c.Directory, workdir.Unpaired)),
	})
	return err
}

// addPreviousReads appends the reads retained by the previous iteration
// that the current one did not find again.
func (e *Engine) addPreviousReads(c *Context) error {
	previous := workdir.IterationDirectory(e.cfg.OutputDir, c.Iteration-1)
	for _, category := range e.cfg.Categories() {
		appended, err := fastq.MergeForward(
			workdir.FilteredReads(previous, category),
			workdir.FilteredReads(c.Directory, category),
		)
		if err != nil {
			return err
		}
		log.Printf("Added %v %v reads from iteration %v\n", appended, category, c.Iteration-1)
	}
	return nil
}

func (e *Engine) assemble(ctx context.Context, c *Context) (*Result, error) {
	dir, err := workdir.MakeSubdirectory(c.Directory, workdir.AssemblyDir)
	if err != nil {
		return nil, err
	}
	values := c.with(template.Directory, dir)
	if e.cfg.Paired() {
		values[template.Mate1] = workdir.FilteredReads(c.Directory, workdir.Mate1)
		values[template.Mate2] = workdir.FilteredReads(c.Directory, workdir.Mate2)
	}
	if e.cfg.HasUnpaired() {
		values[template.Unpaired] = workdir.FilteredReads(c.Directory, workdir.Unpaired)
	}
	lines, err := e.cmds.Assembly(e.cfg.Mode()).Substitute(values)
	if err != nil {
		return nil, err
	}
	commands := make([]command.Command, len(lines))
	for i, args := range lines {
		commands[i] = command.New(args...)
	}
	if _, err := e.runner.RunSequence(ctx, "assembly", commands); err != nil {
		return nil, err
	}

	// All outputs are checked before anything is copied, so a failed
	// iteration never leaves a retained contig file behind.
	contigs := filepath.Join(dir, e.cmds.Contigs)
	if err := isRegularFile("contigs", contigs); err != nil {
		return nil, err
	}
	var graph string
	if e.cmds.Graph != "" {
		graph = filepath.Join(dir, e.cmds.Graph)
		if err := isRegularFile("graph", graph); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Iteration: c.Iteration,
		Directory: c.Directory,
		Contigs:   retained(c.Directory, e.cmds.Contigs),
	}
	if graph != "" {
		result.Graph = retained(c.Directory, e.cmds.Graph)
		if err := internal.CopyFile(graph, result.Graph); err != nil {
			return nil, &workdir.FilesystemError{Op: "copy graph file", Path: graph, Err: err}
		}
	}
	// The contig file is copied last: its presence marks the iteration
	// as completed.
	if err := internal.CopyFile(contigs, result.Contigs); err != nil {
		return nil, &workdir.FilesystemError{Op: "copy contigs file", Path: contigs, Err: err}
	}
	result.ContigCount = countContigs(result.Contigs)
	log.Printf("Assembled %v contigs\n", result.ContigCount)
	return result, nil
}
