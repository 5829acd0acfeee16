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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/exascience/irsat/command"
	"github.com/exascience/irsat/config"
	"github.com/exascience/irsat/template"
	"github.com/exascience/irsat/workdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCommands = `
index: fake-build REFERENCE INDEX
mapping:
  paired_reads: fake-align INDEX PAIRED_READS_FILE_1 PAIRED_READS_FILE_2
  unpaired_reads: fake-align INDEX UNPAIRED_READS_FILE
assembly:
  paired_reads: fake-asm DIRECTORY PAIRED_READS_FILE_1 PAIRED_READS_FILE_2
  unpaired_reads: |
    fake-prepare DIRECTORY
    fake-asm DIRECTORY UNPAIRED_READS_FILE
  both: fake-asm DIRECTORY PAIRED_READS_FILE_1 PAIRED_READS_FILE_2 UNPAIRED_READS_FILE
  contigs: contigs.fa
`

const fakeContigs = ">contig1\nACGT\n>contig2\nGGCC\n"

// fakeRunner records every command instead of running it, and writes
// the files that the real tools would write: FASTQ output of
// bamtofastq, and contigs (plus optionally a graph) for fake-asm.
type fakeRunner struct {
	reads    map[int]map[workdir.Category][]string
	graph    bool
	fail     func(command.Command) bool
	commands []command.Command
	pipes    []command.Pipeline
}

func iterationOf(path string) int {
	i, err := strconv.Atoi(filepath.Base(filepath.Dir(path)))
	if err != nil {
		panic(err)
	}
	return i
}

func writeReads(path string, names []string) error {
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "@%v\nACGT\n+\nIIII\n", name)
	}
	return os.WriteFile(path, []byte(sb.String()), 0600)
}

func (f *fakeRunner) exec(name string, c command.Command) error {
	f.commands = append(f.commands, c)
	if f.fail != nil && f.fail(c) {
		return &command.StageError{Name: name, Stage: 1, Command: c, ExitCode: 1, Stderr: "fake failure"}
	}
	switch {
	case len(c.Args) > 1 && c.Args[1] == "bamtofastq":
		for i := 2; i+1 < len(c.Args); i++ {
			if c.Args[i] != "-fq" && c.Args[i] != "-fq2" {
				continue
			}
			path := c.Args[i+1]
			iteration := iterationOf(path)
			for _, category := range []workdir.Category{workdir.Mate1, workdir.Mate2, workdir.Unpaired} {
				if path == workdir.FilteredReads(filepath.Dir(path), category) {
					if err := writeReads(path, f.reads[iteration][category]); err != nil {
						return err
					}
				}
			}
		}
	case c.Args[0] == "fake-asm":
		if err := os.WriteFile(filepath.Join(c.Args[1], "contigs.fa"), []byte(fakeContigs), 0600); err != nil {
			return err
		}
		if f.graph {
			return os.WriteFile(filepath.Join(c.Args[1], "graph.gfa"), []byte("H\tVN:Z:1.0\n"), 0600)
		}
	}
	return nil
}

func (f *fakeRunner) Run(_ context.Context, p command.Pipeline) (*command.Result, error) {
	f.pipes = append(f.pipes, p)
	for _, c := range p.Stages {
		if err := f.exec(p.Name, c); err != nil {
			return &command.Result{Name: p.Name}, err
		}
	}
	return &command.Result{Name: p.Name}, nil
}

func (f *fakeRunner) RunSequence(_ context.Context, name string, commands []command.Command) (*command.Result, error) {
	for _, c := range commands {
		if err := f.exec(name, c); err != nil {
			return &command.Result{Name: name}, err
		}
	}
	return &command.Result{Name: name}, nil
}

// invocations returns the recorded commands of a program.
func (f *fakeRunner) invocations(program string) (result []command.Command) {
	for _, c := range f.commands {
		if c.Args[0] == program {
			result = append(result, c)
		}
	}
	return result
}

func readNames(t *testing.T, path string) (names []string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	for i := 0; i < len(lines); i += 4 {
		names = append(names, strings.TrimPrefix(lines[i], "@"))
	}
	return names
}

func setup(t *testing.T, iterations int) (config.Run, *config.Commands) {
	t.Helper()
	dir := t.TempDir()
	cmds, err := config.ParseCommands([]byte(testCommands))
	require.NoError(t, err)
	return config.Run{
		Target:     filepath.Join(dir, "targets.fa"),
		Unpaired:   filepath.Join(dir, "reads.fastq"),
		Iterations: iterations,
		OutputDir:  filepath.Join(dir, "out"),
	}, cmds
}

func TestUnpairedRun(t *testing.T) {
	cfg, cmds := setup(t, 3)
	runner := &fakeRunner{reads: map[int]map[workdir.Category][]string{
		1: {workdir.Unpaired: {"r1", "r2"}},
		2: {workdir.Unpaired: {"r3"}},
		3: {workdir.Unpaired: {"r2", "r4"}},
	}}
	var transitions []string
	e := New(cfg, cmds, runner)
	e.Observer = func(iteration int, state State) {
		transitions = append(transitions, fmt.Sprint(iteration, " ", state))
	}
	results, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, Done, e.State())
	assert.Equal(t, 3, e.Iteration())

	// reads found once are never lost, and earlier reads follow the
	// reads of the current iteration in their previous order
	expected := map[int][]string{
		1: {"r1", "r2"},
		2: {"r3", "r1", "r2"},
		3: {"r2", "r4", "r3", "r1"},
	}
	for i, names := range expected {
		dir := workdir.IterationDirectory(cfg.OutputDir, i)
		assert.Equal(t, names, readNames(t, workdir.FilteredReads(dir, workdir.Unpaired)), "iteration %v", i)
		assert.NoFileExists(t, workdir.FilteredReads(dir, workdir.Mate1))
		assert.NoFileExists(t, workdir.FilteredReads(dir, workdir.Mate2))
		for _, s := range workdir.Scratch {
			assert.NoDirExists(t, s.Path(dir))
		}
		result := results[i-1]
		assert.Equal(t, i, result.Iteration)
		assert.Equal(t, filepath.Join(dir, "contigs.fa"), result.Contigs)
		assert.FileExists(t, result.Contigs)
		assert.Empty(t, result.Graph)
		assert.Equal(t, 2, result.ContigCount)
	}

	builds := runner.invocations("fake-build")
	require.Len(t, builds, 3)
	assert.Equal(t, []string{"fake-build", cfg.Target, workdir.IndexPrefix(workdir.IterationDirectory(cfg.OutputDir, 1))}, builds[0].Args)
	assert.Equal(t, cfg.Target+","+results[0].Contigs, builds[1].Args[1])
	assert.Equal(t, cfg.Target+","+results[1].Contigs, builds[2].Args[1])

	assert.Len(t, runner.invocations("fake-prepare"), 3)
	assert.Equal(t, []string{
		"1 PREPARING", "1 INDEXING", "1 MAPPING", "1 ASSEMBLING", "1 CLEANING",
		"2 PREPARING", "2 INDEXING", "2 MAPPING", "2 MERGING", "2 ASSEMBLING", "2 CLEANING",
		"3 PREPARING", "3 INDEXING", "3 MAPPING", "3 MERGING", "3 ASSEMBLING", "3 CLEANING",
		"3 DONE",
	}, transitions)
}

func TestUnpairedRunKeep(t *testing.T) {
	cfg, cmds := setup(t, 1)
	cfg.Keep = true
	runner := &fakeRunner{reads: map[int]map[workdir.Category][]string{1: {workdir.Unpaired: {"r1"}}}}
	_, err := New(cfg, cmds, runner).Run(context.Background())
	require.NoError(t, err)

	dir := workdir.IterationDirectory(cfg.OutputDir, 1)
	assert.DirExists(t, workdir.IndexDir.Path(dir))
	assert.DirExists(t, workdir.UnpairedAlignmentDir.Path(dir))
	assert.DirExists(t, workdir.AssemblyDir.Path(dir))
	assert.NoDirExists(t, workdir.PairedAlignmentDir.Path(dir))

	require.Len(t, runner.pipes, 2)
	alignments := filepath.Join(workdir.UnpairedAlignmentDir.Path(dir), "alignments.bam")
	assert.Equal(t, []command.Command{
		command.New("fake-align", workdir.IndexPrefix(dir), cfg.Unpaired),
		command.New("samtools", "view", "-Shu", "-"),
		command.New("samtools", "sort", "-n", "-o", alignments, "-"),
	}, runner.pipes[1].Stages)
	assert.Empty(t, runner.pipes[1].Output)
}

func TestPairedAndUnpairedRun(t *testing.T) {
	cfg, cmds := setup(t, 2)
	cfg.Mate1 = cfg.Unpaired + ".1"
	cfg.Mate2 = cfg.Unpaired + ".2"
	cmds.Tools = config.Tools{Samtools: "/opt/bin/samtools", Bedtools: "/opt/bin/bedtools"}
	runner := &fakeRunner{reads: map[int]map[workdir.Category][]string{
		1: {workdir.Mate1: {"a", "b"}, workdir.Mate2: {"a", "b"}, workdir.Unpaired: {"u1"}},
		2: {workdir.Mate1: {"c"}, workdir.Mate2: {"c"}, workdir.Unpaired: {"u2"}},
	}}
	results, err := New(cfg, cmds, runner).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	dir := workdir.IterationDirectory(cfg.OutputDir, 2)
	r1 := workdir.FilteredReads(dir, workdir.Mate1)
	r2 := workdir.FilteredReads(dir, workdir.Mate2)
	u := workdir.FilteredReads(dir, workdir.Unpaired)
	assert.Equal(t, []string{"c", "a", "b"}, readNames(t, r1))
	assert.Equal(t, []string{"c", "a", "b"}, readNames(t, r2))
	assert.Equal(t, []string{"u2", "u1"}, readNames(t, u))

	assemblies := runner.invocations("fake-asm")
	require.Len(t, assemblies, 2)
	assert.Equal(t, []string{"fake-asm", workdir.AssemblyDir.Path(dir), r1, r2, u}, assemblies[1].Args)

	aligners := runner.invocations("fake-align")
	require.Len(t, aligners, 4)
	assert.Equal(t, []string{"fake-align", workdir.IndexPrefix(dir), cfg.Mate1, cfg.Mate2}, aligners[2].Args)
	assert.Equal(t, []string{"fake-align", workdir.IndexPrefix(dir), cfg.Unpaired}, aligners[3].Args)

	var filters []command.Command
	for _, c := range runner.invocations("/opt/bin/samtools") {
		if c.Args[1] != "sort" && c.Args[2] != "-Shu" {
			filters = append(filters, c)
		}
	}
	// three paired filters and a merge, one unpaired filter, per iteration
	assert.Len(t, filters, 10)
	conversions := runner.invocations("/opt/bin/bedtools")
	require.Len(t, conversions, 4)
	paired := filepath.Join(workdir.PairedAlignmentDir.Path(dir), "merged.bam")
	assert.Equal(t, []string{"/opt/bin/bedtools", "bamtofastq", "-i", paired, "-fq", r1, "-fq2", r2}, conversions[2].Args)
}

func TestResume(t *testing.T) {
	cfg, cmds := setup(t, 1)
	cfg.Resume = 2
	for i, name := range []string{"old0", "old1"} {
		dir := workdir.IterationDirectory(cfg.OutputDir, i+1)
		require.NoError(t, os.MkdirAll(dir, 0700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "contigs.fa"), []byte(">old\nAC\n"), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0600))
		require.NoError(t, writeReads(workdir.FilteredReads(dir, workdir.Unpaired), []string{name}))
	}
	runner := &fakeRunner{reads: map[int]map[workdir.Category][]string{3: {workdir.Unpaired: {"n1"}}}}
	results, err := New(cfg, cmds, runner).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Iteration)

	builds := runner.invocations("fake-build")
	require.Len(t, builds, 1)
	previous := filepath.Join(workdir.IterationDirectory(cfg.OutputDir, 2), "contigs.fa")
	assert.Equal(t, cfg.Target+","+previous, builds[0].Args[1])

	dir := workdir.IterationDirectory(cfg.OutputDir, 3)
	assert.Equal(t, []string{"n1", "old1"}, readNames(t, workdir.FilteredReads(dir, workdir.Unpaired)))
	for i, name := range []string{"old0", "old1"} {
		dir := workdir.IterationDirectory(cfg.OutputDir, i+1)
		assert.FileExists(t, filepath.Join(dir, "marker"))
		assert.Equal(t, []string{name}, readNames(t, workdir.FilteredReads(dir, workdir.Unpaired)))
	}
}

func TestResumeWithoutPreviousContigs(t *testing.T) {
	cfg, cmds := setup(t, 1)
	cfg.Resume = 2
	require.NoError(t, os.MkdirAll(workdir.IterationDirectory(cfg.OutputDir, 2), 0700))
	runner := &fakeRunner{}
	e := New(cfg, cmds, runner)
	results, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfiguration))
	assert.Empty(t, results)
	assert.Empty(t, runner.commands)
	assert.Equal(t, Failed, e.State())
	assert.NoDirExists(t, workdir.IterationDirectory(cfg.OutputDir, 3))
}

func TestMissingContigs(t *testing.T) {
	cfg, cmds := setup(t, 2)
	cmds.Contigs = "velvet/contigs.fa"
	runner := &fakeRunner{}
	e := New(cfg, cmds, runner)
	results, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExpectedOutput))
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 1, stepErr.Iteration)
	assert.Equal(t, Assembling, stepErr.State)
	var missing *MissingOutputError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "contigs", missing.Kind)

	assert.Empty(t, results)
	assert.Equal(t, Failed, e.State())
	dir := workdir.IterationDirectory(cfg.OutputDir, 1)
	assert.NoFileExists(t, filepath.Join(dir, "contigs.fa"))
	assert.NoDirExists(t, workdir.IterationDirectory(cfg.OutputDir, 2))
}

func TestGraph(t *testing.T) {
	cfg, cmds := setup(t, 1)
	cmds.Graph = "graph.gfa"

	_, err := New(cfg, cmds, &fakeRunner{}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExpectedOutput))
	dir := workdir.IterationDirectory(cfg.OutputDir, 1)
	assert.NoFileExists(t, filepath.Join(dir, "contigs.fa"))

	results, err := New(cfg, cmds, &fakeRunner{graph: true}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "graph.gfa"), results[0].Graph)
	assert.FileExists(t, results[0].Graph)
	assert.FileExists(t, results[0].Contigs)
}

func TestStageFailureAbortsRun(t *testing.T) {
	cfg, cmds := setup(t, 3)
	second := workdir.IterationDirectory(cfg.OutputDir, 2)
	runner := &fakeRunner{fail: func(c command.Command) bool {
		return c.Args[0] == "fake-align" && strings.HasPrefix(c.Args[1], second)
	}}
	e := New(cfg, cmds, runner)
	results, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, command.ErrExternalTool))
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 2, stepErr.Iteration)
	assert.Equal(t, Mapping, stepErr.State)
	assert.Contains(t, err.Error(), "fake failure")

	assert.Len(t, results, 1)
	assert.Equal(t, Failed, e.State())
	assert.Equal(t, 2, e.Iteration())
	assert.Len(t, runner.invocations("fake-asm"), 1)
	assert.NoDirExists(t, workdir.IterationDirectory(cfg.OutputDir, 3))
}

func TestCancelledRun(t *testing.T) {
	cfg, cmds := setup(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &fakeRunner{}
	_, err := New(cfg, cmds, runner).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, runner.commands)
	assert.NoDirExists(t, workdir.IterationDirectory(cfg.OutputDir, 1))
}

func TestContextWith(t *testing.T) {
	c := &Context{Values: map[string]string{template.Index: "idx"}}
	values := c.with(template.Directory, "dir")
	assert.Equal(t, map[string]string{template.Index: "idx", template.Directory: "dir"}, values)
	assert.Len(t, c.Values, 1)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "MERGING", Merging.String())
	assert.Equal(t, "State(42)", State(42).String())
}
