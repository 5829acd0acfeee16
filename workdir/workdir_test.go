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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, entry := range list {
		names[i] = entry.Name()
	}
	return names
}

func TestIterationDirectory(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "001"), IterationDirectory("out", 1))
	assert.Equal(t, filepath.Join("out", "042"), IterationDirectory("out", 42))
	assert.Equal(t, filepath.Join("out", "1000"), IterationDirectory("out", 1000))
}

func TestEnsureOutputRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureOutputRoot(root))
	writeFile(t, filepath.Join(root, "keep"), "x")
	require.NoError(t, EnsureOutputRoot(root))
	assert.FileExists(t, filepath.Join(root, "keep"))
}

func TestPrepareIterationDirectory(t *testing.T) {
	root := t.TempDir()
	dir, err := PrepareIterationDirectory(root, 3)
	require.NoError(t, err)
	assert.Equal(t, IterationDirectory(root, 3), dir)
	assert.Empty(t, entries(t, dir))

	writeFile(t, filepath.Join(dir, "contigs.fa"), ">c\nACGT\n")
	writeFile(t, filepath.Join(AssemblyDir.Path(dir), "deep", "file"), "x")

	again, err := PrepareIterationDirectory(root, 3)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
	assert.Empty(t, entries(t, again), "previous contents are discarded")

	other, err := PrepareIterationDirectory(root, 4)
	require.NoError(t, err)
	assert.NotEqual(t, dir, other)
	assert.Equal(t, []string{"003", "004"}, entries(t, root))
}

func TestPrepareIterationDirectoryFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	writeFile(t, root, "not a directory")
	_, err := PrepareIterationDirectory(root, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFilesystem))
}

func TestCleanupIntermediateSubdirectories(t *testing.T) {
	dir := t.TempDir()
	for _, s := range []Subdirectory{IndexDir, UnpairedAlignmentDir, AssemblyDir} {
		_, err := MakeSubdirectory(dir, s)
		require.NoError(t, err)
		writeFile(t, filepath.Join(s.Path(dir), "scratch"), "x")
	}
	writeFile(t, FilteredReads(dir, Unpaired), "@r\nA\n+\nI\n")
	writeFile(t, filepath.Join(dir, "contigs.fa"), ">c\nA\n")

	// PairedAlignmentDir was never created, which is not an error
	require.NoError(t, CleanupIntermediateSubdirectories(dir, Scratch...))
	assert.ElementsMatch(t, []string{"filtered_reads_U.fastq", "contigs.fa"}, entries(t, dir))

	require.NoError(t, CleanupIntermediateSubdirectories(dir, Scratch...))
}

func TestCleanupSubset(t *testing.T) {
	dir := t.TempDir()
	for _, s := range Scratch {
		_, err := MakeSubdirectory(dir, s)
		require.NoError(t, err)
	}
	require.NoError(t, CleanupIntermediateSubdirectories(dir, IndexDir, AssemblyDir))
	assert.ElementsMatch(t, []string{string(PairedAlignmentDir), string(UnpairedAlignmentDir)}, entries(t, dir))
}

func TestLayout(t *testing.T) {
	dir := filepath.Join("out", "002")
	assert.Equal(t, filepath.Join(dir, "filtered_reads_R1.fastq"), FilteredReads(dir, Mate1))
	assert.Equal(t, filepath.Join(dir, "filtered_reads_R2.fastq"), FilteredReads(dir, Mate2))
	assert.Equal(t, filepath.Join(dir, "filtered_reads_U.fastq"), FilteredReads(dir, Unpaired))
	assert.Equal(t, filepath.Join(dir, "1_mapping_index", "bowtie2index"), IndexPrefix(dir))
	assert.Equal(t, "unpaired", Unpaired.String())
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(IterationDirectory(root, 1), "contigs.fa"), ">c\n")
	writeFile(t, filepath.Join(IterationDirectory(root, 2), "contigs.fa"), ">c\n")
	// iteration 3 was interrupted before its contigs were copied
	writeFile(t, filepath.Join(AssemblyDir.Path(IterationDirectory(root, 3)), "contigs.fa"), ">c\n")
	writeFile(t, filepath.Join(root, "7", "contigs.fa"), ">c\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")

	state, err := Inspect(root, "assembly/contigs.fa")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, state.Iterations())
	assert.True(t, state.Completed(2))
	assert.False(t, state.Completed(3))
	assert.False(t, state.Completed(7))
	assert.False(t, state.Completed(0))
	assert.Equal(t, 2, state.LastCompleted())
	assert.Equal(t, filepath.Join(IterationDirectory(root, 2), "contigs.fa"), state.Contigs(2))

	again, err := Inspect(root, "contigs.fa")
	require.NoError(t, err)
	assert.Equal(t, state.Iterations(), again.Iterations())
}

func TestInspectMissingRoot(t *testing.T) {
	state, err := Inspect(filepath.Join(t.TempDir(), "missing"), "contigs.fa")
	require.NoError(t, err)
	assert.Empty(t, state.Iterations())
	assert.Equal(t, 0, state.LastCompleted())
}
