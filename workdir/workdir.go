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
	"fmt"
	"os"
	"path/filepath"
)

// Subdirectory names a scratch directory inside an iteration directory.
type Subdirectory string

// The scratch subdirectories of an iteration.
const (
	IndexDir             Subdirectory = "1_mapping_index"
	PairedAlignmentDir   Subdirectory = "2-paired_read_alignments"
	UnpairedAlignmentDir Subdirectory = "2-unpaired_read_alignments"
	AssemblyDir          Subdirectory = "3-assembly"
)

// Scratch lists every scratch subdirectory.
var Scratch = []Subdirectory{IndexDir, PairedAlignmentDir, UnpairedAlignmentDir, AssemblyDir}

// Path returns the location of s inside iterDir.
func (s Subdirectory) Path(iterDir string) string {
	return filepath.Join(iterDir, string(s))
}

// Category is a kind of filtered read collection.
type Category int

// The read categories.
const (
	Mate1 Category = iota
	Mate2
	Unpaired
)

func (c Category) String() string {
	switch c {
	case Mate1:
		return "mate-1"
	case Mate2:
		return "mate-2"
	case Unpaired:
		return "unpaired"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

var filteredReadsNames = [...]string{
	Mate1:    "filtered_reads_R1.fastq",
	Mate2:    "filtered_reads_R2.fastq",
	Unpaired: "filtered_reads_U.fastq",
}

// FilteredReads returns the retained read file of category c at the top
// level of iterDir.
func FilteredReads(iterDir string, c Category) string {
	return filepath.Join(iterDir, filteredReadsNames[c])
}

// IndexPrefix returns the aligner index prefix of an iteration.
func IndexPrefix(iterDir string) string {
	return filepath.Join(IndexDir.Path(iterDir), "bowtie2index")
}

// IterationDirectory returns the directory of an iteration. Names are
// zero-padded so that they sort in iteration order.
func IterationDirectory(root string, iteration int) string {
	return filepath.Join(root, fmt.Sprintf("%03d", iteration))
}

// EnsureOutputRoot creates the output root if it does not exist yet.
func EnsureOutputRoot(path string) error {
	if err := os.MkdirAll(path, 0700); err != nil {
		return &FilesystemError{Op: "create output directory", Path: path, Err: err}
	}
	return nil
}

// PrepareIterationDirectory returns the directory of an iteration, and
// guarantees that it exists and is empty. Existing contents are removed.
func PrepareIterationDirectory(root string, iteration int) (string, error) {
	dir := IterationDirectory(root, iteration)
	if err := os.RemoveAll(dir); err != nil {
		return "", &FilesystemError{Op: "remove iteration directory", Path: dir, Err: err}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", &FilesystemError{Op: "create iteration directory", Path: dir, Err: err}
	}
	return dir, nil
}

// MakeSubdirectory creates a scratch subdirectory of iterDir.
func MakeSubdirectory(iterDir string, s Subdirectory) (string, error) {
	path := s.Path(iterDir)
	if err := os.MkdirAll(path, 0700); err != nil {
		return "", &FilesystemError{Op: "create directory", Path: path, Err: err}
	}
	return path, nil
}

// CleanupIntermediateSubdirectories removes the given scratch
// subdirectories of iterDir. Subdirectories that do not exist are
// skipped. Files at the top level of iterDir are never touched.
func CleanupIntermediateSubdirectories(iterDir string, which ...Subdirectory) error {
	for _, s := range which {
		path := s.Path(iterDir)
		if _, err := os.Lstat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return &FilesystemError{Op: "inspect directory", Path: path, Err: err}
		}
		if err := os.RemoveAll(path); err != nil {
			return &FilesystemError{Op: "remove directory", Path: path, Err: err}
		}
	}
	return nil
}

// ErrFilesystem is matched by every *FilesystemError.
var ErrFilesystem = errors.New("filesystem error")

// FilesystemError reports a failed directory or file operation.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (err *FilesystemError) Error() string {
	return fmt.Sprintf("%v %v: %v", err.Op, err.Path, err.Err)
}

// Unwrap returns ErrFilesystem and the underlying error.
func (err *FilesystemError) Unwrap() []error {
	return []error{ErrFilesystem, err.Err}
}
