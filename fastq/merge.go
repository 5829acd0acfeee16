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

package fastq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// MergeForward appends to currentFile every record of previousFile
// whose read name does not occur in currentFile yet, in the order of
// previousFile. Records already in currentFile are never rewritten or
// reordered, and a name that occurs several times in previousFile is
// appended once.
//
// A previousFile that does not exist leaves currentFile alone. A
// currentFile that is missing or empty inherits all of previousFile.
// Calling MergeForward again with the same files appends nothing.
func MergeForward(previousFile, currentFile string) (appended int, err error) {
	prev, err := Open(previousFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer func() {
		if nerr := prev.Close(); err == nil {
			err = nerr
		}
	}()

	present, err := Names(currentFile)
	if err != nil {
		return 0, fmt.Errorf("%w, while collecting read names of %v", err, currentFile)
	}

	out, err := os.OpenFile(currentFile, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return 0, err
	}
	defer func() {
		if nerr := out.Close(); err == nil {
			err = nerr
		}
	}()
	if err = terminateLastLine(out); err != nil {
		return 0, fmt.Errorf("%v, while appending to %v", err, currentFile)
	}

	w := bufio.NewWriter(out)
	err = forEachRecord(prev, func(record Record) error {
		if _, ok := present[record.Name]; ok {
			return nil
		}
		present[record.Name] = struct{}{}
		if _, err := w.Write(record.Block); err != nil {
			return err
		}
		appended++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w, while merging %v into %v", err, previousFile, currentFile)
	}
	if err = w.Flush(); err != nil {
		return 0, err
	}
	return appended, nil
}

// terminateLastLine appends a newline to f if its last line lacks one,
// so that appended records start on a line of their own.
func terminateLastLine(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte{'\n'})
	return err
}
