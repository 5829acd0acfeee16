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

package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// ErrFormat is matched by errors for malformed FASTA input.
var ErrFormat = errors.New("invalid fasta")

func contigFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	if i >= len(b) {
		return ""
	}
	return string(b[i:j])
}

// SequenceNames sequentially scans a FASTA file and returns the names
// of its sequences, in file order.
//
// If allowEmpty is false, a file without any sequence is an error. The
// first non-blank line must be a header in all cases.
func SequenceNames(filename string, allowEmpty bool) (names []string, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	seenHeader := false
	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			seenHeader = true
			names = append(names, contigFromHeader(b))
			continue
		}
		if !seenHeader {
			return nil, fmt.Errorf("%w: file %v - missing first header", ErrFormat, filename)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 && !allowEmpty {
		return nil, fmt.Errorf("%w: empty fasta file %v", ErrFormat, filename)
	}
	return names, nil
}

// CountSequences returns the number of sequences in a FASTA file. An
// empty file holds zero sequences.
func CountSequences(filename string) (int, error) {
	names, err := SequenceNames(filename, true)
	return len(names), err
}
