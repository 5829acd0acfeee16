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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/exascience/pargo/pipeline"
)

// LinesPerRecord is the fixed number of lines of a FASTQ record.
const LinesPerRecord = 4

// Record is one FASTQ read.
type Record struct {
	// Name is the identity line without the leading '@' and without
	// trailing white space. It identifies the read.
	Name string

	// Block holds all lines of the record, each terminated by a
	// newline, exactly as they are written back.
	Block []byte
}

// ErrFormat is matched by errors for malformed FASTQ input.
var ErrFormat = errors.New("invalid fastq")

// ParseRecord parses a block of LinesPerRecord lines.
func ParseRecord(block []byte) (Record, error) {
	if lines := bytes.Count(block, []byte{'\n'}); lines != LinesPerRecord {
		return Record{}, fmt.Errorf("%w: truncated record with %v lines", ErrFormat, lines)
	}
	if block[0] != '@' {
		return Record{}, fmt.Errorf("%w: identity line does not start with '@'", ErrFormat)
	}
	end := bytes.IndexByte(block, '\n')
	name := bytes.TrimRight(block[1:end], " \t\r")
	if len(name) == 0 {
		return Record{}, fmt.Errorf("%w: empty read name", ErrFormat)
	}
	return Record{Name: string(name), Block: block}, nil
}

// Reader is a pargo pipeline.Source for FASTQ files. Each fetched batch
// is a [][]byte of raw record blocks; BytesToRecords turns them into
// Records.
type Reader struct {
	name string
	rc   io.ReadCloser
	buf  *bufio.Reader
	data interface{}
	err  error
}

// Open a FASTQ file for reading.
func Open(name string) (*Reader, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &Reader{
		name: name,
		rc:   file,
		buf:  bufio.NewReaderSize(file, 1<<16),
	}, nil
}

// Name returns the file name of the Reader.
func (r *Reader) Name() string {
	return r.name
}

// Close the FASTQ file.
func (r *Reader) Close() error {
	return r.rc.Close()
}

// Err implements the method of the pipeline.Source interface.
func (r *Reader) Err() error {
	return r.err
}

// Prepare implements the method of the pipeline.Source interface.
func (*Reader) Prepare(_ context.Context) (size int) {
	return -1
}

// readBlock reads the next record block. Blank lines between records
// are skipped. At the end of the file, a final line without newline is
// completed, and a partial block is returned as is for ParseRecord to
// reject.
func (r *Reader) readBlock() ([]byte, error) {
	var block []byte
	lines := 0
	for lines < LinesPerRecord {
		line, err := r.buf.ReadBytes('\n')
		if len(line) > 0 {
			if lines == 0 && len(bytes.TrimSpace(line)) == 0 {
				if err != nil {
					break
				}
				continue
			}
			if line[len(line)-1] != '\n' {
				line = append(line, '\n')
			}
			block = append(block, line...)
			lines++
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	if len(block) == 0 {
		return nil, io.EOF
	}
	return block, nil
}

// Fetch implements the method of the pipeline.Source interface.
func (r *Reader) Fetch(size int) (fetched int) {
	var blocks [][]byte
	for fetched = 0; fetched < size; fetched++ {
		block, err := r.readBlock()
		if err != nil {
			if err != io.EOF {
				r.err = fmt.Errorf("%w, while reading %v", err, r.name)
			}
			break
		}
		blocks = append(blocks, block)
	}
	r.data = blocks
	return fetched
}

// Data implements the method of the pipeline.Source interface.
func (r *Reader) Data() interface{} {
	return r.data
}

// BytesToRecords returns a pargo pipeline.Filter that parses the raw
// blocks fetched by a Reader into Records. Errors name filename and are
// reported through the pipeline.
func BytesToRecords(filename string) pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			blocks, _ := data.([][]byte)
			records := make([]Record, len(blocks))
			for i, block := range blocks {
				record, err := ParseRecord(block)
				if err != nil {
					p.SetErr(fmt.Errorf("%w, in file %v", err, filename))
					return nil
				}
				records[i] = record
			}
			return records
		}
		return
	}
}

// forEachRecord runs a pipeline over the records of r. The records are
// parsed in parallel, and handed to visit sequentially in file order.
func forEachRecord(r *Reader, visit func(Record) error) error {
	var p pipeline.Pipeline
	p.Source(r)
	p.SetVariableBatchSize(512, 4096)
	p.Add(
		pipeline.LimitedPar(0, BytesToRecords(r.Name())),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			records, _ := data.([]Record)
			for _, record := range records {
				if err := visit(record); err != nil {
					p.SetErr(err)
					return nil
				}
			}
			return nil
		})),
	)
	p.Run()
	if err := p.Err(); err != nil {
		return err
	}
	return r.Err()
}

// Names returns the set of read names in a FASTQ file. A file that does
// not exist holds no reads.
func Names(filename string) (names map[string]struct{}, err error) {
	names = make(map[string]struct{})
	r, err := Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return names, nil
		}
		return nil, err
	}
	defer func() {
		if nerr := r.Close(); err == nil {
			err = nerr
		}
	}()
	err = forEachRecord(r, func(record Record) error {
		names[record.Name] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Count returns the number of records in a FASTQ file. A file that does
// not exist holds no reads.
func Count(filename string) (count int, err error) {
	r, err := Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer func() {
		if nerr := r.Close(); err == nil {
			err = nerr
		}
	}()
	err = forEachRecord(r, func(Record) error {
		count++
		return nil
	})
	return count, err
}
