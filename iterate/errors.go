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
	"errors"
	"fmt"
)

// ErrMissingExpectedOutput is matched by every *MissingOutputError.
var ErrMissingExpectedOutput = errors.New("missing expected output")

// MissingOutputError reports a contig or graph file that the assembler
// did not produce where the configuration says it would.
type MissingOutputError struct {
	Kind string
	Path string
}

func (err *MissingOutputError) Error() string {
	return fmt.Sprintf("the %v file %v could not be found; the configuration file may have the wrong filename or location", err.Kind, err.Path)
}

// Unwrap returns ErrMissingExpectedOutput.
func (err *MissingOutputError) Unwrap() error {
	return ErrMissingExpectedOutput
}

// StepError ties an error to the iteration and state in which it
// occurred.
type StepError struct {
	Iteration int
	State     State
	Err       error
}

func (err *StepError) Error() string {
	return fmt.Sprintf("iteration %v, %v: %v", err.Iteration, err.State, err.Err)
}

func (err *StepError) Unwrap() error {
	return err.Err
}
