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

package command

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// ErrExternalTool is matched by every *StageError.
var ErrExternalTool = errors.New("external tool failure")

// maxStderrInMessage bounds the amount of captured error output that is
// repeated in an error message.
const maxStderrInMessage = 2048

// StageError reports the stage of a pipeline or command sequence that
// failed.
type StageError struct {
	Name     string
	Stage    int // 1-based
	Command  Command
	ExitCode int
	Signal   syscall.Signal // set when the process was killed by a signal
	Stderr   string
	Err      error // set when the process could not be started

	// Also lists the other stages of the same pipeline that exited
	// unsuccessfully, in stage order.
	Also []*StageError
}

func stageError(result *Result, index int, err error) *StageError {
	status := result.Stages[index]
	return &StageError{
		Name:     result.Name,
		Stage:    index + 1,
		Command:  status.Command,
		ExitCode: status.ExitCode,
		Signal:   status.Signal,
		Stderr:   status.Stderr,
		Err:      err,
	}
}

func newStageError(result *Result, index int, err error) *StageError {
	stageErr := stageError(result, index, err)
	for _, i := range result.failures() {
		if i != index && result.Stages[i].Started {
			stageErr.Also = append(stageErr.Also, stageError(result, i, nil))
		}
	}
	return stageErr
}

func (err *StageError) describe(msg *strings.Builder) {
	switch {
	case err.Err != nil:
		fmt.Fprintf(msg, "stage %v could not be started (%v): %v", err.Stage, err.Command, err.Err)
		return
	case err.Signal != 0:
		fmt.Fprintf(msg, "stage %v was killed by signal %q (%v)", err.Stage, err.Signal, err.Command)
	default:
		fmt.Fprintf(msg, "stage %v failed with exit status %v (%v)", err.Stage, err.ExitCode, err.Command)
	}
	if stderr := strings.TrimSpace(err.Stderr); stderr != "" {
		if len(stderr) > maxStderrInMessage {
			stderr = "..." + stderr[len(stderr)-maxStderrInMessage:]
		}
		fmt.Fprintf(msg, "\n%v", stderr)
	}
}

func (err *StageError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "%v: ", err.Name)
	err.describe(&msg)
	for _, also := range err.Also {
		msg.WriteString("\nalso ")
		also.describe(&msg)
	}
	return msg.String()
}

// Unwrap returns ErrExternalTool, and the start error if there is one.
func (err *StageError) Unwrap() []error {
	if err.Err != nil {
		return []error{ErrExternalTool, err.Err}
	}
	return []error{ErrExternalTool}
}
