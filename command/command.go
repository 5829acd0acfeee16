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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Command is one fully resolved external program invocation. Args[0]
// is the program.
type Command struct {
	Args []string
}

// New returns a Command for the given program and arguments.
func New(args ...string) Command {
	return Command{Args: args}
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Pipeline is an ordered list of commands where the standard output of
// each stage is connected to the standard input of the next one.
//
// If Output is not empty, the standard output of the last stage is
// written to that file. Otherwise it is discarded.
type Pipeline struct {
	Name   string
	Stages []Command
	Output string
}

func (p Pipeline) String() string {
	stages := make([]string, len(p.Stages))
	for i, stage := range p.Stages {
		stages[i] = stage.String()
	}
	s := strings.Join(stages, " | ")
	if p.Output != "" {
		s += " > " + p.Output
	}
	return s
}

// Status is the outcome of a single process. Signal is set when the
// process was terminated by a signal, in which case ExitCode is -1.
type Status struct {
	Command  Command
	Started  bool
	ExitCode int
	Signal   syscall.Signal
	Stderr   string
}

func (s Status) failed() bool {
	return !s.Started || s.ExitCode != 0
}

func (s Status) brokenPipe() bool {
	return s.Started && s.Signal == syscall.SIGPIPE
}

// Result carries the status of every stage of a pipeline or sequence.
type Result struct {
	Name   string
	Stages []Status
}

// Failed returns the index of the first stage that did not complete
// successfully, or -1.
//
// A stage that was killed by SIGPIPE only failed because a stage after
// it exited early, so it is skipped when another stage failed. It is
// only reported when every failed stage died on a broken pipe.
func (r *Result) Failed() int {
	first := -1
	for i, status := range r.Stages {
		if !status.failed() {
			continue
		}
		if !status.brokenPipe() {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

// failures returns the indexes of all stages that did not complete
// successfully.
func (r *Result) failures() (indexes []int) {
	for i, status := range r.Stages {
		if status.failed() {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Runner executes pipelines and command sequences.
type Runner interface {
	Run(ctx context.Context, p Pipeline) (*Result, error)
	RunSequence(ctx context.Context, name string, commands []Command) (*Result, error)
}

// Exec is the Runner that spawns operating system processes. No shell
// is involved: arguments are passed to the programs as they are.
type Exec struct{}

var _ Runner = Exec{}

// Run is Exec{}.Run.
func Run(ctx context.Context, p Pipeline) (*Result, error) {
	return Exec{}.Run(ctx, p)
}

// RunSequence is Exec{}.RunSequence.
func RunSequence(ctx context.Context, name string, commands []Command) (*Result, error) {
	return Exec{}.RunSequence(ctx, name, commands)
}

func checkCommands(name string, commands []Command) error {
	if len(commands) == 0 {
		return fmt.Errorf("%v has no commands", name)
	}
	for i, c := range commands {
		if len(c.Args) == 0 || c.Args[0] == "" {
			return fmt.Errorf("empty command at stage %v of %v", i+1, name)
		}
	}
	return nil
}

// exitStatus returns the exit code of a finished process, and the
// signal that terminated it, if any.
func exitStatus(err error) (code int, signal syscall.Signal) {
	if err == nil {
		return 0, 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return -1, ws.Signal()
		}
		if code := exitErr.ExitCode(); code != 0 {
			return code, 0
		}
	}
	return -1, 0
}

// Run starts every stage of p as its own process, connects consecutive
// stages with operating system pipes so that no stream passes through
// this process, and waits until all stages have exited.
//
// If any stage fails, the returned error is a *StageError for the
// stage with the lowest index that failed, whatever the outcome of the
// stages after it. Stages killed by SIGPIPE are not blamed while
// another stage failed, since they only lost their reader. A stage that
// could not be started takes precedence for the same reason. The other
// failed stages are listed in StageError.Also. The Result is returned
// in both cases.
func (Exec) Run(ctx context.Context, p Pipeline) (result *Result, err error) {
	if err = checkCommands(p.Name, p.Stages); err != nil {
		return nil, err
	}
	n := len(p.Stages)
	cmds := make([]*exec.Cmd, n)
	stderrs := make([]bytes.Buffer, n)
	for i, stage := range p.Stages {
		cmd := exec.CommandContext(ctx, stage.Args[0], stage.Args[1:]...)
		cmd.Stderr = &stderrs[i]
		cmds[i] = cmd
	}

	// The parent's copies of the pipe ends are closed once all children
	// have been started, so that readers see end of file when their
	// writer exits.
	var parentEnds []io.Closer
	closeParentEnds := func() {
		for _, c := range parentEnds {
			_ = c.Close()
		}
		parentEnds = nil
	}
	defer closeParentEnds()

	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("%v, while connecting stage %v of %v", err, i+1, p.Name)
		}
		parentEnds = append(parentEnds, r, w)
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
	}
	if p.Output != "" {
		out, err := os.Create(p.Output)
		if err != nil {
			return nil, fmt.Errorf("%v, while creating output of %v", err, p.Name)
		}
		parentEnds = append(parentEnds, out)
		cmds[n-1].Stdout = out
	}

	result = &Result{Name: p.Name, Stages: make([]Status, n)}
	startFailure := -1
	var startErr error
	for i, cmd := range cmds {
		result.Stages[i].Command = p.Stages[i]
		if startFailure >= 0 {
			continue
		}
		if err := cmd.Start(); err != nil {
			startFailure, startErr = i, err
			result.Stages[i].ExitCode = -1
			result.Stages[i].Stderr = err.Error()
			continue
		}
		result.Stages[i].Started = true
	}
	closeParentEnds()

	for i, cmd := range cmds {
		if !result.Stages[i].Started {
			continue
		}
		waitErr := cmd.Wait()
		result.Stages[i].ExitCode, result.Stages[i].Signal = exitStatus(waitErr)
		result.Stages[i].Stderr = stderrs[i].String()
	}

	if startFailure >= 0 {
		return result, newStageError(result, startFailure, startErr)
	}
	if failed := result.Failed(); failed >= 0 {
		return result, newStageError(result, failed, nil)
	}
	return result, nil
}

// RunSequence runs commands one after the other, each to completion.
// The first command that fails aborts the remaining ones and is
// reported as a *StageError.
func (Exec) RunSequence(ctx context.Context, name string, commands []Command) (*Result, error) {
	if err := checkCommands(name, commands); err != nil {
		return nil, err
	}
	result := &Result{Name: name}
	for i, c := range commands {
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
		cmd.Stderr = &stderr
		status := Status{Command: c}
		if err := cmd.Start(); err != nil {
			status.ExitCode = -1
			status.Stderr = err.Error()
			result.Stages = append(result.Stages, status)
			return result, newStageError(result, i, err)
		}
		status.Started = true
		status.ExitCode, status.Signal = exitStatus(cmd.Wait())
		status.Stderr = stderr.String()
		result.Stages = append(result.Stages, status)
		if status.ExitCode != 0 {
			return result, newStageError(result, i, nil)
		}
	}
	return result, nil
}
