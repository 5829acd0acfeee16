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
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/exascience/irsat/command"
	"github.com/exascience/irsat/config"
	"github.com/exascience/irsat/fasta"
	"github.com/exascience/irsat/internal"
	"github.com/exascience/irsat/template"
	"github.com/exascience/irsat/utils"
	"github.com/exascience/irsat/workdir"
)

// Result is what an iteration leaves behind for the next one. The
// paths point at the copies at the top level of the iteration
// directory. Graph is empty when no graph file is configured.
type Result struct {
	Iteration   int
	Directory   string
	Contigs     string
	Graph       string
	ContigCount int
}

// Context is the input of the steps of one iteration.
type Context struct {
	Iteration int
	Directory string

	// Previous is nil in the first iteration of a fresh run.
	Previous *Result

	// Values holds the placeholder values shared by all stages of the
	// iteration.
	Values map[string]string
}

// with returns a copy of the shared placeholder values, extended with
// name/value pairs.
func (c *Context) with(pairs ...string) map[string]string {
	values := make(map[string]string, len(c.Values)+len(pairs)/2)
	for name, value := range c.Values {
		values[name] = value
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		values[pairs[i]] = pairs[i+1]
	}
	return values
}

// run is the mutable state of one call to Engine.Run.
type run struct {
	last      *Result
	iteration int
}

// Engine executes the iterations of a run, strictly one after the
// other.
type Engine struct {
	cfg    config.Run
	cmds   *config.Commands
	runner command.Runner

	// Observer, if not nil, is called on every state transition.
	Observer Observer

	// Timed reports the elapsed time of every step.
	Timed bool

	state     atomic.Int32
	iteration atomic.Int32
}

// New returns an Engine for a validated run configuration. See
// config.Load.
func New(cfg config.Run, cmds *config.Commands, runner command.Runner) *Engine {
	if runner == nil {
		runner = command.Exec{}
	}
	return &Engine{cfg: cfg, cmds: cmds, runner: runner}
}

// State returns the current state of the engine.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Iteration returns the iteration the engine is executing, or 0 before
// the first one starts.
func (e *Engine) Iteration() int {
	return int(e.iteration.Load())
}

func (e *Engine) transition(iteration int, state State) {
	e.iteration.Store(int32(iteration))
	e.state.Store(int32(state))
	if e.Observer != nil {
		e.Observer(iteration, state)
	}
}

// resumed returns the outcome of the iteration a run resumes from, as
// found on disk.
func (e *Engine) resumed() (*Result, error) {
	resume := e.cfg.Resume
	state, err := workdir.Inspect(e.cfg.OutputDir, e.cmds.Contigs)
	if err != nil {
		return nil, err
	}
	if !state.Completed(resume) {
		return nil, &config.Error{Problems: []string{
			fmt.Sprintf("cannot resume from iteration %v: %v does not exist", resume, state.Contigs(resume)),
		}}
	}
	result := &Result{
		Iteration: resume,
		Directory: workdir.IterationDirectory(e.cfg.OutputDir, resume),
		Contigs:   state.Contigs(resume),
	}
	if e.cmds.Graph != "" {
		graph := retained(result.Directory, e.cmds.Graph)
		if ok, _ := internal.IsRegularFile(graph); ok {
			result.Graph = graph
		}
	}
	result.ContigCount = countContigs(result.Contigs)
	log.Printf("Resuming after iteration %v with %v contigs from %v\n", resume, result.ContigCount, result.Contigs)
	return result, nil
}

// Run executes the configured iterations and returns their results.
// It stops at the first error, which is a *StepError unless the run
// could not start at all. The results of the iterations that completed
// before the error are returned as well.
func (e *Engine) Run(ctx context.Context) (results []Result, err error) {
	if err := workdir.EnsureOutputRoot(e.cfg.OutputDir); err != nil {
		e.transition(0, Failed)
		return nil, err
	}
	r := &run{}
	if e.cfg.Resume > 0 {
		if r.last, err = e.resumed(); err != nil {
			e.transition(0, Failed)
			return nil, err
		}
	}
	for r.iteration = e.cfg.FirstIteration(); r.iteration <= e.cfg.LastIteration(); r.iteration++ {
		if err := ctx.Err(); err != nil {
			e.transition(r.iteration, Failed)
			return results, &StepError{Iteration: r.iteration, State: Preparing, Err: err}
		}
		log.Printf("Iteration %v:\n", r.iteration)
		start := time.Now()
		result, err := e.iterate(ctx, r)
		if err != nil {
			e.transition(r.iteration, Failed)
			return results, err
		}
		log.Println("Time to complete iteration:", utils.FormatDuration(time.Since(start)))
		results = append(results, *result)
		r.last = result
	}
	e.transition(e.cfg.LastIteration(), Done)
	return results, nil
}

// step runs f in the given state. Errors are wrapped in a *StepError.
func (e *Engine) step(c *Context, state State, msg string, f func() error) error {
	e.transition(c.Iteration, state)
	log.Println(msg)
	var start time.Time
	if e.Timed {
		start = time.Now()
	}
	if err := f(); err != nil {
		return &StepError{Iteration: c.Iteration, State: state, Err: err}
	}
	if e.Timed {
		log.Println("Elapsed time:", utils.FormatDuration(time.Since(start)))
	}
	return nil
}

func (e *Engine) iterate(ctx context.Context, r *run) (*Result, error) {
	e.transition(r.iteration, Preparing)
	dir, err := workdir.PrepareIterationDirectory(e.cfg.OutputDir, r.iteration)
	if err != nil {
		return nil, &StepError{Iteration: r.iteration, State: Preparing, Err: err}
	}
	c := &Context{
		Iteration: r.iteration,
		Directory: dir,
		Previous:  r.last,
		Values:    map[string]string{template.Index: workdir.IndexPrefix(dir)},
	}

	if err := e.step(c, Indexing, "Building index...", func() error {
		return e.buildIndex(ctx, c)
	}); err != nil {
		return nil, err
	}

	if err := e.step(c, Mapping, "Mapping reads...", func() error {
		if e.cfg.Paired() {
			if err := e.mapPairedReads(ctx, c); err != nil {
				return err
			}
		}
		if e.cfg.HasUnpaired() {
			return e.mapUnpairedReads(ctx, c)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if c.Iteration > 1 {
		if err := e.step(c, Merging, "Adding reads from the previous iteration...", func() error {
			return e.addPreviousReads(c)
		}); err != nil {
			return nil, err
		}
	}

	var result *Result
	if err := e.step(c, Assembling, "Assembling...", func() (err error) {
		result, err = e.assemble(ctx, c)
		return err
	}); err != nil {
		return nil, err
	}

	if !e.cfg.Keep {
		if err := e.step(c, Cleaning, "Deleting intermediate files...", func() error {
			return workdir.CleanupIntermediateSubdirectories(c.Directory, workdir.Scratch...)
		}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// countContigs returns the number of sequences in a contig file, or -1
// if the file cannot be read as FASTA.
func countContigs(filename string) int {
	n, err := fasta.CountSequences(filename)
	if err != nil {
		log.Printf("Warning: cannot count the contigs in %v: %v\n", filename, err)
		return -1
	}
	return n
}

func isRegularFile(kind, path string) error {
	ok, err := internal.IsRegularFile(path)
	if err != nil {
		return &workdir.FilesystemError{Op: "inspect " + kind + " file", Path: path, Err: err}
	}
	if !ok {
		return &MissingOutputError{Kind: kind, Path: path}
	}
	return nil
}
