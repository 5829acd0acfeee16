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

package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/exascience/irsat/config"
	"github.com/exascience/irsat/internal"
	"github.com/exascience/irsat/iterate"
	"github.com/exascience/irsat/utils"
	"github.com/google/uuid"
)

// RunHelp is the help string for this command.
const RunHelp = "\nrun parameters:\n" +
	"irsat [run] -c config-file -t target-fasta -o output-directory -i iterations\n" +
	"[-1 first-mate-fastq -2 second-mate-fastq]\n" +
	"[-u unpaired-fastq]\n" +
	"[-r resume-iteration]\n" +
	"[--keep]\n" +
	"[--timed]\n" +
	"[--log-path path]\n" +
	"Read files must be given as paired reads in separate files (-1 and -2),\n" +
	"unpaired reads in a single file (-u), or both.\n"

// absolute returns the full path of a command line file name, which
// stays valid when external tools run in other directories.
func absolute(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	return internal.FullPathname(filename)
}

// executingMessage is the banner logged before the first iteration. The
// run identifier tells the log lines of one invocation apart from
// those of earlier runs in the same log directory.
func executingMessage(runID uuid.UUID, command string) string {
	return fmt.Sprintf("Executing command (run %v):\n %v\n", runID, command)
}

// Run implements the irsat run command. args are the command line
// arguments that follow the command name.
func Run(args []string) error {
	startTime := time.Now()

	var (
		cfg     config.Run
		logPath string
		timed   bool
	)

	var flags flag.FlagSet

	for _, name := range []string{"c", "config"} {
		flags.StringVar(&cfg.ConfigFile, name, "", "configuration file which specifies commands")
	}
	for _, name := range []string{"t", "target"} {
		flags.StringVar(&cfg.Target, name, "", "FASTA file containing one or more target sequences")
	}
	for _, name := range []string{"o", "output"} {
		flags.StringVar(&cfg.OutputDir, name, "", "the output directory")
	}
	for _, name := range []string{"i", "iterations"} {
		flags.IntVar(&cfg.Iterations, name, 0, "how many assembly iterations will be run")
	}
	for _, name := range []string{"r", "resume"} {
		flags.IntVar(&cfg.Resume, name, 0, "resume an existing run after this iteration")
	}
	flags.StringVar(&cfg.Mate1, "1", "", "file of first reads in pair")
	flags.StringVar(&cfg.Mate2, "2", "", "file of second reads in pair")
	for _, name := range []string{"u", "unpaired"} {
		flags.StringVar(&cfg.Unpaired, name, "", "file of unpaired reads")
	}
	for _, name := range []string{"k", "keep"} {
		flags.BoolVar(&cfg.Keep, name, false, "keep all intermediate files")
	}
	flags.BoolVar(&timed, "timed", false, "measure the runtime of every step")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, args, 0, RunHelp)

	if logPath != "" {
		if err := setLogOutput(logPath); err != nil {
			return err
		}
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("-c", cfg.ConfigFile) {
		sanityChecksFailed = true
	}
	if !checkExist("-t", cfg.Target) {
		sanityChecksFailed = true
	}
	if !checkCreateDir("-o", cfg.OutputDir) {
		sanityChecksFailed = true
	}
	if cfg.Iterations < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid number of iterations:", cfg.Iterations)
	}
	if cfg.Resume < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid resume iteration:", cfg.Resume)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, RunHelp)
		os.Exit(1)
	}

	for _, filename := range []*string{&cfg.ConfigFile, &cfg.Target, &cfg.Mate1, &cfg.Mate2, &cfg.Unpaired, &cfg.OutputDir} {
		name, err := absolute(*filename)
		if err != nil {
			return err
		}
		*filename = name
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " run -c ", cfg.ConfigFile, " -t ", cfg.Target, " -o ", cfg.OutputDir, " -i ", cfg.Iterations)
	if cfg.Mate1 != "" {
		fmt.Fprint(&command, " -1 ", cfg.Mate1)
	}
	if cfg.Mate2 != "" {
		fmt.Fprint(&command, " -2 ", cfg.Mate2)
	}
	if cfg.Unpaired != "" {
		fmt.Fprint(&command, " -u ", cfg.Unpaired)
	}
	if cfg.Resume > 0 {
		fmt.Fprint(&command, " -r ", cfg.Resume)
	}
	if cfg.Keep {
		fmt.Fprint(&command, " --keep")
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	cmds, err := config.Load(cfg)
	if err != nil {
		return err
	}

	// executing command

	runID := uuid.New()
	log.Print(executingMessage(runID, command.String()))
	log.Printf("%v: iterative read subset assembly of %v reads\n", utils.ProgramName, cfg.Mode())

	engine := iterate.New(cfg, cmds, nil)
	engine.Timed = timed
	var results []iterate.Result
	if err := timedRun(timed, "Running iterations.", func() (err error) {
		results, err = engine.Run(context.Background())
		return err
	}); err != nil {
		return err
	}

	if n := len(results); n > 0 {
		log.Printf("The contigs of the last iteration are in %v\n", results[n-1].Contigs)
	}
	log.Printf("Finished! (run %v)\n", runID)
	log.Println("Total time to complete:", utils.FormatDuration(time.Since(startTime)))
	return nil
}
