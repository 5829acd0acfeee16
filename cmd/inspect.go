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
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/irsat/fasta"
	"github.com/exascience/irsat/workdir"
)

// InspectHelp is the help string for this command.
const InspectHelp = "\ninspect parameters:\n" +
	"irsat inspect output-directory contigs-file-name\n"

// Inspect implements the irsat inspect command. It reports which
// iterations of a run have completed, and the iteration to resume
// from.
func Inspect(args []string) error {
	var flags flag.FlagSet

	parseFlags(&flags, args, 2, InspectHelp)

	root := getFilename(args[0], InspectHelp)
	contigs := getFilename(args[1], InspectHelp)

	// sanity checks

	if !checkExist("", root) {
		fmt.Fprint(os.Stderr, InspectHelp)
		os.Exit(1)
	}

	state, err := workdir.Inspect(root, contigs)
	if err != nil {
		return err
	}
	iterations := state.Iterations()
	if len(iterations) == 0 {
		log.Printf("No completed iterations in %v.\n", root)
		return nil
	}
	for _, i := range iterations {
		n, err := fasta.CountSequences(state.Contigs(i))
		if err != nil {
			log.Printf("Iteration %v: %v (%v)\n", i, state.Contigs(i), err)
			continue
		}
		log.Printf("Iteration %v: %v contigs in %v\n", i, n, state.Contigs(i))
	}
	log.Printf("A run can be resumed with -r %v.\n", state.LastCompleted())
	return nil
}
