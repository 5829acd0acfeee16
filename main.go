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

// irsat is an iterative read subset assembly tool. Starting from a set
// of target sequences, it repeatedly maps reads against the targets and
// the contigs assembled so far, keeps the reads that (or whose mates)
// map, and reassembles them, so that the assembly grows outwards from
// the targets.
//
// Please see https://github.com/exascience/irsat for a documentation
// of the tool and its configuration file.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/exascience/irsat/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: run, check-config, inspect")
	fmt.Fprint(os.Stderr, "\n", cmd.RunHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.CheckConfigHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.InspectHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmd.Run(os.Args[2:])
	case "check-config":
		err = cmd.CheckConfig(os.Args[2:])
	case "inspect":
		err = cmd.Inspect(os.Args[2:])
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		if !strings.HasPrefix(os.Args[1], "-") {
			log.Println("Unknown command:", os.Args[1])
			printHelp()
			os.Exit(1)
		}
		err = cmd.Run(os.Args[1:])
	}
	if err != nil {
		log.Fatal(err)
	}
}
