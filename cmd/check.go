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
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/exascience/irsat/config"
)

// CheckConfigHelp is the help string for this command.
const CheckConfigHelp = "\ncheck-config parameters:\n" +
	"irsat check-config config-file\n" +
	"[--mode [paired | unpaired | both]]\n"

func parseMode(s string) (modes []config.Mode, ok bool) {
	switch strings.ToLower(s) {
	case "paired":
		return []config.Mode{config.PairedOnly}, true
	case "unpaired":
		return []config.Mode{config.UnpairedOnly}, true
	case "both":
		return []config.Mode{config.Both}, true
	case "":
		return nil, true
	default:
		return nil, false
	}
}

// configuredModes returns the read modes for which the configuration
// has assembly commands.
func configuredModes(cmds *config.Commands) (modes []config.Mode) {
	for _, mode := range []config.Mode{config.PairedOnly, config.UnpairedOnly, config.Both} {
		if len(cmds.Assembly(mode)) > 0 {
			modes = append(modes, mode)
		}
	}
	return modes
}

// CheckConfig implements the irsat check-config command. It parses a
// command configuration file and checks the commands of the requested
// read mode, or of every read mode the file has assembly commands for.
func CheckConfig(args []string) error {
	var mode string

	var flags flag.FlagSet

	flags.StringVar(&mode, "mode", "", "the read mode to check the commands for")

	parseFlags(&flags, args, 1, CheckConfigHelp)

	filename := getFilename(args[0], CheckConfigHelp)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", filename) {
		sanityChecksFailed = true
	}
	modes, ok := parseMode(mode)
	if !ok {
		sanityChecksFailed = true
		log.Println("Error: Invalid read mode:", mode)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CheckConfigHelp)
		os.Exit(1)
	}

	cmds, err := config.LoadCommands(filename)
	if err != nil {
		return err
	}
	if modes == nil {
		if modes = configuredModes(cmds); modes == nil {
			return &config.Error{Problems: []string{filename + ": the assembly section has no commands"}}
		}
	}

	log.Println("index:", cmds.Index)
	var errs []error
	for _, m := range modes {
		if err := cmds.Validate(m); err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", m, err))
			continue
		}
		log.Printf("The commands for %v are valid.\n", m)
		for i, t := range cmds.Assembly(m) {
			log.Printf("  assembly %v step %v: %v\n", m.AssemblyKey(), i+1, t)
		}
	}
	log.Printf("contigs: %v, graph: %q\n", cmds.Contigs, cmds.Graph)
	return errors.Join(errs...)
}
