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

/*
Package iterate drives the iterations of an irsat run.

Each iteration builds an aligner index from the targets and the contigs
of the previous iteration, maps the input reads against it, keeps the
reads that (or whose mates) aligned, folds forward the reads kept by the
previous iteration, and assembles the result. Iterations never overlap:
the contigs of iteration i are part of the reference of iteration i+1.

All external programs are started through a command.Runner, so the
engine can be exercised without any aligner or assembler installed.
*/
package iterate
