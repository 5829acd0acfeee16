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

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is matched by every *Error.
var ErrConfiguration = errors.New("configuration error")

// Error collects all problems found in a run configuration. It is
// returned before any iteration starts.
type Error struct {
	Problems []string
	causes   []error
}

func newError(format string, v ...interface{}) *Error {
	return &Error{Problems: []string{fmt.Sprintf(format, v...)}}
}

func (e *Error) addf(format string, v ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, v...))
}

func (e *Error) add(cause error, format string, v ...interface{}) {
	e.addf(format, v...)
	e.causes = append(e.causes, cause)
}

func (e *Error) merge(other error) {
	var o *Error
	if errors.As(other, &o) {
		e.Problems = append(e.Problems, o.Problems...)
		e.causes = append(e.causes, o.causes...)
	} else if other != nil {
		e.add(other, "%v", other)
	}
}

func (e *Error) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	if len(e.Problems) == 1 {
		return "configuration error: " + e.Problems[0]
	}
	return "configuration errors:\n  " + strings.Join(e.Problems, "\n  ")
}

// Is reports whether target is ErrConfiguration.
func (e *Error) Is(target error) bool {
	return target == ErrConfiguration
}

// Unwrap returns the underlying errors, for example a
// template.UnresolvedPlaceholderError.
func (e *Error) Unwrap() []error {
	return e.causes
}
