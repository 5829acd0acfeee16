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

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		d    time.Duration
		want string
	}{
		{0, "0.0 s"},
		{1234 * time.Millisecond, "1.2 s"},
		{4 * time.Minute, "4 min, 0.0 s"},
		{2*time.Minute + 30*time.Second, "2 min, 30.0 s"},
		{26*time.Hour + 3*time.Minute + 7500*time.Millisecond, "26 h, 3 min, 7.5 s"},
		{time.Hour, "1 h, 0 min, 0.0 s"},
		{-time.Second, "0.0 s"},
	} {
		assert.Equal(t, tc.want, FormatDuration(tc.d), tc.d.String())
	}
}
