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
	"fmt"
	"time"
)

// FormatDuration renders d for progress messages, for example
// "1 h, 2 min, 3.5 s", "4 min, 0.0 s" or "12.3 s". Hours and minutes
// are only shown when they are not zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := d.Seconds()
	switch {
	case hours > 0:
		return fmt.Sprintf("%d h, %d min, %.1f s", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%d min, %.1f s", minutes, seconds)
	default:
		return fmt.Sprintf("%.1f s", seconds)
	}
}
