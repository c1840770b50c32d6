/*
 * numeric.go, part of gorbital.
 *
 * Copyright 2026 The gorbital authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package orb

import (
	"math"
	"strconv"
	"strings"
)

// ParseFloat parses a number as written by Fortran programs. Exponent
// markers can be E, e, D or d, and 3-digit exponents without a marker
// ("1.0-100") are accepted.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, nil
	}
	t := strings.Map(func(r rune) rune {
		if r == 'D' || r == 'd' {
			return 'E'
		}
		return r
	}, s)
	if f, err2 := strconv.ParseFloat(t, 64); err2 == nil {
		return f, nil
	}
	//markerless exponent
	if i := strings.LastIndexAny(t, "+-"); i > 0 && t[i-1] >= '0' && t[i-1] <= '9' {
		if f, err2 := strconv.ParseFloat(t[:i]+"E"+t[i:], 64); err2 == nil {
			return f, nil
		}
	}
	return 0, err
}

// IsStarred returns true for fields that overflowed their Fortran format,
// i.e. that are made only of asterisks.
func IsStarred(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Trim(s, "*") == ""
}

// ParseField parses a numeric field that may be unreadable. ok is false
// (and the error nil) when the field is starred or NaN, in which case the
// value must be treated as missing rather than as zero.
func ParseField(s string) (value float64, ok bool, err error) {
	if IsStarred(s) {
		return math.NaN(), false, nil
	}
	f, err := ParseFloat(s)
	if err != nil {
		return math.NaN(), false, err
	}
	if math.IsNaN(f) {
		return f, false, nil
	}
	return f, true, nil
}
