/*
 * harmonics_test.go, part of gorbital.
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
	"testing"
)

func TestSphericalTerms(Te *testing.T) {
	s2 := math.Sqrt2
	p := map[int][3]int{1: {1, 0, 0}, -1: {0, 1, 0}, 0: {0, 0, 1}}
	for m, exps := range p {
		t := SphericalTerms(1, m)
		if len(t) != 1 || t[0].Lx != exps[0] || t[0].Ly != exps[1] || t[0].Lz != exps[2] {
			Te.Fatalf("p m=%d: unexpected terms %v", m, t)
		}
		if math.Abs(t[0].C-s2) > 1e-12 {
			Te.Errorf("p m=%d: coefficient %g, expected sqrt(2)", m, t[0].C)
		}
	}
	z2 := SphericalTerms(2, 0)
	if len(z2) != 3 {
		Te.Fatalf("d0 should have 3 terms, got %v", z2)
	}
	want := map[[3]int]float64{{2, 0, 0}: -1 / math.Sqrt(3), {0, 2, 0}: -1 / math.Sqrt(3), {0, 0, 2}: 2 / math.Sqrt(3)}
	for _, t := range z2 {
		if math.Abs(want[[3]int{t.Lx, t.Ly, t.Lz}]-t.C) > 1e-12 {
			Te.Errorf("d0 term %v, expected %g", t, want[[3]int{t.Lx, t.Ly, t.Lz}])
		}
	}
	x2y2 := SphericalTerms(2, 2)
	if len(x2y2) != 2 || x2y2[0].C != 1 || x2y2[1].C != -1 {
		Te.Errorf("d2 should be x2-y2, got %v", x2y2)
	}
	//xy is the same in both representations
	if c := CartesianTerms(1, 1, 0)[0].C; math.Abs(c-SphericalTerms(2, -2)[0].C) > 1e-12 {
		Te.Errorf("cartesian xy %g differs from spherical", c)
	}
	for l := 0; l <= MaxL; l++ {
		for m := -l; m <= l; m++ {
			if len(SphericalTerms(l, m)) == 0 {
				Te.Errorf("l=%d m=%d has no terms", l, m)
			}
		}
	}
}

func TestCartesianM(Te *testing.T) {
	for l := 0; l <= MaxL; l++ {
		seen := make(map[int]bool)
		for _, c := range DefaultComponents(l, true) {
			m := CartesianM(c.Lx, c.Ly, c.Lz)
			if m < -l || seen[m] {
				Te.Errorf("l=%d: index %d for %v out of range or repeated", l, m, c)
			}
			seen[m] = true
			lx, ly, lz := CartesianFromM(l, m)
			if lx != c.Lx || ly != c.Ly || lz != c.Lz {
				Te.Errorf("l=%d m=%d: decoded (%d,%d,%d), expected %v", l, m, lx, ly, lz, c)
			}
		}
		if len(seen) != NFuncs(l, true) {
			Te.Errorf("l=%d: %d components, expected %d", l, len(seen), NFuncs(l, true))
		}
	}
}
