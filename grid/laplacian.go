/*
 * grid/laplacian.go, part of gorbital.
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

package grid

import (
	"fmt"
	"math"

	orb "github.com/rmera/gorbital"
)

// Laplacian returns the Laplacian of f computed with second order central
// differences in lattice coordinates. The inverse metric of the lattice
// takes care of skewed axes, including the mixed derivatives. Points on the
// faces of the grid have no neighbours on one side and are set to NaN.
func Laplacian(f *orb.ScalarField) (*orb.ScalarField, error) {
	spec := f.Spec
	if len(f.Values) != spec.Len() {
		return nil, fmt.Errorf("grid: field has %d values for %d points", len(f.Values), spec.Len())
	}
	ginv, err := spec.Lattice().InverseMetric()
	if err != nil {
		return nil, fmt.Errorf("grid: Laplacian: %w", err)
	}
	var g [3][3]float64
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			g[a][b] = ginv.At(a, b)
		}
	}
	ret := f.Copy()
	ret.Label = "Laplacian of " + f.Label
	n := spec.Counts
	unit := [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	at := func(i, j, k int, d ...[3]int) float64 {
		for _, v := range d {
			i, j, k = i+v[0], j+v[1], k+v[2]
		}
		return f.Values[spec.Index(i, j, k)]
	}
	neg := func(v [3]int) [3]int { return [3]int{-v[0], -v[1], -v[2]} }
	for i := 0; i < n[0]; i++ {
		for j := 0; j < n[1]; j++ {
			for k := 0; k < n[2]; k++ {
				if i == 0 || j == 0 || k == 0 || i == n[0]-1 || j == n[1]-1 || k == n[2]-1 {
					ret.Set(i, j, k, math.NaN())
					continue
				}
				c := at(i, j, k)
				s := 0.0
				for a := 0; a < 3; a++ {
					ea := unit[a]
					s += g[a][a] * (at(i, j, k, ea) - 2*c + at(i, j, k, neg(ea)))
					for b := a + 1; b < 3; b++ {
						if g[a][b] == 0 {
							continue
						}
						eb := unit[b]
						mixed := (at(i, j, k, ea, eb) - at(i, j, k, ea, neg(eb)) - at(i, j, k, neg(ea), eb) + at(i, j, k, neg(ea), neg(eb))) / 4
						s += 2 * g[a][b] * mixed
					}
				}
				ret.Set(i, j, k, s)
			}
		}
	}
	return ret, nil
}
