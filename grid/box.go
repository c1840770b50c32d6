/*
 * grid/box.go, part of gorbital.
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
	"math"

	orb "github.com/rmera/gorbital"
)

// Box returns the default grid for a molecule: an axis-aligned box
// centered on the molecule, with cfg.GridClearance bohr on each side
// (edges rounded up to a whole bohr), and at most cfg.GridPoints points
// along the longest edge. Shorter edges get proportionally fewer points.
func Box(mol *orb.Molecule, cfg orb.Config) orb.GridSpec {
	min, max := mol.Bounds()
	center := mol.Center()
	npts := cfg.GridPoints
	if npts < 2 {
		npts = 2
	}
	var dim [3]float64
	longest := 0.0
	for i := 0; i < 3; i++ {
		dim[i] = math.Ceil(max[i] - min[i] + 2*cfg.GridClearance)
		longest = math.Max(longest, dim[i])
	}
	size := longest / float64(npts-1)
	if size == 0 {
		size = 1
	}
	var origin, steps [3]float64
	var counts [3]int
	for i := 0; i < 3; i++ {
		counts[i] = int(math.Min(math.Ceil(dim[i]/size)+1, float64(npts)))
		origin[i] = center[i] - dim[i]/2
		steps[i] = size
		if counts[i] > 1 {
			steps[i] = dim[i] / float64(counts[i]-1)
		}
	}
	return orb.NewOrthoGrid(origin, steps, counts)
}
