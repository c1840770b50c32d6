/*
 * doc.go, part of gorbital.
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

/*Package orb is the main package of the gorbital library. It provides the data
model for molecular orbitals read from quantum chemistry files: atoms,
gaussian basis sets, orbitals grouped in sets per density, grids and the
scalar fields computed on them.



	**gorbital Capabilities**


    Reads HDF5-like containers (JSON documents with Molcas dataset names),
	Molden, InpOrb, Luscus, Gaussian cube and Molcas ASCII grid files, see the
	formats package and its subpackages.

    Writes InpOrb, Molden, cube and container files, regenerating the
	orbital type index when orbitals are edited.

    Evaluates orbitals, state, spin, transition and difference densities
	and their Laplacian on orthogonal or skewed grids, concurrently and
	with cooperative cancellation (package grid).

    Caches the computed fields, computing each one at most once, with
	optional zstd-compressed scratch persistence (package cache).

    Suggests isovalues from the distribution of field values (package
	histo) and draws orbital energy level diagrams (package orbplot).

Units are bohr and hartree, unless stated otherwise.
*/
package orb
