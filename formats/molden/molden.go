/*
 * formats/molden/molden.go, part of gorbital.
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

//Package molden reads and writes Molden files with gaussian basis sets.
package molden

import (
	"bytes"
	"strings"

	orb "github.com/rmera/gorbital"
)

// Name is the format name used in errors and in orb.Wavefunction.Format.
const Name = "molden"

// Sniff returns true if the first line of head contains the Molden header.
func Sniff(head []byte) bool {
	line, _, _ := bytes.Cut(head, []byte("\n"))
	return strings.Contains(strings.ToUpper(string(line)), "[MOLDEN FORMAT]")
}

// cartOrders are the component orders of cartesian shells, as powers of
// x, y and z, for l up to 4.
var cartOrders = [][][3]int{
	{{0, 0, 0}},
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}, {1, 1, 0}, {1, 0, 1}, {0, 1, 1}},
	{{3, 0, 0}, {0, 3, 0}, {0, 0, 3}, {1, 2, 0}, {2, 1, 0}, {2, 0, 1}, {1, 0, 2}, {0, 1, 2}, {0, 2, 1}, {1, 1, 1}},
	{{4, 0, 0}, {0, 4, 0}, {0, 0, 4}, {3, 1, 0}, {3, 0, 1}, {1, 3, 0}, {0, 3, 1}, {1, 0, 3}, {0, 1, 3}, {2, 2, 0}, {2, 0, 2}, {0, 2, 2}, {2, 1, 1}, {1, 2, 1}, {1, 1, 2}},
}

// Components returns the components of a shell in the order used by Molden
// files: 0, +1, -1, +2, -2... for spherical shells, and the fixed orders
// above for cartesian ones.
func Components(l int, cartesian bool) []orb.Component {
	var ret []orb.Component
	if cartesian {
		if l >= len(cartOrders) {
			return orb.DefaultComponents(l, true)
		}
		for _, p := range cartOrders[l] {
			ret = append(ret, orb.Component{Lx: p[0], Ly: p[1], Lz: p[2], M: orb.CartesianM(p[0], p[1], p[2])})
		}
		return ret
	}
	ret = append(ret, orb.Component{M: 0})
	for m := 1; m <= l; m++ {
		ret = append(ret, orb.Component{M: m}, orb.Component{M: -m})
	}
	return ret
}
