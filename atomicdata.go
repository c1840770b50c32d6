/*
 * atomicdata.go, part of gorbital.
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
	"strings"
	"unicode"
)

// Element symbols indexed by atomic number, 0 being a dummy/ghost center.
var symbols = [...]string{"X",
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

// MaxZ is the largest atomic number with a known symbol.
const MaxZ = len(symbols) - 1

var symbolZ map[string]int

func init() {
	symbolZ = make(map[string]int, len(symbols))
	for i, v := range symbols {
		symbolZ[strings.ToUpper(v)] = i
	}
}

// Symbol returns the element symbol for the atomic number Z, or "X"
// if Z is out of range.
func Symbol(Z int) string {
	if Z < 0 || Z > MaxZ {
		return "X"
	}
	return symbols[Z]
}

// NameToZ guesses the atomic number from an atom label such as "C1", "CL3"
// or "H12". The first two characters are tried first, then the first one.
// It returns 0 if nothing matches.
func NameToZ(name string) int {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0
	}
	if len(name) > 1 && unicode.IsLetter(rune(name[1])) {
		if z, ok := symbolZ[name[:2]]; ok {
			return z
		}
	}
	if z, ok := symbolZ[name[:1]]; ok {
		return z
	}
	return 0
}
