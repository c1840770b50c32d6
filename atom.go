/*
 * atom.go, part of gorbital.
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

	v3 "github.com/rmera/gorbital/v3"
)

// Atom is a center in a Molecule. Coordinates are in bohr.
type Atom struct {
	Name    string
	Z       int
	Coords  [3]float64
	NoBasis bool //a point charge or MM atom, no shell belongs to it
	Ghost   bool //basis functions but no nuclear charge
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *A
	return &ret
}

// Symbol returns the element symbol of the atom.
func (A *Atom) Symbol() string {
	return Symbol(A.Z)
}

// IsGhostLabel returns true for the labels that programs use for
// dummy or ghost centers.
func IsGhostLabel(label string) bool {
	l := strings.ToUpper(strings.TrimSpace(label))
	return l == "X" || strings.HasPrefix(l, "BQ") || strings.HasPrefix(l, "GH")
}

// Molecule is the ordered set of centers read from a file. It owns its atoms.
type Molecule struct {
	Atoms  []*Atom
	Charge int
}

// NewMolecule builds a Molecule from atoms, which can't be empty.
func NewMolecule(atoms []*Atom) *Molecule {
	return &Molecule{Atoms: atoms}
}

// Len returns the number of atoms.
func (M *Molecule) Len() int {
	if M == nil {
		return 0
	}
	return len(M.Atoms)
}

// Atom returns the ith atom. Panics if out of range.
func (M *Molecule) Atom(i int) *Atom {
	if i < 0 || i >= M.Len() {
		panic("Molecule: Requested Atom out of bounds")
	}
	return M.Atoms[i]
}

// Coords returns a new matrix with the coordinates of all atoms. It panics
// for an empty molecule.
func (M *Molecule) Coords() *v3.Matrix {
	c := v3.Zeros(M.Len())
	for i, a := range M.Atoms {
		c.SetVec(i, a.Coords)
	}
	return c
}

// Center returns the center of the box enclosing all the atoms.
func (M *Molecule) Center() [3]float64 {
	if M.Len() == 0 {
		return [3]float64{}
	}
	return M.Coords().BoxCenter()
}

// Bounds returns the minimum and maximum coordinates along each axis.
func (M *Molecule) Bounds() (min, max [3]float64) {
	if M.Len() == 0 {
		return min, max
	}
	return M.Coords().Bounds()
}

// Electrons returns the number of electrons of the neutral molecule minus
// the charge. Ghost atoms and point charges don't count.
func (M *Molecule) Electrons() int {
	n := 0
	for _, a := range M.Atoms {
		if a.Ghost || a.NoBasis {
			continue
		}
		n += a.Z
	}
	return n - M.Charge
}

// Copy returns a deep copy of the molecule.
func (M *Molecule) Copy() *Molecule {
	ret := &Molecule{Atoms: make([]*Atom, len(M.Atoms)), Charge: M.Charge}
	for i, a := range M.Atoms {
		ret.Atoms[i] = a.Copy()
	}
	return ret
}
