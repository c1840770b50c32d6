/*
 * orbital.go, part of gorbital.
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
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
)

// Spin is the spin channel of an orbital or density.
type Spin int

const (
	NoSpin Spin = iota
	Alpha
	Beta
)

func (S Spin) String() string {
	switch S {
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	}
	return "none"
}

// DensityKind is the kind of density an OrbitalSet describes.
type DensityKind int

const (
	StateDensity DensityKind = iota
	SpinDensity
	TransitionDensity
	DifferenceDensity
)

var densityKinds = [...]string{"state", "spin", "transition", "difference"}

func (D DensityKind) String() string {
	if D < 0 || int(D) >= len(densityKinds) {
		return "unknown"
	}
	return densityKinds[D]
}

// Tag describes how a set of orbitals was obtained.
type Tag int

const (
	Canonical Tag = iota
	Natural
	Localized
	NTO
	DensityEigen //eigenvectors of a density matrix
)

var tagNames = [...]string{"canonical", "natural", "localized", "NTO", "density"}

func (T Tag) String() string {
	if T < 0 || int(T) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[T]
}

// OrbitalTypes are the valid type letters of the orbital index, from
// frozen to deleted. '?' is used for unknown types.
const OrbitalTypes = "FI123SD"

// Orbital is one molecular orbital.
type Orbital struct {
	Coeffs      []float64 //over the full basis
	Energy      float64
	EnergyValid bool //false if the energy was absent or unreadable
	Occupation  float64
	Spin        Spin
	Sym         string //irrep label
	Irrep       int
	SymCoeffs   []float64 //coefficients within the irrep block, nil if not known
	Type        byte
	Tag         Tag
	Label       string //free text, for orbitals only known as a grid
	Number      int    //1-based number within the irrep in the source file, 0 if unknown
}

// Copy returns a deep copy of the orbital.
func (O *Orbital) Copy() *Orbital {
	ret := *O
	ret.Coeffs = append([]float64(nil), O.Coeffs...)
	if O.SymCoeffs != nil {
		ret.SymCoeffs = append([]float64(nil), O.SymCoeffs...)
	}
	return &ret
}

// Name returns a short description of the orbital like "12 a1 alpha".
func (O *Orbital) Name(index int) string {
	ret := fmt.Sprintf("%d", index+1)
	if O.Sym != "" {
		ret += " " + O.Sym
	}
	if O.Spin != NoSpin {
		ret += " " + O.Spin.String()
	}
	return ret
}

var setIDs atomic.Uint64

// NewSetID returns a process-wide unique OrbitalSet identifier.
func NewSetID() uint64 {
	return setIDs.Add(1)
}

// OrbitalSet is a collection of orbitals that share a density context:
// a kind, a state and a spin.
type OrbitalSet struct {
	ID        uint64 //changes on every edit
	Name      string
	Kind      DensityKind
	State     int
	Spin      Spin
	Orbitals  []*Orbital
	Electrons float64 //NaN if unknown
	Reference int     //for difference and transition sets, the other state
}

// NewOrbitalSet returns a set with a fresh ID and unknown electron count.
func NewOrbitalSet(name string, kind DensityKind, state int, spin Spin, orbs []*Orbital) *OrbitalSet {
	return &OrbitalSet{ID: NewSetID(), Name: name, Kind: kind, State: state, Spin: spin, Orbitals: orbs, Electrons: math.NaN()}
}

// Len returns the number of orbitals.
func (O *OrbitalSet) Len() int {
	if O == nil {
		return 0
	}
	return len(O.Orbitals)
}

// Occupation returns the sum of all occupations.
func (O *OrbitalSet) Occupation() float64 {
	s := 0.0
	for _, o := range O.Orbitals {
		s += o.Occupation
	}
	return s
}

// CheckElectrons returns an error if the electron count is known and
// differs from the sum of occupations by more than tol.
func (O *OrbitalSet) CheckElectrons(tol float64) error {
	if math.IsNaN(O.Electrons) {
		return nil
	}
	if occ := O.Occupation(); math.Abs(occ-O.Electrons) > tol {
		return fmt.Errorf("orbital set %q: occupations add to %g, expected %g electrons", O.Name, occ, O.Electrons)
	}
	return nil
}

// ByEnergy returns the indexes of the orbitals with a valid energy,
// sorted by increasing energy. Orbitals with invalid energies are left out.
func (O *OrbitalSet) ByEnergy() []int {
	ret := make([]int, 0, len(O.Orbitals))
	for i, o := range O.Orbitals {
		if o.EnergyValid {
			ret = append(ret, i)
		}
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return O.Orbitals[ret[i]].Energy < O.Orbitals[ret[j]].Energy
	})
	return ret
}

// ByOccupationEnergy returns the indexes of all the orbitals, sorted by
// decreasing occupation and then by increasing energy, irrespective of
// symmetry. Orbitals with invalid energies go last among those with the
// same occupation.
func (O *OrbitalSet) ByOccupationEnergy() []int {
	ret := make([]int, len(O.Orbitals))
	for i := range ret {
		ret[i] = i
	}
	sort.SliceStable(ret, func(i, j int) bool {
		a, b := O.Orbitals[ret[i]], O.Orbitals[ret[j]]
		if a.Occupation != b.Occupation {
			return a.Occupation > b.Occupation
		}
		if a.EnergyValid != b.EnergyValid {
			return a.EnergyValid
		}
		return a.EnergyValid && a.Energy < b.Energy
	})
	return ret
}

// HOMO returns the index of the highest energy orbital among those with
// an occupation of at least half the maximum one, or -1 if there is none.
func (O *OrbitalSet) HOMO() int {
	maxocc := 0.0
	for _, o := range O.Orbitals {
		maxocc = math.Max(maxocc, o.Occupation)
	}
	ret := -1
	for i, o := range O.Orbitals {
		if !o.EnergyValid || maxocc <= 0 || o.Occupation < maxocc/2 {
			continue
		}
		if ret < 0 || o.Energy > O.Orbitals[ret].Energy {
			ret = i
		}
	}
	return ret
}

// Copy returns a deep copy of the set, with a new ID.
func (O *OrbitalSet) Copy() *OrbitalSet {
	ret := *O
	ret.ID = NewSetID()
	ret.Orbitals = make([]*Orbital, len(O.Orbitals))
	for i, o := range O.Orbitals {
		ret.Orbitals[i] = o.Copy()
	}
	return &ret
}

// Reorder returns a new set with the orbitals in the given order. order
// must be a permutation of the orbital indexes.
func (O *OrbitalSet) Reorder(order []int) (*OrbitalSet, error) {
	if len(order) != len(O.Orbitals) {
		return nil, fmt.Errorf("Reorder: %d indexes for %d orbitals", len(order), len(O.Orbitals))
	}
	return O.Select(order)
}

// Select returns a new set with only the orbitals with the given indexes,
// in that order. Indexes can't be repeated.
func (O *OrbitalSet) Select(indexes []int) (*OrbitalSet, error) {
	seen := make(map[int]bool, len(indexes))
	ret := *O
	ret.ID = NewSetID()
	ret.Orbitals = make([]*Orbital, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(O.Orbitals) || seen[i] {
			return nil, fmt.Errorf("Select: index %d repeated or out of range", i)
		}
		seen[i] = true
		ret.Orbitals = append(ret.Orbitals, O.Orbitals[i].Copy())
	}
	return &ret, nil
}

// SetType returns a new set where the orbital with index i has the given
// type letter.
func (O *OrbitalSet) SetType(i int, t byte) (*OrbitalSet, error) {
	if i < 0 || i >= len(O.Orbitals) {
		return nil, fmt.Errorf("SetType: index %d out of range", i)
	}
	t = NormalizeType(t)
	if !strings.ContainsRune(OrbitalTypes, rune(t)) {
		return nil, fmt.Errorf("SetType: invalid orbital type %q", t)
	}
	ret := O.Copy()
	ret.Orbitals[i].Type = t
	return ret, nil
}

// NormalizeType returns the uppercase version of a type letter.
func NormalizeType(t byte) byte {
	if t >= 'a' && t <= 'z' {
		return t - 'a' + 'A'
	}
	return t
}

// TypeCounts returns, for each irrep, how many orbitals there are of each
// type. The map keys are the type letters.
func (O *OrbitalSet) TypeCounts(nirreps int) []map[byte]int {
	if nirreps < 1 {
		nirreps = 1
	}
	ret := make([]map[byte]int, nirreps)
	for i := range ret {
		ret[i] = make(map[byte]int)
	}
	for _, o := range O.Orbitals {
		if o.Irrep < 0 || o.Irrep >= nirreps {
			continue
		}
		t := o.Type
		if t == 0 {
			t = '?'
		}
		ret[o.Irrep][t]++
	}
	return ret
}

// Occupied returns the indexes of the orbitals whose absolute occupation
// is above thr.
func (O *OrbitalSet) Occupied(thr float64) []int {
	var ret []int
	for i, o := range O.Orbitals {
		if math.Abs(o.Occupation) > thr {
			ret = append(ret, i)
		}
	}
	return ret
}
