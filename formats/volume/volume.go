/*
 * formats/volume/volume.go, part of gorbital.
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

//Package volume has the pieces shared by the formats that store orbitals
//as values on a grid (Luscus, Molcas grid and cube files). Such files
//produce wavefunctions without basis set: one orbital set whose orbitals
//have no coefficients, and one precomputed field per orbital.
package volume

import (
	"fmt"
	"sort"

	orb "github.com/rmera/gorbital"
)

// Entry describes one orbital stored in a grid file.
type Entry struct {
	Label       string
	Sym         int //1-based irrep, 0 if unknown
	Num         int //1-based number within the irrep, 0 if unknown
	Energy      float64
	EnergyValid bool
	Occupation  float64
	Type        byte
	Block       int //position of the orbital's data in the file
}

// Counts converts point counts read as numbers into integers, adding add
// to each of them.
func Counts(v []float64, add int) ([3]int, error) {
	var ret [3]int
	if len(v) < 3 {
		return ret, fmt.Errorf("expected 3 grid counts, got %d", len(v))
	}
	for i := range ret {
		if !(v[i] >= 0 && v[i] < 1<<31) {
			return ret, fmt.Errorf("invalid grid size %v", v)
		}
		ret[i] = int(v[i]) + add
	}
	return ret, nil
}

// Span returns a grid whose axes, given as the vectors spanning the whole
// box, are divided in counts-1 steps.
func Span(origin [3]float64, axes [3][3]float64, counts [3]int) orb.GridSpec {
	G := orb.GridSpec{Origin: origin, Counts: counts}
	for i := range axes {
		n := float64(counts[i] - 1)
		if n < 1 {
			n = 1
		}
		for j := range axes[i] {
			G.Axes[i][j] = axes[i][j] / n
		}
	}
	return G
}

// Atom builds an atom from a label, guessing the element.
func Atom(label string, coords [3]float64) *orb.Atom {
	Z := orb.NameToZ(label)
	return &orb.Atom{Name: label, Z: Z, Coords: coords, NoBasis: true, Ghost: Z == 0 || orb.IsGhostLabel(label)}
}

// Build returns the wavefunction for a grid file. entries[i] describes
// fields[entries[i].Block]. The orbitals are sorted by irrep and number,
// and each field's Orbital is set to the index of its orbital.
func Build(format, path, title string, mol *orb.Molecule, entries []Entry, fields []*orb.ScalarField) (*orb.Wavefunction, error) {
	if len(entries) != len(fields) {
		return nil, orb.NewParseError(format, path, 0, nil, "%d orbital names for %d grids", len(entries), len(fields))
	}
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Sym != sorted[j].Sym {
			return sorted[i].Sym < sorted[j].Sym
		}
		return sorted[i].Num < sorted[j].Num
	})
	orbs := make([]*orb.Orbital, len(sorted))
	ordered := make([]*orb.ScalarField, len(sorted))
	for i, e := range sorted {
		if e.Block < 0 || e.Block >= len(fields) {
			return nil, orb.NewParseError(format, path, 0, nil, "orbital %q refers to missing grid %d", e.Label, e.Block)
		}
		o := &orb.Orbital{Energy: e.Energy, EnergyValid: e.EnergyValid, Occupation: e.Occupation, Type: e.Type, Label: e.Label, Number: e.Num}
		if o.Type == 0 {
			o.Type = '?'
		}
		if e.Sym > 0 {
			o.Irrep = e.Sym - 1
			o.Sym = fmt.Sprint(e.Sym)
		}
		orbs[i] = o
		f := fields[e.Block]
		f.Orbital = i
		f.Label = e.Label
		ordered[i] = f
	}
	wf := &orb.Wavefunction{Format: format, Source: path, Title: title, Mol: mol, Fields: ordered}
	wf.Sets = []*orb.OrbitalSet{orb.NewOrbitalSet("Grid orbitals", orb.StateDensity, 0, orb.NoSpin, orbs)}
	wf.NeedsCompanion = "a container file with the basis set and all the orbitals"
	return wf, nil
}

// Resolve maps the orbitals stored in a grid wavefunction onto the
// orbitals of companion, which must have a basis set. The result has the
// companion's basis and orbitals and the grid's fields, each tagged with
// the index of its orbital in the companion's set. Orbitals are matched by
// irrep and number within the irrep, or by number within the whole set
// when the grid file gives no irrep. Orbitals without a number are
// matched by position.
func Resolve(wf, companion *orb.Wavefunction) (*orb.Wavefunction, error) {
	if companion == nil || companion.Basis == nil || len(companion.Sets) == 0 {
		return nil, &orb.IncompleteDataError{Format: wf.Format, File: wf.Source, Missing: "basis set", Need: wf.NeedsCompanion}
	}
	target := companion.Sets[0]
	byIrrep := make(map[int][]int)
	for i, o := range target.Orbitals {
		byIrrep[o.Irrep] = append(byIrrep[o.Irrep], i)
	}
	ret := &orb.Wavefunction{
		Format: wf.Format, Source: wf.Source, Title: wf.Title,
		Mol: companion.Mol.Copy(), Basis: companion.Basis.Copy(),
		Sets: []*orb.OrbitalSet{target.Copy()}, Warnings: wf.Warnings,
	}
	grid := wf.Sets[0]
	for _, f := range wf.Fields {
		if f.Orbital < 0 || f.Orbital >= grid.Len() {
			continue
		}
		o := grid.Orbitals[f.Orbital]
		idx := -1
		list := byIrrep[o.Irrep]
		switch {
		case o.Number < 0:
		case o.Number == 0:
			if f.Orbital < target.Len() {
				idx = f.Orbital
			}
		case o.Sym == "":
			if o.Number <= target.Len() {
				idx = o.Number - 1
			}
		case o.Number <= len(list):
			idx = list[o.Number-1]
		}
		if idx < 0 {
			return nil, &orb.IncompleteDataError{Format: wf.Format, File: wf.Source, Missing: fmt.Sprintf("orbital %s", o.Name(f.Orbital)), Need: "a companion with the same orbitals"}
		}
		g := f.Copy()
		g.Orbital = idx
		ret.Fields = append(ret.Fields, g)
	}
	return ret, nil
}
