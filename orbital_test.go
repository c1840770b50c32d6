/*
 * orbital_test.go, part of gorbital.
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

	"github.com/google/go-cmp/cmp"
)

func testSet() *OrbitalSet {
	orbs := []*Orbital{
		{Energy: -0.5, EnergyValid: true, Occupation: 2, Type: 'I', Irrep: 0},
		{Energy: math.NaN(), EnergyValid: false, Occupation: 2, Type: 'I', Irrep: 0},
		{Energy: -1.5, EnergyValid: true, Occupation: 2, Type: 'F', Irrep: 1},
		{Energy: 0.3, EnergyValid: true, Occupation: 0, Type: 'S', Irrep: 0},
		{Energy: 0.1, EnergyValid: true, Occupation: 0, Type: 'S', Irrep: 1},
	}
	for _, o := range orbs {
		o.Coeffs = []float64{1, 0}
	}
	return NewOrbitalSet("test", StateDensity, 0, NoSpin, orbs)
}

func TestSorting(Te *testing.T) {
	s := testSet()
	if diff := cmp.Diff([]int{2, 0, 4, 3}, s.ByEnergy()); diff != "" {
		Te.Errorf("ByEnergy mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 0, 1, 4, 3}, s.ByOccupationEnergy()); diff != "" {
		Te.Errorf("ByOccupationEnergy mismatch (-want +got):\n%s", diff)
	}
	if h := s.HOMO(); h != 0 {
		Te.Errorf("HOMO should be 0, got %d", h)
	}
	s.Electrons = 6
	if err := s.CheckElectrons(1e-6); err != nil {
		Te.Error(err)
	}
	s.Electrons = 5
	if err := s.CheckElectrons(1e-6); err == nil {
		Te.Error("wrong electron count should be reported")
	}
}

func TestEdits(Te *testing.T) {
	s := testSet()
	r, err := s.Reorder([]int{4, 3, 2, 1, 0})
	if err != nil {
		Te.Fatal(err)
	}
	if r.ID == s.ID {
		Te.Error("edited set kept the ID")
	}
	if r.Orbitals[0].Energy != 0.1 || r.Orbitals[4].Energy != -0.5 {
		Te.Errorf("wrong order after Reorder")
	}
	if _, err := s.Reorder([]int{0, 0, 1, 2, 3}); err == nil {
		Te.Error("repeated index should fail")
	}
	sel, err := s.Select([]int{3, 0})
	if err != nil {
		Te.Fatal(err)
	}
	if sel.Len() != 2 || sel.Orbitals[0].Energy != 0.3 {
		Te.Errorf("wrong selection")
	}
	sel.Orbitals[0].Coeffs[0] = 9
	if s.Orbitals[3].Coeffs[0] != 1 {
		Te.Error("Select shares coefficients with the original")
	}
	t, err := s.SetType(3, 's')
	if err != nil {
		Te.Fatal(err)
	}
	t, err = t.SetType(4, 'd')
	if err != nil {
		Te.Fatal(err)
	}
	if t.Orbitals[4].Type != 'D' || s.Orbitals[4].Type != 'S' {
		Te.Errorf("SetType didn't produce a new set")
	}
	if _, err := s.SetType(0, 'x'); err == nil {
		Te.Error("invalid type accepted")
	}
	counts := t.TypeCounts(2)
	want := []map[byte]int{{'I': 2, 'S': 1}, {'F': 1, 'D': 1}}
	if diff := cmp.Diff(want, counts); diff != "" {
		Te.Errorf("TypeCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumStrings(Te *testing.T) {
	if SpinDensity.String() != "spin" || DensityEigen.String() != "density" {
		Te.Errorf("wrong names %q %q", SpinDensity, DensityEigen)
	}
	for _, s := range []string{DensityKind(-1).String(), DensityKind(17).String(), Tag(-2).String(), Tag(5).String()} {
		if s != "unknown" {
			Te.Errorf("out of range value named %q", s)
		}
	}
}
