/*
 * formats/molden/molden_test.go, part of gorbital.
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

package molden

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/grid"
)

func TestStarredEnergy(Te *testing.T) {
	wf, err := Read("testdata/h2_starred.molden", orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Title != "H2 with an overflowed energy" {
		Te.Errorf("title %q", wf.Title)
	}
	if len(wf.Sets) != 1 || wf.Sets[0].Len() != 3 {
		Te.Fatalf("expected one set with 3 orbitals")
	}
	set := wf.Sets[0]
	if set.Orbitals[1].EnergyValid || !set.Orbitals[0].EnergyValid || !set.Orbitals[2].EnergyValid {
		Te.Errorf("wrong energy validity")
	}
	if len(wf.Warnings) != 1 || wf.Warnings[0].Line != 28 {
		Te.Errorf("expected one warning at line 28, got %v", wf.Warnings)
	}
	if d := cmp.Diff([]int{0, 2}, set.ByEnergy()); d != "" {
		Te.Errorf("energy order (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]float64{1, 0}, set.Orbitals[2].Coeffs); d != "" {
		Te.Errorf("omitted coefficients must be zero (-want +got):\n%s", d)
	}
	if set.Orbitals[1].Sym != "b1u" || set.Orbitals[1].Irrep != 1 || set.Orbitals[2].Irrep != 0 {
		Te.Errorf("wrong symmetry labels %q %d", set.Orbitals[1].Sym, set.Orbitals[1].Irrep)
	}
	//the orbital without energy still counts for the density
	E, err := grid.New(wf, orb.DefaultConfig())
	if err != nil {
		Te.Fatal(err)
	}
	spec := orb.NewOrthoGrid([3]float64{-1, -1, -1.5}, [3]float64{0.5, 0.5, 0.5}, [3]int{5, 5, 7})
	ctx := context.Background()
	rho, err := E.Density(ctx, set, nil, spec)
	if err != nil {
		Te.Fatal(err)
	}
	f0, err := E.Orbital(ctx, set, 0, spec)
	if err != nil {
		Te.Fatal(err)
	}
	f1, err := E.Orbital(ctx, set, 1, spec)
	if err != nil {
		Te.Fatal(err)
	}
	for i, v := range rho.Values {
		want := f0.Values[i]*f0.Values[i] + f1.Values[i]*f1.Values[i]
		if math.Abs(v-want) > 1e-12 {
			Te.Fatalf("density at point %d is %g, expected %g", i, v, want)
		}
	}
}

func TestSTO(Te *testing.T) {
	wf, err := Parse(strings.NewReader("[Molden Format]\n[Atoms] AU\nH 1 1 0 0 0\n[STO]\n1 0 0 0 1 1.0 1.0\n"), "sto", orb.DefaultReadOptions())
	if !orb.IsParse(err) {
		Te.Errorf("expected a parse error for STO files, got %v %v", wf, err)
	}
}

func water() *orb.Wavefunction {
	mol := orb.NewMolecule([]*orb.Atom{
		{Name: "O", Z: 8},
		{Name: "H", Z: 1, Coords: [3]float64{0, 1.43, 1.1}},
		{Name: "H", Z: 1, Coords: [3]float64{0, -1.43, 1.1}},
	})
	shells := []*orb.Shell{
		orb.NewShell(0, 0, false, []orb.Primitive{{Exp: 130.7, Coef: 0.154}, {Exp: 23.8, Coef: 0.535}}),
		orb.NewShell(0, 1, false, []orb.Primitive{{Exp: 5.03, Coef: 0.156}, {Exp: 1.17, Coef: 0.607}}),
		orb.NewShell(0, 2, false, []orb.Primitive{{Exp: 1.2, Coef: 1}}),
		orb.NewShell(0, 3, true, []orb.Primitive{{Exp: 0.9, Coef: 1}}),
		orb.NewShell(1, 0, false, []orb.Primitive{{Exp: 3.42, Coef: 0.154}, {Exp: 0.62, Coef: 0.535}}),
		orb.NewShell(2, 0, false, []orb.Primitive{{Exp: 3.42, Coef: 0.154}, {Exp: 0.62, Coef: 0.535}}),
	}
	B := orb.NewBasisSet(shells)
	B.Normalize()
	n := B.NBas()
	wf := &orb.Wavefunction{Format: Name, Title: "water", Mol: mol, Basis: B}
	for _, spin := range []orb.Spin{orb.Alpha, orb.Beta} {
		var orbs []*orb.Orbital
		for k := 0; k < n; k++ {
			c := make([]float64, n)
			for i := range c {
				c[i] = math.Cos(float64(3*k+i+int(spin))) / 3
			}
			o := &orb.Orbital{Coeffs: c, Energy: -2 + 0.1*float64(k), EnergyValid: k != 2, Spin: spin, Sym: "a"}
			if k < 5 {
				o.Occupation = 1
			}
			orbs = append(orbs, o)
		}
		wf.Sets = append(wf.Sets, orb.NewOrbitalSet(spin.String(), orb.StateDensity, 0, spin, orbs))
	}
	return wf
}

// coefficient returns the coefficient of component c of shell s.
func coefficient(s *orb.Shell, c orb.Component, coeffs []float64) (float64, bool) {
	for i, d := range s.Comps {
		if d == c {
			return coeffs[s.Funcs[i]], true
		}
	}
	return 0, false
}

func TestRoundTrip(Te *testing.T) {
	wf := water()
	path := filepath.Join(Te.TempDir(), "water.molden")
	if err := Write(path, wf); err != nil {
		Te.Fatal(err)
	}
	rd, err := Read(path, orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	approx := cmpopts.EquateApprox(0, 1e-9)
	if d := cmp.Diff(wf.Mol.Atoms[1].Coords, rd.Mol.Atoms[1].Coords, approx); d != "" {
		Te.Errorf("coordinates (-want +got):\n%s", d)
	}
	if len(rd.Basis.Shells) != len(wf.Basis.Shells) {
		Te.Fatalf("%d shells read", len(rd.Basis.Shells))
	}
	for i, s := range rd.Basis.Shells {
		w := wf.Basis.Shells[i]
		if s.L != w.L || s.Cartesian != w.Cartesian || s.Atom != w.Atom {
			Te.Errorf("shell %d: l=%d cart=%v atom=%d", i, s.L, s.Cartesian, s.Atom)
		}
		if d := cmp.Diff(w.Prims, s.Prims, approx); d != "" {
			Te.Errorf("shell %d primitives (-want +got):\n%s", i, d)
		}
	}
	if len(rd.Sets) != 2 || rd.Sets[1].Spin != orb.Beta {
		Te.Fatalf("expected alpha and beta sets, got %d", len(rd.Sets))
	}
	for si, set := range wf.Sets {
		got := rd.Sets[si]
		if got.Len() != set.Len() {
			Te.Fatalf("set %d has %d orbitals", si, got.Len())
		}
		for k, o := range set.Orbitals {
			g := got.Orbitals[k]
			if g.EnergyValid != o.EnergyValid || (o.EnergyValid && math.Abs(g.Energy-o.Energy) > 1e-8) || g.Occupation != o.Occupation || g.Spin != o.Spin {
				Te.Errorf("set %d orbital %d: %+v", si, k, g)
			}
			for i, s := range wf.Basis.Shells {
				for j, c := range s.Comps {
					v, ok := coefficient(rd.Basis.Shells[i], c, g.Coeffs)
					if !ok || math.Abs(v-o.Coeffs[s.Funcs[j]]) > 1e-12 {
						Te.Errorf("set %d orbital %d, shell %d component %v: got %g, want %g", si, k, i, c, v, o.Coeffs[s.Funcs[j]])
					}
				}
			}
		}
	}
}

func TestFlags(Te *testing.T) {
	wf := water()
	f, err := flags(wf.Basis)
	if err != nil {
		Te.Fatal(err)
	}
	if d := cmp.Diff([]string{"[5D10F]"}, f); d != "" {
		Te.Errorf("flags (-want +got):\n%s", d)
	}
	wf.Basis.Shells = append(wf.Basis.Shells, orb.NewShell(1, 2, true, []orb.Primitive{{Exp: 1, Coef: 1}}))
	if _, err := flags(wf.Basis); err == nil {
		Te.Errorf("mixed d shells must be rejected")
	}
}
