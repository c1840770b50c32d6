/*
 * formats/inporb/inporb_test.go, part of gorbital.
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

package inporb

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/scan"
	"gonum.org/v1/gonum/mat"
)

func TestFiveBasisThreeOrbitals(Te *testing.T) {
	wf, err := Read("testdata/five.inporb", orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Basis != nil || wf.NeedsCompanion == "" {
		Te.Errorf("a standalone InpOrb file has no basis set")
	}
	if len(wf.Sets) != 1 || wf.Sets[0].Len() != 3 {
		Te.Fatalf("expected 3 orbitals")
	}
	set := wf.Sets[0]
	for i, o := range set.Orbitals {
		if len(o.Coeffs) != 5 {
			Te.Errorf("orbital %d has %d coefficients", i, len(o.Coeffs))
		}
	}
	if d := cmp.Diff([]float64{-0.2, 0.5, 0, 0, 0.8}, set.Orbitals[2].Coeffs); d != "" {
		Te.Errorf("coefficients (-want +got):\n%s", d)
	}
	if set.Orbitals[1].EnergyValid || len(wf.Warnings) != 1 {
		Te.Errorf("the starred energy must be invalid and produce a warning")
	}
	var types []byte
	for _, o := range set.Orbitals {
		types = append(types, o.Type)
	}
	if string(types) != "IIS" {
		Te.Errorf("types %q, expected IIS", types)
	}
	if d := cmp.Diff([]int{0, 1, 2}, set.ByOccupationEnergy()); d != "" {
		Te.Errorf("order (-want +got):\n%s", d)
	}
}

// companion has 5 basis functions: s and p on the first atom, s on the
// second.
func companion() *orb.Wavefunction {
	mol := orb.NewMolecule([]*orb.Atom{{Name: "Li", Z: 3}, {Name: "H", Z: 1, Coords: [3]float64{0, 0, 3}}})
	B := orb.NewBasisSet([]*orb.Shell{
		orb.NewShell(0, 0, false, []orb.Primitive{{Exp: 1, Coef: 1}}),
		orb.NewShell(0, 1, false, []orb.Primitive{{Exp: 0.5, Coef: 1}}),
		orb.NewShell(1, 0, false, []orb.Primitive{{Exp: 0.8, Coef: 1}}),
	})
	return &orb.Wavefunction{Format: "container", Mol: mol, Basis: B}
}

func TestCompanion(Te *testing.T) {
	opt := orb.DefaultReadOptions()
	opt.Companion = companion()
	wf, err := Read("testdata/five.inporb", opt)
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Basis == nil || wf.Mol.Len() != 2 || wf.NeedsCompanion != "" {
		Te.Fatalf("basis not taken from the companion")
	}
	if d := cmp.Diff([]float64{0.7, 0.3, 0, 0, 0.1}, wf.Sets[0].Orbitals[0].Coeffs); d != "" {
		Te.Errorf("coefficients (-want +got):\n%s", d)
	}
	//round trip through the writer
	path := filepath.Join(Te.TempDir(), "out.inporb")
	if err := Write(path, wf); err != nil {
		Te.Fatal(err)
	}
	rd, err := Read(path, opt)
	if err != nil {
		Te.Fatal(err)
	}
	approx := cmpopts.EquateApprox(1e-14, 1e-15)
	for k, o := range wf.Sets[0].Orbitals {
		g := rd.Sets[0].Orbitals[k]
		if d := cmp.Diff(o.Coeffs, g.Coeffs, approx); d != "" {
			Te.Errorf("orbital %d (-want +got):\n%s", k, d)
		}
		if g.Type != o.Type || g.Occupation != o.Occupation || g.EnergyValid != o.EnergyValid {
			Te.Errorf("orbital %d: type %c occupation %g", k, g.Type, g.Occupation)
		}
		if o.EnergyValid && math.Abs(g.Energy-o.Energy) > 1e-4*math.Abs(o.Energy) {
			Te.Errorf("orbital %d energy %g, expected %g", k, g.Energy, o.Energy)
		}
	}
	other := companion()
	other.Basis.Shells = other.Basis.Shells[:2]
	opt.Companion = other
	if _, err := Read(path, opt); !orb.IsParse(err) {
		Te.Errorf("a companion with a different basis size must be rejected, got %v", err)
	}
}

func TestSymmetryCompanion(Te *testing.T) {
	a := 1 / math.Sqrt2
	comp := &orb.Wavefunction{
		Mol: orb.NewMolecule([]*orb.Atom{{Name: "H", Z: 1, Coords: [3]float64{0, 0, 0.7}}, {Name: "H", Z: 1, Coords: [3]float64{0, 0, -0.7}}}),
		Basis: orb.NewBasisSet([]*orb.Shell{
			orb.NewShell(0, 0, false, []orb.Primitive{{Exp: 0.5, Coef: 1}}),
			orb.NewShell(1, 0, false, []orb.Primitive{{Exp: 0.5, Coef: 1}}),
		}),
	}
	comp.Basis.NBasSym = []int{1, 1}
	comp.Basis.Irreps = []string{"ag", "b1u"}
	comp.Basis.Desym = mat.NewDense(2, 2, []float64{a, a, a, -a})
	text := `#INPORB 2.2
#INFO
*
       1       2       0
       1       1
       1       1
#ORB
* ORBITAL    1    1
  1.0
* ORBITAL    2    1
  1.0
#UORB
* ORBITAL    1    1
  1.0
* ORBITAL    2    1
 -1.0
#OCC
  1.0 0.0
#UOCC
  1.0 0.0
#INDEX
* 1234567890
0 i
* 1234567890
0 s
`
	F, err := Scan(scan.New(strings.NewReader(text)), "h2")
	if err != nil {
		Te.Fatal(err)
	}
	wf, err := F.Wavefunction(orb.ReadOptions{Companion: comp})
	if err != nil {
		Te.Fatal(err)
	}
	if len(wf.Sets) != 2 || wf.Sets[1].Spin != orb.Beta {
		Te.Fatalf("expected alpha and beta sets")
	}
	approx := cmpopts.EquateApprox(0, 1e-15)
	if d := cmp.Diff([]float64{a, -a}, wf.Sets[0].Orbitals[1].Coeffs, approx); d != "" {
		Te.Errorf("alpha b1u orbital (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]float64{-a, a}, wf.Sets[1].Orbitals[1].Coeffs, approx); d != "" {
		Te.Errorf("beta b1u orbital (-want +got):\n%s", d)
	}
	if wf.Sets[1].Orbitals[1].Sym != "b1u" || wf.Sets[1].Orbitals[1].Type != 'S' {
		Te.Errorf("wrong labels")
	}
	//written back blocked, with the same index
	G, err := FromWavefunction(wf)
	if err != nil {
		Te.Fatal(err)
	}
	var out bytes.Buffer
	if err := G.Encode(&out); err != nil {
		Te.Fatal(err)
	}
	H, err := Scan(scan.New(&out), "again")
	if err != nil {
		Te.Fatal(err)
	}
	if d := cmp.Diff([]float64{-1}, H.Beta[1].SymCoeffs); d != "" {
		Te.Errorf("beta coefficients (-want +got):\n%s", d)
	}
	if H.Alpha[0].Type != 'I' || H.Alpha[1].Type != 'S' || !H.UHF {
		Te.Errorf("index not regenerated")
	}
}

func TestStarredFirstField(Te *testing.T) {
	orbs := `#ORB
* ORBITAL    1    1
  1.0 0.0
* ORBITAL    1    2
  0.0 1.0
`
	energies := `#ONE
* ONE ELECTRON ENERGIES
 *********** -5.0000E-01
`
	index := `#INDEX
* 1234567890
0 is
`
	rhf := "#INPORB 2.2\n#INFO\n* closed shell\n       0       1       0\n       2\n       2\n" +
		orbs + "#OCC\n* OCCUPATION NUMBERS\n  2.0 0.0\n" + energies + index
	uhf := "#INPORB 2.2\n#INFO\n* open shell\n       1       1       0\n       2\n       2\n" +
		orbs + strings.Replace(orbs, "#ORB", "#UORB", 1) +
		"#OCC\n  1.0 0.0\n#UOCC\n  1.0 0.0\n" +
		energies + strings.Replace(energies, "#ONE", "#UONE", 1) + index
	for name, text := range map[string]string{"rhf": rhf, "uhf": uhf} {
		F, err := Scan(scan.New(strings.NewReader(text)), name)
		if err != nil {
			Te.Errorf("%s: %v", name, err)
			continue
		}
		sets := [][]*orb.Orbital{F.Alpha}
		if F.UHF {
			sets = append(sets, F.Beta)
		}
		if name == "uhf" && len(sets) != 2 {
			Te.Errorf("uhf: beta orbitals missing")
		}
		for _, set := range sets {
			if set[0].EnergyValid {
				Te.Errorf("%s: the starred energy must be invalid", name)
			}
			if !set[1].EnergyValid || set[1].Energy != -0.5 {
				Te.Errorf("%s: second energy %g (valid %v), expected -0.5", name, set[1].Energy, set[1].EnergyValid)
			}
		}
		if F.Alpha[0].Type != 'I' || F.Alpha[1].Type != 'S' {
			Te.Errorf("%s: types %c %c, expected I S", name, F.Alpha[0].Type, F.Alpha[1].Type)
		}
	}
}

func TestMergeTypes(Te *testing.T) {
	for _, c := range []struct {
		a, b, want byte
	}{{'i', 'i', 'I'}, {'I', 's', '2'}, {'S', 'I', '2'}, {'1', '1', '1'}} {
		got, err := MergeTypes(c.a, c.b)
		if err != nil || got != c.want {
			Te.Errorf("MergeTypes(%c, %c) = %c, %v", c.a, c.b, got, err)
		}
	}
	if _, err := MergeTypes('I', '2'); err == nil {
		Te.Errorf("inactive and active can't be merged")
	}
}
