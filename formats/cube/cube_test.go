/*
 * formats/cube/cube_test.go, part of gorbital.
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

package cube

import (
	"bytes"
	"math"
	"strings"
	"testing"

	orb "github.com/rmera/gorbital"
)

func TestRoundTrip(Te *testing.T) {
	spec := orb.NewOrthoGrid([3]float64{-1, -1, -1}, [3]float64{0.5, 0.5, 0.5}, [3]int{2, 3, 4})
	a := orb.NewScalarField(spec)
	b := orb.NewScalarField(spec)
	a.Orbital, b.Orbital = 2, 4
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				a.Set(i, j, k, float64(100*i+10*j+k))
				b.Set(i, j, k, -float64(100*i+10*j+k))
			}
		}
	}
	mol := orb.NewMolecule([]*orb.Atom{{Name: "H", Z: 1, Coords: [3]float64{0, 0, 1.4}}})
	var buf bytes.Buffer
	if err := Encode(&buf, mol, "two orbitals", a, b); err != nil {
		Te.Fatal(err)
	}
	if !Sniff(buf.Bytes()) {
		Te.Error("Sniff doesn't recognize a written cube")
	}
	wf, err := Parse(&buf, "mem.cube", orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Mol.Len() != 1 || wf.Mol.Atoms[0].Coords[2] != 1.4 {
		Te.Errorf("wrong atoms %v", wf.Mol.Atoms)
	}
	if len(wf.Fields) != 2 || wf.Fields[0].Spec != spec {
		Te.Fatalf("wrong fields %d", len(wf.Fields))
	}
	orbs := wf.Sets[0].Orbitals
	if orbs[0].Number != 3 || orbs[1].Number != 5 {
		Te.Errorf("orbital numbers %d %d, want 3 5", orbs[0].Number, orbs[1].Number)
	}
	for i, v := range wf.Fields[0].Values {
		if v != a.Values[i] || wf.Fields[1].Values[i] != b.Values[i] {
			Te.Fatalf("value %d: %g %g, want %g %g", i, v, wf.Fields[1].Values[i], a.Values[i], b.Values[i])
		}
	}
	if wf.NeedsCompanion == "" {
		Te.Error("a cube has no basis set")
	}
}

const angstrom = `comment
density
    1    0.000000    0.000000    0.000000
   -2    0.529177    0.000000    0.000000
   -1    0.000000    0.529177    0.000000
   -3    0.000000    0.000000    0.529177
    8    8.000000    0.000000    0.000000    0.529177
 1.0 2.0
 3.0 4.0 5.0 6.0
`

func TestAngstrom(Te *testing.T) {
	wf, err := Parse(strings.NewReader(angstrom), "a.cube", orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	f := wf.Fields[0]
	if f.Spec.Counts != [3]int{2, 1, 3} {
		Te.Errorf("counts %v", f.Spec.Counts)
	}
	if math.Abs(f.Spec.Axes[2][2]-1) > 1e-5 || math.Abs(wf.Mol.Atoms[0].Coords[2]-1) > 1e-5 {
		Te.Errorf("lengths not converted to bohr: %v %v", f.Spec.Axes, wf.Mol.Atoms[0].Coords)
	}
	if f.At(1, 0, 2) != 6 || f.At(0, 0, 1) != 2 {
		Te.Errorf("wrong values %v", f.Values)
	}
	if wf.Title != "density" {
		Te.Errorf("title %q", wf.Title)
	}
}

func TestTruncated(Te *testing.T) {
	_, err := Parse(strings.NewReader(angstrom[:len(angstrom)-10]), "a.cube", orb.DefaultReadOptions())
	if !orb.IsParse(err) {
		Te.Errorf("expected a parse error, got %v", err)
	}
}

func TestOversizedHeader(Te *testing.T) {
	//a negative atom count makes the first value line the orbital list
	multi := strings.Replace(angstrom, "    1    0.000000", "   -1    0.000000", 1)
	for name, text := range map[string]string{
		"points":          strings.Replace(angstrom, "   -2    0.529177", "3000000    0.529177", 1),
		"negative points": strings.Replace(angstrom, "   -2    0.529177", "-9223372036854775808    0.529177", 1),
		"atoms":           strings.Replace(angstrom, "    1    0.000000", "-2000000000    0.000000", 1),
		"orbitals":        strings.Replace(multi, " 1.0 2.0\n", " 900000000 1\n", 1),
	} {
		_, err := Parse(strings.NewReader(text), name+".cube", orb.DefaultReadOptions())
		if !orb.IsParse(err) {
			Te.Errorf("%s: expected a parse error, got %v", name, err)
		}
	}
}
