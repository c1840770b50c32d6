/*
 * formats/luscus/luscus_test.go, part of gorbital.
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

package luscus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	orb "github.com/rmera/gorbital"
)

const header = `2
 test molecule
H 0.0 0.0 0.37
H 0.0 0.0 -0.37
<GRID>
 N_of_MO= 2 N_of_Grids= 2 N_of_Points= 12 Block_Size= 5 N_Blocks= 3 Is_cutoff= 0 CutOff= 0.0
 N_P= 12
 Net= 2 2 3
 Origin= 0.0 0.0 0.0
 Axis_1= 1.0 0.0 0.0
 Axis_2= 0.0 1.0 0.0
 Axis_3= 0.0 0.0 4.0
 ORBOFF= 0 0
 GridName= orbital sym= 1 index= 2 Energ= ******** occ= 0.0000 type= s
 GridName= orbital sym= 1 index= 1 Energ= -0.5000 occ= 2.0000 type= i
 <DENSITY>
`

// luscusFile returns a file whose grid m has value 100*m+p at point p.
func luscusFile() []byte {
	var b bytes.Buffer
	b.WriteString(header)
	for start := 0; start < 12; start += 5 {
		end := min(start+5, 12)
		for m := 0; m < 2; m++ {
			for p := start; p < end; p++ {
				binary.Write(&b, binary.LittleEndian, float64(100*m+p))
			}
		}
	}
	return b.Bytes()
}

func TestRead(Te *testing.T) {
	data := luscusFile()
	if !Sniff(data[:200]) {
		Te.Errorf("not recognized as a Luscus file")
	}
	wf, err := Parse(bytes.NewReader(data), "test.lus", orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Basis != nil || wf.NeedsCompanion == "" {
		Te.Errorf("a grid file has no basis set")
	}
	if wf.Mol.Len() != 2 || math.Abs(wf.Mol.Atoms[0].Coords[2]-0.37*orb.A2Bohr) > 1e-12 || wf.Mol.Atoms[1].Z != 1 {
		Te.Errorf("wrong atoms")
	}
	set := wf.Sets[0]
	if set.Len() != 2 || len(wf.Fields) != 2 {
		Te.Fatalf("expected 2 orbitals and 2 fields")
	}
	//sorted by number: the second grid comes first
	if set.Orbitals[0].Number != 1 || set.Orbitals[0].Type != 'I' || set.Orbitals[0].Occupation != 2 || !set.Orbitals[0].EnergyValid {
		Te.Errorf("wrong first orbital %+v", set.Orbitals[0])
	}
	if set.Orbitals[1].EnergyValid || len(wf.Warnings) != 1 {
		Te.Errorf("the starred energy must be invalid and produce a warning")
	}
	for m, f := range wf.Fields {
		if f.Orbital != m {
			Te.Errorf("field %d tagged with orbital %d", m, f.Orbital)
		}
		block := 1 - m
		for p, v := range f.Values {
			if v != float64(100*block+p) {
				Te.Fatalf("field %d point %d: %g", m, p, v)
			}
		}
	}
	if pt := wf.Fields[0].Spec.Point(1, 1, 2); pt != [3]float64{1, 1, 4} {
		Te.Errorf("wrong grid geometry, last point at %v", pt)
	}
}

func TestResolve(Te *testing.T) {
	wf, err := Parse(bytes.NewReader(luscusFile()), "test.lus", orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := Resolve(wf, nil); !orb.IsIncomplete(err) {
		Te.Errorf("expected missing data without companion, got %v", err)
	}
	comp := &orb.Wavefunction{Mol: wf.Mol.Copy(), Basis: orb.NewBasisSet([]*orb.Shell{
		orb.NewShell(0, 0, false, []orb.Primitive{{Exp: 1, Coef: 1}}),
		orb.NewShell(1, 0, false, []orb.Primitive{{Exp: 1, Coef: 1}}),
	})}
	var orbs []*orb.Orbital
	for i := 0; i < 3; i++ {
		orbs = append(orbs, &orb.Orbital{Coeffs: []float64{1, float64(i)}, Label: fmt.Sprint(i)})
	}
	comp.Sets = []*orb.OrbitalSet{orb.NewOrbitalSet("full", orb.StateDensity, 0, orb.NoSpin, orbs)}
	res, err := Resolve(wf, comp)
	if err != nil {
		Te.Fatal(err)
	}
	if res.Basis == nil || res.Sets[0].Len() != 3 || len(res.Fields) != 2 {
		Te.Fatalf("wrong resolved wavefunction")
	}
	if res.Fields[0].Orbital != 0 || res.Fields[1].Orbital != 1 {
		Te.Errorf("fields mapped to orbitals %d and %d", res.Fields[0].Orbital, res.Fields[1].Orbital)
	}
}

func TestTruncated(Te *testing.T) {
	data := luscusFile()
	_, err := Parse(bytes.NewReader(data[:len(data)-8]), "short.lus", orb.DefaultReadOptions())
	if !orb.IsParse(err) {
		Te.Errorf("expected a parse error for truncated data, got %v", err)
	}
}

func TestOversizedHeader(Te *testing.T) {
	data := string(luscusFile())
	for name, text := range map[string]string{
		"points": strings.Replace(data, "Net= 2 2 3", "Net= 3000000 3000000 3000000", 1),
		"huge":   strings.Replace(data, "Net= 2 2 3", "Net= 1e300 1 1", 1),
		"atoms":  strings.Replace(data, "2\n test molecule", "1000000000\n test molecule", 1),
	} {
		_, err := Parse(strings.NewReader(text), name+".lus", orb.DefaultReadOptions())
		if !orb.IsParse(err) {
			Te.Errorf("%s: expected a parse error, got %v", name, err)
		}
	}
}
