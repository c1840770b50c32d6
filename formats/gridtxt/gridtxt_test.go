/*
 * formats/gridtxt/gridtxt_test.go, part of gorbital.
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

package gridtxt

import (
	"fmt"
	"strings"
	"testing"

	orb "github.com/rmera/gorbital"
)

const header = ` Molcas grid
 VERSION=  2.0
Natom= 2
H1 0.0 0.0 0.7
H2 0.0 0.0 -0.7
 Nsym= 1
 Nbas= 2
N_of_MO= 2
 N_of_Grids= 2
Block_Size= 5
 N_Blocks= 3
 Is_cutoff= 0
 CutOff= 0.0
 N_P= 12
 N_INDEX= 0
Net= 1 1 2
Origin= -1.0 0.0 0.0
Axis_1= 2.0 0.0 0.0
Axis_2= 0.0 1.0 0.0
Axis_3= 0.0 0.0 4.0
 GridName=   1   2 ******** (0.0000) s
 GridName=   1   1  -0.5000 (2.0000) i
`

// gridFile returns a file whose grid m has value 100*m+p at point p, with
// a varying number of values per line.
func gridFile() string {
	var b strings.Builder
	b.WriteString(header)
	for start := 0; start < 12; start += 5 {
		end := min(start+5, 12)
		for m := 0; m < 2; m++ {
			fmt.Fprintf(&b, " Title= %d\n", m+1)
			for p := start; p < end; p++ {
				fmt.Fprintf(&b, "%g", float64(100*m+p))
				if p%2 == 0 {
					b.WriteString("\n")
				} else {
					b.WriteString(" ")
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func TestRead(Te *testing.T) {
	data := gridFile()
	if !Sniff([]byte(data)) {
		Te.Errorf("not recognized as a grid file")
	}
	wf, err := Parse(strings.NewReader(data), "test.grid", orb.DefaultReadOptions())
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Mol.Len() != 2 || wf.Mol.Atoms[1].Coords[2] != -0.7 || wf.Mol.Atoms[0].Z != 1 {
		Te.Errorf("wrong atoms")
	}
	set := wf.Sets[0]
	if set.Len() != 2 || len(wf.Fields) != 2 {
		Te.Fatalf("expected 2 orbitals and 2 fields")
	}
	o := set.Orbitals[0]
	if o.Number != 1 || o.Type != 'I' || o.Occupation != 2 || o.Energy != -0.5 {
		Te.Errorf("wrong first orbital %+v", o)
	}
	if set.Orbitals[1].EnergyValid || len(wf.Warnings) != 1 {
		Te.Errorf("the starred energy must be invalid and produce a warning")
	}
	spec := wf.Fields[0].Spec
	if spec.Counts != [3]int{2, 2, 3} || spec.Point(1, 1, 2) != [3]float64{1, 1, 4} {
		Te.Errorf("wrong grid %v, last point %v", spec.Counts, spec.Point(1, 1, 2))
	}
	for m, f := range wf.Fields {
		block := 1 - m
		for p, v := range f.Values {
			if v != float64(100*block+p) {
				Te.Fatalf("field %d point %d: %g", m, p, v)
			}
		}
	}
}

func TestNotGrid(Te *testing.T) {
	data := strings.Replace(gridFile(), "Block_Size=", "BlockSize=", 1)
	if _, err := Parse(strings.NewReader(data), "bad.grid", orb.DefaultReadOptions()); !orb.IsParse(err) {
		Te.Errorf("expected a parse error, got %v", err)
	}
}

func TestOversizedHeader(Te *testing.T) {
	data := gridFile()
	for name, text := range map[string]string{
		"points": strings.Replace(data, "Net= 1 1 2", "Net= 3000000 3000000 3000000", 1),
		"huge":   strings.Replace(data, "Net= 1 1 2", "Net= 1e300 1 1", 1),
		"atoms":  strings.Replace(data, "Natom= 2", "Natom= 1000000000", 1),
	} {
		_, err := Parse(strings.NewReader(text), name+".grid", orb.DefaultReadOptions())
		if !orb.IsParse(err) {
			Te.Errorf("%s: expected a parse error, got %v", name, err)
		}
	}
}
