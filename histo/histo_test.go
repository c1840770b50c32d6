/*
 * histo/histo_test.go, part of gorbital.
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

package histo

import (
	"encoding/json"
	"math"
	"testing"

	orb "github.com/rmera/gorbital"
)

func field(orbital int, values ...float64) *orb.ScalarField {
	f := orb.NewScalarField(orb.NewOrthoGrid([3]float64{}, [3]float64{1, 1, 1}, [3]int{1, 1, len(values)}))
	copy(f.Values, values)
	f.Orbital = orbital
	return f
}

func TestFromField(Te *testing.T) {
	f := field(-1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, math.NaN())
	D := FromField(f, 5)
	for i, v := range D.View() {
		if v != 2 {
			Te.Errorf("bin %d has %g points, want 2", i, v)
		}
	}
	if D.Total() != 10 {
		Te.Errorf("total %d, want 10", D.Total())
	}
	D.Normalize()
	if math.Abs(D.Sum()-1) > 1e-12 {
		Te.Errorf("normalized sum %g", D.Sum())
	}
	D.AddData(0.5, 100)
	if D.Total() != 12 || !D.Normalized() || math.Abs(D.View()[0]-3.0/12) > 1e-12 {
		Te.Errorf("AddData: total %d, first bin %g", D.Total(), D.View()[0])
	}
	j, err := json.Marshal(D)
	if err != nil {
		Te.Fatal(err)
	}
	D2 := new(Data)
	if err := json.Unmarshal(j, D2); err != nil {
		Te.Fatal(err)
	}
	diff := new(Data)
	if err := diff.Sub(D, D2, true); err != nil {
		Te.Fatal(err)
	}
	if diff.Sum() != 0 {
		Te.Errorf("JSON changed the histogram: %v", D2)
	}
	other := NewData([]float64{0, 1}, nil)
	if err := diff.Add(D, other); err == nil {
		Te.Error("histograms with different dividers added")
	}
}

func TestIsoRange(Te *testing.T) {
	lo, hi, iso := IsoRange(field(-1, 1, 2, 3, 4, 0), 0.5)
	if iso != 3 || hi != 4 || lo != 1 {
		Te.Errorf("density: got %g %g %g, want 1 4 3", lo, hi, iso)
	}
	_, hi, iso = IsoRange(field(0, -2, 1), 0.5)
	if iso != 2 || hi != 2 {
		Te.Errorf("orbital: got iso %g hi %g, want 2 2", iso, hi)
	}
	if lo, hi, iso := IsoRange(field(-1, 0, 0), 0.5); lo != 0 || hi != 0 || iso != 0 {
		Te.Error("empty field should give zeros")
	}
}

func TestDescribe(Te *testing.T) {
	S := Describe(field(-1, 1, 3, math.NaN()))
	if S.N != 2 || S.NaN != 1 || S.Min != 1 || S.Max != 3 || S.Mean != 2 {
		Te.Errorf("wrong stats %+v", S)
	}
}
