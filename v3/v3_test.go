/*
 * v3_test.go, part of gorbital.
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

package v3

import (
	"math"
	"testing"
)

func TestBounds(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, -1, 5, 0, 2, -2, 1})
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 3 {
		Te.Errorf("Expected 3 vectors, got %d", A.NVecs())
	}
	min, max := A.Bounds()
	if min != [3]float64{-1, -2, 0} || max != [3]float64{2, 5, 3} {
		Te.Errorf("Wrong bounds %v %v", min, max)
	}
	c := A.BoxCenter()
	if c != [3]float64{0.5, 1.5, 1.5} {
		Te.Errorf("Wrong box center %v", c)
	}
	A.SetVec(1, [3]float64{7, 8, 9})
	if A.Vec(1) != [3]float64{7, 8, 9} || A.VecView(1).At(0, 2) != 9 {
		Te.Errorf("SetVec/Vec mismatch: %v", A.Vec(1))
	}
}

func TestNewMatrixError(Te *testing.T) {
	if _, err := NewMatrix([]float64{1, 2}); err == nil {
		Te.Error("Expected an error for a slice not divisible by 3")
	}
}

func TestLattice(Te *testing.T) {
	L := FromArrays([][3]float64{{2, 0, 0}, {1, 1, 0}, {0, 0, 3}})
	if d := L.Det(); math.Abs(d-6) > 1e-12 {
		Te.Errorf("Expected determinant 6, got %f", d)
	}
	inv, err := L.InverseMetric()
	if err != nil {
		Te.Fatal(err)
	}
	//G = L L^T = [[4 2 0][2 2 0][0 0 9]], G^-1 = [[0.5 -0.5 0][-0.5 1 0][0 0 1/9]]
	want := [][]float64{{0.5, -0.5, 0}, {-0.5, 1, 0}, {0, 0, 1.0 / 9}}
	for i := range want {
		for j := range want[i] {
			if math.Abs(inv.At(i, j)-want[i][j]) > 1e-12 {
				Te.Errorf("InverseMetric(%d,%d)=%f, want %f", i, j, inv.At(i, j), want[i][j])
			}
		}
	}
	if _, err := FromArrays([][3]float64{{1, 0, 0}, {2, 0, 0}, {0, 0, 1}}).InverseMetric(); err == nil {
		Te.Error("Expected an error for a singular lattice")
	}
}
