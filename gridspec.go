/*
 * gridspec.go, part of gorbital.
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
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	v3 "github.com/rmera/gorbital/v3"
	"gonum.org/v1/gonum/floats"
)

// GridSpec is a lattice of points Origin + i*Axes[0] + j*Axes[1] + k*Axes[2],
// with 0 <= i < Counts[0] and so on. Axes are the (possibly skewed) step
// vectors, in bohr.
type GridSpec struct {
	Origin [3]float64
	Axes   [3][3]float64
	Counts [3]int
}

// NewOrthoGrid returns an axis-aligned grid with the given origin, steps
// and counts.
func NewOrthoGrid(origin [3]float64, steps [3]float64, counts [3]int) GridSpec {
	var G GridSpec
	G.Origin = origin
	G.Counts = counts
	for i := 0; i < 3; i++ {
		G.Axes[i][i] = steps[i]
	}
	return G
}

// Len returns the total number of points.
func (G GridSpec) Len() int {
	return G.Counts[0] * G.Counts[1] * G.Counts[2]
}

// Index returns the position of point (i,j,k) in a value slice, where the
// last index runs fastest.
func (G GridSpec) Index(i, j, k int) int {
	return (i*G.Counts[1]+j)*G.Counts[2] + k
}

// Point returns the cartesian coordinates of the point (i,j,k).
func (G GridSpec) Point(i, j, k int) [3]float64 {
	var ret [3]float64
	for c := 0; c < 3; c++ {
		ret[c] = G.Origin[c] + float64(i)*G.Axes[0][c] + float64(j)*G.Axes[1][c] + float64(k)*G.Axes[2][c]
	}
	return ret
}

// Lattice returns the step vectors as the rows of a matrix.
func (G GridSpec) Lattice() *v3.Matrix {
	return v3.FromArrays(G.Axes[:])
}

// CellVolume returns the volume of one lattice cell.
func (G GridSpec) CellVolume() float64 {
	return math.Abs(G.Lattice().Det())
}

// Orthogonal returns true if the step vectors are mutually orthogonal
// within a relative tolerance of 1e-10.
func (G GridSpec) Orthogonal() bool {
	for a := 0; a < 3; a++ {
		for b := a + 1; b < 3; b++ {
			d := floats.Dot(G.Axes[a][:], G.Axes[b][:])
			n := floats.Norm(G.Axes[a][:], 2) * floats.Norm(G.Axes[b][:], 2)
			if math.Abs(d) > 1e-10*n {
				return false
			}
		}
	}
	return true
}

// Validate checks that the grid has points and a non-degenerate lattice.
func (G GridSpec) Validate() error {
	for _, c := range G.Counts {
		if c < 1 {
			return fmt.Errorf("grid with %v points", G.Counts)
		}
	}
	if G.CellVolume() == 0 {
		return fmt.Errorf("degenerate grid axes %v", G.Axes)
	}
	return nil
}

// Hash returns an identity for the grid, equal for equal specs.
func (G GridSpec) Hash() uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	put := func(f float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		h.Write(buf)
	}
	for i := 0; i < 3; i++ {
		put(G.Origin[i])
		for j := 0; j < 3; j++ {
			put(G.Axes[i][j])
		}
		binary.LittleEndian.PutUint64(buf, uint64(G.Counts[i]))
		h.Write(buf)
	}
	return h.Sum64()
}

// ScalarField is a set of values on the points of a grid, tagged with
// what produced it.
type ScalarField struct {
	Spec    GridSpec
	Values  []float64 //Spec.Len() values, the last grid index runs fastest
	Kind    DensityKind
	State   int
	Spin    Spin
	Orbital int //-1 for densities
	Label   string
}

// NewScalarField returns a zero-filled field on spec.
func NewScalarField(spec GridSpec) *ScalarField {
	return &ScalarField{Spec: spec, Values: make([]float64, spec.Len()), Orbital: -1}
}

// At returns the value at point (i,j,k).
func (S *ScalarField) At(i, j, k int) float64 {
	return S.Values[S.Spec.Index(i, j, k)]
}

// Set sets the value at point (i,j,k).
func (S *ScalarField) Set(i, j, k int, v float64) {
	S.Values[S.Spec.Index(i, j, k)] = v
}

// Range returns the minimum and maximum values, ignoring NaNs. Both are
// NaN if there are no finite values.
func (S *ScalarField) Range() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range S.Values {
		if math.IsNaN(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if math.IsInf(min, 1) {
		return math.NaN(), math.NaN()
	}
	return min, max
}

// Integrate returns the sum of all the values times the cell volume.
// NaN values are skipped.
func (S *ScalarField) Integrate() float64 {
	s := floats.Sum(S.Values)
	if math.IsNaN(s) {
		s = 0
		for _, v := range S.Values {
			if !math.IsNaN(v) {
				s += v
			}
		}
	}
	return s * S.Spec.CellVolume()
}

// Copy returns a deep copy of the field.
func (S *ScalarField) Copy() *ScalarField {
	ret := *S
	ret.Values = append([]float64(nil), S.Values...)
	return &ret
}
