/*
 * gonum.go, part of gorbital.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space. Within the package it is understood
// that a "vector" is a row vector, i.e. the cartesian coordinates of a point.
type Matrix struct {
	*mat.Dense
}

func Matrix2Dense(A *Matrix) *mat.Dense {
	return A.Dense
}

func Dense2Matrix(A *mat.Dense) *Matrix {
	return &Matrix{A}
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(rows, cols, data)}, nil
}

// Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	return &Matrix{mat.NewDense(vecs, 3, nil)}
}

// FromArrays builds a Matrix with one vector per element of vecs.
func FromArrays(vecs [][3]float64) *Matrix {
	if len(vecs) == 0 {
		panic(ErrNotEnoughElements)
	}
	data := make([]float64, 0, 3*len(vecs))
	for _, v := range vecs {
		data = append(data, v[0], v[1], v[2])
	}
	return &Matrix{mat.NewDense(len(vecs), 3, data)}
}

// NVecs returns the number of vectors (rows) in the matrix.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

// VecView returns a view of the ith vector of the matrix.
func (F *Matrix) VecView(i int) *Matrix {
	return &Matrix{F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)}
}

// Vec returns a copy of the ith vector as an array.
func (F *Matrix) Vec(i int) [3]float64 {
	return [3]float64{F.At(i, 0), F.At(i, 1), F.At(i, 2)}
}

// SetVec sets the ith vector of the matrix to v.
func (F *Matrix) SetVec(i int, v [3]float64) {
	for j := 0; j < 3; j++ {
		F.Set(i, j, v[j])
	}
}

// Bounds returns the minimum and maximum value of each column.
func (F *Matrix) Bounds() (min, max [3]float64) {
	n := F.NVecs()
	for j := 0; j < 3; j++ {
		min[j] = math.Inf(1)
		max[j] = math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			v := F.At(i, j)
			min[j] = math.Min(min[j], v)
			max[j] = math.Max(max[j], v)
		}
	}
	return min, max
}

// BoxCenter returns the center of the axis-aligned box enclosing all vectors.
func (F *Matrix) BoxCenter() [3]float64 {
	min, max := F.Bounds()
	return [3]float64{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2, (min[2] + max[2]) / 2}
}

// Det returns the determinant of a 3x3 Matrix. Panics if the matrix is not 3x3.
func (F *Matrix) Det() float64 {
	r, c := F.Dims()
	if r != 3 || c != 3 {
		panic(ErrDeterminant)
	}
	return mat.Det(F.Dense)
}

// InverseMetric returns the inverse of the metric tensor F*F^T of a 3x3 matrix
// whose rows are lattice vectors.
func (F *Matrix) InverseMetric() (*mat.Dense, error) {
	r, c := F.Dims()
	if r != 3 || c != 3 {
		return nil, Error{string(ErrDeterminant), []string{"InverseMetric"}, true}
	}
	g := mat.NewDense(3, 3, nil)
	g.Mul(F.Dense, F.Dense.T())
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(g); err != nil {
		return nil, Error{"Singular lattice: " + err.Error(), []string{"InverseMetric"}, true}
	}
	return inv, nil
}

//Errors

type Error struct {
	message  string
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

// Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix      = PanicMsg("gorbital/v3: A Matrix should have 3 columns")
	ErrNotEnoughElements = PanicMsg("gorbital/v3: not enough elements in Matrix")
	ErrDeterminant       = PanicMsg("gorbital/v3: Determinants are only available for 3x3 matrices")
	ErrShape             = PanicMsg("gorbital/v3: Dimension mismatch")
)
