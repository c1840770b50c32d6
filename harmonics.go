/*
 * harmonics.go, part of gorbital.
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

	"gonum.org/v1/gonum/stat/combin"
)

// MaxL is the highest angular momentum supported (h functions).
const MaxL = 5

// AngularLabels are the shell letters, indexed by angular momentum.
const AngularLabels = "spdfgh"

// Term is one cartesian monomial x^Lx y^Ly z^Lz with its coefficient.
type Term struct {
	C          float64
	Lx, Ly, Lz int
}

// sphTerms[l][m+l] holds the expansion of the real solid harmonic (l,m).
var sphTerms [MaxL + 1][][]Term

func init() {
	for l := 0; l <= MaxL; l++ {
		sphTerms[l] = make([][]Term, 2*l+1)
		for m := -l; m <= l; m++ {
			var terms []Term
			for lx := l; lx >= 0; lx-- {
				for ly := l - lx; ly >= 0; ly-- {
					lz := l - lx - ly
					c := sphSquare(l, m, lx, ly, lz)
					if c == 0 {
						continue
					}
					terms = append(terms, Term{C: math.Copysign(math.Sqrt(math.Abs(c)), c), Lx: lx, Ly: ly, Lz: lz})
				}
			}
			sphTerms[l][m+l] = terms
		}
	}
}

// SphericalTerms returns the cartesian expansion of the real solid harmonic
// with quantum numbers l, m. The coefficients already include the
// angular part of the normalization, so that multiplying by the radial
// factor (2a)^((3+2l)/4)/pi^(3/4) exp(-a r^2) gives a normalized function.
func SphericalTerms(l, m int) []Term {
	if l < 0 || l > MaxL || m < -l || m > l {
		panic("SphericalTerms: quantum numbers out of range")
	}
	return sphTerms[l][m+l]
}

// CartesianTerms returns the single normalized term for the cartesian
// component x^lx y^ly z^lz.
func CartesianTerms(lx, ly, lz int) []Term {
	l := lx + ly + lz
	c := math.Sqrt(math.Pow(2, float64(l)) / (dfact(2*lx-1) * dfact(2*ly-1) * dfact(2*lz-1)))
	return []Term{{C: c, Lx: lx, Ly: ly, Lz: lz}}
}

// CartesianFromM decodes the index used in basis function ids for cartesian
// shells, m = T(ly+lz) - (lx+ly), T(n) being the nth triangular number.
func CartesianFromM(l, m int) (lx, ly, lz int) {
	lyz := int(math.Floor((math.Sqrt(float64(8*(m+l)+1)) - 1) / 2))
	lz = m + l - lyz*(lyz+1)/2
	lx = l - lyz
	ly = lyz - lz
	return lx, ly, lz
}

// CartesianM is the inverse of CartesianFromM.
func CartesianM(lx, ly, lz int) int {
	lyz := ly + lz
	return lyz*(lyz+1)/2 - (lx + ly)
}

// binom is the binomial coefficient, 0 if k is outside [0, n].
func binom(n, k int) float64 {
	if k < 0 || k > n || n < 0 {
		return 0
	}
	return float64(combin.Binomial(n, k))
}

func fact(n int) float64 {
	ret := 1.0
	for ; n > 1; n-- {
		ret *= float64(n)
	}
	return ret
}

// dfact is the double factorial, with dfact(-1) = 1.
func dfact(n int) float64 {
	ret := 1.0
	for ; n > 1; n -= 2 {
		ret *= float64(n)
	}
	return ret
}

// sphSquare returns the square of the coefficient of x^lx y^ly z^lz in
// the real solid harmonic Y(l,m), with the sign of the coefficient.
// See Schlegel and Frisch, Int. J. Quantum Chem. 54, 83 (1995).
func sphSquare(l, m, lx, ly, lz int) float64 {
	am := m
	if am < 0 {
		am = -am
	}
	j := lx + ly - am
	if j%2 != 0 || j < 0 {
		return 0
	}
	j /= 2
	c := 0.0
	for i := 0; i <= (l-am)/2; i++ {
		t := binom(l, i) * binom(i, j) * fact(2*l-2*i) / fact(l-am-2*i)
		if i%2 == 1 {
			t = -t
		}
		c += t
	}
	if c == 0 {
		return 0
	}
	//real and imaginary parts of sum_k binom(j,k) binom(am, lx-2k) i^(am-lx+2k)
	var re, im float64
	for k := 0; k <= j; k++ {
		b := binom(j, k) * binom(am, lx-2*k)
		switch ((am-lx+2*k)%4 + 4) % 4 {
		case 0:
			re += b
		case 1:
			im += b
		case 2:
			re -= b
		case 3:
			im -= b
		}
	}
	c2 := re
	if m < 0 {
		c2 = im
	}
	if c2 == 0 {
		return 0
	}
	c *= c2
	sign := 1.0
	if c < 0 {
		sign = -1
	}
	lm := 2.0
	if m == 0 {
		lm = 1
	}
	return sign * c * c * fact(l-am) / fact(l+am) * lm / fact(l) / fact(2*l)
}

// CartesianScale returns sqrt((2lx-1)!!(2ly-1)!!(2lz-1)!!), the ratio
// between a cartesian component that shares the normalization of the xy...
// type components, as some programs use, and the normalized component.
// Coefficients for the former are multiplied by this to get coefficients
// for the latter.
func CartesianScale(lx, ly, lz int) float64 {
	return math.Sqrt(dfact(2*lx-1) * dfact(2*ly-1) * dfact(2*lz-1))
}
