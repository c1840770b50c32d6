/*
 * basis.go, part of gorbital.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Primitive is one gaussian in a contraction.
type Primitive struct {
	Exp  float64
	Coef float64
}

// Component identifies one basis function of a shell. For spherical shells
// only M is meaningful, for cartesian ones Lx, Ly and Lz are.
type Component struct {
	M          int
	Lx, Ly, Lz int
}

// Shell is a contracted set of gaussians with a common angular momentum,
// placed on an atom.
type Shell struct {
	Atom      int //index of the owning atom in the Molecule
	L         int
	Cartesian bool
	Prims     []Primitive
	Comps     []Component //order of the components in the basis
	Funcs     []int       //global basis function index of each component
	normalized bool
}

// NewShell returns a shell with the components in the default order:
// m = -l..l for spherical shells, and xx, xy, xz, yy, yz, zz (and the
// equivalent for other l) for cartesian ones. p shells are always
// treated as cartesian.
func NewShell(atom, l int, cartesian bool, prims []Primitive) *Shell {
	if l == 1 {
		cartesian = true
	}
	return &Shell{Atom: atom, L: l, Cartesian: cartesian, Prims: prims, Comps: DefaultComponents(l, cartesian)}
}

// DefaultComponents returns the default component order for a shell.
func DefaultComponents(l int, cartesian bool) []Component {
	var ret []Component
	if !cartesian {
		for m := -l; m <= l; m++ {
			ret = append(ret, Component{M: m})
		}
		return ret
	}
	for lx := l; lx >= 0; lx-- {
		for ly := l - lx; ly >= 0; ly-- {
			ret = append(ret, Component{Lx: lx, Ly: ly, Lz: l - lx - ly, M: CartesianM(lx, ly, l-lx-ly)})
		}
	}
	return ret
}

// NFuncs returns the number of components of a full shell with angular
// momentum l.
func NFuncs(l int, cartesian bool) int {
	if cartesian {
		return (l + 1) * (l + 2) / 2
	}
	return 2*l + 1
}

// Len returns the number of basis functions in the shell.
func (S *Shell) Len() int {
	return len(S.Comps)
}

// Label returns the letter for the shell's angular momentum.
func (S *Shell) Label() string {
	if S.L < 0 || S.L >= len(AngularLabels) {
		return "?"
	}
	return AngularLabels[S.L : S.L+1]
}

// Terms returns the angular polynomial for the ith component.
func (S *Shell) Terms(i int) []Term {
	c := S.Comps[i]
	if S.Cartesian {
		return CartesianTerms(c.Lx, c.Ly, c.Lz)
	}
	return SphericalTerms(S.L, c.M)
}

// Normalized returns true if the shell's contraction has already been
// normalized.
func (S *Shell) Normalized() bool {
	return S.normalized
}

// overlap returns the self overlap of the contraction, with normalized
// primitives.
func (S *Shell) overlap() float64 {
	p := float64(S.L) + 1.5
	s := 0.0
	for _, a := range S.Prims {
		for _, b := range S.Prims {
			s += a.Coef * b.Coef * math.Pow(2*math.Sqrt(a.Exp*b.Exp)/(a.Exp+b.Exp), p)
		}
	}
	return s
}

// Normalize rescales the contraction coefficients so that the shell is
// normalized. Calling it again does nothing.
func (S *Shell) Normalize() {
	if S.normalized {
		return
	}
	S.normalized = true
	s := S.overlap()
	if s <= 0 {
		return
	}
	f := 1 / math.Sqrt(s)
	for i := range S.Prims {
		S.Prims[i].Coef *= f
	}
}

// Radial returns the contracted radial factor at squared distance r2,
// with normalized primitives.
func (S *Shell) Radial(r2 float64) float64 {
	ret := 0.0
	for _, p := range S.Prims {
		ret += p.Coef * PrimitiveNorm(p.Exp, S.L) * math.Exp(-p.Exp*r2)
	}
	return ret
}

// PrimitiveNorm is the radial normalization factor of a primitive gaussian,
// (2a)^((3+2l)/4)/pi^(3/4).
func PrimitiveNorm(exp float64, l int) float64 {
	return math.Pow(2*exp, float64(3+2*l)/4) / math.Pow(math.Pi, 0.75)
}

// MinExp returns the smallest exponent in the shell.
func (S *Shell) MinExp() float64 {
	ret := math.Inf(1)
	for _, p := range S.Prims {
		ret = math.Min(ret, p.Exp)
	}
	return ret
}

// Copy returns a deep copy of the shell.
func (S *Shell) Copy() *Shell {
	ret := *S
	ret.Prims = append([]Primitive(nil), S.Prims...)
	ret.Comps = append([]Component(nil), S.Comps...)
	ret.Funcs = append([]int(nil), S.Funcs...)
	return &ret
}

// BasisSet is the ordered set of shells that defines the basis function
// index space of the orbital coefficients.
type BasisSet struct {
	Shells  []*Shell
	NBasSym []int      //basis functions per irrep, nil without symmetry
	Irreps  []string   //irrep labels, nil without symmetry
	Desym   *mat.Dense //NBas x sum(NBasSym), maps symmetry adapted functions onto the basis. nil without symmetry
}

// NewBasisSet builds a basis set from shells and assigns consecutive global
// indexes to the components of shells that don't have them yet.
func NewBasisSet(shells []*Shell) *BasisSet {
	B := &BasisSet{Shells: shells}
	B.AssignFuncs()
	return B
}

// AssignFuncs gives consecutive global indexes, in shell order, to the
// components of the shells that don't have them.
func (B *BasisSet) AssignFuncs() {
	n := 0
	for _, s := range B.Shells {
		if len(s.Funcs) != s.Len() {
			s.Funcs = make([]int, s.Len())
			for i := range s.Funcs {
				s.Funcs[i] = n + i
			}
		}
		n += s.Len()
	}
}

// NBas returns the number of basis functions.
func (B *BasisSet) NBas() int {
	if B == nil {
		return 0
	}
	n := 0
	for _, s := range B.Shells {
		n += s.Len()
	}
	return n
}

// Symmetric returns true if the basis is symmetry-blocked.
func (B *BasisSet) Symmetric() bool {
	return B != nil && len(B.NBasSym) > 1
}

// Normalize normalizes all the shells. It is idempotent.
func (B *BasisSet) Normalize() {
	for _, s := range B.Shells {
		s.Normalize()
	}
}

// Normalized returns true if all the shells are normalized.
func (B *BasisSet) Normalized() bool {
	for _, s := range B.Shells {
		if !s.normalized {
			return false
		}
	}
	return true
}

// Check verifies that the function indexes form a permutation of
// 0..NBas-1 and that every shell points to an atom in mol.
func (B *BasisSet) Check(mol *Molecule) error {
	n := B.NBas()
	seen := make([]bool, n)
	for i, s := range B.Shells {
		if s.Atom < 0 || s.Atom >= mol.Len() {
			return fmt.Errorf("shell %d refers to atom %d, but there are %d atoms", i, s.Atom, mol.Len())
		}
		if s.L < 0 || s.L > MaxL {
			return fmt.Errorf("shell %d has unsupported angular momentum %d", i, s.L)
		}
		if len(s.Funcs) != s.Len() {
			return fmt.Errorf("shell %d has %d components but %d indexes", i, s.Len(), len(s.Funcs))
		}
		for _, f := range s.Funcs {
			if f < 0 || f >= n || seen[f] {
				return fmt.Errorf("shell %d: basis function index %d repeated or out of range", i, f)
			}
			seen[f] = true
		}
	}
	if B.Desym != nil {
		r, c := B.Desym.Dims()
		tot := 0
		for _, v := range B.NBasSym {
			tot += v
		}
		if r != n || c != tot {
			return fmt.Errorf("desymmetrization matrix is %dx%d, expected %dx%d", r, c, n, tot)
		}
	}
	return nil
}

// MarkPointCharges sets the NoBasis flag in the atoms of mol that have
// no shells.
func (B *BasisSet) MarkPointCharges(mol *Molecule) {
	has := make([]bool, mol.Len())
	for _, s := range B.Shells {
		if s.Atom >= 0 && s.Atom < len(has) {
			has[s.Atom] = true
		}
	}
	for i, a := range mol.Atoms {
		a.NoBasis = !has[i]
	}
}

// Desymmetrize maps a vector of symmetry-adapted coefficients in the
// block of irrep sym onto the full basis. Without symmetry it returns a
// copy of c.
func (B *BasisSet) Desymmetrize(sym int, c []float64) ([]float64, error) {
	if B.Desym == nil {
		if len(c) != B.NBas() {
			return nil, fmt.Errorf("%d coefficients for %d basis functions", len(c), B.NBas())
		}
		return append([]float64(nil), c...), nil
	}
	if sym < 0 || sym >= len(B.NBasSym) {
		return nil, fmt.Errorf("irrep %d out of range", sym)
	}
	if len(c) != B.NBasSym[sym] {
		return nil, fmt.Errorf("%d coefficients for %d basis functions in irrep %d", len(c), B.NBasSym[sym], sym)
	}
	off := 0
	for _, v := range B.NBasSym[:sym] {
		off += v
	}
	n := B.NBas()
	block := B.Desym.Slice(0, n, off, off+len(c))
	ret := mat.NewVecDense(n, nil)
	ret.MulVec(block, mat.NewVecDense(len(c), append([]float64(nil), c...)))
	return ret.RawVector().Data, nil
}

// Copy returns a deep copy of the basis set.
func (B *BasisSet) Copy() *BasisSet {
	ret := &BasisSet{Shells: make([]*Shell, len(B.Shells))}
	for i, s := range B.Shells {
		ret.Shells[i] = s.Copy()
	}
	ret.NBasSym = append([]int(nil), B.NBasSym...)
	ret.Irreps = append([]string(nil), B.Irreps...)
	if B.Desym != nil {
		ret.Desym = mat.DenseCopyOf(B.Desym)
	}
	return ret
}
