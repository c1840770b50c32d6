/*
 * formats/container/read.go, part of gorbital.
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

package container

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"

	orb "github.com/rmera/gorbital"
	"gonum.org/v1/gonum/mat"
)

// Name is the format name used in errors and in orb.Wavefunction.Format.
const Name = "container"

// Sniff returns true if head, the beginning of a file, looks like a
// container document.
func Sniff(head []byte) bool {
	if IsCompressed(head) || IsHDF5(head) {
		return true
	}
	t := bytes.TrimSpace(head)
	return bytes.HasPrefix(t, []byte("{")) && bytes.Contains(t, []byte(Magic))
}

// Read reads a container file.
func Read(path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		var perr *fs.PathError
		if errors.As(err, &perr) || errors.Is(err, ErrNoHDF5) {
			return nil, err
		}
		return nil, orb.NewParseError(Name, path, 0, err, "can't decode document")
	}
	wf, err := FromDocument(doc, path, opt)
	if err != nil {
		return nil, orb.ErrDecorate(err, "container.Read")
	}
	return wf, nil
}

type reader struct {
	doc   *Document
	path  string
	opt   orb.ReadOptions
	cfg   orb.Config
	wf    *orb.Wavefunction
	nsym  int
	nbas  []int
	n     int       //total basis functions
	scale []float64 //from the file's cartesian convention to normalized components
}

func (R *reader) errorf(err error, msg string, args ...any) error {
	return orb.NewParseError(Name, R.path, 0, err, msg, args...)
}

// floats returns dataset name, which must have n elements (if n >= 0).
func (R *reader) floats(name string, n int) ([]float64, error) {
	d := R.doc.Dataset(name)
	if d == nil {
		return nil, R.errorf(nil, "missing dataset %s", name)
	}
	f, err := d.Floats()
	if err != nil {
		return nil, R.errorf(err, "dataset %s", name)
	}
	if n >= 0 && len(f) != n {
		return nil, R.errorf(nil, "dataset %s has %d elements, expected %d", name, len(f), n)
	}
	return f, nil
}

func (R *reader) ints(name string, n int) ([]int, error) {
	d := R.doc.Dataset(name)
	if d == nil {
		return nil, R.errorf(nil, "missing dataset %s", name)
	}
	f, err := d.Ints()
	if err != nil {
		return nil, R.errorf(err, "dataset %s", name)
	}
	if n >= 0 && len(f) != n {
		return nil, R.errorf(nil, "dataset %s has %d elements, expected %d", name, len(f), n)
	}
	return f, nil
}

func (R *reader) strings(name string, n int) ([]string, error) {
	d := R.doc.Dataset(name)
	if d == nil || d.Type != "str" {
		return nil, R.errorf(nil, "missing string dataset %s", name)
	}
	if n >= 0 && len(d.Str) != n {
		return nil, R.errorf(nil, "dataset %s has %d elements, expected %d", name, len(d.Str), n)
	}
	return d.Str, nil
}

// FromDocument builds a wavefunction from a decoded document. path is
// only used for error messages.
func FromDocument(doc *Document, path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	R := &reader{doc: doc, path: path, opt: opt, cfg: opt.Conf()}
	R.wf = &orb.Wavefunction{Format: Name, Source: path}
	a := doc.Attr("NSYM")
	b := doc.Attr("NBAS")
	if a == nil || b == nil {
		return nil, R.errorf(nil, "NSYM and NBAS attributes required")
	}
	nsym, err := a.Ints()
	if err != nil || len(nsym) != 1 || nsym[0] < 1 {
		return nil, R.errorf(err, "invalid NSYM")
	}
	R.nsym = nsym[0]
	R.nbas, err = b.Ints()
	if err != nil || len(R.nbas) != R.nsym {
		return nil, R.errorf(err, "NBAS must have NSYM elements")
	}
	for _, v := range R.nbas {
		if v < 0 {
			return nil, R.errorf(nil, "negative NBAS")
		}
		R.n += v
	}
	if t := doc.Attr("TITLE"); t != nil && t.Type == "str" && len(t.Str) > 0 {
		R.wf.Title = t.Str[0]
	}
	if err := R.centers(); err != nil {
		return nil, err
	}
	if err := R.basis(); err != nil {
		return nil, err
	}
	if err := R.orbitals(); err != nil {
		return nil, err
	}
	if err := R.densities(); err != nil {
		return nil, err
	}
	R.wf.Basis.MarkPointCharges(R.wf.Mol)
	R.wf.Basis.Normalize()
	if err := R.wf.Check(R.cfg); err != nil {
		return nil, R.errorf(err, "inconsistent data")
	}
	return R.wf, nil
}

func (R *reader) prefix() string {
	if R.nsym > 1 {
		return "DESYM_"
	}
	return ""
}

func (R *reader) centers() error {
	pre := R.prefix()
	labels, err := R.strings(pre+"CENTER_LABELS", -1)
	if err != nil {
		return err
	}
	n := len(labels)
	charges, err := R.floats(pre+"CENTER_CHARGES", n)
	if err != nil {
		return err
	}
	coords, err := R.floats(pre+"CENTER_COORDINATES", 3*n)
	if err != nil {
		return err
	}
	atoms := make([]*orb.Atom, n)
	for i := range atoms {
		name := strings.TrimSpace(labels[i])
		Z := int(math.Round(charges[i]))
		atoms[i] = &orb.Atom{Name: name, Z: Z, Coords: [3]float64{coords[3*i], coords[3*i+1], coords[3*i+2]}}
		atoms[i].Ghost = Z == 0 || orb.IsGhostLabel(name)
	}
	R.wf.Mol = orb.NewMolecule(atoms)
	if c := R.doc.Attr("CHARGE"); c != nil {
		v, err := c.Ints()
		if err != nil || len(v) != 1 {
			return R.errorf(err, "invalid CHARGE")
		}
		R.wf.Mol.Charge = v[0]
	}
	return nil
}

type shellKey struct{ c, l, s int }

func (R *reader) basis() error {
	pre := R.prefix()
	prims, err := R.floats("PRIMITIVES", -1)
	if err != nil {
		return err
	}
	np := len(prims) / 2
	if len(prims)%2 != 0 {
		return R.errorf(nil, "PRIMITIVES must have 2 columns")
	}
	prids, err := R.ints("PRIMITIVE_IDS", 3*np)
	if err != nil {
		return err
	}
	shells := make(map[shellKey]*orb.Shell)
	var order []*orb.Shell
	for i := 0; i < np; i++ {
		k := shellKey{prids[3*i], prids[3*i+1], prids[3*i+2]}
		if k.c < 1 || k.c > R.wf.Mol.Len() || k.l < 0 || k.l > orb.MaxL {
			return R.errorf(nil, "invalid primitive id %v", k)
		}
		s, ok := shells[k]
		if !ok {
			s = &orb.Shell{Atom: k.c - 1, L: k.l}
			shells[k] = s
			order = append(order, s)
		}
		s.Prims = append(s.Prims, orb.Primitive{Exp: prims[2*i], Coef: prims[2*i+1]})
	}
	ids, err := R.ints(pre+"BASIS_FUNCTION_IDS", 4*R.n)
	if err != nil {
		return err
	}
	R.scale = make([]float64, R.n)
	for i := 0; i < R.n; i++ {
		c, sh, l, m := ids[4*i], ids[4*i+1], ids[4*i+2], ids[4*i+3]
		cart := l < 0
		if cart {
			l = -l
		}
		s := shells[shellKey{c, l, sh}]
		if s == nil {
			return R.errorf(nil, "basis function %d refers to a missing shell (%d, %d, %d)", i+1, c, l, sh)
		}
		if len(s.Comps) > 0 && s.Cartesian != cart {
			return R.errorf(nil, "shell (%d, %d, %d) mixes cartesian and spherical functions", c, l, sh)
		}
		s.Cartesian = cart
		R.scale[i] = 1
		comp := orb.Component{M: m}
		if cart {
			if m < -l || m > l*(l+1)/2 {
				return R.errorf(nil, "invalid cartesian index %d for l=%d", m, l)
			}
			comp.Lx, comp.Ly, comp.Lz = orb.CartesianFromM(l, m)
			if comp.Lx < 0 || comp.Ly < 0 || comp.Lz < 0 {
				return R.errorf(nil, "invalid cartesian index %d for l=%d", m, l)
			}
			R.scale[i] = orb.CartesianScale(comp.Lx, comp.Ly, comp.Lz)
		} else if m < -l || m > l {
			return R.errorf(nil, "invalid m=%d for l=%d", m, l)
		}
		s.Comps = append(s.Comps, comp)
		s.Funcs = append(s.Funcs, i)
	}
	for _, s := range order {
		if s.Len() != orb.NFuncs(s.L, s.Cartesian) {
			return R.errorf(nil, "shell with l=%d on center %d has %d functions", s.L, s.Atom+1, s.Len())
		}
	}
	B := orb.NewBasisSet(order)
	if R.nsym > 1 {
		B.NBasSym = append([]int(nil), R.nbas...)
		B.Irreps = R.irreps()
		d, err := R.floats("DESYM_MATRIX", R.n*R.n)
		if err != nil {
			return err
		}
		//stored transposed: element (i, j) maps symmetry function i onto AO j
		B.Desym = mat.DenseCopyOf(mat.NewDense(R.n, R.n, append([]float64(nil), d...)).T())
	}
	R.wf.Basis = B
	return nil
}

func (R *reader) irreps() []string {
	ret := make([]string, R.nsym)
	if a := R.doc.Attr("IRREP_LABELS"); a != nil && a.Type == "str" && len(a.Str) == R.nsym {
		for i, v := range a.Str {
			ret[i] = strings.TrimSpace(v)
		}
		return ret
	}
	for i := range ret {
		ret[i] = fmt.Sprint(i + 1)
	}
	return ret
}

type channel struct {
	prefix string
	spin   orb.Spin
	name   string
}

func (R *reader) channels() []channel {
	if R.doc.Has("MO_ALPHA_VECTORS") || R.doc.Has("DESYM_MO_ALPHA_VECTORS") {
		return []channel{{"MO_ALPHA_", orb.Alpha, "Alpha orbitals"}, {"MO_BETA_", orb.Beta, "Beta orbitals"}}
	}
	return []channel{{"MO_", orb.NoSpin, "Orbitals"}}
}

func (R *reader) orbitals() error {
	irreps := R.irreps()
	for _, ch := range R.channels() {
		var orbs []*orb.Orbital
		var err error
		switch {
		case R.doc.Has("DESYM_" + ch.prefix + "VECTORS"):
			orbs, err = R.desymOrbitals("DESYM_"+ch.prefix, irreps)
		case R.doc.Has(ch.prefix + "VECTORS"):
			orbs, err = R.blockedOrbitals(ch.prefix, irreps)
		default:
			continue
		}
		if err != nil {
			return err
		}
		for _, o := range orbs {
			o.Spin = ch.spin
		}
		set := orb.NewOrbitalSet(ch.name, orb.StateDensity, 0, ch.spin, orbs)
		if ch.spin == orb.NoSpin && R.doc.Attr("CHARGE") != nil {
			set.Electrons = float64(R.wf.Mol.Electrons())
		}
		R.wf.Sets = append(R.wf.Sets, set)
	}
	return nil
}

// properties reads energies, occupations and types for n orbitals.
func (R *reader) properties(prefix string, orbs []*orb.Orbital) error {
	n := len(orbs)
	ene, err := R.floats(prefix+"ENERGIES", n)
	if err != nil {
		return err
	}
	occ, err := R.floats(prefix+"OCCUPATIONS", n)
	if err != nil {
		return err
	}
	var types []string
	if R.doc.Has(prefix + "TYPEINDICES") {
		if types, err = R.strings(prefix+"TYPEINDICES", n); err != nil {
			return err
		}
	}
	for i, o := range orbs {
		o.Occupation = occ[i]
		o.Energy = ene[i]
		o.EnergyValid = !math.IsNaN(ene[i]) && !math.IsInf(ene[i], 0)
		if !o.EnergyValid {
			a := R.wf.Warn("energy", fmt.Sprint(ene[i]), 0)
			R.opt.Log().Warn("unreadable orbital energy", "file", R.path, "orbital", i+1, "anomaly", a.Error())
		}
		o.Type = '?'
		if types != nil && strings.TrimSpace(types[i]) != "" {
			o.Type = orb.NormalizeType(strings.TrimSpace(types[i])[0])
		}
	}
	return nil
}

func (R *reader) blockedOrbitals(prefix string, irreps []string) ([]*orb.Orbital, error) {
	tot := 0
	for _, b := range R.nbas {
		tot += b * b
	}
	vecs, err := R.floats(prefix+"VECTORS", tot)
	if err != nil {
		return nil, err
	}
	var orbs []*orb.Orbital
	off := 0
	for s, b := range R.nbas {
		for k := 0; k < b; k++ {
			block := append([]float64(nil), vecs[off:off+b]...)
			off += b
			c, err := R.wf.Basis.Desymmetrize(s, block)
			if err != nil {
				return nil, R.errorf(err, "orbital %d of irrep %s", k+1, irreps[s])
			}
			for i := range c {
				c[i] *= R.scale[i]
			}
			orbs = append(orbs, &orb.Orbital{Coeffs: c, SymCoeffs: block, Sym: irreps[s], Irrep: s})
		}
	}
	return orbs, R.properties(prefix, orbs)
}

func (R *reader) desymOrbitals(prefix string, irreps []string) ([]*orb.Orbital, error) {
	vecs, err := R.floats(prefix+"VECTORS", -1)
	if err != nil {
		return nil, err
	}
	if len(vecs)%R.n != 0 {
		return nil, R.errorf(nil, "%sVECTORS has %d elements, not a multiple of %d", prefix, len(vecs), R.n)
	}
	norb := len(vecs) / R.n
	var syms []int
	if R.doc.Has(prefix + "IRREPS") {
		if syms, err = R.ints(prefix+"IRREPS", norb); err != nil {
			return nil, err
		}
	}
	orbs := make([]*orb.Orbital, norb)
	for k := range orbs {
		c := append([]float64(nil), vecs[k*R.n:(k+1)*R.n]...)
		for i := range c {
			c[i] *= R.scale[i]
		}
		orbs[k] = &orb.Orbital{Coeffs: c}
		if syms != nil && syms[k] >= 0 && syms[k] < len(irreps) {
			orbs[k].Irrep = syms[k]
			orbs[k].Sym = irreps[syms[k]]
		}
	}
	return orbs, R.properties(prefix, orbs)
}

// matrices reads a stack of n x n matrices, converted to normalized
// cartesian components.
func (R *reader) matrices(name string) ([]*mat.SymDense, error) {
	d, err := R.floats(name, -1)
	if err != nil {
		return nil, err
	}
	nn := R.n * R.n
	if nn == 0 || len(d)%nn != 0 {
		return nil, R.errorf(nil, "%s has %d elements, not a multiple of %d", name, len(d), nn)
	}
	var ret []*mat.SymDense
	for k := 0; k < len(d)/nn; k++ {
		m := mat.NewSymDense(R.n, nil)
		for i := 0; i < R.n; i++ {
			for j := i; j < R.n; j++ {
				v := (d[k*nn+i*R.n+j] + d[k*nn+j*R.n+i]) / 2
				m.SetSym(i, j, v*R.scale[i]*R.scale[j])
			}
		}
		ret = append(ret, m)
	}
	return ret, nil
}

// EigenOrbitals turns a symmetric density-like matrix into orbitals
// whose occupations are the eigenvalues, so that
// rho = sum_k w_k (sum_mu U_mu,k chi_mu)^2. Eigenvalues with absolute value
// not above thr are dropped. Orbitals are sorted by decreasing occupation.
func EigenOrbitals(d *mat.SymDense, thr float64) ([]*orb.Orbital, error) {
	var es mat.EigenSym
	if !es.Factorize(d, true) {
		return nil, fmt.Errorf("eigendecomposition failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	n, _ := vecs.Dims()
	var ret []*orb.Orbital
	for k := len(vals) - 1; k >= 0; k-- {
		if math.Abs(vals[k]) <= thr {
			continue
		}
		c := make([]float64, n)
		mat.Col(c, k, &vecs)
		ret = append(ret, &orb.Orbital{Coeffs: c, Occupation: vals[k], Energy: math.NaN(), Type: '?', Tag: orb.DensityEigen})
	}
	return ret, nil
}

func (R *reader) eigenSet(name string, kind orb.DensityKind, state, ref int, d *mat.SymDense) error {
	orbs, err := EigenOrbitals(d, R.cfg.OccupationThreshold)
	if err != nil {
		return R.errorf(err, "%s", name)
	}
	set := orb.NewOrbitalSet(name, kind, state, orb.NoSpin, orbs)
	set.Reference = ref
	R.wf.Sets = append(R.wf.Sets, set)
	return nil
}

func (R *reader) densities() error {
	if R.doc.Has("DENSITY_MATRIX") {
		ds, err := R.matrices("DENSITY_MATRIX")
		if err != nil {
			return err
		}
		for k, d := range ds {
			if err := R.eigenSet(fmt.Sprintf("State %d density", k+1), orb.StateDensity, k, k, d); err != nil {
				return err
			}
			if k == 0 {
				continue
			}
			diff := mat.NewSymDense(R.n, nil)
			for i := 0; i < R.n; i++ {
				for j := i; j < R.n; j++ {
					diff.SetSym(i, j, d.At(i, j)-ds[0].At(i, j))
				}
			}
			if err := R.eigenSet(fmt.Sprintf("State %d - state 1 difference density", k+1), orb.DifferenceDensity, k, 0, diff); err != nil {
				return err
			}
		}
	}
	if R.doc.Has("SPIN_DENSITY_MATRIX") {
		ds, err := R.matrices("SPIN_DENSITY_MATRIX")
		if err != nil {
			return err
		}
		for k, d := range ds {
			if err := R.eigenSet(fmt.Sprintf("State %d spin density", k+1), orb.SpinDensity, k, k, d); err != nil {
				return err
			}
		}
	}
	if R.doc.Has("TRANSITION_DENSITY_MATRIX") {
		ds, err := R.matrices("TRANSITION_DENSITY_MATRIX")
		if err != nil {
			return err
		}
		pairs, err := R.ints("TRANSITION_PAIRS", 2*len(ds))
		if err != nil {
			return err
		}
		for k, d := range ds {
			from, to := pairs[2*k], pairs[2*k+1]
			if err := R.eigenSet(fmt.Sprintf("Transition %d -> %d density", from+1, to+1), orb.TransitionDensity, to, from, d); err != nil {
				return err
			}
		}
	}
	return nil
}
