/*
 * formats/container/write.go, part of gorbital.
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
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"

	orb "github.com/rmera/gorbital"
)

// WriteOptions control Write.
type WriteOptions struct {
	Replace  []string //datasets removed from the base document before writing
	Compress bool
}

// Scales returns, for each basis function, the factor that takes a
// coefficient from the Molcas convention, where cartesian components are
// not normalized, to normalized cartesian components.
func Scales(B *orb.BasisSet) []float64 {
	ret := make([]float64, B.NBas())
	for _, s := range B.Shells {
		for i, c := range s.Comps {
			ret[s.Funcs[i]] = 1
			if s.Cartesian {
				ret[s.Funcs[i]] = orb.CartesianScale(c.Lx, c.Ly, c.Lz)
			}
		}
	}
	return ret
}

// NewFromWavefunction builds a document with the centers and the basis set
// of wf, and no orbitals.
func NewFromWavefunction(wf *orb.Wavefunction) (*Document, error) {
	if wf.Basis == nil || wf.Mol == nil {
		return nil, &orb.IncompleteDataError{Format: Name, File: wf.Source, Missing: "basis set", Need: "a file with basis set information"}
	}
	D := NewDocument()
	B := wf.Basis
	n := B.NBas()
	nsym := 1
	nbas := []int{n}
	irreps := []string{"a"}
	if B.Symmetric() {
		nsym = len(B.NBasSym)
		nbas = B.NBasSym
		irreps = B.Irreps
	}
	D.SetAttr("NSYM", Ints([]int{nsym}))
	D.SetAttr("NBAS", Ints(nbas))
	D.SetAttr("IRREP_LABELS", Str(irreps))
	D.SetAttr("CHARGE", Ints([]int{wf.Mol.Charge}))
	if wf.Title != "" {
		D.SetAttr("TITLE", Str([]string{wf.Title}))
	}
	pre := ""
	if nsym > 1 {
		pre = "DESYM_"
		flat := make([]float64, n*n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				flat[j*n+i] = B.Desym.At(i, j)
			}
		}
		D.Set("DESYM_MATRIX", F64(flat, n, n))
	}
	na := wf.Mol.Len()
	labels := make([]string, na)
	charges := make([]float64, na)
	coords := make([]float64, 3*na)
	for i, a := range wf.Mol.Atoms {
		labels[i] = a.Name
		charges[i] = float64(a.Z)
		copy(coords[3*i:], a.Coords[:])
	}
	D.Set(pre+"CENTER_LABELS", Str(labels))
	D.Set(pre+"CENTER_CHARGES", F64(charges))
	D.Set(pre+"CENTER_COORDINATES", F64(coords, na, 3))
	var prims []float64
	var prids []int
	ids := make([]int, 4*n)
	count := make(map[[2]int]int) //shells so far per atom and l
	for _, s := range B.Shells {
		k := [2]int{s.Atom, s.L}
		count[k]++
		for _, p := range s.Prims {
			prims = append(prims, p.Exp, p.Coef)
			prids = append(prids, s.Atom+1, s.L, count[k])
		}
		for i, c := range s.Comps {
			l := s.L
			if s.Cartesian {
				l = -l
			}
			copy(ids[4*s.Funcs[i]:], []int{s.Atom + 1, count[k], l, c.M})
		}
	}
	D.Set("PRIMITIVES", F64(prims, len(prims)/2, 2))
	D.Set("PRIMITIVE_IDS", Ints(prids, len(prids)/3, 3))
	D.Set(pre+"BASIS_FUNCTION_IDS", Ints(ids, n, 4))
	return D, nil
}

// base returns the document that Write updates.
func base(path string, wf *orb.Wavefunction) (*Document, error) {
	D, err := ReadDocument(path)
	if err == nil {
		return D, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if wf.Format == Name && wf.Source != "" && wf.Source != path {
		if D, err = ReadDocument(wf.Source); err == nil {
			return D, nil
		}
	}
	return NewFromWavefunction(wf)
}

func isOrbitalDataset(name string) bool {
	return strings.HasPrefix(name, "MO_") || strings.HasPrefix(name, "DESYM_MO_")
}

// Write saves the orbital sets of wf into the container at path. If the file
// exists, or wf was read from a container, everything but the orbitals and
// the datasets named in opt.Replace is preserved. Density eigenvector sets
// are not written, as they are derived from the density matrices.
func Write(path string, wf *orb.Wavefunction, opt WriteOptions) error {
	if wf.Basis == nil {
		return &orb.IncompleteDataError{Format: Name, File: path, Missing: "basis set", Need: "a file with basis set information"}
	}
	D, err := base(path, wf)
	if err != nil {
		return orb.ErrDecorate(err, "container.Write")
	}
	for _, name := range D.Names() {
		if isOrbitalDataset(name) {
			D.Delete(name)
		}
	}
	for _, name := range opt.Replace {
		D.Delete(name)
	}
	var sets []*orb.OrbitalSet
	unrestricted := false
	for _, s := range wf.Sets {
		if s.Kind != orb.StateDensity || s.Len() == 0 || s.Orbitals[0].Tag == orb.DensityEigen {
			continue
		}
		sets = append(sets, s)
		unrestricted = unrestricted || s.Spin != orb.NoSpin
	}
	sc := Scales(wf.Basis)
	for _, s := range sets {
		prefix := "MO_"
		if unrestricted {
			if s.Spin == orb.NoSpin {
				continue
			}
			prefix = "MO_" + strings.ToUpper(s.Spin.String()) + "_"
		}
		if err := putSet(D, prefix, s, wf.Basis, sc); err != nil {
			return orb.ErrDecorate(err, "container.Write")
		}
	}
	if err := D.WriteFile(path, opt.Compress); err != nil {
		return orb.ErrDecorate(err, "container.Write")
	}
	return nil
}

// blocked returns the orbitals of s grouped by irrep, if they form
// complete square symmetry blocks with known symmetry coefficients.
func blocked(s *orb.OrbitalSet, nbas []int) ([]*orb.Orbital, bool) {
	ret := append([]*orb.Orbital(nil), s.Orbitals...)
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Irrep < ret[j].Irrep })
	count := make([]int, len(nbas))
	for _, o := range ret {
		if o.Irrep < 0 || o.Irrep >= len(nbas) || len(o.SymCoeffs) != nbas[o.Irrep] {
			return nil, false
		}
		count[o.Irrep]++
	}
	for i, c := range count {
		if c != nbas[i] {
			return nil, false
		}
	}
	return ret, true
}

func putProperties(D *Document, prefix string, orbs []*orb.Orbital) {
	ene := make([]float64, len(orbs))
	occ := make([]float64, len(orbs))
	types := make([]string, len(orbs))
	for i, o := range orbs {
		ene[i] = o.Energy
		if !o.EnergyValid {
			ene[i] = math.NaN()
		}
		occ[i] = o.Occupation
		types[i] = string(o.Type)
		if o.Type == 0 {
			types[i] = "?"
		}
	}
	D.Set(prefix+"ENERGIES", F64(ene))
	D.Set(prefix+"OCCUPATIONS", F64(occ))
	D.Set(prefix+"TYPEINDICES", Str(types))
}

func putSet(D *Document, prefix string, s *orb.OrbitalSet, B *orb.BasisSet, sc []float64) error {
	n := B.NBas()
	if B.Symmetric() {
		if orbs, ok := blocked(s, B.NBasSym); ok {
			var vecs []float64
			for _, o := range orbs {
				vecs = append(vecs, o.SymCoeffs...)
			}
			D.Set(prefix+"VECTORS", F64(vecs))
			putProperties(D, prefix, orbs)
			return nil
		}
	}
	if B.Symmetric() || s.Len() != n {
		prefix = "DESYM_" + prefix
	}
	vecs := make([]float64, 0, n*s.Len())
	irreps := make([]int, s.Len())
	for k, o := range s.Orbitals {
		if len(o.Coeffs) != n {
			return fmt.Errorf("orbital %d in set %q has %d coefficients, basis has %d", k+1, s.Name, len(o.Coeffs), n)
		}
		for i, c := range o.Coeffs {
			vecs = append(vecs, c/sc[i])
		}
		irreps[k] = o.Irrep
	}
	D.Set(prefix+"VECTORS", F64(vecs, s.Len(), n))
	if strings.HasPrefix(prefix, "DESYM_") {
		D.Set(prefix+"IRREPS", Ints(irreps))
	}
	putProperties(D, prefix, s.Orbitals)
	return nil
}
