/*
 * formats/inporb/write.go, part of gorbital.
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

package inporb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/container"
)

// Version is the InpOrb version written.
const Version = "2.2"

// sets returns the orbital sets written: the spinless ground state set,
// or the alpha and beta ones.
func sets(wf *orb.Wavefunction) ([]*orb.OrbitalSet, error) {
	ok := func(s *orb.OrbitalSet) bool {
		return s != nil && s.Len() > 0 && s.Orbitals[0].Tag != orb.DensityEigen
	}
	if s := wf.Set(orb.StateDensity, 0, orb.NoSpin); ok(s) {
		return []*orb.OrbitalSet{s}, nil
	}
	a, b := wf.Set(orb.StateDensity, 0, orb.Alpha), wf.Set(orb.StateDensity, 0, orb.Beta)
	if ok(a) && ok(b) {
		return []*orb.OrbitalSet{a, b}, nil
	}
	return nil, fmt.Errorf("inporb: no orbitals to write")
}

// blocks returns the orbitals of set sorted by irrep, each with its
// symmetry blocked coefficients in SymCoeffs, and the basis size of each
// irrep.
func blocks(wf *orb.Wavefunction, set *orb.OrbitalSet) ([]*orb.Orbital, []int, error) {
	ret := make([]*orb.Orbital, set.Len())
	for i, o := range set.Orbitals {
		ret[i] = o.Copy()
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Irrep < ret[j].Irrep })
	B := wf.Basis
	switch {
	case B != nil && B.Symmetric():
		for k, o := range ret {
			if o.Irrep < 0 || o.Irrep >= len(B.NBasSym) || len(o.SymCoeffs) != B.NBasSym[o.Irrep] {
				return nil, nil, fmt.Errorf("inporb: orbital %d has no symmetry blocked coefficients", k+1)
			}
		}
		return ret, B.NBasSym, nil
	case B != nil:
		sc := container.Scales(B)
		for k, o := range ret {
			if len(o.Coeffs) != len(sc) {
				return nil, nil, fmt.Errorf("inporb: orbital %d has %d coefficients, the basis has %d", k+1, len(o.Coeffs), len(sc))
			}
			o.Irrep = 0
			o.SymCoeffs = make([]float64, len(sc))
			for i, c := range o.Coeffs {
				o.SymCoeffs[i] = c / sc[i]
			}
		}
		return ret, []int{len(sc)}, nil
	}
	//no basis: sizes come from the orbitals themselves
	var nbas []int
	for k, o := range ret {
		if o.SymCoeffs == nil {
			return nil, nil, fmt.Errorf("inporb: orbital %d has no symmetry blocked coefficients", k+1)
		}
		for len(nbas) <= o.Irrep {
			nbas = append(nbas, -1)
		}
		if nbas[o.Irrep] >= 0 && nbas[o.Irrep] != len(o.SymCoeffs) {
			return nil, nil, fmt.Errorf("inporb: orbitals of irrep %d with different sizes", o.Irrep+1)
		}
		nbas[o.Irrep] = len(o.SymCoeffs)
	}
	for s, n := range nbas {
		if n < 0 {
			return nil, nil, fmt.Errorf("inporb: unknown basis size for irrep %d", s+1)
		}
	}
	return ret, nbas, nil
}

// typeLetter returns the index letter of o, guessed from the occupation
// when the type is unknown.
func typeLetter(o *orb.Orbital, spin orb.Spin) byte {
	t := orb.NormalizeType(o.Type)
	if strings.IndexByte(orb.OrbitalTypes, t) >= 0 {
		return t
	}
	full := 2.0
	if spin != orb.NoSpin {
		full = 1
	}
	switch {
	case o.Occupation > 0.75*full:
		return 'I'
	case o.Occupation < 0.25*full:
		return 'S'
	}
	return '2'
}

// MergeTypes combines the alpha and beta types of an orbital into the one
// index letter: equal types are kept, inactive and secondary make an
// active orbital.
func MergeTypes(a, b byte) (byte, error) {
	a, b = orb.NormalizeType(a), orb.NormalizeType(b)
	switch {
	case a == b:
		return a, nil
	case (a == 'I' && b == 'S') || (a == 'S' && b == 'I'):
		return '2', nil
	}
	return 0, fmt.Errorf("inporb: alpha type %c and beta type %c can't be merged", a, b)
}

// FromWavefunction builds the InpOrb content for the orbitals of wf.
func FromWavefunction(wf *orb.Wavefunction) (*File, error) {
	ss, err := sets(wf)
	if err != nil {
		return nil, err
	}
	F := &File{Version: Version, Title: wf.Title, UHF: len(ss) == 2, path: wf.Source}
	for i, s := range ss {
		orbs, nbas, err := blocks(wf, s)
		if err != nil {
			return nil, err
		}
		norb := make([]int, len(nbas))
		for _, o := range orbs {
			norb[o.Irrep]++
			o.Type = typeLetter(o, s.Spin)
		}
		for j := range nbas {
			if norb[j] > nbas[j] {
				return nil, fmt.Errorf("inporb: %d orbitals for %d basis functions in irrep %d", norb[j], nbas[j], j+1)
			}
		}
		if i == 0 {
			F.NBas, F.NOrb, F.Alpha = nbas, norb, orbs
			continue
		}
		if fmt.Sprint(norb) != fmt.Sprint(F.NOrb) || fmt.Sprint(nbas) != fmt.Sprint(F.NBas) {
			return nil, fmt.Errorf("inporb: alpha and beta orbitals differ in number")
		}
		F.Beta = orbs
	}
	if F.UHF {
		for k := range F.Alpha {
			t, err := MergeTypes(F.Alpha[k].Type, F.Beta[k].Type)
			if err != nil {
				return nil, fmt.Errorf("orbital %d: %w", k+1, err)
			}
			F.Alpha[k].Type, F.Beta[k].Type = t, t
		}
	}
	return F, nil
}

func writeValues(b *bufio.Writer, vals []float64, perLine int, format string, invalid []bool) {
	for i, v := range vals {
		if invalid != nil && invalid[i] {
			fmt.Fprint(b, " ", strings.Repeat("*", 11))
		} else {
			fmt.Fprintf(b, format, v)
		}
		if (i+1)%perLine == 0 || i == len(vals)-1 {
			fmt.Fprintln(b)
		}
	}
}

func (F *File) writeOrbitals(b *bufio.Writer, orbs []*orb.Orbital, label string) {
	fmt.Fprintln(b, "#"+label+"ORB")
	n := make([]int, len(F.NBas))
	for _, o := range orbs {
		n[o.Irrep]++
		fmt.Fprintf(b, "* ORBITAL%5d%5d\n", o.Irrep+1, n[o.Irrep])
		writeValues(b, o.SymCoeffs, 5, " %21.14E", nil)
	}
	occ := make([]float64, len(orbs))
	ene := make([]float64, len(orbs))
	invalid := make([]bool, len(orbs))
	for i, o := range orbs {
		occ[i], ene[i], invalid[i] = o.Occupation, o.Energy, !o.EnergyValid
	}
	fmt.Fprintf(b, "#%sOCC\n* OCCUPATION NUMBERS\n", label)
	writeValues(b, occ, 5, " %21.14E", nil)
	fmt.Fprintf(b, "#%sOCHR\n* OCCUPATION NUMBERS (HUMAN-READABLE)\n", label)
	writeValues(b, occ, 10, " %7.4f", nil)
	fmt.Fprintf(b, "#%sONE\n* ONE ELECTRON ENERGIES\n", label)
	writeValues(b, ene, 10, " %11.4E", invalid)
}

// Encode writes the file in InpOrb format. The index is regenerated from
// the orbital types; basis functions without orbital are marked deleted.
func (F *File) Encode(w io.Writer) error {
	b := bufio.NewWriter(w)
	uhf := 0
	if F.UHF {
		uhf = 1
	}
	fmt.Fprintf(b, "#INPORB %s\n#INFO\n* %s\n", F.Version, F.Title)
	fmt.Fprintf(b, "%8d%8d%8d\n", uhf, len(F.NBas), 0)
	for _, list := range [][]int{F.NBas, F.NOrb} {
		for _, v := range list {
			fmt.Fprintf(b, "%8d", v)
		}
		fmt.Fprintln(b)
	}
	F.writeOrbitals(b, F.Alpha, "")
	if F.UHF {
		F.writeOrbitals(b, F.Beta, "U")
	}
	fmt.Fprintln(b, "#INDEX")
	off := 0
	for s, nb := range F.NBas {
		types := make([]byte, nb)
		for k := range types {
			types[k] = 'd'
			if k < F.NOrb[s] {
				types[k] = F.Alpha[off+k].Type - 'A' + 'a'
				if F.Alpha[off+k].Type < 'A' {
					types[k] = F.Alpha[off+k].Type
				}
			}
		}
		off += F.NOrb[s]
		fmt.Fprintln(b, "* 1234567890")
		for j := 0; j*10 < nb; j++ {
			end := min(nb, (j+1)*10)
			fmt.Fprintf(b, "%d %s\n", j%10, types[j*10:end])
		}
	}
	return b.Flush()
}

// Write saves the orbitals of wf to path in InpOrb format.
func Write(path string, wf *orb.Wavefunction) error {
	F, err := FromWavefunction(wf)
	if err != nil {
		return orb.ErrDecorate(err, "inporb.Write")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".inporb-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := F.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
