/*
 * formats/molden/write.go, part of gorbital.
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

package molden

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	orb "github.com/rmera/gorbital"
)

// flags returns the section headers that declare which shells are
// spherical. Molden can't mix cartesian and spherical shells of the same l.
func flags(B *orb.BasisSet) ([]string, error) {
	const (
		absent = iota
		cart
		sph
	)
	var state [orb.MaxL + 1]int
	for _, s := range B.Shells {
		if s.L < 2 {
			continue
		}
		l := s.L
		if l == 5 {
			l = 4 //h shells follow g shells
		}
		v := cart
		if !s.Cartesian {
			v = sph
		}
		if state[l] != absent && state[l] != v {
			return nil, fmt.Errorf("molden: mixed cartesian and spherical shells with l=%d", l)
		}
		state[l] = v
	}
	var ret []string
	switch {
	case state[2] == sph && state[3] == cart:
		ret = append(ret, "[5D10F]")
	case state[2] == sph && state[3] == sph:
		ret = append(ret, "[5D7F]")
	case state[2] == sph:
		ret = append(ret, "[5D]")
	case state[3] == sph:
		ret = append(ret, "[7F]")
	}
	if state[4] == sph {
		ret = append(ret, "[9G]")
	}
	return ret, nil
}

// order returns the shells grouped by atom and, for each basis function in
// the file, the index of the model function.
func order(B *orb.BasisSet, natoms int) ([]*orb.Shell, []int, error) {
	var shells []*orb.Shell
	var perm []int
	for atom := 0; atom < natoms; atom++ {
		for _, s := range B.Shells {
			if s.Atom != atom {
				continue
			}
			shells = append(shells, s)
			for _, c := range Components(s.L, s.Cartesian) {
				found := -1
				for i, d := range s.Comps {
					if (s.Cartesian && d.Lx == c.Lx && d.Ly == c.Ly && d.Lz == c.Lz) || (!s.Cartesian && d.M == c.M) {
						found = s.Funcs[i]
						break
					}
				}
				if found < 0 {
					return nil, nil, fmt.Errorf("molden: incomplete %s shell on atom %d", s.Label(), atom+1)
				}
				perm = append(perm, found)
			}
		}
	}
	if len(perm) != B.NBas() {
		return nil, nil, fmt.Errorf("molden: basis has functions that can't be written")
	}
	return shells, perm, nil
}

// Orbitals returns the sets written by default: the orbital sets of the
// ground state, which are either one spinless set or an alpha and a beta
// set.
func Orbitals(wf *orb.Wavefunction) []*orb.OrbitalSet {
	var ret []*orb.OrbitalSet
	for _, spin := range []orb.Spin{orb.NoSpin, orb.Alpha, orb.Beta} {
		s := wf.Set(orb.StateDensity, 0, spin)
		if s == nil || s.Len() == 0 || s.Orbitals[0].Tag == orb.DensityEigen {
			continue
		}
		if spin == orb.NoSpin {
			return []*orb.OrbitalSet{s}
		}
		ret = append(ret, s)
	}
	return ret
}

// Encode writes wf to w in Molden format, with the orbitals in sets, or in
// Orbitals(wf) if no set is given.
func Encode(w io.Writer, wf *orb.Wavefunction, sets ...*orb.OrbitalSet) error {
	if wf.Basis == nil || wf.Mol == nil {
		return &orb.IncompleteDataError{Format: Name, File: wf.Source, Missing: "basis set", Need: "a file with basis set information"}
	}
	fl, err := flags(wf.Basis)
	if err != nil {
		return err
	}
	shells, perm, err := order(wf.Basis, wf.Mol.Len())
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		sets = Orbitals(wf)
	}
	b := bufio.NewWriter(w)
	fmt.Fprintln(b, "[Molden Format]")
	if wf.Title != "" {
		fmt.Fprintf(b, "[Title]\n %s\n", wf.Title)
	}
	fmt.Fprintf(b, "[N_Atoms]\n %d\n", wf.Mol.Len())
	fmt.Fprintln(b, "[Atoms] AU")
	for i, a := range wf.Mol.Atoms {
		name := strings.Join(strings.Fields(a.Name), "_")
		if name == "" {
			name = a.Symbol()
		}
		fmt.Fprintf(b, "%-6s %5d %3d %20.12f %20.12f %20.12f\n", name, i+1, a.Z, a.Coords[0], a.Coords[1], a.Coords[2])
	}
	fmt.Fprintln(b, "[GTO]")
	prev := -1
	for _, s := range shells {
		if s.Atom != prev {
			if prev >= 0 {
				fmt.Fprintln(b)
			}
			fmt.Fprintf(b, "%4d 0\n", s.Atom+1)
			prev = s.Atom
		}
		fmt.Fprintf(b, " %s %4d 1.00\n", s.Label(), len(s.Prims))
		for _, p := range s.Prims {
			fmt.Fprintf(b, " %20.12E %20.12E\n", p.Exp, p.Coef)
		}
	}
	fmt.Fprintln(b)
	for _, f := range fl {
		fmt.Fprintln(b, f)
	}
	fmt.Fprintln(b, "[MO]")
	for _, s := range sets {
		for k, o := range s.Orbitals {
			if len(o.Coeffs) != len(perm) {
				return fmt.Errorf("molden: orbital %d of set %q has %d coefficients, the basis has %d", k+1, s.Name, len(o.Coeffs), len(perm))
			}
			sym := o.Sym
			if sym == "" {
				sym = "a"
			}
			fmt.Fprintf(b, " Sym= %s\n", sym)
			if o.EnergyValid {
				fmt.Fprintf(b, " Ene= %16.8f\n", o.Energy)
			} else {
				fmt.Fprintln(b, " Ene= ****************")
			}
			spin := "Alpha"
			if s.Spin == orb.Beta || o.Spin == orb.Beta {
				spin = "Beta"
			}
			fmt.Fprintf(b, " Spin= %s\n", spin)
			fmt.Fprintf(b, " Occup= %14.8f\n", o.Occupation)
			for i, j := range perm {
				fmt.Fprintf(b, "%6d %22.14E\n", i+1, o.Coeffs[j])
			}
		}
	}
	return b.Flush()
}

// Write writes wf to the file path. See Encode.
func Write(path string, wf *orb.Wavefunction, sets ...*orb.OrbitalSet) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".molden-*")
	if err != nil {
		return orb.ErrDecorate(err, "molden.Write")
	}
	defer os.Remove(tmp.Name())
	if err := Encode(tmp, wf, sets...); err != nil {
		tmp.Close()
		return orb.ErrDecorate(err, "molden.Write")
	}
	if err := tmp.Close(); err != nil {
		return orb.ErrDecorate(err, "molden.Write")
	}
	return orb.ErrDecorate(os.Rename(tmp.Name(), path), "molden.Write")
}
