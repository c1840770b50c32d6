/*
 * formats/cube/cube.go, part of gorbital.
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

//Package cube reads and writes Gaussian cube files.
package cube

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/scan"
	"github.com/rmera/gorbital/formats/volume"
)

// Name is the format name used in errors and in orb.Wavefunction.Format.
const Name = "cube"

// Sniff returns true if the third line of head is an integer followed by
// three or more numbers.
func Sniff(head []byte) bool {
	lines := bytes.SplitN(head, []byte("\n"), 4)
	if len(lines) < 3 {
		return false
	}
	f := strings.Fields(string(lines[2]))
	if len(f) < 4 {
		return false
	}
	if _, err := strconv.Atoi(f[0]); err != nil {
		return false
	}
	for _, v := range f[1:4] {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
	}
	return true
}

type parser struct {
	L    *scan.Lines
	path string
}

func (P *parser) errorf(err error, msg string, args ...any) error {
	return orb.NewParseError(Name, P.path, P.L.N, err, msg, args...)
}

// line reads an integer followed by n numbers.
func (P *parser) line(n int) (int, []float64, error) {
	f, err := P.L.Fields()
	if err != nil || len(f) < n+1 {
		return 0, nil, P.errorf(err, "expected an integer and %d numbers", n)
	}
	i, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, nil, P.errorf(err, "expected an integer, got %q", f[0])
	}
	ret := make([]float64, n)
	for j := range ret {
		if ret[j], err = orb.ParseFloat(f[1+j]); err != nil {
			return 0, nil, P.errorf(err, "invalid number %q", f[1+j])
		}
	}
	return i, ret, nil
}

// Read reads a cube file. The result has no basis set; the grids are in
// wf.Fields.
func Read(path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	wf, err := Parse(f, path, opt)
	if err != nil {
		return nil, orb.ErrDecorate(err, "cube.Read")
	}
	return wf, nil
}

// Parse reads a cube file from r. path is only used in messages. A
// negative atom count means that several orbitals are stored, and a
// negative point count along an axis means that lengths are in angstrom.
// Values are read as a stream, so line breaks don't matter.
func Parse(r io.Reader, path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	P := &parser{L: scan.New(r), path: path}
	if err := P.L.Skip(1); err != nil {
		return nil, P.errorf(err, "empty file")
	}
	title, err := P.L.Next()
	if err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	title = strings.TrimSpace(title)
	natoms, origin, err := P.line(3)
	if err != nil {
		return nil, err
	}
	var counts [3]int
	var axes [3][3]float64
	unit := 1.0
	for i := range axes {
		n, a, err := P.line(3)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, P.errorf(nil, "no points along axis %d", i+1)
		}
		if n < 0 {
			unit = orb.A2Bohr
			n = -n
		}
		counts[i] = n
		copy(axes[i][:], a)
	}
	spec := orb.GridSpec{Counts: counts}
	for i := range axes {
		spec.Origin[i] = origin[i] * unit
		for j := range axes[i] {
			spec.Axes[i][j] = axes[i][j] * unit
		}
	}
	cfg := opt.Conf()
	if _, err := cfg.CheckGrid(1, counts); err != nil {
		return nil, P.errorf(err, "grid size")
	}
	multi := natoms < 0
	if multi {
		natoms = -natoms
	}
	if err := cfg.CheckAtoms(natoms); err != nil {
		return nil, P.errorf(err, "atom count")
	}
	atoms := make([]*orb.Atom, natoms)
	for i := range atoms {
		Z, v, err := P.line(4)
		if err != nil {
			return nil, err
		}
		a := &orb.Atom{Name: orb.Symbol(Z), Z: Z, Coords: [3]float64{v[1] * unit, v[2] * unit, v[3] * unit}, NoBasis: true}
		a.Ghost = Z == 0
		atoms[i] = a
	}
	var entries []volume.Entry
	if multi {
		f, err := P.L.Tokens(1, nil)
		if err != nil {
			return nil, P.errorf(err, "number of orbitals")
		}
		nmo, err := strconv.Atoi(f[0])
		if err != nil || nmo < 1 {
			return nil, P.errorf(err, "invalid number of orbitals %q", f[0])
		}
		if _, err := cfg.CheckGrid(nmo, counts); err != nil {
			return nil, P.errorf(err, "grid size")
		}
		ids, err := P.L.Tokens(nmo, nil)
		if err != nil {
			return nil, P.errorf(err, "orbital numbers")
		}
		P.L.DropTokens()
		for i, id := range ids {
			num, err := strconv.Atoi(id)
			if err != nil {
				return nil, P.errorf(err, "orbital number %q", id)
			}
			entries = append(entries, volume.Entry{Label: fmt.Sprintf("%d: %s", num, title), Num: num, Block: i, Type: '?'})
		}
	} else {
		entries = []volume.Entry{{Label: title, Type: '?'}}
	}
	nmo := len(entries)
	fields := make([]*orb.ScalarField, nmo)
	for i := range fields {
		fields[i] = orb.NewScalarField(spec)
	}
	buf := make([]string, 0, nmo*counts[2])
	run := nmo * counts[2]
	for i := 0; i < counts[0]*counts[1]; i++ {
		if buf, err = P.L.Tokens(run, buf); err != nil {
			return nil, P.errorf(err, "grid values")
		}
		for k := 0; k < counts[2]; k++ {
			for m, f := range fields {
				t := buf[k*nmo+m]
				v, ok, err := orb.ParseField(t)
				if !ok {
					return nil, P.errorf(err, "invalid grid value %q", t)
				}
				f.Values[i*counts[2]+k] = v
			}
		}
	}
	wf, err := volume.Build(Name, path, title, orb.NewMolecule(atoms), entries, fields)
	if err != nil {
		return nil, err
	}
	if err := wf.Check(opt.Conf()); err != nil {
		return nil, P.errorf(err, "inconsistent data")
	}
	return wf, nil
}

// Encode writes fields, which must share a grid, as a cube file in bohr.
// More than one field produces a multi-orbital file, numbered from the
// fields' orbital indexes.
func Encode(w io.Writer, mol *orb.Molecule, title string, fields ...*orb.ScalarField) error {
	if len(fields) == 0 {
		return fmt.Errorf("cube: nothing to write")
	}
	spec := fields[0].Spec
	for _, f := range fields[1:] {
		if f.Spec != spec {
			return fmt.Errorf("cube: fields on different grids")
		}
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("cube: %w", err)
	}
	natoms := 0
	if mol != nil {
		natoms = mol.Len()
	}
	b := bufio.NewWriter(w)
	fmt.Fprintln(b, "Written by gorbital")
	fmt.Fprintln(b, strings.ReplaceAll(title, "\n", " "))
	n := natoms
	if len(fields) > 1 {
		n = -natoms
	}
	fmt.Fprintf(b, "%5d %12.6f %12.6f %12.6f\n", n, spec.Origin[0], spec.Origin[1], spec.Origin[2])
	for i := 0; i < 3; i++ {
		fmt.Fprintf(b, "%5d %12.6f %12.6f %12.6f\n", spec.Counts[i], spec.Axes[i][0], spec.Axes[i][1], spec.Axes[i][2])
	}
	for i := 0; i < natoms; i++ {
		a := mol.Atoms[i]
		fmt.Fprintf(b, "%5d %12.6f %12.6f %12.6f %12.6f\n", a.Z, float64(a.Z), a.Coords[0], a.Coords[1], a.Coords[2])
	}
	if len(fields) > 1 {
		fmt.Fprintf(b, "%5d", len(fields))
		for i, f := range fields {
			id := i + 1
			if f.Orbital >= 0 {
				id = f.Orbital + 1
			}
			fmt.Fprintf(b, "%5d", id)
		}
		fmt.Fprintln(b)
	}
	nz := spec.Counts[2]
	for i := 0; i < spec.Counts[0]*spec.Counts[1]; i++ {
		c := 0
		for k := 0; k < nz; k++ {
			for _, f := range fields {
				v := f.Values[i*nz+k]
				if math.IsNaN(v) {
					v = 0
				}
				fmt.Fprintf(b, " %12.5E", v)
				c++
				if c%6 == 0 {
					fmt.Fprintln(b)
				}
			}
		}
		if c%6 != 0 {
			fmt.Fprintln(b)
		}
	}
	return b.Flush()
}

// Write writes fields to the file path. See Encode.
func Write(path string, mol *orb.Molecule, title string, fields ...*orb.ScalarField) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cube-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := Encode(tmp, mol, title, fields...); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
