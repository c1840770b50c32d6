/*
 * formats/luscus/luscus.go, part of gorbital.
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

//Package luscus reads the grid files written by Molcas for the Luscus
//viewer: an xyz header, a text grid header and binary orbital values.
package luscus

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/inporb"
	"github.com/rmera/gorbital/formats/scan"
	"github.com/rmera/gorbital/formats/volume"
)

// Name is the format name used in errors and in orb.Wavefunction.Format.
const Name = "luscus"

var gridName = regexp.MustCompile(`GridName=\s*(.+)\s*sym=\s*(\d+)\s*index=\s*(\d+)\s*Energ=\s*(.+)\s*occ=\s*(.+)\s*type=\s*(\w)`)

// Sniff returns true if head is an xyz block followed by a <GRID> line.
func Sniff(head []byte) bool {
	lines := strings.Split(string(head), "\n")
	if len(lines) == 0 {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || n < 0 || len(lines) < n+3 {
		return false
	}
	return strings.TrimSpace(lines[n+2]) == "<GRID>"
}

type parser struct {
	L    *scan.Lines
	path string
}

func (P *parser) errorf(err error, msg string, args ...any) error {
	return orb.NewParseError(Name, P.path, P.L.N, err, msg, args...)
}

// floats parses the fields of the next line after the first skip ones.
func (P *parser) floats(skip, n int) ([]float64, error) {
	f, err := P.L.Fields()
	if err != nil || len(f) < skip+n {
		return nil, P.errorf(err, "expected %d numbers after %d fields", n, skip)
	}
	ret := make([]float64, n)
	for i := range ret {
		if ret[i], err = orb.ParseFloat(f[skip+i]); err != nil {
			return nil, P.errorf(err, "invalid number %q", f[skip+i])
		}
	}
	return ret, nil
}

func (P *parser) field(i int) (int, error) {
	f, err := P.L.Fields()
	if err != nil || len(f) <= i {
		return 0, P.errorf(err, "expected at least %d fields", i+1)
	}
	v, err := strconv.Atoi(f[i])
	if err != nil {
		return 0, P.errorf(err, "expected an integer, got %q", f[i])
	}
	return v, nil
}

// Read reads a Luscus file. The result has no basis set; all the grids in
// the file are in wf.Fields. An embedded InpOrb section, if present,
// provides orbital types when the grid names lack them.
func Read(path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	wf, err := Parse(f, path, opt)
	if err != nil {
		return nil, orb.ErrDecorate(err, "luscus.Read")
	}
	return wf, nil
}

// Parse reads a Luscus file from r. path is only used in messages.
func Parse(r io.Reader, path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	P := &parser{L: scan.New(r), path: path}
	cfg := opt.Conf()
	natoms, err := P.field(0)
	if err != nil {
		return nil, P.errorf(err, "invalid number of atoms")
	}
	if err := cfg.CheckAtoms(natoms); err != nil {
		return nil, P.errorf(err, "invalid number of atoms")
	}
	title, err := P.L.Next()
	if err != nil {
		return nil, P.errorf(err, "missing comment line")
	}
	atoms := make([]*orb.Atom, natoms)
	for i := range atoms {
		f, err := P.L.Fields()
		if err != nil || len(f) < 4 {
			return nil, P.errorf(err, "atom %d", i+1)
		}
		var c [3]float64
		for j := range c {
			v, err := orb.ParseFloat(f[1+j])
			if err != nil {
				return nil, P.errorf(err, "coordinate")
			}
			c[j] = v * orb.A2Bohr
		}
		atoms[i] = volume.Atom(f[0], c)
	}
	if line, err := P.L.Next(); err != nil || strings.TrimSpace(line) != "<GRID>" {
		return nil, P.errorf(err, "missing <GRID> line")
	}
	f, err := P.L.Fields()
	if err != nil || len(f) < 8 {
		return nil, P.errorf(err, "grid size line")
	}
	nmo, err1 := strconv.Atoi(f[3])
	bsize, err2 := strconv.Atoi(f[7])
	if err1 != nil || err2 != nil || nmo < 1 || bsize < 1 {
		return nil, P.errorf(nil, "invalid number of grids or block size")
	}
	if err := P.L.Skip(1); err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	nf, err := P.floats(1, 3)
	if err != nil {
		return nil, err
	}
	counts, err := volume.Counts(nf, 0)
	if err != nil {
		return nil, P.errorf(err, "grid size")
	}
	if _, err := cfg.CheckGrid(nmo, counts); err != nil {
		return nil, P.errorf(err, "grid size")
	}
	o, err := P.floats(1, 3)
	if err != nil {
		return nil, err
	}
	var axes [3][3]float64
	for i := range axes {
		a, err := P.floats(1, 3)
		if err != nil {
			return nil, err
		}
		copy(axes[i][:], a)
	}
	spec := volume.Span([3]float64{o[0], o[1], o[2]}, axes, counts)
	if err := P.L.Skip(1); err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	wf := &orb.Wavefunction{Format: Name, Source: path}
	entries := make([]volume.Entry, nmo)
	for i := range entries {
		line, err := P.L.Next()
		if err != nil {
			return nil, P.errorf(err, "grid name %d", i+1)
		}
		entries[i] = P.entry(wf, line, i)
	}
	if err := P.L.Skip(1); err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	fields, err := readBinary(P.L.Reader(), spec, nmo, bsize)
	if err != nil {
		return nil, P.errorf(err, "binary grid data")
	}
	ret, err := volume.Build(Name, path, strings.TrimSpace(title), orb.NewMolecule(atoms), entries, fields)
	if err != nil {
		return nil, err
	}
	ret.Warnings = wf.Warnings
	for _, a := range ret.Warnings {
		opt.Log().Warn("unreadable orbital energy", "file", path, "anomaly", a.Error())
	}
	embedded(ret, P.L.Reader(), opt)
	if err := ret.Check(opt.Conf()); err != nil {
		return nil, P.errorf(err, "inconsistent data")
	}
	return ret, nil
}

func (P *parser) entry(wf *orb.Wavefunction, line string, i int) volume.Entry {
	e := volume.Entry{Block: i, Type: '?'}
	m := gridName.FindStringSubmatch(line)
	if m == nil {
		f := strings.Fields(line)
		if len(f) > 1 {
			e.Label = strings.Join(f[1:], " ")
		}
		return e
	}
	e.Label = strings.TrimSpace(m[1])
	e.Sym, _ = strconv.Atoi(m[2])
	e.Num, _ = strconv.Atoi(m[3])
	var ok bool
	e.Energy, ok, _ = orb.ParseField(m[4])
	e.EnergyValid = ok
	if !ok {
		wf.Warn("energy", strings.TrimSpace(m[4]), P.L.N)
	}
	e.Occupation, _, _ = orb.ParseField(m[5])
	e.Type = orb.NormalizeType(m[6][0])
	return e
}

// readBinary reads nmo grids stored as little-endian float64 values,
// interleaved in blocks of bsize points.
func readBinary(r io.Reader, spec orb.GridSpec, nmo, bsize int) ([]*orb.ScalarField, error) {
	fields := make([]*orb.ScalarField, nmo)
	for i := range fields {
		fields[i] = orb.NewScalarField(spec)
	}
	n := spec.Len()
	for start := 0; start < n; start += bsize {
		end := min(start+bsize, n)
		for _, f := range fields {
			if err := binary.Read(r, binary.LittleEndian, f.Values[start:end]); err != nil {
				return nil, err
			}
		}
	}
	return fields, nil
}

// embedded reads the InpOrb section that may follow the grid data and
// copies the orbital types into the grid orbitals that lack them.
func embedded(wf *orb.Wavefunction, r *bufio.Reader, opt orb.ReadOptions) {
	rest, err := io.ReadAll(r)
	if err != nil || !bytes.Contains(rest, []byte("#INPORB")) {
		return
	}
	F, err := inporb.Scan(scan.New(bytes.NewReader(rest)), wf.Source)
	if err != nil {
		opt.Log().Warn("ignoring embedded InpOrb section", "file", wf.Source, "error", err)
		return
	}
	offs := make([]int, len(F.NOrb)+1)
	for s, n := range F.NOrb {
		offs[s+1] = offs[s] + n
	}
	for _, o := range wf.Sets[0].Orbitals {
		if o.Type != '?' || o.Number < 1 || o.Irrep >= len(F.NOrb) || o.Number > F.NOrb[o.Irrep] {
			continue
		}
		o.Type = F.Alpha[offs[o.Irrep]+o.Number-1].Type
	}
}

// Resolve maps the grids of a Luscus wavefunction onto the orbitals of a
// companion wavefunction with basis set, so that densities and orbitals
// missing from the file can be computed.
func Resolve(wf, companion *orb.Wavefunction) (*orb.Wavefunction, error) {
	return volume.Resolve(wf, companion)
}
