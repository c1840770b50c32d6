/*
 * formats/gridtxt/gridtxt.go, part of gorbital.
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

//Package gridtxt reads the ASCII grid files written by Molcas.
package gridtxt

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/scan"
	"github.com/rmera/gorbital/formats/volume"
)

// Name is the format name used in errors and in orb.Wavefunction.Format.
const Name = "grid"

var gridName = regexp.MustCompile(`GridName=\s+(\d+)\s+(\d+)\s+(.+)\s+\((.+)\)\s+(\w)`)

// Sniff returns true if the third line of head starts with "Natom=".
func Sniff(head []byte) bool {
	lines := bytes.SplitN(head, []byte("\n"), 4)
	return len(lines) > 2 && bytes.HasPrefix(lines[2], []byte("Natom="))
}

type parser struct {
	L    *scan.Lines
	path string
}

func (P *parser) errorf(err error, msg string, args ...any) error {
	return orb.NewParseError(Name, P.path, P.L.N, err, msg, args...)
}

// key reads the next line, which must be "key= values...", and returns
// the values.
func (P *parser) key(key string) ([]string, error) {
	line, err := P.L.Next()
	if err != nil {
		return nil, P.errorf(err, "missing %s", key)
	}
	v, ok := scan.Key(line, key)
	if !ok {
		return nil, P.errorf(nil, "expected %s=, got %q", key, line)
	}
	return strings.Fields(v), nil
}

func (P *parser) floats(key string, n int) ([]float64, error) {
	f, err := P.key(key)
	if err != nil {
		return nil, err
	}
	if len(f) < n {
		return nil, P.errorf(nil, "%s needs %d values", key, n)
	}
	ret := make([]float64, n)
	for i := range ret {
		if ret[i], err = orb.ParseFloat(f[i]); err != nil {
			return nil, P.errorf(err, "%s", key)
		}
	}
	return ret, nil
}

func (P *parser) count(key string) (int, error) {
	f, err := P.floats(key, 1)
	if err != nil {
		return 0, err
	}
	if !(f[0] >= 0 && f[0] < 1<<31) || f[0] != float64(int(f[0])) {
		return 0, P.errorf(nil, "invalid %s", key)
	}
	return int(f[0]), nil
}

// Read reads a Molcas ASCII grid file. The result has no basis set; all
// the grids in the file are in wf.Fields.
func Read(path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	wf, err := Parse(f, path, opt)
	if err != nil {
		return nil, orb.ErrDecorate(err, "gridtxt.Read")
	}
	return wf, nil
}

// Parse reads a Molcas ASCII grid file from r. path is only used in
// messages.
func Parse(r io.Reader, path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	P := &parser{L: scan.New(r), path: path}
	title, err := P.L.Next()
	if err != nil {
		return nil, P.errorf(err, "empty file")
	}
	if err := P.L.Skip(1); err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	natoms, err := P.count("Natom")
	if err != nil {
		return nil, err
	}
	cfg := opt.Conf()
	if err := cfg.CheckAtoms(natoms); err != nil {
		return nil, P.errorf(err, "invalid number of atoms")
	}
	atoms := make([]*orb.Atom, natoms)
	for i := range atoms {
		f, err := P.L.Fields()
		if err != nil || len(f) < 4 {
			return nil, P.errorf(err, "atom %d", i+1)
		}
		var c [3]float64
		for j := range c {
			if c[j], err = orb.ParseFloat(f[1+j]); err != nil {
				return nil, P.errorf(err, "coordinate")
			}
		}
		atoms[i] = volume.Atom(f[0], c)
	}
	if err := P.L.Skip(2); err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	nmo, err := P.count("N_of_MO")
	if err != nil {
		return nil, err
	}
	if err := P.L.Skip(1); err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	bsize, err := P.count("Block_Size")
	if err != nil {
		return nil, err
	}
	if nmo < 1 || bsize < 1 {
		return nil, P.errorf(nil, "invalid number of grids or block size")
	}
	if err := P.L.Skip(5); err != nil {
		return nil, P.errorf(err, "truncated header")
	}
	net, err := P.floats("Net", 3)
	if err != nil {
		return nil, err
	}
	counts, err := volume.Counts(net, 1)
	if err != nil {
		return nil, P.errorf(err, "grid size")
	}
	if _, err := cfg.CheckGrid(nmo, counts); err != nil {
		return nil, P.errorf(err, "grid size")
	}
	o, err := P.floats("Origin", 3)
	if err != nil {
		return nil, err
	}
	var axes [3][3]float64
	for i := range axes {
		a, err := P.floats("Axis_"+strconv.Itoa(i+1), 3)
		if err != nil {
			return nil, err
		}
		copy(axes[i][:], a)
	}
	spec := volume.Span([3]float64{o[0], o[1], o[2]}, axes, counts)
	wf := &orb.Wavefunction{Format: Name, Source: path}
	entries := make([]volume.Entry, nmo)
	for i := range entries {
		line, err := P.L.Next()
		if err != nil {
			return nil, P.errorf(err, "grid name %d", i+1)
		}
		entries[i] = P.entry(wf, line, i)
	}
	fields := make([]*orb.ScalarField, nmo)
	for i := range fields {
		fields[i] = orb.NewScalarField(spec)
	}
	n := spec.Len()
	var buf []string
	for start := 0; start < n; start += bsize {
		end := min(start+bsize, n)
		for m, f := range fields {
			if err := P.title(); err != nil {
				return nil, P.errorf(err, "block title for grid %d", m+1)
			}
			if buf, err = P.L.Tokens(end-start, buf); err != nil {
				return nil, P.errorf(err, "values of grid %d", m+1)
			}
			P.L.DropTokens()
			for i, t := range buf {
				v, ok, err := orb.ParseField(t)
				if !ok {
					return nil, P.errorf(err, "invalid grid value %q", t)
				}
				f.Values[start+i] = v
			}
		}
	}
	ret, err := volume.Build(Name, path, strings.TrimSpace(title), orb.NewMolecule(atoms), entries, fields)
	if err != nil {
		return nil, err
	}
	ret.Warnings = wf.Warnings
	for _, a := range ret.Warnings {
		opt.Log().Warn("unreadable orbital energy", "file", path, "anomaly", a.Error())
	}
	if err := ret.Check(opt.Conf()); err != nil {
		return nil, P.errorf(err, "inconsistent data")
	}
	return ret, nil
}

// title skips the title line of a block, and any blank line before it.
func (P *parser) title() error {
	for {
		line, err := P.L.Next()
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "" {
			return nil
		}
	}
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
	e.Sym, _ = strconv.Atoi(m[1])
	e.Num, _ = strconv.Atoi(m[2])
	e.Label = strings.TrimSpace(m[1] + "." + m[2])
	var ok bool
	e.Energy, ok, _ = orb.ParseField(m[3])
	e.EnergyValid = ok
	if !ok {
		wf.Warn("energy", strings.TrimSpace(m[3]), P.L.N)
	}
	e.Occupation, _, _ = orb.ParseField(m[4])
	e.Type = orb.NormalizeType(m[5][0])
	return e
}
