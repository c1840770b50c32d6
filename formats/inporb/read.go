/*
 * formats/inporb/read.go, part of gorbital.
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

//Package inporb reads and writes Molcas InpOrb orbital files.
package inporb

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/container"
	"github.com/rmera/gorbital/formats/scan"
)

// Name is the format name used in errors and in orb.Wavefunction.Format.
const Name = "inporb"

// Sniff returns true if head starts with an InpOrb header.
func Sniff(head []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte("#INPORB"))
}

// File is the content of an InpOrb section. The orbitals are symmetry
// blocked: only SymCoeffs, Irrep, Occupation, Energy and Type are set.
type File struct {
	Version  string
	Title    string
	UHF      bool
	NBas     []int
	NOrb     []int
	Alpha    []*orb.Orbital
	Beta     []*orb.Orbital
	Warnings []*orb.NumericAnomaly
	path     string
}

type parser struct {
	L *scan.Lines
	F *File
}

func (P *parser) errorf(err error, msg string, args ...any) error {
	return orb.NewParseError(Name, P.F.path, P.L.N, err, msg, args...)
}

// Read reads an InpOrb file. Without opt.Companion the result has no
// basis set, and the coefficients are those of the symmetry adapted
// functions, one irrep after the other.
func Read(path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	F, err := Scan(scan.New(f), path)
	if err != nil {
		return nil, orb.ErrDecorate(err, "inporb.Read")
	}
	wf, err := F.Wavefunction(opt)
	if err != nil {
		return nil, orb.ErrDecorate(err, "inporb.Read")
	}
	return wf, nil
}

// Scan reads an InpOrb section from L, skipping everything before the
// #INPORB line, so the section can be embedded in other files. It stops
// at the end of the input or at a line starting with "<".
func Scan(L *scan.Lines, path string) (*File, error) {
	P := &parser{L: L, F: &File{path: path}}
	for {
		line, err := L.Next()
		if err != nil {
			return nil, P.errorf(err, "no #INPORB header")
		}
		if strings.HasPrefix(line, "#INPORB") {
			P.F.Version = strings.TrimSpace(strings.TrimPrefix(line, "#INPORB"))
			break
		}
	}
	if v, err := strconv.ParseFloat(P.F.Version, 64); err != nil || v < 2 {
		return nil, P.errorf(err, "unsupported InpOrb version %q", P.F.Version)
	}
	for {
		line, err := L.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, P.errorf(err, "read error")
		}
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "<") {
			break
		}
		if !strings.HasPrefix(t, "#") {
			continue
		}
		switch strings.ToUpper(strings.Fields(t)[0]) {
		case "#INFO":
			err = P.info()
		case "#ORB":
			P.F.Alpha, err = P.orbitals()
		case "#UORB":
			P.F.Beta, err = P.orbitals()
		case "#OCC":
			err = P.values(P.F.Alpha, "occupation")
		case "#UOCC":
			err = P.values(P.F.Beta, "occupation")
		case "#ONE":
			err = P.values(P.F.Alpha, "energy")
		case "#UONE":
			err = P.values(P.F.Beta, "energy")
		case "#INDEX":
			err = P.index()
		}
		if err != nil {
			return nil, err
		}
	}
	if P.F.NBas == nil {
		return nil, P.errorf(nil, "missing #INFO section")
	}
	if P.F.Alpha == nil || (P.F.UHF && P.F.Beta == nil) {
		return nil, P.errorf(nil, "missing orbital coefficients")
	}
	return P.F, nil
}

// header skips the comment lines that start with "*".
func (P *parser) header() error {
	for {
		line, err := P.L.Peek()
		if err != nil {
			return P.errorf(err, "unexpected end of file")
		}
		if !isComment(line) {
			return nil
		}
		P.L.Next()
	}
}

// isComment returns true for "* ..." lines. A line starting with "**"
// holds an overflowed value, not a comment.
func isComment(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "*") && !strings.HasPrefix(t, "**")
}

func (P *parser) ints(n int) ([]int, error) {
	f, err := P.L.Tokens(n, nil)
	if err != nil {
		return nil, P.errorf(err, "expected %d integers", n)
	}
	P.L.DropTokens()
	ret := make([]int, n)
	for i, v := range f {
		if ret[i], err = strconv.Atoi(v); err != nil || ret[i] < 0 {
			return nil, P.errorf(err, "invalid count %q", v)
		}
	}
	return ret, nil
}

func (P *parser) info() error {
	line, err := P.L.Peek()
	if err == nil && strings.HasPrefix(strings.TrimSpace(line), "*") {
		P.L.Next()
		P.F.Title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
	}
	head, err := P.ints(3)
	if err != nil {
		return err
	}
	P.F.UHF = head[0] != 0
	nsym := head[1]
	if nsym < 1 || nsym > 8 {
		return P.errorf(nil, "invalid number of irreps %d", nsym)
	}
	if P.F.NBas, err = P.ints(nsym); err != nil {
		return err
	}
	if P.F.NOrb, err = P.ints(nsym); err != nil {
		return err
	}
	for i := range P.F.NOrb {
		if P.F.NOrb[i] > P.F.NBas[i] {
			return P.errorf(nil, "more orbitals than basis functions in irrep %d", i+1)
		}
	}
	return nil
}

func (P *parser) orbitals() ([]*orb.Orbital, error) {
	if P.F.NBas == nil {
		return nil, P.errorf(nil, "orbitals before #INFO")
	}
	var ret []*orb.Orbital
	var buf []string
	for s, nb := range P.F.NBas {
		for k := 0; k < P.F.NOrb[s]; k++ {
			if err := P.header(); err != nil {
				return nil, err
			}
			var err error
			buf, err = P.L.Tokens(nb, buf)
			if err != nil {
				return nil, P.errorf(err, "coefficients of orbital %d in irrep %d", k+1, s+1)
			}
			P.L.DropTokens()
			o := &orb.Orbital{SymCoeffs: make([]float64, nb), Irrep: s, Type: '?'}
			for i, v := range buf {
				c, ok, err := orb.ParseField(v)
				if !ok {
					return nil, P.errorf(err, "unreadable coefficient %q", v)
				}
				o.SymCoeffs[i] = c
			}
			ret = append(ret, o)
		}
	}
	return ret, nil
}

// values reads occupations or energies for orbs.
func (P *parser) values(orbs []*orb.Orbital, what string) error {
	if orbs == nil {
		return P.errorf(nil, "%s section before the orbitals", what)
	}
	if err := P.header(); err != nil {
		return err
	}
	buf, err := P.L.Tokens(len(orbs), nil)
	if err != nil {
		return P.errorf(err, "expected %d values", len(orbs))
	}
	P.L.DropTokens()
	for i, v := range buf {
		x, ok, err := orb.ParseField(v)
		switch {
		case what == "energy":
			orbs[i].Energy, orbs[i].EnergyValid = x, ok
			if !ok {
				P.F.Warnings = append(P.F.Warnings, &orb.NumericAnomaly{Field: what, Text: v, File: P.F.path, Line: P.L.N})
			}
		case !ok:
			return P.errorf(err, "unreadable %s %q", what, v)
		default:
			orbs[i].Occupation = x
		}
	}
	return nil
}

// index reads the type index. Each irrep starts with a "* 1234567890"
// line followed by rows of up to 10 type letters.
func (P *parser) index() error {
	if P.F.Alpha == nil {
		return P.errorf(nil, "#INDEX before the orbitals")
	}
	var types [][]byte
	for {
		line, err := P.L.Peek()
		if err == io.EOF {
			break
		} else if err != nil {
			return P.errorf(err, "read error")
		}
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "<") {
			break
		}
		P.L.Next()
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "*") {
			types = append(types, nil)
			continue
		}
		f := strings.Fields(t)
		if len(types) == 0 || len(f) != 2 {
			return P.errorf(nil, "malformed index line %q", line)
		}
		types[len(types)-1] = append(types[len(types)-1], f[1]...)
	}
	if len(types) != len(P.F.NBas) {
		return P.errorf(nil, "index for %d irreps, expected %d", len(types), len(P.F.NBas))
	}
	off := 0
	for s, n := range P.F.NOrb {
		if len(types[s]) < n {
			return P.errorf(nil, "index for irrep %d has %d entries, expected %d", s+1, len(types[s]), n)
		}
		for k := 0; k < n; k++ {
			t := orb.NormalizeType(types[s][k])
			if !strings.ContainsRune(orb.OrbitalTypes, rune(t)) {
				return P.errorf(nil, "unknown orbital type %q", string(rune(types[s][k])))
			}
			P.F.Alpha[off+k].Type = t
			if P.F.Beta != nil {
				P.F.Beta[off+k].Type = t
			}
		}
		off += n
	}
	return nil
}

// check verifies NBAS against the companion's basis.
func (F *File) check(B *orb.BasisSet) error {
	want := []int{B.NBas()}
	if B.Symmetric() {
		want = B.NBasSym
	}
	if fmt.Sprint(want) != fmt.Sprint(F.NBas) {
		return orb.NewParseError(Name, F.path, 0, nil, "basis functions per irrep %v don't match the companion's %v", F.NBas, want)
	}
	return nil
}

// Wavefunction builds a wavefunction from the file. If opt.Companion has
// a basis set, it is used to desymmetrize the orbitals; otherwise the
// result has no basis.
func (F *File) Wavefunction(opt orb.ReadOptions) (*orb.Wavefunction, error) {
	wf := &orb.Wavefunction{Format: Name, Source: F.path, Title: F.Title, Warnings: F.Warnings}
	for _, a := range F.Warnings {
		opt.Log().Warn("unreadable orbital energy", "file", F.path, "anomaly", a.Error())
	}
	comp := opt.Companion
	var irreps []string
	var sc []float64
	if comp != nil && comp.Basis != nil {
		if err := F.check(comp.Basis); err != nil {
			return nil, err
		}
		wf.Mol = comp.Mol.Copy()
		wf.Basis = comp.Basis.Copy()
		irreps = wf.Basis.Irreps
		sc = container.Scales(wf.Basis)
	} else {
		wf.NeedsCompanion = "a container file with the basis set"
	}
	offs := make([]int, len(F.NBas))
	tot := 0
	for s, n := range F.NBas {
		offs[s] = tot
		tot += n
	}
	spins := []orb.Spin{orb.NoSpin}
	lists := [][]*orb.Orbital{F.Alpha}
	if F.UHF {
		spins = []orb.Spin{orb.Alpha, orb.Beta}
		lists = append(lists, F.Beta)
	}
	for i, list := range lists {
		orbs := make([]*orb.Orbital, len(list))
		for k, o := range list {
			o = o.Copy()
			o.Spin = spins[i]
			if o.Irrep < len(irreps) {
				o.Sym = irreps[o.Irrep]
			} else if len(F.NBas) > 1 {
				o.Sym = strconv.Itoa(o.Irrep + 1)
			}
			if wf.Basis != nil {
				c, err := wf.Basis.Desymmetrize(o.Irrep, o.SymCoeffs)
				if err != nil {
					return nil, orb.NewParseError(Name, F.path, 0, err, "orbital %d", k+1)
				}
				for j := range c {
					c[j] *= sc[j]
				}
				o.Coeffs = c
			} else {
				o.Coeffs = make([]float64, tot)
				copy(o.Coeffs[offs[o.Irrep]:], o.SymCoeffs)
			}
			orbs[k] = o
		}
		name := [...]string{orb.NoSpin: "Orbitals", orb.Alpha: "Alpha orbitals", orb.Beta: "Beta orbitals"}[spins[i]]
		set := orb.NewOrbitalSet(name, orb.StateDensity, 0, spins[i], orbs)
		wf.Sets = append(wf.Sets, set)
	}
	if wf.Basis != nil {
		if err := wf.Check(opt.Conf()); err != nil {
			return nil, orb.NewParseError(Name, F.path, 0, err, "inconsistent with the companion")
		}
	}
	return wf, nil
}
