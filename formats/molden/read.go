/*
 * formats/molden/read.go, part of gorbital.
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
	"io"
	"os"
	"strconv"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/scan"
)

type rawShell struct {
	atom, l int
	prims   []orb.Primitive
}

type rawOrbital struct {
	line    int
	sym     string
	energy  float64
	valid   bool
	spin    orb.Spin
	occ     float64
	idx     []int
	coeffs  []float64
	started bool //coefficients have been read
}

type parser struct {
	L      *scan.Lines
	path   string
	opt    orb.ReadOptions
	wf     *orb.Wavefunction
	atoms  []*orb.Atom
	shells []rawShell
	cart   [orb.MaxL + 1]bool
	orbs   []*rawOrbital
}

// Read reads a Molden file.
func Read(path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	wf, err := Parse(f, path, opt)
	if err != nil {
		return nil, orb.ErrDecorate(err, "molden.Read")
	}
	return wf, nil
}

func (P *parser) errorf(err error, msg string, args ...any) error {
	return orb.NewParseError(Name, P.path, P.L.N, err, msg, args...)
}

// Parse reads a Molden file from r. path is only used in messages.
func Parse(r io.Reader, path string, opt orb.ReadOptions) (*orb.Wavefunction, error) {
	P := &parser{L: scan.New(r), path: path, opt: opt}
	P.wf = &orb.Wavefunction{Format: Name, Source: path}
	for l := 2; l <= orb.MaxL; l++ {
		P.cart[l] = true
	}
	first, err := P.L.Next()
	if err != nil || !Sniff([]byte(first)) {
		return nil, P.errorf(err, "missing [Molden Format] header")
	}
	for {
		line, err := P.L.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, P.errorf(err, "read error")
		}
		name, rest, ok := scan.Section(line)
		if !ok {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, P.errorf(nil, "unexpected line outside any section: %q", line)
		}
		switch name {
		case "TITLE":
			err = P.title()
		case "ATOMS":
			err = P.readAtoms(rest)
		case "GTO":
			err = P.gto()
		case "MO":
			err = P.mo()
		case "5D", "5D7F":
			P.cart[2], P.cart[3] = false, false
		case "5D10F":
			P.cart[2], P.cart[3] = false, true
		case "7F":
			P.cart[3] = false
		case "9G":
			P.cart[4], P.cart[5] = false, false
		case "STO":
			err = P.errorf(nil, "Slater type orbitals are not supported")
		default:
			err = P.skip()
		}
		if err != nil {
			return nil, err
		}
	}
	return P.build()
}

// body returns the next line of the current section, or false at the
// next section header or at the end of the file.
func (P *parser) body() (string, bool, error) {
	line, err := P.L.Peek()
	if err == io.EOF {
		return "", false, nil
	} else if err != nil {
		return "", false, P.errorf(err, "read error")
	}
	if _, _, ok := scan.Section(line); ok {
		return "", false, nil
	}
	_, err = P.L.Next()
	return line, true, err
}

func (P *parser) skip() error {
	for {
		_, ok, err := P.body()
		if err != nil || !ok {
			return err
		}
	}
}

func (P *parser) title() error {
	for {
		line, ok, err := P.body()
		if err != nil || !ok {
			return err
		}
		if P.wf.Title == "" {
			P.wf.Title = strings.TrimSpace(line)
		}
	}
}

func (P *parser) readAtoms(unit string) error {
	factor := 1.0
	if strings.HasPrefix(strings.ToUpper(unit), "ANGS") {
		factor = orb.A2Bohr
	}
	for {
		line, ok, err := P.body()
		if err != nil || !ok {
			return err
		}
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		if len(f) < 6 {
			return P.errorf(nil, "atom line with %d fields", len(f))
		}
		Z, err := strconv.Atoi(f[2])
		if err != nil {
			return P.errorf(err, "atomic number")
		}
		a := &orb.Atom{Name: f[0], Z: Z}
		for i := range a.Coords {
			v, err := orb.ParseFloat(f[3+i])
			if err != nil {
				return P.errorf(err, "coordinate")
			}
			a.Coords[i] = v * factor
		}
		a.Ghost = Z == 0 || orb.IsGhostLabel(a.Name)
		P.atoms = append(P.atoms, a)
	}
}

func (P *parser) gto() error {
	atom := -1
	for {
		line, ok, err := P.body()
		if err != nil || !ok {
			return err
		}
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		if n, err := strconv.Atoi(f[0]); err == nil {
			if n < 1 || n > len(P.atoms) {
				return P.errorf(nil, "basis for atom %d, but there are %d atoms", n, len(P.atoms))
			}
			atom = n - 1
			continue
		}
		if atom < 0 {
			return P.errorf(nil, "shell before any atom index")
		}
		if len(f) < 2 {
			return P.errorf(nil, "shell line %q", line)
		}
		label := strings.ToLower(f[0])
		nprim, err := strconv.Atoi(f[1])
		if err != nil || nprim < 1 {
			return P.errorf(err, "number of primitives")
		}
		scale := 1.0
		if len(f) > 2 {
			if scale, err = orb.ParseFloat(f[2]); err != nil {
				return P.errorf(err, "scale factor")
			}
		}
		ls := []int{strings.Index(orb.AngularLabels, label)}
		if label == "sp" {
			ls = []int{0, 1}
		} else if len(label) != 1 || ls[0] < 0 {
			return P.errorf(nil, "unknown shell type %q", f[0])
		}
		start := len(P.shells)
		for _, l := range ls {
			P.shells = append(P.shells, rawShell{atom: atom, l: l})
		}
		for i := 0; i < nprim; i++ {
			p, err := P.L.Fields()
			if err != nil {
				return P.errorf(err, "primitive %d", i+1)
			}
			if len(p) < 1+len(ls) {
				return P.errorf(nil, "primitive line with %d fields", len(p))
			}
			exp, err := orb.ParseFloat(p[0])
			if err != nil {
				return P.errorf(err, "exponent")
			}
			for j := range ls {
				c, err := orb.ParseFloat(p[1+j])
				if err != nil {
					return P.errorf(err, "contraction coefficient")
				}
				s := &P.shells[start+j]
				s.prims = append(s.prims, orb.Primitive{Exp: exp * scale * scale, Coef: c})
			}
		}
	}
}

// mo reads orbitals: blocks of "key= value" lines followed by "index
// coefficient" lines.
func (P *parser) mo() error {
	var cur *rawOrbital
	for {
		line, ok, err := P.body()
		if err != nil || !ok {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if key, value, found := strings.Cut(line, "="); found {
			if cur == nil || cur.started {
				cur = &rawOrbital{line: P.L.N}
				P.orbs = append(P.orbs, cur)
			}
			if err := P.tag(cur, strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)); err != nil {
				return err
			}
			continue
		}
		f := strings.Fields(line)
		if len(f) != 2 {
			return P.errorf(nil, "coefficient line %q", line)
		}
		if cur == nil {
			cur = &rawOrbital{line: P.L.N}
			P.orbs = append(P.orbs, cur)
		}
		cur.started = true
		i, err := strconv.Atoi(f[0])
		if err != nil {
			return P.errorf(err, "basis function index")
		}
		c, ok, err := orb.ParseField(f[1])
		if !ok {
			return P.errorf(err, "unreadable coefficient %q", f[1])
		}
		cur.idx = append(cur.idx, i)
		cur.coeffs = append(cur.coeffs, c)
	}
}

func (P *parser) tag(o *rawOrbital, key, value string) error {
	switch key {
	case "sym":
		o.sym = strings.TrimLeft(value, "0123456789")
	case "ene":
		v, ok, _ := orb.ParseField(value)
		o.energy, o.valid = v, ok
		if !ok {
			a := P.wf.Warn("energy", value, P.L.N)
			P.opt.Log().Warn("unreadable orbital energy", "file", P.path, "line", P.L.N, "anomaly", a.Error())
		}
	case "spin":
		o.spin = orb.Alpha
		if strings.EqualFold(value, "beta") {
			o.spin = orb.Beta
		}
	case "occup":
		v, ok, err := orb.ParseField(value)
		if !ok {
			return P.errorf(err, "unreadable occupation %q", value)
		}
		o.occ = v
	}
	return nil
}

func (P *parser) build() (*orb.Wavefunction, error) {
	if len(P.atoms) == 0 {
		return nil, P.errorf(nil, "no atoms")
	}
	P.wf.Mol = orb.NewMolecule(P.atoms)
	if len(P.shells) == 0 {
		return nil, P.errorf(nil, "no basis set")
	}
	var shells []*orb.Shell
	for atom := range P.atoms {
		for _, r := range P.shells {
			if r.atom != atom {
				continue
			}
			cart := P.cart[r.l] || r.l == 1
			shells = append(shells, &orb.Shell{Atom: atom, L: r.l, Cartesian: cart, Prims: r.prims, Comps: Components(r.l, cart)})
		}
	}
	B := orb.NewBasisSet(shells)
	B.MarkPointCharges(P.wf.Mol)
	B.Normalize()
	P.wf.Basis = B
	n := B.NBas()
	beta := false
	for _, r := range P.orbs {
		beta = beta || r.spin == orb.Beta
	}
	var alphas, betas []*orb.Orbital
	for _, r := range P.orbs {
		o := &orb.Orbital{Coeffs: make([]float64, n), Energy: r.energy, EnergyValid: r.valid, Occupation: r.occ, Sym: r.sym, Type: '?'}
		for k, i := range r.idx {
			if i < 1 || i > n {
				return nil, orb.NewParseError(Name, P.path, r.line, nil, "coefficient index %d, but there are %d basis functions", i, n)
			}
			o.Coeffs[i-1] = r.coeffs[k]
		}
		if r.spin == orb.Beta {
			o.Spin = orb.Beta
			betas = append(betas, o)
			continue
		}
		if beta {
			o.Spin = orb.Alpha
		}
		alphas = append(alphas, o)
	}
	if beta {
		P.wf.Sets = append(P.wf.Sets,
			orb.NewOrbitalSet("Alpha orbitals", orb.StateDensity, 0, orb.Alpha, alphas),
			orb.NewOrbitalSet("Beta orbitals", orb.StateDensity, 0, orb.Beta, betas))
	} else if len(alphas) > 0 {
		P.wf.Sets = append(P.wf.Sets, orb.NewOrbitalSet("Orbitals", orb.StateDensity, 0, orb.NoSpin, alphas))
	}
	symmetryLabels(P.wf)
	if err := P.wf.Check(P.opt.Conf()); err != nil {
		return nil, P.errorf(err, "inconsistent data")
	}
	return P.wf, nil
}

// symmetryLabels numbers the irreps in order of appearance.
func symmetryLabels(wf *orb.Wavefunction) {
	seen := make(map[string]int)
	for _, s := range wf.Sets {
		for _, o := range s.Orbitals {
			i, ok := seen[o.Sym]
			if !ok {
				i = len(seen)
				seen[o.Sym] = i
			}
			o.Irrep = i
		}
	}
}
