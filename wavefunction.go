/*
 * wavefunction.go, part of gorbital.
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
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
)

// Wavefunction is what a reader produces from a file: the molecule, the basis
// (nil for grid formats), the orbital sets and any precomputed fields.
type Wavefunction struct {
	Format   string
	Source   string
	Title    string
	Mol      *Molecule
	Basis    *BasisSet
	Sets     []*OrbitalSet
	Fields   []*ScalarField
	Warnings []*NumericAnomaly
	//non-empty if some data can only come from another file, which this
	//string describes.
	NeedsCompanion string
}

// Warn records an unreadable numeric field.
func (W *Wavefunction) Warn(field, text string, line int) *NumericAnomaly {
	a := &NumericAnomaly{Field: field, Text: text, File: W.Source, Line: line}
	W.Warnings = append(W.Warnings, a)
	return a
}

// Set returns the orbital set with the given kind, state and spin, or nil.
func (W *Wavefunction) Set(kind DensityKind, state int, spin Spin) *OrbitalSet {
	for _, s := range W.Sets {
		if s.Kind == kind && s.State == state && s.Spin == spin {
			return s
		}
	}
	return nil
}

// SetByID returns the orbital set with the given ID, or nil.
func (W *Wavefunction) SetByID(id uint64) *OrbitalSet {
	for _, s := range W.Sets {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ReplaceSet puts set in place of the one with ID old. It returns an error
// if there is no such set.
func (W *Wavefunction) ReplaceSet(old uint64, set *OrbitalSet) error {
	for i, s := range W.Sets {
		if s.ID == old {
			W.Sets[i] = set
			return nil
		}
	}
	return fmt.Errorf("no orbital set with ID %d", old)
}

// HasOrbitals returns true if orbital values can be computed, i.e. there is
// a basis and at least one orbital set.
func (W *Wavefunction) HasOrbitals() bool {
	return W.Basis != nil && len(W.Sets) > 0
}

// Check validates the atoms against the configured range, the basis against
// the molecule and the orbital coefficients against the basis size.
func (W *Wavefunction) Check(cfg Config) error {
	if W.Mol != nil {
		for i, a := range W.Mol.Atoms {
			if err := cfg.CheckZ(a.Z); err != nil {
				return fmt.Errorf("atom %d: %w", i+1, err)
			}
		}
	}
	if W.Basis == nil {
		return nil
	}
	if W.Mol == nil {
		return fmt.Errorf("basis set without atoms")
	}
	if err := W.Basis.Check(W.Mol); err != nil {
		return err
	}
	nbas := W.Basis.NBas()
	for _, s := range W.Sets {
		for j, o := range s.Orbitals {
			if len(o.Coeffs) != nbas {
				return fmt.Errorf("orbital %d in set %q has %d coefficients, basis has %d", j+1, s.Name, len(o.Coeffs), nbas)
			}
		}
	}
	return nil
}

type hasher struct {
	h   hash.Hash64
	buf [8]byte
}

func (H *hasher) f(v float64) {
	binary.LittleEndian.PutUint64(H.buf[:], math.Float64bits(v))
	H.h.Write(H.buf[:])
}

func (H *hasher) i(v int) {
	binary.LittleEndian.PutUint64(H.buf[:], uint64(v))
	H.h.Write(H.buf[:])
}

// Fingerprint returns a content hash of the geometry, the basis and the
// given orbital sets. Fields computed from equal fingerprints are equal,
// so it identifies cache entries across sessions.
func (W *Wavefunction) Fingerprint(sets ...*OrbitalSet) uint64 {
	H := &hasher{h: fnv.New64a()}
	H.h.Write([]byte(W.Format))
	if W.Mol != nil {
		for _, a := range W.Mol.Atoms {
			H.i(a.Z)
			for _, c := range a.Coords {
				H.f(c)
			}
		}
	}
	if W.Basis != nil {
		for _, s := range W.Basis.Shells {
			H.i(s.Atom)
			H.i(s.L)
			if s.Cartesian {
				H.i(1)
			}
			for _, p := range s.Prims {
				H.f(p.Exp)
				H.f(p.Coef)
			}
			for _, c := range s.Comps {
				H.i(c.M)
			}
			for _, f := range s.Funcs {
				H.i(f)
			}
		}
	}
	for _, set := range sets {
		H.i(int(set.Kind))
		H.i(set.State)
		H.i(int(set.Spin))
		for _, o := range set.Orbitals {
			H.f(o.Occupation)
			for _, c := range o.Coeffs {
				H.f(c)
			}
		}
	}
	return H.h.Sum64()
}
