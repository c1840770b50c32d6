/*
 * grid/density.go, part of gorbital.
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

package grid

import (
	"context"
	"fmt"
	"math"

	orb "github.com/rmera/gorbital"
)

func (E *Evaluator) checkSet(set *orb.OrbitalSet) error {
	if set == nil {
		return fmt.Errorf("grid: nil orbital set")
	}
	if E.shells == nil {
		if err := E.init(); err != nil {
			return err
		}
	}
	for i, o := range set.Orbitals {
		if len(o.Coeffs) != E.nbas {
			return fmt.Errorf("grid: orbital %d of set %q has %d coefficients, the basis has %d", i+1, set.Name, len(o.Coeffs), E.nbas)
		}
	}
	return nil
}

// squares appends the terms w*occ_i*phi_i^2 for the orbitals in set
// selected by mask (all if mask is nil).
func (E *Evaluator) squares(terms []term, set *orb.OrbitalSet, mask []bool, w float64) []term {
	for i, o := range set.Orbitals {
		if mask != nil && (i >= len(mask) || !mask[i]) {
			continue
		}
		if math.Abs(o.Occupation) <= E.OccThreshold {
			continue
		}
		c := E.sparse(o.Coeffs)
		if c == nil {
			continue
		}
		terms = append(terms, term{w: w * o.Occupation, a: c, b: c, square: true})
	}
	return terms
}

func tag(f *orb.ScalarField, set *orb.OrbitalSet, kind orb.DensityKind) *orb.ScalarField {
	f.Kind = kind
	f.State = set.State
	f.Spin = set.Spin
	f.Label = set.Name
	return f
}

// Orbital returns the values of the orbital with index idx in set.
func (E *Evaluator) Orbital(ctx context.Context, set *orb.OrbitalSet, idx int, spec orb.GridSpec) (*orb.ScalarField, error) {
	if err := E.checkSet(set); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= set.Len() {
		return nil, fmt.Errorf("grid: orbital %d out of range in set %q", idx, set.Name)
	}
	c := E.sparse(set.Orbitals[idx].Coeffs)
	if c == nil {
		c = make([]float64, E.nbas)
	}
	f, err := E.run(ctx, "orbital", spec, func(ao []float64) float64 { return dot(c, ao) })
	if err != nil {
		return nil, err
	}
	tag(f, set, set.Kind)
	f.Orbital = idx
	f.Label = set.Orbitals[idx].Name(idx)
	return f, nil
}

// Density returns sum_i occ_i phi_i^2 over the orbitals of set selected
// by mask, or all of them if mask is nil. Orbitals with invalid energies
// contribute like any other.
func (E *Evaluator) Density(ctx context.Context, set *orb.OrbitalSet, mask []bool, spec orb.GridSpec) (*orb.ScalarField, error) {
	if err := E.checkSet(set); err != nil {
		return nil, err
	}
	terms := E.squares(nil, set, mask, 1)
	f, err := E.run(ctx, "density", spec, func(ao []float64) float64 { return value(terms, ao) })
	if err != nil {
		return nil, err
	}
	return tag(f, set, set.Kind), nil
}

// SpinDensity returns the difference between the densities of the alpha
// and beta sets.
func (E *Evaluator) SpinDensity(ctx context.Context, alpha, beta *orb.OrbitalSet, spec orb.GridSpec) (*orb.ScalarField, error) {
	if err := E.checkSet(alpha); err != nil {
		return nil, err
	}
	if err := E.checkSet(beta); err != nil {
		return nil, err
	}
	terms := E.squares(nil, alpha, nil, 1)
	terms = E.squares(terms, beta, nil, -1)
	f, err := E.run(ctx, "spin density", spec, func(ao []float64) float64 { return value(terms, ao) })
	if err != nil {
		return nil, err
	}
	tag(f, alpha, orb.SpinDensity)
	f.Spin = orb.NoSpin
	return f, nil
}

// Transition returns sum_i w_i phi_i^from phi_i^to, where the weights are
// the occupations of the from orbitals. Both sets must have the same length.
func (E *Evaluator) Transition(ctx context.Context, from, to *orb.OrbitalSet, spec orb.GridSpec) (*orb.ScalarField, error) {
	if err := E.checkSet(from); err != nil {
		return nil, err
	}
	if err := E.checkSet(to); err != nil {
		return nil, err
	}
	if from.Len() != to.Len() {
		return nil, fmt.Errorf("grid: transition between sets of %d and %d orbitals", from.Len(), to.Len())
	}
	var terms []term
	for i, o := range from.Orbitals {
		if math.Abs(o.Occupation) <= E.OccThreshold {
			continue
		}
		a, b := E.sparse(o.Coeffs), E.sparse(to.Orbitals[i].Coeffs)
		if a == nil || b == nil {
			continue
		}
		terms = append(terms, term{w: o.Occupation, a: a, b: b})
	}
	f, err := E.run(ctx, "transition density", spec, func(ao []float64) float64 { return value(terms, ao) })
	if err != nil {
		return nil, err
	}
	tag(f, to, orb.TransitionDensity)
	return f, nil
}

// Difference returns the density of target minus that of ref.
func (E *Evaluator) Difference(ctx context.Context, ref, target *orb.OrbitalSet, spec orb.GridSpec) (*orb.ScalarField, error) {
	if err := E.checkSet(ref); err != nil {
		return nil, err
	}
	if err := E.checkSet(target); err != nil {
		return nil, err
	}
	terms := E.squares(nil, target, nil, 1)
	terms = E.squares(terms, ref, nil, -1)
	f, err := E.run(ctx, "difference density", spec, func(ao []float64) float64 { return value(terms, ao) })
	if err != nil {
		return nil, err
	}
	return tag(f, target, orb.DifferenceDensity), nil
}
