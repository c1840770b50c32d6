/*
 * grid/grid.go, part of gorbital.
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

//Package grid evaluates orbitals, densities and Laplacians on the points
//of an orb.GridSpec.
package grid

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	orb "github.com/rmera/gorbital"
	"golang.org/x/sync/errgroup"
)

// radial factors below exp(-cutoff) are taken as zero.
const cutoff = 60.0

type shellData struct {
	center [3]float64
	minexp float64
	shell  *orb.Shell
	terms  [][]orb.Term
}

// Evaluator computes scalar fields from the orbitals expanded in a basis.
// If the basis is not normalized, the evaluator works on a normalized copy.
type Evaluator struct {
	Mol          *orb.Molecule
	Basis        *orb.BasisSet
	Threshold    float64 //coefficients with smaller absolute value are skipped
	OccThreshold float64 //orbitals with smaller absolute occupation are skipped in densities
	Workers      int     //0 means runtime.GOMAXPROCS(0)
	PollRows     int     //rows between checks for cancellation
	//Progress, if not nil, is called after each plane with the number of
	//planes done and the total. It can be called from several goroutines.
	Progress func(done, total int)
	shells   []shellData
	nbas     int
}

// New returns an evaluator for the molecule and basis in wf, using the
// thresholds and concurrency settings in cfg.
func New(wf *orb.Wavefunction, cfg orb.Config) (*Evaluator, error) {
	if wf.Basis == nil || wf.Mol == nil {
		return nil, &orb.IncompleteDataError{Format: wf.Format, File: wf.Source, Missing: "basis set", Need: wf.NeedsCompanion}
	}
	E := &Evaluator{
		Mol:          wf.Mol,
		Basis:        wf.Basis,
		Threshold:    cfg.CoefficientThreshold,
		OccThreshold: cfg.OccupationThreshold,
		Workers:      cfg.Workers,
		PollRows:     cfg.PollRows,
	}
	if err := E.init(); err != nil {
		return nil, err
	}
	return E, nil
}

func (E *Evaluator) init() error {
	if err := E.Basis.Check(E.Mol); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if !E.Basis.Normalized() {
		E.Basis = E.Basis.Copy()
		E.Basis.Normalize()
	}
	E.nbas = E.Basis.NBas()
	E.shells = make([]shellData, len(E.Basis.Shells))
	for i, s := range E.Basis.Shells {
		d := shellData{center: E.Mol.Atoms[s.Atom].Coords, minexp: s.MinExp(), shell: s}
		d.terms = make([][]orb.Term, s.Len())
		for j := range d.terms {
			d.terms[j] = s.Terms(j)
		}
		E.shells[i] = d
	}
	return nil
}

func ipow(x float64, n int) float64 {
	r := 1.0
	for ; n > 0; n-- {
		r *= x
	}
	return r
}

// AOs puts in ao the values of all basis functions at the point p.
// ao must have NBas elements.
func (E *Evaluator) AOs(p [3]float64, ao []float64) {
	if E.shells == nil {
		if err := E.init(); err != nil {
			panic(err.Error())
		}
	}
	for _, s := range E.shells {
		x := p[0] - s.center[0]
		y := p[1] - s.center[1]
		z := p[2] - s.center[2]
		r2 := x*x + y*y + z*z
		if s.minexp*r2 > cutoff {
			for _, f := range s.shell.Funcs {
				ao[f] = 0
			}
			continue
		}
		rad := s.shell.Radial(r2)
		for j, terms := range s.terms {
			ang := 0.0
			for _, t := range terms {
				ang += t.C * ipow(x, t.Lx) * ipow(y, t.Ly) * ipow(z, t.Lz)
			}
			ao[s.shell.Funcs[j]] = rad * ang
		}
	}
}

// term is one orbital in a sum of products.
type term struct {
	w      float64
	a, b   []float64 //the (sparse) coefficients of the orbitals multiplied
	square bool      //b is a
}

// sparse returns the coefficients as a sparse vector, with zeros in place of
// the ones below the threshold, or nil if all of them are.
func (E *Evaluator) sparse(c []float64) []float64 {
	ret := make([]float64, len(c))
	nonzero := false
	for i, v := range c {
		if math.Abs(v) > E.Threshold {
			ret[i] = v
			nonzero = true
		}
	}
	if !nonzero {
		return nil
	}
	return ret
}

func dot(c, ao []float64) float64 {
	s := 0.0
	for i, v := range c {
		if v != 0 {
			s += v * ao[i]
		}
	}
	return s
}

// value returns sum_i w_i phi_i^a phi_i^b over terms.
func value(terms []term, ao []float64) float64 {
	s := 0.0
	for _, t := range terms {
		pa := dot(t.a, ao)
		if t.square {
			s += t.w * pa * pa
			continue
		}
		s += t.w * pa * dot(t.b, ao)
	}
	return s
}

func (E *Evaluator) workers() int {
	if E.Workers > 0 {
		return E.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (E *Evaluator) pollRows() int {
	if E.PollRows > 0 {
		return E.PollRows
	}
	return 16
}

// run evaluates f at all points of spec, one x plane per task. The context
// is checked before each plane and every PollRows rows within a plane.
func (E *Evaluator) run(ctx context.Context, op string, spec orb.GridSpec, f func(ao []float64) float64) (*orb.ScalarField, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("grid: %s: %w", op, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	field := orb.NewScalarField(spec)
	total := spec.Counts[0]
	var done atomic.Int64
	poll := E.pollRows()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(E.workers())
	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ao := make([]float64, E.nbas)
			for j := 0; j < spec.Counts[1]; j++ {
				if j%poll == 0 && j > 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				for k := 0; k < spec.Counts[2]; k++ {
					E.AOs(spec.Point(i, j, k), ao)
					field.Values[spec.Index(i, j, k)] = f(ao)
				}
			}
			n := done.Add(1)
			if E.Progress != nil {
				E.Progress(int(n), total)
			}
			return nil
		})
	}
	err := g.Wait()
	if ctx.Err() != nil {
		return nil, &orb.CancelledOperation{Op: op, Done: int(done.Load()), Total: total, Cause: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	return field, nil
}
