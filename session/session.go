/*
 * session/session.go, part of gorbital.
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

//Package session holds the file being viewed, its cache of computed fields
//and the computations in flight.
//
//A Session owns one wavefunction at a time. Computations read it under a
//read lock; loading another file, editing an orbital set or closing the
//session first cancels them and then takes the write lock. Cancelled
//requests return before their computation notices, so the computations
//themselves also hold a lock, and a model change waits for them to exit
//before it goes on. No computation ever sees a model being replaced.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/cache"
	"github.com/rmera/gorbital/formats"
	"github.com/rmera/gorbital/grid"
)

// ErrClosed is returned by the methods of a closed session.
var ErrClosed = errors.New("session: closed")

// Request describes a field to compute.
type Request struct {
	Set       uint64          //ID of the orbital set, 0 for the first one
	Orbital   int             //index in the set, or -1 for a density
	Kind      orb.DensityKind //for densities
	Other     uint64          //the second set of spin, transition and difference densities, 0 to guess it
	Mask      []bool          //orbitals contributing to a state density, nil for all
	Laplacian bool
	Grid      *orb.GridSpec //nil for the default box
}

// Result is the outcome of an asynchronous request.
type Result struct {
	Field *orb.ScalarField
	Err   error
}

// Session is safe for concurrent use.
type Session struct {
	ctl    sync.Mutex   //serializes model changes
	mu     sync.RWMutex //guards the model
	run    sync.RWMutex //held for reading by running computations
	wf     *orb.Wavefunction
	eval   *grid.Evaluator
	box    orb.GridSpec
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	srcMu   sync.Mutex
	sources map[uint64][]uint64 //cache sources computed from each set ID

	cfg   orb.Config
	cache *cache.Cache
	log   *slog.Logger
}

// New returns an empty session. If cfg.PersistCache is set, computed
// fields are also stored under cfg.ScratchDir. logger can be nil.
func New(cfg orb.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	var scratch *cache.Scratch
	if cfg.PersistCache && cfg.ScratchDir != "" {
		var err error
		if scratch, err = cache.NewScratch(cfg.ScratchDir); err != nil {
			return nil, err
		}
		scratch.MaxValues = cfg.MaxGridValues
	}
	S := &Session{cfg: cfg, log: logger, cache: cache.New(scratch, logger), sources: make(map[uint64][]uint64)}
	S.ctx, S.cancel = context.WithCancel(context.Background())
	return S, nil
}

// Cache returns the cache of the session.
func (S *Session) Cache() *cache.Cache {
	return S.cache
}

// Config returns the configuration of the session.
func (S *Session) Config() orb.Config {
	return S.cfg
}

// Wavefunction returns the current model, or nil. It must be treated as
// read-only.
func (S *Session) Wavefunction() *orb.Wavefunction {
	S.mu.RLock()
	defer S.mu.RUnlock()
	return S.wf
}

// Load reads path and makes it the current model. companion, which can be
// nil, provides the basis set for files that lack it.
func (S *Session) Load(path string, companion *orb.Wavefunction) error {
	opt := formats.Options{Companion: companion, Config: S.cfg, Logger: S.log}
	wf, err := formats.LoadWith(path, opt)
	if err != nil {
		return orb.ErrDecorate(err, "session.Load")
	}
	return S.Replace(wf)
}

// halt cancels the computations in flight and takes the write lock. The
// returned function releases it with a fresh context for new computations.
func (S *Session) halt() func() {
	S.ctl.Lock()
	S.cancel()
	S.mu.Lock()
	S.run.Lock()
	return func() {
		S.ctx, S.cancel = context.WithCancel(context.Background())
		S.run.Unlock()
		S.mu.Unlock()
		S.ctl.Unlock()
	}
}

// Replace makes wf the current model, dropping every field computed from
// the previous one.
func (S *Session) Replace(wf *orb.Wavefunction) error {
	var eval *grid.Evaluator
	var box orb.GridSpec
	if wf.Basis != nil {
		var err error
		if eval, err = grid.New(wf, S.cfg); err != nil {
			return orb.ErrDecorate(err, "session.Replace")
		}
	}
	if wf.Mol != nil && wf.Mol.Len() > 0 {
		box = grid.Box(wf.Mol, S.cfg)
	}
	release := S.halt()
	defer release()
	if S.closed {
		return ErrClosed
	}
	S.cache.Clear()
	S.srcMu.Lock()
	S.sources = make(map[uint64][]uint64)
	S.srcMu.Unlock()
	S.wf, S.eval, S.box = wf, eval, box
	S.log.Info("session: model replaced", "file", wf.Source, "format", wf.Format)
	return nil
}

// Edit replaces the set with ID old by set, and invalidates the fields
// computed from the old one.
func (S *Session) Edit(old uint64, set *orb.OrbitalSet) error {
	release := S.halt()
	defer release()
	if S.closed {
		return ErrClosed
	}
	if S.wf == nil {
		return fmt.Errorf("session: nothing loaded")
	}
	if err := S.wf.ReplaceSet(old, set); err != nil {
		return orb.ErrDecorate(err, "session.Edit")
	}
	S.srcMu.Lock()
	srcs := S.sources[old]
	delete(S.sources, old)
	S.srcMu.Unlock()
	var errs []error
	for _, src := range srcs {
		errs = append(errs, S.cache.Invalidate(src))
	}
	return errors.Join(errs...)
}

// Close cancels every computation and drops the model and the fields in
// memory. Persisted fields are kept for later sessions.
func (S *Session) Close() error {
	release := S.halt()
	defer release()
	S.cache.Clear()
	S.wf, S.eval = nil, nil
	S.closed = true
	return nil
}

// Initial returns the ID of the first set and the index of the orbital to
// show when a file is opened: the highest occupied one, or -1.
func (S *Session) Initial() (uint64, int) {
	S.mu.RLock()
	defer S.mu.RUnlock()
	if S.wf == nil || len(S.wf.Sets) == 0 {
		return 0, -1
	}
	set := S.wf.Sets[0]
	return set.ID, set.HOMO()
}

// Request starts the computation of r in the background and returns a
// channel that receives its result.
func (S *Session) Request(ctx context.Context, r Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		f, err := S.Compute(ctx, r)
		ch <- Result{f, err}
	}()
	return ch
}

func (S *Session) set(id uint64) (*orb.OrbitalSet, error) {
	if id == 0 {
		if len(S.wf.Sets) == 0 {
			return nil, &orb.IncompleteDataError{Format: S.wf.Format, File: S.wf.Source, Missing: "orbitals"}
		}
		return S.wf.Sets[0], nil
	}
	if s := S.wf.SetByID(id); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("session: no orbital set with ID %d", id)
}

// other returns the second set of a two-set density.
func (S *Session) other(r Request, set *orb.OrbitalSet) (*orb.OrbitalSet, error) {
	if r.Other != 0 {
		return S.set(r.Other)
	}
	var o *orb.OrbitalSet
	switch r.Kind {
	case orb.SpinDensity:
		o = S.wf.Set(set.Kind, set.State, orb.Beta)
	case orb.DifferenceDensity:
		o = S.wf.Set(orb.StateDensity, 0, set.Spin)
	}
	if o == nil || o == set {
		return nil, &orb.IncompleteDataError{Format: S.wf.Format, File: S.wf.Source, Missing: fmt.Sprintf("second orbital set for the %s density", r.Kind)}
	}
	return o, nil
}

func maskString(mask []bool) string {
	if mask == nil {
		return ""
	}
	var b strings.Builder
	for i, m := range mask {
		if m {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(i))
		}
	}
	return "[" + b.String() + "]"
}

func (S *Session) source(sets ...*orb.OrbitalSet) uint64 {
	src := S.wf.Fingerprint(sets...)
	S.srcMu.Lock()
	for _, s := range sets {
		S.sources[s.ID] = append(S.sources[s.ID], src)
	}
	S.srcMu.Unlock()
	return src
}

// precomputed returns a field stored in a grid file.
func (S *Session) precomputed(r Request, set *orb.OrbitalSet) (*orb.ScalarField, error) {
	if r.Orbital >= 0 && set == S.wf.Sets[0] && !r.Laplacian {
		for _, f := range S.wf.Fields {
			if f.Orbital == r.Orbital && (r.Grid == nil || *r.Grid == f.Spec) {
				return f, nil
			}
		}
	}
	what := "the basis set needed to compute this field"
	if r.Orbital >= 0 {
		what = fmt.Sprintf("orbital %d on the requested grid", r.Orbital+1)
	}
	return nil, &orb.IncompleteDataError{Format: S.wf.Format, File: S.wf.Source, Missing: what, Need: S.wf.NeedsCompanion}
}

// guard makes p run under the run lock, so that halt waits for it. A
// computation that only gets the lock after a model change gives up.
func (S *Session) guard(p cache.Producer) cache.Producer {
	return func(ctx context.Context) (*orb.ScalarField, error) {
		S.run.RLock()
		defer S.run.RUnlock()
		if err := ctx.Err(); err != nil {
			return nil, &orb.CancelledOperation{Op: "compute", Cause: err}
		}
		return p(ctx)
	}
}

// Compute returns the field described by r, from the cache or computing
// it. It is cancelled when ctx is, or when the model is replaced.
func (S *Session) Compute(ctx context.Context, r Request) (*orb.ScalarField, error) {
	S.mu.RLock()
	defer S.mu.RUnlock()
	if S.closed {
		return nil, ErrClosed
	}
	if S.wf == nil {
		return nil, fmt.Errorf("session: nothing loaded")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(S.ctx, cancel)
	defer stop()
	set, err := S.set(r.Set)
	if err != nil {
		return nil, err
	}
	if S.eval == nil {
		return S.precomputed(r, set)
	}
	spec := S.box
	if r.Grid != nil {
		spec = *r.Grid
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	key := cache.Key{Kind: r.Kind, State: set.State, Spin: set.Spin, Orbital: -1, Grid: spec.Hash()}
	var produce cache.Producer
	E := S.eval
	switch {
	case r.Orbital >= 0:
		key.Source, key.Kind, key.Orbital = S.source(set), set.Kind, r.Orbital
		produce = func(ctx context.Context) (*orb.ScalarField, error) { return E.Orbital(ctx, set, r.Orbital, spec) }
	case r.Kind == set.Kind:
		//the set itself describes the density, as the eigenvectors of a
		//density matrix do.
		key.Source, key.Mask = S.source(set), maskString(r.Mask)
		produce = func(ctx context.Context) (*orb.ScalarField, error) { return E.Density(ctx, set, r.Mask, spec) }
	case r.Kind == orb.SpinDensity:
		beta, err := S.other(r, set)
		if err != nil {
			return nil, err
		}
		key.Source, key.Spin = S.source(set, beta), orb.NoSpin
		produce = func(ctx context.Context) (*orb.ScalarField, error) { return E.SpinDensity(ctx, set, beta, spec) }
	case r.Kind == orb.TransitionDensity:
		from, err := S.other(r, set)
		if err != nil {
			return nil, err
		}
		key.Source = S.source(from, set)
		produce = func(ctx context.Context) (*orb.ScalarField, error) { return E.Transition(ctx, from, set, spec) }
	case r.Kind == orb.DifferenceDensity:
		ref, err := S.other(r, set)
		if err != nil {
			return nil, err
		}
		key.Source = S.source(ref, set)
		produce = func(ctx context.Context) (*orb.ScalarField, error) { return E.Difference(ctx, ref, set, spec) }
	default:
		return nil, fmt.Errorf("session: can't compute a %s density from set %q", r.Kind, set.Name)
	}
	produce = S.guard(produce)
	if r.Laplacian {
		base, baseProduce := key, produce
		key.Derived = "laplacian"
		produce = func(ctx context.Context) (*orb.ScalarField, error) {
			f, err := S.cache.GetOrCompute(ctx, base, baseProduce)
			if err != nil {
				return nil, err
			}
			return grid.Laplacian(f)
		}
	}
	f, err := S.cache.GetOrCompute(ctx, key, produce)
	if err != nil {
		return nil, orb.ErrDecorate(err, "session.Compute")
	}
	S.log.Debug("session: field ready", "key", key.String())
	return f, nil
}
