/*
 * cache/cache.go, part of gorbital.
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

//Package cache keeps the scalar fields computed from orbital sets, so each
//one is computed at most once until its source is invalidated. Fields can
//optionally be persisted, zstd-compressed, in a scratch directory.
package cache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	orb "github.com/rmera/gorbital"
	"golang.org/x/sync/singleflight"
)

// Key identifies a computed field.
type Key struct {
	Source  uint64 //fingerprint of the wavefunction and orbital set(s) the field comes from
	Kind    orb.DensityKind
	State   int
	Spin    orb.Spin
	Orbital int    //-1 for densities
	Mask    string //selection of orbitals contributing to a density, "" for all
	Derived string //further processing or a second set, e.g. "laplacian"
	Grid    uint64 //GridSpec.Hash()
}

func (K Key) String() string {
	return fmt.Sprintf("%016x/%s/%d/%s/%d/%s/%s/%016x", K.Source, K.Kind, K.State, K.Spin, K.Orbital, K.Mask, K.Derived, K.Grid)
}

// Hash returns a hash of the whole key.
func (K Key) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(K.String()))
	return h.Sum64()
}

// Producer computes the field for a key.
type Producer func(ctx context.Context) (*orb.ScalarField, error)

// Cache is a set of computed fields, safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*orb.ScalarField
	gens    map[uint64]uint64 //per source, bumped by Invalidate
	epoch   uint64            //bumped by Clear
	group   singleflight.Group
	scratch *Scratch
	log     *slog.Logger
}

// New returns an empty cache. scratch and logger can be nil.
func New(scratch *Scratch, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{entries: make(map[Key]*orb.ScalarField), gens: make(map[uint64]uint64), scratch: scratch, log: logger}
}

// Len returns the number of fields in memory.
func (C *Cache) Len() int {
	C.mu.Lock()
	defer C.mu.Unlock()
	return len(C.entries)
}

// Get returns the field for key, if it is in memory.
func (C *Cache) Get(key Key) (*orb.ScalarField, bool) {
	C.mu.Lock()
	defer C.mu.Unlock()
	f, ok := C.entries[key]
	return f, ok
}

func (C *Cache) stamp(source uint64) (uint64, uint64) {
	return C.epoch, C.gens[source]
}

// GetOrCompute returns the field stored for key or, if there is none,
// calls produce and stores its result. Concurrent calls for the same key
// share a single call to produce. Each caller waits only as long as its own
// ctx allows. If the computation fails or is cancelled nothing is stored,
// and callers whose context is still alive start a new one.
func (C *Cache) GetOrCompute(ctx context.Context, key Key, produce Producer) (*orb.ScalarField, error) {
	for {
		C.mu.Lock()
		if f, ok := C.entries[key]; ok {
			C.mu.Unlock()
			return f, nil
		}
		epoch, gen := C.stamp(key.Source)
		C.mu.Unlock()
		//the stamp is part of the flight name so requests made after an
		//invalidation never join a stale computation.
		name := fmt.Sprintf("%s#%d.%d", key, epoch, gen)
		ch := C.group.DoChan(name, func() (any, error) {
			return C.compute(ctx, key, epoch, gen, produce)
		})
		select {
		case <-ctx.Done():
			return nil, &orb.CancelledOperation{Op: "wait for " + key.String(), Cause: ctx.Err()}
		case r := <-ch:
			if r.Err == nil {
				return r.Val.(*orb.ScalarField), nil
			}
			if orb.IsCancelled(r.Err) && ctx.Err() == nil {
				//someone else's computation was cancelled, not ours.
				continue
			}
			return nil, r.Err
		}
	}
}

func (C *Cache) compute(ctx context.Context, key Key, epoch, gen uint64, produce Producer) (*orb.ScalarField, error) {
	C.mu.Lock()
	if f, ok := C.entries[key]; ok {
		C.mu.Unlock()
		return f, nil
	}
	C.mu.Unlock()
	var f *orb.ScalarField
	if C.scratch != nil {
		var err error
		f, err = C.scratch.Load(key)
		if err != nil {
			C.log.Warn("cache: unreadable scratch entry, recomputing", "key", key.String(), "error", err)
			f = nil
		}
	}
	persist := false
	if f == nil {
		var err error
		f, err = produce(ctx)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, errors.New("cache: producer returned no field")
		}
		persist = true
	}
	C.mu.Lock()
	if e, g := C.stamp(key.Source); e != epoch || g != gen {
		C.mu.Unlock()
		C.log.Debug("cache: source invalidated during computation, result dropped", "key", key.String())
		return f, nil
	}
	C.entries[key] = f
	C.mu.Unlock()
	if persist && C.scratch != nil {
		if err := C.scratch.Save(key, f); err != nil {
			C.log.Warn("cache: can't persist field", "key", key.String(), "error", err)
		}
	}
	return f, nil
}

// Invalidate removes all the fields computed from source, including the
// persisted ones. Computations for source in flight finish, but their
// results are not stored.
func (C *Cache) Invalidate(source uint64) error {
	C.mu.Lock()
	for k := range C.entries {
		if k.Source == source {
			delete(C.entries, k)
		}
	}
	C.gens[source]++
	C.mu.Unlock()
	if C.scratch != nil {
		return C.scratch.RemoveSource(source)
	}
	return nil
}

// Clear removes all the fields in memory. Persisted fields are kept.
func (C *Cache) Clear() {
	C.mu.Lock()
	C.entries = make(map[Key]*orb.ScalarField)
	C.epoch++
	C.mu.Unlock()
}

// Scratch returns the scratch storage of the cache, or nil.
func (C *Cache) Scratch() *Scratch {
	return C.scratch
}
