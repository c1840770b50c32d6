/*
 * cache/scratch.go, part of gorbital.
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

package cache

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	orb "github.com/rmera/gorbital"
)

const (
	fieldExt = ".fld.zst"
	tombExt  = ".tomb"
	magic    = "GORBFLD1"
)

// Scratch stores fields in a directory, one zstd-compressed file per key.
// Files are written to a temporary name and renamed, so a reader never sees
// a partial file. Removal first renames the file to a tombstone, then
// deletes it. Tombstones that can't be deleted, for instance because some
// filesystems release file handles late, are removed by Sweep.
type Scratch struct {
	Dir       string
	MaxValues int //larger stored fields are rejected on Load
}

// NewScratch returns a scratch storage in dir, creating it if needed, and
// sweeps old tombstones.
func NewScratch(dir string) (*Scratch, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Error{err.Error(), dir, []string{"NewScratch"}, true}
	}
	S := &Scratch{Dir: dir, MaxValues: orb.DefaultConfig().MaxGridValues}
	if err := S.Sweep(); err != nil {
		return nil, errDecorate(err, "NewScratch")
	}
	return S, nil
}

func (S *Scratch) prefix(source uint64) string {
	return fmt.Sprintf("%016x-", source)
}

// Path returns the file name for key.
func (S *Scratch) Path(key Key) string {
	return filepath.Join(S.Dir, fmt.Sprintf("%s%016x%s", S.prefix(key.Source), key.Hash(), fieldExt))
}

// Save writes f to the file for key.
func (S *Scratch) Save(key Key, f *orb.ScalarField) error {
	name := S.Path(key)
	tmp, err := os.CreateTemp(S.Dir, ".tmp-*")
	if err != nil {
		return Error{err.Error(), name, []string{"Save"}, true}
	}
	defer os.Remove(tmp.Name()) //no-op after the rename
	zw, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		tmp.Close()
		return Error{err.Error(), name, []string{"Save"}, true}
	}
	w := bufio.NewWriter(zw)
	err = encodeField(w, key, f)
	if err == nil {
		err = w.Flush()
	}
	if err2 := zw.Close(); err == nil {
		err = err2
	}
	if err2 := tmp.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{err.Error(), name, []string{"Save"}, true}
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return Error{err.Error(), name, []string{"Save"}, true}
	}
	return nil
}

// Load reads the field for key. It returns nil and no error if there is
// no such file.
func (S *Scratch) Load(key Key) (*orb.ScalarField, error) {
	name := S.Path(key)
	fin, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, Error{err.Error(), name, []string{"Load"}, true}
	}
	defer fin.Close()
	zr, err := zstd.NewReader(fin)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"Load"}, true}
	}
	defer zr.Close()
	f, err := decodeField(bufio.NewReader(zr), key, S.MaxValues)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"Load"}, true}
	}
	return f, nil
}

// remove renames name to a tombstone and deletes it. A tombstone that
// can't be deleted is left for Sweep.
func (S *Scratch) remove(name string) error {
	tomb := name + tombExt
	if err := os.Rename(name, tomb); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return Error{err.Error(), name, []string{"remove"}, true}
	}
	if err := os.Remove(tomb); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Error{"removal delayed: " + err.Error(), tomb, []string{"remove"}, false}
	}
	return nil
}

// Remove deletes the file for key, if present.
func (S *Scratch) Remove(key Key) error {
	return errDecorate(S.remove(S.Path(key)), "Remove")
}

func (S *Scratch) glob(pattern string) ([]string, error) {
	m, err := filepath.Glob(filepath.Join(S.Dir, pattern))
	if err != nil {
		return nil, Error{err.Error(), S.Dir, []string{"glob"}, true}
	}
	return m, nil
}

func (S *Scratch) removeAll(pattern, caller string) error {
	files, err := S.glob(pattern)
	if err != nil {
		return errDecorate(err, caller)
	}
	//all the files become tombstones before anything is deleted, so
	//an interrupted removal leaves nothing that Load would read.
	var tombs []string
	for _, f := range files {
		if err := os.Rename(f, f+tombExt); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Error{err.Error(), f, []string{caller}, true}
		}
		tombs = append(tombs, f+tombExt)
	}
	var delayed error
	for _, t := range tombs {
		if err := os.Remove(t); err != nil && !errors.Is(err, fs.ErrNotExist) {
			delayed = Error{"removal delayed: " + err.Error(), t, []string{caller}, false}
		}
	}
	return delayed
}

// RemoveSource deletes all the files for fields computed from source.
func (S *Scratch) RemoveSource(source uint64) error {
	return S.removeAll(S.prefix(source)+"*"+fieldExt, "RemoveSource")
}

// RemoveAll deletes all the stored fields.
func (S *Scratch) RemoveAll() error {
	return S.removeAll("*"+fieldExt, "RemoveAll")
}

// Sweep deletes the tombstones and temporary files left by previous
// removals or interrupted writes.
func (S *Scratch) Sweep() error {
	tombs, err := S.glob("*" + tombExt)
	if err != nil {
		return errDecorate(err, "Sweep")
	}
	tmps, err := S.glob(".tmp-*")
	if err != nil {
		return errDecorate(err, "Sweep")
	}
	var last error
	for _, t := range append(tombs, tmps...) {
		if err := os.Remove(t); err != nil && !errors.Is(err, fs.ErrNotExist) {
			last = Error{err.Error(), t, []string{"Sweep"}, false}
		}
	}
	return last
}

// Files returns the names of the stored fields.
func (S *Scratch) Files() ([]string, error) {
	return S.glob("*" + fieldExt)
}

//The file format: the magic string, the key, the grid, the tags and
//the values, little-endian.

func encodeField(w io.Writer, key Key, f *orb.ScalarField) error {
	hdr := []any{
		[]byte(magic),
		key.Hash(),
		f.Spec.Origin,
		f.Spec.Axes,
		[3]int64{int64(f.Spec.Counts[0]), int64(f.Spec.Counts[1]), int64(f.Spec.Counts[2])},
		[4]int64{int64(f.Kind), int64(f.State), int64(f.Spin), int64(f.Orbital)},
		uint32(len(f.Label)),
		[]byte(f.Label),
		f.Values,
	}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeField(r io.Reader, key Key, limit int) (*orb.ScalarField, error) {
	m := make([]byte, len(magic))
	if _, err := io.ReadFull(r, m); err != nil {
		return nil, err
	}
	if string(m) != magic {
		return nil, fmt.Errorf("not a field file")
	}
	var h uint64
	var spec orb.GridSpec
	var counts [3]int64
	var tags [4]int64
	var llen uint32
	for _, v := range []any{&h, &spec.Origin, &spec.Axes, &counts, &tags, &llen} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	if h != key.Hash() {
		return nil, fmt.Errorf("file belongs to another key")
	}
	for i, c := range counts {
		if c < 1 || c > 1<<20 {
			return nil, fmt.Errorf("invalid grid count %d", c)
		}
		spec.Counts[i] = int(c)
	}
	cfg := orb.DefaultConfig()
	if limit > 0 {
		cfg.MaxGridValues = limit
	}
	if _, err := cfg.CheckGrid(1, spec.Counts); err != nil {
		return nil, err
	}
	if llen > 1<<16 {
		return nil, fmt.Errorf("label too long")
	}
	label := make([]byte, llen)
	if _, err := io.ReadFull(r, label); err != nil {
		return nil, err
	}
	f := orb.NewScalarField(spec)
	if err := binary.Read(r, binary.LittleEndian, f.Values); err != nil {
		return nil, err
	}
	if tags[0] < int64(orb.StateDensity) || tags[0] > int64(orb.DifferenceDensity) || tags[2] < 0 || tags[2] > 2 {
		return nil, fmt.Errorf("invalid field tags %v", tags)
	}
	f.Kind, f.State, f.Spin, f.Orbital = orb.DensityKind(tags[0]), int(tags[1]), orb.Spin(tags[2]), int(tags[3])
	f.Label = string(label)
	return f, nil
}

// Error is the error type for scratch storage operations.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("scratch file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file related to the error.
func (err Error) FileName() string { return err.filename }

// Critical returns false when the operation succeeded but left a tombstone
// behind, to be removed by Sweep.
func (err Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	return orb.ErrDecorate(err, caller)
}

// IsDelayed returns true if err only reports a tombstone that could not
// be deleted yet.
func IsDelayed(err error) bool {
	var e Error
	return errors.As(err, &e) && !e.critical && strings.Contains(e.message, "delayed")
}
