/*
 * formats/formats.go, part of gorbital.
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

//Package formats reads every supported file format into an
//orb.Wavefunction, guessing the format from the content of the file.
package formats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/container"
	"github.com/rmera/gorbital/formats/cube"
	"github.com/rmera/gorbital/formats/gridtxt"
	"github.com/rmera/gorbital/formats/inporb"
	"github.com/rmera/gorbital/formats/luscus"
	"github.com/rmera/gorbital/formats/molden"
	"github.com/rmera/gorbital/formats/volume"
)

// Options are the settings passed to every reader.
type Options = orb.ReadOptions

// HeadSize is the number of bytes given to the sniffers.
const HeadSize = 4096

// Reader is one supported input format.
type Reader struct {
	Name  string
	Sniff func(head []byte) bool
	Read  func(path string, opt Options) (*orb.Wavefunction, error)
}

// Readers returns the supported formats in priority order.
func Readers() []Reader {
	return []Reader{
		{container.Name, container.Sniff, container.Read},
		{molden.Name, molden.Sniff, molden.Read},
		{inporb.Name, inporb.Sniff, inporb.Read},
		{luscus.Name, luscus.Sniff, luscus.Read},
		{gridtxt.Name, gridtxt.Sniff, gridtxt.Read},
		{cube.Name, cube.Sniff, cube.Read},
	}
}

func head(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, HeadSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// Candidates returns the readers to try for a file, those whose sniffer
// recognizes head first, each group in priority order.
func Candidates(head []byte) []Reader {
	var yes, no []Reader
	for _, r := range Readers() {
		if r.Sniff(head) {
			yes = append(yes, r)
		} else {
			no = append(no, r)
		}
	}
	return append(yes, no...)
}

// Detect returns the name of the first format whose sniffer recognizes the
// file, or an empty string.
func Detect(path string) (string, error) {
	h, err := head(path)
	if err != nil {
		return "", err
	}
	for _, r := range Readers() {
		if r.Sniff(h) {
			return r.Name, nil
		}
	}
	return "", nil
}

// Load reads path with the default options.
func Load(path string) (*orb.Wavefunction, error) {
	return LoadWith(path, orb.DefaultReadOptions())
}

// LoadWith reads path, trying the candidate readers until one succeeds.
// A reader that fails with a ParseError passes the file to the next one.
// Any other error, IncompleteDataError included, is returned at once. If a
// grid file is read and opt has a companion, the grids are mapped onto
// the companion's orbitals.
func LoadWith(path string, opt Options) (*orb.Wavefunction, error) {
	h, err := head(path)
	if err != nil {
		return nil, err
	}
	log := opt.Log()
	var errs []error
	for _, r := range Candidates(h) {
		wf, err := r.Read(path, opt)
		if err != nil {
			if orb.IsParse(err) {
				log.Debug("format rejected", "file", path, "format", r.Name, "error", err)
				errs = append(errs, err)
				continue
			}
			return nil, orb.ErrDecorate(err, "formats.LoadWith")
		}
		if wf.Basis == nil && len(wf.Fields) > 0 && opt.Companion != nil {
			wf, err = volume.Resolve(wf, opt.Companion)
			if err != nil {
				return nil, orb.ErrDecorate(err, "formats.LoadWith")
			}
		}
		log.Info("loaded", "file", path, "format", wf.Format, "sets", len(wf.Sets), "fields", len(wf.Fields), "warnings", len(wf.Warnings))
		return wf, nil
	}
	return nil, orb.NewParseError("unknown", path, 0, errors.Join(errs...), "no reader accepts the file")
}

// Save writes wf to path in the format implied by the extension: .molden,
// .inporb/.orb, .cube/.cub (the precomputed fields), or a container for
// .json, .zst, .h5 and .hdf5.
func Save(path string, wf *orb.Wavefunction) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".molden", ".mold":
		return molden.Write(path, wf)
	case ".inporb", ".orb":
		return inporb.Write(path, wf)
	case ".cube", ".cub":
		return cube.Write(path, wf.Mol, wf.Title, wf.Fields...)
	case ".json", ".zst", ".h5", ".hdf5":
		return container.Write(path, wf, container.WriteOptions{Compress: ext == ".zst"})
	}
	return fmt.Errorf("formats: no writer for extension %q", ext)
}
