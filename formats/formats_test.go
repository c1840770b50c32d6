/*
 * formats/formats_test.go, part of gorbital.
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

package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats/container"
	"github.com/rmera/gorbital/formats/cube"
	"github.com/rmera/gorbital/formats/molden"
)

func copyWithPrefix(Te *testing.T, src, prefix string) string {
	data, err := os.ReadFile(src)
	if err != nil {
		Te.Fatal(err)
	}
	dst := filepath.Join(Te.TempDir(), filepath.Base(src))
	if err := os.WriteFile(dst, append([]byte(prefix), data...), 0o644); err != nil {
		Te.Fatal(err)
	}
	return dst
}

func TestSniffed(Te *testing.T) {
	for _, c := range []struct{ file, format string }{
		{"molden/testdata/h2_starred.molden", molden.Name},
		{"inporb/testdata/five.inporb", "inporb"},
	} {
		name, err := Detect(c.file)
		if err != nil {
			Te.Fatal(err)
		}
		if name != c.format {
			Te.Errorf("%s detected as %q, want %q", c.file, name, c.format)
		}
		wf, err := Load(c.file)
		if err != nil {
			Te.Fatal(err)
		}
		if wf.Format != c.format {
			Te.Errorf("%s read as %q", c.file, wf.Format)
		}
	}
}

// An InpOrb section after some text is not recognized by any sniffer, but
// the InpOrb reader accepts it after the container and Molden readers fail.
func TestFallback(Te *testing.T) {
	path := copyWithPrefix(Te, "inporb/testdata/five.inporb", "some notes\nmore notes\n")
	name, err := Detect(path)
	if err != nil {
		Te.Fatal(err)
	}
	if name != "" {
		Te.Errorf("detected as %q", name)
	}
	wf, err := Load(path)
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Format != "inporb" || wf.Sets[0].Len() != 3 {
		Te.Errorf("read as %q with %d orbitals", wf.Format, wf.Sets[0].Len())
	}
}

func TestNoReader(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "junk.txt")
	if err := os.WriteFile(path, []byte("nothing\nto\nsee here\n"), 0o644); err != nil {
		Te.Fatal(err)
	}
	_, err := Load(path)
	if !orb.IsParse(err) {
		Te.Errorf("expected a parse error, got %v", err)
	}
	if _, err := Load(filepath.Join(Te.TempDir(), "missing")); err == nil || orb.IsParse(err) {
		Te.Errorf("a missing file should give an I/O error, got %v", err)
	}
	h5 := filepath.Join(Te.TempDir(), "broken.h5")
	if err := os.WriteFile(h5, append([]byte("\x89HDF\r\n\x1a\n"), 0, 0, 0, 0), 0o644); err != nil {
		Te.Fatal(err)
	}
	_, err = Load(h5)
	if err == nil || (!container.HDF5 && !errors.Is(err, container.ErrNoHDF5)) {
		Te.Errorf("expected ErrNoHDF5 for a build without HDF5, got %v", err)
	}
}

func TestCompanion(Te *testing.T) {
	companion, err := Load("molden/testdata/h2_starred.molden")
	if err != nil {
		Te.Fatal(err)
	}
	spec := orb.NewOrthoGrid([3]float64{-1, -1, -1}, [3]float64{1, 1, 1}, [3]int{2, 2, 2})
	f := orb.NewScalarField(spec)
	g := orb.NewScalarField(spec)
	f.Orbital, g.Orbital = 0, 1
	dir := Te.TempDir()
	path := filepath.Join(dir, "two.cube")
	if err := cube.Write(path, companion.Mol, "first two", f, g); err != nil {
		Te.Fatal(err)
	}
	opt := orb.DefaultReadOptions()
	opt.Companion = companion
	wf, err := LoadWith(path, opt)
	if err != nil {
		Te.Fatal(err)
	}
	if wf.Basis == nil || len(wf.Fields) != 2 || wf.Fields[1].Orbital != 1 {
		Te.Fatalf("grids not mapped onto the companion")
	}
	g.Orbital = 9
	if err := cube.Write(path, companion.Mol, "too far", f, g); err != nil {
		Te.Fatal(err)
	}
	if _, err := LoadWith(path, opt); !orb.IsIncomplete(err) {
		Te.Errorf("expected missing data, got %v", err)
	}
}

func TestSave(Te *testing.T) {
	wf, err := Load("molden/testdata/h2_starred.molden")
	if err != nil {
		Te.Fatal(err)
	}
	dir := Te.TempDir()
	for _, name := range []string{"h2.molden", "h2.zst", "h2.json"} {
		path := filepath.Join(dir, name)
		if err := Save(path, wf); err != nil {
			Te.Fatalf("%s: %v", name, err)
		}
		back, err := Load(path)
		if err != nil {
			Te.Fatalf("%s: %v", name, err)
		}
		if back.Basis.NBas() != wf.Basis.NBas() || back.Sets[0].Len() != wf.Sets[0].Len() {
			Te.Errorf("%s: content changed", name)
		}
	}
	if err := Save(filepath.Join(dir, "h2.xyz"), wf); err == nil {
		Te.Error("unknown extension accepted")
	}
}
