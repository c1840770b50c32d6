/*
 * config_test.go, part of gorbital.
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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(Te *testing.T) {
	c, err := LoadConfig("testdata/config.toml")
	if err != nil {
		Te.Fatal(err)
	}
	if c.GridPoints != 40 || c.GridClearance != 3.5 || c.MaxAtomicNumber != 36 || c.Workers != 2 {
		Te.Errorf("values not read: %+v", c)
	}
	if c.PollRows != DefaultConfig().PollRows {
		Te.Errorf("missing keys should keep their defaults")
	}
	if err := c.CheckZ(54); err == nil {
		Te.Error("Xe accepted with max_atomic_number = 36")
	}
	bad := filepath.Join(Te.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("grid_points = 1\n"), 0644); err != nil {
		Te.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		Te.Error("invalid grid_points accepted")
	}
}

func TestCheckGrid(Te *testing.T) {
	c := DefaultConfig()
	c.MaxGridValues = 1000
	if n, err := c.CheckGrid(2, [3]int{5, 10, 10}); err != nil || n != 1000 {
		Te.Errorf("CheckGrid = %d, %v, expected 1000 values", n, err)
	}
	for _, counts := range [][3]int{{5, 10, 11}, {0, 1, 1}, {-1, 1, 1}, {1 << 40, 1 << 40, 1 << 40}} {
		if _, err := c.CheckGrid(2, counts); err == nil {
			Te.Errorf("grid %v accepted", counts)
		}
	}
	if err := c.CheckAtoms(c.MaxAtoms + 1); err == nil {
		Te.Error("too many atoms accepted")
	}
}
