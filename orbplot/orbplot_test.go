/*
 * orbplot/orbplot_test.go, part of gorbital.
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

package orbplot

import (
	"bytes"
	"testing"

	orb "github.com/rmera/gorbital"
)

func set() *orb.OrbitalSet {
	orbs := []*orb.Orbital{
		{Energy: -0.5, EnergyValid: true, Occupation: 2, Sym: "ag"},
		{Energy: -0.5 + 1e-5, EnergyValid: true, Occupation: 2, Sym: "ag"},
		{Energy: 0.3, EnergyValid: true, Sym: "ag"},
		{Energy: 0.1, Sym: "b1", Irrep: 1},
		{Energy: 0.2, EnergyValid: true, Sym: "b1", Irrep: 1},
	}
	return orb.NewOrbitalSet("MOs", orb.StateDensity, 0, orb.NoSpin, orbs)
}

func TestColumns(Te *testing.T) {
	names, levels := Columns([]*orb.OrbitalSet{set()}, DefaultOptions())
	if len(names) != 2 || names[0] != "MOs ag" || names[1] != "MOs b1" {
		Te.Errorf("wrong columns %v", names)
	}
	if len(levels) != 4 {
		Te.Fatalf("%d levels, want 4", len(levels))
	}
	a, b := levels[0], levels[1]
	if !a.Occupied || levels[2].Occupied {
		Te.Error("wrong occupations")
	}
	if a.Right > b.Left || a.Left < -halfWidth || b.Right > halfWidth {
		Te.Errorf("degenerate levels overlap: %+v %+v", a, b)
	}
	if levels[3].Column != 1 || levels[3].Orbital != 4 {
		Te.Errorf("wrong last level %+v", levels[3])
	}
	opt := DefaultOptions()
	opt.EV = true
	opt.Min, opt.Max = -20, 0
	_, levels = Columns([]*orb.OrbitalSet{set()}, opt)
	if len(levels) != 2 || levels[0].Energy > -13 {
		Te.Errorf("energy window not applied: %+v", levels)
	}
}

func TestEncode(Te *testing.T) {
	var buf bytes.Buffer
	opt := DefaultOptions()
	opt.Title = "levels"
	if err := Encode(&buf, "svg", []*orb.OrbitalSet{set()}, opt); err != nil {
		Te.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("<svg")) {
		Te.Error("not an SVG document")
	}
	opt.Min, opt.Max = 10, 20
	if err := Encode(&buf, "svg", []*orb.OrbitalSet{set()}, opt); err == nil {
		Te.Error("empty diagram accepted")
	}
}
