/*
 * orbplot/orbplot.go, part of gorbital.
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

//Package orbplot draws orbital energy level diagrams with gonum/plot.
package orbplot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	orb "github.com/rmera/gorbital"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Options control the diagram.
type Options struct {
	Title    string
	EV       bool    //energies in eV instead of hartree
	Min, Max float64 //energy window, in the chosen unit. Ignored if Min >= Max
	OccThr   float64 //orbitals with more occupation are drawn as occupied
	Width    vg.Length
	Height   vg.Length
}

//DefaultOptions returns a 10x12 cm diagram in hartree.
func DefaultOptions() Options {
	return Options{OccThr: 0.1, Width: 10 * vg.Centimeter, Height: 12 * vg.Centimeter}
}

//Level is one line in the diagram.
type Level struct {
	Column   int
	Set      int //index in the sets given
	Orbital  int //index in the set
	Energy   float64
	Occupied bool
	Left     float64 //horizontal extent, degenerate levels share the column
	Right    float64
}

//degenerate levels closer than this, in hartree, are drawn side by side
const degTol = 1e-4

const halfWidth = 0.35

//Columns returns the column names and the levels of the diagram, one
//column per set and irrep. Orbitals without a valid energy, or outside the
//window, are left out.
func Columns(sets []*orb.OrbitalSet, opt Options) ([]string, []Level) {
	var names []string
	var levels []Level
	unit := 1.0
	if opt.EV {
		unit = orb.H2eV
	}
	for si, s := range sets {
		irreps := 0
		labels := map[int]string{}
		for _, o := range s.Orbitals {
			if o.Irrep+1 > irreps {
				irreps = o.Irrep + 1
			}
			if _, ok := labels[o.Irrep]; !ok && o.Sym != "" {
				labels[o.Irrep] = o.Sym
			}
		}
		for ir := 0; ir < irreps; ir++ {
			col := len(names)
			name := s.Name
			if irreps > 1 {
				l, ok := labels[ir]
				if !ok {
					l = fmt.Sprint(ir + 1)
				}
				name = fmt.Sprintf("%s %s", s.Name, l)
			}
			names = append(names, name)
			var c []Level
			for oi, o := range s.Orbitals {
				if o.Irrep != ir || !o.EnergyValid {
					continue
				}
				e := o.Energy * unit
				if opt.Min < opt.Max && (e < opt.Min || e > opt.Max) {
					continue
				}
				c = append(c, Level{Column: col, Set: si, Orbital: oi, Energy: e, Occupied: o.Occupation > opt.OccThr})
			}
			levels = append(levels, spread(c, float64(col), degTol*unit)...)
		}
	}
	return names, levels
}

//spread sorts the levels of a column by energy and splits the width of
//the column among degenerate ones.
func spread(c []Level, x, tol float64) []Level {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Energy < c[j].Energy })
	for i := 0; i < len(c); {
		j := i + 1
		for j < len(c) && c[j].Energy-c[i].Energy < tol {
			j++
		}
		w := 2 * halfWidth / float64(j-i)
		for k := i; k < j; k++ {
			c[k].Left = x - halfWidth + float64(k-i)*w + 0.05*w
			c[k].Right = x - halfWidth + float64(k-i+1)*w - 0.05*w
		}
		i = j
	}
	return c
}

//Diagram returns the energy level diagram of sets.
func Diagram(sets []*orb.OrbitalSet, opt Options) (*plot.Plot, error) {
	names, levels := Columns(sets, opt)
	if len(levels) == 0 {
		return nil, fmt.Errorf("orbplot: no orbital with a valid energy to draw")
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = opt.Title
	p.Y.Label.Text = "Energy / hartree"
	if opt.EV {
		p.Y.Label.Text = "Energy / eV"
	}
	p.NominalX(names...)
	p.X.Min = -0.5
	p.X.Max = float64(len(names)) - 0.5
	if opt.Min < opt.Max {
		p.Y.Min, p.Y.Max = opt.Min, opt.Max
	}
	g := plotter.NewGrid()
	g.Vertical.Color = nil
	p.Add(g)
	for _, l := range levels {
		line, err := plotter.NewLine(plotter.XYs{{X: l.Left, Y: l.Energy}, {X: l.Right, Y: l.Energy}})
		if err != nil {
			return nil, err
		}
		r, gr, b := colors(l.Column, len(names))
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = color.RGBA{R: r, G: gr, B: b, A: 255}
		if !l.Occupied {
			line.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		}
		p.Add(line)
	}
	return p, nil
}

func size(opt Options) (vg.Length, vg.Length) {
	w, h := opt.Width, opt.Height
	if w <= 0 {
		w = 10 * vg.Centimeter
	}
	if h <= 0 {
		h = 12 * vg.Centimeter
	}
	return w, h
}

//Save writes the diagram to a file, in the format given by the extension
//(png, svg, pdf, eps...).
func Save(path string, sets []*orb.OrbitalSet, opt Options) error {
	p, err := Diagram(sets, opt)
	if err != nil {
		return err
	}
	w, h := size(opt)
	return p.Save(w, h, path)
}

//Encode writes the diagram to w in the given format.
func Encode(w io.Writer, format string, sets []*orb.OrbitalSet, opt Options) error {
	p, err := Diagram(sets, opt)
	if err != nil {
		return err
	}
	wd, ht := size(opt)
	wt, err := p.WriterTo(wd, ht, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

//colors returns a color for key out of steps, spread over the hue wheel.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	return hsv2RGB(h, 1, 0.85)
}

func hsv2RGB(h, s, v float64) (uint8, uint8, uint8) {
	if s == 0 {
		c := uint8(255 * v)
		return c, c, c
	}
	h /= 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(255 * r), uint8(255 * g), uint8(255 * b)
}
