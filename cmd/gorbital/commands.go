/*
 * cmd/gorbital/commands.go, part of gorbital.
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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats"
	"github.com/rmera/gorbital/formats/cube"
	"github.com/rmera/gorbital/histo"
	"github.com/rmera/gorbital/orbplot"
	"github.com/rmera/gorbital/session"
)

func init() {
	register(&command{name: "info", args: "FILE", help: "Print the content of a file.", flags: infoFlags})
	register(&command{name: "convert", args: "IN OUT", help: "Convert a file to the format given by the extension of OUT.", flags: convertFlags})
	register(&command{name: "cube", args: "FILE OUT", help: "Compute an orbital or a density on a grid and write it as a cube file.", flags: cubeFlags})
	register(&command{name: "levels", args: "FILE OUT", help: "Draw an orbital energy level diagram (png, svg, pdf...).", flags: levelsFlags})
	register(&command{name: "settype", args: "FILE OUT ORBITAL TYPE", help: "Change the type letter of an orbital of the first set and save the result.", flags: settypeFlags})
}

func energy(o *orb.Orbital) string {
	if !o.EnergyValid {
		return fmt.Sprintf("%14s", "*****")
	}
	return fmt.Sprintf("%14.6f", o.Energy)
}

func infoFlags(fs *flag.FlagSet) func(*global, []string, io.Writer) error {
	all := fs.Bool("all", false, "List the orbitals of every set, not only the occupied ones and the first virtuals.")
	return func(g *global, args []string, out io.Writer) error {
		wf, err := g.load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "File:   %s (%s)\n", wf.Source, wf.Format)
		if wf.Title != "" {
			fmt.Fprintf(out, "Title:  %s\n", wf.Title)
		}
		if wf.Mol != nil {
			fmt.Fprintf(out, "Atoms:  %d, %d electrons\n", wf.Mol.Len(), wf.Mol.Electrons())
		}
		if wf.Basis != nil {
			fmt.Fprintf(out, "Basis:  %d shells, %d functions", len(wf.Basis.Shells), wf.Basis.NBas())
			if wf.Basis.Symmetric() {
				fmt.Fprintf(out, ", irreps %s", strings.Join(wf.Basis.Irreps, " "))
			}
			fmt.Fprintln(out)
		} else if wf.NeedsCompanion != "" {
			fmt.Fprintf(out, "Basis:  none, needs %s\n", wf.NeedsCompanion)
		}
		if len(wf.Fields) > 0 {
			fmt.Fprintf(out, "Grids:  %d, %v points\n", len(wf.Fields), wf.Fields[0].Spec.Counts)
		}
		for _, s := range wf.Sets {
			fmt.Fprintf(out, "\nSet %q: %s density, state %d, spin %s, %d orbitals, occupation %.4f\n", s.Name, s.Kind, s.State, s.Spin, s.Len(), s.Occupation())
			fmt.Fprintf(out, "%6s %6s %4s %10s %14s\n", "#", "Sym", "Type", "Occ", "Energy")
			virtuals := 0
			for _, i := range s.ByOccupationEnergy() {
				o := s.Orbitals[i]
				if !*all && o.Occupation <= g.cfg.OccupationThreshold {
					virtuals++
					if virtuals > 5 {
						continue
					}
				}
				t := o.Type
				if t == 0 {
					t = '?'
				}
				fmt.Fprintf(out, "%6d %6s %4c %10.6f %s\n", i+1, o.Sym, t, o.Occupation, energy(o))
			}
			if virtuals > 5 {
				fmt.Fprintf(out, "%6s %d more virtual orbitals\n", "...", virtuals-5)
			}
		}
		if len(wf.Warnings) > 0 {
			fmt.Fprintf(out, "\n%d unreadable values:\n", len(wf.Warnings))
			for _, w := range wf.Warnings {
				fmt.Fprintf(out, "  %s\n", w.Error())
			}
		}
		return nil
	}
}

func convertFlags(fs *flag.FlagSet) func(*global, []string, io.Writer) error {
	sorted := fs.Bool("sort", false, "Sort the orbitals by occupation and energy before writing.")
	return func(g *global, args []string, out io.Writer) error {
		wf, err := g.load(args[0])
		if err != nil {
			return err
		}
		if *sorted {
			for _, s := range wf.Sets {
				r, err := s.Reorder(s.ByOccupationEnergy())
				if err != nil {
					return err
				}
				if err := wf.ReplaceSet(s.ID, r); err != nil {
					return err
				}
			}
		}
		if err := formats.Save(args[1], wf); err != nil {
			return err
		}
		g.log.Info("file written", "file", args[1])
		return nil
	}
}

func densityKind(s string) (orb.DensityKind, error) {
	for k := orb.StateDensity; k <= orb.DifferenceDensity; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, usageError("unknown density kind %q", s)
}

func cubeFlags(fs *flag.FlagSet) func(*global, []string, io.Writer) error {
	set := fs.Int("set", 1, "Number of the orbital set, as listed by info.")
	orbital := fs.Int("orbital", 0, "Number of the orbital. 0 means the highest occupied one.")
	density := fs.String("density", "", "Compute a density instead: 'state', 'spin', 'transition' or 'difference'.")
	points := fs.Int("points", 0, "Points along the longest edge of the box. 0 uses the configuration.")
	lapl := fs.Bool("laplacian", false, "Write the Laplacian of the field.")
	return func(g *global, args []string, out io.Writer) error {
		cfg := g.cfg
		if *points > 0 {
			cfg.GridPoints = *points
		}
		opt, err := g.options()
		if err != nil {
			return err
		}
		S, err := session.New(cfg, g.log)
		if err != nil {
			return err
		}
		defer S.Close()
		if err := S.Load(args[0], opt.Companion); err != nil {
			return err
		}
		wf := S.Wavefunction()
		if *set < 1 || *set > len(wf.Sets) {
			return usageError("set %d out of range, the file has %d", *set, len(wf.Sets))
		}
		s := wf.Sets[*set-1]
		r := session.Request{Set: s.ID, Orbital: *orbital - 1, Laplacian: *lapl}
		if *density != "" {
			if r.Kind, err = densityKind(*density); err != nil {
				return err
			}
			r.Orbital = -1
		} else if *orbital == 0 {
			if r.Orbital = s.HOMO(); r.Orbital < 0 {
				r.Orbital = 0
			}
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res := <-S.Request(ctx, r)
		if res.Err != nil {
			return res.Err
		}
		f := res.Field
		frac := 0.5
		if f.Orbital >= 0 {
			frac = 0.85
		}
		lo, hi, iso := histo.IsoRange(f, frac)
		fmt.Fprintf(out, "%s: integral %.6f, isovalue %.4g (range %.4g to %.4g)\n", f.Label, f.Integrate(), iso, lo, hi)
		return cube.Write(args[1], wf.Mol, f.Label, f)
	}
}

func levelsFlags(fs *flag.FlagSet) func(*global, []string, io.Writer) error {
	ev := fs.Bool("ev", false, "Energies in eV.")
	lo := fs.Float64("min", 0, "Lowest energy drawn.")
	hi := fs.Float64("max", 0, "Highest energy drawn. If not above min, all the energies are drawn.")
	return func(g *global, args []string, out io.Writer) error {
		wf, err := g.load(args[0])
		if err != nil {
			return err
		}
		opt := orbplot.DefaultOptions()
		opt.Title, opt.EV, opt.Min, opt.Max = wf.Title, *ev, *lo, *hi
		return orbplot.Save(args[1], wf.Sets, opt)
	}
}

func settypeFlags(fs *flag.FlagSet) func(*global, []string, io.Writer) error {
	return func(g *global, args []string, out io.Writer) error {
		wf, err := g.load(args[0])
		if err != nil {
			return err
		}
		if len(wf.Sets) == 0 {
			return fmt.Errorf("%s has no orbitals", args[0])
		}
		i, err := strconv.Atoi(args[2])
		if err != nil || len(args[3]) != 1 {
			return usageError("expected an orbital number and a type letter, got %q %q", args[2], args[3])
		}
		s := wf.Sets[0]
		r, err := s.SetType(i-1, args[3][0])
		if err != nil {
			return err
		}
		if err := wf.ReplaceSet(s.ID, r); err != nil {
			return err
		}
		return formats.Save(args[1], wf)
	}
}
