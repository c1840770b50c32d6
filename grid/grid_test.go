/*
 * grid/grid_test.go, part of gorbital.
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

package grid

import (
	"context"
	"math"
	"testing"

	orb "github.com/rmera/gorbital"
)

func hydrogen(shells ...*orb.Shell) *orb.Wavefunction {
	mol := orb.NewMolecule([]*orb.Atom{{Name: "H", Z: 1}})
	return &orb.Wavefunction{Format: "test", Mol: mol, Basis: orb.NewBasisSet(shells)}
}

func sto3g() *orb.Shell {
	return orb.NewShell(0, 0, false, []orb.Primitive{
		{Exp: 3.42525091, Coef: 0.15432897},
		{Exp: 0.62391373, Coef: 0.53532814},
		{Exp: 0.16885540, Coef: 0.44463454},
	})
}

func set(coeffs ...[]float64) *orb.OrbitalSet {
	var orbs []*orb.Orbital
	for _, c := range coeffs {
		orbs = append(orbs, &orb.Orbital{Coeffs: c, Occupation: 1, EnergyValid: true})
	}
	return orb.NewOrbitalSet("test", orb.StateDensity, 0, orb.NoSpin, orbs)
}

// A primitive s and a primitive p gaussian evaluated at (1,1,1).
func TestAnalyticPrimitive(Te *testing.T) {
	wf := hydrogen(orb.NewShell(0, 0, false, []orb.Primitive{{Exp: 1, Coef: 1}}), orb.NewShell(0, 1, false, []orb.Primitive{{Exp: 1, Coef: 1}}))
	E, err := New(wf, orb.DefaultConfig())
	if err != nil {
		Te.Fatal(err)
	}
	spec := orb.NewOrthoGrid([3]float64{-1, -1, -1}, [3]float64{1, 1, 1}, [3]int{3, 3, 3})
	s := set([]float64{1, 0, 0, 0}, []float64{0, 0, 0, 1})
	fs, err := E.Orbital(context.Background(), s, 0, spec)
	if err != nil {
		Te.Fatal(err)
	}
	want := math.Pow(2/math.Pi, 0.75) * math.Exp(-3)
	if got := fs.At(2, 2, 2); math.Abs(got-want) > 1e-12 {
		Te.Errorf("s primitive at (1,1,1): %g, expected %g", got, want)
	}
	if got := fs.At(0, 0, 0); math.Abs(got-want) > 1e-12 {
		Te.Errorf("s primitive at (-1,-1,-1): %g, expected %g", got, want)
	}
	fp, err := E.Orbital(context.Background(), s, 1, spec)
	if err != nil {
		Te.Fatal(err)
	}
	wantp := math.Pow(2, 1.25) * math.Sqrt2 / math.Pow(math.Pi, 0.75) * math.Exp(-3)
	if got := fp.At(2, 2, 2); math.Abs(got-wantp) > 1e-12 {
		Te.Errorf("pz primitive at (1,1,1): %g, expected %g", got, wantp)
	}
	if got := fp.At(1, 1, 1); got != 0 {
		Te.Errorf("pz at its center should vanish, got %g", got)
	}
	if got := fp.At(0, 0, 0); math.Abs(got+wantp) > 1e-12 {
		Te.Errorf("pz primitive at (-1,-1,-1): %g, expected %g", got, -wantp)
	}
}

func TestDensityIntegral(Te *testing.T) {
	wf := hydrogen(sto3g())
	E, err := New(wf, orb.DefaultConfig())
	if err != nil {
		Te.Fatal(err)
	}
	spec := orb.NewOrthoGrid([3]float64{-6, -6, -6}, [3]float64{0.2, 0.2, 0.2}, [3]int{61, 61, 61})
	s := set([]float64{1})
	s.Orbitals[0].EnergyValid = false
	s.Orbitals[0].Energy = math.NaN()
	rho, err := E.Density(context.Background(), s, nil, spec)
	if err != nil {
		Te.Fatal(err)
	}
	if n := rho.Integrate(); math.Abs(n-1) > 1e-3 {
		Te.Errorf("density integrates to %g, expected 1", n)
	}
	tr, err := E.Transition(context.Background(), s, s, spec)
	if err != nil {
		Te.Fatal(err)
	}
	for i, v := range tr.Values {
		if math.Abs(v-rho.Values[i]) > 1e-14 {
			Te.Fatalf("transition density of a set with itself differs from its density at %d", i)
		}
	}
	sd, err := E.SpinDensity(context.Background(), s, s, spec)
	if err != nil {
		Te.Fatal(err)
	}
	if min, max := sd.Range(); math.Abs(min) > 1e-14 || math.Abs(max) > 1e-14 {
		Te.Errorf("spin density of equal sets should vanish, range %g %g", min, max)
	}
	if sd.Kind != orb.SpinDensity {
		Te.Errorf("wrong kind %v", sd.Kind)
	}
	empty := set([]float64{1})
	empty.Orbitals[0].Occupation = 0
	df, err := E.Difference(context.Background(), empty, s, spec)
	if err != nil {
		Te.Fatal(err)
	}
	if n := df.Integrate(); math.Abs(n-1) > 1e-3 {
		Te.Errorf("difference density integrates to %g, expected 1", n)
	}
}

func TestMask(Te *testing.T) {
	wf := hydrogen(sto3g(), orb.NewShell(0, 0, false, []orb.Primitive{{Exp: 0.1, Coef: 1}}))
	E, err := New(wf, orb.DefaultConfig())
	if err != nil {
		Te.Fatal(err)
	}
	spec := orb.NewOrthoGrid([3]float64{-1, -1, -1}, [3]float64{1, 1, 1}, [3]int{3, 3, 3})
	s := set([]float64{1, 0}, []float64{0, 1})
	all, err := E.Density(context.Background(), s, nil, spec)
	if err != nil {
		Te.Fatal(err)
	}
	first, err := E.Density(context.Background(), s, []bool{true, false}, spec)
	if err != nil {
		Te.Fatal(err)
	}
	second, err := E.Density(context.Background(), s, []bool{false, true}, spec)
	if err != nil {
		Te.Fatal(err)
	}
	for i := range all.Values {
		if math.Abs(all.Values[i]-first.Values[i]-second.Values[i]) > 1e-14 {
			Te.Fatalf("masked densities don't add up at point %d", i)
		}
	}
}

func TestCancel(Te *testing.T) {
	wf := hydrogen(sto3g())
	cfg := orb.DefaultConfig()
	cfg.Workers = 1
	E, err := New(wf, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	spec := orb.NewOrthoGrid([3]float64{-3, -3, -3}, [3]float64{0.5, 0.5, 0.5}, [3]int{13, 13, 13})
	ctx, cancel := context.WithCancel(context.Background())
	E.Progress = func(done, total int) {
		if done == 1 {
			cancel()
		}
	}
	f, err := E.Density(ctx, set([]float64{1}), nil, spec)
	if f != nil {
		Te.Error("cancelled computation returned a field")
	}
	var c *orb.CancelledOperation
	if !orb.IsCancelled(err) {
		Te.Fatalf("expected a cancelled operation, got %v", err)
	}
	c = err.(*orb.CancelledOperation)
	if c.Done >= c.Total {
		Te.Errorf("cancellation came too late: %d of %d planes", c.Done, c.Total)
	}
	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	E.Progress = nil
	if _, err := E.Orbital(ctx2, set([]float64{1}), 0, spec); !orb.IsCancelled(err) {
		Te.Errorf("expected a cancelled operation, got %v", err)
	}
}

func TestLaplacian(Te *testing.T) {
	spec := orb.GridSpec{Origin: [3]float64{-1, -2, 0.5}, Counts: [3]int{5, 6, 4}}
	spec.Axes = [3][3]float64{{0.3, 0, 0}, {0.1, 0.25, 0}, {0.05, -0.1, 0.4}}
	f := orb.NewScalarField(spec)
	for i := 0; i < 5; i++ {
		for j := 0; j < 6; j++ {
			for k := 0; k < 4; k++ {
				p := spec.Point(i, j, k)
				f.Set(i, j, k, p[0]*p[0]+2*p[1]*p[1]+3*p[2]*p[2]+p[0]*p[1]-p[1]*p[2])
			}
		}
	}
	l, err := Laplacian(f)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 6; j++ {
			for k := 0; k < 4; k++ {
				v := l.At(i, j, k)
				if i == 0 || j == 0 || k == 0 || i == 4 || j == 5 || k == 3 {
					if !math.IsNaN(v) {
						Te.Errorf("boundary point (%d,%d,%d) should be NaN, got %g", i, j, k, v)
					}
					continue
				}
				if math.Abs(v-12) > 1e-8 {
					Te.Errorf("Laplacian at (%d,%d,%d) is %g, expected 12", i, j, k, v)
				}
			}
		}
	}
}

func TestBox(Te *testing.T) {
	mol := orb.NewMolecule([]*orb.Atom{{Z: 1}, {Z: 1, Coords: [3]float64{2, 0, 0}}})
	cfg := orb.DefaultConfig()
	b := Box(mol, cfg)
	if b.Counts != [3]int{30, 25, 25} {
		Te.Errorf("wrong counts %v", b.Counts)
	}
	if math.Abs(b.Origin[0]+4) > 1e-12 || math.Abs(b.Origin[1]+4) > 1e-12 {
		Te.Errorf("wrong origin %v", b.Origin)
	}
	last := b.Point(29, 24, 24)
	if math.Abs(last[0]-6) > 1e-12 || math.Abs(last[2]-4) > 1e-12 {
		Te.Errorf("wrong last point %v", last)
	}
}
