/*
 * histo/histo.go, part of gorbital.
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

//Package histo builds histograms of the values of a scalar field and
//suggests isovalues from them.
package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	orb "github.com/rmera/gorbital"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Data is a histogram.
type Data struct {
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Dividers   []float64 `json:"dividers"`
		Histo      []float64 `json:"histo"`
	}{
		Normalized: D.normalized,
		Total:      D.total,
		Dividers:   D.dividers,
		Histo:      D.histo,
	})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a struct {
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Dividers   []float64 `json:"dividers"`
		Histo      []float64 `json:"histo"`
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Dividers) != len(a.Histo)+1 {
		return fmt.Errorf("histo: %d dividers for %d bins", len(a.Dividers), len(a.Histo))
	}
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

//String returns a 2-line representation of the histogram.
func (D *Data) String() string {
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%9.2e", D.dividers[i]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

//NewData returns a histogram with the given dividers, filled with rawdata,
//which can be nil. rawdata is sorted in place.
func NewData(dividers []float64, rawdata []float64) *Data {
	if len(dividers) < 2 {
		panic("histo.NewData: at least 2 dividers are needed")
	}
	d := new(Data)
	d.dividers = append([]float64(nil), dividers...)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(d.dividers, rawdata)
	}
	return d
}

//AddData adds the given points to the histogram. Points outside the
//dividers are omitted from the bins but counted in the total.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	for _, v := range point {
		i := sort.SearchFloat64s(D.dividers, v)
		//i is the first divider >= v
		if i < len(D.dividers) && D.dividers[i] == v {
			i++
		}
		if i > 0 && i < len(D.dividers) {
			D.histo[i-1]++
		}
	}
	D.total += len(point)
	if norma {
		D.Normalize()
	}
}

//Normalized returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize divides every bin by the number of points.
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize reverts Normalize.
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	if normalize {
		n = 1 / n
	}
	D.normalized = normalize
	floats.Scale(n, D.histo)
}

//Total returns the number of points given to the histogram.
func (D *Data) Total() int {
	return D.total
}

//CopyDividers returns a copy of the dividers, in dest if given and
//large enough.
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	return floats.ScaleTo(d, 1, D.dividers)
}

//Copy returns a copy of the bins, in dest if given and large enough.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	return floats.ScaleTo(d, 1, D.histo)
}

//View returns the bins themselves.
func (D *Data) View() []float64 {
	return D.histo
}

func sameDividers(a, b *Data) error {
	if !floats.Equal(a.dividers, b.dividers) {
		return fmt.Errorf("histo: histograms have different dividers")
	}
	return nil
}

//Add puts the sum of the histograms a and b in the receiver.
func (D *Data) Add(a, b *Data) error {
	if err := sameDividers(a, b); err != nil {
		return err
	}
	D.dividers = a.CopyDividers(D.dividers)
	D.histo = getCopySlice(len(a.histo), D.histo)
	floats.AddTo(D.histo, a.histo, b.histo)
	D.total = a.total + b.total
	return nil
}

//Sub puts the difference a-b in the receiver, taking absolute values
//if abs is true.
func (D *Data) Sub(a, b *Data, abs bool) error {
	if err := sameDividers(a, b); err != nil {
		return err
	}
	D.dividers = a.CopyDividers(D.dividers)
	D.histo = getCopySlice(len(a.histo), D.histo)
	floats.SubTo(D.histo, a.histo, b.histo)
	if abs {
		for i, v := range D.histo {
			D.histo[i] = math.Abs(v)
		}
	}
	return nil
}

//Sum returns the sum of the bins.
func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

//ReHisto rebuilds the histogram from dividers and rawdata, which is sorted
//in place. Values outside the dividers are dropped.
func (D *Data) ReHisto(dividers, rawdata []float64) {
	sort.Float64s(rawdata)
	//stat.Histogram panics on values out of range.
	maxi := sort.SearchFloat64s(rawdata, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(rawdata, dividers[0])
	rawdata = rawdata[mini:maxi]
	D.dividers = dividers
	D.total = len(rawdata)
	D.normalized = false
	D.histo = stat.Histogram(nil, dividers, rawdata, nil)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}

//magnitudes returns the absolute values of the field, without NaNs.
func magnitudes(f *orb.ScalarField) []float64 {
	ret := make([]float64, 0, len(f.Values))
	for _, v := range f.Values {
		if !math.IsNaN(v) {
			ret = append(ret, math.Abs(v))
		}
	}
	return ret
}

//FromField returns a histogram of the absolute values of f, with nbins
//equal bins from 0 to the largest value. NaNs are skipped.
func FromField(f *orb.ScalarField, nbins int) *Data {
	if nbins < 1 {
		nbins = 1
	}
	v := magnitudes(f)
	max := 1.0
	if len(v) > 0 {
		if m := floats.Max(v); m > 0 {
			max = m
		}
	}
	div := floats.Span(make([]float64, nbins+1), 0, max)
	div[nbins] = math.Nextafter(max, math.Inf(1))
	return NewData(div, v)
}

//Stats summarizes the values of a field.
type Stats struct {
	Min, Max     float64
	Mean, StdDev float64
	N, NaN       int
}

//Describe returns the statistics of the values of f that are not NaN.
func Describe(f *orb.ScalarField) Stats {
	v := make([]float64, 0, len(f.Values))
	for _, x := range f.Values {
		if !math.IsNaN(x) {
			v = append(v, x)
		}
	}
	S := Stats{N: len(v), NaN: len(f.Values) - len(v)}
	if len(v) == 0 {
		S.Min, S.Max, S.Mean, S.StdDev = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return S
	}
	S.Min, S.Max = floats.Min(v), floats.Max(v)
	S.Mean, S.StdDev = stat.MeanStdDev(v, nil)
	return S
}

//IsoRange suggests a range for the isovalue of f and a default value
//inside it. The default is the isovalue whose surface encloses the
//fraction frac of the field, weighting each point by |v| for densities
//and by v^2 for orbitals. The range goes from the 5% quantile of the
//nonzero magnitudes to the largest one.
func IsoRange(f *orb.ScalarField, frac float64) (lo, hi, iso float64) {
	v := magnitudes(f)
	nz := v[:0]
	for _, x := range v {
		if x > 0 {
			nz = append(nz, x)
		}
	}
	if len(nz) == 0 {
		return 0, 0, 0
	}
	sort.Float64s(nz)
	w := make([]float64, len(nz))
	for i, x := range nz {
		w[i] = x
		if f.Orbital >= 0 {
			w[i] = x * x
		}
	}
	target := frac * floats.Sum(w)
	iso = nz[0]
	acc := 0.0
	for i := len(nz) - 1; i >= 0; i-- {
		acc += w[i]
		if acc >= target {
			iso = nz[i]
			break
		}
	}
	hi = nz[len(nz)-1]
	lo = math.Min(stat.Quantile(0.05, stat.Empirical, nz, nil), iso)
	return lo, hi, iso
}
