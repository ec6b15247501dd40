/*
 * histo.go, part of gostk.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package histo builds histograms with explicit bin dividers.
package histo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Data is a histogram. Bin i counts the values v with dividers[i] <= v < dividers[i+1];
//values outside the dividers are not counted.
type Data struct {
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

//Uniform returns n+1 dividers splitting [min, max] in n bins of equal width.
func Uniform(min, max float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	return floats.Span(make([]float64, n+1), min, max)
}

//Spanning returns n+1 uniform dividers covering every value in values. The upper
//divider is moved up slightly so the largest value is counted.
func Spanning(values []float64, n int) []float64 {
	if len(values) == 0 {
		return Uniform(0, 1, n)
	}
	min, max := floats.Min(values), floats.Max(values)
	pad := 1e-9 * math.Max(1, math.Abs(max))
	if max-min < pad {
		return Uniform(min-0.5, max+0.5, n)
	}
	return Uniform(min, max+pad, n)
}

//NewData returns a histogram with the given dividers (at least 2, increasing)
//filled with rawdata, which can be nil.
func NewData(dividers []float64, rawdata []float64) (*Data, error) {
	if len(dividers) < 2 || !sort.Float64sAreSorted(dividers) {
		return nil, fmt.Errorf("histo: need at least 2 increasing dividers, got %v", dividers)
	}
	D := &Data{dividers: append([]float64(nil), dividers...), histo: make([]float64, len(dividers)-1)}
	if rawdata != nil {
		D.ReHisto(rawdata)
	}
	return D, nil
}

func (D *Data) String() string {
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return fmt.Sprintf("Normalized: %v, TotalData: %d\n%s\n%s", D.normalized, D.total, strings.Join(d, " "), strings.Join(h, " "))
}

//AddData adds the given point(s) to the histogram.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	last := len(D.dividers) - 1
	for _, v := range point {
		//first divider larger than v
		j := sort.Search(len(D.dividers), func(i int) bool { return D.dividers[i] > v })
		if j == 0 || j > last {
			continue
		}
		D.histo[j-1]++
		D.total++
	}
	if norma {
		D.Normalize()
	}
}

//Total returns the number of values counted.
func (D *Data) Total() int { return D.total }

//Normalized returns true if the histogram is normalized.
func (D *Data) Normalized() bool { return D.normalized }

//Normalize divides every bin by the number of values counted.
func (D *Data) Normalize() { D.normaunnorma(true) }

//UnNormalize reverts Normalize.
func (D *Data) UnNormalize() { D.normaunnorma(false) }

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

//Dividers returns a copy of the dividers.
func (D *Data) Dividers() []float64 {
	return append([]float64(nil), D.dividers...)
}

//View returns the bins. They are not copied.
func (D *Data) View() []float64 {
	return D.histo
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

//ReHisto replaces the contents of the histogram with rawdata, which is not modified.
func (D *Data) ReHisto(rawdata []float64) {
	data := append([]float64(nil), rawdata...)
	sort.Float64s(data)
	//stat.Histogram panics on values out of range
	maxi := sort.SearchFloat64s(data, D.dividers[len(D.dividers)-1])
	mini := sort.SearchFloat64s(data, D.dividers[0])
	data = data[mini:maxi]
	D.normalized = false
	D.total = len(data)
	D.histo = stat.Histogram(nil, D.dividers, data, nil)
}
