// Package quantile computes quantile boundaries of numeric series and maps
// values to ordinal bins.
package quantile

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrInvalidBins = errors.New("number of bins must be at least 1")
	ErrEmptySeries = errors.New("series has no finite values")
)

// Bins is the result of binning a series. Index has one entry per input
// value; NaN values get -1.
type Bins struct {
	Index      []int     `json:"index"`
	Boundaries []float64 `json:"boundaries"`
}

// Quantiles returns the quantiles of values at probabilities ps using linear
// interpolation between closest ranks: for N sorted values the quantile at p
// lies at position (N-1)p. NaN values are ignored. An empty input yields nil.
func Quantiles(values []float64, ps []float64) []float64 {
	sorted := finiteSorted(values)
	if len(sorted) == 0 {
		return nil
	}
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = at(sorted, p)
	}
	return out
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func at(sorted []float64, p float64) float64 {
	p = min(max(p, 0), 1)
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// linspace returns n evenly spaced probabilities from 0 to 1 inclusive.
// A single point is 0.
func linspace(n int) []float64 {
	if n == 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}

// Diverging splits series around center and computes n quantile boundaries
// on each side independently: the lower side at probabilities 0, 1/n, ...,
// (n-1)/n of the values below center and the upper side at 1/n, ..., 1 of
// the values above center. The boundaries are lower, center, upper, so
// there are 2n+1 of them. A side without values contributes n boundaries
// equal to center.
func Diverging(series []float64, center float64, n int) (Bins, error) {
	if n < 1 {
		return Bins{}, ErrInvalidBins
	}

	var below, above []float64
	for _, v := range series {
		switch {
		case v < center:
			below = append(below, v)
		case v > center:
			above = append(above, v)
		}
	}

	ps := linspace(n + 1)
	boundaries := make([]float64, 0, 2*n+1)
	boundaries = append(boundaries, sideQuantiles(below, ps[:n], center)...)
	boundaries = append(boundaries, center)
	boundaries = append(boundaries, sideQuantiles(above, ps[1:], center)...)

	return Bins{Index: Digitize(series, boundaries), Boundaries: boundaries}, nil
}

func sideQuantiles(values []float64, ps []float64, center float64) []float64 {
	if q := Quantiles(values, ps); q != nil {
		return q
	}
	out := make([]float64, len(ps))
	for i := range out {
		out[i] = center
	}
	return out
}

// Linear computes n quantile boundaries of the whole series at evenly
// spaced probabilities from 0 to 1.
func Linear(series []float64, n int) (Bins, error) {
	if n < 1 {
		return Bins{}, ErrInvalidBins
	}
	boundaries := Quantiles(series, linspace(n))
	if boundaries == nil {
		return Bins{}, ErrEmptySeries
	}
	return Bins{Index: Digitize(series, boundaries), Boundaries: boundaries}, nil
}

// Digitize assigns each value the number of boundaries less than or equal
// to it, minus one. boundaries must be non-decreasing; duplicates are
// allowed. NaN values get -1.
func Digitize(values []float64, boundaries []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = -1
			continue
		}
		out[i] = sort.Search(len(boundaries), func(j int) bool { return boundaries[j] > v }) - 1
	}
	return out
}
