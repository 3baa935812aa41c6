package charting

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin is one histogram bar covering [Lower, Upper). The last bin also
// includes its upper edge.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// HistogramSpec is everything a renderer needs to draw a histogram
type HistogramSpec struct {
	Title    string  `json:"title"`
	Bins     []Bin   `json:"bins"`
	Total    int     `json:"total"`
	MaxCount int     `json:"max_count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Height returns the bar height of bin i as a fraction of the tallest bar
func (h *HistogramSpec) Height(i int) float64 {
	if h.MaxCount == 0 {
		return 0
	}
	return float64(h.Bins[i].Count) / float64(h.MaxCount)
}

// BinCount picks the number of bins for n values with Sturges' rule
func BinCount(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// Histogram bins values into equal-width bins. The result depends only on the
// multiset of values. NaN and infinite values are ignored; a constant series
// gets a single bin of width one centred on the value.
func Histogram(title string, values []float64) *HistogramSpec {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			x = append(x, v)
		}
	}
	spec := &HistogramSpec{Title: title, Bins: []Bin{}, Total: len(x)}
	if len(x) == 0 {
		return spec
	}
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	spec.Min, spec.Max = lo, hi
	if lo == hi {
		spec.Bins = []Bin{{Lower: lo - 0.5, Upper: hi + 0.5, Count: len(x)}}
		spec.MaxCount = len(x)
		return spec
	}

	dividers := spanDividers(BinCount(len(x)), lo, hi)

	counts := stat.Histogram(nil, dividers, x, nil)

	spec.Bins = make([]Bin, len(counts))
	for i, c := range counts {
		spec.Bins[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(c)}
		if int(c) > spec.MaxCount {
			spec.MaxCount = int(c)
		}
	}
	spec.Bins[len(spec.Bins)-1].Upper = hi
	return spec
}

// spanDividers returns n+1 strictly increasing bin edges from lo to just past
// hi. When hi-lo overflows the edges are interpolated without forming the
// width; if rounding still collapses neighbouring edges, one bin covers the
// whole range.
func spanDividers(n int, lo, hi float64) []float64 {
	dividers := make([]float64, n+1)
	if math.IsInf(hi-lo, 0) {
		for i := range dividers {
			t := float64(i) / float64(n)
			dividers[i] = lo*(1-t) + hi*t
		}
	} else {
		floats.Span(dividers, lo, hi)
	}
	// stat.Histogram wants every value strictly below the last divider
	dividers[n] = math.Nextafter(hi, math.Inf(1))

	for i := 1; i < len(dividers); i++ {
		if !(dividers[i] > dividers[i-1]) {
			return []float64{lo, math.Nextafter(hi, math.Inf(1))}
		}
	}
	return dividers
}
