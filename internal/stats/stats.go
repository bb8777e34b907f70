// Package stats aggregates avalanche sizes into frequency tables and summary
// statistics. It renders nothing: the sorted tables it produces are meant for
// log-log plotting elsewhere.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when a fit needs more distinct sizes than
// were observed.
var ErrInsufficientData = errors.New("insufficient data")

// Bin is one row of the size→count frequency table.
type Bin struct {
	Size  int `json:"size"`
	Count int `json:"count"`
}

// Summary describes a sequence of avalanche sizes.
type Summary struct {
	Count int     `json:"count"`
	Total int     `json:"total"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Mean  float64 `json:"mean"`
	// Frequencies lists every distinct size once, ascending by size.
	Frequencies []Bin `json:"frequencies"`
}

// Empty reports whether the summary was built from no avalanches. Min, Max
// and Mean carry no meaning in that case.
func (s Summary) Empty() bool { return s.Count == 0 }

func (s Summary) String() string {
	if s.Empty() {
		return "no data"
	}
	return fmt.Sprintf("count=%d min=%d max=%d mean=%.2f distinct=%d", s.Count, s.Min, s.Max, s.Mean, len(s.Frequencies))
}

// Collector accumulates avalanche sizes in arrival order.
type Collector struct {
	sizes  []int
	counts map[int]int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{counts: make(map[int]int)}
}

// Add records one avalanche size.
func (c *Collector) Add(size int) {
	c.sizes = append(c.sizes, size)
	c.counts[size]++
}

// Len returns the number of recorded avalanches.
func (c *Collector) Len() int { return len(c.sizes) }

// Sizes returns a copy of the recorded sizes in arrival order.
func (c *Collector) Sizes() []int { return append([]int(nil), c.sizes...) }

// Summary computes the frequency table and scalar statistics.
func (c *Collector) Summary() Summary {
	return summarize(c.sizes, c.counts)
}

// Summarize computes the Summary of sizes.
func Summarize(sizes []int) Summary {
	counts := make(map[int]int)
	for _, s := range sizes {
		counts[s]++
	}
	return summarize(sizes, counts)
}

func summarize(sizes []int, counts map[int]int) Summary {
	if len(sizes) == 0 {
		return Summary{}
	}
	freq := make([]Bin, 0, len(counts))
	for size, n := range counts {
		freq = append(freq, Bin{Size: size, Count: n})
	}
	sort.Slice(freq, func(i, j int) bool { return freq[i].Size < freq[j].Size })

	xs := make([]float64, len(sizes))
	total := 0
	for i, s := range sizes {
		xs[i] = float64(s)
		total += s
	}
	return Summary{
		Count:       len(sizes),
		Total:       total,
		Min:         freq[0].Size,
		Max:         freq[len(freq)-1].Size,
		Mean:        stat.Mean(xs, nil),
		Frequencies: freq,
	}
}

// LogHistogram bins positive sizes into logarithmically spaced buckets.
type LogHistogram struct {
	// Edges holds len(Counts)+1 bucket boundaries; bucket i covers
	// [Edges[i], Edges[i+1]).
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
	// Zeros counts avalanches of size 0, which a log axis cannot show.
	Zeros int `json:"zeros"`
}

// NewLogHistogram spreads bins buckets between 1 and max(sizes)+1 on a log
// scale. With no positive sizes the histogram has no buckets.
func NewLogHistogram(sizes []int, bins int) LogHistogram {
	var h LogHistogram
	if bins < 1 {
		bins = 1
	}
	positive := make([]float64, 0, len(sizes))
	for _, s := range sizes {
		if s <= 0 {
			h.Zeros++
			continue
		}
		positive = append(positive, float64(s))
	}
	if len(positive) == 0 {
		return h
	}
	sort.Float64s(positive)

	upper := positive[len(positive)-1] + 1
	h.Edges = floats.LogSpan(make([]float64, bins+1), 1, upper)
	// Guard the top edge against exp/log rounding so the largest size stays inside.
	h.Edges[bins] = math.Nextafter(upper, math.Inf(1))

	counts := stat.Histogram(nil, h.Edges, positive, nil)
	h.Counts = make([]int, len(counts))
	for i, v := range counts {
		h.Counts[i] = int(v)
	}
	return h
}

// PowerLaw is a straight-line fit of log10(count) against log10(size).
type PowerLaw struct {
	// Exponent is the negated slope, so count ∝ size^-Exponent.
	Exponent  float64 `json:"exponent"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	Points    int     `json:"points"`
}

// FitPowerLaw fits the positive-size rows of a frequency table.
func FitPowerLaw(freq []Bin) (PowerLaw, error) {
	xs := make([]float64, 0, len(freq))
	ys := make([]float64, 0, len(freq))
	for _, b := range freq {
		if b.Size <= 0 || b.Count <= 0 {
			continue
		}
		xs = append(xs, math.Log10(float64(b.Size)))
		ys = append(ys, math.Log10(float64(b.Count)))
	}
	if len(xs) < 2 {
		return PowerLaw{}, fmt.Errorf("%w: %d positive sizes, need 2", ErrInsufficientData, len(xs))
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return PowerLaw{
		Exponent:  -beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		Points:    len(xs),
	}, nil
}
