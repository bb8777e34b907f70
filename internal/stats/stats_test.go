package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeFrequencyTable(t *testing.T) {
	t.Parallel()

	s := Summarize([]int{0, 0, 3, 3, 3, 7})
	assert.Equal(t, []Bin{{Size: 0, Count: 2}, {Size: 3, Count: 3}, {Size: 7, Count: 1}}, s.Frequencies)
	assert.Equal(t, 6, s.Count)
	assert.Equal(t, 0, s.Min)
	assert.Equal(t, 7, s.Max)
	assert.Equal(t, 16, s.Total)
	assert.InDelta(t, 16.0/6.0, s.Mean, 1e-12)
}

func TestCollectorMatchesSummarize(t *testing.T) {
	t.Parallel()

	sizes := []int{5, 1, 0, 5, 12, 1, 1}
	c := NewCollector()
	for _, s := range sizes {
		c.Add(s)
	}
	assert.Equal(t, len(sizes), c.Len())
	assert.Equal(t, sizes, c.Sizes())
	assert.Equal(t, Summarize(sizes), c.Summary())

	got := c.Sizes()
	got[0] = 99
	assert.Equal(t, 5, c.Sizes()[0], "Sizes must return a copy")
}

func TestSummaryEmpty(t *testing.T) {
	t.Parallel()

	s := NewCollector().Summary()
	assert.True(t, s.Empty())
	assert.Empty(t, s.Frequencies)
	assert.Equal(t, "no data", s.String())

	assert.Contains(t, Summarize([]int{2}).String(), "max=2")
}

func TestFrequencyTableIsSortedAndComplete(t *testing.T) {
	t.Parallel()

	sizes := []int{40, 3, 3, 17, 0, 40, 2, 1000, 17, 3}
	s := Summarize(sizes)
	total := 0
	for i, b := range s.Frequencies {
		total += b.Count
		if i > 0 {
			require.Less(t, s.Frequencies[i-1].Size, b.Size)
		}
	}
	assert.Equal(t, len(sizes), total)
}

func TestLogHistogram(t *testing.T) {
	t.Parallel()

	h := NewLogHistogram([]int{0, 1, 2, 9}, 3)
	require.Len(t, h.Edges, 4)
	require.Len(t, h.Counts, 3)
	assert.Equal(t, 1, h.Zeros)
	assert.InDelta(t, 1.0, h.Edges[0], 1e-12)
	assert.InDelta(t, 10.0, h.Edges[3], 1e-9)
	assert.Equal(t, []int{2, 0, 1}, h.Counts)

	sum := 0
	for _, c := range NewLogHistogram([]int{1, 1, 5, 80, 80, 333, 4096}, 50).Counts {
		sum += c
	}
	assert.Equal(t, 7, sum)
}

func TestLogHistogramOnlyZeros(t *testing.T) {
	t.Parallel()

	h := NewLogHistogram([]int{0, 0}, 10)
	assert.Empty(t, h.Edges)
	assert.Empty(t, h.Counts)
	assert.Equal(t, 2, h.Zeros)
}

func TestFitPowerLaw(t *testing.T) {
	t.Parallel()

	freq := []Bin{{0, 300}, {1, 4096}, {2, 1024}, {4, 256}, {8, 64}, {16, 16}}
	fit, err := FitPowerLaw(freq)
	require.NoError(t, err)
	assert.Equal(t, 5, fit.Points)
	assert.InDelta(t, 2.0, fit.Exponent, 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
}

func TestFitPowerLawNeedsTwoSizes(t *testing.T) {
	t.Parallel()

	_, err := FitPowerLaw([]Bin{{0, 10}, {3, 4}})
	assert.ErrorIs(t, err, ErrInsufficientData)
}
