package sandpile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kachinap/sandpile-project/internal/core"
)

func TestPlacementsStayInterior(t *testing.T) {
	t.Parallel()

	for _, name := range PlacementNames() {
		for _, size := range []int{3, 4, 7, 50} {
			cfg := DefaultConfig()
			cfg.Size = size
			cfg.Placement = name
			placement, err := NewPlacement(cfg)
			require.NoError(t, err)
			assert.Equal(t, name, placement.Name())

			rng := core.NewRNG(int64(size))
			g := core.NewIntGrid(size)
			for i := 0; i < 2000; i++ {
				d := placement.Place(size, rng)
				require.Truef(t, g.IsInterior(d.Row, d.Col), "%s on %dx%d placed %s", name, size, size, d)
			}
		}
	}
}

func TestCenterPlacementIsFixed(t *testing.T) {
	t.Parallel()

	p := CenterPlacement{}
	assert.Equal(t, Deposit{Row: 100, Col: 100}, p.Place(200, nil))
	assert.Equal(t, Deposit{Row: 1, Col: 1}, p.Place(3, nil))
}

func TestBandPlacementHugsAnEdge(t *testing.T) {
	t.Parallel()

	const size, width = 40, 5
	p := BandPlacement{Width: width}
	rng := core.NewRNG(9)
	seen := map[Edge]bool{}
	for i := 0; i < 4000; i++ {
		d := p.Place(size, rng)
		var edges []Edge
		if d.Row <= width {
			edges = append(edges, EdgeTop)
		}
		if d.Row >= size-1-width {
			edges = append(edges, EdgeBottom)
		}
		if d.Col <= width {
			edges = append(edges, EdgeLeft)
		}
		if d.Col >= size-1-width {
			edges = append(edges, EdgeRight)
		}
		require.NotEmptyf(t, edges, "deposit %s is not within %d cells of any edge", d, width)
		for _, e := range edges {
			seen[e] = true
		}
	}
	assert.Len(t, seen, 4, "every edge should receive grains")
}

func TestBandPlacementClampsWidth(t *testing.T) {
	t.Parallel()

	rng := core.NewRNG(3)
	for _, width := range []int{0, -2, 100} {
		p := BandPlacement{Width: width}
		g := core.NewIntGrid(6)
		for i := 0; i < 500; i++ {
			d := p.Place(6, rng)
			require.Truef(t, g.IsInterior(d.Row, d.Col), "width %d placed %s", width, d)
		}
	}
}

func TestUniformPlacementCoversInterior(t *testing.T) {
	t.Parallel()

	const size = 6
	rng := core.NewRNG(5)
	hits := map[Deposit]int{}
	for i := 0; i < 5000; i++ {
		hits[UniformPlacement{}.Place(size, rng)]++
	}
	assert.Len(t, hits, (size-2)*(size-2))
}

func TestNewPlacementUnknown(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Placement = "spiral"
	_, err := NewPlacement(cfg)
	assert.ErrorIs(t, err, ErrUnknownPlacement)
}

func TestPlacementNamesRegistered(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{PlacementBand, PlacementCenter, PlacementUniform}, PlacementNames())
}
