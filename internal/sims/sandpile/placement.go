package sandpile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kachinap/sandpile-project/internal/core"
)

// Deposit addresses the interior cell that receives one grain.
type Deposit struct {
	Row int
	Col int
}

func (d Deposit) String() string { return fmt.Sprintf("(%d,%d)", d.Row, d.Col) }

// Placement chooses where the next grain lands on a size×size grid. The
// returned cell must be interior: 1 <= row, col <= size-2.
type Placement interface {
	Name() string
	Place(size int, rng core.Entropy) Deposit
}

// PlacementFactory constructs a Placement from the experiment config.
type PlacementFactory func(cfg Config) Placement

var placements = map[string]PlacementFactory{}

// RegisterPlacement adds a placement factory under the provided name.
func RegisterPlacement(name string, f PlacementFactory) {
	if name == "" || f == nil {
		return
	}
	placements[name] = f
}

// PlacementNames lists the registered strategies in sorted order.
func PlacementNames() []string {
	names := make([]string, 0, len(placements))
	for name := range placements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPlacement builds the strategy named by cfg.Placement.
func NewPlacement(cfg Config) (Placement, error) {
	f, ok := placements[cfg.Placement]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownPlacement, cfg.Placement, strings.Join(PlacementNames(), ", "))
	}
	return f(cfg), nil
}

// UniformPlacement picks any interior cell with equal probability.
type UniformPlacement struct{}

func (UniformPlacement) Name() string { return PlacementUniform }

func (UniformPlacement) Place(size int, rng core.Entropy) Deposit {
	return Deposit{
		Row: core.Between(rng, 1, size-2),
		Col: core.Between(rng, 1, size-2),
	}
}

// CenterPlacement always drops on the middle cell and draws no entropy.
type CenterPlacement struct{}

func (CenterPlacement) Name() string { return PlacementCenter }

func (CenterPlacement) Place(size int, _ core.Entropy) Deposit {
	return Deposit{Row: size / 2, Col: size / 2}
}

// Edge identifies one side of the grid.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

// BandPlacement picks a random edge, then a random cell inside the band of
// Width rows (or columns) running along it.
type BandPlacement struct {
	Width int
}

func (BandPlacement) Name() string { return PlacementBand }

func (b BandPlacement) Place(size int, rng core.Entropy) Deposit {
	last := size - 2
	width := b.Width
	if width < 1 {
		width = 1
	}
	if width > last {
		width = last
	}
	edge := Edge(rng.IntN(4))
	depth := core.Between(rng, 0, width-1)
	along := core.Between(rng, 1, last)
	switch edge {
	case EdgeTop:
		return Deposit{Row: 1 + depth, Col: along}
	case EdgeBottom:
		return Deposit{Row: last - depth, Col: along}
	case EdgeLeft:
		return Deposit{Row: along, Col: 1 + depth}
	default:
		return Deposit{Row: along, Col: last - depth}
	}
}

func init() {
	RegisterPlacement(PlacementUniform, func(Config) Placement { return UniformPlacement{} })
	RegisterPlacement(PlacementCenter, func(Config) Placement { return CenterPlacement{} })
	RegisterPlacement(PlacementBand, func(cfg Config) Placement { return BandPlacement{Width: cfg.BandWidth} })
}
