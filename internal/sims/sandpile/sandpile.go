package sandpile

import (
	"fmt"

	"github.com/kachinap/sandpile-project/internal/core"
)

// Pile is a long-running sandpile experiment: one grid carried across every
// deposition, so each avalanche starts from the state left by all earlier
// ones.
type Pile struct {
	cfg       Config
	grid      *core.IntGrid
	engine    *Engine
	placement Placement
	rng       *core.RNG
}

// New validates cfg and returns a Pile reset with cfg.Seed.
func New(cfg Config) (*Pile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	placement, err := NewPlacement(cfg)
	if err != nil {
		return nil, err
	}
	p := &Pile{
		cfg:       cfg,
		grid:      core.NewIntGrid(cfg.Size),
		engine:    NewEngine(cfg.Size, cfg.Threshold, cfg.Boundary),
		placement: placement,
	}
	p.Reset(cfg.Seed)
	return p, nil
}

// Name returns the simulation identifier.
func (p *Pile) Name() string { return "sandpile" }

// Config returns the configuration the pile was built with.
func (p *Pile) Config() Config { return p.cfg }

// Size returns the grid dimensions.
func (p *Pile) Size() core.Size { return p.grid.Size() }

// Cells exposes the current grid values.
func (p *Pile) Cells() []int { return p.grid.Cells() }

// Grid exposes the live grid. Callers must not mutate it while a step runs.
func (p *Pile) Grid() *core.IntGrid { return p.grid }

// Engine returns the relaxation engine bound to this pile.
func (p *Pile) Engine() *Engine { return p.engine }

// Placement returns the grain placement strategy.
func (p *Pile) Placement() Placement { return p.placement }

// Snapshot returns a deep copy of the grid.
func (p *Pile) Snapshot() *core.IntGrid { return p.grid.Clone() }

// Reset rebuilds the initial grid and reseeds the placement RNG. A zero seed
// falls back to the configured one.
func (p *Pile) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = p.cfg.Seed
	}
	p.rng = core.NewRNG(effective)
	p.grid.Clear()
	if p.cfg.Fill != 0 {
		p.grid.FillInterior(p.cfg.Fill)
	}
}

// Equilibrate relaxes the current grid to stability. On a freshly reset,
// supercritical grid this settles onto the critical attractor.
func (p *Pile) Equilibrate() Relaxation {
	return p.engine.Relax(p.grid)
}

// LoadGrid replaces the grid with a copy of g.
func (p *Pile) LoadGrid(g *core.IntGrid) error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrDimensionMismatch)
	}
	if g.N != p.cfg.Size {
		return fmt.Errorf("%w: loaded %dx%d, configured %dx%d", ErrDimensionMismatch, g.N, g.N, p.cfg.Size, p.cfg.Size)
	}
	p.grid = g.Clone()
	return nil
}

// Step deposits one grain chosen by the placement strategy and relaxes the
// grid. It returns the resulting avalanche.
func (p *Pile) Step() Avalanche {
	d := p.placement.Place(p.cfg.Size, p.rng)
	return p.engine.Drop(p.grid, d)
}
