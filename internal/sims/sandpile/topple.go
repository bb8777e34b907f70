package sandpile

import (
	"fmt"

	"github.com/kachinap/sandpile-project/internal/core"
)

// SweepResult reports one synchronous sweep.
type SweepResult struct {
	// Topples counts the cells that were unstable in the pre-sweep state.
	Topples int
	// BorderGrains counts grain units delivered to the border ring. In open
	// mode they are discarded; in closed mode they stay on the border.
	BorderGrains int
}

// Relaxation reports a full run to stability.
type Relaxation struct {
	// Topples is the total number of topplings across all sweeps.
	Topples int
	// Sweeps counts the sweeps that toppled at least one cell.
	Sweeps int
}

// Engine applies the toppling rule to grids of one size. It owns the delta
// buffer, so an Engine must not be shared between goroutines.
type Engine struct {
	n        int
	k        int
	boundary BoundaryMode
	delta    *core.IntGrid
}

// NewEngine returns an engine for n×n grids with critical threshold k.
func NewEngine(n, k int, boundary BoundaryMode) *Engine {
	return &Engine{n: n, k: k, boundary: boundary, delta: core.NewIntGrid(n)}
}

// Threshold returns the critical height K.
func (e *Engine) Threshold() int { return e.k }

// Boundary returns the boundary mode.
func (e *Engine) Boundary() BoundaryMode { return e.boundary }

// Sweep performs one synchronous toppling pass over g. Every interior cell is
// tested against the state g had before the sweep; the resulting deltas are
// collected in a buffer and added to g in one step. In open mode the border
// ring is then cleared.
func (e *Engine) Sweep(g *core.IntGrid) SweepResult {
	e.checkSize(g)
	e.delta.Clear()

	src := g.Cells()
	delta := e.delta.Cells()
	n := e.n
	topples := 0
	for r := 1; r < n-1; r++ {
		for c := 1; c < n-1; c++ {
			if scatter(src, delta, n, e.k, r, c) {
				topples++
			}
		}
	}

	res := SweepResult{Topples: topples}
	if topples > 0 {
		res.BorderGrains = e.delta.BorderSum()
		g.AddDelta(e.delta)
	}
	if e.boundary == BoundaryOpen {
		g.ClearBorder()
	}
	return res
}

// scatter records the toppling of (r, c) in delta when the cell is above k
// in src. src is never written.
func scatter(src, delta []int, n, k, r, c int) bool {
	idx := r*n + c
	if src[idx] <= k {
		return false
	}
	delta[idx] -= 4
	delta[idx-n]++
	delta[idx+n]++
	delta[idx-1]++
	delta[idx+1]++
	return true
}

// Relax sweeps g until a sweep topples nothing.
func (e *Engine) Relax(g *core.IntGrid) Relaxation {
	var out Relaxation
	for {
		res := e.Sweep(g)
		if res.Topples == 0 {
			return out
		}
		out.Topples += res.Topples
		out.Sweeps++
	}
}

// Stable reports whether every interior cell of g is at or below K.
func (e *Engine) Stable(g *core.IntGrid) bool {
	e.checkSize(g)
	return g.MaxInterior() <= e.k
}

func (e *Engine) checkSize(g *core.IntGrid) {
	if g == nil || g.N != e.n {
		got := 0
		if g != nil {
			got = g.N
		}
		panic(fmt.Sprintf("sandpile: engine built for %dx%d grids, got %dx%d", e.n, e.n, got, got))
	}
}
