package sandpile

import (
	"fmt"

	"github.com/kachinap/sandpile-project/internal/core"
)

// Avalanche is the outcome of one deposition-to-stability cycle.
type Avalanche struct {
	Deposit Deposit
	// Size is the total number of topplings.
	Size int
	// Sweeps counts the sweeps that toppled at least one cell.
	Sweeps int
}

// Drop adds one grain at d and relaxes g back to stability. g is left in its
// new stable state.
func (e *Engine) Drop(g *core.IntGrid, d Deposit) Avalanche {
	e.checkSize(g)
	if !g.IsInterior(d.Row, d.Col) {
		panic(fmt.Sprintf("sandpile: deposit %s is not interior to a %dx%d grid", d, g.N, g.N))
	}
	g.Add(d.Row, d.Col, 1)
	rel := e.Relax(g)
	return Avalanche{Deposit: d, Size: rel.Topples, Sweeps: rel.Sweeps}
}
