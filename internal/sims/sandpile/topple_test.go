package sandpile

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kachinap/sandpile-project/internal/core"
)

func randomGrid(n, maxHeight int, seed uint64) *core.IntGrid {
	rng := rand.New(rand.NewPCG(seed, 0))
	g := core.NewIntGrid(n)
	for r := 1; r < n-1; r++ {
		for c := 1; c < n-1; c++ {
			g.Set(r, c, rng.IntN(maxHeight+1))
		}
	}
	return g
}

// sweepInOrder applies the toppling rule visiting interior cells in the given
// order of linear indices.
func sweepInOrder(g *core.IntGrid, k int, boundary BoundaryMode, order []int) (int, []int) {
	delta := core.NewIntGrid(g.N)
	topples := 0
	for _, idx := range order {
		if scatter(g.Cells(), delta.Cells(), g.N, k, idx/g.N, idx%g.N) {
			topples++
		}
	}
	buf := append([]int(nil), delta.Cells()...)
	g.AddDelta(delta)
	if boundary == BoundaryOpen {
		g.ClearBorder()
	}
	return topples, buf
}

func interiorOrder(n int) []int {
	var order []int
	for r := 1; r < n-1; r++ {
		for c := 1; c < n-1; c++ {
			order = append(order, r*n+c)
		}
	}
	return order
}

func TestSweepSingleCenterTopple(t *testing.T) {
	g := core.NewIntGrid(5)
	g.Set(2, 2, 4)
	e := NewEngine(5, 3, BoundaryOpen)

	res := e.Sweep(g)
	if res.Topples != 1 {
		t.Fatalf("first sweep toppled %d cells, expected 1", res.Topples)
	}

	expects := map[[2]int]int{
		{1, 2}: 1,
		{3, 2}: 1,
		{2, 1}: 1,
		{2, 3}: 1,
	}
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			want := expects[[2]int{r, c}]
			if got := g.At(r, c); got != want {
				t.Fatalf("cell (%d,%d)=%d, expected %d", r, c, got, want)
			}
		}
	}

	res = e.Sweep(g)
	if res.Topples != 0 {
		t.Fatalf("second sweep toppled %d cells, expected 0", res.Topples)
	}
}

func TestSweepReadsPreSweepState(t *testing.T) {
	g := core.NewIntGrid(5)
	g.Set(1, 2, 4)
	g.Set(2, 2, 3)
	e := NewEngine(5, 3, BoundaryOpen)

	if res := e.Sweep(g); res.Topples != 1 {
		t.Fatalf("toppled %d cells, expected only the initially unstable one", res.Topples)
	}
	if got := g.At(2, 2); got != 4 {
		t.Fatalf("neighbour height %d, expected 4 after receiving a grain", got)
	}
	if res := e.Sweep(g); res.Topples != 1 {
		t.Fatalf("second sweep toppled %d cells, expected 1", res.Topples)
	}
}

func TestSweepOrderIndependence(t *testing.T) {
	const n = 14
	for seed := uint64(1); seed <= 5; seed++ {
		base := randomGrid(n, 9, seed)

		forward := interiorOrder(n)
		backward := append([]int(nil), forward...)
		for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
			backward[i], backward[j] = backward[j], backward[i]
		}
		shuffled := append([]int(nil), forward...)
		rand.New(rand.NewPCG(seed, 99)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, boundary := range []BoundaryMode{BoundaryOpen, BoundaryClosed} {
			ref := base.Clone()
			e := NewEngine(n, 3, boundary)

			grids := []*core.IntGrid{base.Clone(), base.Clone(), base.Clone()}
			orders := [][]int{forward, backward, shuffled}
			for sweep := 0; sweep < 6; sweep++ {
				want := e.Sweep(ref)
				var firstDelta []int
				for i, g := range grids {
					topples, delta := sweepInOrder(g, 3, boundary, orders[i])
					if topples != want.Topples {
						t.Fatalf("seed %d %s sweep %d order %d: %d topples, expected %d", seed, boundary, sweep, i, topples, want.Topples)
					}
					if i == 0 {
						firstDelta = delta
					} else if diff := cmp.Diff(firstDelta, delta); diff != "" {
						t.Fatalf("seed %d %s sweep %d: delta buffer depends on scan order (-forward +order%d):\n%s", seed, boundary, sweep, i, diff)
					}
					if diff := cmp.Diff(ref.Rows(), g.Rows()); diff != "" {
						t.Fatalf("seed %d %s sweep %d order %d: grid mismatch (-engine +order):\n%s", seed, boundary, sweep, i, diff)
					}
				}
			}
		}
	}
}

func TestSweepDissipatesInOpenMode(t *testing.T) {
	g := randomGrid(16, 10, 7)
	e := NewEngine(16, 3, BoundaryOpen)

	sawBorder := false
	for sweep := 0; sweep < 200; sweep++ {
		before := g.Mass()
		res := e.Sweep(g)
		after := g.Mass()
		if after != before-res.BorderGrains {
			t.Fatalf("sweep %d: mass %d -> %d, expected loss of %d border grains", sweep, before, after, res.BorderGrains)
		}
		if sum := g.BorderSum(); sum != 0 {
			t.Fatalf("sweep %d: border holds %d grains after reset", sweep, sum)
		}
		if res.BorderGrains > 0 {
			sawBorder = true
		}
		if res.Topples == 0 {
			break
		}
	}
	if !sawBorder {
		t.Fatal("expected some grains to reach the border")
	}
}

func TestSweepConservesMassInClosedMode(t *testing.T) {
	g := randomGrid(16, 10, 11)
	e := NewEngine(16, 3, BoundaryClosed)

	total := g.Mass()
	border := g.BorderSum()
	for sweep := 0; sweep < 5000; sweep++ {
		res := e.Sweep(g)
		if got := g.Mass(); got != total {
			t.Fatalf("sweep %d: mass %d, expected conserved %d", sweep, got, total)
		}
		border += res.BorderGrains
		if got := g.BorderSum(); got != border {
			t.Fatalf("sweep %d: border holds %d, expected %d", sweep, got, border)
		}
		if res.Topples == 0 {
			return
		}
	}
	t.Fatal("closed grid did not settle within 5000 sweeps")
}

func TestRelaxLeavesInteriorStable(t *testing.T) {
	for _, boundary := range []BoundaryMode{BoundaryOpen, BoundaryClosed} {
		for _, k := range []int{3, 4, 5} {
			g := randomGrid(20, 12, uint64(k)+3)
			e := NewEngine(20, k, boundary)
			rel := e.Relax(g)
			if !e.Stable(g) {
				t.Fatalf("%s k=%d: interior max %d after relax", boundary, k, g.MaxInterior())
			}
			if rel.Topples < rel.Sweeps {
				t.Fatalf("%s k=%d: %d topples across %d sweeps", boundary, k, rel.Topples, rel.Sweeps)
			}
		}
	}
}

func TestRelaxStableGridIsNoop(t *testing.T) {
	g := randomGrid(10, 3, 5)
	before := g.Clone()
	rel := NewEngine(10, 3, BoundaryOpen).Relax(g)
	if rel != (Relaxation{}) {
		t.Fatalf("stable grid relaxation = %+v, expected zero", rel)
	}
	if !g.Equal(before) {
		t.Fatal("relaxing a stable grid changed it")
	}
}

func TestRelaxSupercriticalFillIsReproducible(t *testing.T) {
	for _, boundary := range []BoundaryMode{BoundaryOpen, BoundaryClosed} {
		run := func() (Relaxation, *core.IntGrid) {
			g := core.NewIntGrid(50)
			g.FillInterior(7)
			e := NewEngine(50, 3, boundary)
			return e.Relax(g), g
		}
		relA, gridA := run()
		relB, gridB := run()

		if relA.Topples <= 0 || relA.Sweeps <= 0 {
			t.Fatalf("%s: relaxation %+v, expected topples and sweeps", boundary, relA)
		}
		if relA != relB {
			t.Fatalf("%s: relaxation not reproducible: %+v vs %+v", boundary, relA, relB)
		}
		if diff := cmp.Diff(gridA.Rows(), gridB.Rows()); diff != "" {
			t.Fatalf("%s: final grids differ:\n%s", boundary, diff)
		}
		if gridA.MaxInterior() > 3 {
			t.Fatalf("%s: interior max %d after relax", boundary, gridA.MaxInterior())
		}
	}
}

func TestSweepPanicsOnSizeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for mismatched grid size")
		}
	}()
	NewEngine(5, 3, BoundaryOpen).Sweep(core.NewIntGrid(6))
}
