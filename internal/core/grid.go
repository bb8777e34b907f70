package core

import "fmt"

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// IntGrid stores a square grid of signed integer cell values in row-major
// order. Row and column 0 and N-1 form the border ring; everything else is
// interior.
type IntGrid struct {
	N    int
	data []int
}

// NewIntGrid allocates an all-zero N×N grid.
func NewIntGrid(n int) *IntGrid {
	if n <= 0 {
		n = 1
	}
	return &IntGrid{N: n, data: make([]int, n*n)}
}

// FromRows builds a grid from a dense square matrix.
func FromRows(rows [][]int) (*IntGrid, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("empty matrix")
	}
	g := NewIntGrid(n)
	for r, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d", r, len(row), n)
		}
		copy(g.data[r*n:(r+1)*n], row)
	}
	return g, nil
}

// FromCells builds an N×N grid from row-major cell values. The slice is copied.
func FromCells(n int, cells []int) (*IntGrid, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid grid size %d", n)
	}
	if len(cells) != n*n {
		return nil, fmt.Errorf("got %d cells for a %dx%d grid", len(cells), n, n)
	}
	g := NewIntGrid(n)
	copy(g.data, cells)
	return g, nil
}

// Size returns the grid dimensions.
func (g *IntGrid) Size() Size { return Size{W: g.N, H: g.N} }

// Cells exposes the backing slice so callers can read/write values directly.
func (g *IntGrid) Cells() []int { return g.data }

// Index returns the linear slice index for (row, col).
func (g *IntGrid) Index(row, col int) int { return row*g.N + col }

// InBounds reports whether (row, col) addresses a cell of the grid.
func (g *IntGrid) InBounds(row, col int) bool {
	return row >= 0 && row < g.N && col >= 0 && col < g.N
}

// IsInterior reports whether (row, col) lies strictly inside the border ring.
func (g *IntGrid) IsInterior(row, col int) bool {
	return row >= 1 && row <= g.N-2 && col >= 1 && col <= g.N-2
}

// At returns the value stored at (row, col).
func (g *IntGrid) At(row, col int) int {
	g.mustInBounds(row, col)
	return g.data[g.Index(row, col)]
}

// Set stores v at (row, col).
func (g *IntGrid) Set(row, col, v int) {
	g.mustInBounds(row, col)
	g.data[g.Index(row, col)] = v
}

// Add increments the cell at (row, col) by delta.
func (g *IntGrid) Add(row, col, delta int) {
	g.mustInBounds(row, col)
	g.data[g.Index(row, col)] += delta
}

func (g *IntGrid) mustInBounds(row, col int) {
	if !g.InBounds(row, col) {
		panic(fmt.Sprintf("core: cell (%d,%d) outside %dx%d grid", row, col, g.N, g.N))
	}
}

// FillInterior sets every interior cell to v and leaves the border alone.
func (g *IntGrid) FillInterior(v int) {
	for r := 1; r < g.N-1; r++ {
		row := g.data[r*g.N : (r+1)*g.N]
		for c := 1; c < g.N-1; c++ {
			row[c] = v
		}
	}
}

// AddDelta adds delta to the grid element-wise. Both grids must share N.
func (g *IntGrid) AddDelta(delta *IntGrid) {
	if delta.N != g.N {
		panic(fmt.Sprintf("core: delta is %dx%d, grid is %dx%d", delta.N, delta.N, g.N, g.N))
	}
	for i, d := range delta.data {
		g.data[i] += d
	}
}

// ClearBorder resets the border ring to zero.
func (g *IntGrid) ClearBorder() {
	n := g.N
	last := (n - 1) * n
	for c := 0; c < n; c++ {
		g.data[c] = 0
		g.data[last+c] = 0
	}
	for r := 1; r < n-1; r++ {
		g.data[r*n] = 0
		g.data[r*n+n-1] = 0
	}
}

// BorderSum returns the total held by the border ring.
func (g *IntGrid) BorderSum() int {
	n := g.N
	if n == 1 {
		return g.data[0]
	}
	total := 0
	last := (n - 1) * n
	for c := 0; c < n; c++ {
		total += g.data[c] + g.data[last+c]
	}
	for r := 1; r < n-1; r++ {
		total += g.data[r*n] + g.data[r*n+n-1]
	}
	return total
}

// Mass returns the sum of every cell.
func (g *IntGrid) Mass() int {
	total := 0
	for _, v := range g.data {
		total += v
	}
	return total
}

// Clear fills the grid with zeros.
func (g *IntGrid) Clear() {
	for i := range g.data {
		g.data[i] = 0
	}
}

// Clone returns a deep copy that shares no storage with g.
func (g *IntGrid) Clone() *IntGrid {
	out := &IntGrid{N: g.N, data: make([]int, len(g.data))}
	copy(out.data, g.data)
	return out
}

// Equal reports whether both grids have the same size and cell values.
func (g *IntGrid) Equal(other *IntGrid) bool {
	if other == nil || other.N != g.N {
		return false
	}
	for i, v := range g.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}

// Rows returns the grid as a dense matrix. The rows are copies.
func (g *IntGrid) Rows() [][]int {
	rows := make([][]int, g.N)
	for r := range rows {
		rows[r] = append([]int(nil), g.data[r*g.N:(r+1)*g.N]...)
	}
	return rows
}

// MaxInterior returns the largest interior value, or 0 when there is no interior.
func (g *IntGrid) MaxInterior() int {
	best := 0
	first := true
	for r := 1; r < g.N-1; r++ {
		for c := 1; c < g.N-1; c++ {
			v := g.data[r*g.N+c]
			if first || v > best {
				best = v
				first = false
			}
		}
	}
	return best
}
