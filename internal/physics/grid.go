package physics

import "math"

// cellKey addresses one grid cell: floor(x/size), floor(y/size).
type cellKey struct {
	col, row int
}

// Grid is a uniform spatial hash over body indices. It is rebuilt from
// scratch for every collision pass and never maintained incrementally.
type Grid struct {
	size    float64
	cells   map[cellKey][]int
	bodies  []*Body
	scratch []int
}

// NewGrid creates an empty grid with square cells of the given size.
func NewGrid(size float64) *Grid {
	if !(size > 0) {
		size = DefaultGridSize
	}
	return &Grid{
		size:    size,
		cells:   make(map[cellKey][]int),
		scratch: make([]int, 0, 32),
	}
}

// CellSize returns the side length of a cell.
func (g *Grid) CellSize() float64 { return g.size }

// Cell returns the cell coordinates containing p.
func (g *Grid) Cell(p Vec2) (col, row int) {
	k := g.key(p)
	return k.col, k.row
}

func (g *Grid) key(p Vec2) cellKey {
	return cellKey{
		col: int(math.Floor(p.X / g.size)),
		row: int(math.Floor(p.Y / g.size)),
	}
}

// Clear drops every body from the grid.
func (g *Grid) Clear() {
	clear(g.cells)
	g.bodies = nil
}

// Rebuild replaces the grid contents with bodies at their current positions.
// The slice is copied, so the caller may reorder or reuse it afterwards.
func (g *Grid) Rebuild(bodies []*Body) {
	g.Clear()
	g.bodies = make([]*Body, len(bodies))
	copy(g.bodies, bodies)
	for i, b := range bodies {
		k := g.key(b.Position)
		g.cells[k] = append(g.cells[k], i)
	}
}

// nearbyIndices returns the indices in the cell containing p and its 8
// neighbours. The slice is reused by the next call.
func (g *Grid) nearbyIndices(p Vec2) []int {
	g.scratch = g.scratch[:0]
	center := g.key(p)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			k := cellKey{col: center.col + dc, row: center.row + dr}
			g.scratch = append(g.scratch, g.cells[k]...)
		}
	}
	return g.scratch
}

// Nearby returns the bodies in the cell containing p and its 8 neighbours.
func (g *Grid) Nearby(p Vec2) []*Body {
	idx := g.nearbyIndices(p)
	out := make([]*Body, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.bodies[i])
	}
	return out
}

// Len returns how many bodies the grid holds.
func (g *Grid) Len() int { return len(g.bodies) }
