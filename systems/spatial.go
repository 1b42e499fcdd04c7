// Package systems holds the per-tick rules of the ecosystem: behaviours,
// zone effects, environment effects and the spatial index they search.
package systems

import "math"

// SpatialGrid provides neighbour lookups using a cell-based grid.
// It stores agent indices (insertion order), so nearest queries can break
// distance ties by index exactly like a linear scan would.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int // flat grid of agent index lists
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all agents from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an agent index at the given position.
func (g *SpatialGrid) Insert(i int, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], i)
}

// Remove deletes an agent index previously inserted at the given position.
func (g *SpatialGrid) Remove(i int, x, y float64) {
	idx := g.cellIndex(x, y)
	cell := g.cells[idx]
	for k, v := range cell {
		if v == i {
			g.cells[idx] = append(cell[:k], cell[k+1:]...)
			return
		}
	}
}

// Move relocates an agent index after its position changed.
func (g *SpatialGrid) Move(i int, oldX, oldY, newX, newY float64) {
	from := g.cellIndex(oldX, oldY)
	to := g.cellIndex(newX, newY)
	if from == to {
		return
	}
	g.Remove(i, oldX, oldY)
	g.cells[to] = append(g.cells[to], i)
}

// Nearest returns the index of the closest agent within radius of (x,y) for
// which match returns true, or -1. Ties resolve to the lowest index.
func (g *SpatialGrid) Nearest(x, y, radius float64, match func(i int) bool, pos func(i int) (float64, float64)) int {
	if radius < 0 {
		return -1
	}

	minCol, minRow := g.cellCoords(x-radius, y-radius)
	maxCol, maxRow := g.cellCoords(x+radius, y+radius)

	best := -1
	bestDistSq := math.Inf(1)
	radiusSq := radius * radius

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, i := range g.cells[row*g.cols+col] {
				px, py := pos(i)
				d := distanceSq(x, y, px, py)
				if d > radiusSq || d > bestDistSq {
					continue
				}
				if d == bestDistSq && i > best {
					continue
				}
				if !match(i) {
					continue
				}
				best = i
				bestDistSq = d
			}
		}
	}
	return best
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.cellCoords(x, y)
	return row*g.cols + col
}

// cellCoords returns the clamped column and row for a world position.
func (g *SpatialGrid) cellCoords(x, y float64) (int, int) {
	col := int(math.Floor(x / g.cellSize))
	row := int(math.Floor(y / g.cellSize))

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
