// Package gridservices implements the noise/threat/separation grid layer
//: uniform grids with decay and spillover that zombie AI and
// crowd steering read from. Grounded on spatial.SpatialGrid
// (preallocated row-major cell slices, scratch-buffer queries) generalized
// from "list of entity indices per cell" to "one Fixed64 accumulator per
// cell".
package gridservices

import "fight-club-sim/internal/fixedmath"

// NoiseGrid is the 32x32, 256px-cell noise field.
type NoiseGrid struct {
	size     int
	cellSize fixedmath.Fixed64
	cells    []fixedmath.Fixed64
}

func NewNoiseGrid(size int, cellSizePx fixedmath.Fixed64) *NoiseGrid {
	return &NoiseGrid{
		size:     size,
		cellSize: cellSizePx,
		cells:    make([]fixedmath.Fixed64, size*size),
	}
}

func (g *NoiseGrid) cellCoord(pos fixedmath.Vec2) (int, int) {
	col := pos.X.Div(g.cellSize).ToInt()
	row := pos.Y.Div(g.cellSize).ToInt()
	if col < 0 {
		col = 0
	}
	if col >= g.size {
		col = g.size - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.size {
		row = g.size - 1
	}
	return col, row
}

// AddSource applies a non-accumulating max write for one tick's worth of
// noise at pos.
func (g *NoiseGrid) AddSource(pos fixedmath.Vec2, level fixedmath.Fixed64) {
	col, row := g.cellCoord(pos)
	idx := row*g.size + col
	if level > g.cells[idx] {
		g.cells[idx] = level
	}
}

// Decay reduces every cell toward zero; the caller only invokes this every
// other frame per the scheduler's interval/offset filter.
func (g *NoiseGrid) Decay(decayPerSecond, dt fixedmath.Fixed64) {
	amount := decayPerSecond.Mul(dt)
	for i, v := range g.cells {
		nv := v.Sub(amount)
		if nv < 0 {
			nv = 0
		}
		g.cells[i] = nv
	}
}

// FindHighestNoiseNearby scans the cells within radius of pos and returns the
// coordinates, magnitude and unit direction toward the loudest cell. ok is
// false if every nearby cell is silent.
func (g *NoiseGrid) FindHighestNoiseNearby(pos fixedmath.Vec2, radius fixedmath.Fixed64) (cellX, cellY int, magnitude fixedmath.Fixed64, direction fixedmath.Vec2, ok bool) {
	centerCol, centerRow := g.cellCoord(pos)
	radiusCells := radius.Div(g.cellSize).ToInt() + 1

	best := fixedmath.Zero
	bestCol, bestRow := -1, -1

	for row := centerRow - radiusCells; row <= centerRow+radiusCells; row++ {
		if row < 0 || row >= g.size {
			continue
		}
		for col := centerCol - radiusCells; col <= centerCol+radiusCells; col++ {
			if col < 0 || col >= g.size {
				continue
			}
			v := g.cells[row*g.size+col]
			if v > best {
				best = v
				bestCol, bestRow = col, row
			}
		}
	}

	if bestCol < 0 {
		return 0, 0, 0, fixedmath.Vec2Zero, false
	}

	cellCenter := fixedmath.NewVec2(
		fixedmath.FromInt(bestCol).Mul(g.cellSize).Add(g.cellSize.Div(fixedmath.FromInt(2))),
		fixedmath.FromInt(bestRow).Mul(g.cellSize).Add(g.cellSize.Div(fixedmath.FromInt(2))),
	)
	dir := cellCenter.Sub(pos).Normalized()
	return bestCol, bestRow, best, dir, true
}

func (g *NoiseGrid) Size() int { return g.size }

// Snapshot returns a copy of the raw cell values (used by the rollback
// snapshot serializer and the desync diagnostic export).
func (g *NoiseGrid) Snapshot() []fixedmath.Fixed64 {
	out := make([]fixedmath.Fixed64, len(g.cells))
	copy(out, g.cells)
	return out
}

func (g *NoiseGrid) Restore(cells []fixedmath.Fixed64) {
	copy(g.cells, cells)
}
