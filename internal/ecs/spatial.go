package ecs

import "fight-club-sim/internal/fixedmath"

// spatialIndex is a uniform grid over the world, mapping cells to the sorted
// list of slots whose position currently falls in that cell. It is a derived
// structure: never part of a snapshot, always rebuilt via rebuild() after a
// restore or a bulk structural mutation.
//
// Grounded on spatial.SpatialGrid (internal/game/spatial/grid.go):
// same cells-as-slices-of-indices layout and scratch-buffer query pattern,
// generalized here to live inside each Table instead of the engine.
type spatialIndex struct {
	cellSize    fixedmath.Fixed64
	invCellSize fixedmath.Fixed64
	cols, rows  int
	cells       [][]int32
}

func newSpatialIndex(worldW, worldH, cellSize fixedmath.Fixed64) *spatialIndex {
	if cellSize <= 0 {
		cellSize = fixedmath.FromInt(1)
	}
	cols := worldW.Div(cellSize).ToInt() + 1
	rows := worldH.Div(cellSize).ToInt() + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	cells := make([][]int32, cols*rows)
	return &spatialIndex{
		cellSize:    cellSize,
		invCellSize: fixedmath.One.Div(cellSize),
		cols:        cols,
		rows:        rows,
		cells:       cells,
	}
}

func (s *spatialIndex) clear() {
	for i := range s.cells {
		s.cells[i] = s.cells[i][:0]
	}
}

func (s *spatialIndex) cellCoord(pos fixedmath.Vec2) (int, int) {
	col := pos.X.Mul(s.invCellSize).ToInt()
	row := pos.Y.Mul(s.invCellSize).ToInt()
	if col < 0 {
		col = 0
	}
	if col >= s.cols {
		col = s.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= s.rows {
		row = s.rows - 1
	}
	return col, row
}

func (s *spatialIndex) insert(slot int32, pos fixedmath.Vec2) {
	col, row := s.cellCoord(pos)
	idx := row*s.cols + col
	s.cells[idx] = append(s.cells[idx], slot)
}

// queryRadius appends candidate slots within the bounding cell range of
// (pos, radius) into out and returns it. Candidates may lie outside the
// exact radius; callers perform a precise distance check on row access, per
// the table contract.
func (s *spatialIndex) queryRadius(pos fixedmath.Vec2, radius fixedmath.Fixed64, out []int32) []int32 {
	minCol := pos.X.Sub(radius).Mul(s.invCellSize).ToInt()
	maxCol := pos.X.Add(radius).Mul(s.invCellSize).ToInt()
	minRow := pos.Y.Sub(radius).Mul(s.invCellSize).ToInt()
	maxRow := pos.Y.Add(radius).Mul(s.invCellSize).ToInt()

	if minCol < 0 {
		minCol = 0
	}
	if maxCol >= s.cols {
		maxCol = s.cols - 1
	}
	if minRow < 0 {
		minRow = 0
	}
	if maxRow >= s.rows {
		maxRow = s.rows - 1
	}

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*s.cols + col
			out = append(out, s.cells[idx]...)
		}
	}
	return out
}
