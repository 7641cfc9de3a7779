package gridservices

import "fight-club-sim/internal/fixedmath"

// gaussianBlur3x3 is the fixed 3x3 kernel, scaled by 1/16.
var gaussianBlur3x3 = [3][3]int{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// SeparationGrid is the single crowd-density field zombies sample for
// density-gradient steering. It is rebuilt from scratch every
// tick: Clear, then one Increment per live zombie, then Blur.
type SeparationGrid struct {
	size     int
	cellSize fixedmath.Fixed64
	density  []int32
	blurred  []int32
}

func NewSeparationGrid(size int, cellSizePx fixedmath.Fixed64) *SeparationGrid {
	return &SeparationGrid{
		size:     size,
		cellSize: cellSizePx,
		density:  make([]int32, size*size),
		blurred:  make([]int32, size*size),
	}
}

func (g *SeparationGrid) Clear() {
	for i := range g.density {
		g.density[i] = 0
	}
}

func (g *SeparationGrid) cellCoord(pos fixedmath.Vec2) (int, int) {
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

func (g *SeparationGrid) Increment(pos fixedmath.Vec2) {
	col, row := g.cellCoord(pos)
	g.density[row*g.size+col]++
}

// Blur applies the 3x3 Gaussian kernel into the blurred buffer then copies
// it back into density, so subsequent Gradient calls read the smoothed
// field.
func (g *SeparationGrid) Blur() {
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			sum := int32(0)
			for dr := -1; dr <= 1; dr++ {
				r := row + dr
				if r < 0 || r >= g.size {
					continue
				}
				for dc := -1; dc <= 1; dc++ {
					c := col + dc
					if c < 0 || c >= g.size {
						continue
					}
					sum += g.density[r*g.size+c] * int32(gaussianBlur3x3[dr+1][dc+1])
				}
			}
			g.blurred[row*g.size+col] = sum / 16
		}
	}
	copy(g.density, g.blurred)
}

// DensityAt returns the smoothed density at pos.
func (g *SeparationGrid) DensityAt(pos fixedmath.Vec2) int32 {
	col, row := g.cellCoord(pos)
	return g.density[row*g.size+col]
}

// Gradient returns the 2-point finite-difference gradient of the density
// field at pos: (density[x-1]-density[x+1], density[y-1]-density[y+1]),
// lifted into Fixed64.
func (g *SeparationGrid) Gradient(pos fixedmath.Vec2) fixedmath.Vec2 {
	col, row := g.cellCoord(pos)

	left := g.at(col-1, row)
	right := g.at(col+1, row)
	up := g.at(col, row-1)
	down := g.at(col, row+1)

	gx := fixedmath.FromInt(int(left - right))
	gy := fixedmath.FromInt(int(up - down))
	return fixedmath.NewVec2(gx, gy)
}

func (g *SeparationGrid) at(col, row int) int32 {
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
	return g.density[row*g.size+col]
}

func (g *SeparationGrid) Size() int { return g.size }
