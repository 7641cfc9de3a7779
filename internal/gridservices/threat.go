package gridservices

import "fight-club-sim/internal/fixedmath"

// ThreatGrid is the 64x64, 128px-cell threat field with current and peak
// layers. Peak decays slower than current, giving zombies a
// short "memory" of where combat recently happened.
type ThreatGrid struct {
	size     int
	cellSize fixedmath.Fixed64
	current  []fixedmath.Fixed64
	peak     []fixedmath.Fixed64
}

func NewThreatGrid(size int, cellSizePx fixedmath.Fixed64) *ThreatGrid {
	return &ThreatGrid{
		size:     size,
		cellSize: cellSizePx,
		current:  make([]fixedmath.Fixed64, size*size),
		peak:     make([]fixedmath.Fixed64, size*size),
	}
}

func (g *ThreatGrid) cellCoord(pos fixedmath.Vec2) (int, int) {
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

// AddSource sets current = max(current, level) at pos; any increase also
// raises peak to match, so peak never lags behind a live threat source.
func (g *ThreatGrid) AddSource(pos fixedmath.Vec2, level fixedmath.Fixed64) {
	col, row := g.cellCoord(pos)
	idx := row*g.size + col
	g.setMax(idx, level)
}

func (g *ThreatGrid) setMax(idx int, level fixedmath.Fixed64) {
	if level > g.current[idx] {
		g.current[idx] = level
		if level > g.peak[idx] {
			g.peak[idx] = level
		}
	}
}

// SpillNoise propagates a 32x32 noise grid into this 64x64 threat grid: each
// noise cell covers a 2x2 block of threat cells. The mapping is by index
// (noise cell n covers threat cells 2n and 2n+1 on each axis) and does not
// consult either grid's cell size, so it matches world positions only when
// the noise cell size is exactly 2x the threat cell size.
func (g *ThreatGrid) SpillNoise(noise *NoiseGrid, spilloverMultiplier fixedmath.Fixed64) {
	for nr := 0; nr < noise.size; nr++ {
		for nc := 0; nc < noise.size; nc++ {
			v := noise.cells[nr*noise.size+nc].Mul(spilloverMultiplier)
			if v <= 0 {
				continue
			}
			baseRow := nr * 2
			baseCol := nc * 2
			for dr := 0; dr < 2; dr++ {
				row := baseRow + dr
				if row < 0 || row >= g.size {
					continue
				}
				for dc := 0; dc < 2; dc++ {
					col := baseCol + dc
					if col < 0 || col >= g.size {
						continue
					}
					g.setMax(row*g.size+col, v)
				}
			}
		}
	}
}

// Decay reduces current at currentDecayRate and peak at the (slower)
// peakDecayRate; peak is clamped to never fall below current.
func (g *ThreatGrid) Decay(currentDecayPerSecond, peakDecayPerSecond, dt fixedmath.Fixed64) {
	curAmount := currentDecayPerSecond.Mul(dt)
	peakAmount := peakDecayPerSecond.Mul(dt)
	for i := range g.current {
		nc := g.current[i].Sub(curAmount)
		if nc < 0 {
			nc = 0
		}
		g.current[i] = nc

		np := g.peak[i].Sub(peakAmount)
		if np < nc {
			np = nc
		}
		g.peak[i] = np
	}
}

// FindHighestThreatNearby scans cells within radius of pos using the
// current layer and returns the cell coordinates, magnitude and world
// position of the hottest cell.
func (g *ThreatGrid) FindHighestThreatNearby(pos fixedmath.Vec2, radius fixedmath.Fixed64) (cellX, cellY int, magnitude fixedmath.Fixed64, cellPos fixedmath.Vec2, ok bool) {
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
			v := g.current[row*g.size+col]
			if v > best {
				best = v
				bestCol, bestRow = col, row
			}
		}
	}

	if bestCol < 0 {
		return 0, 0, 0, fixedmath.Vec2Zero, false
	}

	center := fixedmath.NewVec2(
		fixedmath.FromInt(bestCol).Mul(g.cellSize).Add(g.cellSize.Div(fixedmath.FromInt(2))),
		fixedmath.FromInt(bestRow).Mul(g.cellSize).Add(g.cellSize.Div(fixedmath.FromInt(2))),
	)
	return bestCol, bestRow, best, center, true
}

// ThreatAt returns the current threat level at pos, used by zombie state
// transitions.
func (g *ThreatGrid) ThreatAt(pos fixedmath.Vec2) fixedmath.Fixed64 {
	col, row := g.cellCoord(pos)
	return g.current[row*g.size+col]
}

func (g *ThreatGrid) Size() int { return g.size }

func (g *ThreatGrid) SnapshotCurrent() []fixedmath.Fixed64 {
	out := make([]fixedmath.Fixed64, len(g.current))
	copy(out, g.current)
	return out
}

func (g *ThreatGrid) SnapshotPeak() []fixedmath.Fixed64 {
	out := make([]fixedmath.Fixed64, len(g.peak))
	copy(out, g.peak)
	return out
}

func (g *ThreatGrid) Restore(current, peak []fixedmath.Fixed64) {
	copy(g.current, current)
	copy(g.peak, peak)
}
