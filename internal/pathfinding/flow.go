package pathfinding

import (
	"container/heap"

	"fight-club-sim/internal/fixedmath"
)

// FlowCell is one cell of a built flow field: a unit direction vector and
// its Dijkstra distance from the nearest goal. A cell with Direction ==
// Vec2Zero has no usable gradient (goal cell, or unreachable).
type FlowCell struct {
	Direction fixedmath.Vec2
	Distance  fixedmath.Fixed64
}

// FlowField is a dense SectorSize x SectorSize grid of flow cells covering
// exactly one zone within one sector. Cells outside the zone
// are left zero-valued.
type FlowField struct {
	SectorSize int
	Cells      []FlowCell
	IsComplete bool
}

func newFlowField(sectorSize int) *FlowField {
	return &FlowField{
		SectorSize: sectorSize,
		Cells:      make([]FlowCell, sectorSize*sectorSize),
	}
}

func (f *FlowField) at(lx, ly int) *FlowCell {
	return &f.Cells[ly*f.SectorSize+lx]
}

func (f *FlowField) DirectionAt(lx, ly int) fixedmath.Vec2 {
	if lx < 0 || lx >= f.SectorSize || ly < 0 || ly >= f.SectorSize {
		return fixedmath.Vec2Zero
	}
	return f.at(lx, ly).Direction
}

var diagonalCost = fixedmath.One.Mul(fixedmath.FromFloat(1.41421356))

type dijkstraNode struct {
	lx, ly   int
	distance fixedmath.Fixed64
	index    int
}

type dijkstraQueue []*dijkstraNode

func (q dijkstraQueue) Len() int           { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool { return q[i].distance < q[j].distance }
func (q dijkstraQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *dijkstraQueue) Push(x interface{}) {
	n := x.(*dijkstraNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *dijkstraQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// flowSeed is one Dijkstra source: a local tile with its starting distance
// (0 for an in-zone goal tile, or the downstream sector's flow distance at
// a portal tile + one step, for a portal seed).
type flowSeed struct {
	lx, ly   int
	distance fixedmath.Fixed64
}

// buildFlowField runs a single-source-shortest-path (multi-seed Dijkstra)
// over every tile in localZone within sector, honoring the no-corner-cut
// rule and the wall-proximity cost term, then converts the resulting
// distance field into unit direction vectors via a 2-point gradient.
func buildFlowField(sector *Sector, localZone int32, ignoreBuildings bool, seeds []flowSeed, wallCostFactor, minMagnitude fixedmath.Fixed64) *FlowField {
	size := sector.Size
	field := newFlowField(size)
	dist := make([]fixedmath.Fixed64, size*size)
	visited := make([]bool, size*size)
	for i := range dist {
		dist[i] = fixedmath.MaxValue
	}

	inZone := func(lx, ly int) bool {
		return lx >= 0 && lx < size && ly >= 0 && ly < size && sector.LocalZoneAt(lx, ly, ignoreBuildings) == localZone
	}

	pq := &dijkstraQueue{}
	heap.Init(pq)
	for _, s := range seeds {
		if !inZone(s.lx, s.ly) {
			continue
		}
		idx := s.ly*size + s.lx
		if s.distance < dist[idx] {
			dist[idx] = s.distance
			heap.Push(pq, &dijkstraNode{lx: s.lx, ly: s.ly, distance: s.distance})
		}
	}

	for pq.Len() > 0 {
		n := heap.Pop(pq).(*dijkstraNode)
		idx := n.ly*size + n.lx
		if visited[idx] {
			continue
		}
		visited[idx] = true

		for _, d := range eightOffsets {
			nx, ny := n.lx+d[0], n.ly+d[1]
			if !inZone(nx, ny) {
				continue
			}
			diagonal := d[0] != 0 && d[1] != 0
			if diagonal {
				// No corner-cutting: both orthogonal neighbors must be in
				// the same zone, or the diagonal step is disallowed.
				if !inZone(n.lx+d[0], n.ly) || !inZone(n.lx, n.ly+d[1]) {
					continue
				}
			}
			stepCost := fixedmath.One
			if diagonal {
				stepCost = diagonalCost
			}
			wallDist := sector.WallDistanceAt(nx, ny, ignoreBuildings)
			wallCost := wallCostFactor.Div(fixedmath.One.Add(fixedmath.FromInt(int(wallDist))))
			cost := stepCost.Add(wallCost)

			nIdx := ny*size + nx
			cand := n.distance.Add(cost)
			if cand < dist[nIdx] {
				dist[nIdx] = cand
				heap.Push(pq, &dijkstraNode{lx: nx, ly: ny, distance: cand})
			}
		}
	}

	for ly := 0; ly < size; ly++ {
		for lx := 0; lx < size; lx++ {
			if !inZone(lx, ly) {
				continue
			}
			idx := ly*size + lx
			cell := field.at(lx, ly)
			cell.Distance = dist[idx]

			left := sampleDist(dist, size, lx-1, ly, dist[idx], inZone)
			right := sampleDist(dist, size, lx+1, ly, dist[idx], inZone)
			up := sampleDist(dist, size, lx, ly-1, dist[idx], inZone)
			down := sampleDist(dist, size, lx, ly+1, dist[idx], inZone)

			gx := left.Sub(right)
			gy := up.Sub(down)
			grad := fixedmath.NewVec2(gx, gy)
			if grad.Length() < minMagnitude {
				cell.Direction = fixedmath.Vec2Zero
			} else {
				cell.Direction = grad.Normalized()
			}
		}
	}
	field.IsComplete = true
	return field
}

// sampleDist returns the distance at a neighboring tile, falling back to
// the center tile's own distance (center) when the neighbor is outside the
// zone or was never reached, so the gradient degrades gracefully at zone
// borders instead of producing a spurious discontinuity.
func sampleDist(dist []fixedmath.Fixed64, size, lx, ly int, center fixedmath.Fixed64, inZone func(int, int) bool) fixedmath.Fixed64 {
	if lx < 0 || lx >= size || ly < 0 || ly >= size || !inZone(lx, ly) {
		return center
	}
	idx := ly*size + lx
	if dist[idx] == fixedmath.MaxValue {
		return center
	}
	return dist[idx]
}
