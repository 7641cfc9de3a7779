package pathfinding

import (
	"container/heap"
	"sort"
)

// Portal is a contiguous run of boundary tiles connecting two adjacent
// zones across a sector edge. Flow-field construction seeds from every
// tile in TilesA/TilesB, not just the run's midpoint, so a wide gap between
// two rooms doesn't collapse traffic onto a single doorway tile.
type Portal struct {
	ZoneA, ZoneB ZoneID
	TilesA       []TileCoord // tiles on the ZoneA side, world coordinates
	TilesB       []TileCoord // corresponding tiles on the ZoneB side
}

type sectorKey struct{ SX, SY int32 }

// ZoneGraph partitions the map into sectors, labels zones within each, finds
// portals between adjacent sectors, and answers zone-level path queries.
// Grounded on single-level spatial.FlowField; this adds the
// sector/zone/portal hierarchy this design requires so a flow field never
// spans the whole map.
type ZoneGraph struct {
	terrain    TerrainQuery
	sectorSize int
	cols, rows int32

	sectors map[sectorKey]*Sector
	// portals[ignoreBuildings] maps a zone to the portals touching it.
	portalsByZone [2]map[ZoneID][]*Portal

	recentPaths *zonePathCache
}

func NewZoneGraph(terrain TerrainQuery, sectorSize int) *ZoneGraph {
	w, h := terrain.Bounds()
	cols := int32((w + sectorSize - 1) / sectorSize)
	rows := int32((h + sectorSize - 1) / sectorSize)
	g := &ZoneGraph{
		terrain:    terrain,
		sectorSize: sectorSize,
		cols:       cols,
		rows:       rows,
		sectors:    make(map[sectorKey]*Sector),
		portalsByZone: [2]map[ZoneID][]*Portal{
			make(map[ZoneID][]*Portal),
			make(map[ZoneID][]*Portal),
		},
		recentPaths: newZonePathCache(256),
	}
	for sy := int32(0); sy < rows; sy++ {
		for sx := int32(0); sx < cols; sx++ {
			g.buildSector(sx, sy)
		}
	}
	for v := 0; v < 2; v++ {
		g.rebuildPortalsTouchingAll(v == 1)
	}
	return g
}

func (g *ZoneGraph) sectorFlatIndex(sx, sy int32) int32 {
	return sy*g.cols + sx
}

func (g *ZoneGraph) getOrCreateSector(sx, sy int32) *Sector {
	key := sectorKey{sx, sy}
	s, ok := g.sectors[key]
	if !ok {
		s = newSector(sx, sy, g.sectorSize)
		g.sectors[key] = s
	}
	return s
}

func (g *ZoneGraph) buildSector(sx, sy int32) {
	s := g.getOrCreateSector(sx, sy)
	s.build(g.terrain, false)
	s.build(g.terrain, true)
}

// ZoneAt resolves the global zone id containing a world tile, or -1 if the
// tile is impassable or out of bounds.
func (g *ZoneGraph) ZoneAt(tileX, tileY int, ignoreBuildings bool) ZoneID {
	sx, sy := int32(tileX/g.sectorSize), int32(tileY/g.sectorSize)
	s, ok := g.sectors[sectorKey{sx, sy}]
	if !ok {
		return -1
	}
	lx, ly := tileX-int(sx)*g.sectorSize, tileY-int(sy)*g.sectorSize
	local := s.LocalZoneAt(lx, ly, ignoreBuildings)
	if local == invalidLocalZone {
		return -1
	}
	return makeZoneID(g.sectorFlatIndex(sx, sy), local)
}

func (g *ZoneGraph) sectorOf(z ZoneID) (sx, sy int32, s *Sector, ok bool) {
	flat := z.sectorIdx()
	sy = flat / g.cols
	sx = flat % g.cols
	s, ok = g.sectors[sectorKey{sx, sy}]
	return
}

// rebuildPortalsTouchingAll recomputes every portal in the graph for one
// variant (building-aware / ignore-buildings). Called at construction and
// whenever invalidation has touched enough sectors that incremental portal
// patching isn't worth the bookkeeping.
func (g *ZoneGraph) rebuildPortalsTouchingAll(ignoreBuildings bool) {
	v := variantIndex(ignoreBuildings)
	g.portalsByZone[v] = make(map[ZoneID][]*Portal)

	for sy := int32(0); sy < g.rows; sy++ {
		for sx := int32(0); sx < g.cols; sx++ {
			// East neighbor: scan the shared vertical edge.
			if sx+1 < g.cols {
				g.scanEdge(sx, sy, sx+1, sy, true, ignoreBuildings)
			}
			// South neighbor: scan the shared horizontal edge.
			if sy+1 < g.rows {
				g.scanEdge(sx, sy, sx, sy+1, false, ignoreBuildings)
			}
		}
	}
}

// scanEdge walks the boundary between two adjacent sectors and groups
// contiguous passable-tile pairs whose zones differ from the previous
// group into separate Portal runs.
func (g *ZoneGraph) scanEdge(sxA, syA, sxB, syB int32, vertical bool, ignoreBuildings bool) {
	sA, okA := g.sectors[sectorKey{sxA, syA}]
	sB, okB := g.sectors[sectorKey{sxB, syB}]
	if !okA || !okB {
		return
	}
	v := variantIndex(ignoreBuildings)

	type run struct {
		zoneA, zoneB ZoneID
		tilesA       []TileCoord
		tilesB       []TileCoord
	}
	var current *run
	flush := func() {
		if current == nil || len(current.tilesA) == 0 {
			current = nil
			return
		}
		p := &Portal{ZoneA: current.zoneA, ZoneB: current.zoneB, TilesA: current.tilesA, TilesB: current.tilesB}
		g.portalsByZone[v][current.zoneA] = append(g.portalsByZone[v][current.zoneA], p)
		g.portalsByZone[v][current.zoneB] = append(g.portalsByZone[v][current.zoneB], p)
		current = nil
	}

	edgeA, edgeB := g.sectorSize-1, 0

	for i := 0; i < g.sectorSize; i++ {
		var worldA, worldB TileCoord
		var zA, zB int32
		if vertical {
			worldA = TileCoord{int(sxA)*g.sectorSize + edgeA, int(syA)*g.sectorSize + i}
			worldB = TileCoord{int(sxB)*g.sectorSize + edgeB, int(syB)*g.sectorSize + i}
			zA = sA.LocalZoneAt(edgeA, i, ignoreBuildings)
			zB = sB.LocalZoneAt(edgeB, i, ignoreBuildings)
		} else {
			worldA = TileCoord{int(sxA)*g.sectorSize + i, int(syA)*g.sectorSize + edgeA}
			worldB = TileCoord{int(sxB)*g.sectorSize + i, int(syB)*g.sectorSize + edgeB}
			zA = sA.LocalZoneAt(i, edgeA, ignoreBuildings)
			zB = sB.LocalZoneAt(i, edgeB, ignoreBuildings)
		}

		if zA == invalidLocalZone || zB == invalidLocalZone {
			flush()
			continue
		}
		gZoneA := makeZoneID(g.sectorFlatIndex(sxA, syA), zA)
		gZoneB := makeZoneID(g.sectorFlatIndex(sxB, syB), zB)

		if current != nil && current.zoneA == gZoneA && current.zoneB == gZoneB {
			current.tilesA = append(current.tilesA, worldA)
			current.tilesB = append(current.tilesB, worldB)
			continue
		}
		flush()
		current = &run{zoneA: gZoneA, zoneB: gZoneB, tilesA: []TileCoord{worldA}, tilesB: []TileCoord{worldB}}
	}
	flush()
}

// PortalsOf returns every portal touching z.
func (g *ZoneGraph) PortalsOf(z ZoneID, ignoreBuildings bool) []*Portal {
	return g.portalsByZone[variantIndex(ignoreBuildings)][z]
}

// FindAllPortalsBetween returns every disconnected portal run directly
// joining zoneA and zoneB.
func (g *ZoneGraph) FindAllPortalsBetween(zoneA, zoneB ZoneID, ignoreBuildings bool) []*Portal {
	var out []*Portal
	for _, p := range g.PortalsOf(zoneA, ignoreBuildings) {
		if (p.ZoneA == zoneA && p.ZoneB == zoneB) || (p.ZoneA == zoneB && p.ZoneB == zoneA) {
			out = append(out, p)
		}
	}
	return out
}

// neighborOf returns the zone on the other side of a portal from z.
func (p *Portal) neighborOf(z ZoneID) ZoneID {
	if p.ZoneA == z {
		return p.ZoneB
	}
	return p.ZoneA
}

// representativeTile returns a representative world tile for a zone (its
// first tile in row-major order within the sector), used as the A*
// heuristic target.
func (g *ZoneGraph) representativeTile(z ZoneID, ignoreBuildings bool) (TileCoord, bool) {
	sx, sy, s, ok := g.sectorOf(z)
	if !ok {
		return TileCoord{}, false
	}
	local := z.localZone()
	for ly := 0; ly < s.Size; ly++ {
		for lx := 0; lx < s.Size; lx++ {
			if s.LocalZoneAt(lx, ly, ignoreBuildings) == local {
				return TileCoord{int(sx)*s.Size + lx, int(sy)*s.Size + ly}, true
			}
		}
	}
	return TileCoord{}, false
}

type zoneAStarNode struct {
	zone     ZoneID
	priority int
	index    int
}

type zoneAStarQueue []*zoneAStarNode

func (q zoneAStarQueue) Len() int            { return len(q) }
func (q zoneAStarQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q zoneAStarQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *zoneAStarQueue) Push(x interface{}) {
	n := x.(*zoneAStarNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *zoneAStarQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func manhattan(a, b TileCoord) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindZonePath runs A* over the zone graph from startZone to destZone,
// returning the ordered chain of zones to traverse (inclusive of both
// endpoints). The portals between consecutive zones are not returned.
func (g *ZoneGraph) FindZonePath(startZone, destZone ZoneID, ignoreBuildings bool) ([]ZoneID, bool) {
	if startZone == destZone {
		return []ZoneID{startZone}, true
	}
	if cached, ok := g.recentPaths.get(startZone, destZone); ok {
		return cached, true
	}

	destTile, ok := g.representativeTile(destZone, ignoreBuildings)
	if !ok {
		return nil, false
	}

	cameFrom := map[ZoneID]ZoneID{}
	gScore := map[ZoneID]int{startZone: 0}
	open := &zoneAStarQueue{}
	heap.Init(open)
	heap.Push(open, &zoneAStarNode{zone: startZone, priority: 0})
	visited := map[ZoneID]bool{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*zoneAStarNode).zone
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if cur == destZone {
			path := reconstructZonePath(cameFrom, startZone, destZone)
			g.recentPaths.put(startZone, destZone, path)
			return path, true
		}
		for _, p := range g.PortalsOf(cur, ignoreBuildings) {
			next := p.neighborOf(cur)
			tentative := gScore[cur] + 1
			if existing, seen := gScore[next]; seen && existing <= tentative {
				continue
			}
			gScore[next] = tentative
			cameFrom[next] = cur
			h := 0
			if tile, ok := g.representativeTile(next, ignoreBuildings); ok {
				h = manhattan(tile, destTile)
			}
			heap.Push(open, &zoneAStarNode{zone: next, priority: tentative + h})
		}
	}
	return nil, false
}

func reconstructZonePath(cameFrom map[ZoneID]ZoneID, start, dest ZoneID) []ZoneID {
	path := []ZoneID{dest}
	cur := dest
	for cur != start {
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// InvalidateSector rebuilds one sector and its four orthogonal neighbors
// but does not rebuild portals or clear caches
// on its own — callers batch invalidations and call FlushPendingInvalidations.
func (g *ZoneGraph) InvalidateSector(sx, sy int32) {
	g.buildSector(sx, sy)
	offsets := [4][2]int32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, d := range offsets {
		nx, ny := sx+d[0], sy+d[1]
		if nx < 0 || nx >= g.cols || ny < 0 || ny >= g.rows {
			continue
		}
		g.buildSector(nx, ny)
	}
}

// FlushPendingInvalidations sorts the batch deterministically, rebuilds all
// portals, and clears the recent-zone-path cache. Flow-field caches are
// owned by the service layer, which clears them in the same call.
func (g *ZoneGraph) FlushPendingInvalidations(pending []TileCoord) {
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Y != pending[j].Y {
			return pending[i].Y < pending[j].Y
		}
		return pending[i].X < pending[j].X
	})
	for _, t := range pending {
		sx, sy := int32(t.X/g.sectorSize), int32(t.Y/g.sectorSize)
		g.InvalidateSector(sx, sy)
	}
	g.rebuildPortalsTouchingAll(false)
	g.rebuildPortalsTouchingAll(true)
	g.recentPaths.clear()
}

func (g *ZoneGraph) SectorSize() int    { return g.sectorSize }
func (g *ZoneGraph) Cols() int32       { return g.cols }
func (g *ZoneGraph) Rows() int32       { return g.rows }
func (g *ZoneGraph) SectorAt(sx, sy int32) (*Sector, bool) {
	s, ok := g.sectors[sectorKey{sx, sy}]
	return s, ok
}
