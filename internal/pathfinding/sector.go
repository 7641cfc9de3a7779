package pathfinding

// ZoneID globally identifies a connected component of passable tiles within
// one sector: high bits are the sector's flat index, low bits the zone's
// local ordinal within that sector.
type ZoneID int64

func makeZoneID(sectorIdx int32, localZone int32) ZoneID {
	return ZoneID(int64(sectorIdx)<<32 | int64(localZone))
}

func (z ZoneID) sectorIdx() int32 { return int32(int64(z) >> 32) }
func (z ZoneID) localZone() int32 { return int32(int64(z) & 0xffffffff) }

const invalidLocalZone = -1

// Sector is one SectorSize x SectorSize tile partition of the map. zoneOf
// maps a local tile (row-major) to its local zone ordinal, or
// invalidLocalZone if impassable (for the "ignoreBuildings=false" variant —
// building-aware and building-ignoring layouts are computed separately since
// a tile can be passable in one and not the other).
type Sector struct {
	SX, SY   int32
	Size     int
	originX  int
	originY  int

	// Two zone labelings: index 0 = building-aware, index 1 = ignore-buildings.
	zoneOf       [2][]int32
	zoneCount    [2]int32
	wallDistance [2][]int32 // BFS distance in tiles to nearest impassable tile
}

func newSector(sx, sy int32, size int) *Sector {
	return &Sector{
		SX: sx, SY: sy, Size: size,
		originX: int(sx) * size,
		originY: int(sy) * size,
		zoneOf:  [2][]int32{make([]int32, size*size), make([]int32, size*size)},
		wallDistance: [2][]int32{make([]int32, size*size), make([]int32, size*size)},
	}
}

func variantIndex(ignoreBuildings bool) int {
	if ignoreBuildings {
		return 1
	}
	return 0
}

// build labels connected components of passable tiles (flood fill) and
// precomputes the wall-proximity distance field used by the Dijkstra
// kernel's wall-cost term.
func (s *Sector) build(terrain TerrainQuery, ignoreBuildings bool) {
	v := variantIndex(ignoreBuildings)
	zoneOf := s.zoneOf[v]
	for i := range zoneOf {
		zoneOf[i] = invalidLocalZone
	}

	var nextZone int32
	queue := make([]int, 0, s.Size*s.Size)

	passable := func(localX, localY int) bool {
		if localX < 0 || localX >= s.Size || localY < 0 || localY >= s.Size {
			return false
		}
		return terrain.IsPassable(s.originX+localX, s.originY+localY, ignoreBuildings)
	}

	for ly := 0; ly < s.Size; ly++ {
		for lx := 0; lx < s.Size; lx++ {
			idx := ly*s.Size + lx
			if zoneOf[idx] != invalidLocalZone || !passable(lx, ly) {
				continue
			}
			zone := nextZone
			nextZone++
			queue = queue[:0]
			queue = append(queue, idx)
			zoneOf[idx] = zone
			for head := 0; head < len(queue); head++ {
				cur := queue[head]
				cx, cy := cur%s.Size, cur/s.Size
				for _, d := range cardinalOffsets {
					nx, ny := cx+d[0], cy+d[1]
					if !passable(nx, ny) {
						continue
					}
					nIdx := ny*s.Size + nx
					if zoneOf[nIdx] != invalidLocalZone {
						continue
					}
					zoneOf[nIdx] = zone
					queue = append(queue, nIdx)
				}
			}
		}
	}
	s.zoneCount[v] = nextZone

	s.computeWallDistance(v, terrain, ignoreBuildings)
}

var cardinalOffsets = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
var eightOffsets = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// computeWallDistance runs a multi-source BFS from every impassable tile
// (including the sector border, treated as open unless actually blocked)
// to give every passable tile its distance-to-nearest-wall in tiles.
func (s *Sector) computeWallDistance(v int, terrain TerrainQuery, ignoreBuildings bool) {
	dist := s.wallDistance[v]
	const unset = int32(-1)
	for i := range dist {
		dist[i] = unset
	}
	queue := make([]int, 0, s.Size*s.Size)
	for ly := 0; ly < s.Size; ly++ {
		for lx := 0; lx < s.Size; lx++ {
			if !terrain.IsPassable(s.originX+lx, s.originY+ly, ignoreBuildings) {
				idx := ly*s.Size + lx
				dist[idx] = 0
				queue = append(queue, idx)
			}
		}
	}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		cx, cy := cur%s.Size, cur/s.Size
		for _, d := range cardinalOffsets {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || nx >= s.Size || ny < 0 || ny >= s.Size {
				continue
			}
			nIdx := ny*s.Size + nx
			if dist[nIdx] != unset {
				continue
			}
			dist[nIdx] = dist[cur] + 1
			queue = append(queue, nIdx)
		}
	}
	// Any tile never reached (shouldn't happen on a bounded sector) gets a
	// generous default so the wall-cost term degrades gracefully.
	for i, d := range dist {
		if d == unset {
			dist[i] = int32(s.Size)
		}
	}
}

// LocalZoneAt returns the local zone ordinal at a local tile, or
// invalidLocalZone if impassable.
func (s *Sector) LocalZoneAt(localX, localY int, ignoreBuildings bool) int32 {
	v := variantIndex(ignoreBuildings)
	if localX < 0 || localX >= s.Size || localY < 0 || localY >= s.Size {
		return invalidLocalZone
	}
	return s.zoneOf[v][localY*s.Size+localX]
}

func (s *Sector) WallDistanceAt(localX, localY int, ignoreBuildings bool) int32 {
	v := variantIndex(ignoreBuildings)
	return s.wallDistance[v][localY*s.Size+localX]
}

func (s *Sector) ZoneCount(ignoreBuildings bool) int32 {
	return s.zoneCount[variantIndex(ignoreBuildings)]
}
