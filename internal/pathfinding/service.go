package pathfinding

import (
	"fight-club-sim/internal/fixedmath"
)

// multiTargetKey caches a flow field seeded from every occupied tile of a
// zone's resource nodes / rally points.
type multiTargetKey struct {
	zone ZoneID
}

type singleDestKey struct {
	zone            ZoneID
	destX, destY    int
	ignoreBuildings bool
}

type targetSetKey struct {
	zone            ZoneID
	targetsHash     uint64
	ignoreBuildings bool
}

// Service composes the zone graph with the three flow-field caches named in
// the pathfinding layer, and answers the per-frame "what direction should I move" query
// every pathing entity calls once per tick.
type Service struct {
	graph  *ZoneGraph
	cfg    Config
	multi  *lruCache
	single *lruCache
	target *lruCache

	pendingInvalidations []TileCoord
}

// Config mirrors the subset of config.PathfindingConfig the service needs,
// kept local so this package does not import the config package directly.
type Config struct {
	SectorSizeTiles       int
	WallCostFactor        float64
	MinFlowMagnitude      float64
	MultiTargetCapacity   int
	SingleDestCapacity    int
	TargetSetCapacity     int
	TargetSetMaxRecursion int
}

func NewService(terrain TerrainQuery, cfg Config) *Service {
	return &Service{
		graph:  NewZoneGraph(terrain, cfg.SectorSizeTiles),
		cfg:    cfg,
		multi:  newLRUCache(cfg.MultiTargetCapacity),
		single: newLRUCache(cfg.SingleDestCapacity),
		target: newLRUCache(cfg.TargetSetCapacity),
	}
}

func (s *Service) wallCostFactor() fixedmath.Fixed64  { return fixedmath.FromFloat(s.cfg.WallCostFactor) }
func (s *Service) minFlowMagnitude() fixedmath.Fixed64 { return fixedmath.FromFloat(s.cfg.MinFlowMagnitude) }

func (s *Service) localCoord(t TileCoord) (sx, sy int32, lx, ly int) {
	size := s.graph.sectorSize
	sx, sy = int32(t.X/size), int32(t.Y/size)
	lx, ly = t.X-int(sx)*size, t.Y-int(sy)*size
	return
}

// GetFlowDirectionToDest resolves (and lazily builds, caching the result)
// the single-destination flow field covering the zone containing pos, and
// returns the direction to steer from that tile. Returns the zero vector
// if pos's zone cannot reach destTile or pos is off the passable grid —
// callers fall back to direct steering toward destTile in that case.
func (s *Service) GetFlowDirectionToDest(pos TileCoord, destTile TileCoord, ignoreBuildings bool) fixedmath.Vec2 {
	zone := s.graph.ZoneAt(pos.X, pos.Y, ignoreBuildings)
	if zone == -1 {
		return fixedmath.Vec2Zero
	}
	destZone := s.graph.ZoneAt(destTile.X, destTile.Y, ignoreBuildings)
	if destZone == -1 {
		return fixedmath.Vec2Zero
	}

	field, ok := s.ensureSingleDestFlow(zone, destZone, destTile, ignoreBuildings, 0)
	if !ok {
		return fixedmath.Vec2Zero
	}
	_, _, lx, ly := s.localCoord(pos)
	return field.DirectionAt(lx, ly)
}

// ensureSingleDestFlow builds (destination-zone-first) every flow field
// along the zone path from zone to destZone, reserving and filling each
// shell in reverse order so an upstream sector's portal seeds can read the
// already-built downstream distances.
func (s *Service) ensureSingleDestFlow(zone, destZone ZoneID, destTile TileCoord, ignoreBuildings bool, depth int) (*FlowField, bool) {
	key := singleDestKey{zone: destZone, destX: destTile.X, destY: destTile.Y, ignoreBuildings: ignoreBuildings}
	if zone == destZone {
		if v, ok := s.single.Get(key); ok {
			return v.(*FlowField), true
		}
		field := s.buildDestZoneField(destZone, destTile, ignoreBuildings)
		s.single.Put(key, field)
		return field, true
	}

	if depth > s.cfg.TargetSetMaxRecursion {
		return nil, false
	}

	path, ok := s.graph.FindZonePath(zone, destZone, ignoreBuildings)
	if !ok || len(path) < 2 {
		return nil, false
	}

	// Build every zone on the path, starting from the destination so each
	// upstream build can seed from the one just built.
	var fields = make(map[ZoneID]*FlowField, len(path))
	destField := s.buildDestZoneField(destZone, destTile, ignoreBuildings)
	fields[destZone] = destField
	s.single.Put(singleDestKey{zone: destZone, destX: destTile.X, destY: destTile.Y, ignoreBuildings: ignoreBuildings}, destField)

	for i := len(path) - 2; i >= 0; i-- {
		cur := path[i]
		downstream := path[i+1]
		downField := fields[downstream]
		if downField == nil {
			cached, ok := s.single.Get(singleDestKey{zone: downstream, destX: destTile.X, destY: destTile.Y, ignoreBuildings: ignoreBuildings})
			if !ok {
				return nil, false
			}
			downField = cached.(*FlowField)
		}
		field := s.buildTransitZoneField(cur, downstream, downField, ignoreBuildings)
		fields[cur] = field
		s.single.Put(singleDestKey{zone: cur, destX: destTile.X, destY: destTile.Y, ignoreBuildings: ignoreBuildings}, field)
	}

	return fields[zone], true
}

func (s *Service) buildDestZoneField(zone ZoneID, destTile TileCoord, ignoreBuildings bool) *FlowField {
	_, _, sector, ok := s.graph.sectorOf(zone)
	if !ok {
		return nil
	}
	_, _, lx, ly := s.localCoord(destTile)
	seeds := []flowSeed{{lx: lx, ly: ly, distance: fixedmath.Zero}}
	return buildFlowField(sector, zone.localZone(), ignoreBuildings, seeds, s.wallCostFactor(), s.minFlowMagnitude())
}

// buildTransitZoneField builds the flow field for an intermediate zone,
// seeding from every portal tile connecting it to the already-built
// downstream zone's field, offset by one step's cost past that tile's
// recorded distance.
func (s *Service) buildTransitZoneField(zone, downstream ZoneID, downField *FlowField, ignoreBuildings bool) *FlowField {
	_, _, sector, ok := s.graph.sectorOf(zone)
	if !ok {
		return nil
	}

	portals := s.graph.FindAllPortalsBetween(zone, downstream, ignoreBuildings)
	var seeds []flowSeed
	downSize := downField.SectorSize
	for _, p := range portals {
		var mine, theirs []TileCoord
		if p.ZoneA == zone {
			mine, theirs = p.TilesA, p.TilesB
		} else {
			mine, theirs = p.TilesB, p.TilesA
		}
		for i := range mine {
			_, _, dlx, dly := s.localCoord(theirs[i])
			if dlx < 0 || dlx >= downSize || dly < 0 || dly >= downSize {
				continue
			}
			downDist := downField.at(dlx, dly).Distance
			if downDist == fixedmath.MaxValue {
				continue
			}
			_, _, mlx, mly := s.localCoord(mine[i])
			seeds = append(seeds, flowSeed{lx: mlx, ly: mly, distance: downDist.Add(fixedmath.One)})
		}
	}
	return buildFlowField(sector, zone.localZone(), ignoreBuildings, seeds, s.wallCostFactor(), s.minFlowMagnitude())
}

// GetMultiTargetFlowDirection resolves the cached multi-goal flow field for
// the zone containing pos (goals are arbitrary world tiles, e.g. every
// noise source currently active in that zone) and returns the steering
// direction at pos. The cache is keyed on zone only: the field is built from
// the goals of the first call for a zone and reused by later calls, whose
// goals are not compared and do not cause a rebuild while the entry stays
// cached.
func (s *Service) GetMultiTargetFlowDirection(pos TileCoord, goals []TileCoord, ignoreBuildings bool) fixedmath.Vec2 {
	zone := s.graph.ZoneAt(pos.X, pos.Y, ignoreBuildings)
	if zone == -1 {
		return fixedmath.Vec2Zero
	}
	key := multiTargetKey{zone: zone}
	var field *FlowField
	if v, ok := s.multi.Get(key); ok {
		field = v.(*FlowField)
	} else {
		_, _, sector, ok := s.graph.sectorOf(zone)
		if !ok {
			return fixedmath.Vec2Zero
		}
		var seeds []flowSeed
		for _, g := range goals {
			gzone := s.graph.ZoneAt(g.X, g.Y, ignoreBuildings)
			if gzone != zone {
				continue
			}
			_, _, lx, ly := s.localCoord(g)
			seeds = append(seeds, flowSeed{lx: lx, ly: ly, distance: fixedmath.Zero})
		}
		if len(seeds) == 0 {
			return fixedmath.Vec2Zero
		}
		field = buildFlowField(sector, zone.localZone(), ignoreBuildings, seeds, s.wallCostFactor(), s.minFlowMagnitude())
		s.multi.Put(key, field)
	}
	_, _, lx, ly := s.localCoord(pos)
	return field.DirectionAt(lx, ly)
}

// GetTargetSetFlowDirection resolves the flow direction toward the nearest
// of an arbitrary set of target tiles. Zones
// without a direct target recurse into neighboring zones up to
// TargetSetMaxRecursion, seeded from the best already-built neighbor field,
// with a visited set guarding against cycles in the zone graph.
func (s *Service) GetTargetSetFlowDirection(pos TileCoord, targets []TileCoord, ignoreBuildings bool) fixedmath.Vec2 {
	zone := s.graph.ZoneAt(pos.X, pos.Y, ignoreBuildings)
	if zone == -1 {
		return fixedmath.Vec2Zero
	}
	hash := hashTileSet(targets)
	field, ok := s.ensureTargetSetFlow(zone, targets, hash, ignoreBuildings, make(map[ZoneID]bool), 0)
	if !ok {
		return fixedmath.Vec2Zero
	}
	_, _, lx, ly := s.localCoord(pos)
	return field.DirectionAt(lx, ly)
}

func (s *Service) ensureTargetSetFlow(zone ZoneID, targets []TileCoord, hash uint64, ignoreBuildings bool, visited map[ZoneID]bool, depth int) (*FlowField, bool) {
	key := targetSetKey{zone: zone, targetsHash: hash, ignoreBuildings: ignoreBuildings}
	if v, ok := s.target.Get(key); ok {
		return v.(*FlowField), true
	}
	if visited[zone] || depth > s.cfg.TargetSetMaxRecursion {
		return nil, false
	}
	visited[zone] = true

	_, _, sector, ok := s.graph.sectorOf(zone)
	if !ok {
		return nil, false
	}

	var seeds []flowSeed
	for _, t := range targets {
		if s.graph.ZoneAt(t.X, t.Y, ignoreBuildings) != zone {
			continue
		}
		_, _, lx, ly := s.localCoord(t)
		seeds = append(seeds, flowSeed{lx: lx, ly: ly, distance: fixedmath.Zero})
	}

	if len(seeds) == 0 {
		// No target lives in this zone: seed from whichever neighboring
		// zone (reached via a portal) can itself reach a target.
		for _, p := range s.graph.PortalsOf(zone, ignoreBuildings) {
			neighbor := p.neighborOf(zone)
			neighborField, ok := s.ensureTargetSetFlow(neighbor, targets, hash, ignoreBuildings, visited, depth+1)
			if !ok {
				continue
			}
			var mine, theirs []TileCoord
			if p.ZoneA == zone {
				mine, theirs = p.TilesA, p.TilesB
			} else {
				mine, theirs = p.TilesB, p.TilesA
			}
			for i := range mine {
				_, _, dlx, dly := s.localCoord(theirs[i])
				if dlx < 0 || dlx >= neighborField.SectorSize || dly < 0 || dly >= neighborField.SectorSize {
					continue
				}
				downDist := neighborField.at(dlx, dly).Distance
				if downDist == fixedmath.MaxValue {
					continue
				}
				_, _, mlx, mly := s.localCoord(mine[i])
				seeds = append(seeds, flowSeed{lx: mlx, ly: mly, distance: downDist.Add(fixedmath.One)})
			}
		}
	}

	if len(seeds) == 0 {
		return nil, false
	}

	field := buildFlowField(sector, zone.localZone(), ignoreBuildings, seeds, s.wallCostFactor(), s.minFlowMagnitude())
	s.target.Put(key, field)
	return field, true
}

// hashTileSet computes a stable FNV-1a hash of a target set, independent of
// input ordering, so the same set of objectives always keys to the same
// cache entry regardless of iteration order upstream.
func hashTileSet(tiles []TileCoord) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	var acc uint64
	for _, t := range tiles {
		h := uint64(offset64)
		packed := uint64(uint32(t.X))<<32 | uint64(uint32(t.Y))
		for i := 0; i < 8; i++ {
			h ^= (packed >> (8 * i)) & 0xff
			h *= prime64
		}
		acc ^= h // order-independent combine
	}
	return acc
}

// MarkTileChanged queues a tile whose passability changed (building placed
// or destroyed) for the next FlushPendingInvalidations call.
func (s *Service) MarkTileChanged(t TileCoord) {
	s.pendingInvalidations = append(s.pendingInvalidations, t)
}

// FlushPendingInvalidations rebuilds every sector touched since the last
// flush (plus their orthogonal neighbors), rebuilds portals, and clears
// every flow-field cache — a topology change anywhere can alter distances
// seen by portal-seeded fields far outside the rebuilt sector, so caches
// are not invalidated selectively.
func (s *Service) FlushPendingInvalidations() {
	if len(s.pendingInvalidations) == 0 {
		return
	}
	s.graph.FlushPendingInvalidations(s.pendingInvalidations)
	s.pendingInvalidations = s.pendingInvalidations[:0]
	s.multi.Clear()
	s.single.Clear()
	s.target.Clear()
}

func (s *Service) Graph() *ZoneGraph { return s.graph }

// InvalidateAll forces a full rebuild of every sector and clears every
// flow-field cache, used after a rollback restore where the terrain may
// have changed by an arbitrary number of tiles in one step rather than the
// incremental per-placement deltas MarkTileChanged tracks.
func (s *Service) InvalidateAll() {
	w, h := s.graph.terrain.Bounds()
	tiles := make([]TileCoord, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tiles = append(tiles, TileCoord{X: x, Y: y})
		}
	}
	s.graph.FlushPendingInvalidations(tiles)
	s.pendingInvalidations = s.pendingInvalidations[:0]
	s.multi.Clear()
	s.single.Clear()
	s.target.Clear()
}
