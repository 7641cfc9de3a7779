// Package world composes every entity table, the grid services and the
// pathfinding service into the single World the scheduler drives one tick
// at a time. Grounded on internal/game.Engine,
// which plays the analogous role of "the one struct holding all live game
// state" — generalized here from one flat player/projectile slice pair into
// the six-table layout plus the noise/threat/separation/pathing
// services those tables feed.
package world

import (
	"fight-club-sim/internal/config"
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/gridservices"
	"fight-club-sim/internal/pathfinding"
	"fight-club-sim/internal/sim"
)

// World owns every piece of simulation state: the six entity tables, the
// three ambient grid services, the pathfinding service, and the small set
// of match-wide singletons.
type World struct {
	Map sim.MapConfig

	CombatUnits   *ecs.Table[sim.CombatUnitRow]
	Zombies       *ecs.Table[sim.ZombieRow]
	Buildings     *ecs.Table[sim.BuildingRow]
	Projectiles   *ecs.Table[sim.ProjectileRow]
	Players       *ecs.Table[sim.PlayerStateRow]
	ResourceNodes *ecs.Table[sim.ResourceNodeRow]

	Noise      *gridservices.NoiseGrid
	Threat     *gridservices.ThreatGrid
	Separation *gridservices.SeparationGrid

	Pathing *pathfinding.Service

	Commands *sim.CommandQueue
	Wave     sim.WaveState
	Stats    sim.MatchStats

	occupancy []bool // tile-indexed building footprint, used as TerrainQuery ground truth
}

// New constructs a World sized from cfg, with every table, grid and the
// pathfinding zone graph pre-built against an initially empty occupancy
// grid (no buildings placed yet).
func New(cfg config.AppConfig) *World {
	mapCfg := sim.MapConfig{
		WidthTiles:  int32(cfg.Map.WidthTiles),
		HeightTiles: int32(cfg.Map.HeightTiles),
		TileSize:    fixedmath.FromInt(cfg.Map.TileSizePx),
	}
	worldW, worldH := mapCfg.WorldWidth(), mapCfg.WorldHeight()

	w := &World{
		Map:       mapCfg,
		occupancy: make([]bool, int(mapCfg.WidthTiles)*int(mapCfg.HeightTiles)),
		Commands:  sim.NewCommandQueue(),
	}

	entityCellSize := mapCfg.TileSize.Mul(fixedmath.FromInt(4))

	w.CombatUnits = ecs.NewTable[sim.CombatUnitRow](TableCombatUnits, ecs.TableConfig{
		Capacity: cfg.Sim.MaxCombatUnits, SpatialCellSize: entityCellSize,
		WorldWidth: worldW, WorldHeight: worldH,
	}, func(r *sim.CombatUnitRow) fixedmath.Vec2 { return r.PositionXY() })

	w.Zombies = ecs.NewTable[sim.ZombieRow](TableZombies, ecs.TableConfig{
		Capacity: cfg.Sim.MaxZombies, SpatialCellSize: entityCellSize,
		WorldWidth: worldW, WorldHeight: worldH,
	}, func(r *sim.ZombieRow) fixedmath.Vec2 { return r.PositionXY() })

	w.Buildings = ecs.NewTable[sim.BuildingRow](TableBuildings, ecs.TableConfig{
		Capacity: cfg.Sim.MaxBuildings,
	}, nil)

	w.Projectiles = ecs.NewTable[sim.ProjectileRow](TableProjectiles, ecs.TableConfig{
		Capacity: cfg.Sim.MaxProjectiles, SpatialCellSize: entityCellSize,
		WorldWidth: worldW, WorldHeight: worldH,
	}, func(r *sim.ProjectileRow) fixedmath.Vec2 { return r.PositionXY() })

	w.Players = ecs.NewTable[sim.PlayerStateRow](TablePlayers, ecs.TableConfig{
		Capacity: cfg.Sim.MaxPlayers,
	}, nil)

	w.ResourceNodes = ecs.NewTable[sim.ResourceNodeRow](TableResourceNodes, ecs.TableConfig{
		Capacity: cfg.Sim.MaxResourceNodes, SpatialCellSize: mapCfg.TileSize.Mul(fixedmath.FromInt(8)),
		WorldWidth: worldW, WorldHeight: worldH,
	}, func(r *sim.ResourceNodeRow) fixedmath.Vec2 { return r.PositionXY() })

	w.Noise = gridservices.NewNoiseGrid(cfg.Grid.NoiseGridSize, fixedmath.FromInt(cfg.Grid.NoiseCellSizePx))
	w.Threat = gridservices.NewThreatGrid(cfg.Grid.ThreatGridSize, fixedmath.FromInt(cfg.Grid.ThreatCellSizePx))
	w.Separation = gridservices.NewSeparationGrid(cfg.Grid.SeparationGridSize, mapCfg.TileSize)

	w.Pathing = pathfinding.NewService(w, pathfinding.Config{
		SectorSizeTiles:       cfg.Pathfinding.SectorSizeTiles,
		WallCostFactor:        cfg.Pathfinding.WallCostFactor,
		MinFlowMagnitude:      cfg.Pathfinding.MinFlowMagnitude,
		MultiTargetCapacity:   cfg.Pathfinding.MultiTargetLRUCapacity,
		SingleDestCapacity:    cfg.Pathfinding.SingleDestLRUCapacity,
		TargetSetCapacity:     cfg.Pathfinding.TargetSetLRUCapacity,
		TargetSetMaxRecursion: cfg.Pathfinding.TargetSetMaxRecursion,
	})

	return w
}

// IsPassable implements pathfinding.TerrainQuery: every tile is passable
// unless a building footprint occupies it, and ignoreBuildings lets zombies
// path as if buildings were not there.
func (w *World) IsPassable(tileX, tileY int, ignoreBuildings bool) bool {
	if tileX < 0 || tileY < 0 || tileX >= int(w.Map.WidthTiles) || tileY >= int(w.Map.HeightTiles) {
		return false
	}
	if ignoreBuildings {
		return true
	}
	return !w.occupancy[tileY*int(w.Map.WidthTiles)+tileX]
}

// Bounds implements pathfinding.TerrainQuery.
func (w *World) Bounds() (widthTiles, heightTiles int) {
	return int(w.Map.WidthTiles), int(w.Map.HeightTiles)
}

// SetBuildingFootprint marks or clears every tile a building with the given
// origin/size occupies, and queues each changed tile for the next pathing
// flush.
func (w *World) SetBuildingFootprint(tileX, tileY, width, height int32, occupied bool) {
	for y := tileY; y < tileY+height; y++ {
		for x := tileX; x < tileX+width; x++ {
			if x < 0 || y < 0 || x >= w.Map.WidthTiles || y >= w.Map.HeightTiles {
				continue
			}
			idx := int(y)*int(w.Map.WidthTiles) + int(x)
			if w.occupancy[idx] == occupied {
				continue
			}
			w.occupancy[idx] = occupied
			w.Pathing.MarkTileChanged(pathfinding.TileCoord{X: int(x), Y: int(y)})
		}
	}
}

// ForEachMortal composes ForEachMortalBackward over every mortal table in
// ascending TableID order.
func (w *World) ForEachMortal(fn func(table ecs.TableID, slot int32, m sim.Mortal)) {
	sim.ForEachMortalBackward(w.CombatUnits, func(slot int32, m sim.Mortal) { fn(TableCombatUnits, slot, m) })
	sim.ForEachMortalBackward(w.Zombies, func(slot int32, m sim.Mortal) { fn(TableZombies, slot, m) })
	sim.ForEachMortalBackward(w.Buildings, func(slot int32, m sim.Mortal) { fn(TableBuildings, slot, m) })
}
