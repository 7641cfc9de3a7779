package sim

import (
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

// TerrainQuery is the subset of pathfinding.TerrainQuery lifecycle systems
// need for movement-collision checks, restated here so this package does not
// import pathfinding (which itself depends on sim's row types only through
// World, avoiding an import cycle).
type TerrainQuery interface {
	IsPassable(tileX, tileY int, ignoreBuildings bool) bool
}

// ApplyMovement is the scheduler-registered body for "moveable_apply_movement"
//: new_position = position + velocity*dt, with an
// axis-aligned slide fallback when the straight move is blocked, grounded on
// the existing engine collision-resolution pass that tries one axis at a
// time rather than giving up outright.
func ApplyMovement(terrain TerrainQuery, tileSize fixedmath.Fixed64, dt fixedmath.Fixed64, pos, vel fixedmath.Vec2, ignoreBuildings bool) (newPos fixedmath.Vec2, newVel fixedmath.Vec2) {
	if vel.IsZero() {
		return pos, vel
	}
	straight := pos.Add(vel.Scale(dt))
	if tilePassable(terrain, tileSize, straight, ignoreBuildings) {
		return straight, vel
	}

	slideX := fixedmath.NewVec2(pos.X.Add(vel.X.Mul(dt)), pos.Y)
	if tilePassable(terrain, tileSize, slideX, ignoreBuildings) {
		return slideX, fixedmath.NewVec2(vel.X, 0)
	}

	slideY := fixedmath.NewVec2(pos.X, pos.Y.Add(vel.Y.Mul(dt)))
	if tilePassable(terrain, tileSize, slideY, ignoreBuildings) {
		return slideY, fixedmath.NewVec2(0, vel.Y)
	}

	return pos, fixedmath.Vec2{}
}

func tilePassable(terrain TerrainQuery, tileSize fixedmath.Fixed64, pos fixedmath.Vec2, ignoreBuildings bool) bool {
	tx := pos.X.Div(tileSize).ToInt()
	ty := pos.Y.Div(tileSize).ToInt()
	return terrain.IsPassable(tx, ty, ignoreBuildings)
}

// ApplyMovementCombatUnits runs ApplyMovement over every live combat unit.
func ApplyMovementCombatUnits(tbl *ecs.Table[CombatUnitRow], terrain TerrainQuery, tileSize, dt fixedmath.Fixed64) {
	tbl.ForEachSlot(func(slot int32, row *CombatUnitRow) bool {
		if row.Flags.Dead() {
			return true
		}
		row.Position, row.Velocity = ApplyMovement(terrain, tileSize, dt, row.Position, row.Velocity, false)
		return true
	})
}

// ApplyMovementZombies runs ApplyMovement over every live zombie. Zombies
// pathfind with ignore_buildings = true but still collide
// with building occupancy here, matching "combat layer still handles
// attack-on-arrival" — pathing pretends buildings are absent, movement does
// not.
func ApplyMovementZombies(tbl *ecs.Table[ZombieRow], terrain TerrainQuery, tileSize, dt fixedmath.Fixed64) {
	tbl.ForEachSlot(func(slot int32, row *ZombieRow) bool {
		if row.Flags.Dead() {
			return true
		}
		row.Position, row.Velocity = ApplyMovement(terrain, tileSize, dt, row.Position, row.Velocity, false)
		return true
	})
}

// CombatUnitDeathPass marks newly-dead combat units and frees ones whose
// death delay has elapsed, iterating backward for swap-remove safety.
func CombatUnitDeathPass(tbl *ecs.Table[CombatUnitRow], frame int64, delayFrames int32, onUnitLost func()) {
	tbl.ForEachSlotBackward(func(slot int32, row *CombatUnitRow) {
		if !row.Flags.Dead() {
			if row.Health.Raw() <= 0 {
				row.MarkDead(frame)
				onUnitLost()
			}
			return
		}
		if frame-row.DeathFrame >= int64(delayFrames) {
			tbl.FreeBySlot(slot)
		}
	})
}

// ZombieDeathPass mirrors CombatUnitDeathPass for the zombie table, counting
// kills into MatchStats as each zombie is first marked dead.
func ZombieDeathPass(tbl *ecs.Table[ZombieRow], frame int64, delayFrames int32, onKill func()) {
	tbl.ForEachSlotBackward(func(slot int32, row *ZombieRow) {
		if !row.Flags.Dead() {
			if row.Health.Raw() <= 0 {
				row.MarkDead(frame)
				onKill()
			}
			return
		}
		if frame-row.DeathFrame >= int64(delayFrames) {
			tbl.FreeBySlot(slot)
		}
	})
}

// BuildingDeathFootprint describes one building's tile footprint and world
// center, passed out of BuildingDeathPass so the World layer (which owns the
// occupancy grid and pathing service) can reclaim tiles and invalidate flow
// caches without this package importing World.
type BuildingDeathFootprint struct {
	TileX, TileY, Width, Height int32
	Center                      fixedmath.Vec2
	EjectGarrison                []ecs.Handle
	EjectHealthFraction           fixedmath.Fixed64
}

// BuildingDeathPass mirrors the mortal death passes but additionally ejects
// garrisoned units at 50% HP and reports the freed footprint for occupancy
// and pathing reclaim.
func BuildingDeathPass(tbl *ecs.Table[BuildingRow], frame int64, delayFrames int32, tileSize fixedmath.Fixed64, onLost func(), onFreed func(BuildingDeathFootprint)) {
	tbl.ForEachSlotBackward(func(slot int32, row *BuildingRow) {
		if !row.Flags.Dead() {
			if row.Health.Raw() <= 0 {
				row.MarkDead(frame)
				onLost()
			}
			return
		}
		if frame-row.DeathFrame < int64(delayFrames) {
			return
		}
		garrison := make([]ecs.Handle, 0, row.GarrisonSize)
		for i := 0; i < row.GarrisonSize; i++ {
			garrison = append(garrison, row.Garrison[i])
		}
		onFreed(BuildingDeathFootprint{
			TileX: row.TileX, TileY: row.TileY, Width: row.Width, Height: row.Height,
			Center: row.CenterWorld(tileSize), EjectGarrison: garrison,
			EjectHealthFraction: fixedmath.FromFloat(0.5),
		})
		tbl.FreeBySlot(slot)
	})
}

// PlacementRequest is one frame's pending building-placement input.
type PlacementRequest struct {
	TileX, TileY, Width, Height int32
	TypeID                      uint16
	Owner                       uint8
	RequiresClearGround         bool
}

// ValidatePlacement checks map bounds, footprint occupancy and terrain
// passability for one placement request.
func ValidatePlacement(req PlacementRequest, mapWidthTiles, mapHeightTiles int32, terrain TerrainQuery, occupied func(x, y int32) bool) bool {
	if req.TileX < 0 || req.TileY < 0 || req.TileX+req.Width > mapWidthTiles || req.TileY+req.Height > mapHeightTiles {
		return false
	}
	for y := req.TileY; y < req.TileY+req.Height; y++ {
		for x := req.TileX; x < req.TileX+req.Width; x++ {
			if occupied(x, y) {
				return false
			}
			if req.RequiresClearGround && !terrain.IsPassable(int(x), int(y), false) {
				return false
			}
		}
	}
	return true
}
