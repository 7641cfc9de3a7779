package world

import (
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/sim"
)

// PlaceBuilding implements "building_placement": validates req
// against map bounds, footprint occupancy and terrain passability, then
// allocates the row, stamps occupancy and invalidates pathing.
func (w *World) PlaceBuilding(req sim.PlacementRequest, maxHealth fixedmath.Fixed64) (ecs.Handle, bool) {
	if !sim.ValidatePlacement(req, w.Map.WidthTiles, w.Map.HeightTiles, w, func(x, y int32) bool {
		return w.occupancy[y*w.Map.WidthTiles+x]
	}) {
		return ecs.Invalid, false
	}

	handle, row, err := w.Buildings.Allocate()
	if err != nil {
		return ecs.Invalid, false
	}
	*row = sim.BuildingRow{
		TileX: req.TileX, TileY: req.TileY, Width: req.Width, Height: req.Height,
		TypeID: req.TypeID, Owner: req.Owner,
		Health: maxHealth, MaxHealth: maxHealth,
	}
	w.SetBuildingFootprint(req.TileX, req.TileY, req.Width, req.Height, true)
	return handle, true
}

// ReclaimBuildingFootprint undoes PlaceBuilding's occupancy stamp once a
// destroyed building's death delay has elapsed. Power-network modeling is out of scope (Non-goal:
// content/balance systems beyond the combat/AI loop), so only occupancy and
// pathing are reclaimed here.
func (w *World) ReclaimBuildingFootprint(f sim.BuildingDeathFootprint) {
	w.SetBuildingFootprint(f.TileX, f.TileY, f.Width, f.Height, false)
	for _, h := range f.EjectGarrison {
		row, ok := w.CombatUnits.TryGetByHandle(h)
		if !ok {
			continue
		}
		row.GarrisonedIn = ecs.Invalid
		row.Position = f.Center
		row.Health = row.Health.Mul(f.EjectHealthFraction).Clamp(fixedmath.FromInt(1), row.MaxHealth)
	}
}

// SpawnZombie allocates a zombie row at pos with the given stat block —
// "enemy_spawn"/"unit_spawn". Per-type stat tables are a
// content/balance concern (Non-goal); callers supply the resolved stats.
func (w *World) SpawnZombie(pos fixedmath.Vec2, stats sim.ZombieRow) (ecs.Handle, bool) {
	handle, row, err := w.Zombies.Allocate()
	if err != nil {
		return ecs.Invalid, false
	}
	stats.Position = pos
	*row = stats
	return handle, true
}

// SpawnCombatUnit allocates a combat unit row — the "unit_spawn" half of
// the wave/spawn system.
func (w *World) SpawnCombatUnit(pos fixedmath.Vec2, stats sim.CombatUnitRow) (ecs.Handle, bool) {
	handle, row, err := w.CombatUnits.Allocate()
	if err != nil {
		return ecs.Invalid, false
	}
	stats.Position = pos
	*row = stats
	return handle, true
}

// SpawnResourceNode allocates a resource node row — "resource_node_spawn"
//. Harvesting mechanics are out of scope; nodes exist as
// map features pathing and placement validation must account for.
func (w *World) SpawnResourceNode(pos fixedmath.Vec2, typeID uint16, amount int32) (ecs.Handle, bool) {
	handle, row, err := w.ResourceNodes.Allocate()
	if err != nil {
		return ecs.Invalid, false
	}
	*row = sim.ResourceNodeRow{Position: pos, TypeID: typeID, RemainingAmount: amount}
	return handle, true
}

// AdvanceWave implements "wave_management": when the
// current frame reaches NextWaveFrame, starts a new wave by incrementing the
// wave number and arming ZombiesRemaining for enemy_spawn to drain; callers
// supply the composition/spawn decision (DetRand-seeded wave composition is
// a content/balance concern left to the caller, consistent with per-type
// stats being resolved by callers throughout this file).
func (w *World) AdvanceWave(frame int64, framesBetweenWaves int64, zombiesPerWave int32) bool {
	if w.Wave.Active || frame < w.Wave.NextWaveFrame {
		return false
	}
	w.Wave.WaveNumber++
	w.Wave.ZombiesRemaining = zombiesPerWave
	w.Wave.Active = true
	w.Wave.NextWaveFrame = frame + framesBetweenWaves
	return true
}
