package world

import (
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/pathfinding"
	"fight-club-sim/internal/sim"
)

// This file adapts World's six tables, three grid services and pathing
// service to the small per-system interfaces declared in internal/sim
// (TargetFinder, ZombieFinder, FlowProvider, ThreatLookup) — the systems
// themselves stay storage-agnostic; World is the only place that knows how
// tables, grids and pathing compose.

func tileOf(pos fixedmath.Vec2, tileSize fixedmath.Fixed64) pathfinding.TileCoord {
	return pathfinding.TileCoord{X: pos.X.Div(tileSize).ToInt(), Y: pos.Y.Div(tileSize).ToInt()}
}

// FindZombieTarget implements sim.TargetFinder.
func (w *World) FindZombieTarget(from fixedmath.Vec2, aggro ecs.Handle, searchRangeSq, attackRangeSq fixedmath.Fixed64) (ecs.Handle, sim.ZombieTargetKind, fixedmath.Vec2, bool, bool) {
	if aggro.IsValid() {
		if pos, inRange, ok := w.targetPositionAndRange(aggro, from, attackRangeSq); ok {
			kind := sim.TargetKindUnit
			if aggro.Table == TableBuildings {
				kind = sim.TargetKindBuilding
			}
			return aggro, kind, pos, inRange, true
		}
	}

	var bestBuilding ecs.Handle
	var bestBuildingPos fixedmath.Vec2
	bestBuildingDistSq := searchRangeSq
	foundBuilding := false
	w.Buildings.ForEachSlot(func(slot int32, row *sim.BuildingRow) bool {
		if row.Flags.Dead() {
			return true
		}
		closest := row.ClosestPoint(from, w.Map.TileSize)
		d := fixedmath.Vec2DistanceSquared(from, closest)
		if d <= bestBuildingDistSq {
			bestBuildingDistSq = d
			bestBuilding = w.Buildings.GetHandle(slot)
			bestBuildingPos = closest
			foundBuilding = true
		}
		return true
	})
	if foundBuilding {
		inRange := fixedmath.Vec2DistanceSquared(from, bestBuildingPos) <= attackRangeSq
		return bestBuilding, sim.TargetKindBuilding, bestBuildingPos, inRange, true
	}

	var bestUnit ecs.Handle
	var bestUnitPos fixedmath.Vec2
	bestUnitDistSq := searchRangeSq
	foundUnit := false
	w.CombatUnits.ForEachSlot(func(slot int32, row *sim.CombatUnitRow) bool {
		if row.Flags.Dead() {
			return true
		}
		d := fixedmath.Vec2DistanceSquared(from, row.Position)
		if d <= bestUnitDistSq {
			bestUnitDistSq = d
			bestUnit = w.CombatUnits.GetHandle(slot)
			bestUnitPos = row.Position
			foundUnit = true
		}
		return true
	})
	if foundUnit {
		return bestUnit, sim.TargetKindUnit, bestUnitPos, fixedmath.Vec2DistanceSquared(from, bestUnitPos) <= attackRangeSq, true
	}

	return ecs.Invalid, sim.TargetKindNone, fixedmath.Vec2{}, false, false
}

// TargetStillValid implements sim.TargetFinder.
func (w *World) TargetStillValid(h ecs.Handle, kind sim.ZombieTargetKind, from fixedmath.Vec2, attackRangeSq fixedmath.Fixed64) (fixedmath.Vec2, bool, bool) {
	return w.targetPositionAndRange(h, from, attackRangeSq)
}

// targetPositionAndRange resolves a handle to its position (building:
// closest point to from; unit: center) and whether that position is within
// rangeSq of from.
func (w *World) targetPositionAndRange(h ecs.Handle, from fixedmath.Vec2, rangeSq fixedmath.Fixed64) (fixedmath.Vec2, bool, bool) {
	switch h.Table {
	case TableBuildings:
		row, ok := w.Buildings.TryGetByHandle(h)
		if !ok || row.Flags.Dead() {
			return fixedmath.Vec2{}, false, false
		}
		pos := row.ClosestPoint(from, w.Map.TileSize)
		inRange := fixedmath.Vec2DistanceSquared(from, pos) <= rangeSq
		return pos, inRange, true
	case TableCombatUnits:
		row, ok := w.CombatUnits.TryGetByHandle(h)
		if !ok || row.Flags.Dead() {
			return fixedmath.Vec2{}, false, false
		}
		inRange := fixedmath.Vec2DistanceSquared(from, row.Position) <= rangeSq
		return row.Position, inRange, true
	default:
		return fixedmath.Vec2{}, false, false
	}
}

// FlowToTarget implements sim.FlowProvider for a zombie chasing a specific
// unit or building, ignoring building occupancy while pathing.
func (w *World) FlowToTarget(from fixedmath.Vec2, kind sim.ZombieTargetKind, target ecs.Handle) (fixedmath.Vec2, bool) {
	var destPos fixedmath.Vec2
	switch kind {
	case sim.TargetKindBuilding:
		row, ok := w.Buildings.TryGetByHandle(target)
		if !ok {
			return fixedmath.Vec2{}, false
		}
		destPos = row.ClosestPoint(from, w.Map.TileSize)
	case sim.TargetKindUnit:
		row, ok := w.CombatUnits.TryGetByHandle(target)
		if !ok {
			return fixedmath.Vec2{}, false
		}
		destPos = row.Position
	default:
		return fixedmath.Vec2{}, false
	}
	dir := w.Pathing.GetFlowDirectionToDest(tileOf(from, w.Map.TileSize), tileOf(destPos, w.Map.TileSize), true)
	if dir.IsZero() {
		return fixedmath.Vec2{}, false
	}
	return dir, true
}

// FlowToDestination implements sim.UnitFlowProvider: combat units respect
// building occupancy while pathing, unlike zombies.
func (w *World) FlowToDestination(from, dest fixedmath.Vec2) (fixedmath.Vec2, bool) {
	dir := w.Pathing.GetFlowDirectionToDest(tileOf(from, w.Map.TileSize), tileOf(dest, w.Map.TileSize), false)
	if dir.IsZero() {
		return fixedmath.Vec2{}, false
	}
	return dir, true
}

// FlowToHighestThreat implements sim.FlowProvider.
func (w *World) FlowToHighestThreat(from fixedmath.Vec2) (fixedmath.Vec2, bool) {
	_, _, _, cellPos, ok := w.Threat.FindHighestThreatNearby(from, w.Map.TileSize.Mul(fixedmath.FromInt(20)))
	if !ok {
		return fixedmath.Vec2{}, false
	}
	dir := w.Pathing.GetFlowDirectionToDest(tileOf(from, w.Map.TileSize), tileOf(cellPos, w.Map.TileSize), true)
	if dir.IsZero() {
		return fixedmath.Vec2{}, false
	}
	return dir, true
}

// FlowToCenter implements sim.FlowProvider: the wave-chase and last-resort
// fallback destination is the map center.
func (w *World) FlowToCenter(from fixedmath.Vec2) (fixedmath.Vec2, bool) {
	center := fixedmath.NewVec2(w.Map.WorldWidth().Div(fixedmath.FromInt(2)), w.Map.WorldHeight().Div(fixedmath.FromInt(2)))
	dir := w.Pathing.GetFlowDirectionToDest(tileOf(from, w.Map.TileSize), tileOf(center, w.Map.TileSize), true)
	if !dir.IsZero() {
		return dir, true
	}
	straight := center.Sub(from)
	if straight.IsZero() {
		return fixedmath.Vec2{}, false
	}
	return straight.Normalized(), true
}

// FindNearestZombie implements sim.ZombieFinder.
func (w *World) FindNearestZombie(from fixedmath.Vec2, maxRangeSq fixedmath.Fixed64) (ecs.Handle, fixedmath.Vec2, bool) {
	var best ecs.Handle
	var bestPos fixedmath.Vec2
	bestDistSq := maxRangeSq
	found := false
	w.Zombies.ForEachSlot(func(slot int32, row *sim.ZombieRow) bool {
		if row.Flags.Dead() {
			return true
		}
		d := fixedmath.Vec2DistanceSquared(from, row.Position)
		if d <= bestDistSq {
			bestDistSq = d
			best = w.Zombies.GetHandle(slot)
			bestPos = row.Position
			found = true
		}
		return true
	})
	return best, bestPos, found
}

// ZombiePosition implements sim.ZombieFinder / the zombie-position half of
// projectile impact checks.
func (w *World) ZombiePosition(h ecs.Handle) (fixedmath.Vec2, bool) {
	row, ok := w.Zombies.TryGetByHandle(h)
	if !ok || row.Flags.Dead() {
		return fixedmath.Vec2{}, false
	}
	return row.Position, true
}

// DamageZombie implements sim.ZombieFinder: applies damage and records the
// source as the zombie's aggro handle.
func (w *World) DamageZombie(h ecs.Handle, amount fixedmath.Fixed64, source ecs.Handle) {
	row, ok := w.Zombies.TryGetByHandle(h)
	if !ok || row.Flags.Dead() {
		return
	}
	row.Health = row.Health.Sub(amount)
	if source.IsValid() {
		row.Aggro = source
	}
}

// DamageTarget applies zombie melee damage to
// either a building or a combat unit, subtracting armor with the same
// minimum-1-damage floor projectile impacts use.
func (w *World) DamageTarget(kind sim.ZombieTargetKind, target ecs.Handle, amount fixedmath.Fixed64, source ecs.Handle) {
	minDamage := fixedmath.FromInt(1)
	switch kind {
	case sim.TargetKindBuilding:
		row, ok := w.Buildings.TryGetByHandle(target)
		if !ok || row.Flags.Dead() {
			return
		}
		row.Health = row.Health.Sub(fixedmath.Max(amount.Sub(row.Armor), minDamage))
	case sim.TargetKindUnit:
		row, ok := w.CombatUnits.TryGetByHandle(target)
		if !ok || row.Flags.Dead() {
			return
		}
		row.Health = row.Health.Sub(fixedmath.Max(amount.Sub(row.Armor), minDamage))
		if source.IsValid() {
			row.AggroSource = source
		}
	}
}

// ArmorOf resolves a projectile target's armor for single-target damage
// resolution. Zombies carry no armor stat in this design (content/balance
// non-goal trims per-type resistances); armor only applies to buildings and
// units being attacked, which zombies don't shoot projectiles at, so this
// always returns zero.
func (w *World) ArmorOf(ecs.Handle) fixedmath.Fixed64 { return fixedmath.Fixed64(0) }

// ThreatAt implements sim.ThreatLookup.
func (w *World) ThreatAt(pos fixedmath.Vec2) fixedmath.Fixed64 { return w.Threat.ThreatAt(pos) }
