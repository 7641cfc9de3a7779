package world

import (
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/sim"
)

// This file holds the grid-service-facing systems that are simple enough not to warrant their own sim/ package: they
// are a handful of lines each, driven directly off World's grids and tables.
// Grounded on engine tick pass that rebuilds its spatial grid
// and particle/effect buffers from scratch every frame.

// ResetZombieVelocities implements "velocity_reset":
// zombies in Idle/Attack never get a velocity write from zombie_movement, so
// clearing first guarantees a stale velocity from a state change mid-flight
// never lingers.
func (w *World) ResetZombieVelocities() {
	w.Zombies.ForEachSlot(func(slot int32, row *sim.ZombieRow) bool {
		row.Velocity = fixedmath.Vec2{}
		return true
	})
}

// DecayNoiseAndThreat implements "noise_decay"/"threat_grid_decay": the caller's interval/offset filter already restricts
// this to every other frame; dt here is the system's own 2-frame interval in
// seconds, not the per-tick delta.
func (w *World) DecayNoiseAndThreat(noiseDecayPerSecond, threatDecayPerSecond, peakDecayPerSecond, dt fixedmath.Fixed64) {
	w.Noise.Decay(noiseDecayPerSecond, dt)
	w.Threat.Decay(threatDecayPerSecond, peakDecayPerSecond, dt)
}

// UpdateThreatGrid implements "threat_grid_update": every
// live combat unit and building writes its threat_level into the ThreatGrid
// (set-max), then the noise field spills over into threat.
func (w *World) UpdateThreatGrid(noiseSpilloverMultiplier fixedmath.Fixed64) {
	w.CombatUnits.ForEachSlot(func(slot int32, row *sim.CombatUnitRow) bool {
		if row.Flags.Dead() || row.ThreatLevel.Raw() == 0 {
			return true
		}
		w.Threat.AddSource(row.Position, row.ThreatLevel)
		return true
	})
	w.Buildings.ForEachSlot(func(slot int32, row *sim.BuildingRow) bool {
		if row.Flags.Dead() || row.ThreatLevel.Raw() == 0 {
			return true
		}
		w.Threat.AddSource(row.CenterWorld(w.Map.TileSize), row.ThreatLevel)
		return true
	})
	w.Threat.SpillNoise(w.Noise, noiseSpilloverMultiplier)
}

// UpdateNoiseGrid writes every live combat unit's and building's noise_level
// into the NoiseGrid.
func (w *World) UpdateNoiseGrid() {
	w.CombatUnits.ForEachSlot(func(slot int32, row *sim.CombatUnitRow) bool {
		if row.Flags.Dead() || row.NoiseLevel.Raw() == 0 {
			return true
		}
		w.Noise.AddSource(row.Position, row.NoiseLevel)
		return true
	})
	w.Buildings.ForEachSlot(func(slot int32, row *sim.BuildingRow) bool {
		if row.Flags.Dead() || row.NoiseLevel.Raw() == 0 {
			return true
		}
		w.Noise.AddSource(row.CenterWorld(w.Map.TileSize), row.NoiseLevel)
		return true
	})
}

// RunSeparation implements "separation": rebuild
// the density grid from live zombies, blur it, then apply each zombie's
// local gradient (density-gradient crowd steering) to its velocity,
// EMA-smoothed and clamped by its own move speed.
func (w *World) RunSeparation(minDensity, forceScale, smoothingAlpha fixedmath.Fixed64, subcellSpread func(slot int32) fixedmath.Vec2) {
	w.Separation.Clear()
	w.Zombies.ForEachSlot(func(slot int32, row *sim.ZombieRow) bool {
		if row.Flags.Dead() {
			return true
		}
		w.Separation.Increment(row.Position)
		return true
	})
	w.Separation.Blur()

	w.Zombies.ForEachSlot(func(slot int32, row *sim.ZombieRow) bool {
		if row.Flags.Dead() {
			return true
		}
		density := w.Separation.DensityAt(row.Position)
		if fixedmath.FromInt(int(density)) <= minDensity {
			return true
		}
		gradient := w.Separation.Gradient(row.Position)
		force := gradient.Scale(forceScale).Add(subcellSpread(slot))
		smoothed := fixedmath.Vec2Lerp(row.SmoothedSeparation, force, smoothingAlpha)
		row.SmoothedSeparation = smoothed
		if row.MoveSpeed.Raw() > 0 {
			smoothed = smoothed.ClampLength(row.MoveSpeed)
		}
		row.Velocity = row.Velocity.Add(smoothed)
		return true
	})
}

// NoiseAttraction implements "noise_attraction_update": for each live
// zombie in the Wander state it finds the loudest noise cell within
// searchRadius and stores the direction toward it in the row's Flow field.
// zombie_movement's Wander case steers from the wander seed and frame and
// does not read Flow, so this does not change how a wandering zombie moves.
func (w *World) NoiseAttraction(searchRadius fixedmath.Fixed64) {
	w.Zombies.ForEachSlot(func(slot int32, row *sim.ZombieRow) bool {
		if row.Flags.Dead() || row.State != sim.ZombieWander {
			return true
		}
		_, _, _, dir, ok := w.Noise.FindHighestNoiseNearby(row.Position, searchRadius)
		if !ok {
			return true
		}
		row.Flow = dir
		return true
	})
}
