package scheduler

import (
	"fight-club-sim/internal/config"
	"fight-club-sim/internal/detrand"
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/rvo"
	"fight-club-sim/internal/sim"
	"fight-club-sim/internal/world"
)

// Default wires the full system order against w, using cfg for
// every tunable. This is the single place that assembles the 20-step
// pipeline; individual steps live in internal/sim, internal/rvo and
// World's own grid/spawn helpers. Production callers (cmd/server) should
// use this; tests construct a trimmed Scheduler directly via New.
func Default(w *world.World, cfg config.AppConfig) *Scheduler {
	solver := rvo.New(cfg.RVO)

	noiseDecayPerSecond := fixedmath.FromFloat(cfg.Grid.NoiseDecayPerSecond)
	threatDecayPerSecond := fixedmath.FromFloat(cfg.Grid.ThreatDecayPerSecond)
	peakDecayPerSecond := fixedmath.FromFloat(cfg.Grid.PeakDecayPerSecond)
	noiseSpillover := fixedmath.FromFloat(cfg.Grid.NoiseSpilloverMultiplier)
	minDensity := fixedmath.FromFloat(cfg.Grid.SeparationMinDensity)
	sepForceScale := fixedmath.FromFloat(cfg.Grid.SeparationForceScale)
	sepSmoothingAlpha := fixedmath.FromFloat(cfg.Grid.SeparationSmoothingAlpha)

	zombieTuning := sim.ZombieAITuning{
		ChaseThreshold:         fixedmath.FromFloat(cfg.Grid.ChaseThreshold),
		LoseInterestThreshold:  fixedmath.FromFloat(cfg.Grid.LoseInterestThreshold),
		IdleTimerMinFrames:     cfg.ZombieAI.IdleTimerMinFrames,
		IdleTimerMaxFrames:     cfg.ZombieAI.IdleTimerMaxFrames,
		WanderTimerMinFrames:   cfg.ZombieAI.WanderTimerMinFrames,
		WanderTimerMaxFrames:   cfg.ZombieAI.WanderTimerMaxFrames,
		AttackCooldownFrames:   int32(cfg.ZombieAI.AttackCooldownSeconds * float64(cfg.Sim.TickRateHz)),
		TargetAcquisitionRange: fixedmath.FromFloat(cfg.ZombieAI.TargetAcquisitionRange),
		TickRateHz:             cfg.Sim.TickRateHz,
	}
	combatTuning := sim.CombatTuning{
		HitRadius:       fixedmath.FromFloat(cfg.Combat.ProjectileHitRadius),
		LifetimeFrames:  cfg.Combat.ProjectileLifetimeFrames,
		ProjectileSpeed: fixedmath.FromFloat(cfg.Combat.ProjectileSpeed),
		AttackCooldown:  fixedmath.FromFloat(cfg.ZombieAI.AttackCooldownSeconds), // combat units share the ambient cooldown constant; per-type rates are a content/balance Non-goal
	}

	tileSize := w.Map.TileSize

	systems := []System{
		{Name: "apply_scheduled_game_data_reload", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			// Dev-only hot-reload hook; no-op in production builds.
		}},
		{Name: "velocity_reset", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			w.ResetZombieVelocities()
		}},
		{Name: "flow_field_invalidation", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			w.Pathing.FlushPendingInvalidations()
		}},
		{Name: "noise_decay", Interval: 2, Offset: 0, Fn: func(w *world.World, ctx SimulationContext) {
			dt := fixedmath.FromFloat(ctx.DeltaSeconds)
			w.DecayNoiseAndThreat(noiseDecayPerSecond, 0, 0, dt)
		}},
		{Name: "threat_grid_decay", Interval: 2, Offset: 1, Fn: func(w *world.World, ctx SimulationContext) {
			dt := fixedmath.FromFloat(ctx.DeltaSeconds)
			w.DecayNoiseAndThreat(0, threatDecayPerSecond, peakDecayPerSecond, dt)
		}},
		{Name: "threat_grid_update", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			w.UpdateNoiseGrid()
			w.UpdateThreatGrid(noiseSpillover)
		}},
		{Name: "zombie_state_transition", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.ZombieStateTransition(w.Zombies, ctx.CurrentFrame, ctx.SessionSeed, w, w, zombieTuning)
		}},
		{Name: "separation", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			w.RunSeparation(minDensity, sepForceScale, sepSmoothingAlpha, func(slot int32) fixedmath.Vec2 {
				angle := fixedmath.FromFloat(detrand.Float01(ctx.SessionSeed, int32(ctx.CurrentFrame), slot, detrand.SaltSeparationSpread) * 360)
				return fixedmath.NewVec2(fixedmath.Cos(angle), fixedmath.Sin(angle))
			})
		}},
		{Name: "rvo", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			rvo.Run(w, solver)
		}},
		{Name: "noise_attraction_update", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			w.NoiseAttraction(tileSize.Mul(fixedmath.FromInt(10)))
		}},
		{Name: "zombie_movement", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.ZombieMovement(w.Zombies, ctx.CurrentFrame, cfg.Sim.TickRateHz, w)
		}},
		{Name: "move_command", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.ApplyMoveCommands(w.CombatUnits, w.Commands, w.Commands.PendingGroupIDs())
		}},
		{Name: "combat_unit_target_acquisition", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.CombatUnitTargetAcquisition(w.CombatUnits, w)
		}},
		{Name: "combat_unit_movement", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.CombatUnitMovement(w.CombatUnits, w)
		}},
		{Name: "combat_unit_combat", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.CombatUnitCombat(w.CombatUnits, w.Projectiles, w, combatTuning, fixedmath.FromFloat(ctx.DeltaSeconds))
		}},
		{Name: "zombie_combat", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.ZombieCombat(w.Zombies, w.DamageTarget)
		}},
		{Name: "projectile", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.ProjectileSystem(w.Projectiles, w, w.ArmorOf, combatTuning, fixedmath.FromFloat(ctx.DeltaSeconds))
		}},
		{Name: "moveable_apply_movement", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			dt := fixedmath.FromFloat(ctx.DeltaSeconds)
			sim.ApplyMovementCombatUnits(w.CombatUnits, w, tileSize, dt)
			sim.ApplyMovementZombies(w.Zombies, w, tileSize, dt)
		}},
		{Name: "mortal_death", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.CombatUnitDeathPass(w.CombatUnits, ctx.CurrentFrame, cfg.Sim.DeathDelayUnitFrames, func() { w.Stats.UnitsLost++ })
			sim.ZombieDeathPass(w.Zombies, ctx.CurrentFrame, cfg.Sim.DeathDelayUnitFrames, func() { w.Stats.ZombieKills++ })
		}},
		{Name: "building_death", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			sim.BuildingDeathPass(w.Buildings, ctx.CurrentFrame, cfg.Sim.DeathDelayBuildingFrames, tileSize,
				func() { w.Stats.BuildingsLost++ }, w.ReclaimBuildingFootprint)
		}},
		{Name: "wave_management", Interval: 1, Fn: func(w *world.World, ctx SimulationContext) {
			w.AdvanceWave(ctx.CurrentFrame, int64(cfg.Sim.TickRateHz)*60, 10)
		}},
	}

	s := New(cfg.Sim.TickRateHz, 0, systems)
	return s
}
