package sim

import (
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

// CombatTuning is the subset of config.CombatConfig the combat systems need.
type CombatTuning struct {
	HitRadius       fixedmath.Fixed64
	LifetimeFrames  int32
	ProjectileSpeed fixedmath.Fixed64
	AttackCooldown  fixedmath.Fixed64
}

// ZombieFinder resolves the nearest live zombie in range of a combat unit,
// implemented by the World layer against its own spatial index.
type ZombieFinder interface {
	FindNearestZombie(from fixedmath.Vec2, maxRangeSq fixedmath.Fixed64) (target ecs.Handle, pos fixedmath.Vec2, ok bool)
	ZombiePosition(h ecs.Handle) (fixedmath.Vec2, bool)
	DamageZombie(h ecs.Handle, amount fixedmath.Fixed64, source ecs.Handle)
}

// CombatUnitTargetAcquisition is "combat_unit_target_acquisition": units always re-evaluate the closest zombie in range every tick,
// never sticking to a stale target once it's out of range.
func CombatUnitTargetAcquisition(tbl *ecs.Table[CombatUnitRow], finder ZombieFinder) {
	tbl.ForEachSlot(func(slot int32, row *CombatUnitRow) bool {
		if row.Flags.Dead() {
			return true
		}
		rangeSq := row.AttackRange.Mul(row.AttackRange)
		target, _, ok := finder.FindNearestZombie(row.Position, rangeSq)
		if !ok {
			row.TargetUnit = ecs.Invalid
			return true
		}
		row.TargetUnit = target
		return true
	})
}

// CombatUnitCombat is "combat_unit_combat": fire a Projectile at
// the acquired target once the attack cooldown has elapsed.
func CombatUnitCombat(units *ecs.Table[CombatUnitRow], projectiles *ecs.Table[ProjectileRow], finder ZombieFinder, tuning CombatTuning, dt fixedmath.Fixed64) {
	units.ForEachSlot(func(slot int32, row *CombatUnitRow) bool {
		if row.Flags.Dead() || !row.TargetUnit.IsValid() {
			return true
		}
		if row.AttackCooldownTimer.Raw() > 0 {
			row.AttackCooldownTimer = row.AttackCooldownTimer.Sub(dt)
			return true
		}
		targetPos, ok := finder.ZombiePosition(row.TargetUnit)
		if !ok {
			row.TargetUnit = ecs.Invalid
			return true
		}

		dir := targetPos.Sub(row.Position)
		if !dir.IsZero() {
			dir = dir.Normalized()
		}

		unitHandle := units.GetHandle(slot)
		_, projRow, err := projectiles.Allocate()
		if err != nil {
			return true // capacity exceeded: drop this shot, non-fatal
		}
		*projRow = ProjectileRow{
			Position:       row.Position,
			Velocity:       dir.Scale(tuning.ProjectileSpeed),
			Source:         unitHandle,
			Target:         row.TargetUnit,
			Damage:         row.Damage,
			MaxRange:       row.AttackRange.Mul(fixedmath.FromInt(4)),
			LifetimeFrames: tuning.LifetimeFrames,
			Flags:          ProjActive,
		}

		row.AttackCooldownTimer = tuning.AttackCooldown
		return true
	})
}

// ZombieCombat is "zombie_combat": when a zombie's Attack state_timer reaches exactly 1, it
// deals damage to its current target.
func ZombieCombat(tbl *ecs.Table[ZombieRow], resolveDamage func(kind ZombieTargetKind, target ecs.Handle, amount fixedmath.Fixed64, source ecs.Handle)) {
	tbl.ForEachSlot(func(slot int32, row *ZombieRow) bool {
		if row.Flags.Dead() || row.State != ZombieAttack || row.StateTimer != fixedmath.FromInt(1) {
			return true
		}
		if !row.Target.IsValid() {
			return true
		}
		resolveDamage(row.TargetKind, row.Target, row.Damage, ecs.Invalid)
		return true
	})
}

// ProjectileSystem is "projectile": homing blend, move,
// lifetime/range expiry and impact resolution (splash or single-target,
// minimum 1 damage, aggro recording).
func ProjectileSystem(tbl *ecs.Table[ProjectileRow], finder ZombieFinder, armorOf func(ecs.Handle) fixedmath.Fixed64, tuning CombatTuning, dt fixedmath.Fixed64) {
	tbl.ForEachSlotBackward(func(slot int32, row *ProjectileRow) {
		if row.Flags&ProjActive == 0 {
			return
		}

		targetPos, hasTarget := finder.ZombiePosition(row.Target)

		if row.Flags&ProjHoming != 0 && hasTarget {
			row.Velocity = homingBlend(row.Velocity, targetPos.Sub(row.Position), row.HomingStrength)
		}

		step := row.Velocity.Scale(dt)
		row.Position = row.Position.Add(step)
		row.DistanceTraveled = row.DistanceTraveled.Add(step.Length())
		row.LifetimeFrames--

		if row.LifetimeFrames <= 0 || row.DistanceTraveled.Raw() >= row.MaxRange.Raw() {
			tbl.FreeBySlot(slot)
			return
		}
		if !hasTarget {
			tbl.FreeBySlot(slot)
			return
		}
		if fixedmath.Vec2Distance(row.Position, targetPos) > tuning.HitRadius {
			return
		}

		applyProjectileDamage(*row, finder, armorOf)
		tbl.FreeBySlot(slot)
	})
}

// homingBlend steers the current velocity's direction toward toTarget by
// homingStrength (0 = no homing, 1 = instant snap), preserving speed.
func homingBlend(velocity, toTarget fixedmath.Vec2, homingStrength fixedmath.Fixed64) fixedmath.Vec2 {
	if toTarget.IsZero() {
		return velocity
	}
	toTarget = toTarget.Normalized()
	speed := velocity.Length()
	currentDir := toTarget
	if !velocity.IsZero() {
		currentDir = velocity.Normalized()
	}
	blended := fixedmath.Vec2Lerp(currentDir, toTarget, homingStrength)
	if blended.IsZero() {
		blended = toTarget
	} else {
		blended = blended.Normalized()
	}
	return blended.Scale(speed)
}

// applyProjectileDamage resolves impact damage on the projectile's target
// only. A projectile with a splash radius deals its full damage (minimum 1)
// to that target with no armor reduction and no distance falloff; other
// zombies inside the radius are not damaged. A single-target projectile
// deals damage minus the target's armor (minimum 1). Aggro is recorded on
// the victim so zombie target acquisition can prioritize whoever last hit it.
func applyProjectileDamage(p ProjectileRow, finder ZombieFinder, armorOf func(ecs.Handle) fixedmath.Fixed64) {
	minDamage := fixedmath.FromInt(1)
	var dmg fixedmath.Fixed64
	if p.SplashRadius.Raw() > 0 {
		dmg = fixedmath.Max(p.Damage, minDamage)
	} else {
		armor := armorOf(p.Target)
		dmg = fixedmath.Max(p.Damage.Sub(armor), minDamage)
	}
	finder.DamageZombie(p.Target, dmg, p.Source)
}
