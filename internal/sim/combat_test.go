package sim

import (
	"testing"

	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

type fakeFinder struct {
	nearest    ecs.Handle
	nearestPos fixedmath.Vec2
	hasNearest bool

	positions map[ecs.Handle]fixedmath.Vec2

	damaged []struct {
		target ecs.Handle
		amount fixedmath.Fixed64
		source ecs.Handle
	}
}

func (f *fakeFinder) FindNearestZombie(from fixedmath.Vec2, maxRangeSq fixedmath.Fixed64) (ecs.Handle, fixedmath.Vec2, bool) {
	return f.nearest, f.nearestPos, f.hasNearest
}

func (f *fakeFinder) ZombiePosition(h ecs.Handle) (fixedmath.Vec2, bool) {
	pos, ok := f.positions[h]
	return pos, ok
}

func (f *fakeFinder) DamageZombie(h ecs.Handle, amount fixedmath.Fixed64, source ecs.Handle) {
	f.damaged = append(f.damaged, struct {
		target ecs.Handle
		amount fixedmath.Fixed64
		source ecs.Handle
	}{h, amount, source})
}

func TestCombatUnitTargetAcquisitionTracksNearest(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 2}, nil)
	_, row, _ := tbl.Allocate()
	row.AttackRange = fixedmath.FromInt(50)

	zombieHandle := ecs.Handle{RawID: 1, Generation: 1}
	finder := &fakeFinder{nearest: zombieHandle, hasNearest: true}

	CombatUnitTargetAcquisition(tbl, finder)
	if row.TargetUnit != zombieHandle {
		t.Fatalf("TargetUnit = %+v, want %+v", row.TargetUnit, zombieHandle)
	}

	finder.hasNearest = false
	CombatUnitTargetAcquisition(tbl, finder)
	if row.TargetUnit.IsValid() {
		t.Fatalf("TargetUnit should be cleared once no zombie is in range, got %+v", row.TargetUnit)
	}
}

func TestCombatUnitCombatFiresAndRespectsCooldown(t *testing.T) {
	units := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 2}, nil)
	projectiles := ecs.NewTable[ProjectileRow](1, ecs.TableConfig{Capacity: 4}, nil)

	zombieHandle := ecs.Handle{RawID: 1, Generation: 1}
	_, row, _ := units.Allocate()
	row.TargetUnit = zombieHandle
	row.Position = fixedmath.Vec2{}
	row.Damage = fixedmath.FromInt(10)
	row.AttackRange = fixedmath.FromInt(100)

	finder := &fakeFinder{positions: map[ecs.Handle]fixedmath.Vec2{
		zombieHandle: fixedmath.NewVec2(fixedmath.FromInt(10), 0),
	}}
	tuning := CombatTuning{ProjectileSpeed: fixedmath.FromInt(5), LifetimeFrames: 30, AttackCooldown: fixedmath.FromInt(2)}

	CombatUnitCombat(units, projectiles, finder, tuning, fixedmath.FromFloat(1))
	if projectiles.Count() != 1 {
		t.Fatalf("expected one projectile fired, got %d", projectiles.Count())
	}
	if row.AttackCooldownTimer != tuning.AttackCooldown {
		t.Fatalf("AttackCooldownTimer = %+v, want %+v", row.AttackCooldownTimer, tuning.AttackCooldown)
	}

	// Second call while on cooldown must not fire again, just tick the timer.
	CombatUnitCombat(units, projectiles, finder, tuning, fixedmath.FromFloat(1))
	if projectiles.Count() != 1 {
		t.Fatalf("unit on cooldown should not fire a second projectile, got count=%d", projectiles.Count())
	}
}

func TestZombieCombatFiresExactlyAtStateTimerOne(t *testing.T) {
	tbl := ecs.NewTable[ZombieRow](0, ecs.TableConfig{Capacity: 1}, nil)
	_, row, _ := tbl.Allocate()
	row.State = ZombieAttack
	row.Target = ecs.Handle{RawID: 1, Generation: 1}
	row.TargetKind = TargetKindUnit
	row.Damage = fixedmath.FromInt(5)

	var resolved bool
	resolve := func(kind ZombieTargetKind, target ecs.Handle, amount fixedmath.Fixed64, source ecs.Handle) {
		resolved = true
	}

	row.StateTimer = fixedmath.FromInt(2)
	ZombieCombat(tbl, resolve)
	if resolved {
		t.Fatalf("StateTimer != 1 must not deal damage")
	}

	row.StateTimer = fixedmath.FromInt(1)
	ZombieCombat(tbl, resolve)
	if !resolved {
		t.Fatalf("StateTimer == 1 in Attack state should deal damage")
	}
}

func TestProjectileSystemExpiresOnLifetimeAndRange(t *testing.T) {
	tbl := ecs.NewTable[ProjectileRow](0, ecs.TableConfig{Capacity: 2}, nil)
	finder := &fakeFinder{positions: map[ecs.Handle]fixedmath.Vec2{}}
	armorOf := func(ecs.Handle) fixedmath.Fixed64 { return fixedmath.Fixed64(0) }
	tuning := CombatTuning{HitRadius: fixedmath.FromInt(5)}

	_, row, _ := tbl.Allocate()
	row.Flags = ProjActive
	row.LifetimeFrames = 1
	row.MaxRange = fixedmath.FromInt(1000)
	row.Target = ecs.Handle{RawID: 1, Generation: 1}

	ProjectileSystem(tbl, finder, armorOf, tuning, fixedmath.FromFloat(1))
	if tbl.Count() != 0 {
		t.Fatalf("projectile should expire once LifetimeFrames reaches 0, count=%d", tbl.Count())
	}
}

func TestProjectileSystemAppliesDamageOnImpact(t *testing.T) {
	tbl := ecs.NewTable[ProjectileRow](0, ecs.TableConfig{Capacity: 2}, nil)
	targetHandle := ecs.Handle{RawID: 1, Generation: 1}
	finder := &fakeFinder{positions: map[ecs.Handle]fixedmath.Vec2{targetHandle: fixedmath.Vec2{}}}
	armorOf := func(ecs.Handle) fixedmath.Fixed64 { return fixedmath.FromInt(2) }
	tuning := CombatTuning{HitRadius: fixedmath.FromInt(5)}

	_, row, _ := tbl.Allocate()
	row.Flags = ProjActive
	row.Position = fixedmath.Vec2{}
	row.Velocity = fixedmath.Vec2{}
	row.LifetimeFrames = 10
	row.MaxRange = fixedmath.FromInt(1000)
	row.Target = targetHandle
	row.Damage = fixedmath.FromInt(10)

	ProjectileSystem(tbl, finder, armorOf, tuning, fixedmath.FromFloat(1))
	if len(finder.damaged) != 1 {
		t.Fatalf("expected exactly one DamageZombie call, got %d", len(finder.damaged))
	}
	if finder.damaged[0].amount != fixedmath.FromInt(8) { // 10 damage - 2 armor
		t.Fatalf("damage = %+v, want 8", finder.damaged[0].amount)
	}
	if tbl.Count() != 0 {
		t.Fatalf("projectile should be freed after impact, count=%d", tbl.Count())
	}
}

func TestProjectileSystemFreesWhenTargetGone(t *testing.T) {
	tbl := ecs.NewTable[ProjectileRow](0, ecs.TableConfig{Capacity: 2}, nil)
	finder := &fakeFinder{positions: map[ecs.Handle]fixedmath.Vec2{}} // target not found
	armorOf := func(ecs.Handle) fixedmath.Fixed64 { return fixedmath.Fixed64(0) }
	tuning := CombatTuning{HitRadius: fixedmath.FromInt(5)}

	_, row, _ := tbl.Allocate()
	row.Flags = ProjActive
	row.LifetimeFrames = 10
	row.MaxRange = fixedmath.FromInt(1000)
	row.Target = ecs.Handle{RawID: 9, Generation: 1}

	ProjectileSystem(tbl, finder, armorOf, tuning, fixedmath.FromFloat(1))
	if tbl.Count() != 0 {
		t.Fatalf("projectile whose target has vanished should be freed, count=%d", tbl.Count())
	}
}
