package rvo

import (
	"testing"

	"fight-club-sim/internal/config"
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/sim"
	"fight-club-sim/internal/world"
)

func testWorld(t *testing.T) *world.World {
	t.Helper()
	cfg := config.AppConfig{
		Map: config.DefaultMap(), Sim: config.DefaultSim(), Grid: config.DefaultGrid(),
		RVO: config.DefaultRVO(), ZombieAI: config.DefaultZombieAI(), Combat: config.DefaultCombat(),
		Rollback: config.DefaultRollback(), Server: config.DefaultServer(),
	}
	return world.New(cfg)
}

func TestRunNoopOnEmptyWorld(t *testing.T) {
	w := testWorld(t)
	s := New(config.DefaultRVO())
	Run(w, s) // must not panic with zero live units
}

func TestOverlappingUnitsPushApart(t *testing.T) {
	w := testWorld(t)
	s := New(config.DefaultRVO())

	_, a, err := w.CombatUnits.Allocate()
	if err != nil {
		t.Fatalf("allocate a: %v", err)
	}
	_, b, err := w.CombatUnits.Allocate()
	if err != nil {
		t.Fatalf("allocate b: %v", err)
	}

	// Spawn exactly on top of each other: the degenerate-overlap case must
	// resolve to a deterministic axis from slot order, not a zero push.
	a.Position = fixedmath.Vec2{}
	b.Position = fixedmath.Vec2{}
	a.MoveSpeed = fixedmath.FromInt(100)
	b.MoveSpeed = fixedmath.FromInt(100)

	Run(w, s)

	if a.Velocity == (fixedmath.Vec2{}) && b.Velocity == (fixedmath.Vec2{}) {
		t.Fatalf("exactly-overlapping units should receive a nonzero separating push")
	}
	// The two units must push in opposite directions along X given the
	// slot-order tie-break.
	if a.Velocity.X.Raw() == 0 || b.Velocity.X.Raw() == 0 {
		t.Fatalf("expected nonzero X separation, got a=%+v b=%+v", a.Velocity, b.Velocity)
	}
	if (a.Velocity.X.Raw() > 0) == (b.Velocity.X.Raw() > 0) {
		t.Fatalf("overlapping units should separate in opposite directions, got a=%+v b=%+v", a.Velocity, b.Velocity)
	}
}

func TestDeadUnitsSkippedAndIgnoredAsNeighbors(t *testing.T) {
	w := testWorld(t)
	s := New(config.DefaultRVO())

	_, a, err := w.CombatUnits.Allocate()
	if err != nil {
		t.Fatalf("allocate a: %v", err)
	}
	_, b, err := w.CombatUnits.Allocate()
	if err != nil {
		t.Fatalf("allocate b: %v", err)
	}
	a.Position = fixedmath.Vec2{}
	b.Position = fixedmath.Vec2{}
	b.Flags |= sim.FlagDead

	before := a.Velocity
	Run(w, s)
	if a.Velocity != before {
		t.Fatalf("a dead neighbor must not influence the live unit's velocity, got %+v", a.Velocity)
	}
}

func TestFarApartUnitsDoNotInteract(t *testing.T) {
	w := testWorld(t)
	s := New(config.DefaultRVO())

	_, a, err := w.CombatUnits.Allocate()
	if err != nil {
		t.Fatalf("allocate a: %v", err)
	}
	_, b, err := w.CombatUnits.Allocate()
	if err != nil {
		t.Fatalf("allocate b: %v", err)
	}
	a.Position = fixedmath.Vec2{}
	b.Position = fixedmath.NewVec2(fixedmath.FromInt(100000), fixedmath.FromInt(100000))
	a.PreferredVelocity = fixedmath.NewVec2(fixedmath.FromInt(10), 0)
	a.MoveSpeed = fixedmath.FromInt(100)

	Run(w, s)

	if a.Velocity != a.PreferredVelocity {
		t.Fatalf("with no neighbors in range, velocity should track preferred velocity exactly, got %+v want %+v", a.Velocity, a.PreferredVelocity)
	}
}
