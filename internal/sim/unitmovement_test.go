package sim

import (
	"testing"

	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

type fakeUnitFlow struct {
	dir fixedmath.Vec2
	ok  bool
}

func (f fakeUnitFlow) FlowToDestination(from, dest fixedmath.Vec2) (fixedmath.Vec2, bool) {
	return f.dir, f.ok
}

func TestCombatUnitMovementHoldZeroesVelocity(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 1}, nil)
	_, row, _ := tbl.Allocate()
	row.Order = OrderHold
	row.PreferredVelocity = fixedmath.NewVec2(fixedmath.FromInt(1), fixedmath.FromInt(1))

	CombatUnitMovement(tbl, fakeUnitFlow{})
	if !row.PreferredVelocity.IsZero() {
		t.Fatalf("OrderHold should zero PreferredVelocity, got %+v", row.PreferredVelocity)
	}
}

func TestCombatUnitMovementArrivesWithinRadius(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 1}, nil)
	_, row, _ := tbl.Allocate()
	row.Order = OrderMove
	row.Position = fixedmath.Vec2{}
	row.OrderTarget = fixedmath.NewVec2(fixedmath.FromInt(1), 0) // within arrivalRadius(8)
	row.MoveSpeed = fixedmath.FromInt(10)

	CombatUnitMovement(tbl, fakeUnitFlow{})
	if row.Order != OrderHold {
		t.Fatalf("unit within arrival radius should switch to OrderHold, got %v", row.Order)
	}
	if !row.PreferredVelocity.IsZero() {
		t.Fatalf("arrived unit should have zero PreferredVelocity, got %+v", row.PreferredVelocity)
	}
}

func TestCombatUnitMovementUsesFlowWhenAvailable(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 1}, nil)
	_, row, _ := tbl.Allocate()
	row.Order = OrderMove
	row.Position = fixedmath.Vec2{}
	row.OrderTarget = fixedmath.NewVec2(fixedmath.FromInt(1000), 0)
	row.MoveSpeed = fixedmath.FromInt(20)

	flowDir := fixedmath.NewVec2(0, fixedmath.FromInt(1)) // deliberately not toward the straight-line direction
	CombatUnitMovement(tbl, fakeUnitFlow{dir: flowDir, ok: true})

	want := flowDir.Scale(row.MoveSpeed)
	if row.PreferredVelocity != want {
		t.Fatalf("PreferredVelocity = %+v, want flow-steered %+v", row.PreferredVelocity, want)
	}
}

func TestCombatUnitMovementFallsBackToStraightLineWithoutFlow(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 1}, nil)
	_, row, _ := tbl.Allocate()
	row.Order = OrderAttackMove
	row.Position = fixedmath.Vec2{}
	row.OrderTarget = fixedmath.NewVec2(fixedmath.FromInt(1000), 0)
	row.MoveSpeed = fixedmath.FromInt(20)

	CombatUnitMovement(tbl, fakeUnitFlow{ok: false})

	want := fixedmath.NewVec2(fixedmath.FromInt(20), 0) // straight toward +X, scaled by MoveSpeed
	if row.PreferredVelocity != want {
		t.Fatalf("PreferredVelocity = %+v, want straight-line fallback %+v", row.PreferredVelocity, want)
	}
}

func TestCombatUnitMovementDeadUnitSkipped(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 1}, nil)
	_, row, _ := tbl.Allocate()
	row.Flags |= FlagDead
	row.Order = OrderMove
	row.PreferredVelocity = fixedmath.NewVec2(fixedmath.FromInt(5), fixedmath.FromInt(5))

	CombatUnitMovement(tbl, fakeUnitFlow{})
	if row.PreferredVelocity.IsZero() {
		t.Fatalf("dead units must not be touched by the movement system")
	}
}
