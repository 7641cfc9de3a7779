package sim

import (
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

// UnitFlowProvider is the pathing surface combat_unit_movement needs: a
// single-destination flow toward the unit's current order target, with
// building occupancy respected (units, unlike zombies, don't path through
// buildings).
type UnitFlowProvider interface {
	FlowToDestination(from, dest fixedmath.Vec2) (fixedmath.Vec2, bool)
}

// arrivalRadius is how close a unit must get to its order target before it
// is considered arrived and stops steering (prevents jitter orbiting a point
// flow fields can't resolve sub-cell).
var arrivalRadius = fixedmath.FromInt(8)

// CombatUnitMovement is "combat_unit_movement": steer
// toward the order target. It writes PreferredVelocity rather than Velocity
// directly — rvo (step 8, earlier in the same tick's order) reads last
// tick's PreferredVelocity and owns the final Velocity write; see the
// PreferredVelocity field comment in this package's rows.go.
func CombatUnitMovement(tbl *ecs.Table[CombatUnitRow], flow UnitFlowProvider) {
	tbl.ForEachSlot(func(slot int32, row *CombatUnitRow) bool {
		if row.Flags.Dead() {
			return true
		}
		switch row.Order {
		case OrderHold:
			row.PreferredVelocity = fixedmath.Vec2{}
		case OrderMove, OrderAttackMove:
			if fixedmath.Vec2Distance(row.Position, row.OrderTarget) <= arrivalRadius {
				row.Order = OrderHold
				row.PreferredVelocity = fixedmath.Vec2{}
				return true
			}
			dir, ok := flow.FlowToDestination(row.Position, row.OrderTarget)
			if !ok {
				straight := row.OrderTarget.Sub(row.Position)
				if straight.IsZero() {
					row.PreferredVelocity = fixedmath.Vec2{}
					return true
				}
				dir = straight.Normalized()
			}
			row.PreferredVelocity = dir.Scale(row.MoveSpeed)
		default:
			row.PreferredVelocity = fixedmath.Vec2{}
		}
		return true
	})
}
