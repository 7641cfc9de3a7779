package sim

import (
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

// Mortal is the IMortal capability: the minimal column set the
// mortal_death system needs, implemented by CombatUnitRow, ZombieRow and
// (separately, with a longer delay) BuildingRow.
type Mortal interface {
	GetHealth() fixedmath.Fixed64
	IsDead() bool
	MarkDead(frame int64)
	GetDeathFrame() int64
}

// ForEachMortalBackward adapts one concrete table into the Mortal capability
// query, iterating backward so FreeBySlot-during-iteration is safe. This is
// the Go-idiomatic stand-in for the generic capability-query chunk
// API: instead of a reflective multi-table iterator, callers compose this
// once per mortal table, in ascending TableID order (see world.ForEachMortal).
func ForEachMortalBackward[R any](t *ecs.Table[R], fn func(slot int32, m Mortal)) {
	t.ForEachSlotBackward(func(slot int32, row *R) {
		if m, ok := any(row).(Mortal); ok {
			fn(slot, m)
		}
	})
}
