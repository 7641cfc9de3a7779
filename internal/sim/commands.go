package sim

import "fight-club-sim/internal/ecs"

// ApplyMoveCommands is "move_command": dequeue every
// pending player move order and stamp the matching group's units with a new
// order target. Grounded on the CommandQueue's own LRU-evict discipline
// (singletons.go) — this system only drains what's already been enqueued by
// the transport layer this tick.
func ApplyMoveCommands(tbl *ecs.Table[CombatUnitRow], queue *CommandQueue, groupIDs []uint32) {
	for _, groupID := range groupIDs {
		cmd, ok := queue.Dequeue(groupID)
		if !ok {
			continue
		}
		tbl.ForEachSlot(func(slot int32, row *CombatUnitRow) bool {
			if row.Flags.Dead() || row.GroupID != cmd.GroupID {
				return true
			}
			row.Order = OrderMove
			row.OrderTarget = cmd.Destination
			return true
		})
	}
}

// PendingGroupIDs returns a snapshot of every GroupID currently queued, in
// FIFO (oldest-first) order, for ApplyMoveCommands to drain deterministically.
func (q *CommandQueue) PendingGroupIDs() []uint32 {
	out := make([]uint32, len(q.order))
	copy(out, q.order)
	return out
}
