package sim

import (
	"testing"

	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

func TestCommandQueueEnqueueDequeue(t *testing.T) {
	q := NewCommandQueue()
	dest := fixedmath.NewVec2(fixedmath.FromInt(5), fixedmath.FromInt(6))
	q.Enqueue(MoveCommand{GroupID: 1, Destination: dest, IssuedFrame: 10})

	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	cmd, ok := q.Dequeue(1)
	if !ok || cmd.Destination != dest {
		t.Fatalf("Dequeue returned %+v ok=%v", cmd, ok)
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty after dequeue")
	}
	if _, ok := q.Dequeue(1); ok {
		t.Fatalf("dequeuing an already-drained group should report false")
	}
}

func TestCommandQueueEvictsOldestAtCapacity(t *testing.T) {
	q := NewCommandQueue()
	for i := uint32(0); i < MoveCommandQueueCapacity; i++ {
		q.Enqueue(MoveCommand{GroupID: i, IssuedFrame: int64(i)})
	}
	if q.Len() != MoveCommandQueueCapacity {
		t.Fatalf("Len() = %d, want %d", q.Len(), MoveCommandQueueCapacity)
	}
	// One more distinct group id should evict group 0, the oldest.
	q.Enqueue(MoveCommand{GroupID: MoveCommandQueueCapacity, IssuedFrame: 999})
	if _, ok := q.Dequeue(0); ok {
		t.Fatalf("group 0 should have been evicted as the oldest entry")
	}
	if _, ok := q.Dequeue(MoveCommandQueueCapacity); !ok {
		t.Fatalf("the newly-enqueued group should be present")
	}
}

func TestCommandQueueReplaceRefreshesRecencyNotEvicted(t *testing.T) {
	q := NewCommandQueue()
	for i := uint32(0); i < MoveCommandQueueCapacity; i++ {
		q.Enqueue(MoveCommand{GroupID: i, IssuedFrame: int64(i)})
	}
	// Re-enqueue group 0, refreshing it to most-recent so it is NOT the next
	// eviction candidate.
	q.Enqueue(MoveCommand{GroupID: 0, IssuedFrame: 1000})
	q.Enqueue(MoveCommand{GroupID: MoveCommandQueueCapacity, IssuedFrame: 1001})

	if _, ok := q.Dequeue(0); !ok {
		t.Fatalf("group 0 was refreshed and should have survived the eviction")
	}
	if _, ok := q.Dequeue(1); ok {
		t.Fatalf("group 1, now the oldest, should have been evicted instead")
	}
}

func TestCommandQueuePendingGroupIDsFIFOOrder(t *testing.T) {
	q := NewCommandQueue()
	q.Enqueue(MoveCommand{GroupID: 3})
	q.Enqueue(MoveCommand{GroupID: 1})
	q.Enqueue(MoveCommand{GroupID: 2})

	ids := q.PendingGroupIDs()
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 2 {
		t.Fatalf("PendingGroupIDs = %v, want FIFO [3 1 2]", ids)
	}
}

func TestApplyMoveCommandsStampsMatchingGroupOnly(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 4}, nil)
	_, a, err := tbl.Allocate()
	if err != nil {
		t.Fatalf("allocate a: %v", err)
	}
	a.GroupID = 1
	_, b, err := tbl.Allocate()
	if err != nil {
		t.Fatalf("allocate b: %v", err)
	}
	b.GroupID = 2
	_, dead, err := tbl.Allocate()
	if err != nil {
		t.Fatalf("allocate dead: %v", err)
	}
	dead.GroupID = 1
	dead.Flags |= FlagDead

	dest := fixedmath.NewVec2(fixedmath.FromInt(7), fixedmath.FromInt(8))
	queue := NewCommandQueue()
	queue.Enqueue(MoveCommand{GroupID: 1, Destination: dest})

	ApplyMoveCommands(tbl, queue, queue.PendingGroupIDs())

	if a.Order != OrderMove || a.OrderTarget != dest {
		t.Fatalf("group 1 live unit should have been stamped: %+v", a)
	}
	if b.Order == OrderMove {
		t.Fatalf("group 2 unit must not be affected by a group 1 command")
	}
	if dead.Order == OrderMove {
		t.Fatalf("dead unit must not be stamped even if its group matches")
	}
}
