package ecs

import (
	"testing"

	"fight-club-sim/internal/fixedmath"
)

type testRow struct {
	X, Y   fixedmath.Fixed64
	Health int
}

func newTestTable(capacity int) *Table[testRow] {
	return NewTable[testRow](1, TableConfig{
		Capacity:        capacity,
		SpatialCellSize: fixedmath.FromInt(64),
		WorldWidth:      fixedmath.FromInt(1024),
		WorldHeight:     fixedmath.FromInt(1024),
	}, func(r *testRow) fixedmath.Vec2 { return fixedmath.NewVec2(r.X, r.Y) })
}

func TestAllocateFreeBasic(t *testing.T) {
	tbl := newTestTable(4)
	h1, row1, err := tbl.Allocate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row1.Health = 10
	if tbl.Count() != 1 {
		t.Fatalf("count = %d, want 1", tbl.Count())
	}

	if err := tbl.Free(h1); err != nil {
		t.Fatalf("free failed: %v", err)
	}
	if tbl.Count() != 0 {
		t.Fatalf("count after free = %d, want 0", tbl.Count())
	}
	if slot := tbl.GetSlot(h1); slot != -1 {
		t.Fatalf("stale handle resolved to slot %d", slot)
	}
}

func TestFreeStaleHandleIsNoop(t *testing.T) {
	tbl := newTestTable(4)
	h1, _, _ := tbl.Allocate()
	_ = tbl.Free(h1)
	if err := tbl.Free(h1); err != ErrStaleHandle {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
	if tbl.Count() != 0 {
		t.Fatalf("double-free should not change count")
	}
}

func TestCapacityExceeded(t *testing.T) {
	tbl := newTestTable(2)
	_, _, err1 := tbl.Allocate()
	_, _, err2 := tbl.Allocate()
	_, _, err3 := tbl.Allocate()
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors allocating within capacity")
	}
	if err3 != ErrCapacityExceeded {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err3)
	}
	if tbl.SkippedSpawns() != 1 {
		t.Fatalf("skipped spawns = %d, want 1", tbl.SkippedSpawns())
	}
}

// TestSwapRemoveStability exercises the invariant that after any
// sequence of allocate/free, every live handle still resolves to a slot
// whose raw id matches the handle, and every stale handle fails to resolve.
func TestSwapRemoveStability(t *testing.T) {
	const n = 1000
	tbl := newTestTable(n)

	handles := make([]Handle, 0, n)
	for i := 0; i < n; i++ {
		h, row, err := tbl.Allocate()
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		row.Health = i
		handles = append(handles, h)
	}

	var deadHandles []Handle
	var liveHandles []Handle
	for i, h := range handles {
		if i%3 == 0 {
			if err := tbl.Free(h); err != nil {
				t.Fatalf("free %d: %v", i, err)
			}
			deadHandles = append(deadHandles, h)
		} else {
			liveHandles = append(liveHandles, h)
		}
	}

	wantLive := n - (n+2)/3
	if tbl.Count() != wantLive {
		t.Fatalf("count = %d, want %d", tbl.Count(), wantLive)
	}

	for _, h := range deadHandles {
		if slot := tbl.GetSlot(h); slot != -1 {
			t.Fatalf("dead handle %v resolved to slot %d", h, slot)
		}
	}
	for _, h := range liveHandles {
		slot := tbl.GetSlot(h)
		if slot < 0 || int(slot) >= tbl.Count() {
			t.Fatalf("live handle %v resolved to invalid slot %d", h, slot)
		}
		gotHandle := tbl.GetHandle(slot)
		if gotHandle.RawID != h.RawID {
			t.Fatalf("slot %d raw id mismatch: got %d want %d", slot, gotHandle.RawID, h.RawID)
		}
	}
}

func TestBackwardIterationFreeIsSafe(t *testing.T) {
	const n = 30
	tbl := newTestTable(n)
	for i := 0; i < n; i++ {
		_, row, _ := tbl.Allocate()
		row.Health = i
	}

	tbl.ForEachSlotBackward(func(slot int32, row *testRow) {
		if row.Health%3 == 0 {
			tbl.FreeBySlot(slot)
		}
	})

	want := n - (n+2)/3
	if tbl.Count() != want {
		t.Fatalf("count = %d, want %d", tbl.Count(), want)
	}
	// No row with Health%3==0 should remain live.
	tbl.ForEachSlot(func(slot int32, row *testRow) bool {
		if row.Health%3 == 0 {
			t.Fatalf("row with Health=%d should have been freed", row.Health)
		}
		return true
	})
}

func TestQueryRadius(t *testing.T) {
	tbl := newTestTable(10)
	_, r1, _ := tbl.Allocate()
	r1.X, r1.Y = fixedmath.FromInt(10), fixedmath.FromInt(10)
	_, r2, _ := tbl.Allocate()
	r2.X, r2.Y = fixedmath.FromInt(900), fixedmath.FromInt(900)

	tbl.SpatialSort()

	var buf []int32
	buf = tbl.QueryRadius(fixedmath.NewVec2(fixedmath.FromInt(10), fixedmath.FromInt(10)), fixedmath.FromInt(50), buf)
	found := false
	for _, slot := range buf {
		if row, ok := tbl.TryGetRow(slot); ok && row.X.ToInt() == 10 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected to find nearby row in query radius results")
	}
}
