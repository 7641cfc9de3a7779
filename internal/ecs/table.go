package ecs

import "fight-club-sim/internal/fixedmath"

// PositionFunc extracts a row's world position for spatial indexing. Tables
// that never need query_radius pass a nil PositionFunc and a zero cell size.
type PositionFunc[R any] func(row *R) fixedmath.Vec2

// TableConfig configures a new Table.
type TableConfig struct {
	Capacity        int
	SpatialCellSize fixedmath.Fixed64 // 0 disables the spatial index
	WorldWidth      fixedmath.Fixed64
	WorldHeight     fixedmath.Fixed64
}

// Table is a generational, swap-remove, struct-of-rows columnar store for one
// entity kind. Rows are stored dense
// in `rows[0:count]`; `rawToSlot`/`slotToRaw` maintain the generational
// indirection that lets a Handle stay valid across unrelated swap-removes.
type Table[R any] struct {
	id   TableID
	rows []R

	slotToRaw []uint32 // dense: slot -> raw id
	rawToSlot []int32  // sparse: raw id -> slot, or -1 if free
	generation []uint16 // sparse: raw id -> current generation

	freeList []uint32

	count   int
	version uint64

	posFn   PositionFunc[R]
	spatial *spatialIndex

	capacity int

	// skippedSpawns counts allocate() calls rejected for CapacityExceeded,
	// surfaced once per tick by the owning spawn system.
	skippedSpawns int
}

// NewTable creates an empty table with the given fixed capacity. posFn may
// be nil if this table never needs query_radius/spatial_sort.
func NewTable[R any](id TableID, cfg TableConfig, posFn PositionFunc[R]) *Table[R] {
	t := &Table[R]{
		id:        id,
		rows:      make([]R, 0, cfg.Capacity),
		slotToRaw: make([]uint32, 0, cfg.Capacity),
		capacity:  cfg.Capacity,
		posFn:     posFn,
	}
	if posFn != nil && cfg.SpatialCellSize > 0 {
		t.spatial = newSpatialIndex(cfg.WorldWidth, cfg.WorldHeight, cfg.SpatialCellSize)
	}
	return t
}

func (t *Table[R]) ID() TableID      { return t.id }
func (t *Table[R]) Count() int       { return t.count }
func (t *Table[R]) Version() uint64  { return t.version }
func (t *Table[R]) Capacity() int    { return t.capacity }
func (t *Table[R]) SkippedSpawns() int { return t.skippedSpawns }
func (t *Table[R]) ResetSkippedSpawns() { t.skippedSpawns = 0 }

// Allocate reserves a new row, zero-valued, and returns its handle along
// with a pointer the caller should use to populate fields immediately.
// Returns ErrCapacityExceeded if the table is at capacity; the caller (a
// spawn system) must skip the spawn this tick and retry next tick.
func (t *Table[R]) Allocate() (Handle, *R, error) {
	if t.count >= t.capacity {
		t.skippedSpawns++
		return Invalid, nil, ErrCapacityExceeded
	}

	var rawID uint32
	if n := len(t.freeList); n > 0 {
		rawID = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		rawID = uint32(len(t.rawToSlot))
		t.rawToSlot = append(t.rawToSlot, -1)
		t.generation = append(t.generation, 0)
	}

	gen := t.generation[rawID] + 1
	if gen == 0 {
		gen = 1 // never let generation wrap back to the sentinel 0
	}
	t.generation[rawID] = gen

	slot := int32(len(t.rows))
	var zero R
	t.rows = append(t.rows, zero)
	t.slotToRaw = append(t.slotToRaw, rawID)
	t.rawToSlot[rawID] = slot
	t.count++
	t.version++

	return Handle{Table: t.id, RawID: rawID, Generation: gen}, &t.rows[slot], nil
}

// Free validates the handle's generation and, if live, swap-removes its row.
// Freeing a stale handle is a documented no-op returning ErrStaleHandle.
func (t *Table[R]) Free(h Handle) error {
	if h.Table != t.id || int(h.RawID) >= len(t.rawToSlot) {
		return ErrStaleHandle
	}
	if t.generation[h.RawID] != h.Generation {
		return ErrStaleHandle
	}
	slot := t.rawToSlot[h.RawID]
	if slot < 0 {
		return ErrStaleHandle
	}

	lastSlot := int32(t.count - 1)
	if slot != lastSlot {
		t.rows[slot] = t.rows[lastSlot]
		movedRaw := t.slotToRaw[lastSlot]
		t.slotToRaw[slot] = movedRaw
		t.rawToSlot[movedRaw] = slot
	}
	var zero R
	t.rows[lastSlot] = zero
	t.rows = t.rows[:lastSlot]
	t.slotToRaw = t.slotToRaw[:lastSlot]
	t.count--

	t.rawToSlot[h.RawID] = -1
	t.generation[h.RawID]++
	if t.generation[h.RawID] == 0 {
		t.generation[h.RawID] = 1
	}
	t.freeList = append(t.freeList, h.RawID)
	t.version++

	return nil
}

// FreeBySlot frees the row currently at slot without a handle round-trip;
// used by systems iterating backward over a capability query.
func (t *Table[R]) FreeBySlot(slot int32) {
	if slot < 0 || int(slot) >= t.count {
		return
	}
	rawID := t.slotToRaw[slot]
	_ = t.Free(Handle{Table: t.id, RawID: rawID, Generation: t.generation[rawID]})
}

// GetSlot returns the live slot for h, or -1 if h is stale.
func (t *Table[R]) GetSlot(h Handle) int32 {
	if h.Table != t.id || int(h.RawID) >= len(t.rawToSlot) {
		return -1
	}
	if t.generation[h.RawID] != h.Generation {
		return -1
	}
	return t.rawToSlot[h.RawID]
}

// TryGetRow bounds-checks and returns a row pointer, or (nil, false).
func (t *Table[R]) TryGetRow(slot int32) (*R, bool) {
	if slot < 0 || int(slot) >= t.count {
		return nil, false
	}
	return &t.rows[slot], true
}

// RowBySlot returns a row pointer for a slot already known to be valid.
// Bounds are still checked (a stricter superset of the "unchecked in
// release" contract) so a programmer error never corrupts
// adjacent memory — it returns nil instead of panicking mid-tick.
func (t *Table[R]) RowBySlot(slot int32) *R {
	if slot < 0 || int(slot) >= t.count {
		return nil
	}
	return &t.rows[slot]
}

// TryGetByHandle resolves a handle directly to its row, or (nil, false) if stale.
func (t *Table[R]) TryGetByHandle(h Handle) (*R, bool) {
	slot := t.GetSlot(h)
	if slot < 0 {
		return nil, false
	}
	return &t.rows[slot], true
}

// GetHandle reconstructs the current handle for a live slot.
func (t *Table[R]) GetHandle(slot int32) Handle {
	if slot < 0 || int(slot) >= t.count {
		return Invalid
	}
	raw := t.slotToRaw[slot]
	return Handle{Table: t.id, RawID: raw, Generation: t.generation[raw]}
}

// ForEachSlot iterates 0..count-1 ascending — deterministic given the same
// mutation sequence. fn returning false stops
// iteration early.
func (t *Table[R]) ForEachSlot(fn func(slot int32, row *R) bool) {
	for i := int32(0); i < int32(t.count); i++ {
		if !fn(i, &t.rows[i]) {
			return
		}
	}
}

// ForEachSlotBackward iterates count-1..0 descending, the only direction
// safe for FreeBySlot-during-iteration since a swap-remove only ever moves
// the tail (already-visited) entry into the freed slot.
func (t *Table[R]) ForEachSlotBackward(fn func(slot int32, row *R)) {
	for i := int32(t.count) - 1; i >= 0; i-- {
		fn(i, &t.rows[i])
	}
}

// SpatialSort rebuilds the spatial cell index from current row positions.
// Must be called after bulk mutation before QueryRadius is relied upon for
// this tick; derived structure, never serialized.
func (t *Table[R]) SpatialSort() {
	if t.spatial == nil || t.posFn == nil {
		return
	}
	t.spatial.clear()
	for i := int32(0); i < int32(t.count); i++ {
		pos := t.posFn(&t.rows[i])
		t.spatial.insert(i, pos)
	}
}

// QueryRadius appends candidate slots within the cell bounding box of
// (center, radius) to out (reused to avoid per-call allocation) and returns
// it. Requires a prior SpatialSort this tick. Candidates may be outside the
// exact radius — callers must verify with an exact distance check.
func (t *Table[R]) QueryRadius(center fixedmath.Vec2, radius fixedmath.Fixed64, out []int32) []int32 {
	out = out[:0]
	if t.spatial == nil {
		for i := int32(0); i < int32(t.count); i++ {
			out = append(out, i)
		}
		return out
	}
	return t.spatial.queryRadius(center, radius, out)
}

// HasSpatialIndex reports whether this table was configured for query_radius.
func (t *Table[R]) HasSpatialIndex() bool { return t.spatial != nil }
