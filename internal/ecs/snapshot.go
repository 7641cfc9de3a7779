package ecs

import (
	"bytes"
	"encoding/gob"
)

// tableState mirrors every field of Table[R] that the rollback/desync ring
// must preserve bit-for-bit across a save/restore round trip. The spatial index is derived
// and intentionally excluded — SpatialSort rebuilds it after Restore.
type tableState[R any] struct {
	Rows       []R
	SlotToRaw  []uint32
	RawToSlot  []int32
	Generation []uint16
	FreeList   []uint32
	Count      int
	Version    uint64
}

// Snapshot serializes the table's full generational state via gob. gob's
// wire format is a deterministic function of the encoded values — no map
// iteration or pointer identity enters Table[R]'s fields — so encoding the
// same logical state twice produces identical bytes, which is all the
// rollback ring's hash comparisons require.
func (t *Table[R]) Snapshot() []byte {
	var buf bytes.Buffer
	state := tableState[R]{
		Rows:       t.rows,
		SlotToRaw:  t.slotToRaw,
		RawToSlot:  t.rawToSlot,
		Generation: t.generation,
		FreeList:   t.freeList,
		Count:      t.count,
		Version:    t.version,
	}
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		panic("ecs: table snapshot encode: " + err.Error())
	}
	return buf.Bytes()
}

// Restore replaces the table's generational state with a previously
// captured Snapshot. The spatial index, if any, is left stale — callers
// must call SpatialSort before the next QueryRadius.
func (t *Table[R]) Restore(data []byte) error {
	var state tableState[R]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	t.rows = state.Rows
	t.slotToRaw = state.SlotToRaw
	t.rawToSlot = state.RawToSlot
	t.generation = state.Generation
	t.freeList = state.FreeList
	t.count = state.Count
	t.version = state.Version
	return nil
}
