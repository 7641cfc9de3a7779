package sim

import (
	"bytes"
	"encoding/gob"
)

// commandQueueState serializes CommandQueue deterministically: Order is
// already a recency-ordered slice, so walking it (rather than ranging the
// map directly) avoids depending on Go's randomized map iteration order.
type commandQueueState struct {
	Order   []uint32
	Entries []MoveCommand
}

// Snapshot serializes the command queue for the rollback ring.
func (q *CommandQueue) Snapshot() []byte {
	state := commandQueueState{Order: q.order, Entries: make([]MoveCommand, len(q.order))}
	for i, g := range q.order {
		state.Entries[i] = q.commands[g]
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		panic("sim: command queue snapshot encode: " + err.Error())
	}
	return buf.Bytes()
}

// Restore replaces the queue's contents with a previously captured Snapshot.
func (q *CommandQueue) Restore(data []byte) error {
	var state commandQueueState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	q.order = state.Order
	q.commands = make(map[uint32]MoveCommand, len(state.Entries))
	for _, e := range state.Entries {
		q.commands[e.GroupID] = e
	}
	return nil
}
