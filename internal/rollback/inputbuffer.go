package rollback

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ringSize is the number of frames the input buffer retains per slot before
// wrapping. Sized generously relative to MaxFramesAheadOfConfirmed so a
// stalled peer never wraps over input the loop still needs.
const ringSize = 256

// ErrConflictingInput is returned by Enqueue when a caller attempts to
// insert a different value at an (frame, slot) pair that already holds a
// bit-distinct input — a protocol error per this design.
var ErrConflictingInput = fmt.Errorf("rollback: conflicting input at already-populated (frame, slot)")

// MultiPlayerInputBuffer is a dense 2D ring indexed by (frame, player_slot)
//. Enqueue is called from the network callback (on the network
// thread); HasInput/GetInput are read from the main thread. Each slot cell
// carries its own atomic "present" flag, stored only after the value is
// written: HasInput reads just that flag without locking, while the input
// values themselves are read and written under one buffer-wide mutex.
type MultiPlayerInputBuffer struct {
	maxPlayers int

	mu      sync.Mutex // guards the values slice only; present flags are lock-free
	values  []Input
	present []uint32 // 0/1, accessed via atomic
}

func NewMultiPlayerInputBuffer(maxPlayers int) *MultiPlayerInputBuffer {
	return &MultiPlayerInputBuffer{
		maxPlayers: maxPlayers,
		values:     make([]Input, ringSize*maxPlayers),
		present:    make([]uint32, ringSize*maxPlayers),
	}
}

func (b *MultiPlayerInputBuffer) cell(frame int64, slot int) int {
	return int(frame%ringSize)*b.maxPlayers + slot
}

// HasInput reports whether slot's input for frame has been recorded.
func (b *MultiPlayerInputBuffer) HasInput(frame int64, slot int) bool {
	return atomic.LoadUint32(&b.present[b.cell(frame, slot)]) == 1
}

// GetInput returns slot's input for frame, or the zero Input if absent.
func (b *MultiPlayerInputBuffer) GetInput(frame int64, slot int) (Input, bool) {
	idx := b.cell(frame, slot)
	if atomic.LoadUint32(&b.present[idx]) == 0 {
		return Input{}, false
	}
	b.mu.Lock()
	v := b.values[idx]
	b.mu.Unlock()
	return v, true
}

// EnqueueInput idempotently records value at (frame, slot): a duplicate
// bit-identical insert is accepted silently; a conflicting insert returns
// ErrConflictingInput.
func (b *MultiPlayerInputBuffer) EnqueueInput(frame int64, slot int, value Input) error {
	idx := b.cell(frame, slot)
	if atomic.LoadUint32(&b.present[idx]) == 1 {
		b.mu.Lock()
		existing := b.values[idx]
		b.mu.Unlock()
		if existing.Equal(value) {
			return nil
		}
		return ErrConflictingInput
	}
	b.mu.Lock()
	b.values[idx] = value
	b.mu.Unlock()
	atomic.StoreUint32(&b.present[idx], 1)
	return nil
}

// ClearFrame wipes every slot's entry for frame, used when the ring wraps
// back onto a frame number far enough in the past that it will never be
// read again.
func (b *MultiPlayerInputBuffer) ClearFrame(frame int64) {
	for slot := 0; slot < b.maxPlayers; slot++ {
		idx := b.cell(frame, slot)
		atomic.StoreUint32(&b.present[idx], 0)
	}
}
