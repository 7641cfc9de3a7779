package rollback

// SnapshotRing is a circular buffer of N serialized World snapshots. Touched only by the main
// thread — no synchronization is needed.
type SnapshotRing struct {
	entries []snapshotEntry
}

type snapshotEntry struct {
	frame  int64
	bytes  []byte
	filled bool
}

func NewSnapshotRing(size int) *SnapshotRing {
	return &SnapshotRing{entries: make([]snapshotEntry, size)}
}

// Save stores bytes for frame, evicting whatever previously occupied that
// ring slot.
func (r *SnapshotRing) Save(frame int64, bytes []byte) {
	idx := int(frame) % len(r.entries)
	r.entries[idx] = snapshotEntry{frame: frame, bytes: bytes, filled: true}
}

// TryRestore returns the bytes saved for frame, if that ring slot still
// holds it (an older frame may have been evicted by wraparound).
func (r *SnapshotRing) TryRestore(frame int64) ([]byte, bool) {
	idx := int(frame) % len(r.entries)
	e := r.entries[idx]
	if !e.filled || e.frame != frame {
		return nil, false
	}
	return e.bytes, true
}

// OldestFrame returns the lowest frame number still held in the ring, and
// whether the ring holds anything at all.
func (r *SnapshotRing) OldestFrame() (int64, bool) {
	oldest := int64(0)
	found := false
	for _, e := range r.entries {
		if !e.filled {
			continue
		}
		if !found || e.frame < oldest {
			oldest = e.frame
			found = true
		}
	}
	return oldest, found
}
