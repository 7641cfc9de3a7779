// Package desync implements the confirmed-frame hash comparison and
// first-divergence latch. Grounded on
// internal/game/spatial lock-free ring (reused here as the background
// validator's submission queue) and internal/game/engine.go's single
// authoritative tick loop, generalized into an independent comparator that
// observes already-confirmed snapshot bytes without touching the live
// simulation world.
package desync

import (
	"hash/fnv"
)

// HashSnapshot computes the 64-bit FNV-1a hash of a serialized frame
// snapshot. FNV-1a is named explicitly by the wire
// format, so this uses the standard library's hash/fnv rather than a
// third-party hashing package.
func HashSnapshot(snapshot []byte) uint64 {
	h := fnv.New64a()
	h.Write(snapshot)
	return h.Sum64()
}

// Mismatch records the first frame at which local and remote confirmed
// hashes diverged.
type Mismatch struct {
	Slot       int
	Frame      int64
	LocalHash  uint64
	RemoteHash uint64
}

// Detector maintains the (frame -> local hash) and (frame -> pending remote
// hash) maps and latches on first mismatch. Safe for use only
// from the main simulation thread — the background validator communicates
// results back through Validator, not by touching Detector directly from
// another goroutine.
type Detector struct {
	localHashes  map[int64]uint64
	remoteHashes map[int64]map[int]uint64 // frame -> slot -> hash, stashed until local arrives

	detected bool
	first    Mismatch
}

func NewDetector() *Detector {
	return &Detector{
		localHashes:  make(map[int64]uint64),
		remoteHashes: make(map[int64]map[int]uint64),
	}
}

// Detected reports whether the first-mismatch latch has tripped.
func (d *Detector) Detected() bool { return d.detected }

// FirstMismatch returns the latched mismatch, if any.
func (d *Detector) FirstMismatch() (Mismatch, bool) { return d.first, d.detected }

// RecordLocal stores this process's own hash for frame, computed either
// inline or by the background validator, then checks it against any
// already-stashed remote hashes for that frame.
func (d *Detector) RecordLocal(frame int64, hash uint64) {
	if d.detected {
		return // subsequent ticks are no-ops for the detector
	}
	d.localHashes[frame] = hash
	for slot, remote := range d.remoteHashes[frame] {
		d.compare(slot, frame, hash, remote)
	}
	delete(d.remoteHashes, frame)
}

// RecordRemote handles an incoming (slot, frame, hash) sync-check: compares
// immediately if the local hash is already known, otherwise stashes it
// until the matching RecordLocal call arrives.
func (d *Detector) RecordRemote(slot int, frame int64, hash uint64) {
	if d.detected {
		return
	}
	if local, ok := d.localHashes[frame]; ok {
		d.compare(slot, frame, local, hash)
		return
	}
	if d.remoteHashes[frame] == nil {
		d.remoteHashes[frame] = make(map[int]uint64)
	}
	d.remoteHashes[frame][slot] = hash
}

func (d *Detector) compare(slot int, frame int64, local, remote uint64) {
	if d.detected {
		return
	}
	if local == remote {
		delete(d.localHashes, frame)
		return
	}
	d.detected = true
	d.first = Mismatch{Slot: slot, Frame: frame, LocalHash: local, RemoteHash: remote}
}

// Forget drops hashes for frame and everything before it once the frame is
// far enough behind oldest_unconfirmed to never need comparison again,
// bounding the maps' growth.
func (d *Detector) Forget(upToFrame int64) {
	for f := range d.localHashes {
		if f <= upToFrame {
			delete(d.localHashes, f)
		}
	}
	for f := range d.remoteHashes {
		if f <= upToFrame {
			delete(d.remoteHashes, f)
		}
	}
}
