package api

import "sync/atomic"

// Status is a point-in-time, read-only view of the simulation loop the
// introspection endpoints serve. Grounded on the existing router's
// EngineInterface dependency-injection pattern, narrowed to a single plain
// struct so the HTTP goroutines never reach back into the simulation
// thread's own data structures.
type Status struct {
	CurrentFrame     int64
	ConnectedPlayers int
	Stalled          bool
	DesyncDetected   bool
	DesyncFrame      int64
	SnapshotHash     uint64
	Snapshot         []byte // last confirmed frame's gob-encoded world state
}

// StatusPublisher holds the most recently published Status behind an
// atomic.Value, so the simulation thread can publish once per tick (Publish)
// while arbitrarily many HTTP handler goroutines read it lock-free
// (Current).
type StatusPublisher struct {
	v atomic.Value // Status
}

// NewStatusPublisher returns a publisher seeded with a zero Status so
// Current never has to special-case an empty atomic.Value.
func NewStatusPublisher() *StatusPublisher {
	p := &StatusPublisher{}
	p.v.Store(Status{})
	return p
}

// Publish stores s as the current status. Must only be called from the
// simulation thread.
func (p *StatusPublisher) Publish(s Status) { p.v.Store(s) }

// Current returns the most recently published Status. Safe from any
// goroutine.
func (p *StatusPublisher) Current() Status { return p.v.Load().(Status) }
