package desync

import (
	"sync"
	"sync/atomic"
	"time"

	"fight-club-sim/internal/game/spatial"
)

// validatorQueueCapacity bounds the worker's submission queue.
const validatorQueueCapacity = 64

type hashJob struct {
	frame    int64
	snapshot []byte
}

// HashResult is one computed (frame, hash) pair ready for the main thread
// to fold into Detector and queue onto the outgoing sync-check packet.
type HashResult struct {
	Frame int64
	Hash  uint64
}

// Validator runs FNV-1a hashing on a dedicated worker goroutine so a large
// snapshot's hash cost never steals time from the simulation tick. The main thread submits snapshot bytes via
// a pooled buffer; the worker hashes and pushes the result onto a second
// lock-free queue the main thread drains on its next tick.
type Validator struct {
	jobs    *spatial.LockFreeQueue[hashJob]
	results *spatial.LockFreeQueue[HashResult]
	pool    sync.Pool

	shutdownRequested atomic.Bool
	done               chan struct{}

	// DroppedJobs counts submissions rejected because the queue was full —
	// surfaced for observability; a dropped job means no desync detection
	// for that frame.
	DroppedJobs atomic.Int64
}

func NewValidator() *Validator {
	v := &Validator{
		jobs:    spatial.NewLockFreeQueue[hashJob](validatorQueueCapacity),
		results: spatial.NewLockFreeQueue[HashResult](validatorQueueCapacity),
		done:    make(chan struct{}),
	}
	v.pool.New = func() any { return make([]byte, 0, 4096) }
	return v
}

// Start launches the worker goroutine. Must be called once before Submit.
func (v *Validator) Start() {
	go v.run()
}

func (v *Validator) run() {
	for {
		if v.shutdownRequested.Load() {
			close(v.done)
			return
		}
		job, ok := v.jobs.TryPop()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		hash := HashSnapshot(job.snapshot)
		buf := job.snapshot[:0]
		v.pool.Put(buf) //nolint:staticcheck // intentional: return capacity to the pool
		for !v.results.TryPush(HashResult{Frame: job.frame, Hash: hash}) {
			time.Sleep(time.Millisecond) // results queue is drained every tick; should never sustain backpressure
		}
	}
}

// Submit rents a pooled buffer, copies snapshot into it, and enqueues a hash
// job. Returns false if the job queue is full — the caller should log and
// accept no desync detection for this frame rather than block.
func (v *Validator) Submit(frame int64, snapshot []byte) bool {
	buf := v.pool.Get().([]byte)
	buf = append(buf[:0], snapshot...)
	if !v.jobs.TryPush(hashJob{frame: frame, snapshot: buf}) {
		v.pool.Put(buf)
		v.DroppedJobs.Add(1)
		return false
	}
	return true
}

// DrainResults returns every hash computed since the last drain, for the
// main thread to fold into a Detector.
func (v *Validator) DrainResults() []HashResult {
	return v.results.Drain(validatorQueueCapacity)
}

// Shutdown requests the worker stop and waits up to timeout for it to do
// so. Returns false if the timeout elapsed first.
func (v *Validator) Shutdown(timeout time.Duration) bool {
	v.shutdownRequested.Store(true)
	select {
	case <-v.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// HashInline computes a snapshot's hash directly on the calling goroutine,
// for latency-sensitive small snapshots that don't warrant the worker
// round-trip.
func HashInline(snapshot []byte) uint64 {
	return HashSnapshot(snapshot)
}
