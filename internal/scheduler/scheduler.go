// Package scheduler implements the fixed, ordered tick pipeline: a named list of systems, each gated by an interval/offset phase
// filter, run in a strict sequential order every frame. Grounded on the
// the existing Engine.tick (internal/game/engine.go) — a single method calling
// a fixed sequence of update steps every tick — generalized here from one
// hardcoded method body into a registered, inspectable list of systems so
// the rollback resimulation path (internal/rollback) can re-run the same
// pipeline against a restored snapshot.
package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fight-club-sim/internal/world"
)

// SimulationContext carries the per-tick values every system reads but none
// of them own: the current frame counter, the session's
// deterministic RNG seed, and the fixed simulation timestep for the calling
// system's own interval (not wall-clock time).
type SimulationContext struct {
	CurrentFrame int64
	SessionSeed  int32
	DeltaSeconds float64
}

// SystemFunc is one tick function. It must never block and never throw — in
// tick errors (StaleHandle, CapacityExceeded, PathfindingUnreachable) are
// recovered locally per this design.
type SystemFunc func(w *world.World, ctx SimulationContext)

// System is one entry in the scheduler's fixed ordered list: a named
// callable plus its interval/offset phase filter.
type System struct {
	Name     string
	Interval int64
	Offset   int64
	Fn       SystemFunc
}

// shouldRun reports whether this system fires on frame, per the
// `current_frame % interval == offset` rule. Interval <= 1 means "every
// frame" regardless of Offset.
func (s System) shouldRun(frame int64) bool {
	if s.Interval <= 1 {
		return true
	}
	return frame%s.Interval == s.Offset
}

// ShouldRun exposes shouldRun for callers that need to run the ordered list
// one system at a time instead of via Tick/RunFrameAt — the desync
// detector's per-system re-hash export path.
func (s System) ShouldRun(frame int64) bool { return s.shouldRun(frame) }

var systemDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sim_system_duration_seconds",
	Help:    "Time spent executing one scheduled system on one tick",
	Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05},
}, []string{"system"}) // bounded: one label value per registered system name

var ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sim_ticks_total",
	Help: "Total simulation ticks advanced",
})

// Scheduler holds the fixed ordered system list and the frame counter. The
// simulation tick is strictly single-threaded and sequential —
// Scheduler itself does no concurrency; it is the thing other components
// (rollback resim, desync per-system re-hash) drive repeatedly against a
// World.
type Scheduler struct {
	systems      []System
	tickRateHz   int
	sessionSeed  int32
	currentFrame int64
}

// New creates a Scheduler over an explicit, already-ordered system list.
// Production callers should use Default (build.go), which wires the full
// the full system pipeline; tests may construct a Scheduler directly with a
// trimmed subset of systems.
func New(tickRateHz int, sessionSeed int32, systems []System) *Scheduler {
	return &Scheduler{systems: systems, tickRateHz: tickRateHz, sessionSeed: sessionSeed}
}

func (s *Scheduler) CurrentFrame() int64 { return s.currentFrame }
func (s *Scheduler) SetCurrentFrame(f int64) { s.currentFrame = f }
func (s *Scheduler) SessionSeed() int32  { return s.sessionSeed }

// SetSessionSeed overrides the deterministic RNG seed used by every system
// that calls into internal/detrand. Callers set this once at match start,
// before the first Tick.
func (s *Scheduler) SetSessionSeed(seed int32) { s.sessionSeed = seed }
func (s *Scheduler) Systems() []System   { return s.systems }
func (s *Scheduler) TickRateHz() int     { return s.tickRateHz }

// DeltaSecondsFor computes the SimulationContext.DeltaSeconds a system with
// the given Interval would see this frame — exposed so callers driving
// systems one at a time (the desync per-system re-hash path) build an
// identical SimulationContext to the one Tick/RunFrameAt would have used.
func (s *Scheduler) DeltaSecondsFor(interval int64) float64 {
	return float64(interval) / float64(s.tickRateHz)
}

// Tick advances current_frame by one and runs every system whose phase
// filter matches, in registration order. Per-system wall-clock duration is recorded for observability
// only — it never feeds back into simulation state.
func (s *Scheduler) Tick(w *world.World) {
	s.currentFrame++
	s.runFrame(w, s.currentFrame)
	ticksTotal.Inc()
}

// runFrame executes the ordered system list against frame without touching
// s.currentFrame — the primitive rollback resimulation replays via repeated
// calls to this with the ring's recorded frame numbers (internal/rollback).
func (s *Scheduler) runFrame(w *world.World, frame int64) {
	for _, sys := range s.systems {
		if !sys.shouldRun(frame) {
			continue
		}
		ctx := SimulationContext{
			CurrentFrame: frame,
			SessionSeed:  s.sessionSeed,
			DeltaSeconds: float64(sys.Interval) / float64(s.tickRateHz),
		}
		start := time.Now()
		sys.Fn(w, ctx)
		systemDuration.WithLabelValues(sys.Name).Observe(time.Since(start).Seconds())
	}
}

// RunFrameAt is the rollback resimulation entry point:
// run the ordered system list once for an explicit frame number, without
// advancing or reading the scheduler's own counter. Callers are expected to
// call SetCurrentFrame appropriately afterward so Tick continues from the
// right place.
func (s *Scheduler) RunFrameAt(w *world.World, frame int64) {
	s.runFrame(w, frame)
}
