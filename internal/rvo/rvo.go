// Package rvo implements the two-phase crowd-avoidance solver: a proximity push phase for already-overlapping agents followed by a
// time-to-collision phase for agents on a converging path, blended with each
// unit's steering intent and smoothed by an exponential moving average.
//
// Grounded on internal/game/spatial.SweepAndPrune broad-phase
// (endpoint-sort neighbor gather reused every call to avoid allocating) and
// on internal/ecs.Table's spatial grid, which here replaces the existing
// sweep-and-prune as the neighbor source since every combat unit already
// carries a per-tick-rebuilt uniform grid index.
package rvo

import (
	"sort"

	"fight-club-sim/internal/config"
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/sim"
	"fight-club-sim/internal/world"
)

// Solver holds the scratch buffers reused every tick so Run performs no heap
// allocation in steady state.
type Solver struct {
	cfg config.RVOConfig

	neighborRadius    fixedmath.Fixed64
	timeHorizon       fixedmath.Fixed64
	avoidanceWeight   fixedmath.Fixed64
	maxAvoidanceForce fixedmath.Fixed64
	smoothingAlpha    fixedmath.Fixed64
	agentRadius       fixedmath.Fixed64

	candidates []int32
	neighbors  []neighbor
}

type neighbor struct {
	slot     int32
	position fixedmath.Vec2
	velocity fixedmath.Vec2
	distSq   fixedmath.Fixed64
}

// New builds a Solver from the configured RVO tuning.
func New(cfg config.RVOConfig) *Solver {
	return &Solver{
		cfg:               cfg,
		neighborRadius:    fixedmath.FromFloat(cfg.NeighborRadius),
		timeHorizon:       fixedmath.FromFloat(cfg.TimeHorizon),
		avoidanceWeight:   fixedmath.FromFloat(cfg.AvoidanceWeight),
		maxAvoidanceForce: fixedmath.FromFloat(cfg.MaxAvoidanceForce),
		smoothingAlpha:    fixedmath.FromFloat(cfg.SmoothingAlpha),
		agentRadius:       fixedmath.FromFloat(cfg.DefaultAgentRadius),
		candidates:        make([]int32, 0, 64),
		neighbors:         make([]neighbor, 0, cfg.MaxNeighbors),
	}
}

// Run is the scheduler-registered system body for "rvo".
// It reads every live unit's PreferredVelocity — the steering intent written
// by combat_unit_movement on the *previous* tick, since that system runs
// later in this same tick's order (step 13) — and writes the avoidance-
// blended Velocity that moveable_apply_movement (step 17) will integrate.
// This one-frame lag between fresh steering intent and avoidance reacting to
// it follows from the scheduler's fixed order.
func Run(w *world.World, s *Solver) {
	tbl := w.CombatUnits
	if !tbl.HasSpatialIndex() {
		return
	}
	tbl.SpatialSort()

	tbl.ForEachSlot(func(slot int32, row *sim.CombatUnitRow) bool {
		if row.Flags.Dead() {
			return true
		}
		s.solveOne(tbl, slot, row)
		return true
	})
}

func (s *Solver) solveOne(tbl *ecs.Table[sim.CombatUnitRow], slot int32, row *sim.CombatUnitRow) {
	s.candidates = s.candidates[:0]
	s.candidates = tbl.QueryRadius(row.Position, s.neighborRadius, s.candidates)

	s.neighbors = s.neighbors[:0]
	for _, cand := range s.candidates {
		if cand == slot {
			continue
		}
		other, ok := tbl.TryGetRow(cand)
		if !ok || other.Flags.Dead() {
			continue
		}
		distSq := fixedmath.Vec2DistanceSquared(row.Position, other.Position)
		if distSq > s.neighborRadius.Mul(s.neighborRadius) {
			continue
		}
		s.neighbors = append(s.neighbors, neighbor{slot: cand, position: other.Position, velocity: other.Velocity, distSq: distSq})
	}

	if len(s.neighbors) > s.cfg.MaxNeighbors {
		sort.Slice(s.neighbors, func(i, j int) bool { return s.neighbors[i].distSq < s.neighbors[j].distSq })
		s.neighbors = s.neighbors[:s.cfg.MaxNeighbors]
	}

	desired := row.PreferredVelocity
	avoidance := fixedmath.Vec2{}

	// Phase 1: proximity push. Any neighbor already inside the combined
	// agent radius contributes a push proportional to penetration depth,
	// falling off linearly to zero at full separation.
	minSep := s.agentRadius.Mul(fixedmath.FromInt(2))
	for _, n := range s.neighbors {
		dist := n.distSq.Sqrt()
		if dist >= minSep {
			continue
		}
		var axis fixedmath.Vec2
		if dist.Raw() == 0 {
			// Exact overlap: fall back to a deterministic axis derived from
			// slot order rather than an arbitrary/degenerate direction, so
			// two agents spawned on the same point separate identically on
			// every replay.
			if slot < n.slot {
				axis = fixedmath.NewVec2(fixedmath.FromInt(1), 0)
			} else {
				axis = fixedmath.NewVec2(fixedmath.FromInt(-1), 0)
			}
		} else {
			axis = row.Position.Sub(n.position).Scale(fixedmath.FromInt(1).Div(dist))
		}
		penetration := minSep.Sub(dist)
		push := penetration.Div(minSep) // 0..1 linear falloff
		avoidance = avoidance.Add(axis.Scale(push))
	}

	// Phase 2: time-to-collision. For neighbors outside the overlap radius
	// but converging, weight the avoidance push by urgency (closer time to
	// collision pushes harder), solving the relative-motion quadratic
	// ||relPos + t*relVel|| == minSep for the smallest positive root.
	for _, n := range s.neighbors {
		dist := n.distSq.Sqrt()
		if dist < minSep {
			continue // already handled by phase 1
		}
		relPos := row.Position.Sub(n.position)
		relVel := desired.Sub(n.velocity)

		a := relVel.Dot(relVel)
		if a.Raw() == 0 {
			continue // no relative motion, never converges
		}
		b := relPos.Dot(relVel).Mul(fixedmath.FromInt(2))
		c := relPos.Dot(relPos).Sub(minSep.Mul(minSep))
		if c.Raw() < 0 {
			continue // already overlapping; phase 1 owns this case
		}

		disc := b.Mul(b).Sub(a.Mul(c).Mul(fixedmath.FromInt(4)))
		if disc.Raw() < 0 {
			continue // paths never intersect
		}
		sqrtDisc := disc.Sqrt()
		two := fixedmath.FromInt(2)
		t := b.Neg().Sub(sqrtDisc).Div(a.Mul(two))
		if t.Raw() < 0 || t > s.timeHorizon {
			continue
		}

		urgency := fixedmath.FromInt(1).Sub(t.Div(s.timeHorizon)).Clamp(0, fixedmath.FromInt(1))
		var axis fixedmath.Vec2
		if dist.Raw() == 0 {
			axis = fixedmath.NewVec2(fixedmath.FromInt(1), 0)
		} else {
			axis = relPos.Scale(fixedmath.FromInt(1).Div(dist))
		}
		avoidance = avoidance.Add(axis.Scale(urgency))
	}

	avoidance = avoidance.Scale(s.avoidanceWeight).ClampLength(s.maxAvoidanceForce)

	// EMA smoothing against last tick's separation state prevents avoidance
	// from chattering frame to frame as neighbors enter and leave range.
	smoothed := fixedmath.Vec2Lerp(row.SmoothedSeparation, avoidance, s.smoothingAlpha)
	row.SmoothedSeparation = smoothed

	blended := desired.Add(smoothed)
	if row.MoveSpeed.Raw() > 0 {
		blended = blended.ClampLength(row.MoveSpeed)
	}
	row.Velocity = blended
}
