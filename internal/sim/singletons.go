package sim

import (
	"fight-club-sim/internal/fixedmath"
)

// ResourceNodeRow is one row of the ResourceNode table — a harvestable map
// feature. Full harvesting/economy mechanics are out of scope
// (content/balance Non-goal); the table exists so placement, occupancy and
// pathfinding treat nodes as first-class map features.
type ResourceNodeRow struct {
	Position    fixedmath.Vec2
	TypeID      uint16
	RemainingAmount int32
}

func (r *ResourceNodeRow) PositionXY() fixedmath.Vec2 { return r.Position }

// MoveCommand is one player's queued move order. The command queue itself
// is a small map keyed by GroupID with LRU eviction: when more distinct
// group ids are in flight than capacity allows, the least-recently-issued
// command is evicted rather than growing unbounded.
type MoveCommand struct {
	GroupID     uint32
	Destination fixedmath.Vec2
	IssuedFrame int64
}

const MoveCommandQueueCapacity = 64

// CommandQueue holds pending per-player move commands with LRU eviction by
// GroupID. Grounded on event_log ring-buffer-with-bound idiom,
// generalized to a map+recency-list since commands are keyed, not sequential.
type CommandQueue struct {
	commands map[uint32]MoveCommand
	order    []uint32 // recency order, oldest first
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{commands: make(map[uint32]MoveCommand, MoveCommandQueueCapacity)}
}

// Enqueue inserts or replaces the command for groupID, refreshing recency.
// If at capacity and groupID is new, the oldest command is evicted.
func (q *CommandQueue) Enqueue(cmd MoveCommand) {
	if _, exists := q.commands[cmd.GroupID]; !exists && len(q.commands) >= MoveCommandQueueCapacity {
		oldest := q.order[0]
		q.order = q.order[1:]
		delete(q.commands, oldest)
	}
	if _, exists := q.commands[cmd.GroupID]; exists {
		q.touchRecency(cmd.GroupID)
	} else {
		q.order = append(q.order, cmd.GroupID)
	}
	q.commands[cmd.GroupID] = cmd
}

func (q *CommandQueue) touchRecency(groupID uint32) {
	for i, g := range q.order {
		if g == groupID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			q.order = append(q.order, groupID)
			return
		}
	}
}

// Dequeue removes and returns the command for groupID, if any.
func (q *CommandQueue) Dequeue(groupID uint32) (MoveCommand, bool) {
	cmd, ok := q.commands[groupID]
	if ok {
		delete(q.commands, groupID)
		for i, g := range q.order {
			if g == groupID {
				q.order = append(q.order[:i], q.order[i+1:]...)
				break
			}
		}
	}
	return cmd, ok
}

func (q *CommandQueue) Len() int { return len(q.commands) }

// WaveState tracks the current zombie-wave cadence.
type WaveState struct {
	WaveNumber      int32
	NextWaveFrame   int64
	ZombiesRemaining int32
	Active          bool
}

// MatchStats accumulates match-wide counters referenced by systems and end
// to end scenarios.
type MatchStats struct {
	ZombieKills  int64
	UnitsLost    int64
	BuildingsLost int64
}

// MapConfig is the fixed, World-construction-time map description.
type MapConfig struct {
	WidthTiles  int32
	HeightTiles int32
	TileSize    fixedmath.Fixed64
}

func (m MapConfig) WorldWidth() fixedmath.Fixed64 {
	return fixedmath.FromInt(int(m.WidthTiles)).Mul(m.TileSize)
}

func (m MapConfig) WorldHeight() fixedmath.Fixed64 {
	return fixedmath.FromInt(int(m.HeightTiles)).Mul(m.TileSize)
}
