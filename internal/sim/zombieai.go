package sim

import (
	"fight-club-sim/internal/detrand"
	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

// ZombieAITuning is the subset of config.ZombieAIConfig + config.GridConfig
// the state machine needs, restated here to avoid an import cycle with
// config (which sim does not otherwise depend on).
type ZombieAITuning struct {
	ChaseThreshold         fixedmath.Fixed64
	LoseInterestThreshold  fixedmath.Fixed64
	IdleTimerMinFrames     int
	IdleTimerMaxFrames     int
	WanderTimerMinFrames   int
	WanderTimerMaxFrames   int
	AttackCooldownFrames   int32
	TargetAcquisitionRange fixedmath.Fixed64
	TickRateHz             int
}

// ThreatLookup is the ThreatGrid surface the state machine needs, restated
// to avoid an import cycle with gridservices.
type ThreatLookup interface {
	ThreatAt(pos fixedmath.Vec2) fixedmath.Fixed64
}

// TargetFinder resolves the nearest eligible combat unit or building within
// range of a zombie, honoring the aggro-source-first / then-building
// priority. The World layer implements this by
// scanning its own tables; sim stays storage-agnostic.
type TargetFinder interface {
	FindZombieTarget(from fixedmath.Vec2, aggro ecs.Handle, searchRangeSq fixedmath.Fixed64, attackRangeSq fixedmath.Fixed64) (target ecs.Handle, kind ZombieTargetKind, pos fixedmath.Vec2, inAttackRange bool, ok bool)
	TargetStillValid(h ecs.Handle, kind ZombieTargetKind, from fixedmath.Vec2, attackRangeSq fixedmath.Fixed64) (pos fixedmath.Vec2, inAttackRange bool, ok bool)
}

// ZombieStateTransition is the scheduler-registered body for
// "zombie_state_transition". It runs before zombie_movement so
// the movement pass reads a stable, already-transitioned state.
func ZombieStateTransition(tbl *ecs.Table[ZombieRow], frame int64, sessionSeed int32, threat ThreatLookup, finder TargetFinder, tuning ZombieAITuning) {
	tbl.ForEachSlot(func(slot int32, row *ZombieRow) bool {
		if row.Flags.Dead() {
			return true
		}
		localThreat := threat.ThreatAt(row.Position)
		searchRangeSq := tuning.TargetAcquisitionRange.Mul(tuning.TargetAcquisitionRange)
		attackRangeSq := row.AttackRange.Mul(row.AttackRange)

		switch row.State {
		case ZombieIdle:
			if localThreat.Raw() >= tuning.ChaseThreshold.Raw() {
				enterChase(row, finder, searchRangeSq, attackRangeSq)
			} else if row.StateTimer.Raw() <= 0 {
				enterWander(row, frame, sessionSeed, slot, tuning)
			} else {
				row.StateTimer = row.StateTimer.Sub(fixedmath.FromInt(1))
			}

		case ZombieWander:
			if localThreat.Raw() >= tuning.ChaseThreshold.Raw() {
				enterChase(row, finder, searchRangeSq, attackRangeSq)
			} else if row.StateTimer.Raw() <= 0 {
				enterIdle(row, frame, sessionSeed, slot, tuning)
			} else {
				row.StateTimer = row.StateTimer.Sub(fixedmath.FromInt(1))
			}

		case ZombieChase:
			_, inRange, valid := finder.TargetStillValid(row.Target, row.TargetKind, row.Position, attackRangeSq)
			if localThreat.Raw() < tuning.LoseInterestThreshold.Raw() || !valid {
				enterIdle(row, frame, sessionSeed, slot, tuning)
				break
			}
			if !reacquireIfNeeded(row, finder, searchRangeSq, attackRangeSq) {
				enterIdle(row, frame, sessionSeed, slot, tuning)
				break
			}
			if inRange {
				enterAttack(row, tuning)
			}

		case ZombieAttack:
			// Damage fires when StateTimer reaches 1; the combat
			// system reads StateTimer directly this same tick rather than a
			// flag set here.
			row.StateTimer = row.StateTimer.Sub(fixedmath.FromInt(1))
			if row.StateTimer.Raw() <= 0 {
				_, inRange, valid := finder.TargetStillValid(row.Target, row.TargetKind, row.Position, attackRangeSq)
				switch {
				case valid && inRange:
					row.State = ZombieChase
				case row.IsWaveZombie:
					row.State = ZombieWaveChase
				default:
					enterIdle(row, frame, sessionSeed, slot, tuning)
				}
			}

		case ZombieWaveChase:
			reacquireIfNeeded(row, finder, searchRangeSq, attackRangeSq)
			_, inRange, valid := finder.TargetStillValid(row.Target, row.TargetKind, row.Position, attackRangeSq)
			if valid && inRange {
				enterAttack(row, tuning)
			}
		}
		return true
	})
}

func reacquireIfNeeded(row *ZombieRow, finder TargetFinder, searchRangeSq, attackRangeSq fixedmath.Fixed64) bool {
	if row.Target.IsValid() {
		if _, _, ok := finder.TargetStillValid(row.Target, row.TargetKind, row.Position, attackRangeSq); ok {
			return true
		}
	}
	target, kind, _, _, ok := finder.FindZombieTarget(row.Position, row.Aggro, searchRangeSq, attackRangeSq)
	if !ok {
		row.Target = ecs.Invalid
		row.TargetKind = TargetKindNone
		return false
	}
	row.Target = target
	row.TargetKind = kind
	return true
}

func enterChase(row *ZombieRow, finder TargetFinder, searchRangeSq, attackRangeSq fixedmath.Fixed64) {
	row.State = ZombieChase
	reacquireIfNeeded(row, finder, searchRangeSq, attackRangeSq)
}

func enterIdle(row *ZombieRow, frame int64, sessionSeed int32, slot int32, tuning ZombieAITuning) {
	row.State = ZombieIdle
	row.StateTimer = fixedmath.FromInt(detrand.RangeWithSeed(sessionSeed, int32(frame), slot, detrand.SaltIdleTimer, tuning.IdleTimerMinFrames, tuning.IdleTimerMaxFrames))
}

func enterWander(row *ZombieRow, frame int64, sessionSeed int32, slot int32, tuning ZombieAITuning) {
	row.State = ZombieWander
	row.StateTimer = fixedmath.FromInt(detrand.RangeWithSeed(sessionSeed, int32(frame), slot, detrand.SaltWanderTimer, tuning.WanderTimerMinFrames, tuning.WanderTimerMaxFrames))
	degrees := detrand.RangeWithSeed(sessionSeed, int32(frame), slot, detrand.SaltWanderDirection, 0, 359)
	row.WanderSeed = int32(degrees)
	row.WanderDirection = fixedmath.FromFloat(float64(degrees))
}

func enterAttack(row *ZombieRow, tuning ZombieAITuning) {
	row.State = ZombieAttack
	row.StateTimer = fixedmath.FromInt(int(tuning.AttackCooldownFrames))
}

// ZombieMovement is the scheduler-registered body for "zombie_movement"
//, run after state transition so it reads a stable state.
// FlowProvider supplies the three flow-field query shapes zombies need.
type FlowProvider interface {
	FlowToTarget(from fixedmath.Vec2, targetKind ZombieTargetKind, target ecs.Handle) (fixedmath.Vec2, bool)
	FlowToHighestThreat(from fixedmath.Vec2) (fixedmath.Vec2, bool)
	FlowToCenter(from fixedmath.Vec2) (fixedmath.Vec2, bool)
}

func ZombieMovement(tbl *ecs.Table[ZombieRow], frame int64, tickRateHz int, flow FlowProvider) {
	halfSecondFrames := int64(tickRateHz / 2)
	if halfSecondFrames <= 0 {
		halfSecondFrames = 1
	}

	tbl.ForEachSlot(func(slot int32, row *ZombieRow) bool {
		if row.Flags.Dead() {
			return true
		}

		var dir fixedmath.Vec2
		switch row.State {
		case ZombieIdle, ZombieAttack:
			row.Velocity = fixedmath.Vec2{}
			return true

		case ZombieWander:
			phase := frame / halfSecondFrames
			angle := row.WanderDirection.Add(fixedmath.FromInt(int(phase % 360)))
			dir = fixedmath.NewVec2(fixedmath.Cos(angle), fixedmath.Sin(angle))
			row.Velocity = dir.Scale(row.MoveSpeed.Div(fixedmath.FromInt(3)))
			return true

		case ZombieChase:
			dir = chaseDirection(row, flow)

		case ZombieWaveChase:
			if d, ok := flow.FlowToTarget(row.Position, row.TargetKind, row.Target); ok {
				dir = d
			} else if d, ok := flow.FlowToCenter(row.Position); ok {
				dir = d
			}
		}

		row.Flow = dir
		row.Velocity = dir.Scale(row.MoveSpeed)
		return true
	})
}

func chaseDirection(row *ZombieRow, flow FlowProvider) fixedmath.Vec2 {
	if d, ok := flow.FlowToTarget(row.Position, row.TargetKind, row.Target); ok {
		return d
	}
	if d, ok := flow.FlowToHighestThreat(row.Position); ok {
		return d
	}
	if d, ok := flow.FlowToCenter(row.Position); ok {
		return d
	}
	return fixedmath.Vec2{}
}
