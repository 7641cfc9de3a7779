package rollback

import (
	"fight-club-sim/internal/game/spatial"
	"fight-club-sim/internal/scheduler"
	"fight-club-sim/internal/world"
)

// netQueueCapacity bounds the lock-free ring the network thread hands
// packets to the main thread through.
const netQueueCapacity = 1024

// Loop drives the tick loop over a World and Scheduler.
// It owns the input ring, the snapshot ring, per-slot prediction state and
// the mispredict/resim bookkeeping. The network I/O thread only ever calls
// SubmitPacket; every other method runs on the single simulation thread.
type Loop struct {
	sched     *scheduler.Scheduler
	world     *world.World
	inputs    *MultiPlayerInputBuffer
	snapshots *SnapshotRing
	history   *packetHistory
	netQueue  *spatial.LockFreeQueue[Packet]

	maxPlayers     int
	maxFramesAhead int64
	localSlot      int

	lastKnown        []Input           // most recent known input per slot, for duplicate-last-input prediction
	confirmedUpTo    []int64           // highest contiguous confirmed frame per slot, -1 = none
	predictedApplied map[int64]map[int]Input // [frame][slot] -> prediction actually used, only while unconfirmed

	stalled bool

	// OnFrameAdvanced is invoked after step 5 commits a frame, with the
	// frame number and its serialized snapshot — the desync detector's hook.
	// May be nil.
	OnFrameAdvanced func(frame int64, snapshot []byte)
}

// NewLoop constructs a Loop. localSlot is this process's own player slot —
// its input is injected directly via SubmitLocalInput rather than arriving
// over the network.
func NewLoop(sched *scheduler.Scheduler, w *world.World, maxPlayers int, maxFramesAhead int64, snapshotRingSize int, localSlot int) *Loop {
	confirmed := make([]int64, maxPlayers)
	for i := range confirmed {
		confirmed[i] = -1
	}
	return &Loop{
		sched:            sched,
		world:            w,
		inputs:           NewMultiPlayerInputBuffer(maxPlayers),
		snapshots:        NewSnapshotRing(snapshotRingSize),
		history:          newPacketHistory(),
		netQueue:         spatial.NewLockFreeQueue[Packet](netQueueCapacity),
		maxPlayers:       maxPlayers,
		maxFramesAhead:   maxFramesAhead,
		localSlot:        localSlot,
		lastKnown:        make([]Input, maxPlayers),
		confirmedUpTo:    confirmed,
		predictedApplied: make(map[int64]map[int]Input),
	}
}

// SubmitPacket is the network thread's entry point: a non-blocking push
// onto the lock-free ring. A full ring silently drops the packet — packets
// are sent unreliably and redundantly, so a drop here just relies on a
// later packet's redundancy window to recover the frame.
func (l *Loop) SubmitPacket(p Packet) {
	l.netQueue.TryPush(p)
}

// SubmitLocalInput records this process's own slot's input for frame,
// bypassing the network path entirely.
func (l *Loop) SubmitLocalInput(frame int64, in Input) {
	_ = l.inputs.EnqueueInput(frame, l.localSlot, in)
}

// Stalled reports whether the last RunOneIteration call stalled instead of
// advancing.
func (l *Loop) Stalled() bool { return l.stalled }

// CurrentFrame reports the scheduler's current confirmed-and-simulated
// frame. Like every other Loop method besides SubmitPacket, this must only
// be called from the simulation thread that owns the Loop.
func (l *Loop) CurrentFrame() int64 { return l.sched.CurrentFrame() }

// RunOneIteration executes one pass of the tick loop: drain
// network input, check the ahead-of-confirmed stall condition, resim any
// retroactively-corrected frames, then advance one frame.
func (l *Loop) RunOneIteration() {
	resimFrom, hasResim := l.drainNetwork()

	oldestUnconfirmed := l.oldestUnconfirmed()
	currentFrame := l.sched.CurrentFrame()
	if currentFrame-oldestUnconfirmed+1 > l.maxFramesAhead {
		l.stalled = true
		return
	}
	l.stalled = false

	if hasResim {
		l.resimFrom(resimFrom)
	}
	l.advanceOneFrame()
}

// drainNetwork pops every packet currently queued and applies its frames to
// the input buffer, detecting any retroactive override of an
// already-simulated frame. Returns the lowest frame
// needing resimulation, if any.
func (l *Loop) drainNetwork() (int64, bool) {
	packets := l.netQueue.Drain(netQueueCapacity)
	resimFrom := int64(0)
	hasResim := false

	for _, p := range packets {
		for _, f := range p.Frames {
			if l.inputs.HasInput(f.Frame, p.SenderSlot) {
				continue // frame-present dedup
			}
			alreadySimulated := f.Frame <= l.sched.CurrentFrame()
			if err := l.inputs.EnqueueInput(f.Frame, p.SenderSlot, f.Input); err != nil {
				continue // conflicting bytes from a malformed/malicious peer; drop
			}
			l.lastKnown[p.SenderSlot] = f.Input

			if alreadySimulated {
				if bySlot, ok := l.predictedApplied[f.Frame]; ok {
					if predicted, ok := bySlot[p.SenderSlot]; ok && !predicted.Equal(f.Input) {
						if !hasResim || f.Frame < resimFrom {
							resimFrom = f.Frame
							hasResim = true
						}
					}
				}
			}
		}
	}
	return resimFrom, hasResim
}

// oldestUnconfirmed advances each slot's confirmed high-water mark over any
// newly-contiguous run of received input, then returns one past the lowest
// mark across all slots.
func (l *Loop) oldestUnconfirmed() int64 {
	lowest := int64(1<<63 - 1)
	for slot := 0; slot < l.maxPlayers; slot++ {
		for l.inputs.HasInput(l.confirmedUpTo[slot]+1, slot) {
			l.confirmedUpTo[slot]++
			delete(l.predictedApplied[l.confirmedUpTo[slot]], slot)
		}
		if v := l.confirmedUpTo[slot] + 1; v < lowest {
			lowest = v
		}
	}
	return lowest
}

// resimFrom restores the snapshot immediately preceding from and replays
// every frame from there through the current frame using now-corrected
// inputs, updating the snapshot ring as it goes.
func (l *Loop) resimFrom(from int64) {
	snap, ok := l.snapshots.TryRestore(from - 1)
	if !ok {
		return // snapshot already evicted; cannot resim, accept the divergence
	}
	if err := l.world.Restore(snap); err != nil {
		return
	}

	current := l.sched.CurrentFrame()
	for f := from; f <= current; f++ {
		l.applyFrameInputs(f)
		l.sched.RunFrameAt(l.world, f)
		snapshot := l.world.Snapshot()
		l.snapshots.Save(f, snapshot)
		if l.OnFrameAdvanced != nil {
			l.OnFrameAdvanced(f, snapshot)
		}
	}
}

// advanceOneFrame advances the world state by exactly one frame.
func (l *Loop) advanceOneFrame() {
	frame := l.sched.CurrentFrame() + 1
	l.applyFrameInputs(frame)
	l.sched.Tick(l.world)
	snapshot := l.world.Snapshot()
	l.snapshots.Save(frame, snapshot)
	if l.OnFrameAdvanced != nil {
		l.OnFrameAdvanced(frame, snapshot)
	}
}

// applyFrameInputs enqueues every slot's move commands for frame into the
// world's command queue, using the slot's last known input as a predicted
// duplicate when the real input for frame has not yet arrived. Predicted values are recorded so a later genuine
// arrival can be compared for retroactive correction.
func (l *Loop) applyFrameInputs(frame int64) {
	for slot := 0; slot < l.maxPlayers; slot++ {
		in, ok := l.inputs.GetInput(frame, slot)
		if !ok {
			in = l.lastKnown[slot]
			if l.predictedApplied[frame] == nil {
				l.predictedApplied[frame] = make(map[int]Input)
			}
			l.predictedApplied[frame][slot] = in
		}
		for _, cmd := range in.Commands {
			l.world.Commands.Enqueue(cmd)
		}
	}
}
