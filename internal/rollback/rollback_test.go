package rollback

import (
	"testing"

	"fight-club-sim/internal/config"
	"fight-club-sim/internal/fixedmath"
	"fight-club-sim/internal/scheduler"
	"fight-club-sim/internal/sim"
	"fight-club-sim/internal/world"
)

func testInput(groupID uint32, frame int64) Input {
	return Input{Commands: []sim.MoveCommand{{
		GroupID: groupID, IssuedFrame: frame, Destination: fixedmath.NewVec2(fixedmath.FromInt(1), fixedmath.FromInt(2)),
	}}}
}

func TestMultiPlayerInputBufferDuplicateAndConflict(t *testing.T) {
	buf := NewMultiPlayerInputBuffer(2)
	in := testInput(1, 10)

	if err := buf.EnqueueInput(10, 0, in); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if !buf.HasInput(10, 0) {
		t.Fatalf("HasInput false after enqueue")
	}
	if err := buf.EnqueueInput(10, 0, in); err != nil {
		t.Fatalf("duplicate bit-identical insert must be accepted silently: %v", err)
	}

	other := testInput(2, 10)
	if err := buf.EnqueueInput(10, 0, other); err != ErrConflictingInput {
		t.Fatalf("conflicting insert should return ErrConflictingInput, got %v", err)
	}

	got, ok := buf.GetInput(10, 0)
	if !ok || !got.Equal(in) {
		t.Fatalf("GetInput returned wrong value: %+v", got)
	}
	if _, ok := buf.GetInput(10, 1); ok {
		t.Fatalf("slot 1 should have no input for frame 10")
	}
}

func TestSnapshotRingWrapsAndEvicts(t *testing.T) {
	r := NewSnapshotRing(4)
	for f := int64(0); f < 4; f++ {
		r.Save(f, []byte{byte(f)})
	}
	if _, ok := r.TryRestore(0); !ok {
		t.Fatalf("frame 0 should still be in the ring")
	}
	r.Save(4, []byte{4}) // wraps, evicting frame 0
	if _, ok := r.TryRestore(0); ok {
		t.Fatalf("frame 0 should have been evicted by the wrap")
	}
	snap, ok := r.TryRestore(4)
	if !ok || snap[0] != 4 {
		t.Fatalf("frame 4 snapshot wrong: %v ok=%v", snap, ok)
	}
}

func TestPacketHistoryRedundancyStopsAtGap(t *testing.T) {
	h := newPacketHistory()
	h.record(5, testInput(1, 5))
	h.record(6, testInput(1, 6))
	// frame 7 deliberately not recorded before frame 8, creating a gap.
	p := h.BuildPacket(0, 8, testInput(1, 8))
	if len(p.Frames) != 1 {
		t.Fatalf("redundancy should stop at the frame-7 gap, got %d frames", len(p.Frames))
	}

	h.record(7, testInput(1, 7))
	p = h.BuildPacket(0, 8, testInput(1, 8))
	if len(p.Frames) != 4 {
		t.Fatalf("want current frame plus frames 7, 6 and 5, got %d", len(p.Frames))
	}
}

func TestPacketApplyDedupsAndReportsConflict(t *testing.T) {
	buf := NewMultiPlayerInputBuffer(2)
	p := Packet{SenderSlot: 0, Frames: []FrameInput{
		{Frame: 1, Input: testInput(1, 1)},
		{Frame: 2, Input: testInput(2, 2)},
	}}
	if err := p.Apply(buf); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if !buf.HasInput(1, 0) || !buf.HasInput(2, 0) {
		t.Fatalf("both frames should be recorded")
	}

	conflicting := Packet{SenderSlot: 0, Frames: []FrameInput{{Frame: 1, Input: testInput(99, 1)}}}
	if err := conflicting.Apply(buf); err != ErrConflictingInput {
		t.Fatalf("conflicting frame should surface ErrConflictingInput, got %v", err)
	}
}

func TestCoordinatorElectsLowestConnectedSlotOnDisconnect(t *testing.T) {
	c := NewCoordinator(4)
	if c.Current() != 0 {
		t.Fatalf("initial coordinator should be slot 0")
	}
	if newC, changed := c.Disconnect(1); changed || newC != 0 {
		t.Fatalf("disconnecting a non-coordinator must not change the role")
	}
	if newC, changed := c.Disconnect(0); !changed || newC != 2 {
		t.Fatalf("disconnecting the coordinator should elect the lowest remaining connected slot, got %d changed=%v", newC, changed)
	}
}

func TestRestartCoordinatorRequiresAllReady(t *testing.T) {
	r := NewRestartCoordinator(3)
	if r.AllReady() {
		t.Fatalf("AllReady before RequestRestart must be false")
	}
	r.RequestRestart(777)
	r.MarkReady(0)
	r.MarkReady(1)
	if r.AllReady() {
		t.Fatalf("AllReady with 2/3 marked should be false")
	}
	r.MarkReady(2)
	if !r.AllReady() || r.Seed() != 777 {
		t.Fatalf("all 3 slots ready should report AllReady with the requested seed")
	}
	r.Reset()
	if r.AllReady() {
		t.Fatalf("AllReady after Reset must be false")
	}
}

func newTestLoop(t *testing.T, maxPlayers int) (*Loop, *scheduler.Scheduler, *world.World) {
	t.Helper()
	cfg := config.AppConfig{
		Map: config.DefaultMap(), Sim: config.DefaultSim(), Grid: config.DefaultGrid(),
		RVO: config.DefaultRVO(), ZombieAI: config.DefaultZombieAI(), Combat: config.DefaultCombat(),
		Rollback: config.DefaultRollback(), Server: config.DefaultServer(),
	}
	cfg.Sim.MaxPlayers = maxPlayers
	w := world.New(cfg)
	sched := scheduler.Default(w, cfg)
	loop := NewLoop(sched, w, maxPlayers, 4, 8, 0)
	return loop, sched, w
}

func TestLoopAdvancesOnLocalInputOnly(t *testing.T) {
	loop, sched, _ := newTestLoop(t, 1)
	loop.SubmitLocalInput(1, testInput(1, 1))
	loop.RunOneIteration()
	if loop.Stalled() {
		t.Fatalf("loop should not stall with the only slot's input present")
	}
	if sched.CurrentFrame() != 1 {
		t.Fatalf("CurrentFrame = %d, want 1", sched.CurrentFrame())
	}
}

func TestLoopStallsWhenInputLagsTooFar(t *testing.T) {
	loop, sched, _ := newTestLoop(t, 2) // slot 1 never submits input
	for i := 0; i < 10; i++ {
		loop.SubmitLocalInput(sched.CurrentFrame()+1, testInput(1, sched.CurrentFrame()+1))
		loop.RunOneIteration()
	}
	if !loop.Stalled() {
		t.Fatalf("loop should stall once slot 1's missing input exceeds maxFramesAhead")
	}
}

func TestLoopResimulatesOnRetroactiveCorrection(t *testing.T) {
	loop, sched, _ := newTestLoop(t, 2) // slot 0 local, slot 1 over the network
	var snapshotAt2 []byte
	loop.OnFrameAdvanced = func(frame int64, snapshot []byte) {
		if frame == 2 {
			snapshotAt2 = append([]byte(nil), snapshot...)
		}
	}

	// Frame 1 and 2 both simulate with slot 1 predicted (duplicate-last,
	// which is the zero Input since nothing has arrived yet for slot 1).
	for f := int64(1); f <= 2; f++ {
		loop.SubmitLocalInput(f, testInput(1, f))
		loop.RunOneIteration()
	}
	if sched.CurrentFrame() != 2 {
		t.Fatalf("expected 2 frames simulated, got %d", sched.CurrentFrame())
	}
	if snapshotAt2 == nil {
		t.Fatalf("frame 2 should have published a snapshot")
	}

	// Slot 1's real input for frame 2 now arrives, non-empty and therefore
	// different from the predicted zero-value Input recorded during
	// advanceOneFrame — this must trigger a resim from frame 2.
	loop.SubmitPacket(Packet{SenderSlot: 1, Frames: []FrameInput{{Frame: 2, Input: testInput(9, 2)}}})
	loop.SubmitLocalInput(3, testInput(1, 3))
	loop.RunOneIteration()

	if sched.CurrentFrame() != 3 {
		t.Fatalf("CurrentFrame after resim + advance = %d, want 3", sched.CurrentFrame())
	}
}
