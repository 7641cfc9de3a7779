package desync

import (
	"testing"
	"time"
)

func TestHashSnapshotDeterministic(t *testing.T) {
	a := []byte("frame-42-state")
	b := []byte("frame-42-state")
	c := []byte("frame-43-state")

	if HashSnapshot(a) != HashSnapshot(b) {
		t.Fatalf("identical bytes must hash identically")
	}
	if HashSnapshot(a) == HashSnapshot(c) {
		t.Fatalf("different bytes hashed to the same value")
	}
}

func TestDetectorMatchLocalThenRemote(t *testing.T) {
	d := NewDetector()
	d.RecordLocal(10, 0xABCD)
	d.RecordRemote(1, 10, 0xABCD)
	if d.Detected() {
		t.Fatalf("matching hashes must not trip the latch")
	}
	if _, ok := d.localHashes[10]; ok {
		t.Fatalf("matched local hash should be cleared to bound map growth")
	}
}

func TestDetectorMatchRemoteThenLocal(t *testing.T) {
	d := NewDetector()
	d.RecordRemote(1, 10, 0xABCD)
	d.RecordLocal(10, 0xABCD)
	if d.Detected() {
		t.Fatalf("matching hashes must not trip the latch regardless of arrival order")
	}
}

func TestDetectorMismatchLatchesFirstOnly(t *testing.T) {
	d := NewDetector()
	d.RecordLocal(10, 0xAAAA)
	d.RecordRemote(1, 10, 0xBBBB)
	if !d.Detected() {
		t.Fatalf("diverging hashes should trip the latch")
	}
	mismatch, ok := d.FirstMismatch()
	if !ok || mismatch.Frame != 10 || mismatch.Slot != 1 {
		t.Fatalf("wrong FirstMismatch: %+v ok=%v", mismatch, ok)
	}

	// A second, later mismatch must not overwrite the first.
	d.RecordLocal(20, 0x1111)
	d.RecordRemote(2, 20, 0x2222)
	second, _ := d.FirstMismatch()
	if second.Frame != 10 || second.Slot != 1 {
		t.Fatalf("latch should stay on the first mismatch, got %+v", second)
	}
}

func TestDetectorForgetBoundsMapGrowth(t *testing.T) {
	d := NewDetector()
	d.RecordLocal(1, 1)
	d.RecordLocal(2, 2)
	d.RecordRemote(0, 5, 5) // stashed, no matching local yet

	d.Forget(2)
	if _, ok := d.localHashes[1]; ok {
		t.Fatalf("frame 1 local hash should have been forgotten")
	}
	if _, ok := d.localHashes[2]; ok {
		t.Fatalf("frame 2 local hash should have been forgotten")
	}
	if _, ok := d.remoteHashes[5]; !ok {
		t.Fatalf("frame 5 remote hash is past upToFrame and should survive")
	}
}

func TestValidatorSubmitHashInlineAndShutdown(t *testing.T) {
	v := NewValidator()
	v.Start()

	snapshot := []byte("some-world-snapshot-bytes")
	want := HashInline(snapshot)

	if !v.Submit(7, snapshot) {
		t.Fatalf("Submit should succeed with an empty queue")
	}

	deadline := time.Now().Add(time.Second)
	var got []HashResult
	for time.Now().Before(deadline) {
		got = v.DrainResults()
		if len(got) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if len(got) != 1 || got[0].Frame != 7 || got[0].Hash != want {
		t.Fatalf("DrainResults = %+v, want one result for frame 7 hash %x", got, want)
	}

	if !v.Shutdown(time.Second) {
		t.Fatalf("Shutdown should complete within the timeout")
	}
}

func TestValidatorSubmitDropsOnFullQueue(t *testing.T) {
	v := NewValidator() // worker never started: jobs queue fills and stays full
	ok := true
	for i := 0; i < validatorQueueCapacity+8 && ok; i++ {
		ok = v.Submit(int64(i), []byte("x"))
	}
	if ok {
		t.Fatalf("Submit should eventually report false once the job queue fills")
	}
	if v.DroppedJobs.Load() == 0 {
		t.Fatalf("DroppedJobs should count the rejected submission")
	}
}
