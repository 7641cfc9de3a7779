package desync

import (
	"fmt"

	"github.com/fogleman/gg"

	"fight-club-sim/internal/scheduler"
	"fight-club-sim/internal/world"
)

// SystemHash is one system's post-execution world hash during a per-system
// re-simulation.
type SystemHash struct {
	Name string
	Hash uint64
}

// PerSystemHashes restores preFrameSnapshot into w, then runs every system
// scheduled to fire on frame in order, hashing w after each — pinpointing
// exactly which system's output first diverges between peers.
func PerSystemHashes(sched *scheduler.Scheduler, w *world.World, frame int64, preFrameSnapshot []byte) ([]SystemHash, error) {
	if err := w.Restore(preFrameSnapshot); err != nil {
		return nil, err
	}
	var out []SystemHash
	for _, sys := range sched.Systems() {
		if !sys.ShouldRun(frame) {
			continue
		}
		ctx := scheduler.SimulationContext{
			CurrentFrame: frame,
			SessionSeed:  sched.SessionSeed(),
			DeltaSeconds: sched.DeltaSecondsFor(sys.Interval),
		}
		sys.Fn(w, ctx)
		out = append(out, SystemHash{Name: sys.Name, Hash: HashSnapshot(w.Snapshot())})
	}
	return out, nil
}

// ExportDiagnostic renders a human-readable PNG report at path: the
// mismatched frame and hashes, and the per-system hash list with
// firstDivergentSystem highlighted.
func ExportDiagnostic(path string, mismatch Mismatch, perSystem []SystemHash, firstDivergentSystem string) error {
	width := 900
	height := 120 + 24*(len(perSystem)+3)
	dc := gg.NewContext(width, height)

	dc.SetRGB(0.07, 0.07, 0.09)
	dc.Clear()

	dc.SetRGB(1, 0.3, 0.3)
	dc.DrawString(fmt.Sprintf("DESYNC at frame %d (slot %d)", mismatch.Frame, mismatch.Slot), 20, 30)

	dc.SetRGB(0.9, 0.9, 0.9)
	dc.DrawString(fmt.Sprintf("local_hash=%016x remote_hash=%016x", mismatch.LocalHash, mismatch.RemoteHash), 20, 55)
	dc.DrawString("Per-system hashes for the diverging frame:", 20, 90)

	y := 120.0
	for _, sh := range perSystem {
		if sh.Name == firstDivergentSystem {
			dc.SetRGB(1, 0.3, 0.3)
		} else {
			dc.SetRGB(0.8, 0.8, 0.8)
		}
		dc.DrawString(fmt.Sprintf("%-32s %016x", sh.Name, sh.Hash), 20, y)
		y += 24
	}

	return dc.SavePNG(path)
}
