package world

import (
	"bytes"
	"encoding/gob"

	"fight-club-sim/internal/sim"
)

// Snapshot is the rollback/desync ring's serialized unit. Non-simulation caches — the spatial index, the
// pathfinding flow-field LRUs, the building-occupancy grid — are excluded
// and rebuilt from the restored tables instead of serialized, since they
// are pure functions of table contents.
type worldState struct {
	CombatUnits   []byte
	Zombies       []byte
	Buildings     []byte
	Projectiles   []byte
	Players       []byte
	ResourceNodes []byte
	Commands      []byte
	Wave          sim.WaveState
	Stats         sim.MatchStats
}

// Snapshot serializes the entire simulation-relevant World state to bytes.
func (w *World) Snapshot() []byte {
	state := worldState{
		CombatUnits:   w.CombatUnits.Snapshot(),
		Zombies:       w.Zombies.Snapshot(),
		Buildings:     w.Buildings.Snapshot(),
		Projectiles:   w.Projectiles.Snapshot(),
		Players:       w.Players.Snapshot(),
		ResourceNodes: w.ResourceNodes.Snapshot(),
		Commands:      w.Commands.Snapshot(),
		Wave:          w.Wave,
		Stats:         w.Stats,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		panic("world: snapshot encode: " + err.Error())
	}
	return buf.Bytes()
}

// Restore replaces every table and singleton with a previously captured
// Snapshot, then rebuilds the derived caches (spatial indices, building
// occupancy grid, pathfinding flow-field cache) from the restored tables.
func (w *World) Restore(data []byte) error {
	var state worldState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	if err := w.CombatUnits.Restore(state.CombatUnits); err != nil {
		return err
	}
	if err := w.Zombies.Restore(state.Zombies); err != nil {
		return err
	}
	if err := w.Buildings.Restore(state.Buildings); err != nil {
		return err
	}
	if err := w.Projectiles.Restore(state.Projectiles); err != nil {
		return err
	}
	if err := w.Players.Restore(state.Players); err != nil {
		return err
	}
	if err := w.ResourceNodes.Restore(state.ResourceNodes); err != nil {
		return err
	}
	if err := w.Commands.Restore(state.Commands); err != nil {
		return err
	}
	w.Wave = state.Wave
	w.Stats = state.Stats

	w.rebuildDerivedCaches()
	return nil
}

// rebuildDerivedCaches recomputes every structure that is a pure function of
// table contents rather than independent simulation state: spatial indices
// for query_radius, the building-occupancy grid IsPassable reads, and the
// pathfinding service's flow-field/zone-graph cache (invalidated wholesale
// since a restore can move arbitrarily many buildings' worth of occupancy
// in one step, unlike the incremental per-tile invalidation placement uses).
func (w *World) rebuildDerivedCaches() {
	w.CombatUnits.SpatialSort()
	w.Zombies.SpatialSort()
	w.Projectiles.SpatialSort()
	w.ResourceNodes.SpatialSort()

	for i := range w.occupancy {
		w.occupancy[i] = false
	}
	w.Buildings.ForEachSlot(func(slot int32, row *sim.BuildingRow) bool {
		if row.Flags.Dead() {
			return true
		}
		for y := row.TileY; y < row.TileY+row.Height; y++ {
			for x := row.TileX; x < row.TileX+row.Width; x++ {
				if x < 0 || y < 0 || x >= w.Map.WidthTiles || y >= w.Map.HeightTiles {
					continue
				}
				w.occupancy[int(y)*int(w.Map.WidthTiles)+int(x)] = true
			}
		}
		return true
	})
	w.Pathing.InvalidateAll()
}
