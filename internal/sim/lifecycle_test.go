package sim

import (
	"testing"

	"fight-club-sim/internal/ecs"
	"fight-club-sim/internal/fixedmath"
)

// blockedTiles implements TerrainQuery by marking a fixed set of (x, y)
// tile coordinates impassable; everything else is open ground.
type blockedTiles map[[2]int]bool

func (b blockedTiles) IsPassable(tileX, tileY int, ignoreBuildings bool) bool {
	return !b[[2]int{tileX, tileY}]
}

func TestApplyMovementStraightWhenOpen(t *testing.T) {
	terrain := blockedTiles{}
	tileSize := fixedmath.FromInt(10)
	dt := fixedmath.FromFloat(1)
	pos := fixedmath.Vec2{}
	vel := fixedmath.NewVec2(fixedmath.FromInt(3), fixedmath.FromInt(4))

	newPos, newVel := ApplyMovement(terrain, tileSize, dt, pos, vel, false)
	if newPos != pos.Add(vel.Scale(dt)) {
		t.Fatalf("newPos = %+v, want straight move", newPos)
	}
	if newVel != vel {
		t.Fatalf("newVel should be unchanged on an unobstructed move")
	}
}

func TestApplyMovementZeroVelocityIsNoop(t *testing.T) {
	terrain := blockedTiles{}
	pos := fixedmath.NewVec2(fixedmath.FromInt(5), fixedmath.FromInt(5))
	newPos, newVel := ApplyMovement(terrain, fixedmath.FromInt(10), fixedmath.FromFloat(1), pos, fixedmath.Vec2{}, false)
	if newPos != pos || !newVel.IsZero() {
		t.Fatalf("zero velocity must leave position unchanged, got pos=%+v vel=%+v", newPos, newVel)
	}
}

func TestApplyMovementSlidesAlongXWhenStraightBlocked(t *testing.T) {
	tileSize := fixedmath.FromInt(10)
	dt := fixedmath.FromFloat(1)
	pos := fixedmath.Vec2{}
	vel := fixedmath.NewVec2(fixedmath.FromInt(10), fixedmath.FromInt(10))

	straight := pos.Add(vel.Scale(dt))
	straightTile := [2]int{straight.X.Div(tileSize).ToInt(), straight.Y.Div(tileSize).ToInt()}
	slideX := fixedmath.NewVec2(pos.X.Add(vel.X.Mul(dt)), pos.Y)
	slideXTile := [2]int{slideX.X.Div(tileSize).ToInt(), slideX.Y.Div(tileSize).ToInt()}

	terrain := blockedTiles{straightTile: true}
	newPos, newVel := ApplyMovement(terrain, tileSize, dt, pos, vel, false)
	if newPos != slideX {
		t.Fatalf("newPos = %+v, want slide-along-X to %+v (tile %v open)", newPos, slideX, slideXTile)
	}
	if newVel.Y.Raw() != 0 || newVel.X != vel.X {
		t.Fatalf("slide-along-X should zero Y velocity, got %+v", newVel)
	}
}

func TestApplyMovementStaysPutWhenFullyBlocked(t *testing.T) {
	tileSize := fixedmath.FromInt(10)
	dt := fixedmath.FromFloat(1)
	pos := fixedmath.Vec2{}
	vel := fixedmath.NewVec2(fixedmath.FromInt(10), fixedmath.FromInt(10))

	terrain := blockedTiles{
		{1, 1}: true, // straight
		{1, 0}: true, // slide X
		{0, 1}: true, // slide Y
	}
	newPos, newVel := ApplyMovement(terrain, tileSize, dt, pos, vel, false)
	if newPos != pos {
		t.Fatalf("fully blocked movement should leave position unchanged, got %+v", newPos)
	}
	if !newVel.IsZero() {
		t.Fatalf("fully blocked movement should zero velocity, got %+v", newVel)
	}
}

func TestCombatUnitDeathPassMarksAndFrees(t *testing.T) {
	tbl := ecs.NewTable[CombatUnitRow](0, ecs.TableConfig{Capacity: 2}, nil)
	_, row, err := tbl.Allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	row.Health = fixedmath.Fixed64(0)
	lostCalls := 0

	CombatUnitDeathPass(tbl, 100, 5, func() { lostCalls++ })
	if !row.Flags.Dead() || row.DeathFrame != 100 {
		t.Fatalf("unit with 0 health should be marked dead at frame 100: %+v", row)
	}
	if lostCalls != 1 {
		t.Fatalf("onUnitLost should fire exactly once, got %d", lostCalls)
	}
	if tbl.Count() != 1 {
		t.Fatalf("unit should not be freed before its death delay elapses")
	}

	CombatUnitDeathPass(tbl, 104, 5, func() { lostCalls++ })
	if tbl.Count() != 1 {
		t.Fatalf("unit should still be present one frame before the delay elapses")
	}

	CombatUnitDeathPass(tbl, 105, 5, func() { lostCalls++ })
	if tbl.Count() != 0 {
		t.Fatalf("unit should be freed once its death delay has fully elapsed")
	}
	if lostCalls != 1 {
		t.Fatalf("onUnitLost must not fire again on later passes, got %d calls", lostCalls)
	}
}

func TestValidatePlacementRejectsOutOfBoundsAndOccupied(t *testing.T) {
	terrain := blockedTiles{}
	occupied := func(x, y int32) bool { return x == 2 && y == 2 }

	inBounds := PlacementRequest{TileX: 0, TileY: 0, Width: 2, Height: 2}
	if !ValidatePlacement(inBounds, 10, 10, terrain, occupied) {
		t.Fatalf("an open, in-bounds footprint should be valid")
	}

	outOfBounds := PlacementRequest{TileX: 9, TileY: 9, Width: 2, Height: 2}
	if ValidatePlacement(outOfBounds, 10, 10, terrain, occupied) {
		t.Fatalf("a footprint extending past the map edge must be rejected")
	}

	overlapping := PlacementRequest{TileX: 1, TileY: 1, Width: 2, Height: 2}
	if ValidatePlacement(overlapping, 10, 10, terrain, occupied) {
		t.Fatalf("a footprint overlapping an occupied tile must be rejected")
	}

	needsClearGround := PlacementRequest{TileX: 0, TileY: 0, Width: 1, Height: 1, RequiresClearGround: true}
	blockedTerrain := blockedTiles{{0, 0}: true}
	if ValidatePlacement(needsClearGround, 10, 10, blockedTerrain, occupied) {
		t.Fatalf("RequiresClearGround footprint over impassable terrain must be rejected")
	}
}
