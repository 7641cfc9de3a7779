package world

import "fight-club-sim/internal/ecs"

// Table ids are compile-time constants, ascending in the order queries must
// visit them.
const (
	TableCombatUnits ecs.TableID = iota
	TableZombies
	TableBuildings
	TableProjectiles
	TablePlayers
	TableResourceNodes
)
