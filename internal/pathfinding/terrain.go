// Package pathfinding implements the sector/zone/portal world partition and
// the hierarchical flow-field solver — the hardest and
// largest component of the simulation. Grounded on
// spatial.FlowField (single global BFS field over a uniform grid,
// internal/game/spatial/flowfield.go), generalized here into a two-level
// hierarchy (sector+zone) with portal-seeded Dijkstra so flow fields stay
// bounded in size regardless of map extent.
package pathfinding

// TerrainQuery answers tile passability. ignoreBuildings lets zombies
// "pretend buildings are passable" while pathing even
// though the combat layer still resolves attack-on-arrival against them.
type TerrainQuery interface {
	IsPassable(tileX, tileY int, ignoreBuildings bool) bool
	Bounds() (widthTiles, heightTiles int)
}

// TileCoord is an integer tile position.
type TileCoord struct {
	X, Y int
}

func tileIndex(local TileCoord, sectorSize int) int {
	return local.Y*sectorSize + local.X
}
