package rollback

// Coordinator tracks which connected slot is the current single-writer
// coordinator: slot 0 initially; on disconnect, the lowest
// still-connected slot takes over. The coordinator owns restart-seed
// generation, hot-reload frame broadcast, and other single-writer tasks —
// those tasks live in the caller (cmd/server), this type only tracks who
// currently holds the role.
type Coordinator struct {
	connected map[int]bool
	current   int
}

func NewCoordinator(maxPlayers int) *Coordinator {
	connected := make(map[int]bool, maxPlayers)
	for i := 0; i < maxPlayers; i++ {
		connected[i] = true
	}
	return &Coordinator{connected: connected, current: 0}
}

// Current returns the slot currently acting as coordinator.
func (c *Coordinator) Current() int { return c.current }

// IsCoordinator reports whether slot is the current coordinator.
func (c *Coordinator) IsCoordinator(slot int) bool { return slot == c.current }

// Disconnect marks slot disconnected and, if it held the coordinator role,
// re-elects the lowest remaining connected slot. Returns (newCoordinator,
// changed).
func (c *Coordinator) Disconnect(slot int) (int, bool) {
	c.connected[slot] = false
	if slot != c.current {
		return c.current, false
	}
	for s := 0; s < len(c.connected); s++ {
		if c.connected[s] {
			c.current = s
			return c.current, true
		}
	}
	return c.current, false
}

// Reconnect marks slot connected again. It never takes the coordinator role
// away from whoever currently holds it — election only runs on disconnect.
func (c *Coordinator) Reconnect(slot int) {
	c.connected[slot] = true
}
