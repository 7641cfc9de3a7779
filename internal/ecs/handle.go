// Package ecs implements the columnar entity store described by the
// simulation's data model: generational stable handles over dense,
// swap-remove tables, with an optional uniform-grid spatial index per table.
package ecs

import "fmt"

// TableID identifies one of the world's fixed, name-known tables.
type TableID uint16

// Handle is a generational stable reference: (table, raw id, generation).
// A handle is valid for a table iff Generation equals the table's current
// generation for RawID. The zero value is the invalid sentinel — table
// generations therefore start at 1, never 0, so a freshly-allocated row
// never collides with the sentinel.
type Handle struct {
	Table      TableID
	RawID      uint32
	Generation uint16
}

// Invalid is the sentinel handle, equal to the zero value.
var Invalid = Handle{}

func (h Handle) IsValid() bool { return h != Invalid }

func (h Handle) String() string {
	return fmt.Sprintf("Handle(table=%d,raw=%d,gen=%d)", h.Table, h.RawID, h.Generation)
}

// Error is a sentinel error type for the deterministic, in-tick-recoverable
// error kinds returned by tick systems — these never abort a tick; callers check them
// locally (StaleHandle -> no-op, CapacityExceeded -> skip-and-log-once).
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrStaleHandle      Error = "ecs: stale handle"
	ErrCapacityExceeded Error = "ecs: capacity exceeded"
)
