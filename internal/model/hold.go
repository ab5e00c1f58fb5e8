package model

import "time"

// HoldKind distinguishes the two claims a person can have on a seat.
type HoldKind string

const (
	// HoldAssigned is a permanent desk set by an administrator.  It never expires.
	HoldAssigned HoldKind = "ASSIGNED"
	// HoldTemporary is a self-service free-seat booking that lapses at ExpiresAt.
	HoldTemporary HoldKind = "TEMPORARY"
)

// Hold is a time-bounded claim on a seat.  It is denormalised onto the
// Person row (people.temp_seat_id / people.temp_expires_at).  A nil *Hold
// means no hold is recorded.
type Hold struct {
	SeatID    string    `json:"seat_id" yaml:"seat_id"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// ActiveAt reports whether the hold is still in force at now.  A hold is
// active iff expiresAt > now; nil holds are never active.
func (h *Hold) ActiveAt(now time.Time) bool {
	return h != nil && h.ExpiresAt.After(now)
}

// Remaining returns the time left on the hold at now, or zero once lapsed.
func (h *Hold) Remaining(now time.Time) time.Duration {
	if !h.ActiveAt(now) {
		return 0
	}
	return h.ExpiresAt.Sub(now)
}
