// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// SeatEventType names what happened to a seat claim.
type SeatEventType string

const (
	EventHoldAcquired   SeatEventType = "hold.acquired"
	EventHoldReleased   SeatEventType = "hold.released"
	EventHoldExpired    SeatEventType = "hold.expired"
	EventSeatAssigned   SeatEventType = "seat.assigned"
	EventSeatUnassigned SeatEventType = "seat.unassigned"
)

// SeatEvent is published after a claim changes.  It carries enough
// information for downstream consumers to keep an audit trail without
// querying the primary database.
type SeatEvent struct {
	EventID    string        `json:"event_id"`
	Type       SeatEventType `json:"type"`
	PersonID   string        `json:"person_id"`
	SeatID     string        `json:"seat_id,omitempty"`
	ActorID    string        `json:"actor_id,omitempty"` // admin acting on behalf of PersonID
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewSeatEvent stamps a fresh event id.
func NewSeatEvent(typ SeatEventType, personID, seatID string, at time.Time) SeatEvent {
	return SeatEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		PersonID:   personID,
		SeatID:     seatID,
		OccurredAt: at.UTC(),
	}
}
