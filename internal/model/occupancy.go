package model

import "time"

// OccupancyStatus is the read-side state of a seat.
type OccupancyStatus string

const (
	StatusVacant OccupancyStatus = "VACANT"
	StatusHeld   OccupancyStatus = "HELD"
)

// Occupancy is either Vacant (Holder nil) or HeldBy(Holder, Kind).
type Occupancy struct {
	Status    OccupancyStatus
	Holder    *Person
	Kind      HoldKind
	ExpiresAt *time.Time // set for temporary holds only
}

// Vacant returns the vacant occupancy value.
func Vacant() Occupancy { return Occupancy{Status: StatusVacant} }

// HeldBy builds an occupied value for the given holder and claim kind.
func HeldBy(p Person, kind HoldKind) Occupancy {
	o := Occupancy{Status: StatusHeld, Holder: &p, Kind: kind}
	if kind == HoldTemporary && p.TemporaryHold != nil {
		exp := p.TemporaryHold.ExpiresAt
		o.ExpiresAt = &exp
	}
	return o
}

// IsVacant reports whether nobody holds the seat.
func (o Occupancy) IsVacant() bool { return o.Status != StatusHeld }

// SeatOccupancy pairs a seat with its resolved occupancy for the floor map.
type SeatOccupancy struct {
	Seat      Seat
	Occupancy Occupancy
}
