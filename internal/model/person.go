package model

import "time"

// Person mirrors a row of the `people` table (the user profile).  Each
// person carries at most one assigned seat and at most one temporary
// hold; the two are independent of each other.
//
// Fields:
//  ID            – primary key identifier (UUID string, matches the JWT subject).
//  Name          – display name.
//  Department    – department shown next to the holder on the seat map.
//  Position      – job title.
//  AssignedSeat  – permanent desk (nil when unassigned).
//  TemporaryHold – self-service booking (nil when absent).
type Person struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Department    string  `json:"department" yaml:"department"`
	Position      string  `json:"position" yaml:"position"`
	AssignedSeat  *string `json:"assigned_seat,omitempty" yaml:"assigned_seat,omitempty"`
	TemporaryHold *Hold   `json:"temporary_hold,omitempty" yaml:"temporary_hold,omitempty"`
}

// ActiveHold returns the temporary hold if it is still active at now.
// Expired holds are logically absent even before the sweep clears them.
func (p Person) ActiveHold(now time.Time) *Hold {
	if p.TemporaryHold.ActiveAt(now) {
		return p.TemporaryHold
	}
	return nil
}

// ClaimOn reports whether the person holds seatID at now and with which
// kind of claim.  The assigned seat takes precedence when both point at
// the same seat.
func (p Person) ClaimOn(seatID string, now time.Time) (HoldKind, bool) {
	if p.AssignedSeat != nil && *p.AssignedSeat == seatID {
		return HoldAssigned, true
	}
	if h := p.ActiveHold(now); h != nil && h.SeatID == seatID {
		return HoldTemporary, true
	}
	return "", false
}
