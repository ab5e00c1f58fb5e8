package model

import "strings"

// PlaceholderLabel marks layout filler cells in the floor grid.  Seats
// carrying this label keep the grid aligned but are never listed or
// reservable.
const PlaceholderLabel = "empty"

// Seat describes a physical desk on a floor.  Seats are reference data
// created by administrators; the reservation core never creates or
// deletes them.
//
// Fields:
//  ID    – primary key identifier (opaque string).
//  Label – human readable seat number, e.g. "8-A12".
//  Floor – floor the seat belongs to, e.g. "8".
//  Rank  – display ordering rank; higher ranks are listed first.
type Seat struct {
	ID    string `json:"id" yaml:"id"`       // seats.id
	Label string `json:"label" yaml:"label"` // seats.seat_number
	Floor string `json:"floor" yaml:"floor"` // seats.floor
	Rank  int    `json:"rank" yaml:"rank"`   // seats.arrange
}

// IsPlaceholder reports whether the seat is a layout placeholder.
func (s Seat) IsPlaceholder() bool {
	return strings.EqualFold(strings.TrimSpace(s.Label), PlaceholderLabel)
}
