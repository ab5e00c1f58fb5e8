package service

import (
	"sort"
	"time"

	"github.com/iliyamo/desk-seat-reservation/internal/model"
)

// OccupancyOf resolves who holds seat at now.  A seat is held when a
// person's assigned seat is the seat, or their temporary hold targets it
// and has not lapsed.  If the data ever carries more than one claimant,
// the one with the lowest person id wins so the answer is stable.
func OccupancyOf(seat model.Seat, people []model.Person, now time.Time) model.Occupancy {
	var (
		winner *model.Person
		kind   model.HoldKind
	)
	for i := range people {
		k, ok := people[i].ClaimOn(seat.ID, now)
		if !ok {
			continue
		}
		if winner == nil || people[i].ID < winner.ID {
			winner, kind = &people[i], k
		}
	}
	if winner == nil {
		return model.Vacant()
	}
	return model.HeldBy(*winner, kind)
}

// resolveFloor resolves every seat against the same snapshot of people.
func resolveFloor(seats []model.Seat, people []model.Person, now time.Time) []model.SeatOccupancy {
	sorted := append([]model.Person(nil), people...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := make([]model.SeatOccupancy, 0, len(seats))
	for _, s := range seats {
		out = append(out, model.SeatOccupancy{Seat: s, Occupancy: OccupancyOf(s, sorted, now)})
	}
	return out
}
