package service

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/desk-seat-reservation/internal/model"
)

// SeatStore is the read side of the seat table.
type SeatStore interface {
	ListByFloor(ctx context.Context, floor string) ([]model.Seat, error)
	GetByID(ctx context.Context, id string) (*model.Seat, error)
}

// Directory serves the read-only seat views: the per-floor seat list and
// the floor map joined with occupancy.
type Directory struct {
	seats     SeatStore
	people    PersonStore
	opTimeout time.Duration
}

// NewDirectory returns a Directory.  opTimeout bounds each store call.
func NewDirectory(seats SeatStore, people PersonStore, opTimeout time.Duration) *Directory {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Directory{seats: seats, people: people, opTimeout: opTimeout}
}

// ListSeats returns the seats of floor, highest rank first, without
// placeholder cells.
func (d *Directory) ListSeats(ctx context.Context, floor string) ([]model.Seat, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	seats, err := d.seats.ListByFloor(ctx, floor)
	if err != nil {
		return nil, translate(err, "", "")
	}
	out := make([]model.Seat, 0, len(seats))
	for _, s := range seats {
		if !s.IsPlaceholder() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank > out[j].Rank })
	return out, nil
}

// FloorMap returns every seat of floor with its occupancy at now.
func (d *Directory) FloorMap(ctx context.Context, floor string, now time.Time) ([]model.SeatOccupancy, error) {
	seats, err := d.ListSeats(ctx, floor)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}

	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()
	people, err := d.people.ListClaimants(ctx, ids)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return resolveFloor(seats, people, now), nil
}

// Occupancy resolves a single seat at now.
func (d *Directory) Occupancy(ctx context.Context, seatID string, now time.Time) (model.Occupancy, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	seat, err := d.seats.GetByID(ctx, seatID)
	if err != nil {
		return model.Occupancy{}, translate(err, "", seatID)
	}
	people, err := d.people.ListClaimants(ctx, []string{seat.ID})
	if err != nil {
		return model.Occupancy{}, translate(err, "", seatID)
	}
	return OccupancyOf(*seat, people, now), nil
}
