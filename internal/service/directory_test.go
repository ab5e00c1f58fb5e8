package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
	"github.com/iliyamo/desk-seat-reservation/internal/model"
	"github.com/iliyamo/desk-seat-reservation/internal/repository"
)

func strPtr(s string) *string { return &s }

func TestOccupancyOfPicksLowestIDOnDuplicateClaims(t *testing.T) {
	seat := model.Seat{ID: "S1"}
	people := []model.Person{
		{ID: "P9", AssignedSeat: strPtr("S1")},
		{ID: "P2", TemporaryHold: &model.Hold{SeatID: "S1", ExpiresAt: t0.Add(time.Hour)}},
		{ID: "P5", AssignedSeat: strPtr("S1")},
	}
	occ := OccupancyOf(seat, people, t0)
	if occ.Holder == nil || occ.Holder.ID != "P2" || occ.Kind != model.HoldTemporary {
		t.Fatalf("unexpected occupancy %+v", occ)
	}
	// reordering the input must not change the answer
	reversed := []model.Person{people[2], people[1], people[0]}
	if got := OccupancyOf(seat, reversed, t0); got.Holder.ID != "P2" {
		t.Fatalf("order dependent result: %s", got.Holder.ID)
	}
}

func TestOccupancyOfIgnoresLapsedAndOtherSeats(t *testing.T) {
	seat := model.Seat{ID: "S1"}
	people := []model.Person{
		{ID: "P1", TemporaryHold: &model.Hold{SeatID: "S1", ExpiresAt: t0}},
		{ID: "P2", AssignedSeat: strPtr("S2")},
	}
	if occ := OccupancyOf(seat, people, t0); !occ.IsVacant() {
		t.Fatalf("want vacant, got %+v", occ)
	}
}

func TestListSeatsOrdersByRankAndDropsPlaceholders(t *testing.T) {
	f := newFixture(t)
	seats, err := f.dir.ListSeats(context.Background(), "8")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, s := range seats {
		ids = append(ids, s.ID)
	}
	if len(ids) != 3 || ids[0] != "S1" || ids[1] != "S2" || ids[2] != "S3" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestFloorMapJoinsHolders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Acquire(ctx, "A", "S2", t0); err != nil {
		t.Fatal(err)
	}
	m, err := f.dir.FloorMap(ctx, "8", t0)
	if err != nil {
		t.Fatal(err)
	}
	for _, so := range m {
		switch so.Seat.ID {
		case "S2":
			assertHeldBy(t, so.Occupancy, "A")
			if so.Occupancy.Holder.Name != "person A" {
				t.Fatalf("holder display fields missing: %+v", so.Occupancy.Holder)
			}
		default:
			if !so.Occupancy.IsVacant() {
				t.Fatalf("%s should be vacant", so.Seat.ID)
			}
		}
	}
}

type failingSeats struct{}

func (failingSeats) ListByFloor(context.Context, string) ([]model.Seat, error) {
	return nil, repository.ErrUnavailable
}

func (failingSeats) GetByID(context.Context, string) (*model.Seat, error) {
	return nil, repository.ErrUnavailable
}

func TestDirectoryPropagatesTransient(t *testing.T) {
	d := NewDirectory(failingSeats{}, repository.NewMemoryStore().People(), time.Second)
	_, err := d.ListSeats(context.Background(), "8")
	if !errors.Is(err, apperror.ErrTransient) {
		t.Fatalf("want transient, got %v", err)
	}
}
