package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/desk-seat-reservation/internal/model"
)

const seedJSON = `{
  "seats": [
    {"id": "S1", "label": "8-A01", "floor": "8", "rank": 1},
    {"id": "S2", "label": "8-A02", "floor": "8", "rank": 3},
    {"id": "S3", "label": "empty", "floor": "8", "rank": 9},
    {"id": "S4", "label": "9-B01", "floor": "9", "rank": 1}
  ],
  "people": [
    {"id": "P1", "name": "Ana"},
    {"id": "P2", "name": "Bo", "assigned_seat": "S1"}
  ]
}`

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	if err := m.LoadSeed(strings.NewReader(seedJSON)); err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	return m
}

func TestMemoryListByFloorOrdersAndFilters(t *testing.T) {
	m := seededStore(t)
	seats, err := m.Seats().ListByFloor(context.Background(), "8")
	if err != nil {
		t.Fatal(err)
	}
	if len(seats) != 2 || seats[0].ID != "S2" || seats[1].ID != "S1" {
		t.Fatalf("unexpected seats %+v", seats)
	}
	if _, err := m.Seats().GetByID(context.Background(), "S3"); !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("placeholder must not be found, got %v", err)
	}
}

func TestMemoryAcquireHoldChecks(t *testing.T) {
	m := seededStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	people := m.People()

	if err := people.AcquireHold(ctx, "P1", "S1", now, now.Add(time.Hour)); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("assigned seat of P2: want ErrSeatTaken, got %v", err)
	}
	if err := people.AcquireHold(ctx, "P2", "S1", now, now.Add(time.Hour)); !errors.Is(err, ErrAlreadyHolding) {
		t.Fatalf("own assigned seat: want ErrAlreadyHolding, got %v", err)
	}
	if err := people.AcquireHold(ctx, "P1", "S2", now, now.Add(time.Hour)); err != nil {
		t.Fatalf("AcquireHold: %v", err)
	}
	if err := people.AcquireHold(ctx, "P1", "S4", now, now.Add(time.Hour)); !errors.Is(err, ErrAlreadyHolding) {
		t.Fatalf("second hold: want ErrAlreadyHolding, got %v", err)
	}
	if err := people.AcquireHold(ctx, "P1", "missing", now, now.Add(time.Hour)); !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("want ErrSeatNotFound, got %v", err)
	}
}

func TestMemoryExpiredHoldIsReplacedLazily(t *testing.T) {
	m := seededStore(t)
	m.PutPerson(model.Person{ID: "P3"})
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	people := m.People()

	if err := people.AcquireHold(ctx, "P1", "S2", now, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	later := now.Add(time.Hour)
	if err := people.AcquireHold(ctx, "P3", "S2", later, later.Add(time.Hour)); err != nil {
		t.Fatalf("hold expiring exactly at now must not block: %v", err)
	}
	p1, _ := people.GetByID(ctx, "P1")
	if p1.TemporaryHold != nil {
		t.Fatalf("expired hold should be cleared, got %+v", p1.TemporaryHold)
	}
}

func TestMemoryClearExpiredHoldSkipsRenewed(t *testing.T) {
	m := seededStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	people := m.People()

	m.PutPerson(model.Person{ID: "P1", TemporaryHold: &model.Hold{SeatID: "S2", ExpiresAt: now.Add(-time.Minute)}})
	expired, _ := people.ListExpiredHolds(ctx, now)
	if len(expired) != 1 {
		t.Fatalf("want 1 expired, got %d", len(expired))
	}
	// renewed between listing and clearing
	m.PutPerson(model.Person{ID: "P1", TemporaryHold: &model.Hold{SeatID: "S2", ExpiresAt: now.Add(time.Hour)}})
	cleared, err := people.ClearExpiredHold(ctx, "P1", now)
	if err != nil || cleared {
		t.Fatalf("want (false, nil), got (%v, %v)", cleared, err)
	}
}

func TestMemoryAssignSeat(t *testing.T) {
	m := seededStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	people := m.People()

	s1 := "S1"
	if err := people.AssignSeat(ctx, "P1", &s1, now); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("want ErrSeatTaken, got %v", err)
	}
	if err := people.AssignSeat(ctx, "P2", nil, now); err != nil {
		t.Fatal(err)
	}
	if err := people.AssignSeat(ctx, "P1", &s1, now); err != nil {
		t.Fatalf("seat freed by unassign: %v", err)
	}
	claimants, _ := people.ListClaimants(ctx, []string{"S1"})
	if len(claimants) != 1 || claimants[0].ID != "P1" {
		t.Fatalf("unexpected claimants %+v", claimants)
	}
}

const seedYAML = `
seats:
  - {id: S1, label: 8-A01, floor: "8", rank: 1}
  - {id: S2, label: 8-A02, floor: "8", rank: 3}
people:
  - id: P1
    name: Ana
    temporary_hold:
      seat_id: S2
      expires_at: 2024-05-06T13:00:00Z
  - id: P2
    name: Bo
    assigned_seat: S1
`

func TestLoadSeedFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewMemoryStore()
	if err := m.LoadSeedFile(path); err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}

	p1, err := m.People().GetByID(context.Background(), "P1")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 5, 6, 13, 0, 0, 0, time.UTC)
	if p1.TemporaryHold == nil || p1.TemporaryHold.SeatID != "S2" || !p1.TemporaryHold.ExpiresAt.Equal(want) {
		t.Fatalf("unexpected hold %+v", p1.TemporaryHold)
	}
	p2, err := m.People().GetByID(context.Background(), "P2")
	if err != nil {
		t.Fatal(err)
	}
	if p2.AssignedSeat == nil || *p2.AssignedSeat != "S1" {
		t.Fatalf("unexpected assigned seat %v", p2.AssignedSeat)
	}
}

func TestLoadSeedFileDefaultsToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(seedJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewMemoryStore()
	if err := m.LoadSeedFile(path); err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	seats, err := m.Seats().ListByFloor(context.Background(), "9")
	if err != nil || len(seats) != 1 {
		t.Fatalf("floor 9: %v %+v", err, seats)
	}
}
