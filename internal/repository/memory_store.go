package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/iliyamo/desk-seat-reservation/internal/model"
)

// MemoryStore keeps seats and people in process memory.  It backs
// STORE_DRIVER=memory and the service tests.  A single mutex stands in for
// the row locks of the MySQL repositories, so every mutation is atomic.
type MemoryStore struct {
	mu     sync.Mutex
	seats  map[string]model.Seat
	people map[string]model.Person
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seats:  make(map[string]model.Seat),
		people: make(map[string]model.Person),
	}
}

// Seed is the document accepted by LoadSeed and LoadSeedYAML.
type Seed struct {
	Seats  []model.Seat   `json:"seats" yaml:"seats"`
	People []model.Person `json:"people" yaml:"people"`
}

// LoadSeed reads a JSON Seed document and adds its rows to the store.
func (m *MemoryStore) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	m.apply(seed)
	return nil
}

// LoadSeedYAML is LoadSeed for YAML documents.
func (m *MemoryStore) LoadSeedYAML(r io.Reader) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	m.apply(seed)
	return nil
}

// LoadSeedFile picks the decoder from the file extension: .yaml and .yml
// are YAML, anything else JSON.
func (m *MemoryStore) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return m.LoadSeedYAML(f)
	default:
		return m.LoadSeed(f)
	}
}

func (m *MemoryStore) apply(seed Seed) {
	for _, s := range seed.Seats {
		m.PutSeat(s)
	}
	for _, p := range seed.People {
		m.PutPerson(p)
	}
}

// PutSeat inserts or replaces a seat.
func (m *MemoryStore) PutSeat(s model.Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seats[s.ID] = s
}

// PutPerson inserts or replaces a person.
func (m *MemoryStore) PutPerson(p model.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[p.ID] = clonePerson(p)
}

// Seats returns the seat view of the store.
func (m *MemoryStore) Seats() *MemorySeatRepo { return &MemorySeatRepo{m: m} }

// People returns the person view of the store.
func (m *MemoryStore) People() *MemoryPersonRepo { return &MemoryPersonRepo{m: m} }

func clonePerson(p model.Person) model.Person {
	if p.AssignedSeat != nil {
		s := *p.AssignedSeat
		p.AssignedSeat = &s
	}
	if p.TemporaryHold != nil {
		h := *p.TemporaryHold
		p.TemporaryHold = &h
	}
	return p
}

// MemorySeatRepo mirrors SeatRepo over a MemoryStore.
type MemorySeatRepo struct{ m *MemoryStore }

// ListByFloor returns the non-placeholder seats of floor by rank, then label.
func (r *MemorySeatRepo) ListByFloor(_ context.Context, floor string) ([]model.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]model.Seat, 0)
	for _, s := range r.m.seats {
		if s.Floor == floor && !s.IsPlaceholder() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// GetByID returns a seat by id.
func (r *MemorySeatRepo) GetByID(_ context.Context, id string) (*model.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.seats[id]
	if !ok || s.IsPlaceholder() {
		return nil, ErrSeatNotFound
	}
	return &s, nil
}

// MemoryPersonRepo mirrors PersonRepo over a MemoryStore.
type MemoryPersonRepo struct{ m *MemoryStore }

// GetByID returns a copy of the person.
func (r *MemoryPersonRepo) GetByID(_ context.Context, id string) (*model.Person, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.people[id]
	if !ok {
		return nil, ErrPersonNotFound
	}
	p = clonePerson(p)
	return &p, nil
}

// ListClaimants returns people referencing any of seatIDs, ordered by id.
func (r *MemoryPersonRepo) ListClaimants(_ context.Context, seatIDs []string) ([]model.Person, error) {
	want := make(map[string]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = struct{}{}
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.collect(func(p model.Person) bool {
		if p.AssignedSeat != nil {
			if _, ok := want[*p.AssignedSeat]; ok {
				return true
			}
		}
		if p.TemporaryHold != nil {
			if _, ok := want[p.TemporaryHold.SeatID]; ok {
				return true
			}
		}
		return false
	}), nil
}

// ListExpiredHolds returns people whose hold lapsed at or before now.
func (r *MemoryPersonRepo) ListExpiredHolds(_ context.Context, now time.Time) ([]model.Person, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.collect(func(p model.Person) bool {
		return p.TemporaryHold != nil && !p.TemporaryHold.ActiveAt(now)
	}), nil
}

// collect must be called with mu held.
func (m *MemoryStore) collect(match func(model.Person) bool) []model.Person {
	out := make([]model.Person, 0)
	for _, p := range m.people {
		if match(p) {
			out = append(out, clonePerson(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClearExpiredHold clears the hold only if it is still expired at now.
func (r *MemoryPersonRepo) ClearExpiredHold(_ context.Context, personID string, now time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.people[personID]
	if !ok || p.TemporaryHold == nil || p.TemporaryHold.ActiveAt(now) {
		return false, nil
	}
	p.TemporaryHold = nil
	r.m.people[personID] = p
	return true, nil
}

// ReleaseHold clears the person's hold and returns what was removed.
func (r *MemoryPersonRepo) ReleaseHold(_ context.Context, personID string) (*model.Hold, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.people[personID]
	if !ok {
		return nil, ErrPersonNotFound
	}
	released := p.TemporaryHold
	p.TemporaryHold = nil
	r.m.people[personID] = p
	return released, nil
}

// AcquireHold follows the same check order as PersonRepo.AcquireHold.
func (r *MemoryPersonRepo) AcquireHold(_ context.Context, personID, seatID string, now, expiresAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.seats[seatID]; !ok || s.IsPlaceholder() {
		return ErrSeatNotFound
	}
	for id, other := range r.m.people {
		if other.TemporaryHold != nil && other.TemporaryHold.SeatID == seatID && !other.TemporaryHold.ActiveAt(now) {
			other.TemporaryHold = nil
			r.m.people[id] = other
		}
	}
	if r.m.claimedByOther(seatID, personID, now) {
		return ErrSeatTaken
	}
	p, ok := r.m.people[personID]
	if !ok {
		return ErrPersonNotFound
	}
	if p.AssignedSeat != nil && *p.AssignedSeat == seatID {
		return ErrAlreadyHolding
	}
	if p.ActiveHold(now) != nil {
		return ErrAlreadyHolding
	}
	p.TemporaryHold = &model.Hold{SeatID: seatID, ExpiresAt: expiresAt.UTC()}
	r.m.people[personID] = p
	return nil
}

// AssignSeat sets or clears the assigned seat.
func (r *MemoryPersonRepo) AssignSeat(_ context.Context, personID string, seatID *string, now time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if seatID != nil {
		if s, ok := r.m.seats[*seatID]; !ok || s.IsPlaceholder() {
			return ErrSeatNotFound
		}
		if r.m.claimedByOther(*seatID, personID, now) {
			return ErrSeatTaken
		}
	}
	p, ok := r.m.people[personID]
	if !ok {
		return ErrPersonNotFound
	}
	if seatID == nil {
		p.AssignedSeat = nil
	} else {
		s := *seatID
		p.AssignedSeat = &s
	}
	r.m.people[personID] = p
	return nil
}

func (m *MemoryStore) claimedByOther(seatID, personID string, now time.Time) bool {
	for id, other := range m.people {
		if id == personID {
			continue
		}
		if _, ok := other.ClaimOn(seatID, now); ok {
			return true
		}
	}
	return false
}
