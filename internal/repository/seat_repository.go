package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/iliyamo/desk-seat-reservation/internal/model"
)

// SeatRepo provides read access to the seats table.  Seats are reference
// data maintained by administrators out of band, so the repository is
// read-only.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// ListByFloor retrieves the seats of a floor ordered by display rank
// (highest first) then label.  Placeholder cells are filtered out in SQL.
func (r *SeatRepo) ListByFloor(ctx context.Context, floor string) ([]model.Seat, error) {
	const q = `SELECT id, seat_number, floor, COALESCE(arrange, 0)
	           FROM seats
	           WHERE floor = ? AND LOWER(TRIM(seat_number)) <> ?
	           ORDER BY COALESCE(arrange, 0) DESC, seat_number`
	rows, err := r.db.QueryContext(ctx, q, floor, model.PlaceholderLabel)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.Label, &s.Floor, &s.Rank); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// GetByID retrieves a seat by its id.  Placeholder seats are reported as
// not found since they cannot be held.
func (r *SeatRepo) GetByID(ctx context.Context, id string) (*model.Seat, error) {
	const q = `SELECT id, seat_number, floor, COALESCE(arrange, 0) FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Label, &s.Floor, &s.Rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, classify(err)
	}
	if s.IsPlaceholder() {
		return nil, ErrSeatNotFound
	}
	return &s, nil
}
