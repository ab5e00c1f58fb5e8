package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/desk-seat-reservation/internal/model"
)

// PersonRepo provides data access to the people table, which carries both
// seat claims of a person: the assigned seat (assigned_seat_id) and the
// temporary hold (temp_seat_id / temp_expires_at).
//
// Every mutation that can create a claim locks the seat row first and the
// person row second (SELECT ... FOR UPDATE) inside a READ COMMITTED
// transaction.  Two callers racing for the same seat serialise on the seat
// row; two seats racing for the same person serialise on the person row.
// The unique keys on assigned_seat_id and temp_seat_id back this up.
type PersonRepo struct {
	db *sql.DB
}

// NewPersonRepo returns a new PersonRepo bound to the provided database.
func NewPersonRepo(db *sql.DB) *PersonRepo { return &PersonRepo{db: db} }

const personColumns = `id, name, department, position, assigned_seat_id, temp_seat_id, temp_expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPerson reads one people row.  A half-written temporary hold (seat
// without expiry or vice versa) is treated as absent.
func scanPerson(s rowScanner) (model.Person, error) {
	var (
		p        model.Person
		assigned sql.NullString
		tempSeat sql.NullString
		tempExp  sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Department, &p.Position, &assigned, &tempSeat, &tempExp); err != nil {
		return p, err
	}
	if assigned.Valid {
		seat := assigned.String
		p.AssignedSeat = &seat
	}
	if tempSeat.Valid && tempExp.Valid {
		p.TemporaryHold = &model.Hold{SeatID: tempSeat.String, ExpiresAt: tempExp.Time.UTC()}
	}
	return p, nil
}

// GetByID retrieves a person by id.
func (r *PersonRepo) GetByID(ctx context.Context, id string) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, classify(err)
	}
	return &p, nil
}

// ListClaimants returns every person whose assigned seat or temporary hold
// references one of seatIDs, ordered by id.  Expired holds are included;
// callers decide activity against their own clock.
func (r *PersonRepo) ListClaimants(ctx context.Context, seatIDs []string) ([]model.Person, error) {
	if len(seatIDs) == 0 {
		return []model.Person{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
	q := `SELECT ` + personColumns + ` FROM people
	      WHERE assigned_seat_id IN (` + placeholders + `) OR temp_seat_id IN (` + placeholders + `)
	      ORDER BY id`
	args := make([]any, 0, len(seatIDs)*2)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	for _, id := range seatIDs {
		args = append(args, id)
	}
	return r.queryPeople(ctx, q, args...)
}

// ListExpiredHolds returns people whose temporary hold lapsed at or before now.
func (r *PersonRepo) ListExpiredHolds(ctx context.Context, now time.Time) ([]model.Person, error) {
	q := `SELECT ` + personColumns + ` FROM people
	      WHERE temp_expires_at IS NOT NULL AND temp_expires_at <= ?
	      ORDER BY id`
	return r.queryPeople(ctx, q, now.UTC())
}

func (r *PersonRepo) queryPeople(ctx context.Context, q string, args ...any) ([]model.Person, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	people := make([]model.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return people, nil
}

// ClearExpiredHold removes the person's temporary hold only if it is still
// expired at now.  A hold renewed after the sweep listed it is left alone.
// It reports whether a row was changed.
func (r *PersonRepo) ClearExpiredHold(ctx context.Context, personID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE people SET temp_seat_id = NULL, temp_expires_at = NULL
		 WHERE id = ? AND temp_expires_at IS NOT NULL AND temp_expires_at <= ?`,
		personID, now.UTC())
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// ReleaseHold clears the person's temporary hold, active or expired.  It
// reports the hold that was removed (nil when there was none).  The
// operation is idempotent.
func (r *PersonRepo) ReleaseHold(ctx context.Context, personID string) (*model.Hold, error) {
	var released *model.Hold
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		p, err := lockPerson(ctx, tx, personID)
		if err != nil {
			return err
		}
		if p.TemporaryHold == nil {
			return nil
		}
		released = p.TemporaryHold
		_, err = tx.ExecContext(ctx,
			`UPDATE people SET temp_seat_id = NULL, temp_expires_at = NULL WHERE id = ?`, personID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// AcquireHold records a temporary hold on seatID for personID until
// expiresAt.  Within one transaction it:
//
//  1. locks the seat row (ErrSeatNotFound when missing or a placeholder),
//  2. clears temporary holds on the seat that lapsed at or before now,
//  3. rejects with ErrSeatTaken when another person still claims the seat,
//  4. locks the person row (ErrPersonNotFound when missing),
//  5. rejects with ErrAlreadyHolding when the person already has an active
//     hold or the seat is their own assigned seat,
//  6. writes the new hold.
func (r *PersonRepo) AcquireHold(ctx context.Context, personID, seatID string, now, expiresAt time.Time) error {
	now, expiresAt = now.UTC(), expiresAt.UTC()
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockSeat(ctx, tx, seatID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE people SET temp_seat_id = NULL, temp_expires_at = NULL
			 WHERE temp_seat_id = ? AND temp_expires_at <= ?`,
			seatID, now); err != nil {
			return err
		}
		taken, err := claimedByOther(ctx, tx, seatID, personID, now)
		if err != nil {
			return err
		}
		if taken {
			return ErrSeatTaken
		}
		p, err := lockPerson(ctx, tx, personID)
		if err != nil {
			return err
		}
		if p.AssignedSeat != nil && *p.AssignedSeat == seatID {
			return ErrAlreadyHolding
		}
		if p.ActiveHold(now) != nil {
			return ErrAlreadyHolding
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE people SET temp_seat_id = ?, temp_expires_at = ? WHERE id = ?`,
			seatID, expiresAt, personID)
		return err
	})
}

// AssignSeat sets (or, with a nil seatID, clears) the person's assigned
// seat.  Assigning a seat another person claims at now fails with
// ErrSeatTaken.  The person's temporary hold is untouched.
func (r *PersonRepo) AssignSeat(ctx context.Context, personID string, seatID *string, now time.Time) error {
	now = now.UTC()
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if seatID == nil {
			if _, err := lockPerson(ctx, tx, personID); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `UPDATE people SET assigned_seat_id = NULL WHERE id = ?`, personID)
			return err
		}
		if err := lockSeat(ctx, tx, *seatID); err != nil {
			return err
		}
		taken, err := claimedByOther(ctx, tx, *seatID, personID, now)
		if err != nil {
			return err
		}
		if taken {
			return ErrSeatTaken
		}
		if _, err := lockPerson(ctx, tx, personID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE people SET assigned_seat_id = ? WHERE id = ?`, *seatID, personID)
		return err
	})
}

func lockSeat(ctx context.Context, tx *sql.Tx, seatID string) error {
	var label string
	err := tx.QueryRowContext(ctx, `SELECT seat_number FROM seats WHERE id = ? FOR UPDATE`, seatID).Scan(&label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	}
	if (model.Seat{Label: label}).IsPlaceholder() {
		return ErrSeatNotFound
	}
	return nil
}

func lockPerson(ctx context.Context, tx *sql.Tx, personID string) (model.Person, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ? FOR UPDATE`, personID)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrPersonNotFound
		}
		return p, err
	}
	return p, nil
}

// claimedByOther reports whether someone other than personID has an
// assigned or unexpired temporary claim on seatID.
func claimedByOther(ctx context.Context, tx *sql.Tx, seatID, personID string, now time.Time) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM people
		 WHERE id <> ? AND (assigned_seat_id = ? OR (temp_seat_id = ? AND temp_expires_at > ?))`,
		personID, seatID, seatID, now).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// withTx runs fn in a READ COMMITTED transaction, committing on success
// and rolling back otherwise.  Errors are classified before returning.
func (r *PersonRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}
