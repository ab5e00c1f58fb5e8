package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSeatRepoListByFloor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM seats WHERE floor = \?`).
		WithArgs("8", "empty").
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number", "floor", "arrange"}).
			AddRow("S2", "8-A02", "8", 3).
			AddRow("S1", "8-A01", "8", 1))

	seats, err := NewSeatRepo(db).ListByFloor(context.Background(), "8")
	if err != nil {
		t.Fatal(err)
	}
	if len(seats) != 2 || seats[0].ID != "S2" || seats[0].Rank != 3 {
		t.Fatalf("unexpected seats %+v", seats)
	}
}

func TestSeatRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM seats WHERE id = \?`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number", "floor", "arrange"}))

	if _, err := NewSeatRepo(db).GetByID(context.Background(), "nope"); !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("want ErrSeatNotFound, got %v", err)
	}
}
