// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation service to distinguish between different failure scenarios
// without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrPersonNotFound is returned when a person lookup yields no rows.
var ErrPersonNotFound = errors.New("person not found")

// ErrSeatTaken is returned when another person already has an active
// claim (assigned or unexpired temporary) on the seat.
var ErrSeatTaken = errors.New("seat already taken")

// ErrAlreadyHolding is returned when the person already has an active
// temporary hold, or the requested seat is their own assigned seat.
var ErrAlreadyHolding = errors.New("person already holds a seat")

// ErrUnavailable wraps timeouts, lock waits, deadlocks and broken
// connections.  Callers may retry these.
var ErrUnavailable = errors.New("store unavailable")

// MySQL server error numbers we react to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify maps driver errors onto the package sentinels.  Errors that
// are already sentinels pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrSeatTaken
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
