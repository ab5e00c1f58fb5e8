package handler

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
	"github.com/iliyamo/desk-seat-reservation/internal/middleware"
)

const maxIDLength = 64

// getUserID returns the authenticated person id or UNAUTHENTICATED.
func getUserID(c echo.Context) (string, error) {
	uid := middleware.UserID(c)
	if uid == "" {
		return "", apperror.Unauthenticated("unauthorized")
	}
	return uid, nil
}

// cleanID trims and validates an id taken from a path or body.
func cleanID(field, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperror.Validation(field + " is required")
	}
	if len(id) > maxIDLength {
		return "", apperror.Validation(field + " is too long")
	}
	return id, nil
}

// Retrier re-runs operations that failed with TRANSIENT, with exponential
// backoff and a bounded number of retries.  Any other outcome is returned
// immediately.
type Retrier struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
}

// NewRetrier returns a Retrier making at most maxAttempts calls, with short
// intervals suited to request paths.
func NewRetrier(maxAttempts int) Retrier {
	return Retrier{MaxRetries: maxAttempts - 1, Initial: 50 * time.Millisecond, Max: 500 * time.Millisecond}
}

// Do runs op until it succeeds, fails permanently or retries run out.
func (r Retrier) Do(ctx context.Context, op func() error) error {
	if r.MaxRetries <= 0 {
		return op()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.Initial
	bo.MaxInterval = r.Max
	bo.MaxElapsedTime = 0

	var last error
	err := backoff.Retry(func() error {
		last = op()
		if last == nil {
			return nil
		}
		if apperror.IsRetryable(last) {
			return last
		}
		return backoff.Permanent(last)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.MaxRetries)), ctx))
	if err != nil && last != nil {
		return last
	}
	return err
}
