// Package service holds the reservation core: the seat directory, the
// occupancy resolver, the reservation service and the expiry sweeper.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
	"github.com/iliyamo/desk-seat-reservation/internal/metrics"
	"github.com/iliyamo/desk-seat-reservation/internal/model"
	"github.com/iliyamo/desk-seat-reservation/internal/queue"
	"github.com/iliyamo/desk-seat-reservation/internal/repository"
)

const (
	// DefaultHoldDuration is how long a temporary hold lasts.
	DefaultHoldDuration = 4 * time.Hour
	defaultOpTimeout    = 5 * time.Second
	publishTimeout      = 3 * time.Second
)

// PersonStore persists both seat claims of a person.  Implementations make
// AcquireHold and AssignSeat atomic with respect to their own checks.
type PersonStore interface {
	GetByID(ctx context.Context, id string) (*model.Person, error)
	ListClaimants(ctx context.Context, seatIDs []string) ([]model.Person, error)
	ListExpiredHolds(ctx context.Context, now time.Time) ([]model.Person, error)
	AcquireHold(ctx context.Context, personID, seatID string, now, expiresAt time.Time) error
	ReleaseHold(ctx context.Context, personID string) (*model.Hold, error)
	AssignSeat(ctx context.Context, personID string, seatID *string, now time.Time) error
	ClearExpiredHold(ctx context.Context, personID string, now time.Time) (bool, error)
}

// EventPublisher receives seat events after a claim changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SeatEvent) error
}

// Options configures a ReservationService.  Zero values pick defaults.
type Options struct {
	HoldDuration time.Duration
	OpTimeout    time.Duration
	Events       EventPublisher
	Metrics      metrics.Recorder
	Logger       *zap.Logger
}

// ReservationService changes seat claims.  Every method takes now
// explicitly; callers read it from a Clock once per request.
type ReservationService struct {
	people       PersonStore
	holdDuration time.Duration
	opTimeout    time.Duration
	events       EventPublisher
	metrics      metrics.Recorder
	log          *zap.Logger
}

func NewReservationService(people PersonStore, opts Options) *ReservationService {
	s := &ReservationService{
		people:       people,
		holdDuration: opts.HoldDuration,
		opTimeout:    opts.OpTimeout,
		events:       opts.Events,
		metrics:      opts.Metrics,
		log:          opts.Logger,
	}
	if s.holdDuration <= 0 {
		s.holdDuration = DefaultHoldDuration
	}
	if s.opTimeout <= 0 {
		s.opTimeout = defaultOpTimeout
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// HoldDuration returns the lifetime given to new temporary holds.
func (s *ReservationService) HoldDuration() time.Duration { return s.holdDuration }

// Acquire places a temporary hold on seatID for personID and returns its
// expiry.  Failures, in check order: NOT_FOUND (seat), SEAT_CONFLICT,
// NOT_FOUND (person), ALREADY_HOLDING, TRANSIENT.
func (s *ReservationService) Acquire(ctx context.Context, personID, seatID string, now time.Time) (time.Time, error) {
	return s.acquire(ctx, "", personID, seatID, now)
}

// HoldFor is Acquire performed by an administrator on behalf of personID.
func (s *ReservationService) HoldFor(ctx context.Context, actorID, personID, seatID string, now time.Time) (time.Time, error) {
	return s.acquire(ctx, actorID, personID, seatID, now)
}

func (s *ReservationService) acquire(ctx context.Context, actorID, personID, seatID string, now time.Time) (time.Time, error) {
	now = now.UTC()
	// DATETIME columns keep whole seconds; truncate so the expiry returned
	// is the one stored and compared against.
	expiresAt := now.Add(s.holdDuration).Truncate(time.Second)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.people.AcquireHold(opCtx, personID, seatID, now, expiresAt); err != nil {
		appErr := translate(err, personID, seatID)
		s.metrics.RecordAcquire(string(apperror.From(appErr).Code))
		return time.Time{}, appErr
	}
	s.metrics.RecordAcquire("ok")
	s.log.Info("hold acquired",
		zap.String("person_id", personID),
		zap.String("seat_id", seatID),
		zap.String("actor_id", actorID),
		zap.Time("expires_at", expiresAt),
	)

	ev := queue.NewSeatEvent(queue.EventHoldAcquired, personID, seatID, now)
	ev.ActorID = actorID
	ev.ExpiresAt = &expiresAt
	s.publish(ctx, ev)
	return expiresAt, nil
}

// Release clears personID's temporary hold.  Releasing when nothing is
// held succeeds without change.
func (s *ReservationService) Release(ctx context.Context, personID string, now time.Time) error {
	return s.release(ctx, "", personID, now)
}

// ReleaseFor is Release performed by an administrator.
func (s *ReservationService) ReleaseFor(ctx context.Context, actorID, personID string, now time.Time) error {
	return s.release(ctx, actorID, personID, now)
}

func (s *ReservationService) release(ctx context.Context, actorID, personID string, now time.Time) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	released, err := s.people.ReleaseHold(opCtx, personID)
	if err != nil {
		return translate(err, personID, "")
	}
	if released != nil && !released.ActiveAt(now) {
		// Lapsed before the caller got here: report it as the expiry the
		// sweep would have recorded.
		s.metrics.RecordRelease(false)
		s.log.Info("hold expired before release",
			zap.String("person_id", personID),
			zap.String("seat_id", released.SeatID),
			zap.String("actor_id", actorID),
		)
		ev := queue.NewSeatEvent(queue.EventHoldExpired, personID, released.SeatID, now)
		ev.ActorID = actorID
		s.publish(ctx, ev)
		return nil
	}
	s.metrics.RecordRelease(released != nil)
	if released == nil {
		return nil
	}
	s.log.Info("hold released",
		zap.String("person_id", personID),
		zap.String("seat_id", released.SeatID),
		zap.String("actor_id", actorID),
	)
	ev := queue.NewSeatEvent(queue.EventHoldReleased, personID, released.SeatID, now)
	ev.ActorID = actorID
	s.publish(ctx, ev)
	return nil
}

// AssignSeat sets personID's permanent seat, or clears it when seatID is
// nil.  A seat another person claims at now is a SEAT_CONFLICT.
func (s *ReservationService) AssignSeat(ctx context.Context, actorID, personID string, seatID *string, now time.Time) error {
	now = now.UTC()
	target := ""
	if seatID != nil {
		target = *seatID
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.people.AssignSeat(opCtx, personID, seatID, now); err != nil {
		appErr := translate(err, personID, target)
		s.metrics.RecordAssign(string(apperror.From(appErr).Code))
		return appErr
	}
	s.metrics.RecordAssign("ok")
	s.log.Info("assigned seat changed",
		zap.String("person_id", personID),
		zap.String("seat_id", target),
		zap.String("actor_id", actorID),
	)

	typ := queue.EventSeatAssigned
	if seatID == nil {
		typ = queue.EventSeatUnassigned
	}
	ev := queue.NewSeatEvent(typ, personID, target, now)
	ev.ActorID = actorID
	s.publish(ctx, ev)
	return nil
}

// Claims returns personID's claims as seen at now; a lapsed temporary
// hold is reported as absent.
func (s *ReservationService) Claims(ctx context.Context, personID string, now time.Time) (*model.Person, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	p, err := s.people.GetByID(opCtx, personID)
	if err != nil {
		return nil, translate(err, personID, "")
	}
	p.TemporaryHold = p.ActiveHold(now)
	return p, nil
}

// SweepResult summarises one sweep run.
type SweepResult struct {
	Cleared int
	Failed  int
}

// Sweep clears every temporary hold that lapsed at or before now.  Each
// row is cleared conditionally, so a hold renewed after listing survives.
// Per-row failures are logged and counted; the sweep carries on.  Only a
// failure to list the candidates is returned as an error.
func (s *ReservationService) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	start := time.Now()
	now = now.UTC()

	listCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	expired, err := s.people.ListExpiredHolds(listCtx, now)
	cancel()
	if err != nil {
		return SweepResult{}, translate(err, "", "")
	}

	var res SweepResult
	for _, p := range expired {
		if ctx.Err() != nil {
			break
		}
		rowCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		cleared, err := s.people.ClearExpiredHold(rowCtx, p.ID, now)
		cancel()
		if err != nil {
			res.Failed++
			s.log.Warn("sweep: clear expired hold failed",
				zap.String("person_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		if !cleared {
			continue
		}
		res.Cleared++
		seatID := ""
		if p.TemporaryHold != nil {
			seatID = p.TemporaryHold.SeatID
		}
		s.publish(ctx, queue.NewSeatEvent(queue.EventHoldExpired, p.ID, seatID, now))
	}

	duration := time.Since(start)
	s.metrics.RecordSweep(res.Cleared, res.Failed, duration)
	s.log.Info("sweep completed",
		zap.Int("cleared_count", res.Cleared),
		zap.Int("failed_count", res.Failed),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
	return res, nil
}

// publish is best effort: a broker outage never fails the operation that
// already committed.
func (s *ReservationService) publish(ctx context.Context, ev queue.SeatEvent) {
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pubCtx, ev); err != nil {
		s.log.Warn("seat event not published",
			zap.String("event_type", string(ev.Type)),
			zap.String("event_id", ev.EventID),
			zap.Error(err),
		)
	}
}

// translate maps store errors onto the application taxonomy.
func translate(err error, personID, seatID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSeatTaken):
		return apperror.SeatConflict(seatID)
	case errors.Is(err, repository.ErrAlreadyHolding):
		return apperror.AlreadyHolding(seatID)
	case errors.Is(err, repository.ErrSeatNotFound):
		return apperror.NotFound("seat", seatID)
	case errors.Is(err, repository.ErrPersonNotFound):
		return apperror.NotFound("person", personID)
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return apperror.Transient(err)
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Internal(err)
}
