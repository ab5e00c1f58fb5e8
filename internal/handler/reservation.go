package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
	"github.com/iliyamo/desk-seat-reservation/internal/model"
	"github.com/iliyamo/desk-seat-reservation/internal/service"
)

// ReservationHandler exposes the self-service operations of the signed-in
// person: reserve a free seat, cancel it and read their own claims.
type ReservationHandler struct {
	Service *service.ReservationService
	Clock   service.Clock
	Retry   Retrier
}

func NewReservationHandler(svc *service.ReservationService, clock service.Clock, retry Retrier) *ReservationHandler {
	return &ReservationHandler{Service: svc, Clock: clock, Retry: retry}
}

type reserveRequest struct {
	SeatID string `json:"seat_id"`
}

// Reserve handles POST /v1/seats/reserve.  On success it returns 201 with
// the hold's expiry.  SEAT_CONFLICT and ALREADY_HOLDING are both 409 but
// carry different codes so clients can tell them apart.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var body reserveRequest
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	seatID, err := cleanID("seat_id", body.SeatID)
	if err != nil {
		return err
	}

	now := h.Clock.Now()
	var expiresAt time.Time
	err = h.Retry.Do(c.Request().Context(), func() error {
		var err error
		expiresAt, err = h.Service.Acquire(c.Request().Context(), uid, seatID, now)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"seat_id": seatID, "expires_at": expiresAt})
}

// Cancel handles POST /v1/seats/cancel.  It clears the caller's temporary
// hold and succeeds even when there was none.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	now := h.Clock.Now()
	err = h.Retry.Do(c.Request().Context(), func() error {
		return h.Service.Release(c.Request().Context(), uid, now)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

type temporaryHoldView struct {
	SeatID           string    `json:"seat_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingMinutes int       `json:"remaining_minutes"`
}

// MyHold handles GET /v1/me/hold.
func (h *ReservationHandler) MyHold(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	now := h.Clock.Now()
	var p *model.Person
	err = h.Retry.Do(c.Request().Context(), func() error {
		var err error
		p, err = h.Service.Claims(c.Request().Context(), uid, now)
		return err
	})
	if err != nil {
		return err
	}

	resp := echo.Map{"assigned_seat": p.AssignedSeat, "temporary_hold": nil}
	if hold := p.TemporaryHold; hold != nil {
		resp["temporary_hold"] = temporaryHoldView{
			SeatID:           hold.SeatID,
			ExpiresAt:        hold.ExpiresAt,
			RemainingMinutes: int(hold.Remaining(now).Minutes()),
		}
	}
	return c.JSON(http.StatusOK, resp)
}
