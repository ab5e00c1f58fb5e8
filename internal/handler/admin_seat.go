package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
	"github.com/iliyamo/desk-seat-reservation/internal/service"
)

// AdminSeatHandler lets administrators manage any person's claims.  Routes
// are guarded by RequireRole(ADMIN); the acting admin is recorded on the
// published events.
type AdminSeatHandler struct {
	Service *service.ReservationService
	Clock   service.Clock
	Retry   Retrier
}

func NewAdminSeatHandler(svc *service.ReservationService, clock service.Clock, retry Retrier) *AdminSeatHandler {
	return &AdminSeatHandler{Service: svc, Clock: clock, Retry: retry}
}

type assignRequest struct {
	SeatID *string `json:"seat_id"`
}

// SetAssignedSeat handles PUT /v1/admin/people/:id/assigned-seat.  A null
// seat_id clears the assignment.
func (h *AdminSeatHandler) SetAssignedSeat(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return err
	}
	personID, err := cleanID("person id", c.Param("id"))
	if err != nil {
		return err
	}
	var body assignRequest
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	var seatID *string
	if body.SeatID != nil {
		id, err := cleanID("seat_id", *body.SeatID)
		if err != nil {
			return err
		}
		seatID = &id
	}

	now := h.Clock.Now()
	err = h.Retry.Do(c.Request().Context(), func() error {
		return h.Service.AssignSeat(c.Request().Context(), actor, personID, seatID, now)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"person_id": personID, "assigned_seat": seatID})
}

// HoldFor handles POST /v1/admin/people/:id/hold.
func (h *AdminSeatHandler) HoldFor(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return err
	}
	personID, err := cleanID("person id", c.Param("id"))
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
		expiresAt, err = h.Service.HoldFor(c.Request().Context(), actor, personID, seatID, now)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"person_id": personID, "seat_id": seatID, "expires_at": expiresAt})
}

// ClearHold handles DELETE /v1/admin/people/:id/hold.
func (h *AdminSeatHandler) ClearHold(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return err
	}
	personID, err := cleanID("person id", c.Param("id"))
	if err != nil {
		return err
	}
	now := h.Clock.Now()
	err = h.Retry.Do(c.Request().Context(), func() error {
		return h.Service.ReleaseFor(c.Request().Context(), actor, personID, now)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
