package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-seat-reservation/internal/model"
	"github.com/iliyamo/desk-seat-reservation/internal/service"
)

// SeatHandler serves the read side: the seat directory and the floor map.
type SeatHandler struct {
	Directory *service.Directory
	Clock     service.Clock
	Retry     Retrier
}

func NewSeatHandler(dir *service.Directory, clock service.Clock, retry Retrier) *SeatHandler {
	return &SeatHandler{Directory: dir, Clock: clock, Retry: retry}
}

// ListSeats handles GET /v1/floors/:floor/seats.
func (h *SeatHandler) ListSeats(c echo.Context) error {
	floor, err := cleanID("floor", c.Param("floor"))
	if err != nil {
		return err
	}
	var seats []model.Seat
	err = h.Retry.Do(c.Request().Context(), func() error {
		var err error
		seats, err = h.Directory.ListSeats(c.Request().Context(), floor)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

type holderView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

type seatOccupancyView struct {
	Seat      model.Seat            `json:"seat"`
	Status    model.OccupancyStatus `json:"status"`
	Holder    *holderView           `json:"holder,omitempty"`
	Kind      model.HoldKind        `json:"kind,omitempty"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
	Mine      bool                  `json:"mine"`
}

// FloorOccupancy handles GET /v1/floors/:floor/occupancy.  It is never
// cached so a reservation is visible on the next read.
func (h *SeatHandler) FloorOccupancy(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	floor, err := cleanID("floor", c.Param("floor"))
	if err != nil {
		return err
	}
	now := h.Clock.Now()

	var floorMap []model.SeatOccupancy
	err = h.Retry.Do(c.Request().Context(), func() error {
		var err error
		floorMap, err = h.Directory.FloorMap(c.Request().Context(), floor, now)
		return err
	})
	if err != nil {
		return err
	}

	items := make([]seatOccupancyView, 0, len(floorMap))
	for _, so := range floorMap {
		v := seatOccupancyView{Seat: so.Seat, Status: so.Occupancy.Status}
		if p := so.Occupancy.Holder; p != nil {
			v.Holder = &holderView{ID: p.ID, Name: p.Name, Department: p.Department, Position: p.Position}
			v.Kind = so.Occupancy.Kind
			v.ExpiresAt = so.Occupancy.ExpiresAt
			v.Mine = p.ID == uid
		}
		items = append(items, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
