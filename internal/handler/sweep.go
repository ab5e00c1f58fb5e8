package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-seat-reservation/internal/service"
)

// SweepHandler triggers the expiry sweep from an external scheduler.
type SweepHandler struct {
	Service *service.ReservationService
	Clock   service.Clock
}

func NewSweepHandler(svc *service.ReservationService, clock service.Clock) *SweepHandler {
	return &SweepHandler{Service: svc, Clock: clock}
}

// Sweep handles POST /internal/sweep.  Running it redundantly is safe.
func (h *SweepHandler) Sweep(c echo.Context) error {
	res, err := h.Service.Sweep(c.Request().Context(), h.Clock.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"cleared_count": res.Cleared, "failed_count": res.Failed})
}
