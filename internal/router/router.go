package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/desk-seat-reservation/internal/handler"
	"github.com/iliyamo/desk-seat-reservation/internal/metrics"
)

// RegisterRoutes registers operational routes that need no authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(gatherer)))
}

// RegisterPublic registers the seat directory.  Seats are immutable
// reference data, so the list goes through the response cache.
func RegisterPublic(e *echo.Echo, h *handler.SeatHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/floors/:floor/seats", h.ListSeats, cache)
}

// RegisterInternal registers routes meant for schedulers on the private
// network.  They carry no end-user authentication.
func RegisterInternal(e *echo.Echo, h *handler.SweepHandler) {
	e.POST("/internal/sweep", h.Sweep)
}
