package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-seat-reservation/internal/handler"
	"github.com/iliyamo/desk-seat-reservation/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin for
// managing any person's assigned seat and temporary hold.
func RegisterAdmin(e *echo.Echo, h *handler.AdminSeatHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.PUT("/people/:id/assigned-seat", h.SetAssignedSeat)
	g.POST("/people/:id/hold", h.HoldFor)
	g.DELETE("/people/:id/hold", h.ClearHold)
}
