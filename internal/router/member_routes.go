package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-seat-reservation/internal/handler"
	"github.com/iliyamo/desk-seat-reservation/internal/middleware"
)

// RegisterMember registers the signed-in endpoints under /v1.  All routes
// require a valid JWT with the MEMBER or ADMIN role.  Reserving goes
// through the rate limiter; the floor map is never cached.
func RegisterMember(e *echo.Echo, seats *handler.SeatHandler, res *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleMember, middleware.RoleAdmin),
	)
	g.GET("/floors/:floor/occupancy", seats.FloorOccupancy)
	g.GET("/me/hold", res.MyHold)
	g.POST("/seats/reserve", res.Reserve, limiter)
	g.POST("/seats/cancel", res.Cancel)
}
