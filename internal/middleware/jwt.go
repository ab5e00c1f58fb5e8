package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strings" // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the subject (person id) and role claims in the request context.
// The secret must match the one used when issuing tokens.  Handlers read
// the values back through UserID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperror.Unauthenticated("missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Only HS256 is accepted; anything else is rejected before the
			// signature is checked.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tok.Valid {
				return apperror.Unauthenticated("invalid token")
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return apperror.Unauthenticated("invalid claims")
			}
			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return apperror.Unauthenticated("token has no subject")
			}
			role, _ := claims["role"].(string)

			c.Set(ctxUserID, sub)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
