package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
)

// ErrorHandler renders every error returned by a handler or middleware as
// {"error": {"code", "message", "details"}} with the carried HTTP status.
// Unknown errors become INTERNAL_ERROR and are logged.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			err = fromHTTPError(he)
		}
		appErr := apperror.From(err)
		if appErr.HTTPStatus == 0 {
			appErr = apperror.From(apperror.Internal(err))
		}

		body := echo.Map{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(appErr),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(appErr.HTTPStatus)
		} else {
			err = c.JSON(appErr.HTTPStatus, echo.Map{"error": body})
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

// fromHTTPError keeps echo's own errors (unknown route, bad method, body
// binding) in the same envelope.
func fromHTTPError(he *echo.HTTPError) error {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}
	code := apperror.CodeInternal
	switch he.Code {
	case http.StatusBadRequest:
		code = apperror.CodeValidationFailed
	case http.StatusUnauthorized:
		code = apperror.CodeUnauthenticated
	case http.StatusForbidden:
		code = apperror.CodeForbidden
	case http.StatusNotFound:
		code = apperror.CodeNotFound
	case http.StatusMethodNotAllowed, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		code = apperror.CodeValidationFailed
	}
	return &apperror.Error{Code: code, Message: msg, HTTPStatus: he.Code, Err: he.Internal}
}
