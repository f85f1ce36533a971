package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/auth"
	"github.com/crime-analysis/backend/internal/policy"
	"github.com/crime-analysis/backend/internal/services"
)

// errorBody is the shape every failure is returned in. The dashboard reads
// detail.
func errorBody(msg string) echo.Map {
	return echo.Map{"error": msg, "detail": msg}
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrKeysUnavailable):
		return http.StatusServiceUnavailable, "identity provider unavailable"
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, policy.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError maps err to a status and writes the error body. Server-side
// failures are logged with the request id; the body stays opaque.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.JSON(status, errorBody(msg))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody(msg))
}
