package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tour_service/internal/middleware/auth"
	"github.com/Skotchmaster/tour_service/internal/service"
	"github.com/Skotchmaster/tour_service/internal/tokens"
)

const invalidLogin = "invalid email or password"

// httpError maps service errors onto responses. Unknown errors never leak detail.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, invalidLogin)
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, tokens.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
	case errors.Is(err, tokens.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrForbidden), errors.Is(err, auth.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
