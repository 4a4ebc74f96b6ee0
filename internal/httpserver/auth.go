package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tour_service/internal/logging"
	"github.com/Skotchmaster/tour_service/internal/middleware/csrf"
	"github.com/Skotchmaster/tour_service/internal/models"
	"github.com/Skotchmaster/tour_service/internal/service"
	"github.com/Skotchmaster/tour_service/internal/tokens"
)

type AuthHTTP struct {
	Svc        *service.AuthService
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CSRF       csrf.Config
}

type registerRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	User *models.User `json:"user"`
	tokens.TokenPair
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, pair tokens.TokenPair) error {
	now := time.Now()
	c.SetCookie(createCookie(accessCookie, pair.AccessToken, "/", now.Add(h.AccessTTL)))
	c.SetCookie(createCookie(refreshCookie, pair.RefreshToken, "/", now.Add(h.RefreshTTL)))
	_, err := csrf.Issue(c, h.CSRF)
	return err
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, invalidLogin)
		}
		return httpError(err)
	}

	if err := h.setTokenCookies(c, res.Tokens); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue csrf token", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loginResponse{User: res.User, TokenPair: res.Tokens})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	// cookie-sourced refresh tokens need the matching csrf header
	token := req.RefreshToken
	if token == "" {
		if ck, err := c.Cookie(refreshCookie); err == nil && ck.Value != "" {
			if !csrf.Valid(c, h.CSRF) {
				l.Warn("refresh_error", "status", 403, "reason", "invalid csrf token")
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}
			token = ck.Value
		}
	}
	if token == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return httpError(err)
	}

	if err := h.setTokenCookies(c, *pair); err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue csrf token", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Svc.LogOut(ctx); err != nil {
		logging.FromContext(ctx).With("handler", "auth_logout").Error("logout_failed", "status", 500, "error", err)
		return httpError(err)
	}
	c.SetCookie(deleteCookie(refreshCookie, "/"))
	c.SetCookie(deleteCookie(accessCookie, "/"))
	csrf.Clear(c, h.CSRF)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
