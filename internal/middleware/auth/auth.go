package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tour_service/internal/logging"
	"github.com/Skotchmaster/tour_service/internal/models"
	"github.com/Skotchmaster/tour_service/internal/tokens"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient role")
)

const (
	ctxPrincipal = "principal"
	ctxTokenErr  = "token_error"
)

type principalKey struct{}

type AccessVerifier interface {
	VerifyAccess(token string) (models.Principal, error)
}

func bearer(h string) (string, bool) {
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AccessCookie holds the access token for browser clients.
const AccessCookie = "accessToken"

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// accessToken reads the Authorization header, falling back to the access
// cookie on safe methods only.
func accessToken(c echo.Context) (token string, present bool) {
	if raw := c.Request().Header.Get(echo.HeaderAuthorization); raw != "" {
		token, _ = bearer(raw)
		return token, true
	}
	if !safeMethod(c.Request().Method) {
		return "", false
	}
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

// Authenticate resolves the caller from the Authorization header or, for
// reads, the access cookie. It never rejects a request; guards decide what an
// anonymous caller may reach.
func Authenticate(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, present := accessToken(c)
			if !present {
				return next(c)
			}
			if token == "" {
				c.Set(ctxTokenErr, tokens.ErrInvalidToken)
				return next(c)
			}
			p, err := v.VerifyAccess(token)
			if err != nil {
				c.Set(ctxTokenErr, err)
				return next(c)
			}

			c.Set(ctxPrincipal, p)
			ctx := logging.With(IntoContext(c.Request().Context(), p), "user_id", p.UserID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Authorize checks identity before role. An empty allowed set admits any
// authenticated principal.
func Authorize(p *models.Principal, allowed []models.Role) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if len(allowed) > 0 && !slices.Contains(allowed, p.Role) {
		return ErrForbidden
	}
	return nil
}

// Require guards a route. With no roles it only demands a valid access token.
func Require(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "auth.require")

			p, _ := PrincipalFromEcho(c)
			err := Authorize(p, roles)
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, ErrForbidden):
				l.Warn("access_denied", "status", 403, "role", string(p.Role), "user_id", p.UserID)
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}

			tokenErr, _ := c.Get(ctxTokenErr).(error)
			msg := "missing access token"
			switch {
			case errors.Is(tokenErr, tokens.ErrTokenExpired):
				msg = "access token expired"
			case tokenErr != nil:
				msg = "invalid access token"
			}
			l.Warn("access_denied", "status", 401, "reason", msg)
			return echo.NewHTTPError(http.StatusUnauthorized, msg)
		}
	}
}

func PrincipalFromEcho(c echo.Context) (*models.Principal, bool) {
	p, ok := c.Get(ctxPrincipal).(models.Principal)
	if !ok {
		return nil, false
	}
	return &p, true
}

func IntoContext(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	if !ok {
		return nil, false
	}
	return &p, true
}
