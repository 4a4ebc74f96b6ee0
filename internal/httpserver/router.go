package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tour_service/internal/middleware/auth"
	"github.com/Skotchmaster/tour_service/internal/middleware/ratelimit"
	"github.com/Skotchmaster/tour_service/internal/models"
)

// Access describes who may call a route. The zero value means any
// authenticated caller.
type Access struct {
	Public bool
	Roles  []models.Role
}

var (
	Public        = Access{Public: true}
	Authenticated = Access{}
)

func Roles(roles ...models.Role) Access {
	return Access{Roles: roles}
}

type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
	Access  Access
	Limited bool
}

type Deps struct {
	Auth    *AuthHTTP
	Users   *UsersHTTP
	Tours   *ToursHTTP
	Tokens  auth.AccessVerifier
	Limiter *ratelimit.Limiter
	Ready   func(ctx context.Context) error
}

func Routes(d *Deps) []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/users/register", Handler: d.Auth.Register, Access: Public, Limited: true},
		{Method: http.MethodPost, Path: "/users/login", Handler: d.Auth.Login, Access: Public, Limited: true},
		{Method: http.MethodPost, Path: "/auth/refresh", Handler: d.Auth.Refresh, Access: Public, Limited: true},
		{Method: http.MethodPost, Path: "/auth/logout", Handler: d.Auth.LogOut, Access: Public},

		{Method: http.MethodGet, Path: "/users", Handler: d.Users.List, Access: Roles(models.RoleAdmin)},
		{Method: http.MethodGet, Path: "/users/profile", Handler: d.Users.Profile, Access: Authenticated},
		{Method: http.MethodGet, Path: "/users/profile/advanced", Handler: d.Users.AdvancedProfile, Access: Roles(models.RoleAdmin, models.RoleUser)},
		{Method: http.MethodGet, Path: "/users/admin/dashboard", Handler: d.Users.AdminDashboard, Access: Roles(models.RoleAdmin)},
		{Method: http.MethodGet, Path: "/users/admin/users", Handler: d.Users.List, Access: Roles(models.RoleAdmin)},
		{Method: http.MethodGet, Path: "/users/user/settings", Handler: d.Users.Settings, Access: Roles(models.RoleUser)},
		{Method: http.MethodGet, Path: "/users/:id", Handler: d.Users.Get, Access: Authenticated},
		{Method: http.MethodPatch, Path: "/users/:id", Handler: d.Users.Update, Access: Authenticated},
		{Method: http.MethodDelete, Path: "/users/:id", Handler: d.Users.Delete, Access: Authenticated},

		{Method: http.MethodGet, Path: "/tours", Handler: d.Tours.ListActive, Access: Public},
		{Method: http.MethodGet, Path: "/tours/all", Handler: d.Tours.ListAll, Access: Public},
		{Method: http.MethodGet, Path: "/tours/:id", Handler: d.Tours.Get, Access: Public},
		{Method: http.MethodPost, Path: "/tours", Handler: d.Tours.Create, Access: Authenticated},
		{Method: http.MethodPatch, Path: "/tours/:id", Handler: d.Tours.Update, Access: Authenticated},
		{Method: http.MethodPatch, Path: "/tours/:id/status", Handler: d.Tours.UpdateStatus, Access: Authenticated},
		{Method: http.MethodDelete, Path: "/tours/:id", Handler: d.Tours.Delete, Access: Authenticated},
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api", auth.Authenticate(d.Tokens))
	limit := d.Limiter.Middleware()
	for _, r := range Routes(d) {
		var mw []echo.MiddlewareFunc
		if r.Limited {
			mw = append(mw, limit)
		}
		if !r.Access.Public {
			mw = append(mw, auth.Require(r.Access.Roles...))
		}
		api.Add(r.Method, r.Path, r.Handler, mw...)
	}
}
