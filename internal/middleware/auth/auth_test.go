package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tour_service/internal/config"
	"github.com/Skotchmaster/tour_service/internal/models"
	"github.com/Skotchmaster/tour_service/internal/tokens"
)

func newTokens(t *testing.T, opts ...tokens.Option) *tokens.Service {
	t.Helper()
	s, err := tokens.NewService(config.JWT{
		AccessSecret:  []byte("access"),
		RefreshSecret: []byte("refresh"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}, opts...)
	require.NoError(t, err)
	return s
}

func issue(t *testing.T, s *tokens.Service, role models.Role) tokens.TokenPair {
	t.Helper()
	pair, err := s.Issue(models.Principal{UserID: uuid.NewString(), Email: "a@x.com", Role: role})
	require.NoError(t, err)
	return pair
}

// serve runs Authenticate and Require(roles...) in front of a handler that echoes the principal's role.
func serve(t *testing.T, s *tokens.Service, header string, roles ...models.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(Authenticate(s))
	e.GET("/x", func(c echo.Context) error {
		p, ok := FromContext(c.Request().Context())
		require.True(t, ok)
		return c.String(http.StatusOK, string(p.Role))
	}, Require(roles...))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	admin := &models.Principal{UserID: "1", Role: models.RoleAdmin}
	user := &models.Principal{UserID: "2", Role: models.RoleUser}

	assert.ErrorIs(t, Authorize(nil, nil), ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(nil, []models.Role{models.RoleAdmin}), ErrUnauthenticated)
	assert.NoError(t, Authorize(user, nil))
	assert.NoError(t, Authorize(admin, []models.Role{models.RoleAdmin}))
	assert.ErrorIs(t, Authorize(user, []models.Role{models.RoleAdmin}), ErrForbidden)
	assert.NoError(t, Authorize(user, []models.Role{models.RoleAdmin, models.RoleUser}))
	assert.ErrorIs(t, Authorize(admin, []models.Role{models.RoleUser}), ErrForbidden)
}

func TestRequire(t *testing.T) {
	t.Parallel()
	s := newTokens(t)
	userTok := issue(t, s, models.RoleUser)
	adminTok := issue(t, s, models.RoleAdmin)
	expired := issue(t, newTokens(t, tokens.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })), models.RoleAdmin)

	tests := []struct {
		name   string
		header string
		roles  []models.Role
		status int
		body   string
	}{
		{"no header", "", nil, http.StatusUnauthorized, "missing access token"},
		{"not bearer", "Basic abc", nil, http.StatusUnauthorized, "invalid access token"},
		{"garbage", "Bearer abc", nil, http.StatusUnauthorized, "invalid access token"},
		{"refresh as access", "Bearer " + userTok.RefreshToken, nil, http.StatusUnauthorized, "invalid access token"},
		{"expired", "Bearer " + expired.AccessToken, nil, http.StatusUnauthorized, "access token expired"},
		{"expired beats role", "Bearer " + expired.AccessToken, []models.Role{models.RoleUser}, http.StatusUnauthorized, "access token expired"},
		{"authenticated", "Bearer " + userTok.AccessToken, nil, http.StatusOK, "USER"},
		{"lower-case scheme", "bearer " + userTok.AccessToken, nil, http.StatusOK, "USER"},
		{"admin only as user", "Bearer " + userTok.AccessToken, []models.Role{models.RoleAdmin}, http.StatusForbidden, "insufficient role"},
		{"admin only as admin", "Bearer " + adminTok.AccessToken, []models.Role{models.RoleAdmin}, http.StatusOK, "ADMIN"},
		{"user only as admin", "Bearer " + adminTok.AccessToken, []models.Role{models.RoleUser}, http.StatusForbidden, "insufficient role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, s, tt.header, tt.roles...)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestAuthenticate_NeverRejects(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.Use(Authenticate(newTokens(t)))
	e.GET("/public", func(c echo.Context) error {
		_, ok := PrincipalFromEcho(c)
		assert.False(t, ok)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthenticate_AccessCookie(t *testing.T) {
	t.Parallel()
	s := newTokens(t)
	pair := issue(t, s, models.RoleUser)

	e := echo.New()
	e.Use(Authenticate(s))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/x", ok, Require())
	e.POST("/x", ok, Require())

	do := func(method, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/x", nil)
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: pair.AccessToken})
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "").Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "Bearer "+pair.AccessToken).Code)

	// an explicit header wins over the cookie
	rec := do(http.MethodGet, "Bearer broken")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid access token")
}
