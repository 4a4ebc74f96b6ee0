package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Config describes a double-submit token: a readable cookie the client echoes
// back in a header.
type Config struct {
	CookieName string
	HeaderName string
	CookiePath string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration
}

func DefaultConfig() Config {
	return Config{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		CookiePath: "/",
		Secure:     true,
		SameSite:   http.SameSiteLaxMode,
		MaxAge:     7 * 24 * time.Hour,
	}
}

func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue sets a fresh token cookie and returns its value.
func Issue(c echo.Context, cfg Config) (string, error) {
	token, err := newToken(32)
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Secure:   cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: cfg.SameSite,
	})
	return token, nil
}

// Valid reports whether the header token matches the cookie token.
func Valid(c echo.Context, cfg Config) bool {
	ck, err := c.Cookie(cfg.CookieName)
	if err != nil || ck.Value == "" {
		return false
	}
	provided := c.Request().Header.Get(cfg.HeaderName)
	return subtle.ConstantTimeCompare([]byte(ck.Value), []byte(provided)) == 1
}

func Clear(c echo.Context, cfg Config) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     cfg.CookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}
