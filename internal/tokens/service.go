package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/tour_service/internal/config"
	"github.com/Skotchmaster/tour_service/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type Option func(*Service)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg config.JWT, opts ...Option) (*Service, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, fmt.Errorf("%w: missing access token secret", config.ErrConfiguration)
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("%w: missing refresh token secret", config.ErrConfiguration)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token lifetimes must be positive", config.ErrConfiguration)
	}

	s := &Service{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) Issue(p models.Principal) (TokenPair, error) {
	now := s.now()

	access, err := s.sign(p, "", now, now.Add(s.accessTTL), s.accessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(p, refreshType, now, now.Add(s.refreshTTL), s.refreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL / time.Second),
	}, nil
}

func (s *Service) sign(p models.Principal, typ string, iat, exp time.Time, secret []byte) (string, error) {
	claims := Claims{
		UserID: p.UserID,
		Email:  p.Email,
		Role:   string(p.Role),
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *Service) VerifyAccess(token string) (models.Principal, error) {
	claims, err := s.parse(token, s.accessSecret)
	if err != nil {
		return models.Principal{}, err
	}
	if claims.Type != "" {
		return models.Principal{}, ErrInvalidToken
	}
	return claims.principal(), nil
}

func (s *Service) VerifyRefresh(token string) (models.Principal, error) {
	claims, err := s.parse(token, s.refreshSecret)
	if err != nil {
		return models.Principal{}, err
	}
	if claims.Type != refreshType {
		return models.Principal{}, ErrInvalidToken
	}
	return claims.principal(), nil
}

func (s *Service) parse(token string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.UserID == "" || !models.Role(claims.Role).Valid() {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (c *Claims) principal() models.Principal {
	return models.Principal{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   models.Role(c.Role),
	}
}
