package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tour_service/internal/config"
	"github.com/Skotchmaster/tour_service/internal/models"
)

func testJWTConfig() config.JWT {
	return config.JWT{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(testJWTConfig(), opts...)
	require.NoError(t, err)
	return svc
}

func testPrincipal() models.Principal {
	return models.Principal{UserID: uuid.NewString(), Email: "a@x.com", Role: models.RoleUser}
}

func TestNewService_RequiresSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.JWT)
	}{
		{name: "no access secret", mutate: func(c *config.JWT) { c.AccessSecret = nil }},
		{name: "no refresh secret", mutate: func(c *config.JWT) { c.RefreshSecret = []byte{} }},
		{name: "zero access ttl", mutate: func(c *config.JWT) { c.AccessTTL = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testJWTConfig()
			tt.mutate(&cfg)
			svc, err := NewService(cfg)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}

func TestService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	p := testPrincipal()

	pair, err := svc.Issue(p)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.EqualValues(t, 15*60, pair.ExpiresIn)

	got, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	got, err = svc.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestService_ExpiresInTracksAccessTTL(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	cfg.AccessTTL = time.Hour
	cfg.RefreshTTL = 30 * 24 * time.Hour
	svc, err := NewService(cfg)
	require.NoError(t, err)

	pair, err := svc.Issue(testPrincipal())
	require.NoError(t, err)
	assert.EqualValues(t, 3600, pair.ExpiresIn)
}

func TestService_TokensAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	pair, err := svc.Issue(testPrincipal())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RefreshTypeClaimIsChecked(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	p := testPrincipal()
	exp := time.Now().Add(time.Hour)

	// signed with the refresh secret but without the refresh discriminator
	untyped, err := svc.sign(p, "", time.Now(), exp, svc.refreshSecret)
	require.NoError(t, err)
	_, err = svc.VerifyRefresh(untyped)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// signed with the access secret but carrying the refresh discriminator
	typed, err := svc.sign(p, refreshType, time.Now(), exp, svc.accessSecret)
	require.NoError(t, err)
	_, err = svc.VerifyAccess(typed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_WrongSecret(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	cfg := testJWTConfig()
	cfg.AccessSecret = []byte("another-secret")
	cfg.RefreshSecret = []byte("another-refresh-secret")
	other, err := NewService(cfg)
	require.NoError(t, err)

	pair, err := other.Issue(testPrincipal())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_TamperedPayload(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	pair, err := svc.Issue(testPrincipal())
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)

	forged := Claims{
		UserID: uuid.NewString(),
		Email:  "a@x.com",
		Role:   string(models.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forgedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString([]byte("x"))
	require.NoError(t, err)
	forgedPayload := strings.Split(forgedToken, ".")[1]

	tampered := parts[0] + "." + forgedPayload + "." + parts[2]
	_, err = svc.VerifyAccess(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyAccess("not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	claims := Claims{
		UserID: uuid.NewString(),
		Role:   string(models.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Expired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-8 * 24 * time.Hour)
	issuer := newTestService(t, WithClock(func() time.Time { return past }))
	pair, err := issuer.Issue(testPrincipal())
	require.NoError(t, err)

	svc := newTestService(t)
	_, err = svc.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_IssueProducesDistinctTokens(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	p := testPrincipal()

	first, err := svc.Issue(p)
	require.NoError(t, err)
	second, err := svc.Issue(p)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}
