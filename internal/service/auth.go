package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/tour_service/internal/events"
	"github.com/Skotchmaster/tour_service/internal/hash"
	"github.com/Skotchmaster/tour_service/internal/logging"
	"github.com/Skotchmaster/tour_service/internal/models"
	"github.com/Skotchmaster/tour_service/internal/repo"
	"github.com/Skotchmaster/tour_service/internal/tokens"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashed string) bool
}

type TokenIssuer interface {
	Issue(p models.Principal) (tokens.TokenPair, error)
	VerifyRefresh(token string) (models.Principal, error)
}

type AuthService struct {
	Users  UserStore
	Hasher PasswordHasher
	Tokens TokenIssuer
	Events events.Publisher
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

type LoginResult struct {
	User   *models.User
	Tokens tokens.TokenPair
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if len(password) > hash.MaxPasswordBytes {
		return fmt.Errorf("%w: password is longer than %d bytes", ErrValidation, hash.MaxPasswordBytes)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateCredentials(in.Email, in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	_, err := s.Users.FindUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		l.Warn("register_error", "status", 409, "reason", "user already exists")
		return nil, ErrAlreadyExists
	case !errors.Is(err, repo.ErrNotFound):
		l.Error("register_error", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:     in.Email,
		Password:  pwHash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
		IsActive:  true,
	}
	if err := s.Users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 409, "reason", "user already exists")
			return nil, ErrAlreadyExists
		}
		l.Error("register_error", "status", 500, "reason", "cannot insert user", "error", err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	publish(ctx, l, s.Events, events.UserTopic, user.ID.String(), events.New("user_registered", map[string]any{
		"userId": user.ID.String(),
		"email":  user.Email,
		"role":   user.Role,
	}))
	l.Info("register_successful", "user_id", user.ID.String())
	return user, nil
}

// Login keeps ErrNotFound and ErrInvalidCredentials apart; the HTTP layer shows both the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrNotFound
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if !user.IsActive {
		l.Warn("login_failed", "status", 401, "reason", "account deactivated", "user_id", user.ID.String())
		return nil, ErrNotFound
	}

	if !s.Hasher.Verify(password, user.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID.String())
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(user.Principal())
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	publish(ctx, l, s.Events, events.UserTopic, user.ID.String(), events.New("user_logged_in", map[string]any{
		"userId": user.ID.String(),
	}))
	l.Info("login_successful", "user_id", user.ID.String())
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Refresh mints a new pair. The presented refresh token is not revoked and
// stays usable until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	p, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		return nil, err
	}

	id, err := uuid.Parse(p.UserID)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "subject is not a uuid")
		return nil, tokens.ErrInvalidToken
	}

	user, err := s.Users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "user no longer exists", "user_id", p.UserID)
			return nil, ErrNotFound
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if !user.IsActive {
		l.Warn("refresh_failed", "status", 401, "reason", "account deactivated", "user_id", p.UserID)
		return nil, ErrNotFound
	}

	pair, err := s.Tokens.Issue(user.Principal())
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	l.Info("refresh_successful", "user_id", p.UserID)
	return &pair, nil
}

// LogOut has nothing to revoke: tokens are stateless.
func (s *AuthService) LogOut(ctx context.Context) error {
	logging.FromContext(ctx).With("svc", "auth.logout").Info("logout")
	return nil
}
