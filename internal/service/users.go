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
)

type UserService struct {
	Users  UserStore
	Hasher PasswordHasher
	Events events.Publisher
}

// UpdateUserInput is a partial update: nil fields are left alone.
type UpdateUserInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Role      *models.Role
	IsActive  *bool
}

func selfOrAdmin(p models.Principal, id uuid.UUID) error {
	if p.Role == models.RoleAdmin || p.UserID == id.String() {
		return nil
	}
	return ErrForbidden
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		logging.FromContext(ctx).With("svc", "users.list").Error("list_users_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.User, error) {
	if err := selfOrAdmin(p, id); err != nil {
		logging.FromContext(ctx).With("svc", "users.get").Warn("get_user_denied", "status", 403, "user_id", p.UserID, "target_id", id.String())
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *UserService) Update(ctx context.Context, p models.Principal, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update")

	if err := selfOrAdmin(p, id); err != nil {
		l.Warn("update_user_denied", "status", 403, "user_id", p.UserID, "target_id", id.String())
		return nil, err
	}
	if (in.Role != nil || in.IsActive != nil) && p.Role != models.RoleAdmin {
		l.Warn("update_user_denied", "status", 403, "reason", "role and isActive are admin only", "user_id", p.UserID)
		return nil, ErrForbidden
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil && *in.Email != user.Email {
		if strings.TrimSpace(*in.Email) == "" {
			return nil, fmt.Errorf("%w: email must not be empty", ErrValidation)
		}
		_, err := s.Users.FindUserByEmail(ctx, *in.Email)
		switch {
		case err == nil:
			l.Warn("update_user_failed", "status", 409, "reason", "email already taken")
			return nil, ErrAlreadyExists
		case !errors.Is(err, repo.ErrNotFound):
			return nil, fmt.Errorf("find user by email: %w", err)
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		if *in.Password == "" || len(*in.Password) > hash.MaxPasswordBytes {
			return nil, fmt.Errorf("%w: password must be 1 to %d bytes", ErrValidation, hash.MaxPasswordBytes)
		}
		pwHash, err := s.Hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = pwHash
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *in.Role)
		}
		user.Role = *in.Role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := s.Users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		l.Error("update_user_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("update user: %w", err)
	}
	l.Info("update_user_successful", "user_id", user.ID.String())
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "users.delete")

	if err := selfOrAdmin(p, id); err != nil {
		l.Warn("delete_user_denied", "status", 403, "user_id", p.UserID, "target_id", id.String())
		return err
	}
	if err := s.Users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		l.Error("delete_user_failed", "status", 500, "error", err)
		return fmt.Errorf("delete user: %w", err)
	}

	publish(ctx, l, s.Events, events.UserTopic, id.String(), events.New("user_deleted", map[string]any{
		"userId": id.String(),
	}))
	l.Info("delete_user_successful", "user_id", id.String())
	return nil
}
