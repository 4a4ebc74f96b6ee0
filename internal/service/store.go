package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/tour_service/internal/events"
	"github.com/Skotchmaster/tour_service/internal/models"
)

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type TourStore interface {
	GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	ListTours(ctx context.Context, status models.TourStatus) ([]models.Tour, error)
	CreateTour(ctx context.Context, t *models.Tour) error
	SaveTour(ctx context.Context, t *models.Tour) error
	DeleteTour(ctx context.Context, id uuid.UUID) error
}

const publishTimeout = 5 * time.Second

// publish is best effort: a broker failure is logged and never fails the request.
func publish(ctx context.Context, l *slog.Logger, p events.Publisher, topic, key string, ev events.Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		l.Error("publish_event_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
