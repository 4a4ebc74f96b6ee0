package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/tour_service/internal/events"
	"github.com/Skotchmaster/tour_service/internal/logging"
	"github.com/Skotchmaster/tour_service/internal/models"
	"github.com/Skotchmaster/tour_service/internal/repo"
)

type TourService struct {
	Tours  TourStore
	Events events.Publisher
}

type CreateTourInput struct {
	Title       string
	Description string
	Price       float64
	Duration    int
	MaxCapacity int
	ImageURL    string
	Location    string
	StartDate   *time.Time
	EndDate     *time.Time
}

type UpdateTourInput struct {
	Title       *string
	Description *string
	Price       *float64
	Duration    *int
	MaxCapacity *int
	ImageURL    *string
	Location    *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func tourEvent(typ string, t *models.Tour) events.Event {
	return events.New(typ, map[string]any{
		"tourId": t.ID.String(),
		"title":  t.Title,
		"status": t.Status,
	})
}

func (s *TourService) ListActive(ctx context.Context) ([]models.Tour, error) {
	tours, err := s.Tours.ListTours(ctx, models.TourActive)
	if err != nil {
		return nil, fmt.Errorf("list active tours: %w", err)
	}
	return tours, nil
}

func (s *TourService) ListAll(ctx context.Context) ([]models.Tour, error) {
	tours, err := s.Tours.ListTours(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	return tours, nil
}

func (s *TourService) Get(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	t, err := s.Tours.GetTour(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tour: %w", err)
	}
	return t, nil
}

func (s *TourService) Create(ctx context.Context, in CreateTourInput) (*models.Tour, error) {
	l := logging.FromContext(ctx).With("svc", "tours.create")

	t := &models.Tour{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Duration:    in.Duration,
		MaxCapacity: in.MaxCapacity,
		ImageURL:    in.ImageURL,
		Location:    in.Location,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      models.TourDraft,
	}
	if err := s.Tours.CreateTour(ctx, t); err != nil {
		l.Error("create_tour_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("create tour: %w", err)
	}

	publish(ctx, l, s.Events, events.TourTopic, t.ID.String(), tourEvent("tour_created", t))
	l.Info("create_tour_successful", "tour_id", t.ID.String())
	return t, nil
}

func (s *TourService) Update(ctx context.Context, id uuid.UUID, in UpdateTourInput) (*models.Tour, error) {
	l := logging.FromContext(ctx).With("svc", "tours.update")

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Price != nil {
		t.Price = *in.Price
	}
	if in.Duration != nil {
		t.Duration = *in.Duration
	}
	if in.MaxCapacity != nil {
		t.MaxCapacity = *in.MaxCapacity
	}
	if in.ImageURL != nil {
		t.ImageURL = *in.ImageURL
	}
	if in.Location != nil {
		t.Location = *in.Location
	}
	if in.StartDate != nil {
		t.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		t.EndDate = in.EndDate
	}

	if err := s.Tours.SaveTour(ctx, t); err != nil {
		l.Error("update_tour_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("save tour: %w", err)
	}
	publish(ctx, l, s.Events, events.TourTopic, t.ID.String(), tourEvent("tour_updated", t))
	l.Info("update_tour_successful", "tour_id", t.ID.String())
	return t, nil
}

func (s *TourService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TourStatus) (*models.Tour, error) {
	l := logging.FromContext(ctx).With("svc", "tours.update_status")

	if !status.Valid() {
		l.Warn("update_status_failed", "status", 400, "reason", "unknown status", "value", string(status))
		return nil, fmt.Errorf("%w: unknown tour status %q", ErrValidation, status)
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Status = status
	if err := s.Tours.SaveTour(ctx, t); err != nil {
		l.Error("update_status_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("save tour: %w", err)
	}
	publish(ctx, l, s.Events, events.TourTopic, t.ID.String(), tourEvent("tour_status_changed", t))
	l.Info("update_status_successful", "tour_id", t.ID.String(), "tour_status", string(status))
	return t, nil
}

func (s *TourService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "tours.delete")

	if err := s.Tours.DeleteTour(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		l.Error("delete_tour_failed", "status", 500, "error", err)
		return fmt.Errorf("delete tour: %w", err)
	}
	publish(ctx, l, s.Events, events.TourTopic, id.String(), events.New("tour_deleted", map[string]any{
		"tourId": id.String(),
	}))
	l.Info("delete_tour_successful", "tour_id", id.String())
	return nil
}
