package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/tour_service/internal/models"
)

func (r *GormRepo) GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	var tour models.Tour
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&tour).Error; err != nil {
		return nil, translate(err)
	}
	return &tour, nil
}

// ListTours returns newest first; an empty status lists every tour.
func (r *GormRepo) ListTours(ctx context.Context, status models.TourStatus) ([]models.Tour, error) {
	q := r.DB.WithContext(ctx).Model(&models.Tour{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	items := make([]models.Tour, 0)
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateTour(ctx context.Context, t *models.Tour) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) SaveTour(ctx context.Context, t *models.Tour) error {
	return translate(r.DB.WithContext(ctx).Save(t).Error)
}

func (r *GormRepo) DeleteTour(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Tour{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
