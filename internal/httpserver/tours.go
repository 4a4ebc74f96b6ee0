package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tour_service/internal/logging"
	"github.com/Skotchmaster/tour_service/internal/models"
	"github.com/Skotchmaster/tour_service/internal/service"
)

type ToursHTTP struct {
	Svc *service.TourService
}

type tourRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price"`
	Duration    *int       `json:"duration"`
	MaxCapacity *int       `json:"maxCapacity"`
	ImageURL    *string    `json:"imageUrl"`
	Location    *string    `json:"location"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

type statusRequest struct {
	Status models.TourStatus `json:"status"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *ToursHTTP) ListActive(c echo.Context) error {
	tours, err := h.Svc.ListActive(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tours)
}

func (h *ToursHTTP) ListAll(c echo.Context) error {
	tours, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tours)
}

func (h *ToursHTTP) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *ToursHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	var req tourRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).With("handler", "tours_create").Warn("create_tour_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	t, err := h.Svc.Create(ctx, service.CreateTourInput{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Price:       deref(req.Price),
		Duration:    deref(req.Duration),
		MaxCapacity: deref(req.MaxCapacity),
		ImageURL:    deref(req.ImageURL),
		Location:    deref(req.Location),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *ToursHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req tourRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).With("handler", "tours_update").Warn("update_tour_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	t, err := h.Svc.Update(ctx, id, service.UpdateTourInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
		MaxCapacity: req.MaxCapacity,
		ImageURL:    req.ImageURL,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *ToursHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	t, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *ToursHTTP) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
