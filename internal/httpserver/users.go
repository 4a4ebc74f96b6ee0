package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tour_service/internal/logging"
	"github.com/Skotchmaster/tour_service/internal/middleware/auth"
	"github.com/Skotchmaster/tour_service/internal/models"
	"github.com/Skotchmaster/tour_service/internal/service"
)

type UsersHTTP struct {
	Svc *service.UserService
}

type updateUserRequest struct {
	Email     *string      `json:"email"`
	Password  *string      `json:"password"`
	FirstName *string      `json:"firstName"`
	LastName  *string      `json:"lastName"`
	Role      *models.Role `json:"role"`
	IsActive  *bool        `json:"isActive"`
}

// principal is only called behind a guard, so a missing principal is a routing bug.
func principal(c echo.Context) (models.Principal, error) {
	p, ok := auth.PrincipalFromEcho(c)
	if !ok {
		return models.Principal{}, httpError(auth.ErrUnauthenticated)
	}
	return *p, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *UsersHTTP) List(c echo.Context) error {
	users, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UsersHTTP) Profile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return httpError(auth.ErrUnauthenticated)
	}
	user, err := h.Svc.Get(c.Request().Context(), p, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) AdvancedProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "advanced profile", "user": p})
}

func (h *UsersHTTP) AdminDashboard(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "admin dashboard", "user": p})
}

func (h *UsersHTTP) Settings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user settings", "user": p})
}

func (h *UsersHTTP) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Get(c.Request().Context(), p, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).With("handler", "users_update").Warn("update_user_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Update(ctx, p, id, service.UpdateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), p, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
