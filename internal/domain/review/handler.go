package review

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcamp/medcamp/internal/platform/auth"
)

// Handler exposes the review endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/reviews", h.Submit)
	api.GET("/camps/:campID/reviews", h.ListForCamp)
}

// Submit handles POST /api/reviews.
func (h *Handler) Submit(c echo.Context) error {
	userID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}

	var in SubmitInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	rv, err := h.svc.Submit(c.Request().Context(), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrRatingRange),
			errors.Is(err, ErrRatingFormat), errors.Is(err, ErrInvalidCampID):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrOnlyRequesters):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyReviewed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to submit review.")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Review submitted successfully.",
		"review_id": rv.ID,
	})
}

// ListForCamp handles GET /api/camps/:campID/reviews.
func (h *Handler) ListForCamp(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := uuid.Parse(c.Param("campID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid camp ID format.")
	}

	reviews, err := h.svc.ListForCamp(c.Request().Context(), organizerID, campID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersView), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reviews.")
	}

	return c.JSON(http.StatusOK, reviews)
}
