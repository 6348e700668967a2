package feedback

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medcamp/medcamp/internal/platform/auth"
)

// Handler exposes the feedback endpoint.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patient/feedback", h.Submit)
}

// Submit handles POST /api/patient/feedback.
func (h *Handler) Submit(c echo.Context) error {
	userID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}

	var in SubmitInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	if _, err := h.svc.Submit(c.Request().Context(), userID, in); err != nil {
		switch {
		case errors.Is(err, ErrTextRequired), errors.Is(err, ErrRatingRange), errors.Is(err, ErrRatingFormat):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to submit feedback.")
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "Feedback submitted successfully."})
}
