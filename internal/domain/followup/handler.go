package followup

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcamp/medcamp/internal/platform/auth"
)

// Handler exposes the follow-up endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/camps/:campID/patients/followup", h.Add)
	api.GET("/camps/:campID/patients/followup", h.ListForCamp)
	api.GET("/patient/followup-eligibility", h.Eligibility)
}

// Add handles POST /api/camps/:campID/patients/followup.
func (h *Handler) Add(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := uuid.Parse(c.Param("campID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid camp ID format.")
	}

	var in AddInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	receipt, err := h.svc.Add(c.Request().Context(), organizerID, campID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrIdentifierRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrOnlyOrganizersAdd), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to add patient for follow-up.")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Patient added for follow-up.",
		"follow_up": receipt,
	})
}

// ListForCamp handles GET /api/camps/:campID/patients/followup.
func (h *Handler) ListForCamp(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := uuid.Parse(c.Param("campID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid camp ID format.")
	}

	entries, err := h.svc.ListForCamp(c.Request().Context(), organizerID, campID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersList), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch follow-up list.")
	}

	return c.JSON(http.StatusOK, entries)
}

// Eligibility handles GET /api/patient/followup-eligibility.
func (h *Handler) Eligibility(c echo.Context) error {
	userID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}

	elig, err := h.svc.Eligibility(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotPatient) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check follow-up eligibility.")
	}

	return c.JSON(http.StatusOK, elig)
}
