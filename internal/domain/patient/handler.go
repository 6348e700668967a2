package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcamp/medcamp/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/organizer/camp/:campID/patients", h.Add)
	api.GET("/organizer/camp/:campID/patients", h.ListForCamp)
	api.GET("/patient/my-details", h.MyDetails)
}

func campIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("campID"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid camp ID format.")
	}
	return id, nil
}

func (h *Handler) Add(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: Organizer ID missing.", "Invalid Organizer ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}
	var in AddInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	added, err := h.svc.AddToCamp(c.Request().Context(), organizerID, campID, in)
	if err != nil {
		var dup *DuplicateError
		var race *DuplicateRaceError
		switch {
		case errors.Is(err, ErrMissingFields):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrOnlyOrganizersAdd), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.As(err, &dup), errors.As(err, &race):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "An error occurred while adding the patient due to a database issue.")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Patient added successfully",
		"patient": added,
	})
}

func (h *Handler) ListForCamp(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: Organizer ID missing.", "Invalid Organizer ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}

	patients, err := h.svc.ListByCamp(c.Request().Context(), organizerID, campID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersView), errors.Is(err, ErrNotPatientsOwner):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "An error occurred while fetching patients.")
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) MyDetails(c echo.Context) error {
	userID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}

	records, err := h.svc.MyDetails(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoPatientRecords) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "An error occurred while fetching patient details.")
	}
	return c.JSON(http.StatusOK, records)
}
