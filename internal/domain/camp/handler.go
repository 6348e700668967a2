package camp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

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
	api.POST("/organizer/camps", h.Create)
	api.GET("/organizer/camps", h.ListForOrganizer)
	api.GET("/organizer/camps/:campID", h.Details)
	api.DELETE("/organizer/camps/:campID", h.Delete)
	api.GET("/organizer/camps/:campID/registrations", h.Registrations)
	api.GET("/organizer/camps/:campID/report", h.Report)
	api.GET("/organizer/camp/:campID/resources", h.Resources)
	api.POST("/organizer/camp/:campID/resources", h.SaveResources)
	api.GET("/camps", h.ListPublic)
	api.GET("/camps/nearby", h.Nearby)
	api.POST("/camps/:campID/register", h.Register)
}

func campIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("campID"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid camp ID format.")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid user identifier format.")
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	created, err := h.svc.Create(c.Request().Context(), organizerID, in)
	if err != nil {
		var missing *MissingFieldsError
		switch {
		case errors.As(err, &missing):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrOnlyOrganizersCreate):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create camp")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Camp created successfully",
		"camp":    created,
	})
}

func (h *Handler) ListForOrganizer(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}

	camps, err := h.svc.ListForOrganizer(c.Request().Context(), organizerID)
	if err != nil {
		if errors.Is(err, ErrOnlyOrganizersList) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch camps")
	}
	return c.JSON(http.StatusOK, camps)
}

func (h *Handler) Details(c echo.Context) error {
	requesterID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}

	camp, err := h.svc.Details(c.Request().Context(), requesterID, campID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersDetails), errors.Is(err, ErrNotCampDetailsOwner):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch camp details.")
	}
	return c.JSON(http.StatusOK, camp)
}

func (h *Handler) Delete(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), organizerID, campID); err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersDelete), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound), errors.Is(err, ErrCampDeleteRace):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete camp.")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Camp with ID %s deleted successfully.", campID),
	})
}

func (h *Handler) Resources(c echo.Context) error {
	requesterID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}

	res, err := h.svc.Resources(c.Request().Context(), requesterID, campID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersResources), errors.Is(err, ErrNotResourcesOwner):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFoundBare):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch camp resources")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) SaveResources(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: Organizer ID missing.", "Invalid Organizer ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}
	var in ResourcesInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	if err := h.svc.SaveResources(c.Request().Context(), organizerID, campID, in); err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersSaveResources), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save camp resources")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Camp resources saved successfully."})
}

func (h *Handler) ListPublic(c echo.Context) error {
	refs, err := h.svc.ListPublic(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch camps")
	}
	return c.JSON(http.StatusOK, refs)
}

func (h *Handler) Nearby(c echo.Context) error {
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if latErr != nil || lngErr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrInvalidCoordinates.Error())
	}
	var radius float64
	if raw := c.QueryParam("radius_km"); raw != "" {
		var err error
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid radius_km format.")
		}
	}

	camps, err := h.svc.Nearby(c.Request().Context(), lat, lng, radius)
	if err != nil {
		if errors.Is(err, ErrInvalidCoordinates) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch nearby camps")
	}
	return c.JSON(http.StatusOK, camps)
}

type registerInput struct {
	Notes *string `json:"notes"`
}

func (h *Handler) Register(c echo.Context) error {
	userID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}
	var in registerInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	reg, err := h.svc.Register(c.Request().Context(), userID, campID, in.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyRegistered):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register for camp.")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "Registered for camp successfully.",
		"registration": reg,
	})
}

func (h *Handler) Registrations(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}

	regs, err := h.svc.Registrations(c.Request().Context(), organizerID, campID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersRegistrations), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch camp registrations.")
	}
	return c.JSON(http.StatusOK, regs)
}

func (h *Handler) Report(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	campID, err := campIDParam(c)
	if err != nil {
		return err
	}
	format := c.QueryParam("format")
	if format == "" {
		format = ReportFormatXLSX
	}

	report, err := h.svc.ExportReport(c.Request().Context(), organizerID, campID, format)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedReportFormat):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrOnlyOrganizersReport), errors.Is(err, ErrNotCampOrganizer):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate camp report.")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+report.Filename+`"`)
	return c.Blob(http.StatusOK, report.ContentType, report.Data)
}
