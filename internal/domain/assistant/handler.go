package assistant

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medcamp/medcamp/internal/platform/auth"
)

// Handler exposes the translation and chatbot endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/translate", h.Translate)
	api.POST("/patient/chatbot", h.Chat)
}

// Translate handles POST /api/translate. The endpoint does not require an
// identity; the frontend calls it before login for UI strings.
func (h *Handler) Translate(c echo.Context) error {
	var in TranslateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	result, err := h.svc.Translate(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrMissingTextOrTarget) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

// Chat handles POST /api/patient/chatbot.
func (h *Handler) Chat(c echo.Context) error {
	userID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}

	var in ChatInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	reply, err := h.svc.Chat(c.Request().Context(), userID, in)
	if err != nil {
		if errors.Is(err, ErrMessageRequired) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Database connection failed for chatbot context.")
	}

	return c.JSON(http.StatusOK, reply)
}
