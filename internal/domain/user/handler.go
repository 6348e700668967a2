package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.GET("/local-organisations", h.ListLocalOrganisations)
}

func (h *Handler) Signup(c echo.Context) error {
	var in SignupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	u, err := h.svc.Signup(c.Request().Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingSignupFields),
			errors.Is(err, ErrInvalidUserType),
			errors.Is(err, ErrAddressRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUserExists), errors.Is(err, ErrUserExistsRace):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "An error occurred during registration. Please try again.")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "User created successfully! A basic patient profile was also created if you signed up as a patient.",
		"user":    u.Profile(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	u, token, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "An error occurred during login.")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Login successful!",
		"user":    u.Profile(),
		"token":   token,
	})
}

func (h *Handler) ListLocalOrganisations(c echo.Context) error {
	orgs, err := h.svc.ListLocalOrganisations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch local organisations")
	}
	if orgs == nil {
		orgs = []*LocalOrganisation{}
	}
	return c.JSON(http.StatusOK, orgs)
}
