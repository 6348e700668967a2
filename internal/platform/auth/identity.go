package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequireIdentity returns the caller's user ID from the context populated by
// the auth middleware. When no identity is present it fails with a 401
// carrying missingMsg; when the stored identity is not a valid UUID it fails
// with a 400 carrying invalidMsg. The message pair varies per endpoint, so
// callers supply the established wording for their route.
func RequireIdentity(c echo.Context, missingMsg, invalidMsg string) (uuid.UUID, error) {
	raw, _ := c.Get("user_id").(string)
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, missingMsg)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, invalidMsg)
	}
	return id, nil
}
