package connection

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcamp/medcamp/internal/platform/auth"
)

// Handler exposes connection request and chat endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/chat/request", h.SendRequest)
	api.PUT("/chat/request/:requestID/respond", h.Respond)
	api.GET("/chat/conversation/:connectionID/messages", h.Messages)
	api.POST("/chat/conversation/:connectionID/message", h.SendMessage)
	api.GET("/local-organisation/:userID/requests", h.PendingForOrg)
	api.GET("/local-organisation/:userID/connections", h.ConnectionsForOrg)
	api.GET("/organizer/camp/:campID/connections", h.CampConnections)
}

const msgInvalidIDs = "Invalid ID format in request. All IDs must be UUIDs."

func connectionIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("connectionID"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid connection ID format.")
	}
	return id, nil
}

// SendRequest handles POST /api/chat/request. The missing-identity check
// precedes JSON validation; the identity format check follows it.
func (h *Handler) SendRequest(c echo.Context) error {
	raw, _ := c.Get("user_id").(string)
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Organizer ID missing in request header.")
	}

	var in SendRequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	organizerID, err := uuid.Parse(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidIDs)
	}
	if in.CampID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "campId is required.")
	}
	campID, err := uuid.Parse(*in.CampID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidIDs)
	}
	if in.LocalOrgID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "localOrgId is required.")
	}
	localOrgID, err := uuid.Parse(*in.LocalOrgID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidIDs)
	}

	receipt, err := h.svc.SendRequest(c.Request().Context(), organizerID, campID, localOrgID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersSend):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotOwned), errors.Is(err, ErrLocalOrgNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrDuplicateRequest):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send connection request due to a database error.")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Connection request sent successfully.",
		"request": receipt,
	})
}

// PendingForOrg handles GET /api/local-organisation/:userID/requests.
func (h *Handler) PendingForOrg(c echo.Context) error {
	callerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID format.")
	}

	pending, err := h.svc.PendingForOrg(c.Request().Context(), callerID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotYourRequests), errors.Is(err, ErrNotLocalOrganisation):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch pending requests")
	}

	return c.JSON(http.StatusOK, echo.Map{"pendingRequests": pending})
}

// ConnectionsForOrg handles GET /api/local-organisation/:userID/connections.
// An optional ?status= query narrows the result.
func (h *Handler) ConnectionsForOrg(c echo.Context) error {
	callerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID format.")
	}

	connections, err := h.svc.ConnectionsForOrg(c.Request().Context(), callerID, userID, c.QueryParam("status"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotYourConnections), errors.Is(err, ErrNotLocalOrganisation):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch connections")
	}

	return c.JSON(http.StatusOK, connections)
}

// Respond handles PUT /api/chat/request/:requestID/respond.
func (h *Handler) Respond(c echo.Context) error {
	callerID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	requestID, err := uuid.Parse(c.Param("requestID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID format.")
	}

	var in RespondInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	receipt, err := h.svc.Respond(c.Request().Context(), callerID, requestID, in.Status)
	if err != nil {
		var responded *AlreadyRespondedError
		switch {
		case errors.Is(err, ErrInvalidStatus):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrRequestNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotYourRequest):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.As(err, &responded):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to respond to request")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Request %s successfully.", receipt.Status),
		"request": receipt,
	})
}

// CampConnections handles GET /api/organizer/camp/:campID/connections.
func (h *Handler) CampConnections(c echo.Context) error {
	organizerID, err := auth.RequireIdentity(c, "Unauthorized: Organizer ID missing.", "Invalid organizer ID format.")
	if err != nil {
		return err
	}
	campID, err := uuid.Parse(c.Param("campID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid camp ID format.")
	}

	connections, err := h.svc.CampConnections(c.Request().Context(), organizerID, campID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOnlyOrganizersView):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrCampNotOwned):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch connection statuses")
	}

	return c.JSON(http.StatusOK, connections)
}

// Messages handles GET /api/chat/conversation/:connectionID/messages.
func (h *Handler) Messages(c echo.Context) error {
	userID, err := auth.RequireIdentity(c, "Unauthorized: User ID missing.", "Invalid User ID format.")
	if err != nil {
		return err
	}
	connectionID, err := connectionIDParam(c)
	if err != nil {
		return err
	}

	messages, err := h.svc.Messages(c.Request().Context(), userID, connectionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrConnectionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrChatNotActive), errors.Is(err, ErrNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch messages")
	}

	return c.JSON(http.StatusOK, messages)
}

// SendMessage handles POST /api/chat/conversation/:connectionID/message.
func (h *Handler) SendMessage(c echo.Context) error {
	senderID, err := auth.RequireIdentity(c, "Unauthorized: Sender ID missing from header.", "Invalid Sender ID format in header.")
	if err != nil {
		return err
	}
	connectionID, err := connectionIDParam(c)
	if err != nil {
		return err
	}

	var in MessageInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing JSON in request")
	}

	msg, err := h.svc.SendMessage(c.Request().Context(), senderID, connectionID, in.Text)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrConnectionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrChatNotActive), errors.Is(err, ErrSenderNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send message")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Message sent successfully.",
		"chatMessage": msg,
	})
}
