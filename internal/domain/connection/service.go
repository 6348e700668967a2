package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/platform/db"
	"github.com/medcamp/medcamp/internal/platform/ws"
)

// Error messages are part of the API contract and must not be reworded.
var (
	ErrOnlyOrganizersSend   = errors.New("Forbidden: Only organizers can send connection requests.")
	ErrCampNotOwned         = errors.New("Camp not found or not owned by this organizer.")
	ErrLocalOrgNotFound     = errors.New("Local organisation not found or invalid type.")
	ErrDuplicateRequest     = errors.New("Connection request already exists or involves invalid IDs.")
	ErrNotYourRequests      = errors.New("Forbidden: You can only access your own requests.")
	ErrNotYourConnections   = errors.New("Forbidden: You can only access your own connections.")
	ErrNotLocalOrganisation = errors.New("Forbidden: User not a local organisation or not found.")
	ErrOnlyOrganizersView   = errors.New("Forbidden: Only organizers can view camp connections.")
	ErrInvalidStatus        = errors.New("Invalid status. Must be 'accepted' or 'declined'.")
	ErrRequestNotFound      = errors.New("Request not found.")
	ErrNotYourRequest       = errors.New("Forbidden: This request does not belong to you.")
	ErrConnectionNotFound   = errors.New("Connection not found.")
	ErrChatNotActive        = errors.New("Chat not active for this connection.")
	ErrNotParticipant       = errors.New("Forbidden: You are not part of this conversation.")
	ErrSenderNotParticipant = errors.New("Forbidden: Sender not part of this conversation.")
	ErrEmptyMessage         = errors.New("Message text cannot be empty.")
)

// AlreadyRespondedError is returned when responding to a request that has
// already been accepted or declined.
type AlreadyRespondedError struct {
	Status string
}

func (e *AlreadyRespondedError) Error() string {
	return fmt.Sprintf("Request already responded to (status: %s).", e.Status)
}

// EventTypeChatMessage is the websocket event type for new chat messages.
const EventTypeChatMessage = "chat.message"

// Service owns connection request and chat semantics.
type Service struct {
	repo   Repository
	users  user.Directory
	camps  Camps
	events ws.EventPublisher
	logger zerolog.Logger
}

// NewService wires the connection service. events may be nil when no
// realtime transport is attached.
func NewService(repo Repository, users user.Directory, camps Camps, events ws.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		camps:  camps,
		events: events,
		logger: logger.With().Str("component", "connection").Logger(),
	}
}

// SendRequest creates a pending connection request from an organizer's camp
// to a local organisation.
func (s *Service) SendRequest(ctx context.Context, organizerID, campID, localOrgID uuid.UUID) (*RequestReceipt, error) {
	caller, err := s.users.Lookup(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if caller == nil || caller.UserType != user.TypeOrganizer {
		return nil, ErrOnlyOrganizersSend
	}

	_, owner, ok, err := s.camps.CampHeader(ctx, campID)
	if err != nil {
		return nil, err
	}
	if !ok || owner != organizerID {
		s.logger.Warn().
			Str("camp_id", campID.String()).
			Str("organizer_id", organizerID.String()).
			Msg("connection request for missing or unowned camp")
		return nil, ErrCampNotOwned
	}

	target, err := s.users.Lookup(ctx, localOrgID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.UserType != user.TypeLocalOrganisation {
		s.logger.Warn().
			Str("local_org_id", localOrgID.String()).
			Msg("connection request for missing or invalid local organisation")
		return nil, ErrLocalOrgNotFound
	}

	receipt, err := s.repo.CreateRequest(ctx, campID, organizerID, localOrgID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	s.logger.Info().
		Str("request_id", receipt.ID.String()).
		Str("camp_id", campID.String()).
		Str("local_org_id", localOrgID.String()).
		Msg("connection request created")
	return receipt, nil
}

// PendingForOrg returns a local organisation's pending requests. Callers may
// only read their own inbox.
func (s *Service) PendingForOrg(ctx context.Context, callerID, userID uuid.UUID) ([]PendingRequest, error) {
	if callerID != userID {
		return nil, ErrNotYourRequests
	}
	if err := s.requireLocalOrganisation(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListPendingForOrg(ctx, userID)
}

// ConnectionsForOrg returns a local organisation's requests in every status,
// optionally narrowed by statusFilter. Callers may only read their own.
func (s *Service) ConnectionsForOrg(ctx context.Context, callerID, userID uuid.UUID, statusFilter string) ([]Connection, error) {
	if callerID != userID {
		return nil, ErrNotYourConnections
	}
	if err := s.requireLocalOrganisation(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListForOrg(ctx, userID, statusFilter)
}

func (s *Service) requireLocalOrganisation(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.Lookup(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || u.UserType != user.TypeLocalOrganisation {
		return ErrNotLocalOrganisation
	}
	return nil
}

// Respond accepts or declines a pending request. Only the recipient local
// organisation may respond, and only once.
func (s *Service) Respond(ctx context.Context, userID, requestID uuid.UUID, status string) (*ResponseReceipt, error) {
	if status != StatusAccepted && status != StatusDeclined {
		return nil, ErrInvalidStatus
	}

	req, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.LocalOrgID != userID {
		return nil, ErrNotYourRequest
	}
	if req.Status != StatusPending {
		return nil, &AlreadyRespondedError{Status: req.Status}
	}

	receipt, err := s.repo.UpdateRequestStatus(ctx, requestID, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("request_id", requestID.String()).
		Str("status", status).
		Msg("connection request responded")
	return receipt, nil
}

// CampConnections returns the requests sent from one camp, for its owning
// organizer.
func (s *Service) CampConnections(ctx context.Context, organizerID, campID uuid.UUID) ([]CampConnection, error) {
	caller, err := s.users.Lookup(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if caller == nil || caller.UserType != user.TypeOrganizer {
		return nil, ErrOnlyOrganizersView
	}

	_, owner, ok, err := s.camps.CampHeader(ctx, campID)
	if err != nil {
		return nil, err
	}
	if !ok || owner != organizerID {
		return nil, ErrCampNotOwned
	}

	return s.repo.ListForCamp(ctx, campID, organizerID)
}

// Messages returns a conversation's history. The connection must be accepted
// and the caller must be one of its two participants.
func (s *Service) Messages(ctx context.Context, userID, connectionID uuid.UUID) ([]ChatMessage, error) {
	req, err := s.repo.FindRequest(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrConnectionNotFound
	}
	if req.Status != StatusAccepted {
		return nil, ErrChatNotActive
	}
	if userID != req.OrganizerID && userID != req.LocalOrgID {
		return nil, ErrNotParticipant
	}
	return s.repo.ListMessages(ctx, connectionID)
}

// SendMessage stores a chat message and broadcasts it on the conversation's
// topic. Whitespace-only text is rejected; accepted text is stored verbatim.
func (s *Service) SendMessage(ctx context.Context, senderID, connectionID uuid.UUID, text string) (*ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	req, err := s.repo.FindRequest(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrConnectionNotFound
	}
	if req.Status != StatusAccepted {
		return nil, ErrChatNotActive
	}
	if senderID != req.OrganizerID && senderID != req.LocalOrgID {
		return nil, ErrSenderNotParticipant
	}

	msg, err := s.repo.CreateMessage(ctx, connectionID, senderID, text)
	if err != nil {
		return nil, err
	}

	s.publishChatMessage(ctx, connectionID, msg)
	return msg, nil
}

func (s *Service) publishChatMessage(ctx context.Context, connectionID uuid.UUID, msg *ChatMessage) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal chat message event")
		return
	}
	event := ws.Event{
		Type:      EventTypeChatMessage,
		Topic:     ws.ChatTopic(connectionID),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("connection_id", connectionID.String()).
			Msg("failed to publish chat message event")
	}
}
