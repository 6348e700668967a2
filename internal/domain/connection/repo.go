package connection

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for connection requests and chat
// messages. Find methods return (nil, nil) when no matching row exists.
type Repository interface {
	// CreateRequest inserts a pending request and returns its receipt.
	CreateRequest(ctx context.Context, campID, organizerID, localOrgID uuid.UUID) (*RequestReceipt, error)
	// FindRequest returns the request with the given ID.
	FindRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	// UpdateRequestStatus stamps the response time and returns the receipt.
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) (*ResponseReceipt, error)
	// ListPendingForOrg returns a local organisation's pending requests,
	// newest first.
	ListPendingForOrg(ctx context.Context, localOrgID uuid.UUID) ([]PendingRequest, error)
	// ListForOrg returns a local organisation's requests, optionally
	// filtered by status, most recently responded first.
	ListForOrg(ctx context.Context, localOrgID uuid.UUID, statusFilter string) ([]Connection, error)
	// ListForCamp returns the requests sent from one organizer's camp.
	ListForCamp(ctx context.Context, campID, organizerID uuid.UUID) ([]CampConnection, error)
	// ListMessages returns a conversation's messages, oldest first.
	ListMessages(ctx context.Context, connectionID uuid.UUID) ([]ChatMessage, error)
	// CreateMessage inserts a chat message and returns it with the sender's
	// name resolved.
	CreateMessage(ctx context.Context, connectionID, senderID uuid.UUID, text string) (*ChatMessage, error)
}

// Camps is the camp lookup used for ownership checks.
type Camps interface {
	CampHeader(ctx context.Context, id uuid.UUID) (name string, organizerID uuid.UUID, ok bool, err error)
}
