// Package connection manages the collaboration channel between camp
// organizers and local organisations: connection requests sent from a camp,
// the accept/decline lifecycle, and the chat that opens once a request is
// accepted.
package connection

import (
	"time"

	"github.com/google/uuid"

	"github.com/medcamp/medcamp/internal/domain/camp"
)

// Connection request statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Request maps to the connection_requests table.
type Request struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CampID      uuid.UUID  `db:"camp_id" json:"camp_id"`
	OrganizerID uuid.UUID  `db:"organizer_id" json:"organizer_id"`
	LocalOrgID  uuid.UUID  `db:"local_org_id" json:"local_org_id"`
	Status      string     `db:"status" json:"status"`
	RequestedAt time.Time  `db:"requested_at" json:"requested_at"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at"`
}

// RequestReceipt is the request object returned on creation.
type RequestReceipt struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}

// ResponseReceipt is the request object returned after accept or decline.
type ResponseReceipt struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	RespondedAt time.Time `json:"responded_at"`
}

// PendingRequest is one row of a local organisation's pending inbox, with
// the camp and organizer details joined in.
type PendingRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	Status        string    `json:"status"`
	RequestedAt   time.Time `json:"requested_at"`
	CampID        uuid.UUID `json:"camp_id"`
	CampName      string    `json:"camp_name"`
	CampStartDate camp.Date `json:"camp_start_date"`
	OrganizerID   uuid.UUID `json:"organizer_id"`
	OrganizerName string    `json:"organizer_name"`
}

// Connection is one row of a local organisation's connection history.
type Connection struct {
	ConnectionID  uuid.UUID  `json:"connection_id"`
	CampID        uuid.UUID  `json:"camp_id"`
	CampName      string     `json:"camp_name"`
	OrganizerID   uuid.UUID  `json:"organizer_id"`
	OrganizerName string     `json:"organizer_name"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	RespondedAt   *time.Time `json:"responded_at"`
}

// CampConnection is one row of an organizer's per-camp connection list.
type CampConnection struct {
	ConnectionID uuid.UUID  `json:"connection_id"`
	LocalOrgID   uuid.UUID  `json:"local_org_id"`
	LocalOrgName string     `json:"local_org_name"`
	Status       string     `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	RespondedAt  *time.Time `json:"responded_at"`
}

// ChatMessage maps to the chat_messages table with the sender's username
// joined in as sender_name.
type ChatMessage struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SenderID    uuid.UUID `db:"sender_id" json:"sender_id"`
	SenderName  string    `db:"sender_name" json:"sender_name"`
	MessageText string    `db:"message_text" json:"message_text"`
	SentAt      time.Time `db:"sent_at" json:"sent_at"`
}

// SendRequestInput is the body of a connection request creation. Pointer
// fields distinguish an absent key from a malformed value.
type SendRequestInput struct {
	CampID     *string `json:"campId"`
	LocalOrgID *string `json:"localOrgId"`
}

// RespondInput is the body of an accept/decline response.
type RespondInput struct {
	Status string `json:"status"`
}

// MessageInput is the body of a chat message.
type MessageInput struct {
	Text string `json:"text"`
}
