package assistant

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for chatbot context and transcripts.
type Repository interface {
	// ContextByRecord returns the prompt context from a specific patient
	// record, scoped to its owning account. Returns (nil, nil) when the
	// record does not exist or belongs to someone else.
	ContextByRecord(ctx context.Context, recordID, userID uuid.UUID) (*PatientContext, error)
	// LatestContext returns the prompt context from the account's newest
	// patient record. Returns (nil, nil) when the account has none.
	LatestContext(ctx context.Context, userID uuid.UUID) (*PatientContext, error)
	// SaveMessage appends one side of an exchange to the transcript and
	// fills in the generated ID and timestamp.
	SaveMessage(ctx context.Context, msg *ChatMessage) error
}
