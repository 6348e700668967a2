package followup

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for follow-up entries.
type Repository interface {
	// Create inserts the follow-up and fills in the generated ID and
	// creation timestamp.
	Create(ctx context.Context, fu *FollowUp) error
	// ListForCamp returns a camp's follow-up entries, newest first.
	ListForCamp(ctx context.Context, campID uuid.UUID) ([]ListEntry, error)
	// LatestForPatient returns the newest follow-up whose linked user ID,
	// or stored identifier, matches the patient. Returns (nil, nil) when
	// nothing matches.
	LatestForPatient(ctx context.Context, userID uuid.UUID, email, phone string) (*EligibleFollowUp, error)
}

// Camps is the camp lookup used for existence and ownership checks.
type Camps interface {
	CampHeader(ctx context.Context, id uuid.UUID) (name string, organizerID uuid.UUID, ok bool, err error)
}
