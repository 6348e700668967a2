package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for camp reviews.
type Repository interface {
	// Create inserts the review and fills in the generated ID and creation
	// timestamp.
	Create(ctx context.Context, r *Review) error
	// ExistsForUser reports whether the user already reviewed the camp.
	ExistsForUser(ctx context.Context, campID, userID uuid.UUID) (bool, error)
	// ListForCamp returns a camp's reviews, newest first, with reviewer
	// names joined in.
	ListForCamp(ctx context.Context, campID uuid.UUID) ([]CampReview, error)
}

// Camps is the camp lookup used for existence and ownership checks.
type Camps interface {
	CampHeader(ctx context.Context, id uuid.UUID) (name string, organizerID uuid.UUID, ok bool, err error)
}
