package feedback

import "context"

// Repository is the persistence surface for patient feedback.
type Repository interface {
	// Create inserts the feedback and fills in the generated ID and
	// creation timestamp.
	Create(ctx context.Context, f *Feedback) error
}
