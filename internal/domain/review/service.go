package review

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/platform/db"
)

// Error messages are part of the API contract and must not be reworded.
var (
	ErrMissingFields      = errors.New("Missing required fields: campId, rating.")
	ErrRatingRange        = errors.New("Rating must be between 1 and 5.")
	ErrRatingFormat       = errors.New("Invalid rating format.")
	ErrInvalidCampID      = errors.New("Invalid camp ID format.")
	ErrOnlyRequesters     = errors.New("Forbidden: Only registered patients (requesters) can submit reviews.")
	ErrCampNotFound       = errors.New("Camp not found.")
	ErrAlreadyReviewed    = errors.New("You have already reviewed this camp.")
	ErrOnlyOrganizersView = errors.New("Forbidden: Only organizers can view camp reviews.")
	ErrNotCampOrganizer   = errors.New("Forbidden: You are not the organizer of this camp.")
)

// Service owns review submission and the organizer-facing review list.
type Service struct {
	repo   Repository
	users  user.Directory
	camps  Camps
	logger zerolog.Logger
}

func NewService(repo Repository, users user.Directory, camps Camps, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		camps:  camps,
		logger: logger.With().Str("component", "review").Logger(),
	}
}

// Submit records a patient's review of a camp. Any registered requester may
// review any existing camp, but only once.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, in SubmitInput) (*Review, error) {
	if in.CampID == "" || in.Rating == nil {
		return nil, ErrMissingFields
	}
	rating, err := parseRating(in.Rating)
	if err != nil {
		return nil, err
	}
	campID, err := uuid.Parse(in.CampID)
	if err != nil {
		return nil, ErrInvalidCampID
	}

	u, err := s.users.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.UserType != user.TypeRequester {
		return nil, ErrOnlyRequesters
	}

	_, _, ok, err := s.camps.CampHeader(ctx, campID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCampNotFound
	}

	exists, err := s.repo.ExistsForUser(ctx, campID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	rv := &Review{
		CampID:        campID,
		PatientUserID: userID,
		Rating:        rating,
		Comment:       in.Comment,
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	s.logger.Info().
		Str("review_id", rv.ID.String()).
		Str("camp_id", campID.String()).
		Str("patient_user_id", userID.String()).
		Int("rating", rating).
		Msg("review submitted")
	return rv, nil
}

// ListForCamp returns a camp's reviews to its organizer, newest first.
func (s *Service) ListForCamp(ctx context.Context, organizerID, campID uuid.UUID) ([]CampReview, error) {
	u, err := s.users.Lookup(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.UserType != user.TypeOrganizer {
		return nil, ErrOnlyOrganizersView
	}

	_, ownerID, ok, err := s.camps.CampHeader(ctx, campID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCampNotFound
	}
	if ownerID != organizerID {
		return nil, ErrNotCampOrganizer
	}

	return s.repo.ListForCamp(ctx, campID)
}

// parseRating accepts JSON numbers and numeric strings, truncating
// fractional values toward zero.
func parseRating(raw interface{}) (int, error) {
	var rating int
	switch v := raw.(type) {
	case float64:
		rating = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, ErrRatingFormat
		}
		rating = n
	default:
		return 0, ErrRatingFormat
	}
	if rating < 1 || rating > 5 {
		return 0, ErrRatingRange
	}
	return rating, nil
}
