package feedback

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Error messages are part of the API contract and must not be reworded.
var (
	ErrTextRequired = errors.New("Feedback text is required.")
	ErrRatingRange  = errors.New("Rating must be an integer between 1 and 5.")
	ErrRatingFormat = errors.New("Invalid rating format.")
)

const defaultLanguage = "en"

// Service owns feedback submission. Any authenticated account may submit.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "feedback").Logger(),
	}
}

// Submit validates and stores one piece of feedback.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, in SubmitInput) (*Feedback, error) {
	if in.FeedbackText == "" {
		return nil, ErrTextRequired
	}
	rating, err := parseRating(in.Rating)
	if err != nil {
		return nil, err
	}
	language := in.Language
	if language == "" {
		language = defaultLanguage
	}

	f := &Feedback{
		PatientUserID:   userID,
		PatientRecordID: in.PatientRecordID,
		FeedbackText:    in.FeedbackText,
		Rating:          rating,
		Language:        language,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("language", language).
		Msg("feedback submitted")
	return f, nil
}

// parseRating coerces the loosely-typed optional rating. Numbers truncate
// toward zero and numeric strings are accepted; anything else is a format
// error. The bounds check runs on the coerced value.
func parseRating(raw interface{}) (*int, error) {
	var n int
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, ErrRatingFormat
		}
		n = parsed
	default:
		return nil, ErrRatingFormat
	}
	if n < 1 || n > 5 {
		return nil, ErrRatingRange
	}
	return &n, nil
}
