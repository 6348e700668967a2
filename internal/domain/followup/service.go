package followup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/user"
)

// Error messages are part of the API contract and must not be reworded.
var (
	ErrIdentifierRequired = errors.New("Patient identifier is required.")
	ErrOnlyOrganizersAdd  = errors.New("Forbidden: Only organizers can add patients for follow-up.")
	ErrOnlyOrganizersList = errors.New("Forbidden: Only organizers can view follow-up lists.")
	ErrCampNotFound       = errors.New("Camp not found.")
	ErrNotCampOrganizer   = errors.New("Forbidden: You are not the organizer of this camp.")
	ErrNotPatient         = errors.New("Forbidden: User not a patient or not found.")
)

const notScheduledMessage = "You are not currently scheduled for any follow-ups via the voice assistant."

// Service owns follow-up bookkeeping and eligibility answers.
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
		logger: logger.With().Str("component", "followup").Logger(),
	}
}

// Add flags a patient for follow-up after a camp. The identifier is stored
// as entered; when it matches a requester's email or phone number the entry
// is linked to that account so eligibility checks find it by user ID.
func (s *Service) Add(ctx context.Context, organizerID, campID uuid.UUID, in AddInput) (*Receipt, error) {
	if in.PatientIdentifier == "" {
		return nil, ErrIdentifierRequired
	}

	u, err := s.users.Lookup(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.UserType != user.TypeOrganizer {
		return nil, ErrOnlyOrganizersAdd
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

	var linkedID *uuid.UUID
	matched, err := s.users.FindRequesterByIdentifier(ctx, in.PatientIdentifier)
	if err != nil {
		return nil, err
	}
	if matched != nil {
		linkedID = &matched.ID
	}

	fu := &FollowUp{
		CampID:              campID,
		PatientIdentifier:   in.PatientIdentifier,
		Notes:               in.Notes,
		AddedByOrganizerID:  &organizerID,
		LinkedPatientUserID: linkedID,
	}
	if err := s.repo.Create(ctx, fu); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("follow_up_id", fu.ID.String()).
		Str("camp_id", campID.String()).
		Bool("linked", linkedID != nil).
		Msg("patient flagged for follow-up")
	return &Receipt{
		ID:                fu.ID,
		PatientIdentifier: fu.PatientIdentifier,
		Notes:             fu.Notes,
		CreatedAt:         fu.CreatedAt,
	}, nil
}

// ListForCamp returns a camp's follow-up entries to its organizer, newest
// first.
func (s *Service) ListForCamp(ctx context.Context, organizerID, campID uuid.UUID) ([]ListEntry, error) {
	u, err := s.users.Lookup(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.UserType != user.TypeOrganizer {
		return nil, ErrOnlyOrganizersList
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

// Eligibility reports whether the patient has a pending follow-up. Entries
// match by linked account first, then by the stored identifier against the
// patient's email or phone number, newest entry winning.
func (s *Service) Eligibility(ctx context.Context, userID uuid.UUID) (*Eligibility, error) {
	u, err := s.users.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.UserType != user.TypeRequester {
		return nil, ErrNotPatient
	}

	fu, err := s.repo.LatestForPatient(ctx, userID, u.Email, u.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if fu == nil {
		return &Eligibility{Eligible: false, Message: notScheduledMessage}, nil
	}

	message := fmt.Sprintf("You have a follow-up scheduled regarding camp '%s'.", fu.CampName)
	if fu.Notes != nil && *fu.Notes != "" {
		message += fmt.Sprintf(" Notes: %s", *fu.Notes)
	}
	return &Eligibility{Eligible: true, Message: message, FollowUpDetails: fu}, nil
}
