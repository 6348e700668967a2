package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/platform/db"
)

// Error messages are part of the API contract and must not be reworded.
var (
	ErrOnlyOrganizersAdd  = errors.New("Forbidden: Only organizers can add patients.")
	ErrOnlyOrganizersView = errors.New("Forbidden: Only organizers can view patient lists.")

	// ErrCampNotFound carries no trailing period on patient routes.
	ErrCampNotFound     = errors.New("Camp not found")
	ErrNotCampOrganizer = errors.New("Forbidden: You are not the organizer of this camp.")
	ErrNotPatientsOwner = errors.New("Forbidden: You do not have permission to view patients for this camp.")

	ErrMissingFields    = errors.New("Missing required fields: name, email")
	ErrUserNotFound     = errors.New("User not found.")
	ErrNoPatientRecords = errors.New("No patient records found for this user.")
)

// DuplicateError reports an email already registered in a camp.
type DuplicateError struct {
	Email string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Patient with email %s already exists in this camp.", e.Email)
}

// DuplicateRaceError reports a unique violation raised by the insert itself
// after the pre-check passed.
type DuplicateRaceError struct {
	Email string
}

func (e *DuplicateRaceError) Error() string {
	return fmt.Sprintf("A record with similar details (e.g., email '%s' in this camp) might already exist.", e.Email)
}

// Service implements patient record capture at camps and the requester's
// own-record view, linking records to accounts by email as they meet.
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
		logger: logger.With().Str("component", "patient").Logger(),
	}
}

// requireOrganizer rejects with denied unless the user exists and is an
// organizer.
func (s *Service) requireOrganizer(ctx context.Context, userID uuid.UUID, denied error) error {
	u, err := s.users.Lookup(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || u.UserType != user.TypeOrganizer {
		return denied
	}
	return nil
}

// ownedCampName checks camp existence and ownership, returning the camp
// name for response decoration.
func (s *Service) ownedCampName(ctx context.Context, organizerID, campID uuid.UUID, notOwner error) (string, error) {
	name, ownerID, ok, err := s.camps.CampHeader(ctx, campID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCampNotFound
	}
	if ownerID != organizerID {
		return "", notOwner
	}
	return name, nil
}

// AddToCamp records a patient seen at the organizer's camp. When the email
// belongs to an existing requester account the record is linked to it
// immediately; otherwise it stays unlinked until the patient signs up.
func (s *Service) AddToCamp(ctx context.Context, organizerID, campID uuid.UUID, in AddInput) (*CampPatient, error) {
	if in.Name == "" || in.Email == "" {
		return nil, ErrMissingFields
	}
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersAdd); err != nil {
		return nil, err
	}
	campName, err := s.ownedCampName(ctx, organizerID, campID, ErrNotCampOrganizer)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsInCamp(ctx, campID, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &DuplicateError{Email: in.Email}
	}

	var linkID *uuid.UUID
	requester, err := s.users.FindRequesterByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if requester != nil {
		linkID = &requester.ID
		s.logger.Info().Str("user_id", requester.ID.String()).Str("email", in.Email).
			Msg("linking patient record to existing requester account")
	}

	p := &Patient{
		CampID:               &campID,
		CampName:             &campName,
		UserID:               linkID,
		Name:                 in.Name,
		Email:                in.Email,
		PhoneNumber:          in.PhoneNumber,
		DiseaseDetected:      in.DiseaseDetected,
		AreaLocation:         in.AreaLocation,
		OrganizerNotes:       in.OrganizerNotes,
		CreatedByOrganizerID: &organizerID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, &DuplicateRaceError{Email: in.Email}
		}
		return nil, err
	}
	s.logger.Info().
		Str("patient_id", p.ID.String()).
		Str("camp_id", campID.String()).
		Msg("patient added")
	return &CampPatient{Patient: *p, IsRegisteredUser: p.UserID != nil}, nil
}

// ListByCamp returns the camp's patient roster for its organizer, ordered
// by patient name.
func (s *Service) ListByCamp(ctx context.Context, organizerID, campID uuid.UUID) ([]*CampPatient, error) {
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersView); err != nil {
		return nil, err
	}
	if _, err := s.ownedCampName(ctx, organizerID, campID, ErrNotPatientsOwner); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByCamp(ctx, campID)
	if err != nil {
		return nil, err
	}
	patients := make([]*CampPatient, 0, len(rows))
	for _, p := range rows {
		patients = append(patients, &CampPatient{Patient: *p, IsRegisteredUser: p.UserID != nil})
	}
	return patients, nil
}

// MyDetails returns every patient record belonging to the account, newest
// first. Organizer-captured records carrying the account's email are
// claimed first, then linked records are listed, with an email match as
// fallback for rows the claim could not reach.
func (s *Service) MyDetails(ctx context.Context, userID uuid.UUID) ([]*Patient, error) {
	u, err := s.users.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	linked, err := s.repo.LinkUserByEmail(ctx, userID, u.Email)
	if err != nil {
		return nil, err
	}
	if linked > 0 {
		s.logger.Info().
			Str("user_id", userID.String()).
			Int64("rows", linked).
			Msg("auto-linked organizer-captured patient records")
	}

	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		records, err = s.repo.ListUnlinkedByEmail(ctx, u.Email)
		if err != nil {
			return nil, err
		}
	}
	if len(records) == 0 {
		return nil, ErrNoPatientRecords
	}
	return records, nil
}
