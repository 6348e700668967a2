package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medcamp/medcamp/internal/platform/auth"
	"github.com/medcamp/medcamp/internal/platform/db"
)

// Error messages are part of the API contract and must not be reworded.
var (
	ErrMissingSignupFields = errors.New("Missing data. Username, email, phone, password, and userType are required.")
	ErrInvalidUserType     = errors.New("Invalid user type. Must be one of: " + strings.Join(ValidTypes, ", "))
	ErrAddressRequired     = errors.New("Address is required for Local Organisation user type.")
	ErrUserExists          = errors.New("User with this username, email, or phone number already exists.")
	ErrUserExistsRace      = errors.New("A user with this username, email, or phone number already exists.")
	ErrMissingCredentials  = errors.New("Email and password are required.")
	ErrInvalidCredentials  = errors.New("Invalid email or password.")
)

// SignupInput carries the fields of a registration request.
type SignupInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	UserType    string `json:"userType"`
	Address     string `json:"address"`
}

// Service implements account registration, login and the public
// local-organisation directory.
type Service struct {
	repo     Repository
	patients PatientSeeder
	tx       db.TxRunner
	signKey  []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
}

// NewService wires the account service. patients may be nil in tests that do
// not exercise requester signups; tx may be nil to run without transactions.
func NewService(repo Repository, patients PatientSeeder, tx db.TxRunner, signingKey []byte, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		tx:       tx,
		signKey:  signingKey,
		tokenTTL: auth.DefaultTokenTTL,
		logger:   logger.With().Str("component", "user").Logger(),
	}
}

// Signup registers a new account. Requester accounts also get a basic
// unattached patient record so camp organizers can link them later. The
// account insert and the patient seed commit atomically.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	if in.Username == "" || in.Email == "" || in.PhoneNumber == "" || in.Password == "" || in.UserType == "" {
		return nil, ErrMissingSignupFields
	}
	if !ValidType(in.UserType) {
		return nil, ErrInvalidUserType
	}
	if in.UserType == TypeLocalOrganisation && in.Address == "" {
		return nil, ErrAddressRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     in.Username,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		UserType:     in.UserType,
	}
	// The address column is only populated for local organisations; other
	// account types discard whatever the client sent.
	if in.UserType == TypeLocalOrganisation {
		u.Address = &in.Address
	}

	err = db.RunInTx(ctx, s.tx, func(ctx context.Context) error {
		taken, err := s.repo.IdentityTaken(ctx, in.Username, in.Email, in.PhoneNumber)
		if err != nil {
			return err
		}
		if taken {
			return ErrUserExists
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return err
		}
		if u.UserType == TypeRequester && s.patients != nil {
			s.logger.Info().Str("user_id", u.ID.String()).Msg("new requester, creating basic patient record")
			if err := s.patients.SeedProfile(ctx, u.ID, u.Username, u.Email, u.PhoneNumber); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrUserExistsRace
		}
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and, on success, returns the account along
// with a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrMissingCredentials
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.IssueToken(s.signKey, u.ID, u.UserType, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ListLocalOrganisations returns the public local-organisation directory.
func (s *Service) ListLocalOrganisations(ctx context.Context) ([]*LocalOrganisation, error) {
	return s.repo.ListLocalOrganisations(ctx)
}
