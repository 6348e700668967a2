package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for accounts. Lookup methods return
// (nil, nil) when no matching row exists.
type Repository interface {
	Directory

	// Create inserts the account and fills in the generated ID and
	// creation timestamp.
	Create(ctx context.Context, u *User) error
	// FindByEmail returns the account with the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// IdentityTaken reports whether any account already uses the given
	// username, email or phone number.
	IdentityTaken(ctx context.Context, username, email, phone string) (bool, error)
	// ListLocalOrganisations returns all local_organisation accounts in
	// their public directory shape.
	ListLocalOrganisations(ctx context.Context) ([]*LocalOrganisation, error)
}

// Directory is the narrow read surface other domains use for role and
// account checks. Lookups return (nil, nil) when no matching row exists.
type Directory interface {
	// Lookup returns the account with the given ID.
	Lookup(ctx context.Context, id uuid.UUID) (*User, error)
	// FindRequesterByEmail returns the requester account with the given
	// email, used to link patient records to accounts.
	FindRequesterByEmail(ctx context.Context, email string) (*User, error)
	// FindRequesterByIdentifier returns the requester account whose email
	// or phone number equals identifier.
	FindRequesterByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// PatientSeeder creates the unattached patient record that every new
// requester account starts with. Implemented by the patient repository and
// wired in at startup.
type PatientSeeder interface {
	SeedProfile(ctx context.Context, userID uuid.UUID, name, email, phone string) error
}
