package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/medcamp/medcamp/internal/domain/camp"
)

// Repository is the persistence surface for patient records. It also
// carries the two cross-domain duties of this table: seeding the profile
// stub for new requester accounts and supplying camp report rosters.
type Repository interface {
	// Create fills ID and CreatedAt on success.
	Create(ctx context.Context, p *Patient) error
	ExistsInCamp(ctx context.Context, campID uuid.UUID, email string) (bool, error)
	// ListByCamp returns the camp's records with CampName populated,
	// ordered by patient name.
	ListByCamp(ctx context.Context, campID uuid.UUID) ([]*Patient, error)
	// LinkUserByEmail claims unlinked organizer-captured records matching
	// email for the account and reports how many rows it touched.
	LinkUserByEmail(ctx context.Context, userID uuid.UUID, email string) (int64, error)
	// ListByUser returns every record linked to the account, newest first.
	// CampName is nil on records without a camp.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Patient, error)
	// ListUnlinkedByEmail returns camp records matching email that no
	// account has claimed, newest first.
	ListUnlinkedByEmail(ctx context.Context, email string) ([]*Patient, error)

	SeedProfile(ctx context.Context, userID uuid.UUID, name, email, phone string) error
	RosterForCamp(ctx context.Context, campID uuid.UUID) ([]camp.ReportPatient, error)
}

// Camps is the camp surface needed for existence and ownership checks.
// Satisfied by camp.Service.
type Camps interface {
	CampHeader(ctx context.Context, id uuid.UUID) (string, uuid.UUID, bool, error)
}
