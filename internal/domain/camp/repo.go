package camp

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface of the camp domain. Lookup methods
// return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, c *Camp) error
	FindByID(ctx context.Context, id uuid.UUID) (*Camp, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*Summary, error)
	// Delete removes a camp and reports whether a row was deleted.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListPublic(ctx context.Context) ([]*Ref, error)
	// ListByGeohashPrefixes returns camps whose stored geohash starts with
	// any of the given prefixes.
	ListByGeohashPrefixes(ctx context.Context, prefixes []string) ([]*Summary, error)

	SetTargetPatients(ctx context.Context, campID uuid.UUID, target int) error
	ListStaff(ctx context.Context, campID uuid.UUID) ([]*StaffMember, error)
	ListMedicines(ctx context.Context, campID uuid.UUID) ([]*Medicine, error)
	ListEquipment(ctx context.Context, campID uuid.UUID) ([]*Equipment, error)
	ReplaceStaff(ctx context.Context, campID uuid.UUID, staff []StaffInput) error
	ReplaceMedicines(ctx context.Context, campID uuid.UUID, medicines []MedicineInput) error
	ReplaceEquipment(ctx context.Context, campID uuid.UUID, equipment []EquipmentInput) error

	// CreateRegistration fills ID and RegistrationDate on success.
	CreateRegistration(ctx context.Context, r *Registration) error
	ListRegistrations(ctx context.Context, campID uuid.UUID) ([]*RegistrationDetail, error)
}

// PatientLister supplies the patient roster for report exports. It is
// implemented by the patient domain.
type PatientLister interface {
	RosterForCamp(ctx context.Context, campID uuid.UUID) ([]ReportPatient, error)
}
