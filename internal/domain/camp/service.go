package camp

import (
	"context"
	"errors"
	"sort"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/platform/db"
)

// Error messages are part of the API contract and must not be reworded.
var (
	ErrOnlyOrganizersCreate        = errors.New("Forbidden: Only organizers can create camps.")
	ErrOnlyOrganizersList          = errors.New("Forbidden: Only organizers can view this list of camps.")
	ErrOnlyOrganizersDetails       = errors.New("Forbidden: Only organizers can access camp details.")
	ErrOnlyOrganizersDelete        = errors.New("Forbidden: Only organizers can delete camps.")
	ErrOnlyOrganizersResources     = errors.New("Forbidden: Only organizers can access camp resources.")
	ErrOnlyOrganizersSaveResources = errors.New("Forbidden: Only organizers can save camp resources.")
	ErrOnlyOrganizersRegistrations = errors.New("Forbidden: Only organizers can view camp registrations.")

	ErrCampNotFound = errors.New("Camp not found.")
	// ErrCampNotFoundBare is the resources lookup variant, which has no
	// trailing period on the wire.
	ErrCampNotFoundBare = errors.New("Camp not found")
	ErrCampDeleteRace   = errors.New("Camp not found or failed to delete.")

	ErrNotCampDetailsOwner = errors.New("Forbidden: You do not have permission to access this camp's details.")
	ErrNotResourcesOwner   = errors.New("Forbidden: You do not have permission to access resources for this camp.")
	ErrNotCampOrganizer    = errors.New("Forbidden: You are not the organizer of this camp.")

	ErrAlreadyRegistered  = errors.New("You are already registered for this camp.")
	ErrInvalidCoordinates = errors.New("Invalid coordinates.")
)

// MissingFieldsError lists required camp fields absent from a create request.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required camp data for fields: " + strings.Join(e.Fields, ", ")
}

// Nearby search bounds, in kilometers.
const (
	DefaultNearbyRadiusKm = 50.0
	MaxNearbyRadiusKm     = 500.0
)

const earthRadiusKm = 6371.0

// Service implements camp management: creation, listing, resource planning,
// attendance registration and proximity search.
type Service struct {
	repo     Repository
	users    user.Directory
	patients PatientLister
	tx       db.TxRunner
	logger   zerolog.Logger
}

// NewService wires the camp service. patients may be nil in tests that do
// not exercise report exports; tx may be nil to run without transactions.
func NewService(repo Repository, users user.Directory, patients PatientLister, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		patients: patients,
		tx:       tx,
		logger:   logger.With().Str("component", "camp").Logger(),
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

// ownedCamp loads a camp and checks ownership, mapping the two failure
// modes onto the caller's sentinels.
func (s *Service) ownedCamp(ctx context.Context, organizerID, campID uuid.UUID, notFound, notOwner error) (*Camp, error) {
	c, err := s.repo.FindByID(ctx, campID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound
	}
	if c.OrganizerID != organizerID {
		return nil, notOwner
	}
	return c, nil
}

// Create validates and stores a new camp for the organizer. The required
// field check runs before the role check.
func (s *Service) Create(ctx context.Context, organizerID uuid.UUID, in CreateInput) (*Camp, error) {
	if missing := in.missingFields(); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersCreate); err != nil {
		return nil, err
	}

	c := &Camp{
		Name:              *in.Name,
		Description:       in.Description,
		LocationLatitude:  *in.LocationLatitude,
		LocationLongitude: *in.LocationLongitude,
		LocationAddress:   in.LocationAddress,
		StartDate:         *in.StartDate,
		EndDate:           *in.EndDate,
		OrganizerID:       organizerID,
		Status:            StatusPlanned,
		Geohash:           geohash.Encode(*in.LocationLatitude, *in.LocationLongitude),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("camp_id", c.ID.String()).
		Str("organizer_id", organizerID.String()).
		Msg("camp created")
	return c, nil
}

// ListForOrganizer returns the organizer's own camps, newest start date
// first.
func (s *Service) ListForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*Summary, error) {
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersList); err != nil {
		return nil, err
	}
	camps, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if camps == nil {
		camps = []*Summary{}
	}
	return camps, nil
}

// Details returns the full camp record to its owning organizer.
func (s *Service) Details(ctx context.Context, requesterID, campID uuid.UUID) (*Camp, error) {
	if err := s.requireOrganizer(ctx, requesterID, ErrOnlyOrganizersDetails); err != nil {
		return nil, err
	}
	return s.ownedCamp(ctx, requesterID, campID, ErrCampNotFound, ErrNotCampDetailsOwner)
}

// Delete removes a camp owned by the organizer. Child rows go with it via
// cascading deletes.
func (s *Service) Delete(ctx context.Context, organizerID, campID uuid.UUID) error {
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersDelete); err != nil {
		return err
	}
	if _, err := s.ownedCamp(ctx, organizerID, campID, ErrCampNotFound, ErrNotCampOrganizer); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, campID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCampDeleteRace
	}
	s.logger.Info().
		Str("camp_id", campID.String()).
		Str("organizer_id", organizerID.String()).
		Msg("camp deleted")
	return nil
}

// Resources assembles the camp's resource plan for its owning organizer.
func (s *Service) Resources(ctx context.Context, requesterID, campID uuid.UUID) (*Resources, error) {
	if err := s.requireOrganizer(ctx, requesterID, ErrOnlyOrganizersResources); err != nil {
		return nil, err
	}
	c, err := s.ownedCamp(ctx, requesterID, campID, ErrCampNotFoundBare, ErrNotResourcesOwner)
	if err != nil {
		return nil, err
	}

	staff, err := s.repo.ListStaff(ctx, campID)
	if err != nil {
		return nil, err
	}
	medicines, err := s.repo.ListMedicines(ctx, campID)
	if err != nil {
		return nil, err
	}
	equipment, err := s.repo.ListEquipment(ctx, campID)
	if err != nil {
		return nil, err
	}

	res := &Resources{
		TargetPatients: c.TargetPatients,
		StaffList:      staff,
		MedicineList:   medicines,
		EquipmentList:  equipment,
	}
	if res.StaffList == nil {
		res.StaffList = []*StaffMember{}
	}
	if res.MedicineList == nil {
		res.MedicineList = []*Medicine{}
	}
	if res.EquipmentList == nil {
		res.EquipmentList = []*Equipment{}
	}
	return res, nil
}

// SaveResources replaces the camp's resource plan wholesale inside one
// transaction. A nil target leaves the stored target untouched.
func (s *Service) SaveResources(ctx context.Context, organizerID, campID uuid.UUID, in ResourcesInput) error {
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersSaveResources); err != nil {
		return err
	}
	if _, err := s.ownedCamp(ctx, organizerID, campID, ErrCampNotFound, ErrNotCampOrganizer); err != nil {
		return err
	}

	return db.RunInTx(ctx, s.tx, func(ctx context.Context) error {
		if in.TargetPatients != nil {
			if err := s.repo.SetTargetPatients(ctx, campID, *in.TargetPatients); err != nil {
				return err
			}
		}
		if err := s.repo.ReplaceStaff(ctx, campID, in.StaffList); err != nil {
			return err
		}
		if err := s.repo.ReplaceMedicines(ctx, campID, in.MedicineList); err != nil {
			return err
		}
		return s.repo.ReplaceEquipment(ctx, campID, in.EquipmentList)
	})
}

// ListPublic returns every camp visible to patients, sorted by name.
func (s *Service) ListPublic(ctx context.Context) ([]*Ref, error) {
	refs, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []*Ref{}
	}
	return refs, nil
}

// Register signs a user up to attend a camp. Double registration surfaces
// as ErrAlreadyRegistered.
func (s *Service) Register(ctx context.Context, userID, campID uuid.UUID, notes *string) (*Registration, error) {
	c, err := s.repo.FindByID(ctx, campID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCampNotFound
	}

	reg := &Registration{
		CampID: campID,
		UserID: userID,
		Status: RegistrationPending,
		Notes:  notes,
	}
	if err := s.repo.CreateRegistration(ctx, reg); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	return reg, nil
}

// Registrations lists a camp's registrants for its owning organizer.
func (s *Service) Registrations(ctx context.Context, organizerID, campID uuid.UUID) ([]*RegistrationDetail, error) {
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersRegistrations); err != nil {
		return nil, err
	}
	if _, err := s.ownedCamp(ctx, organizerID, campID, ErrCampNotFound, ErrNotCampOrganizer); err != nil {
		return nil, err
	}
	regs, err := s.repo.ListRegistrations(ctx, campID)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*RegistrationDetail{}
	}
	return regs, nil
}

// Nearby finds camps within radiusKm of the point, closest first. Candidate
// camps come from a geohash prefix prefilter and are then ranked by exact
// great-circle distance.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]*NearbyCamp, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidCoordinates
	}
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	if radiusKm > MaxNearbyRadiusKm {
		radiusKm = MaxNearbyRadiusKm
	}

	prefixes := searchPrefixes(lat, lng, geohashPrecision(radiusKm))
	candidates, err := s.repo.ListByGeohashPrefixes(ctx, prefixes)
	if err != nil {
		return nil, err
	}

	queryLL := s2.LatLngFromDegrees(lat, lng)
	nearby := make([]*NearbyCamp, 0, len(candidates))
	for _, c := range candidates {
		campLL := s2.LatLngFromDegrees(c.Lat, c.Lng)
		km := queryLL.Distance(campLL).Radians() * earthRadiusKm
		if km > radiusKm {
			continue
		}
		nearby = append(nearby, &NearbyCamp{Summary: *c, DistanceKm: km})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].Name < nearby[j].Name
	})
	return nearby, nil
}

// CampHeader exposes the minimal camp fields other domains need for
// existence and ownership checks.
func (s *Service) CampHeader(ctx context.Context, id uuid.UUID) (string, uuid.UUID, bool, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", uuid.Nil, false, err
	}
	if c == nil {
		return "", uuid.Nil, false, nil
	}
	return c.Name, c.OrganizerID, true, nil
}

// geohashPrecision picks the shortest geohash prefix length whose cell
// still spans the search radius, so the 3x3 prefix block covers it.
func geohashPrecision(radiusKm float64) int {
	switch {
	case radiusKm <= 4.8:
		return 5
	case radiusKm <= 19:
		return 4
	case radiusKm <= 150:
		return 3
	case radiusKm <= 600:
		return 2
	}
	return 1
}

// searchPrefixes returns the geohash cell covering the point at the given
// precision plus its eight neighbors, deduplicated.
func searchPrefixes(lat, lng float64, precision int) []string {
	center := geohash.EncodeWithPrecision(lat, lng, precision)
	top := geohash.CalculateAdjacent(center, "top")
	bottom := geohash.CalculateAdjacent(center, "bottom")
	candidates := []string{
		center,
		top,
		bottom,
		geohash.CalculateAdjacent(center, "left"),
		geohash.CalculateAdjacent(center, "right"),
		geohash.CalculateAdjacent(top, "left"),
		geohash.CalculateAdjacent(top, "right"),
		geohash.CalculateAdjacent(bottom, "left"),
		geohash.CalculateAdjacent(bottom, "right"),
	}

	seen := make(map[string]bool, len(candidates))
	prefixes := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		prefixes = append(prefixes, p)
	}
	return prefixes
}
