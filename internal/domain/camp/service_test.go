package camp

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/platform/db"
)

// -- Mock Repository --

type mockCampRepo struct {
	camps         map[uuid.UUID]*Camp
	staff         map[uuid.UUID][]*StaffMember
	medicines     map[uuid.UUID][]*Medicine
	equipment     map[uuid.UUID][]*Equipment
	registrations map[uuid.UUID][]*Registration
	usernames     map[uuid.UUID]string
}

func newMockCampRepo() *mockCampRepo {
	return &mockCampRepo{
		camps:         make(map[uuid.UUID]*Camp),
		staff:         make(map[uuid.UUID][]*StaffMember),
		medicines:     make(map[uuid.UUID][]*Medicine),
		equipment:     make(map[uuid.UUID][]*Equipment),
		registrations: make(map[uuid.UUID][]*Registration),
		usernames:     make(map[uuid.UUID]string),
	}
}

func (m *mockCampRepo) Create(_ context.Context, c *Camp) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.camps[c.ID] = c
	return nil
}

func (m *mockCampRepo) FindByID(_ context.Context, id uuid.UUID) (*Camp, error) {
	return m.camps[id], nil
}

func (m *mockCampRepo) ListByOrganizer(_ context.Context, organizerID uuid.UUID) ([]*Summary, error) {
	var camps []*Summary
	for _, c := range m.camps {
		if c.OrganizerID == organizerID {
			camps = append(camps, summaryOf(c))
		}
	}
	sort.Slice(camps, func(i, j int) bool { return camps[i].StartDate.After(camps[j].StartDate.Time) })
	return camps, nil
}

func (m *mockCampRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.camps[id]; !ok {
		return false, nil
	}
	delete(m.camps, id)
	return true, nil
}

func (m *mockCampRepo) ListPublic(_ context.Context) ([]*Ref, error) {
	var refs []*Ref
	for _, c := range m.camps {
		switch c.Status {
		case StatusPlanned, StatusActive, StatusCompleted:
			refs = append(refs, &Ref{ID: c.ID, Name: c.Name})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (m *mockCampRepo) ListByGeohashPrefixes(_ context.Context, prefixes []string) ([]*Summary, error) {
	var camps []*Summary
	for _, c := range m.camps {
		for _, p := range prefixes {
			if strings.HasPrefix(c.Geohash, p) {
				camps = append(camps, summaryOf(c))
				break
			}
		}
	}
	return camps, nil
}

func (m *mockCampRepo) SetTargetPatients(_ context.Context, campID uuid.UUID, target int) error {
	if c, ok := m.camps[campID]; ok {
		c.TargetPatients = target
	}
	return nil
}

func (m *mockCampRepo) ListStaff(_ context.Context, campID uuid.UUID) ([]*StaffMember, error) {
	return m.staff[campID], nil
}

func (m *mockCampRepo) ListMedicines(_ context.Context, campID uuid.UUID) ([]*Medicine, error) {
	return m.medicines[campID], nil
}

func (m *mockCampRepo) ListEquipment(_ context.Context, campID uuid.UUID) ([]*Equipment, error) {
	return m.equipment[campID], nil
}

func (m *mockCampRepo) ReplaceStaff(_ context.Context, campID uuid.UUID, staff []StaffInput) error {
	rows := make([]*StaffMember, 0, len(staff))
	for _, in := range staff {
		rows = append(rows, &StaffMember{
			ID: uuid.New(), Name: in.Name, Role: in.Role,
			Origin: in.Origin, Contact: in.Contact, Notes: in.Notes,
		})
	}
	m.staff[campID] = rows
	return nil
}

func (m *mockCampRepo) ReplaceMedicines(_ context.Context, campID uuid.UUID, medicines []MedicineInput) error {
	rows := make([]*Medicine, 0, len(medicines))
	for _, in := range medicines {
		rows = append(rows, &Medicine{
			ID: uuid.New(), Name: in.Name, Unit: in.Unit,
			QuantityPerPatient: in.QuantityPerPatient, Notes: in.Notes,
		})
	}
	m.medicines[campID] = rows
	return nil
}

func (m *mockCampRepo) ReplaceEquipment(_ context.Context, campID uuid.UUID, equipment []EquipmentInput) error {
	rows := make([]*Equipment, 0, len(equipment))
	for _, in := range equipment {
		rows = append(rows, &Equipment{
			ID: uuid.New(), Name: in.Name, Quantity: in.Quantity, Notes: in.Notes,
		})
	}
	m.equipment[campID] = rows
	return nil
}

func (m *mockCampRepo) CreateRegistration(_ context.Context, reg *Registration) error {
	for _, existing := range m.registrations[reg.CampID] {
		if existing.UserID == reg.UserID {
			return &pgconn.PgError{Code: db.UniqueViolationCode}
		}
	}
	reg.ID = uuid.New()
	reg.RegistrationDate = time.Now()
	m.registrations[reg.CampID] = append(m.registrations[reg.CampID], reg)
	return nil
}

func (m *mockCampRepo) ListRegistrations(_ context.Context, campID uuid.UUID) ([]*RegistrationDetail, error) {
	var details []*RegistrationDetail
	for _, reg := range m.registrations[campID] {
		details = append(details, &RegistrationDetail{
			Registration: *reg,
			Username:     m.usernames[reg.UserID],
		})
	}
	return details, nil
}

func summaryOf(c *Camp) *Summary {
	return &Summary{
		ID: c.ID, Name: c.Name, Description: c.Description,
		Lat: c.LocationLatitude, Lng: c.LocationLongitude,
		LocationAddress: c.LocationAddress,
		StartDate:       c.StartDate, EndDate: c.EndDate,
		OrganizerID: c.OrganizerID, Status: c.Status,
		TargetPatients: c.TargetPatients,
	}
}

// -- Mock user directory --

type mockDirectory struct {
	users map[uuid.UUID]*user.User
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{users: make(map[uuid.UUID]*user.User)}
}

func (m *mockDirectory) addUser(username, userType string) uuid.UUID {
	id := uuid.New()
	m.users[id] = &user.User{ID: id, Username: username, UserType: userType}
	return id
}

func (m *mockDirectory) Lookup(_ context.Context, id uuid.UUID) (*user.User, error) {
	return m.users[id], nil
}

func (m *mockDirectory) FindRequesterByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email && u.UserType == user.TypeRequester {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockDirectory) FindRequesterByIdentifier(_ context.Context, identifier string) (*user.User, error) {
	for _, u := range m.users {
		if (u.Email == identifier || u.PhoneNumber == identifier) && u.UserType == user.TypeRequester {
			return u, nil
		}
	}
	return nil, nil
}

// -- Mock patient roster --

type mockRoster struct {
	rows map[uuid.UUID][]ReportPatient
}

func newMockRoster() *mockRoster {
	return &mockRoster{rows: make(map[uuid.UUID][]ReportPatient)}
}

func (m *mockRoster) RosterForCamp(_ context.Context, campID uuid.UUID) ([]ReportPatient, error) {
	return m.rows[campID], nil
}

func newTestService() (*Service, *mockCampRepo, *mockDirectory, *mockRoster) {
	repo := newMockCampRepo()
	users := newMockDirectory()
	roster := newMockRoster()
	svc := NewService(repo, users, roster, nil, zerolog.Nop())
	return svc, repo, users, roster
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func validInput() CreateInput {
	start := NewDate(2026, time.March, 10)
	end := NewDate(2026, time.March, 12)
	return CreateInput{
		Name:              strPtr("Rural Health Camp"),
		Description:       strPtr("General checkups and screenings"),
		LocationLatitude:  floatPtr(28.6139),
		LocationLongitude: floatPtr(77.2090),
		LocationAddress:   strPtr("Community Hall, Delhi"),
		StartDate:         &start,
		EndDate:           &end,
	}
}

// -- Tests --

func TestCreateCamp(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	c, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == uuid.Nil {
		t.Error("camp ID not assigned")
	}
	if c.Name != "Rural Health Camp" {
		t.Errorf("name = %q", c.Name)
	}
	if c.Status != StatusPlanned {
		t.Errorf("status = %q, want %q", c.Status, StatusPlanned)
	}
	if c.OrganizerID != orgID {
		t.Errorf("organizer = %s, want %s", c.OrganizerID, orgID)
	}
	if c.Geohash == "" {
		t.Error("geohash not computed at creation")
	}
}

func TestCreateCamp_MissingFields(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	in := validInput()
	in.Name = nil
	in.StartDate = nil

	_, err := svc.Create(context.Background(), orgID, in)
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingFieldsError", err)
	}
	want := "Missing required camp data for fields: name, start_date"
	if missing.Error() != want {
		t.Errorf("message = %q, want %q", missing.Error(), want)
	}
}

func TestCreateCamp_RequiresOrganizer(t *testing.T) {
	svc, _, users, _ := newTestService()
	reqID := users.addUser("ravi", user.TypeRequester)

	_, err := svc.Create(context.Background(), reqID, validInput())
	if !errors.Is(err, ErrOnlyOrganizersCreate) {
		t.Fatalf("error = %v, want ErrOnlyOrganizersCreate", err)
	}

	// Field validation runs before the role check.
	_, err = svc.Create(context.Background(), reqID, CreateInput{})
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingFieldsError before role check", err)
	}
}

func TestListForOrganizer(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)
	otherID := users.addUser("meera", user.TypeOrganizer)

	early := validInput()
	earlyStart := NewDate(2026, time.January, 5)
	early.StartDate = &earlyStart
	if _, err := svc.Create(context.Background(), orgID, early); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	late := validInput()
	late.Name = strPtr("Eye Screening Camp")
	if _, err := svc.Create(context.Background(), orgID, late); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background(), otherID, validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	camps, err := svc.ListForOrganizer(context.Background(), orgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(camps) != 2 {
		t.Fatalf("got %d camps, want 2", len(camps))
	}
	if camps[0].Name != "Eye Screening Camp" {
		t.Errorf("first camp = %q, want newest start date first", camps[0].Name)
	}

	if _, err := svc.ListForOrganizer(context.Background(), uuid.New()); !errors.Is(err, ErrOnlyOrganizersList) {
		t.Errorf("unknown user error = %v, want ErrOnlyOrganizersList", err)
	}
}

func TestCampDetails(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)
	otherID := users.addUser("meera", user.TypeOrganizer)
	reqID := users.addUser("ravi", user.TypeRequester)

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Details(context.Background(), orgID, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("camp = %s, want %s", got.ID, created.ID)
	}

	if _, err := svc.Details(context.Background(), otherID, created.ID); !errors.Is(err, ErrNotCampDetailsOwner) {
		t.Errorf("foreign organizer error = %v, want ErrNotCampDetailsOwner", err)
	}
	if _, err := svc.Details(context.Background(), reqID, created.ID); !errors.Is(err, ErrOnlyOrganizersDetails) {
		t.Errorf("requester error = %v, want ErrOnlyOrganizersDetails", err)
	}
	if _, err := svc.Details(context.Background(), orgID, uuid.New()); !errors.Is(err, ErrCampNotFound) {
		t.Errorf("missing camp error = %v, want ErrCampNotFound", err)
	}
}

func TestDeleteCamp(t *testing.T) {
	svc, repo, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)
	otherID := users.addUser("meera", user.TypeOrganizer)

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(context.Background(), otherID, created.ID); !errors.Is(err, ErrNotCampOrganizer) {
		t.Errorf("foreign organizer error = %v, want ErrNotCampOrganizer", err)
	}
	if err := svc.Delete(context.Background(), orgID, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.camps[created.ID]; ok {
		t.Error("camp still present after delete")
	}
	if err := svc.Delete(context.Background(), orgID, created.ID); !errors.Is(err, ErrCampNotFound) {
		t.Errorf("second delete error = %v, want ErrCampNotFound", err)
	}
}

func TestResources_EmptyPlan(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := svc.Resources(context.Background(), orgID, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StaffList == nil || res.MedicineList == nil || res.EquipmentList == nil {
		t.Error("resource lists must be empty slices, not nil")
	}
	if len(res.StaffList) != 0 || len(res.MedicineList) != 0 || len(res.EquipmentList) != 0 {
		t.Error("expected empty resource plan for a new camp")
	}

	if _, err := svc.Resources(context.Background(), orgID, uuid.New()); !errors.Is(err, ErrCampNotFoundBare) {
		t.Errorf("missing camp error = %v, want ErrCampNotFoundBare", err)
	}
}

func TestSaveResources(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := ResourcesInput{
		TargetPatients: intPtr(120),
		StaffList: []StaffInput{
			{Name: "Dr. Rao", Role: strPtr("physician")},
			{Name: "Nurse Devi"},
		},
		MedicineList: []MedicineInput{
			{Name: "Paracetamol", Unit: strPtr("tablet"), QuantityPerPatient: floatPtr(2)},
		},
		EquipmentList: []EquipmentInput{
			{Name: "BP Monitor", Quantity: intPtr(3)},
		},
	}
	if err := svc.SaveResources(context.Background(), orgID, created.ID, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := svc.Resources(context.Background(), orgID, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TargetPatients != 120 {
		t.Errorf("targetPatients = %d, want 120", res.TargetPatients)
	}
	if len(res.StaffList) != 2 || len(res.MedicineList) != 1 || len(res.EquipmentList) != 1 {
		t.Errorf("plan sizes = %d/%d/%d, want 2/1/1",
			len(res.StaffList), len(res.MedicineList), len(res.EquipmentList))
	}

	// A nil target leaves the stored value; lists are replaced wholesale.
	if err := svc.SaveResources(context.Background(), orgID, created.ID, ResourcesInput{
		StaffList: []StaffInput{{Name: "Dr. Rao"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err = svc.Resources(context.Background(), orgID, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TargetPatients != 120 {
		t.Errorf("targetPatients = %d, want unchanged 120", res.TargetPatients)
	}
	if len(res.StaffList) != 1 || len(res.MedicineList) != 0 || len(res.EquipmentList) != 0 {
		t.Errorf("plan sizes after replace = %d/%d/%d, want 1/0/0",
			len(res.StaffList), len(res.MedicineList), len(res.EquipmentList))
	}
}

func TestListPublicCamps(t *testing.T) {
	svc, repo, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	first := validInput()
	first.Name = strPtr("Vision Camp")
	if _, err := svc.Create(context.Background(), orgID, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := validInput()
	second.Name = strPtr("Dental Camp")
	created, err := svc.Create(context.Background(), orgID, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.camps[created.ID].Status = StatusCompleted

	refs, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d camps, want 2", len(refs))
	}
	if refs[0].Name != "Dental Camp" || refs[1].Name != "Vision Camp" {
		t.Errorf("order = [%q %q], want name ascending", refs[0].Name, refs[1].Name)
	}
}

func TestRegister(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)
	attendeeID := users.addUser("ravi", user.TypeRequester)

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg, err := svc.Register(context.Background(), attendeeID, created.ID, strPtr("wheelchair access"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Status != RegistrationPending {
		t.Errorf("status = %q, want %q", reg.Status, RegistrationPending)
	}
	if reg.ID == uuid.Nil || reg.RegistrationDate.IsZero() {
		t.Error("registration identifiers not filled")
	}

	if _, err := svc.Register(context.Background(), attendeeID, created.ID, nil); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate error = %v, want ErrAlreadyRegistered", err)
	}
	if _, err := svc.Register(context.Background(), attendeeID, uuid.New(), nil); !errors.Is(err, ErrCampNotFound) {
		t.Errorf("missing camp error = %v, want ErrCampNotFound", err)
	}
}

func TestRegistrations(t *testing.T) {
	svc, repo, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)
	attendeeID := users.addUser("ravi", user.TypeRequester)
	repo.usernames[attendeeID] = "ravi"

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Register(context.Background(), attendeeID, created.ID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	regs, err := svc.Registrations(context.Background(), orgID, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("got %d registrations, want 1", len(regs))
	}
	if regs[0].Username != "ravi" {
		t.Errorf("username = %q, want %q", regs[0].Username, "ravi")
	}

	if _, err := svc.Registrations(context.Background(), attendeeID, created.ID); !errors.Is(err, ErrOnlyOrganizersRegistrations) {
		t.Errorf("requester error = %v, want ErrOnlyOrganizersRegistrations", err)
	}
}

func TestNearby(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	near := validInput()
	near.Name = strPtr("Delhi North Camp")
	near.LocationLatitude = floatPtr(28.7000)
	near.LocationLongitude = floatPtr(77.1000)
	if _, err := svc.Create(context.Background(), orgID, near); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	far := validInput()
	far.Name = strPtr("Mumbai Camp")
	far.LocationLatitude = floatPtr(19.0760)
	far.LocationLongitude = floatPtr(72.8777)
	if _, err := svc.Create(context.Background(), orgID, far); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Nearby(context.Background(), 28.6139, 77.2090, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d camps, want 1 within 50km", len(got))
	}
	if got[0].Name != "Delhi North Camp" {
		t.Errorf("camp = %q, want Delhi North Camp", got[0].Name)
	}
	if got[0].DistanceKm < 5 || got[0].DistanceKm > 25 {
		t.Errorf("distance = %.1fkm, want roughly 14km", got[0].DistanceKm)
	}

	if _, err := svc.Nearby(context.Background(), 91, 0, 50); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("out of range error = %v, want ErrInvalidCoordinates", err)
	}
}

func TestNearby_SortsByDistance(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	for name, coords := range map[string][2]float64{
		"Far Camp":    {28.9000, 77.5000},
		"Close Camp":  {28.6200, 77.2100},
		"Middle Camp": {28.7000, 77.3000},
	} {
		in := validInput()
		in.Name = strPtr(name)
		in.LocationLatitude = floatPtr(coords[0])
		in.LocationLongitude = floatPtr(coords[1])
		if _, err := svc.Create(context.Background(), orgID, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := svc.Nearby(context.Background(), 28.6139, 77.2090, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d camps, want 3", len(got))
	}
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	want := []string{"Close Camp", "Middle Camp", "Far Camp"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

func TestCampHeader(t *testing.T) {
	svc, _, users, _ := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name, ownerID, ok, err := svc.CampHeader(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || name != "Rural Health Camp" || ownerID != orgID {
		t.Errorf("header = (%q, %s, %t)", name, ownerID, ok)
	}

	_, _, ok, err = svc.CampHeader(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing camp")
	}
}

func TestExportReport(t *testing.T) {
	svc, _, users, roster := newTestService()
	orgID := users.addUser("asha", user.TypeOrganizer)
	reqID := users.addUser("ravi", user.TypeRequester)

	created, err := svc.Create(context.Background(), orgID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	roster.rows[created.ID] = []ReportPatient{
		{Name: "Sunita", Email: "sunita@example.com", DiseaseDetected: strPtr("anemia")},
	}

	for _, format := range []string{ReportFormatXLSX, ReportFormatPDF} {
		report, err := svc.ExportReport(context.Background(), orgID, created.ID, format)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		if len(report.Data) == 0 {
			t.Errorf("%s: empty report body", format)
		}
		wantName := "camp_report_" + created.ID.String() + "." + format
		if report.Filename != wantName {
			t.Errorf("%s: filename = %q, want %q", format, report.Filename, wantName)
		}
	}

	if _, err := svc.ExportReport(context.Background(), orgID, created.ID, "csv"); !errors.Is(err, ErrUnsupportedReportFormat) {
		t.Errorf("format error = %v, want ErrUnsupportedReportFormat", err)
	}
	if _, err := svc.ExportReport(context.Background(), reqID, created.ID, ReportFormatPDF); !errors.Is(err, ErrOnlyOrganizersReport) {
		t.Errorf("requester error = %v, want ErrOnlyOrganizersReport", err)
	}
}
