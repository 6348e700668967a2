package patient

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/camp"
	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/platform/db"
)

// -- Mock repository --

type mockPatientRepo struct {
	camps    *mockCamps
	patients map[uuid.UUID]*Patient
	seq      int

	// conflictOnCreate makes Create fail with a unique violation, as when
	// a concurrent insert wins between the pre-check and the insert.
	conflictOnCreate bool
	// linkDisabled makes LinkUserByEmail report zero rows without
	// claiming anything.
	linkDisabled bool
}

func newMockPatientRepo(camps *mockCamps) *mockPatientRepo {
	return &mockPatientRepo{camps: camps, patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if m.conflictOnCreate {
		return &pgconn.PgError{Code: db.UniqueViolationCode}
	}
	for _, existing := range m.patients {
		if existing.CampID != nil && p.CampID != nil && *existing.CampID == *p.CampID && existing.Email == p.Email {
			return &pgconn.PgError{Code: db.UniqueViolationCode}
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Minute)
	m.seq++

	stored := *p
	stored.CampName = nil
	m.patients[p.ID] = &stored
	return nil
}

func (m *mockPatientRepo) ExistsInCamp(_ context.Context, campID uuid.UUID, email string) (bool, error) {
	for _, p := range m.patients {
		if p.CampID != nil && *p.CampID == campID && p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPatientRepo) ListByCamp(_ context.Context, campID uuid.UUID) ([]*Patient, error) {
	var rows []*Patient
	for _, p := range m.patients {
		if p.CampID != nil && *p.CampID == campID {
			rows = append(rows, m.withCampName(p))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (m *mockPatientRepo) LinkUserByEmail(_ context.Context, userID uuid.UUID, email string) (int64, error) {
	if m.linkDisabled {
		return 0, nil
	}
	var n int64
	for _, p := range m.patients {
		if p.Email == email && p.UserID == nil && p.CampID != nil {
			uid := userID
			p.UserID = &uid
			n++
		}
	}
	return n, nil
}

func (m *mockPatientRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*Patient, error) {
	var rows []*Patient
	for _, p := range m.patients {
		if p.UserID != nil && *p.UserID == userID {
			rows = append(rows, m.withCampName(p))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (m *mockPatientRepo) ListUnlinkedByEmail(_ context.Context, email string) ([]*Patient, error) {
	var rows []*Patient
	for _, p := range m.patients {
		if p.Email == email && p.UserID == nil && p.CampID != nil {
			rows = append(rows, m.withCampName(p))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (m *mockPatientRepo) SeedProfile(ctx context.Context, userID uuid.UUID, name, email, phone string) error {
	uid := userID
	return m.Create(ctx, &Patient{UserID: &uid, Name: name, Email: email, PhoneNumber: &phone})
}

func (m *mockPatientRepo) RosterForCamp(_ context.Context, campID uuid.UUID) ([]camp.ReportPatient, error) {
	var roster []camp.ReportPatient
	for _, p := range m.patients {
		if p.CampID != nil && *p.CampID == campID {
			roster = append(roster, camp.ReportPatient{
				Name: p.Name, Email: p.Email, PhoneNumber: p.PhoneNumber,
				DiseaseDetected: p.DiseaseDetected, AreaLocation: p.AreaLocation,
				OrganizerNotes: p.OrganizerNotes,
			})
		}
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].Name < roster[j].Name })
	return roster, nil
}

// withCampName mirrors the repository's join against the camps table.
func (m *mockPatientRepo) withCampName(p *Patient) *Patient {
	row := *p
	if p.CampID != nil {
		if h, ok := m.camps.headers[*p.CampID]; ok {
			name := h.name
			row.CampName = &name
		}
	}
	return &row
}

// -- Mock camp directory --

type campHeader struct {
	name    string
	ownerID uuid.UUID
}

type mockCamps struct {
	headers map[uuid.UUID]campHeader
}

func newMockCamps() *mockCamps {
	return &mockCamps{headers: make(map[uuid.UUID]campHeader)}
}

func (m *mockCamps) addCamp(name string, ownerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.headers[id] = campHeader{name: name, ownerID: ownerID}
	return id
}

func (m *mockCamps) CampHeader(_ context.Context, id uuid.UUID) (string, uuid.UUID, bool, error) {
	h, ok := m.headers[id]
	if !ok {
		return "", uuid.Nil, false, nil
	}
	return h.name, h.ownerID, true, nil
}

// -- Mock user directory --

type mockDirectory struct {
	users map[uuid.UUID]*user.User
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{users: make(map[uuid.UUID]*user.User)}
}

func (m *mockDirectory) addUser(username, email, userType string) uuid.UUID {
	id := uuid.New()
	m.users[id] = &user.User{ID: id, Username: username, Email: email, UserType: userType}
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

func newTestService() (*Service, *mockPatientRepo, *mockDirectory, *mockCamps) {
	camps := newMockCamps()
	repo := newMockPatientRepo(camps)
	users := newMockDirectory()
	svc := NewService(repo, users, camps, zerolog.Nop())
	return svc, repo, users, camps
}

func strPtr(s string) *string { return &s }

func validAdd() AddInput {
	return AddInput{
		Name:            "Asha Devi",
		Email:           "asha@example.com",
		PhoneNumber:     strPtr("9876543210"),
		DiseaseDetected: strPtr("anemia"),
		AreaLocation:    strPtr("Ward 4"),
		OrganizerNotes:  strPtr("needs iron supplements"),
	}
}

// -- Tests --

func TestAddPatient(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)

	p, err := svc.AddToCamp(context.Background(), orgID, campID, validAdd())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("patient ID not assigned")
	}
	if p.CampID == nil || *p.CampID != campID {
		t.Errorf("camp = %v, want %s", p.CampID, campID)
	}
	if p.CampName == nil || *p.CampName != "Rural Health Camp" {
		t.Errorf("camp name = %v", p.CampName)
	}
	if p.UserID != nil || p.IsRegisteredUser {
		t.Error("expected unlinked record for an unknown email")
	}
	if p.CreatedByOrganizerID == nil || *p.CreatedByOrganizerID != orgID {
		t.Errorf("created_by = %v, want %s", p.CreatedByOrganizerID, orgID)
	}
}

func TestAddPatient_LinksRequesterAccount(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	reqID := users.addUser("ravi", "ravi@example.com", user.TypeRequester)
	campID := camps.addCamp("Rural Health Camp", orgID)

	in := validAdd()
	in.Name = "Ravi Kumar"
	in.Email = "ravi@example.com"

	p, err := svc.AddToCamp(context.Background(), orgID, campID, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UserID == nil || *p.UserID != reqID {
		t.Errorf("user link = %v, want %s", p.UserID, reqID)
	}
	if !p.IsRegisteredUser {
		t.Error("expected is_registered_user for a linked record")
	}

	// Accounts that are not requesters never get linked.
	in = validAdd()
	in.Email = "asha-org@example.com"
	p, err = svc.AddToCamp(context.Background(), orgID, campID, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UserID != nil {
		t.Errorf("linked to non-requester account: %v", p.UserID)
	}
}

func TestAddPatient_MissingFields(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)

	_, err := svc.AddToCamp(context.Background(), orgID, campID, AddInput{Name: "Asha Devi"})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if err.Error() != "Missing required fields: name, email" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	_, err = svc.AddToCamp(context.Background(), orgID, campID, AddInput{Email: "asha@example.com"})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestAddPatient_Authorization(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	otherID := users.addUser("meera", "meera@example.com", user.TypeOrganizer)
	reqID := users.addUser("ravi", "ravi@example.com", user.TypeRequester)
	campID := camps.addCamp("Rural Health Camp", orgID)

	if _, err := svc.AddToCamp(context.Background(), reqID, campID, validAdd()); !errors.Is(err, ErrOnlyOrganizersAdd) {
		t.Errorf("expected ErrOnlyOrganizersAdd, got %v", err)
	}
	if _, err := svc.AddToCamp(context.Background(), otherID, campID, validAdd()); !errors.Is(err, ErrNotCampOrganizer) {
		t.Errorf("expected ErrNotCampOrganizer, got %v", err)
	}
	if _, err := svc.AddToCamp(context.Background(), orgID, uuid.New(), validAdd()); !errors.Is(err, ErrCampNotFound) {
		t.Errorf("expected ErrCampNotFound, got %v", err)
	}
}

func TestAddPatient_Duplicate(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)

	if _, err := svc.AddToCamp(context.Background(), orgID, campID, validAdd()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.AddToCamp(context.Background(), orgID, campID, validAdd())
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.Error() != "Patient with email asha@example.com already exists in this camp." {
		t.Errorf("unexpected message: %q", dup.Error())
	}

	// The same email in another camp is fine.
	otherCamp := camps.addCamp("Eye Screening Camp", orgID)
	if _, err := svc.AddToCamp(context.Background(), orgID, otherCamp, validAdd()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddPatient_InsertRace(t *testing.T) {
	svc, repo, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)
	repo.conflictOnCreate = true

	_, err := svc.AddToCamp(context.Background(), orgID, campID, validAdd())
	var race *DuplicateRaceError
	if !errors.As(err, &race) {
		t.Fatalf("expected DuplicateRaceError, got %v", err)
	}
	want := "A record with similar details (e.g., email 'asha@example.com' in this camp) might already exist."
	if race.Error() != want {
		t.Errorf("message = %q, want %q", race.Error(), want)
	}
}

func TestListPatients(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)

	second := validAdd()
	second.Name = "Babu Lal"
	second.Email = "babu@example.com"
	for _, in := range []AddInput{second, validAdd()} {
		if _, err := svc.AddToCamp(context.Background(), orgID, campID, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	patients, err := svc.ListByCamp(context.Background(), orgID, campID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(patients))
	}
	if patients[0].Name != "Asha Devi" || patients[1].Name != "Babu Lal" {
		t.Errorf("order = %q, %q, want name ascending", patients[0].Name, patients[1].Name)
	}
	if patients[0].CampName == nil || *patients[0].CampName != "Rural Health Camp" {
		t.Errorf("camp name = %v", patients[0].CampName)
	}
}

func TestListPatients_EmptyCamp(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)

	patients, err := svc.ListByCamp(context.Background(), orgID, campID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patients == nil {
		t.Fatal("expected empty list, got nil")
	}
	if len(patients) != 0 {
		t.Errorf("expected no patients, got %d", len(patients))
	}
}

func TestListPatients_Authorization(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	otherID := users.addUser("meera", "meera@example.com", user.TypeOrganizer)
	reqID := users.addUser("ravi", "ravi@example.com", user.TypeRequester)
	campID := camps.addCamp("Rural Health Camp", orgID)

	if _, err := svc.ListByCamp(context.Background(), reqID, campID); !errors.Is(err, ErrOnlyOrganizersView) {
		t.Errorf("expected ErrOnlyOrganizersView, got %v", err)
	}
	if _, err := svc.ListByCamp(context.Background(), otherID, campID); !errors.Is(err, ErrNotPatientsOwner) {
		t.Errorf("expected ErrNotPatientsOwner, got %v", err)
	}
	if _, err := svc.ListByCamp(context.Background(), orgID, uuid.New()); !errors.Is(err, ErrCampNotFound) {
		t.Errorf("expected ErrCampNotFound, got %v", err)
	}
}

func TestMyDetails_AutoLink(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)

	in := validAdd()
	in.Name = "Ravi Kumar"
	in.Email = "ravi@example.com"
	if _, err := svc.AddToCamp(context.Background(), orgID, campID, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ravi signs up only after the camp visit.
	reqID := users.addUser("ravi", "ravi@example.com", user.TypeRequester)

	records, err := svc.MyDetails(context.Background(), reqID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].UserID == nil || *records[0].UserID != reqID {
		t.Errorf("record not claimed by account: %v", records[0].UserID)
	}
	if records[0].CampName == nil || *records[0].CampName != "Rural Health Camp" {
		t.Errorf("camp name = %v", records[0].CampName)
	}
}

func TestMyDetails_NewestFirst(t *testing.T) {
	svc, repo, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	reqID := users.addUser("ravi", "ravi@example.com", user.TypeRequester)
	campID := camps.addCamp("Rural Health Camp", orgID)

	if err := repo.SeedProfile(context.Background(), reqID, "ravi", "ravi@example.com", "9876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := validAdd()
	in.Name = "Ravi Kumar"
	in.Email = "ravi@example.com"
	if _, err := svc.AddToCamp(context.Background(), orgID, campID, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := svc.MyDetails(context.Background(), reqID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CampID == nil || records[1].CampID != nil {
		t.Error("expected the camp record first, the signup profile second")
	}
	if records[1].CampName != nil {
		t.Errorf("signup profile camp name = %q, want nil", *records[1].CampName)
	}
}

func TestMyDetails_EmailFallback(t *testing.T) {
	svc, repo, users, camps := newTestService()
	orgID := users.addUser("asha", "asha-org@example.com", user.TypeOrganizer)
	campID := camps.addCamp("Rural Health Camp", orgID)

	in := validAdd()
	in.Name = "Ravi Kumar"
	in.Email = "ravi@example.com"
	if _, err := svc.AddToCamp(context.Background(), orgID, campID, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqID := users.addUser("ravi", "ravi@example.com", user.TypeRequester)
	repo.linkDisabled = true

	records, err := svc.MyDetails(context.Background(), reqID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record via email fallback, got %d", len(records))
	}
	if records[0].UserID != nil {
		t.Error("fallback record should still be unlinked")
	}
}

func TestMyDetails_NoRecords(t *testing.T) {
	svc, _, users, _ := newTestService()
	reqID := users.addUser("ravi", "ravi@example.com", user.TypeRequester)

	_, err := svc.MyDetails(context.Background(), reqID)
	if !errors.Is(err, ErrNoPatientRecords) {
		t.Fatalf("expected ErrNoPatientRecords, got %v", err)
	}

	_, err = svc.MyDetails(context.Background(), uuid.New())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
