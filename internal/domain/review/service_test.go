package review

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/platform/db"
)

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

func (m *mockDirectory) FindRequesterByEmail(context.Context, string) (*user.User, error) {
	return nil, nil
}

func (m *mockDirectory) FindRequesterByIdentifier(context.Context, string) (*user.User, error) {
	return nil, nil
}

type campInfo struct {
	name    string
	ownerID uuid.UUID
}

type mockCamps struct {
	camps map[uuid.UUID]campInfo
}

func newMockCamps() *mockCamps {
	return &mockCamps{camps: make(map[uuid.UUID]campInfo)}
}

func (m *mockCamps) addCamp(name string, ownerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.camps[id] = campInfo{name: name, ownerID: ownerID}
	return id
}

func (m *mockCamps) CampHeader(_ context.Context, id uuid.UUID) (string, uuid.UUID, bool, error) {
	info, ok := m.camps[id]
	if !ok {
		return "", uuid.Nil, false, nil
	}
	return info.name, info.ownerID, true, nil
}

type mockReviewRepo struct {
	users *mockDirectory

	reviews []*Review
	seq     int
}

func newMockReviewRepo(users *mockDirectory) *mockReviewRepo {
	return &mockReviewRepo{users: users}
}

func (m *mockReviewRepo) nextTime() time.Time {
	t := time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Minute)
	m.seq++
	return t
}

// addReview seeds a review directly, bypassing the service.
func (m *mockReviewRepo) addReview(campID, userID uuid.UUID, rating int, comment *string) uuid.UUID {
	rv := &Review{
		ID:            uuid.New(),
		CampID:        campID,
		PatientUserID: userID,
		Rating:        rating,
		Comment:       comment,
		CreatedAt:     m.nextTime(),
	}
	m.reviews = append(m.reviews, rv)
	return rv.ID
}

func (m *mockReviewRepo) Create(_ context.Context, rv *Review) error {
	for _, existing := range m.reviews {
		if existing.CampID == rv.CampID && existing.PatientUserID == rv.PatientUserID {
			return &pgconn.PgError{Code: db.UniqueViolationCode}
		}
	}
	rv.ID = uuid.New()
	rv.CreatedAt = m.nextTime()
	m.reviews = append(m.reviews, rv)
	return nil
}

func (m *mockReviewRepo) ExistsForUser(_ context.Context, campID, userID uuid.UUID) (bool, error) {
	for _, rv := range m.reviews {
		if rv.CampID == campID && rv.PatientUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewRepo) ListForCamp(_ context.Context, campID uuid.UUID) ([]CampReview, error) {
	out := make([]CampReview, 0)
	for _, rv := range m.reviews {
		if rv.CampID != campID {
			continue
		}
		name := ""
		if u := m.users.users[rv.PatientUserID]; u != nil {
			name = u.Username
		}
		out = append(out, CampReview{
			ID:            rv.ID,
			PatientUserID: rv.PatientUserID,
			PatientName:   name,
			Rating:        rv.Rating,
			Comment:       rv.Comment,
			CreatedAt:     rv.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func newTestService() (*Service, *mockReviewRepo, *mockDirectory, *mockCamps) {
	users := newMockDirectory()
	camps := newMockCamps()
	repo := newMockReviewRepo(users)
	svc := NewService(repo, users, camps, zerolog.Nop())
	return svc, repo, users, camps
}

func strPtr(s string) *string { return &s }

func TestSubmit(t *testing.T) {
	svc, repo, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	patientID := users.addUser("Asha", user.TypeRequester)
	campID := camps.addCamp("Eye Camp", orgID)

	rv, err := svc.Submit(context.Background(), patientID, SubmitInput{
		CampID:  campID.String(),
		Rating:  float64(5),
		Comment: strPtr("Very helpful staff."),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.ID == uuid.Nil {
		t.Error("expected a generated review ID")
	}
	if rv.CampID != campID || rv.PatientUserID != patientID {
		t.Errorf("unexpected review identity: %+v", rv)
	}
	if rv.Rating != 5 {
		t.Errorf("rating = %d, want 5", rv.Rating)
	}
	if rv.Comment == nil || *rv.Comment != "Very helpful staff." {
		t.Errorf("comment = %v", rv.Comment)
	}
	if rv.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if len(repo.reviews) != 1 {
		t.Fatalf("expected 1 stored review, got %d", len(repo.reviews))
	}
}

func TestSubmit_MissingFields(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	patientID := users.addUser("Asha", user.TypeRequester)
	campID := camps.addCamp("Eye Camp", orgID)

	_, err := svc.Submit(context.Background(), patientID, SubmitInput{Rating: float64(4)})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if err.Error() != "Missing required fields: campId, rating." {
		t.Errorf("unexpected message: %q", err.Error())
	}

	_, err = svc.Submit(context.Background(), patientID, SubmitInput{CampID: campID.String()})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields for nil rating, got %v", err)
	}
}

func TestSubmit_RatingCoercion(t *testing.T) {
	svc, repo, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	patientID := users.addUser("Asha", user.TypeRequester)

	// Numeric strings are accepted.
	campA := camps.addCamp("Eye Camp", orgID)
	rv, err := svc.Submit(context.Background(), patientID, SubmitInput{CampID: campA.String(), Rating: "4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.Rating != 4 {
		t.Errorf("rating = %d, want 4", rv.Rating)
	}

	// Fractional ratings truncate toward zero.
	campB := camps.addCamp("Dental Camp", orgID)
	rv, err = svc.Submit(context.Background(), patientID, SubmitInput{CampID: campB.String(), Rating: 3.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.Rating != 3 {
		t.Errorf("rating = %d, want 3", rv.Rating)
	}
	if len(repo.reviews) != 2 {
		t.Fatalf("expected 2 stored reviews, got %d", len(repo.reviews))
	}
}

func TestSubmit_RatingValidation(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	patientID := users.addUser("Asha", user.TypeRequester)
	campID := camps.addCamp("Eye Camp", orgID)

	cases := []struct {
		name   string
		rating interface{}
		want   error
	}{
		{"zero", float64(0), ErrRatingRange},
		{"six", float64(6), ErrRatingRange},
		{"fraction below one", 0.5, ErrRatingRange},
		{"word", "great", ErrRatingFormat},
		{"fractional string", "4.5", ErrRatingFormat},
		{"boolean", true, ErrRatingFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), patientID, SubmitInput{
				CampID: campID.String(),
				Rating: tc.rating,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if ErrRatingRange.Error() != "Rating must be between 1 and 5." {
		t.Errorf("unexpected range message: %q", ErrRatingRange.Error())
	}
	if ErrRatingFormat.Error() != "Invalid rating format." {
		t.Errorf("unexpected format message: %q", ErrRatingFormat.Error())
	}

	// Rating problems are reported before the camp ID is inspected.
	_, err := svc.Submit(context.Background(), patientID, SubmitInput{CampID: "17", Rating: "bad"})
	if !errors.Is(err, ErrRatingFormat) {
		t.Fatalf("expected ErrRatingFormat before camp ID parsing, got %v", err)
	}
}

func TestSubmit_InvalidCampID(t *testing.T) {
	svc, _, users, _ := newTestService()
	patientID := users.addUser("Asha", user.TypeRequester)

	_, err := svc.Submit(context.Background(), patientID, SubmitInput{CampID: "17", Rating: float64(4)})
	if !errors.Is(err, ErrInvalidCampID) {
		t.Fatalf("expected ErrInvalidCampID, got %v", err)
	}
	if err.Error() != "Invalid camp ID format." {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSubmit_Authorization(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	localOrgID := users.addUser("Seva Trust", user.TypeLocalOrganisation)
	campID := camps.addCamp("Eye Camp", orgID)

	callers := []struct {
		name string
		id   uuid.UUID
	}{
		{"organizer", orgID},
		{"local organisation", localOrgID},
		{"unknown user", uuid.New()},
	}
	for _, tc := range callers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.id, SubmitInput{
				CampID: campID.String(),
				Rating: float64(4),
			})
			if !errors.Is(err, ErrOnlyRequesters) {
				t.Fatalf("expected ErrOnlyRequesters, got %v", err)
			}
		})
	}

	// The role check runs before camp existence.
	_, err := svc.Submit(context.Background(), orgID, SubmitInput{
		CampID: uuid.New().String(),
		Rating: float64(4),
	})
	if !errors.Is(err, ErrOnlyRequesters) {
		t.Fatalf("expected ErrOnlyRequesters for missing camp too, got %v", err)
	}
}

func TestSubmit_CampNotFound(t *testing.T) {
	svc, _, users, _ := newTestService()
	patientID := users.addUser("Asha", user.TypeRequester)

	_, err := svc.Submit(context.Background(), patientID, SubmitInput{
		CampID: uuid.New().String(),
		Rating: float64(4),
	})
	if !errors.Is(err, ErrCampNotFound) {
		t.Fatalf("expected ErrCampNotFound, got %v", err)
	}
	if err.Error() != "Camp not found." {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSubmit_Duplicate(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	patientID := users.addUser("Asha", user.TypeRequester)
	campID := camps.addCamp("Eye Camp", orgID)

	if _, err := svc.Submit(context.Background(), patientID, SubmitInput{CampID: campID.String(), Rating: float64(5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Submit(context.Background(), patientID, SubmitInput{CampID: campID.String(), Rating: float64(3)})
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
	if err.Error() != "You have already reviewed this camp." {
		t.Errorf("unexpected message: %q", err.Error())
	}

	// A different patient can still review the same camp.
	otherID := users.addUser("Ravi", user.TypeRequester)
	if _, err := svc.Submit(context.Background(), otherID, SubmitInput{CampID: campID.String(), Rating: float64(4)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// raceRepo hides existing rows from the pre-insert check so the unique
// constraint is the only guard, as happens when two submissions race.
type raceRepo struct {
	*mockReviewRepo
}

func (r raceRepo) ExistsForUser(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func TestSubmit_DuplicateRace(t *testing.T) {
	users := newMockDirectory()
	camps := newMockCamps()
	repo := raceRepo{newMockReviewRepo(users)}
	svc := NewService(repo, users, camps, zerolog.Nop())

	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	patientID := users.addUser("Asha", user.TypeRequester)
	campID := camps.addCamp("Eye Camp", orgID)

	if _, err := svc.Submit(context.Background(), patientID, SubmitInput{CampID: campID.String(), Rating: float64(5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Submit(context.Background(), patientID, SubmitInput{CampID: campID.String(), Rating: float64(3)})
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed from unique violation, got %v", err)
	}
}

func TestListForCamp(t *testing.T) {
	svc, repo, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	ashaID := users.addUser("Asha", user.TypeRequester)
	raviID := users.addUser("Ravi", user.TypeRequester)
	campID := camps.addCamp("Eye Camp", orgID)
	otherCampID := camps.addCamp("Dental Camp", orgID)

	repo.addReview(campID, ashaID, 5, strPtr("Excellent."))
	repo.addReview(campID, raviID, 3, nil)
	repo.addReview(otherCampID, ashaID, 4, nil)

	reviews, err := svc.ListForCamp(context.Background(), orgID, campID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].PatientName != "Ravi" || reviews[1].PatientName != "Asha" {
		t.Errorf("expected newest first, got %q then %q", reviews[0].PatientName, reviews[1].PatientName)
	}
	if reviews[0].Rating != 3 || reviews[0].Comment != nil {
		t.Errorf("unexpected first review: %+v", reviews[0])
	}
	if reviews[1].Comment == nil || *reviews[1].Comment != "Excellent." {
		t.Errorf("unexpected second review: %+v", reviews[1])
	}
}

func TestListForCamp_Empty(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	campID := camps.addCamp("Eye Camp", orgID)

	reviews, err := svc.ListForCamp(context.Background(), orgID, campID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviews == nil || len(reviews) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", reviews)
	}
}

func TestListForCamp_Authorization(t *testing.T) {
	svc, _, users, camps := newTestService()
	orgID := users.addUser("Dr. Mehta", user.TypeOrganizer)
	otherOrgID := users.addUser("Dr. Rao", user.TypeOrganizer)
	patientID := users.addUser("Asha", user.TypeRequester)
	campID := camps.addCamp("Eye Camp", orgID)

	_, err := svc.ListForCamp(context.Background(), patientID, campID)
	if !errors.Is(err, ErrOnlyOrganizersView) {
		t.Fatalf("expected ErrOnlyOrganizersView, got %v", err)
	}
	if err.Error() != "Forbidden: Only organizers can view camp reviews." {
		t.Errorf("unexpected message: %q", err.Error())
	}

	_, err = svc.ListForCamp(context.Background(), otherOrgID, campID)
	if !errors.Is(err, ErrNotCampOrganizer) {
		t.Fatalf("expected ErrNotCampOrganizer, got %v", err)
	}
	if err.Error() != "Forbidden: You are not the organizer of this camp." {
		t.Errorf("unexpected message: %q", err.Error())
	}

	_, err = svc.ListForCamp(context.Background(), orgID, uuid.New())
	if !errors.Is(err, ErrCampNotFound) {
		t.Fatalf("expected ErrCampNotFound, got %v", err)
	}
}
