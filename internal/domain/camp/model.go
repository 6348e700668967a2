package camp

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Camp lifecycle statuses.
const (
	StatusPlanned   = "planned"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// RegistrationPending is the initial status of a camp registration.
const RegistrationPending = "pending"

// DateLayout is the wire format for camp start and end dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time component. It marshals to
// "YYYY-MM-DD" and maps onto PostgreSQL DATE columns.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %q", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Camp is the full record returned on creation and in the detail view.
type Camp struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Description       *string   `db:"description" json:"description"`
	LocationLatitude  float64   `db:"location_latitude" json:"location_latitude"`
	LocationLongitude float64   `db:"location_longitude" json:"location_longitude"`
	LocationAddress   *string   `db:"location_address" json:"location_address"`
	StartDate         Date      `db:"start_date" json:"start_date"`
	EndDate           Date      `db:"end_date" json:"end_date"`
	OrganizerID       uuid.UUID `db:"organizer_id" json:"organizer_id"`
	Status            string    `db:"status" json:"status"`
	TargetPatients    int       `db:"target_patients" json:"target_patients"`
	Geohash           string    `db:"geohash" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Summary is the projection used in the organizer's camp list. Coordinates
// surface as lat/lng and timestamps are omitted.
type Summary struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description"`
	Lat             float64   `db:"location_latitude" json:"lat"`
	Lng             float64   `db:"location_longitude" json:"lng"`
	LocationAddress *string   `db:"location_address" json:"location_address"`
	StartDate       Date      `db:"start_date" json:"start_date"`
	EndDate         Date      `db:"end_date" json:"end_date"`
	OrganizerID     uuid.UUID `db:"organizer_id" json:"organizer_id"`
	Status          string    `db:"status" json:"status"`
	TargetPatients  int       `db:"target_patients" json:"target_patients"`
}

// Ref is the minimal public listing of a camp.
type Ref struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// NearbyCamp pairs a camp summary with its distance from the query point.
type NearbyCamp struct {
	Summary
	DistanceKm float64 `json:"distance_km"`
}

// CreateInput carries a camp creation request. Pointer fields distinguish
// absent and null values from provided ones.
type CreateInput struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	LocationLatitude  *float64 `json:"location_latitude"`
	LocationLongitude *float64 `json:"location_longitude"`
	LocationAddress   *string  `json:"location_address"`
	StartDate         *Date    `json:"start_date"`
	EndDate           *Date    `json:"end_date"`
}

// missingFields reports absent required fields in their canonical order.
func (in CreateInput) missingFields() []string {
	var missing []string
	if in.Name == nil {
		missing = append(missing, "name")
	}
	if in.LocationLatitude == nil {
		missing = append(missing, "location_latitude")
	}
	if in.LocationLongitude == nil {
		missing = append(missing, "location_longitude")
	}
	if in.StartDate == nil {
		missing = append(missing, "start_date")
	}
	if in.EndDate == nil {
		missing = append(missing, "end_date")
	}
	return missing
}

// StaffMember is one staffing row of a camp's resource plan.
type StaffMember struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	Role    *string   `db:"role" json:"role"`
	Origin  *string   `db:"origin" json:"origin"`
	Contact *string   `db:"contact" json:"contact"`
	Notes   *string   `db:"notes" json:"notes"`
}

// StaffInput is the inbound shape of a staffing row.
type StaffInput struct {
	Name    string  `json:"name"`
	Role    *string `json:"role"`
	Origin  *string `json:"origin"`
	Contact *string `json:"contact"`
	Notes   *string `json:"notes"`
}

// Medicine is one medicine row of a camp's resource plan. The per-patient
// quantity key differs between input and output shapes.
type Medicine struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Unit               *string   `db:"unit" json:"unit"`
	QuantityPerPatient *float64  `db:"quantity_per_patient" json:"quantity_per_patient"`
	Notes              *string   `db:"notes" json:"notes"`
}

// MedicineInput is the inbound shape of a medicine row.
type MedicineInput struct {
	Name               string   `json:"name"`
	Unit               *string  `json:"unit"`
	QuantityPerPatient *float64 `json:"quantityPerPatient"`
	Notes              *string  `json:"notes"`
}

// Equipment is one equipment row of a camp's resource plan.
type Equipment struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Quantity *int      `db:"quantity" json:"quantity"`
	Notes    *string   `db:"notes" json:"notes"`
}

// EquipmentInput is the inbound shape of an equipment row.
type EquipmentInput struct {
	Name     string  `json:"name"`
	Quantity *int    `json:"quantity"`
	Notes    *string `json:"notes"`
}

// Resources is the assembled resource plan of a camp.
type Resources struct {
	TargetPatients int            `json:"targetPatients"`
	StaffList      []*StaffMember `json:"staffList"`
	MedicineList   []*Medicine    `json:"medicineList"`
	EquipmentList  []*Equipment   `json:"equipmentList"`
}

// ResourcesInput replaces a camp's resource plan. A nil TargetPatients
// leaves the stored target untouched.
type ResourcesInput struct {
	TargetPatients *int             `json:"targetPatients"`
	StaffList      []StaffInput     `json:"staffList"`
	MedicineList   []MedicineInput  `json:"medicineList"`
	EquipmentList  []EquipmentInput `json:"equipmentList"`
}

// Registration records a user signing up to attend a camp.
type Registration struct {
	ID               uuid.UUID `db:"id" json:"id"`
	CampID           uuid.UUID `db:"camp_id" json:"camp_id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	Status           string    `db:"status" json:"status"`
	Notes            *string   `db:"notes" json:"notes"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
}

// RegistrationDetail is a registration joined with the registrant's name
// for the organizer's view.
type RegistrationDetail struct {
	Registration
	Username string `db:"username" json:"username"`
}

// ReportPatient is the roster row consumed by camp report exports.
type ReportPatient struct {
	Name            string
	Email           string
	PhoneNumber     *string
	DiseaseDetected *string
	AreaLocation    *string
	OrganizerNotes  *string
}
