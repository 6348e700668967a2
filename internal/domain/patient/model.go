package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is one medical record. CampID and UserID are both nullable:
// organizer-captured records start without an account link, and the profile
// stub seeded at requester signup has no camp. CampName is joined in by the
// repository for display.
type Patient struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	CampID               *uuid.UUID `db:"camp_id" json:"camp_id"`
	CampName             *string    `db:"camp_name" json:"camp_name"`
	UserID               *uuid.UUID `db:"user_id" json:"user_id"`
	Name                 string     `db:"name" json:"name"`
	Email                string     `db:"email" json:"email"`
	PhoneNumber          *string    `db:"phone_number" json:"phone_number"`
	DiseaseDetected      *string    `db:"disease_detected" json:"disease_detected"`
	AreaLocation         *string    `db:"area_location" json:"area_location"`
	OrganizerNotes       *string    `db:"organizer_notes" json:"organizer_notes"`
	CreatedByOrganizerID *uuid.UUID `db:"created_by_organizer_id" json:"created_by_organizer_id"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

// CampPatient decorates a record with the account-link flag shown in
// organizer views.
type CampPatient struct {
	Patient
	IsRegisteredUser bool `json:"is_registered_user"`
}

// AddInput is the organizer-supplied payload for a new camp patient. Name
// and email are required, everything else is optional.
type AddInput struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	PhoneNumber     *string `json:"phone_number"`
	DiseaseDetected *string `json:"disease_detected"`
	AreaLocation    *string `json:"area_location"`
	OrganizerNotes  *string `json:"organizer_notes"`
}
