// Package followup tracks patients flagged for post-camp follow-up and
// answers the voice assistant's eligibility checks.
package followup

import (
	"time"

	"github.com/google/uuid"
)

// FollowUp maps to the camp_follow_ups table. PatientIdentifier is the
// free-form email or phone number the organizer entered; the linked user ID
// is resolved from it at insert time when a matching requester exists.
type FollowUp struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	CampID              uuid.UUID  `db:"camp_id" json:"camp_id"`
	PatientIdentifier   string     `db:"patient_identifier" json:"patient_identifier"`
	Notes               *string    `db:"notes" json:"notes"`
	AddedByOrganizerID  *uuid.UUID `db:"added_by_organizer_id" json:"added_by_organizer_id"`
	LinkedPatientUserID *uuid.UUID `db:"linked_patient_user_id" json:"linked_patient_user_id"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// Receipt is the slice of a follow-up echoed back after creation.
type Receipt struct {
	ID                uuid.UUID `json:"id"`
	PatientIdentifier string    `json:"patient_identifier"`
	Notes             *string   `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
}

// ListEntry is one row of the organizer's follow-up list.
type ListEntry struct {
	ID                  uuid.UUID  `json:"id"`
	PatientIdentifier   string     `json:"patient_identifier"`
	Notes               *string    `json:"notes"`
	CreatedAt           time.Time  `json:"created_at"`
	LinkedPatientUserID *uuid.UUID `json:"linked_patient_user_id"`
}

// EligibleFollowUp is the most recent follow-up matching a patient, with the
// camp name joined in for the spoken message.
type EligibleFollowUp struct {
	ID       uuid.UUID `json:"id"`
	Notes    *string   `json:"notes"`
	CampName string    `json:"camp_name"`
}

// Eligibility is the answer handed to the voice assistant.
type Eligibility struct {
	Eligible        bool              `json:"eligible"`
	Message         string            `json:"message"`
	FollowUpDetails *EligibleFollowUp `json:"follow_up_details,omitempty"`
}

// AddInput is the body for flagging a patient for follow-up.
type AddInput struct {
	PatientIdentifier string  `json:"patientIdentifier"`
	Notes             *string `json:"notes"`
}
