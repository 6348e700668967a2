// Package feedback stores free-form patient feedback, optionally scored and
// tied to a specific patient record.
package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Feedback maps to the patient_feedback table.
type Feedback struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientUserID   uuid.UUID  `db:"patient_user_id" json:"patient_user_id"`
	PatientRecordID *uuid.UUID `db:"patient_record_id" json:"patient_record_id"`
	FeedbackText    string     `db:"feedback_text" json:"feedback_text"`
	Rating          *int       `db:"rating" json:"rating"`
	Language        string     `db:"language" json:"language"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// SubmitInput is the feedback submission body. Rating is decoded loosely so
// both numbers and numeric strings are accepted.
type SubmitInput struct {
	FeedbackText    string      `json:"feedback_text"`
	Rating          interface{} `json:"rating"`
	PatientRecordID *uuid.UUID  `json:"patient_record_id"`
	Language        string      `json:"language"`
}
