// Package review lets patients rate camps they attended and organizers read
// the reviews for their own camps.
package review

import (
	"time"

	"github.com/google/uuid"
)

// Review maps to the camp_reviews table.
type Review struct {
	ID            uuid.UUID `db:"id" json:"id"`
	CampID        uuid.UUID `db:"camp_id" json:"camp_id"`
	PatientUserID uuid.UUID `db:"patient_user_id" json:"patient_user_id"`
	Rating        int       `db:"rating" json:"rating"`
	Comment       *string   `db:"comment" json:"comment"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CampReview is one row of the organizer's review list, with the reviewer's
// username joined in as patient_name.
type CampReview struct {
	ID            uuid.UUID `json:"id"`
	PatientUserID uuid.UUID `json:"patient_user_id"`
	PatientName   string    `json:"patient_name"`
	Rating        int       `json:"rating"`
	Comment       *string   `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitInput is the review submission body. Rating is decoded loosely so
// both numbers and numeric strings are accepted.
type SubmitInput struct {
	CampID  string      `json:"campId"`
	Rating  interface{} `json:"rating"`
	Comment *string     `json:"comment"`
}
