package user

import (
	"time"

	"github.com/google/uuid"
)

// Account roles. Requesters are the patient-facing accounts; the legacy
// role name is kept because it is baked into stored rows and API payloads.
const (
	TypeOrganizer         = "organizer"
	TypeRequester         = "requester"
	TypeLocalOrganisation = "local_organisation"
)

// ValidTypes lists the accepted userType values in the order they are
// reported back to clients on validation failures.
var ValidTypes = []string{TypeOrganizer, TypeRequester, TypeLocalOrganisation}

// ValidType reports whether t is a recognized account role.
func ValidType(t string) bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// User maps to the users table.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	PasswordHash string    `db:"password_hash" json:"-"`
	UserType     string    `db:"user_type" json:"userType"`
	Address      *string   `db:"address" json:"address"`
	Latitude     *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Profile is the user object embedded in signup and login responses. It
// never carries the password hash and surfaces user_type as userType.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	UserType  string    `json:"userType"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile projects the account into its API-facing shape.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		UserType:  u.UserType,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
	}
}

// LocalOrganisation is the public directory entry for a local_organisation
// account. The username is surfaced as name.
type LocalOrganisation struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     *string   `json:"address"`
	PhoneNumber string    `json:"phone_number"`
}
