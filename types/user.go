package types

import "time"

// AccountType is the role a user signs up with.
type AccountType string

const (
	AccountStudent    AccountType = "Student"
	AccountInstructor AccountType = "Instructor"
	AccountAdmin      AccountType = "Admin"
)

// Valid reports whether the account type is one of the known roles.
func (a AccountType) Valid() bool {
	switch a {
	case AccountStudent, AccountInstructor, AccountAdmin:
		return true
	default:
		return false
	}
}

// User represents an account in the system.
// It contains identity, role, and the denormalized list of courses the user
// owns (instructors) or is enrolled in (students).
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// FirstName is the user's given name.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"lastName" db:"last_name"`

	// Email is the user's unique email address, used as the login name.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// AccountType indicates the user's role within the platform.
	AccountType AccountType `json:"accountType" db:"account_type"`

	// Approved is false for instructors until an admin approves them.
	Approved bool `json:"approved" db:"approved"`

	// ProfileID references the profile holding the user's additional details.
	ProfileID int `json:"additionalDetails" db:"profile_id"`

	// Courses lists the ids of courses the user teaches or is enrolled in.
	Courses []int `json:"courses" db:"-"`

	// Image is the avatar URL.
	Image string `json:"image" db:"image"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserView is a user with the profile reference resolved.
type UserView struct {
	User
	AdditionalDetails *Profile `json:"additionalDetails"`
}

// UserSummary is the public subset of a user embedded in course listings.
type UserSummary struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Image     string `json:"image"`
}

// Summary returns the public subset of the user.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Image:     u.Image,
	}
}

// Profile holds optional personal details. An empty profile is created for
// every user at signup.
type Profile struct {
	ID            int     `json:"id" db:"id"`
	Gender        *string `json:"gender" db:"gender"`
	DateOfBirth   *string `json:"dateOfBirth" db:"date_of_birth"`
	About         *string `json:"about" db:"about"`
	ContactNumber *string `json:"contactNumber" db:"contact_number"`
}

// OneTimeCode is the single verification code slot for an email address.
// Issuing a new code replaces the previous one.
type OneTimeCode struct {
	// Email is the address the code was sent to. It keys the slot.
	Email string `json:"email" db:"email"`

	// Code is the 6-digit numeric code.
	Code string `json:"-" db:"code"`

	// CreatedAt is when the code was issued.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// ExpiresAt is when the code stops being accepted.
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the code is no longer valid at the given instant.
func (c OneTimeCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
