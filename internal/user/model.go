package user

import (
	"errors"
	"time"
)

// ErrNotFound is returned by the repository when no row matches.
var ErrNotFound = errors.New("user not found")

type User struct {
	ID                 string     `json:"id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	ProfileImageURL    string     `json:"profile_image_url"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	LastLoginDisplayAt *time.Time `json:"last_login_display_at,omitempty"`
	JoinedAt           time.Time  `json:"joined_at"`
	Role               Role       `json:"role"`
	Active             bool       `json:"active"`
	Locked             bool       `json:"locked"`
}

// Authorities resolves the account's capability strings from its role.
func (u User) Authorities() []string {
	return u.Role.Authorities()
}
