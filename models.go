package session

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleClient is a therapy client account
	RoleClient UserRole = "client"
	// RoleTherapist is a therapist account
	RoleTherapist UserRole = "therapist"
)

// User is the authenticated account as the backend reports it. The client
// holds a cached copy; it is only mutated by successful backend responses.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy so snapshot holders cannot mutate stored state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// UserUpdate carries partial user fields. Nil fields are left untouched
// when merged into a stored user.
type UserUpdate struct {
	Email    *string   `json:"email,omitempty"`
	Role     *UserRole `json:"role,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// Apply merges the update into the user in place and stamps UpdatedAt.
func (up UserUpdate) Apply(u *User, now time.Time) {
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.Role != nil {
		u.Role = *up.Role
	}
	if up.IsActive != nil {
		u.IsActive = *up.IsActive
	}
	u.UpdatedAt = now
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the signup payload. An empty Role registers through the
// default endpoint, which creates a client account.
type Registration struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role,omitempty"`
}
