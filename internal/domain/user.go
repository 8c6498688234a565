package domain

import "time"

// UserType distinguishes the two account populations. Staff accounts live in
// the users table, storefront accounts in public_users.
type UserType string

const (
	UserTypePrivate UserType = "PRIVATE"
	UserTypePublic  UserType = "PUBLIC"
)

// IsValidUserType checks whether the given string is a known user type.
func IsValidUserType(t string) bool {
	return t == string(UserTypePrivate) || t == string(UserTypePublic)
}

// Role constants define the allowed roles across both populations.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleClient     Role = "CLIENT"
	RolePublicUser Role = "PUBLIC_USER"
)

// ParseRole validates a stored role string into the closed enum.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleClient, RolePublicUser:
		return Role(s), true
	}
	return "", false
}

// User represents a staff account. CLIENT users belong to exactly one client
// company and see only that tenant's data.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	ClientID     *string   `json:"client_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser represents a storefront account. Public users have no role
// column; they always act as PUBLIC_USER.
type PublicUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the resolved caller attached to a request or socket after
// token verification. UpdatedAt carries the row's revocation anchor so gates
// can re-check it against the token snapshot.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Type      UserType  `json:"type"`
	ClientID  *string   `json:"client_id,omitempty"`
	UpdatedAt time.Time `json:"-"`
}

// IsAdmin reports whether the identity is a staff administrator.
func (i Identity) IsAdmin() bool {
	return i.Type == UserTypePrivate && i.Role == RoleAdmin
}

// IsStaff reports whether the identity comes from the staff population.
func (i Identity) IsStaff() bool {
	return i.Type == UserTypePrivate
}
