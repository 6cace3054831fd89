package domain

import "time"

// Role is the authorization level the backend assigns to an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated user's profile as seen by the portal.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// NewAccount carries the self-registration payload.
type NewAccount struct {
	Name     string
	Email    string
	Password string
}

// NewUser is the admin-side user creation payload.
type NewUser struct {
	Name      string
	Email     string
	Password  string
	Role      Role
	AvatarURL string
}

// IdentityUpdate is a partial update; nil fields are left untouched.
type IdentityUpdate struct {
	Name      *string
	Email     *string
	AvatarURL *string
	Role      *Role
}

// SessionState is a point-in-time view of a Session Store.
// While Resolving is true the identity is unknown, not absent.
type SessionState struct {
	Identity  *Identity
	Resolving bool
}

func (s SessionState) IsAuthenticated() bool {
	return !s.Resolving && s.Identity != nil
}

func (s SessionState) IsAdmin() bool {
	return s.IsAuthenticated() && s.Identity.IsAdmin()
}
