package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin may trigger maintenance operations such as reconciliation.
	RoleAdmin Role = "admin"
	// RoleMember grants standard access to a personal library.
	RoleMember Role = "member"
)

// User is a person ranking albums. Identity is owned by an external
// authentication collaborator; we only keep the (provider, provider user id)
// pair it resolved and a display name.
type User struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	DisplayName    string    `json:"display_name"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
