package auth

import (
	"time"

	"github.com/rollcall-hq/rollcall/internal/authz"
)

// Actor represents an authenticated user account.
type Actor struct {
	ID          int64
	Username    string
	DisplayName string
	Role        authz.Role
	// Permissions is the explicit per-account permission set. Empty means a
	// legacy account resolved through the per-role fallback lists.
	Permissions  []authz.Permission
	Blocked      bool
	AvatarURL    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Info projects the actor into the value the authorization layer consumes.
func (a *Actor) Info() authz.ActorInfo {
	if a == nil {
		return authz.ActorInfo{}
	}
	return authz.ActorInfo{
		Username:    a.Username,
		Role:        a.Role,
		Permissions: a.Permissions,
	}
}

// AuditName returns the display name recorded in audit entries.
func (a *Actor) AuditName() string {
	if a == nil {
		return ""
	}
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Username
}
