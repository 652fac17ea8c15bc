package authz

import "fmt"

// Role is one of the five coarse actor categories.
type Role string

const (
	// RoleSuperadmin is unrestricted and cannot be narrowed.
	RoleSuperadmin Role = "superadmin"
	// RoleAdmin is unrestricted by default but narrowable via an explicit permission set.
	RoleAdmin Role = "admin"
	// RoleCandidate has broad read access and limited campaign-data edit.
	RoleCandidate Role = "candidate"
	// RoleProxyOfficer may edit voter status and notes only.
	RoleProxyOfficer Role = "proxy-officer"
	// RoleStandardUser is read-only with limited metric visibility.
	RoleStandardUser Role = "standard-user"
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleSuperadmin, RoleAdmin, RoleCandidate, RoleProxyOfficer, RoleStandardUser}
}

// ParseRole validates a stored role string.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleSuperadmin, RoleAdmin, RoleCandidate, RoleProxyOfficer, RoleStandardUser:
		return Role(value), nil
	}
	return "", fmt.Errorf("authz: unknown role %q", value)
}

// Valid reports whether the role is a member of the closed enumeration.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
