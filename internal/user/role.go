package user

import "fmt"

// Role is a closed enumeration; each role carries a fixed authority set.
type Role string

const (
	RoleUser       Role = "ROLE_USER"
	RoleHR         Role = "ROLE_HR"
	RoleManager    Role = "ROLE_MANAGER"
	RoleAdmin      Role = "ROLE_ADMIN"
	RoleSuperAdmin Role = "ROLE_SUPER_ADMIN"
)

const (
	AuthorityUserRead   = "user:read"
	AuthorityUserUpdate = "user:update"
	AuthorityUserCreate = "user:create"
	AuthorityUserDelete = "user:delete"
)

// Authorities is total over the enumeration; an unknown value (which can
// only come from a corrupted row, never from ParseRole) gets the most
// restricted set.
func (r Role) Authorities() []string {
	switch r {
	case RoleUser:
		return []string{AuthorityUserRead}
	case RoleHR, RoleManager:
		return []string{AuthorityUserRead, AuthorityUserUpdate}
	case RoleAdmin:
		return []string{AuthorityUserRead, AuthorityUserCreate, AuthorityUserUpdate}
	case RoleSuperAdmin:
		return []string{AuthorityUserRead, AuthorityUserCreate, AuthorityUserUpdate, AuthorityUserDelete}
	default:
		return []string{AuthorityUserRead}
	}
}

// ParseRole validates a role name at the API boundary.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleUser, RoleHR, RoleManager, RoleAdmin, RoleSuperAdmin:
		return Role(name), nil
	default:
		return "", fmt.Errorf("unknown role %q", name)
	}
}
