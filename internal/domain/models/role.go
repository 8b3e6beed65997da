// internal/domain/models/role.go
package models

import "strings"

// Role is the closed set of access roles a user can hold.
// Board titles like "sekretær" or "styremedlem" are display text on the
// profile (User.OrgRole) and never grant access.
type Role string

const (
	RoleMember      Role = "member"
	RoleContributor Role = "contributor"
	RoleAdmin       Role = "admin"
)

// ParseRole normalizes s to a known Role. Unknown or empty values map to
// RoleMember so a record missing its role still resolves to the least
// privileged role.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleContributor:
		return RoleContributor
	default:
		return RoleMember
	}
}

// IsValidRole reports whether s names one of the defined roles exactly.
func IsValidRole(s string) bool {
	switch Role(s) {
	case RoleMember, RoleContributor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// CanPublish reports whether the role may create and edit posts and events.
func (r Role) CanPublish() bool {
	return r == RoleAdmin || r == RoleContributor
}

// CanManageUsers reports whether the role may manage member accounts,
// the archive, and site settings.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// CanDeleteContent reports whether the role may delete any post or event.
// Authors may always delete their own content regardless of role.
func (r Role) CanDeleteContent() bool {
	return r == RoleAdmin
}
