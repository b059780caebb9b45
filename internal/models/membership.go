package models

import (
	"fmt"
	"time"
)

// Role is a user's role inside a group.
// Roles are totally ordered: RoleOwner > RoleAdmin > RoleMember.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Level returns the position of the role in the role order.
// Unknown roles rank below RoleMember.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Level() > 0 && r.Level() >= min.Level()
}

// Above reports whether r ranks strictly above other.
func (r Role) Above(other Role) bool {
	return r.Level() > other.Level()
}

// ParseRole accepts the lower-case wire names of a role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleAdmin, RoleMember:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Membership links a user to a group with a role.
type Membership struct {
	ID       string
	GroupID  string
	UserID   string
	Role     Role
	JoinedAt time.Time
}
