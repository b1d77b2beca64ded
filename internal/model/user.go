package model

import "strings"

// Role is the name of a user's role as carried in access tokens.  User
// records themselves are owned by the account service; the booking core
// only needs the role to pick booking rules and authorize actions.
type Role string

const (
    RoleAdmin    Role = "ADMIN"
    RoleLeader   Role = "LEADER"
    RoleEmployee Role = "EMPLOYEE"
)

// ParseRole normalizes a role claim.  Unknown values map to EMPLOYEE,
// the least privileged role.
func ParseRole(s string) Role {
    switch Role(strings.ToUpper(strings.TrimSpace(s))) {
    case RoleAdmin:
        return RoleAdmin
    case RoleLeader:
        return RoleLeader
    default:
        return RoleEmployee
    }
}

// Actor identifies who is performing an operation.
type Actor struct {
    UserID uint64
    Role   Role
}

// IsAdmin reports whether the actor may act on other users' reservations.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
