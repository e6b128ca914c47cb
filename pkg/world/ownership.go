package world

import (
	"fmt"
	"time"
)

// Role names one of the two logical sessions of a client.
type Role uint8

const (
	RolePrimary Role = iota
	RoleSecondary
)

// Roles lists every role in order.
var Roles = [...]Role{RolePrimary, RoleSecondary}

// String returns "primary" or "secondary".
func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RolePrimary {
		return RoleSecondary
	}
	return RolePrimary
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "primary":
		return RolePrimary, true
	case "secondary":
		return RoleSecondary, true
	}
	return 0, false
}

// Ownership arbitrates "mine" claims across the tables of both sessions.
// An id is owned by at most one role: claiming it for one role revokes
// the other role's claim.
//
// Ownership is not safe for concurrent use; it is owned by the client
// event loop like the tables it links.
type Ownership struct {
	tables [len(Roles)]*Table
}

// NewOwnership returns an empty registry.
func NewOwnership() *Ownership {
	return &Ownership{}
}

// Attach links the table of role, replacing any previous one.
func (o *Ownership) Attach(role Role, t *Table) {
	o.tables[role] = t
}

// Detach unlinks the table of role.
func (o *Ownership) Detach(role Role) {
	o.tables[role] = nil
}

// MarkOwner claims id for role and revokes every other claim on it.
func (o *Ownership) MarkOwner(id uint32, role Role, now time.Time) {
	for r, t := range o.tables {
		if t != nil && Role(r) != role {
			t.RemoveMine(id)
		}
	}
	if t := o.tables[role]; t != nil {
		t.AddMine(id, now)
	}
}

// Owner returns the role that currently claims id.
func (o *Ownership) Owner(id uint32) (Role, bool) {
	for r, t := range o.tables {
		if t != nil && t.IsMine(id) {
			return Role(r), true
		}
	}
	return 0, false
}

// Members returns the ids claimed by role.
func (o *Ownership) Members(role Role) []uint32 {
	if t := o.tables[role]; t != nil {
		return t.Mine()
	}
	return nil
}
