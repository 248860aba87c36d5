// Package principal manages user identities within a tenant and the
// mutations that change what they may do.
package principal

import (
	"time"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
)

// Status is the lifecycle state of a principal.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

// Valid reports whether the status belongs to the enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusBlocked:
		return true
	}
	return false
}

// Principal is a user identity scoped to exactly one tenant.
type Principal struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Email    string
	Phone    string

	PasswordHash string
	// IsFullAdmin is the legacy coarse admin flag, kept for accounts
	// created before the role hierarchy existed. Either it or an owner
	// role grants the full bypass.
	IsFullAdmin bool
	Role        authz.Role
	// IsFounder marks the first principal of the tenant. At most one
	// per tenant, enforced by a partial unique index.
	IsFounder    bool
	Status       Status
	TempPassword bool
	LastLoginAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Draft carries the fields for creating a principal.
type Draft struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         authz.Role
	TempPassword bool
}
