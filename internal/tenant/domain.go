// Package tenant manages tenant registration and the one-time
// bootstrap of a tenant's first principal.
package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated namespace. Every other entity references
// exactly one tenant; tenants are never merged or split.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Timezone  string // IANA name, used for tenant-local anomaly windows
	CreatedAt time.Time
}

// FounderDraft carries the details of the first principal.
type FounderDraft struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}
