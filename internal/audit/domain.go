// Package audit implements the append-only audit log and the anomaly
// scanner that consumes it.
package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action codes recorded by the authorization core. Business modules
// record their own codes; by convention destructive operations end in
// ".deleted" so the scanner can recognise them.
const (
	ActionAuthzAllowed      = "authz.allowed"
	ActionAuthzDenied       = "authz.denied"
	ActionTenantMismatch    = "authz.tenant_mismatch"
	ActionTempPasswordBlock = "authz.temp_password_block"

	ActionLogin        = "auth.login"
	ActionLoginFailed  = "auth.login_failed"
	ActionLogout       = "auth.logout"
	ActionPasswordSet  = "auth.password_changed"
	ActionTempResolved = "auth.temp_password_resolved"

	ActionTenantInitialized = "tenant.initialized"

	ActionPrincipalCreated     = "principal.created"
	ActionPrincipalRoleChanged = "principal.role_changed"
	ActionPermissionChanged    = "principal.permission_changed"
	ActionPrincipalRemoved     = "principal.removed"

	ActionSettingsUpdated = "settings.updated"
	ActionAuditPurged     = "audit.purged"
)

// Entry is one immutable audit record. Entries are only ever inserted;
// the sole delete path is the retention purge.
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    *uuid.UUID // nil for system actions
	Action     string
	Resource   string
	Detail     map[string]any
	IP         string
	UserAgent  string
	OccurredAt time.Time
}

// IsAuthEvent reports whether the action is a login/logout style event.
// The off-hours heuristic ignores these.
func IsAuthEvent(action string) bool {
	switch action {
	case ActionLogin, ActionLoginFailed, ActionLogout:
		return true
	}
	return false
}

// IsDeleteEvent reports whether the action records a destructive
// operation.
func IsDeleteEvent(action string) bool {
	return action == ActionPrincipalRemoved || strings.HasSuffix(action, ".deleted")
}

// Filters narrows audit queries.
type Filters struct {
	From     time.Time
	To       time.Time
	ActorID  *uuid.UUID
	Action   string
	Resource string
	Page     int
	PageSize int
}
