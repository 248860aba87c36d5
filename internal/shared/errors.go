package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTenantMismatch indicates the caller referenced data outside its
	// own tenant. Always a hard deny, never a plain permission failure.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrPasswordResetRequired blocks every action except the password
	// change itself while the principal holds a temporary credential.
	// Carries a redirect hint, not a generic denial.
	ErrPasswordResetRequired = errors.New("password reset required")
	// ErrAlreadyBootstrapped indicates the tenant already has a founder.
	ErrAlreadyBootstrapped = errors.New("tenant already bootstrapped")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RoleOpReason is a machine-readable denial reason for role operations.
type RoleOpReason string

const (
	ReasonInsufficientRank RoleOpReason = "insufficient-rank"
	ReasonProtectedTarget  RoleOpReason = "protected-target"
)

// RoleOpError is returned when a role operation is denied.
type RoleOpError struct {
	Reason RoleOpReason
}

func (e *RoleOpError) Error() string {
	return fmt.Sprintf("role operation denied: %s", e.Reason)
}

// PermissionDeniedError reports which module or category and action
// failed, so callers can render a precise message.
type PermissionDeniedError struct {
	Module   string
	Category string
	Action   string
}

func (e *PermissionDeniedError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("permission denied: category %s", e.Category)
	}
	return fmt.Sprintf("permission denied: %s on %s", e.Action, e.Module)
}

// IsDeny reports whether err belongs to the expected denial taxonomy as
// opposed to an infrastructure failure. Infrastructure failures still
// deny (fail closed), but map to a different HTTP status.
func IsDeny(err error) bool {
	var roleOp *RoleOpError
	var permission *PermissionDeniedError
	return errors.Is(err, ErrTenantMismatch) ||
		errors.Is(err, ErrPasswordResetRequired) ||
		errors.As(err, &roleOp) ||
		errors.As(err, &permission)
}
