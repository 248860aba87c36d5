// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Denial codes surfaced to clients. Each distinct failure category from
// the authorization core maps to its own code so the UI can render the
// right message (switch tenant, change password, missing privilege).
const (
	CodeTenantMismatch        = "tenant-mismatch"
	CodePasswordResetRequired = "password-reset-required"
	CodePermissionDenied      = "permission-denied"
	CodeAlreadyBootstrapped   = "already-bootstrapped"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var roleOp *shared.RoleOpError
	var permission *shared.PermissionDeniedError
	switch {
	case errors.Is(err, shared.ErrTenantMismatch):
		ProblemCode(w, http.StatusForbidden, "Forbidden", "principal does not belong to the claimed tenant", CodeTenantMismatch)
	case errors.Is(err, shared.ErrPasswordResetRequired):
		ProblemCode(w, http.StatusForbidden, "Password Reset Required", "temporary credential must be replaced before any other action", CodePasswordResetRequired)
	case errors.As(err, &roleOp):
		ProblemCode(w, http.StatusForbidden, "Role Operation Denied", err.Error(), string(roleOp.Reason))
	case errors.As(err, &permission):
		ProblemCode(w, http.StatusForbidden, "Forbidden", err.Error(), CodePermissionDenied)
	case errors.Is(err, shared.ErrAlreadyBootstrapped):
		ProblemCode(w, http.StatusConflict, "Conflict", err.Error(), CodeAlreadyBootstrapped)
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
