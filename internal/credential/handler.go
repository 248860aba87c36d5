package credential

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sobrinkedos/aabb-sub003/internal/platform/httpx"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Handler exposes the password change endpoint. This route stays open
// to principals holding a temporary credential: it is the one action
// the lifecycle guard lets through.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the credential HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers the credential endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/credential/password", h.handleChangePassword)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err := h.service.ChangePassword(r.Context(), identity, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrPolicyViolation):
		httpx.Problem(w, http.StatusBadRequest, "Password Policy Violation", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Credentials", "current password does not match")
	default:
		httpx.RespondError(w, err)
	}
}
