package authz

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sobrinkedos/aabb-sub003/internal/platform/httpx"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Handler exposes authorization checks to the gated collaborators.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the authz HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers the authz endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/authz/check", h.handleCheck)
	r.Post("/authz/roleops/check", h.handleRoleOpCheck)
	r.Get("/authz/privileges", h.handlePrivileges)
	r.Get("/authz/categories/{category}", h.handleCategory)
}

type checkRequest struct {
	Module string `json:"module" validate:"required"`
	Action string `json:"action" validate:"required"`
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	module, err := ParseModule(req.Module)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	action, err := ParseAction(req.Action)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	decision, err := h.service.Authorize(r.Context(), identity, module, action)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, decision)
}

type roleOpCheckRequest struct {
	ActorRole  string `json:"actor_role" validate:"required"`
	TargetRole string `json:"target_role" validate:"required"`
	Op         string `json:"op" validate:"required,oneof=view create edit delete"`
}

type roleOpCheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Handler) handleRoleOpCheck(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.IdentityFromContext(r.Context()); !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	var req roleOpCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actorRole, err := ParseRole(req.ActorRole)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	targetRole, err := ParseRole(req.TargetRole)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	decision := CanPerformRoleOp(actorRole, targetRole, RoleOp(req.Op))
	httpx.JSON(w, http.StatusOK, roleOpCheckResponse{
		Allowed: decision.Allowed,
		Reason:  string(decision.Reason),
	})
}

func (h *Handler) handlePrivileges(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	privileges, err := h.service.Privileges(r.Context(), identity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, privileges)
}

func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	category, err := ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	decision, err := h.service.AuthorizeCategory(r.Context(), identity, category)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, decision)
}
