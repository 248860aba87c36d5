package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sobrinkedos/aabb-sub003/internal/platform/httpx"
)

// Handler exposes tenant registration. These endpoints carry no caller
// identity: they are consumed by the public registration flow, exactly
// once per tenant for the bootstrap.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the tenant HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// MountRoutes registers the tenant endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tenants", h.handleRegister)
	r.Post("/tenants/{id}/bootstrap", h.handleBootstrap)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Timezone string `json:"timezone"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.Register(r.Context(), req.Name, req.Timezone)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{
		"id":       t.ID.String(),
		"name":     t.Name,
		"timezone": t.Timezone,
	})
}

type bootstrapRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	var req bootstrapRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	founder, err := h.service.BootstrapFirstPrincipal(r.Context(), tenantID, FounderDraft{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":         founder.ID.String(),
		"tenant_id":  founder.TenantID.String(),
		"role":       string(founder.Role),
		"is_founder": founder.IsFounder,
	})
}
