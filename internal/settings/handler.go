package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/platform/httpx"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// Handler exposes configuration records over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs the settings HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers the settings endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings/{category}", h.handleGet)
	r.Put("/settings/{category}", h.handleUpdate)
}

type recordResponse struct {
	Category string         `json:"category"`
	Data     map[string]any `json:"data"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	category, err := authz.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.Get(r.Context(), identity, category)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, recordResponse{Category: string(record.Category), Data: record.Data})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	category, err := authz.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var data map[string]any
	if err := httpx.DecodeJSON(r, &data); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.Update(r.Context(), identity, category, data); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
