// Package audithttp exposes the audit log and the anomaly scanner over
// HTTP.
package audithttp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/platform/httpx"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
	"github.com/sobrinkedos/aabb-sub003/jobs"
)

// SweepEnqueuer hands an anomaly sweep off to the background queue.
type SweepEnqueuer interface {
	EnqueueAnomalyScan(ctx context.Context, payload jobs.AnomalyScanPayload) (*asynq.TaskInfo, error)
}

// Handler serves audit queries, the retention purge and anomaly scans.
// Everything here is gated on the full-audit privilege.
type Handler struct {
	service  *audit.Service
	scanner  *audit.Scanner
	authz    *authz.Service
	enqueuer SweepEnqueuer
}

// NewHandler constructs the audit HTTP handler.
func NewHandler(service *audit.Service, scanner *audit.Scanner, authzService *authz.Service) *Handler {
	return &Handler{service: service, scanner: scanner, authz: authzService}
}

// WithEnqueuer enables the asynchronous sweep endpoint.
func (h *Handler) WithEnqueuer(enqueuer SweepEnqueuer) *Handler {
	h.enqueuer = enqueuer
	return h
}

func (h *Handler) requireFullAudit(w http.ResponseWriter, r *http.Request) (shared.Identity, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return shared.Identity{}, false
	}
	privileges, err := h.authz.Privileges(r.Context(), identity)
	if err != nil {
		httpx.RespondError(w, err)
		return shared.Identity{}, false
	}
	if !privileges.FullAudit {
		httpx.RespondError(w, &shared.PermissionDeniedError{Module: "audit", Action: "view"})
		return shared.Identity{}, false
	}
	return identity, true
}

type entryResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Detail     map[string]any `json:"detail,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func toEntryResponse(e audit.Entry) entryResponse {
	out := entryResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		Resource:   e.Resource,
		Detail:     e.Detail,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		OccurredAt: e.OccurredAt,
	}
	if e.ActorID != nil {
		out.ActorID = e.ActorID.String()
	}
	return out
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireFullAudit(w, r)
	if !ok {
		return
	}
	filters := parseFilters(r)
	result, err := h.service.Query(r.Context(), identity.TenantID, filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries := make([]entryResponse, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"paging":  result.Paging,
	})
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireFullAudit(w, r)
	if !ok {
		return
	}
	olderThan, err := time.ParseDuration(r.URL.Query().Get("older_than"))
	if err != nil || olderThan <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "older_than must be a positive duration")
		return
	}
	removed, err := h.service.Purge(r.Context(), identity.TenantID, identity.PrincipalID, olderThan)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (h *Handler) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireFullAudit(w, r)
	if !ok {
		return
	}
	window := time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "window must be a positive duration")
			return
		}
		window = parsed
	}
	findings, err := h.scanner.Scan(r.Context(), identity.TenantID, window)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	type findingResponse struct {
		Category      string          `json:"category"`
		Informational bool            `json:"informational"`
		Entries       []entryResponse `json:"entries"`
	}
	out := make([]findingResponse, 0, len(findings))
	for _, f := range findings {
		entries := make([]entryResponse, 0, len(f.Entries))
		for _, e := range f.Entries {
			entries = append(entries, toEntryResponse(e))
		}
		out = append(out, findingResponse{
			Category:      string(f.Category),
			Informational: f.Informational,
			Entries:       entries,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleScanRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireFullAudit(w, r); !ok {
		return
	}
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "background queue not configured")
		return
	}
	hours := 0
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "window_hours must be a positive integer")
			return
		}
		hours = parsed
	}
	info, err := h.enqueuer.EnqueueAnomalyScan(r.Context(), jobs.AnomalyScanPayload{WindowHours: hours})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID})
}

func parseFilters(r *http.Request) audit.Filters {
	q := r.URL.Query()
	filters := audit.Filters{
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.To = t
		}
	}
	if raw := q.Get("actor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filters.ActorID = &id
		}
	}
	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			filters.Page = page
		}
	}
	if raw := q.Get("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			filters.PageSize = size
		}
	}
	return filters
}
