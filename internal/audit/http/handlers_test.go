package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
	"github.com/sobrinkedos/aabb-sub003/jobs"
)

type stubAuthzStore struct {
	principals map[uuid.UUID]authz.PrincipalRecord
}

func (s *stubAuthzStore) PrincipalRecord(ctx context.Context, principalID uuid.UUID) (authz.PrincipalRecord, error) {
	p, ok := s.principals[principalID]
	if !ok {
		return authz.PrincipalRecord{}, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubAuthzStore) ModulePermission(ctx context.Context, principalID uuid.UUID, module authz.Module) (authz.ModulePermission, bool, error) {
	return authz.ModulePermission{}, false, nil
}

type stubAuditRepo struct {
	entries []audit.Entry
	purged  int64
}

func (s *stubAuditRepo) List(ctx context.Context, tenantID uuid.UUID, filters audit.Filters, limit, offset int) ([]audit.Entry, error) {
	if offset >= len(s.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.entries) {
		end = len(s.entries)
	}
	return s.entries[offset:end], nil
}

func (s *stubAuditRepo) Purge(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error) {
	return s.purged, nil
}

func (s *stubAuditRepo) ListWindow(ctx context.Context, tenantID uuid.UUID, from time.Time) ([]audit.Entry, error) {
	return s.entries, nil
}

func (s *stubAuditRepo) TenantTimezone(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return "UTC", nil
}

type fixture struct {
	router  chi.Router
	store   *stubAuthzStore
	repo    *stubAuditRepo
	handler *Handler
}

func newFixture() *fixture {
	store := &stubAuthzStore{principals: make(map[uuid.UUID]authz.PrincipalRecord)}
	repo := &stubAuditRepo{}
	handler := NewHandler(
		audit.NewService(repo, nil),
		audit.NewScanner(repo),
		authz.NewService(store, nil, nil),
	)
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return &fixture{router: router, store: store, repo: repo, handler: handler}
}

func (f *fixture) principal(role authz.Role) shared.Identity {
	record := authz.PrincipalRecord{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Role:     role,
		Active:   true,
	}
	f.store.principals[record.ID] = record
	return shared.Identity{PrincipalID: record.ID, TenantID: record.TenantID}
}

func (f *fixture) get(t *testing.T, path string, identity *shared.Identity) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodGet, path, identity)
}

func (f *fixture) do(t *testing.T, method, path string, identity *shared.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(context.Background(), *identity))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestQueryRequiresFullAuditPrivilege(t *testing.T) {
	f := newFixture()

	rec := f.get(t, "/audit", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Admins hold user management but not full audit.
	admin := f.principal(authz.RoleAdmin)
	rec = f.get(t, "/audit", &admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	owner := f.principal(authz.RoleOwner)
	rec = f.get(t, "/audit", &owner)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryReturnsEntriesWithPaging(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	for i := 0; i < 3; i++ {
		f.repo.entries = append(f.repo.entries, audit.Entry{
			ID:         uuid.New(),
			ActorID:    &actor,
			Action:     audit.ActionLogin,
			OccurredAt: time.Now().UTC(),
		})
	}
	owner := f.principal(authz.RoleOwner)

	rec := f.get(t, "/audit?page=1&page_size=2", &owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []entryResponse   `json:"entries"`
		Paging  shared.Pagination `json:"paging"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Entries, 2)
	assert.True(t, body.Paging.HasNext)
}

func TestPurgeValidatesAge(t *testing.T) {
	f := newFixture()
	owner := f.principal(authz.RoleOwner)

	rec := f.do(t, http.MethodDelete, "/audit", &owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/audit?older_than=-1h", &owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.repo.purged = 5
	rec = f.do(t, http.MethodDelete, "/audit?older_than=720h", &owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body["removed"])
}

func TestAnomaliesEndpoint(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	for i := 0; i < 6; i++ {
		f.repo.entries = append(f.repo.entries, audit.Entry{
			ID:         uuid.New(),
			ActorID:    &actor,
			Action:     audit.ActionLoginFailed,
			OccurredAt: time.Now().UTC().Add(-time.Minute),
		})
	}
	owner := f.principal(authz.RoleOwner)

	rec := f.get(t, "/audit/anomalies?window=1h", &owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var findings []struct {
		Category      string `json:"category"`
		Informational bool   `json:"informational"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &findings))
	require.NotEmpty(t, findings)
	assert.Equal(t, string(audit.FindingSuspiciousAuth), findings[0].Category)

	rec = f.get(t, "/audit/anomalies?window=bogus", &owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubEnqueuer struct {
	payloads []jobs.AnomalyScanPayload
}

func (s *stubEnqueuer) EnqueueAnomalyScan(ctx context.Context, payload jobs.AnomalyScanPayload) (*asynq.TaskInfo, error) {
	s.payloads = append(s.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func TestScanRequestEnqueuesSweep(t *testing.T) {
	f := newFixture()
	enqueuer := &stubEnqueuer{}
	f.handler.WithEnqueuer(enqueuer)
	owner := f.principal(authz.RoleOwner)

	rec := f.do(t, http.MethodPost, "/audit/anomalies/scan?window_hours=6", &owner)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "task-1", body["task_id"])
	require.Len(t, enqueuer.payloads, 1)
	assert.Equal(t, 6, enqueuer.payloads[0].WindowHours)
}

func TestScanRequestWithoutQueue(t *testing.T) {
	f := newFixture()
	owner := f.principal(authz.RoleOwner)

	rec := f.do(t, http.MethodPost, "/audit/anomalies/scan", &owner)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScanRequestRejectsBadWindow(t *testing.T) {
	f := newFixture()
	f.handler.WithEnqueuer(&stubEnqueuer{})
	owner := f.principal(authz.RoleOwner)

	rec := f.do(t, http.MethodPost, "/audit/anomalies/scan?window_hours=-2", &owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
