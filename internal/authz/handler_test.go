package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sobrinkedos/aabb-sub003/internal/platform/httpx"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

func newTestRouter(store *mockStore) chi.Router {
	r := chi.NewRouter()
	NewHandler(NewService(store, nil, nil)).MountRoutes(r)
	return r
}

func doRequest(t *testing.T, router chi.Router, method, path, body string, identity *shared.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(context.Background(), *identity))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCheckAllowed(t *testing.T) {
	store := newMockStore()
	record, identity := seedPrincipal(store, RoleStaff)
	store.grant(record.ID, ModuleBarService, ModulePermission{View: true})
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodPost, "/authz/check",
		`{"module":"bar_service","action":"view"}`, &identity)

	require.Equal(t, http.StatusOK, rec.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
}

func TestHandleCheckMissingIdentity(t *testing.T) {
	router := newTestRouter(newMockStore())

	rec := doRequest(t, router, http.MethodPost, "/authz/check",
		`{"module":"cash","action":"view"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCheckUnknownModule(t *testing.T) {
	store := newMockStore()
	_, identity := seedPrincipal(store, RoleOwner)
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodPost, "/authz/check",
		`{"module":"warehouse","action":"view"}`, &identity)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheckTenantMismatchCode(t *testing.T) {
	store := newMockStore()
	record, _ := seedPrincipal(store, RoleOwner)
	router := newTestRouter(store)

	foreign := shared.Identity{PrincipalID: record.ID, TenantID: uuid.New()}
	rec := doRequest(t, router, http.MethodPost, "/authz/check",
		`{"module":"cash","action":"view"}`, &foreign)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, httpx.CodeTenantMismatch, problem.Code)
}

func TestHandleCheckTempPasswordCode(t *testing.T) {
	store := newMockStore()
	record, identity := seedPrincipal(store, RoleOwner)
	record.TempPassword = true
	store.principals[record.ID] = record
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodPost, "/authz/check",
		`{"module":"cash","action":"view"}`, &identity)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, httpx.CodePasswordResetRequired, problem.Code)
}

func TestHandleRoleOpCheck(t *testing.T) {
	store := newMockStore()
	_, identity := seedPrincipal(store, RoleOwner)
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodPost, "/authz/roleops/check",
		`{"actor_role":"owner","target_role":"owner","op":"delete"}`, &identity)

	require.Equal(t, http.StatusOK, rec.Code)
	var response roleOpCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.Allowed)
	assert.Equal(t, string(shared.ReasonProtectedTarget), response.Reason)
}

func TestHandlePrivileges(t *testing.T) {
	store := newMockStore()
	_, identity := seedPrincipal(store, RoleAdmin)
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodGet, "/authz/privileges", "", &identity)

	require.Equal(t, http.StatusOK, rec.Code)
	var set PrivilegeSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.True(t, set.UserManagement)
	assert.False(t, set.FullAudit)
}

func TestHandleCategory(t *testing.T) {
	store := newMockStore()
	_, identity := seedPrincipal(store, RoleAdmin)
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodGet, "/authz/categories/integration", "", &identity)
	require.Equal(t, http.StatusOK, rec.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)

	rec = doRequest(t, router, http.MethodGet, "/authz/categories/banquets", "", &identity)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
