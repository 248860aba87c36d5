package credential

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/principal"
	"github.com/sobrinkedos/aabb-sub003/internal/settings"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

type mockRepo struct {
	principals map[uuid.UUID]*principal.Principal
}

func newMockRepo() *mockRepo {
	return &mockRepo{principals: make(map[uuid.UUID]*principal.Principal)}
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (*principal.Principal, error) {
	p, ok := m.principals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepo) UpdatePassword(ctx context.Context, tenantID, id uuid.UUID, hash string, temporary bool) error {
	p, ok := m.principals[id]
	if !ok || p.TenantID != tenantID {
		return shared.ErrNotFound
	}
	p.PasswordHash = hash
	p.TempPassword = temporary
	return nil
}

type fixedPolicy struct {
	policy settings.PasswordPolicy
}

func (f fixedPolicy) PasswordPolicy(ctx context.Context, tenantID uuid.UUID) settings.PasswordPolicy {
	return f.policy
}

type captureRecorder struct {
	entries []audit.Entry
}

func (c *captureRecorder) Enqueue(entry audit.Entry) {
	c.entries = append(c.entries, entry)
}

func seedPrincipal(repo *mockRepo, password string, temp bool) (*principal.Principal, shared.Identity) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	p := &principal.Principal{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		PasswordHash: string(hash),
		Status:       principal.StatusActive,
		TempPassword: temp,
	}
	repo.principals[p.ID] = p
	return p, shared.Identity{PrincipalID: p.ID, TenantID: p.TenantID}
}

func relaxed() fixedPolicy {
	return fixedPolicy{policy: settings.PasswordPolicy{MinLength: 6}}
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	repo := newMockRepo()
	recorder := &captureRecorder{}
	svc := NewService(repo, relaxed(), recorder)

	p, identity := seedPrincipal(repo, "old-secret", false)
	err := svc.ChangePassword(context.Background(), identity, "old-secret", "new-secret")
	require.NoError(t, err)

	stored := repo.principals[p.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-secret")))
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, audit.ActionPasswordSet, recorder.entries[0].Action)
}

func TestChangePasswordResolvesTemporaryCredential(t *testing.T) {
	repo := newMockRepo()
	recorder := &captureRecorder{}
	svc := NewService(repo, relaxed(), recorder)

	p, identity := seedPrincipal(repo, "temp-secret", true)
	err := svc.ChangePassword(context.Background(), identity, "temp-secret", "new-secret")
	require.NoError(t, err)

	assert.False(t, repo.principals[p.ID].TempPassword, "temporary flag must clear")
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, audit.ActionTempResolved, recorder.entries[0].Action,
		"resolving a temporary credential carries its own action code")
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, relaxed(), nil)

	p, identity := seedPrincipal(repo, "old-secret", false)
	err := svc.ChangePassword(context.Background(), identity, "guess", "new-secret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.principals[p.ID].PasswordHash), []byte("old-secret")))
}

func TestChangePasswordEnforcesPolicy(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, fixedPolicy{policy: settings.PasswordPolicy{MinLength: 10, RequireDigit: true}}, nil)

	p, identity := seedPrincipal(repo, "old-secret", true)
	err := svc.ChangePassword(context.Background(), identity, "old-secret", "short")
	require.ErrorIs(t, err, ErrPolicyViolation)
	assert.True(t, repo.principals[p.ID].TempPassword, "flag must survive a failed change")
}

func TestChangePasswordTenantGuard(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, relaxed(), nil)

	p, _ := seedPrincipal(repo, "old-secret", false)
	foreign := shared.Identity{PrincipalID: p.ID, TenantID: uuid.New()}
	err := svc.ChangePassword(context.Background(), foreign, "old-secret", "new-secret")
	require.ErrorIs(t, err, shared.ErrTenantMismatch)
}

func TestChangePasswordBlockedPrincipal(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, relaxed(), nil)

	p, identity := seedPrincipal(repo, "old-secret", false)
	p.Status = principal.StatusBlocked

	err := svc.ChangePassword(context.Background(), identity, "old-secret", "new-secret")
	var denied *shared.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
}
