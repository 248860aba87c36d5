package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/principal"
	"github.com/sobrinkedos/aabb-sub003/internal/settings"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// RepositoryPort defines data access for tenants and the bootstrap
// transaction.
type RepositoryPort interface {
	Insert(ctx context.Context, t *Tenant) error
	Get(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Bootstrap(ctx context.Context, founder *principal.Principal, defaults map[authz.Category]map[string]any, entry audit.Entry) error
}

// Service handles tenant registration and first-principal bootstrap.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Register creates a new, empty tenant.
func (s *Service) Register(ctx context.Context, name, timezone string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tenant: name required")
	}
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("tenant: invalid timezone %q", timezone)
	}
	t := &Tenant{ID: uuid.New(), Name: name, Timezone: timezone}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// BootstrapFirstPrincipal provisions the tenant's founder: owner role,
// every module fully granted, every configuration category seeded with
// its defaults, one initialization audit entry. All-or-nothing; a
// concurrent second call fails with ErrAlreadyBootstrapped.
func (s *Service) BootstrapFirstPrincipal(ctx context.Context, tenantID uuid.UUID, draft FounderDraft) (*principal.Principal, error) {
	if _, err := s.repo.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Name) == "" || strings.TrimSpace(draft.Email) == "" {
		return nil, fmt.Errorf("tenant: founder name and email required")
	}
	if draft.PasswordHash == "" {
		return nil, fmt.Errorf("tenant: founder password hash required")
	}

	founder := &principal.Principal{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         strings.TrimSpace(draft.Name),
		Email:        strings.TrimSpace(draft.Email),
		Phone:        strings.TrimSpace(draft.Phone),
		PasswordHash: draft.PasswordHash,
		Role:         authz.RoleOwner,
		IsFounder:    true,
		Status:       principal.StatusActive,
	}

	meta := shared.RequestMetaFromContext(ctx)
	founderID := founder.ID
	entry := audit.Entry{
		ID:       uuid.New(),
		TenantID: tenantID,
		ActorID:  &founderID,
		Action:   audit.ActionTenantInitialized,
		Resource: "tenant:" + tenantID.String(),
		Detail: map[string]any{
			"founder": founder.Email,
		},
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.repo.Bootstrap(ctx, founder, settings.Defaults(), entry); err != nil {
		return nil, err
	}
	return founder, nil
}
