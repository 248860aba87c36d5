package settings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// RepositoryPort defines data access methods for settings.
type RepositoryPort interface {
	Get(ctx context.Context, tenantID uuid.UUID, category authz.Category) (Record, error)
	Upsert(ctx context.Context, tenantID uuid.UUID, category authz.Category, data map[string]any) error
}

// Gate answers the role-based category access question. Implemented by
// the authz service so every read and write runs the standard guards.
type Gate interface {
	AuthorizeCategory(ctx context.Context, identity shared.Identity, category authz.Category) (authz.Decision, error)
}

// Service mediates access to configuration records.
type Service struct {
	repo     RepositoryPort
	gate     Gate
	recorder authz.Recorder
}

// NewService constructs the settings service.
func NewService(repo RepositoryPort, gate Gate, recorder authz.Recorder) *Service {
	return &Service{repo: repo, gate: gate, recorder: recorder}
}

// Get returns the tenant's record for the category, falling back to the
// documented defaults when nothing is stored yet.
func (s *Service) Get(ctx context.Context, identity shared.Identity, category authz.Category) (Record, error) {
	if err := s.authorize(ctx, identity, category); err != nil {
		return Record{}, err
	}
	record, err := s.repo.Get(ctx, identity.TenantID, category)
	if errors.Is(err, shared.ErrNotFound) {
		return Record{
			TenantID: identity.TenantID,
			Category: category,
			Data:     Defaults()[category],
		}, nil
	}
	return record, err
}

// Update replaces the tenant's record for the category and leaves a
// settings-change audit entry behind.
func (s *Service) Update(ctx context.Context, identity shared.Identity, category authz.Category, data map[string]any) error {
	if err := s.authorize(ctx, identity, category); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, identity.TenantID, category, data); err != nil {
		return err
	}
	if s.recorder != nil {
		meta := shared.RequestMetaFromContext(ctx)
		actor := identity.PrincipalID
		s.recorder.Enqueue(audit.Entry{
			TenantID:  identity.TenantID,
			ActorID:   &actor,
			Action:    audit.ActionSettingsUpdated,
			Resource:  "settings:" + string(category),
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
		})
	}
	return nil
}

// PasswordPolicy reads the tenant's password policy from the security
// category. Internal consumer path: no gate, the credential service
// calls this on behalf of the principal changing its own password.
func (s *Service) PasswordPolicy(ctx context.Context, tenantID uuid.UUID) PasswordPolicy {
	record, err := s.repo.Get(ctx, tenantID, authz.CategorySecurity)
	if err != nil {
		return DefaultPasswordPolicy()
	}
	raw, ok := record.Data["password_policy"]
	if !ok {
		return DefaultPasswordPolicy()
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return DefaultPasswordPolicy()
	}
	policy := DefaultPasswordPolicy()
	if err := json.Unmarshal(encoded, &policy); err != nil {
		return DefaultPasswordPolicy()
	}
	if policy.MinLength <= 0 {
		policy.MinLength = DefaultPasswordPolicy().MinLength
	}
	return policy
}

func (s *Service) authorize(ctx context.Context, identity shared.Identity, category authz.Category) error {
	decision, err := s.gate.AuthorizeCategory(ctx, identity, category)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &shared.PermissionDeniedError{Category: string(category)}
	}
	return nil
}
