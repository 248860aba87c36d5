package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/principal"
	"github.com/sobrinkedos/aabb-sub003/internal/settings"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// RepositoryPort covers the principal reads and writes the credential
// flow needs.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (*principal.Principal, error)
	UpdatePassword(ctx context.Context, tenantID, id uuid.UUID, hash string, temporary bool) error
}

// PolicySource reads the tenant's password policy.
type PolicySource interface {
	PasswordPolicy(ctx context.Context, tenantID uuid.UUID) settings.PasswordPolicy
}

// Service handles password changes. This is the only operation allowed
// while a principal holds a temporary credential: completing it is what
// transitions the credential back to normal.
type Service struct {
	repo     RepositoryPort
	policies PolicySource
	recorder authz.Recorder
}

// NewService constructs the credential service.
func NewService(repo RepositoryPort, policies PolicySource, recorder authz.Recorder) *Service {
	return &Service{repo: repo, policies: policies, recorder: recorder}
}

// ChangePassword validates the new password against the tenant policy,
// verifies the current one, stores the new hash and clears the
// temporary flag. Resolving a temporary credential is audited under its
// own action code so it is distinguishable from a routine change.
func (s *Service) ChangePassword(ctx context.Context, identity shared.Identity, currentPassword, newPassword string) error {
	if !identity.Valid() {
		return shared.ErrTenantMismatch
	}
	p, err := s.repo.Get(ctx, identity.PrincipalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("credential: principal lookup: %w", err)
	}
	if p.TenantID != identity.TenantID {
		return shared.ErrTenantMismatch
	}
	if p.Status != principal.StatusActive {
		return &shared.PermissionDeniedError{Module: "credential", Action: "change"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(currentPassword)); err != nil {
		return shared.ErrInvalidCredentials
	}

	policy := s.policies.PasswordPolicy(ctx, p.TenantID)
	if err := ValidatePassword(newPassword, policy); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("credential: hash password: %w", err)
	}

	wasTemporary := p.TempPassword
	if err := s.repo.UpdatePassword(ctx, p.TenantID, p.ID, string(hash), false); err != nil {
		return err
	}

	if s.recorder != nil {
		action := audit.ActionPasswordSet
		if wasTemporary {
			action = audit.ActionTempResolved
		}
		meta := shared.RequestMetaFromContext(ctx)
		actor := p.ID
		s.recorder.Enqueue(audit.Entry{
			TenantID:  p.TenantID,
			ActorID:   &actor,
			Action:    action,
			Resource:  "principal:" + p.ID.String(),
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
		})
	}
	return nil
}
