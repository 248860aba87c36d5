package principal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/authz"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// RepositoryPort defines data access methods for principals.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (*Principal, error)
	GetInTenant(ctx context.Context, tenantID, id uuid.UUID) (*Principal, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Principal, error)
	Insert(ctx context.Context, p *Principal) error
	UpdateRole(ctx context.Context, tenantID, id uuid.UUID, role authz.Role) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status Status) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	UpsertModulePermission(ctx context.Context, tenantID, principalID uuid.UUID, module authz.Module, p authz.ModulePermission) error
}

// Service applies the role-management rules to principal mutations.
// Every mutation is audited and any rule violation surfaces as a typed
// denial, never a silent no-op.
type Service struct {
	repo       RepositoryPort
	recorder   authz.Recorder
	privileges authz.PrivilegeSource
}

// NewService builds a Service instance. recorder and privileges may be
// nil in tests.
func NewService(repo RepositoryPort, recorder authz.Recorder, privileges authz.PrivilegeSource) *Service {
	return &Service{repo: repo, recorder: recorder, privileges: privileges}
}

// Get returns one principal of the actor's tenant, subject to the view
// rank rule.
func (s *Service) Get(ctx context.Context, actorIdentity shared.Identity, id uuid.UUID) (*Principal, error) {
	actor, err := s.actor(ctx, actorIdentity)
	if err != nil {
		return nil, err
	}
	target, err := s.repo.GetInTenant(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if decision := authz.CanPerformRoleOp(actor.Role, target.Role, authz.RoleOpView); !decision.Allowed {
		return nil, &shared.RoleOpError{Reason: decision.Reason}
	}
	return target, nil
}

// List returns the tenant's principals the actor is allowed to see.
func (s *Service) List(ctx context.Context, actorIdentity shared.Identity) ([]Principal, error) {
	actor, err := s.actor(ctx, actorIdentity)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	visible := make([]Principal, 0, len(all))
	for _, p := range all {
		if authz.CanPerformRoleOp(actor.Role, p.Role, authz.RoleOpView).Allowed {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// Create provisions a new principal below the actor in the hierarchy.
// Owner-to-owner provisioning only happens through tenant bootstrap.
func (s *Service) Create(ctx context.Context, actorIdentity shared.Identity, draft Draft) (*Principal, error) {
	actor, err := s.actor(ctx, actorIdentity)
	if err != nil {
		return nil, err
	}
	if err := s.requireUserManagement(actor); err != nil {
		return nil, err
	}
	if !draft.Role.Valid() {
		return nil, fmt.Errorf("principal: invalid role %q", draft.Role)
	}
	if decision := authz.CanPerformRoleOp(actor.Role, draft.Role, authz.RoleOpCreate); !decision.Allowed {
		return nil, &shared.RoleOpError{Reason: decision.Reason}
	}
	created := &Principal{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		Name:         draft.Name,
		Email:        draft.Email,
		Phone:        draft.Phone,
		PasswordHash: draft.PasswordHash,
		Role:         draft.Role,
		Status:       StatusActive,
		TempPassword: draft.TempPassword,
	}
	if err := s.repo.Insert(ctx, created); err != nil {
		return nil, err
	}
	s.record(ctx, actor, audit.ActionPrincipalCreated, created.ID, map[string]any{
		"role": string(created.Role),
	})
	return created, nil
}

// ChangeRole mutates the target's role and synchronously invalidates
// its cached privileges so the next check observes the new role.
func (s *Service) ChangeRole(ctx context.Context, actorIdentity shared.Identity, targetID uuid.UUID, newRole authz.Role) error {
	actor, err := s.actor(ctx, actorIdentity)
	if err != nil {
		return err
	}
	if err := s.requireUserManagement(actor); err != nil {
		return err
	}
	if !newRole.Valid() {
		return fmt.Errorf("principal: invalid role %q", newRole)
	}
	target, err := s.repo.GetInTenant(ctx, actor.TenantID, targetID)
	if err != nil {
		return err
	}
	if decision := authz.CanPerformRoleOp(actor.Role, target.Role, authz.RoleOpEdit); !decision.Allowed {
		return &shared.RoleOpError{Reason: decision.Reason}
	}
	// The actor cannot hand out a role it could not create itself.
	if actor.Role != authz.RoleOwner && !authz.CanManage(actor.Role, newRole) {
		return &shared.RoleOpError{Reason: shared.ReasonInsufficientRank}
	}
	if err := s.repo.UpdateRole(ctx, actor.TenantID, targetID, newRole); err != nil {
		return err
	}
	if s.privileges != nil {
		s.privileges.Invalidate(targetID)
	}
	s.record(ctx, actor, audit.ActionPrincipalRoleChanged, targetID, map[string]any{
		"from": string(target.Role),
		"to":   string(newRole),
	})
	return nil
}

// ChangeStatus mutates the lifecycle status under the edit rule.
func (s *Service) ChangeStatus(ctx context.Context, actorIdentity shared.Identity, targetID uuid.UUID, status Status) error {
	actor, err := s.actor(ctx, actorIdentity)
	if err != nil {
		return err
	}
	if err := s.requireUserManagement(actor); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("principal: invalid status %q", status)
	}
	target, err := s.repo.GetInTenant(ctx, actor.TenantID, targetID)
	if err != nil {
		return err
	}
	if decision := authz.CanPerformRoleOp(actor.Role, target.Role, authz.RoleOpEdit); !decision.Allowed {
		return &shared.RoleOpError{Reason: decision.Reason}
	}
	return s.repo.UpdateStatus(ctx, actor.TenantID, targetID, status)
}

// SetModulePermission writes a normalized permission record for the
// target. This is the single write path for the implication invariant.
func (s *Service) SetModulePermission(ctx context.Context, actorIdentity shared.Identity, targetID uuid.UUID, module authz.Module, permission authz.ModulePermission) error {
	actor, err := s.actor(ctx, actorIdentity)
	if err != nil {
		return err
	}
	if err := s.requireUserManagement(actor); err != nil {
		return err
	}
	target, err := s.repo.GetInTenant(ctx, actor.TenantID, targetID)
	if err != nil {
		return err
	}
	if actor.Role != authz.RoleOwner && !authz.CanManage(actor.Role, target.Role) {
		return &shared.RoleOpError{Reason: shared.ReasonInsufficientRank}
	}
	normalized := permission.Normalize()
	if err := s.repo.UpsertModulePermission(ctx, actor.TenantID, targetID, module, normalized); err != nil {
		return err
	}
	s.record(ctx, actor, audit.ActionPermissionChanged, targetID, map[string]any{
		"module":     string(module),
		"view":       normalized.View,
		"create":     normalized.Create,
		"edit":       normalized.Edit,
		"delete":     normalized.Delete,
		"administer": normalized.Administer,
	})
	return nil
}

// Remove deletes the target and revokes its permission records. Owner
// targets are always protected.
func (s *Service) Remove(ctx context.Context, actorIdentity shared.Identity, targetID uuid.UUID) error {
	actor, err := s.actor(ctx, actorIdentity)
	if err != nil {
		return err
	}
	if err := s.requireUserManagement(actor); err != nil {
		return err
	}
	target, err := s.repo.GetInTenant(ctx, actor.TenantID, targetID)
	if err != nil {
		return err
	}
	if decision := authz.CanPerformRoleOp(actor.Role, target.Role, authz.RoleOpDelete); !decision.Allowed {
		return &shared.RoleOpError{Reason: decision.Reason}
	}
	if err := s.repo.Delete(ctx, actor.TenantID, targetID); err != nil {
		return err
	}
	if s.privileges != nil {
		s.privileges.Invalidate(targetID)
	}
	s.record(ctx, actor, audit.ActionPrincipalRemoved, targetID, map[string]any{
		"role": string(target.Role),
	})
	return nil
}

// actor loads the acting principal and runs the tenant and credential
// guards, in that order, before any rule is evaluated.
func (s *Service) actor(ctx context.Context, identity shared.Identity) (*Principal, error) {
	if !identity.Valid() {
		return nil, shared.ErrTenantMismatch
	}
	actor, err := s.repo.Get(ctx, identity.PrincipalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("principal: actor lookup: %w", err)
	}
	if actor.TenantID != identity.TenantID {
		return nil, shared.ErrTenantMismatch
	}
	if actor.Status != StatusActive {
		return nil, &shared.PermissionDeniedError{Module: "principals", Action: "manage"}
	}
	if actor.TempPassword {
		return nil, shared.ErrPasswordResetRequired
	}
	return actor, nil
}

// requireUserManagement gates every principal mutation on the
// user-management privilege, resolved through the cache. The legacy
// full-admin flag bypasses like everywhere else.
func (s *Service) requireUserManagement(actor *Principal) error {
	if actor.IsFullAdmin || actor.Role == authz.RoleOwner {
		return nil
	}
	var privileges authz.PrivilegeSet
	if s.privileges != nil {
		privileges = s.privileges.Get(actor.ID, actor.Role)
	} else {
		privileges = authz.PrivilegesOf(actor.Role)
	}
	if !privileges.UserManagement {
		return &shared.PermissionDeniedError{Module: "principals", Action: "manage"}
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor *Principal, action string, targetID uuid.UUID, detail map[string]any) {
	if s.recorder == nil {
		return
	}
	meta := shared.RequestMetaFromContext(ctx)
	actorID := actor.ID
	s.recorder.Enqueue(audit.Entry{
		TenantID:   actor.TenantID,
		ActorID:    &actorID,
		Action:     action,
		Resource:   "principal:" + targetID.String(),
		Detail:     detail,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		OccurredAt: time.Now().UTC(),
	})
}
