package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

// PrincipalRecord is the evaluator's view of a principal: just what the
// guards and the bypass rule need.
type PrincipalRecord struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Role         Role
	IsFullAdmin  bool // legacy coarse admin flag, still honoured
	Active       bool
	TempPassword bool
}

// Store reads principals and their module permissions.
type Store interface {
	PrincipalRecord(ctx context.Context, principalID uuid.UUID) (PrincipalRecord, error)
	ModulePermission(ctx context.Context, principalID uuid.UUID, module Module) (ModulePermission, bool, error)
}

// Recorder receives audit events without ever failing the caller.
type Recorder interface {
	Enqueue(entry audit.Entry)
}

// PrivilegeSource resolves privilege sets, normally through the TTL
// cache.
type PrivilegeSource interface {
	Get(principalID uuid.UUID, currentRole Role) PrivilegeSet
	Invalidate(principalID uuid.UUID)
}

// DecisionObserver feeds allow/deny counts to the metrics registry.
type DecisionObserver interface {
	ObserveDecision(allowed bool)
}

// Decision is the outcome handed to callers gating an action.
type Decision struct {
	Allowed bool `json:"allowed"`
}

// Service is the authorization decision engine. Every check runs the
// same gauntlet: tenant guard first, then the credential lifecycle
// guard, then the actual permission resolution. Any persistence failure
// degrades to deny, never to allow.
type Service struct {
	store      Store
	recorder   Recorder
	privileges PrivilegeSource
	observer   DecisionObserver
}

// NewService constructs the evaluator. recorder may be nil in tests.
func NewService(store Store, recorder Recorder, privileges PrivilegeSource) *Service {
	return &Service{store: store, recorder: recorder, privileges: privileges}
}

// WithObserver attaches a metrics sink for decision outcomes.
func (s *Service) WithObserver(observer DecisionObserver) *Service {
	s.observer = observer
	return s
}

// Authorize decides whether the caller may perform action on module.
func (s *Service) Authorize(ctx context.Context, identity shared.Identity, module Module, action Action) (Decision, error) {
	principal, err := s.guard(ctx, identity, string(module), string(action))
	if err != nil {
		s.observe(false)
		return Decision{}, err
	}

	if principal.IsFullAdmin || principal.Role == RoleOwner {
		s.record(ctx, identity, audit.ActionAuthzAllowed, string(module), map[string]any{
			"action": string(action),
			"bypass": true,
		})
		s.observe(true)
		return Decision{Allowed: true}, nil
	}

	permission, found, err := s.store.ModulePermission(ctx, identity.PrincipalID, module)
	if err != nil {
		// Fail closed: an undeterminable permission is a denied one.
		s.record(ctx, identity, audit.ActionAuthzDenied, string(module), map[string]any{
			"action": string(action),
			"reason": "lookup-failed",
		})
		s.observe(false)
		return Decision{}, fmt.Errorf("authz: permission lookup: %w", err)
	}
	if !found {
		permission = ModulePermission{}
	}

	allowed := permission.Allows(action)
	code := audit.ActionAuthzDenied
	if allowed {
		code = audit.ActionAuthzAllowed
	}
	s.record(ctx, identity, code, string(module), map[string]any{
		"action": string(action),
	})
	s.observe(allowed)
	if !allowed {
		return Decision{}, nil
	}
	return Decision{Allowed: true}, nil
}

// AuthorizeCategory decides access to a configuration category. The
// category gate is coarser than modules: role alone decides.
func (s *Service) AuthorizeCategory(ctx context.Context, identity shared.Identity, category Category) (Decision, error) {
	principal, err := s.guard(ctx, identity, string(category), "access")
	if err != nil {
		s.observe(false)
		return Decision{}, err
	}

	allowed := CanAccessCategory(principal.Role, category)
	code := audit.ActionAuthzDenied
	if allowed {
		code = audit.ActionAuthzAllowed
	}
	s.record(ctx, identity, code, "settings:"+string(category), map[string]any{
		"category": string(category),
	})
	s.observe(allowed)
	return Decision{Allowed: allowed}, nil
}

// Privileges resolves the caller's privilege set through the cache.
func (s *Service) Privileges(ctx context.Context, identity shared.Identity) (PrivilegeSet, error) {
	principal, err := s.guard(ctx, identity, "privileges", "view")
	if err != nil {
		return PrivilegeSet{}, err
	}
	if s.privileges != nil {
		return s.privileges.Get(principal.ID, principal.Role), nil
	}
	return PrivilegesOf(principal.Role), nil
}

// guard runs the tenant isolation check and the credential lifecycle
// check, in that order, before any permission logic. Both produce their
// own distinct audit action codes.
func (s *Service) guard(ctx context.Context, identity shared.Identity, resource, action string) (PrincipalRecord, error) {
	if !identity.Valid() {
		return PrincipalRecord{}, shared.ErrTenantMismatch
	}
	principal, err := s.store.PrincipalRecord(ctx, identity.PrincipalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return PrincipalRecord{}, shared.ErrNotFound
		}
		return PrincipalRecord{}, fmt.Errorf("authz: principal lookup: %w", err)
	}
	if principal.TenantID != identity.TenantID {
		// Cross-tenant reference: always a hard deny with its own code,
		// never conflated with a permission denial.
		s.record(ctx, identity, audit.ActionTenantMismatch, resource, map[string]any{
			"action":         action,
			"claimed_tenant": identity.TenantID.String(),
		})
		return PrincipalRecord{}, shared.ErrTenantMismatch
	}
	if !principal.Active {
		s.record(ctx, identity, audit.ActionAuthzDenied, resource, map[string]any{
			"action": action,
			"reason": "principal-not-active",
		})
		return PrincipalRecord{}, &shared.PermissionDeniedError{Module: resource, Action: action}
	}
	if principal.TempPassword {
		// Distinct code so the caller is redirected to the password
		// change instead of shown a generic denial.
		s.record(ctx, identity, audit.ActionTempPasswordBlock, resource, map[string]any{
			"action": action,
		})
		return PrincipalRecord{}, shared.ErrPasswordResetRequired
	}
	return principal, nil
}

func (s *Service) observe(allowed bool) {
	if s.observer != nil {
		s.observer.ObserveDecision(allowed)
	}
}

func (s *Service) record(ctx context.Context, identity shared.Identity, action, resource string, detail map[string]any) {
	if s.recorder == nil {
		return
	}
	meta := shared.RequestMetaFromContext(ctx)
	actor := identity.PrincipalID
	s.recorder.Enqueue(audit.Entry{
		TenantID:  identity.TenantID,
		ActorID:   &actor,
		Action:    action,
		Resource:  resource,
		Detail:    detail,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
}
