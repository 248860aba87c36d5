package authz

import (
	"testing"

	"github.com/sobrinkedos/aabb-sub003/internal/shared"
)

func TestRoleOpView(t *testing.T) {
	if !CanPerformRoleOp(RoleManager, RoleManager, RoleOpView).Allowed {
		t.Fatalf("peers may view each other")
	}
	if !CanPerformRoleOp(RoleAdmin, RoleStaff, RoleOpView).Allowed {
		t.Fatalf("higher rank may view lower")
	}
	decision := CanPerformRoleOp(RoleStaff, RoleManager, RoleOpView)
	if decision.Allowed || decision.Reason != shared.ReasonInsufficientRank {
		t.Fatalf("lower rank must not view higher: %+v", decision)
	}
}

func TestRoleOpCreateRequiresStrictDescent(t *testing.T) {
	if !CanPerformRoleOp(RoleOwner, RoleAdmin, RoleOpCreate).Allowed {
		t.Fatalf("owner may create admin")
	}
	if CanPerformRoleOp(RoleOwner, RoleOwner, RoleOpCreate).Allowed {
		t.Fatalf("owners are only provisioned through bootstrap")
	}
	if CanPerformRoleOp(RoleManager, RoleAdmin, RoleOpCreate).Allowed {
		t.Fatalf("manager must not create above itself")
	}
	if CanPerformRoleOp(RoleManager, RoleManager, RoleOpCreate).Allowed {
		t.Fatalf("create is strict, peers excluded")
	}
	if !CanPerformRoleOp(RoleManager, RoleStaff, RoleOpCreate).Allowed {
		t.Fatalf("manager may create staff")
	}
}

func TestRoleOpEditAllowsOwnerPeers(t *testing.T) {
	if !CanPerformRoleOp(RoleOwner, RoleOwner, RoleOpEdit).Allowed {
		t.Fatalf("owner may edit a fellow owner")
	}
	if CanPerformRoleOp(RoleAdmin, RoleAdmin, RoleOpEdit).Allowed {
		t.Fatalf("the peer exception is owner-only")
	}
	if !CanPerformRoleOp(RoleAdmin, RoleManager, RoleOpEdit).Allowed {
		t.Fatalf("admin may edit manager")
	}
	if CanPerformRoleOp(RoleManager, RoleAdmin, RoleOpEdit).Allowed {
		t.Fatalf("manager must not edit admin")
	}
}

func TestRoleOpDeleteProtectsOwners(t *testing.T) {
	decision := CanPerformRoleOp(RoleOwner, RoleOwner, RoleOpDelete)
	if decision.Allowed {
		t.Fatalf("an owner target is never deletable")
	}
	if decision.Reason != shared.ReasonProtectedTarget {
		t.Fatalf("owner deletion must carry the protected-target reason, got %q", decision.Reason)
	}
	if !CanPerformRoleOp(RoleOwner, RoleAdmin, RoleOpDelete).Allowed {
		t.Fatalf("owner may delete admin")
	}
	decision = CanPerformRoleOp(RoleManager, RoleManager, RoleOpDelete)
	if decision.Allowed || decision.Reason != shared.ReasonInsufficientRank {
		t.Fatalf("peer delete denied with insufficient-rank: %+v", decision)
	}
}

func TestRoleOpDecisionIsTotal(t *testing.T) {
	roles := []Role{RoleOwner, RoleAdmin, RoleManager, RoleStaff}
	ops := []RoleOp{RoleOpView, RoleOpCreate, RoleOpEdit, RoleOpDelete}
	for _, actor := range roles {
		for _, target := range roles {
			for _, op := range ops {
				decision := CanPerformRoleOp(actor, target, op)
				if !decision.Allowed && decision.Reason == "" {
					t.Fatalf("denial without reason: %s %s on %s", actor, op, target)
				}
				if decision.Allowed && decision.Reason != "" {
					t.Fatalf("allow must not carry a reason: %s %s on %s", actor, op, target)
				}
			}
		}
	}
}

func TestRoleOpUnknownOperationDenies(t *testing.T) {
	if CanPerformRoleOp(RoleOwner, RoleStaff, RoleOp("promote")).Allowed {
		t.Fatalf("unknown operations must deny")
	}
}
