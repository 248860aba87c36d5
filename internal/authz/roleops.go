package authz

import "github.com/sobrinkedos/aabb-sub003/internal/shared"

// RoleOp is an operation one principal performs on another, judged by
// their roles alone.
type RoleOp string

const (
	RoleOpView   RoleOp = "view"
	RoleOpCreate RoleOp = "create"
	RoleOpEdit   RoleOp = "edit"
	RoleOpDelete RoleOp = "delete"
)

// RoleOpDecision is the typed outcome of a role-operation check. Denials
// carry a machine-readable reason, never free text.
type RoleOpDecision struct {
	Allowed bool
	Reason  shared.RoleOpReason
}

func deny(reason shared.RoleOpReason) RoleOpDecision {
	return RoleOpDecision{Reason: reason}
}

// CanPerformRoleOp decides whether an actor of actorRole may perform op
// against a principal of targetRole.
//
//   - view: actor must rank at least as high as the target.
//   - create: strict descent only; owners provision peer owners solely
//     through tenant bootstrap, never through this path.
//   - edit: actor must outrank the target, except that one owner may
//     edit another owner's non-structural fields.
//   - delete: actor must outrank the target, and an owner target is
//     always protected so every tenant keeps at least one owner.
func CanPerformRoleOp(actorRole, targetRole Role, op RoleOp) RoleOpDecision {
	switch op {
	case RoleOpView:
		if actorRole.Rank() >= targetRole.Rank() {
			return RoleOpDecision{Allowed: true}
		}
		return deny(shared.ReasonInsufficientRank)
	case RoleOpCreate:
		if CanManage(actorRole, targetRole) {
			return RoleOpDecision{Allowed: true}
		}
		return deny(shared.ReasonInsufficientRank)
	case RoleOpEdit:
		if Outranks(actorRole, targetRole) {
			return RoleOpDecision{Allowed: true}
		}
		if actorRole == RoleOwner && targetRole == RoleOwner {
			return RoleOpDecision{Allowed: true}
		}
		return deny(shared.ReasonInsufficientRank)
	case RoleOpDelete:
		if targetRole == RoleOwner {
			return deny(shared.ReasonProtectedTarget)
		}
		if Outranks(actorRole, targetRole) {
			return RoleOpDecision{Allowed: true}
		}
		return deny(shared.ReasonInsufficientRank)
	default:
		return deny(shared.ReasonInsufficientRank)
	}
}
