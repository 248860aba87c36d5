package authz

import "fmt"

// Module is one of the ten functional areas subject to fine-grained
// permissions.
type Module string

const (
	ModuleDashboard      Module = "dashboard"
	ModuleBarMonitor     Module = "bar_monitor"
	ModuleBarService     Module = "bar_service"
	ModuleKitchenMonitor Module = "kitchen_monitor"
	ModuleCash           Module = "cash"
	ModuleCustomers      Module = "customers"
	ModuleStaff          Module = "staff"
	ModulePartners       Module = "partners"
	ModuleSettings       Module = "settings"
	ModuleReports        Module = "reports"
)

// Modules lists every module in a stable order.
func Modules() []Module {
	return []Module{
		ModuleDashboard,
		ModuleBarMonitor,
		ModuleBarService,
		ModuleKitchenMonitor,
		ModuleCash,
		ModuleCustomers,
		ModuleStaff,
		ModulePartners,
		ModuleSettings,
		ModuleReports,
	}
}

// ParseModule validates a module name at the boundary.
func ParseModule(value string) (Module, error) {
	m := Module(value)
	for _, known := range Modules() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("authz: unknown module %q", value)
}

// Action is one of the five per-module permission flags.
type Action string

const (
	ActionView       Action = "view"
	ActionCreate     Action = "create"
	ActionEdit       Action = "edit"
	ActionDelete     Action = "delete"
	ActionAdminister Action = "administer"
)

// Actions lists every action in a stable order.
func Actions() []Action {
	return []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAdminister}
}

// ParseAction validates an action name at the boundary.
func ParseAction(value string) (Action, error) {
	a := Action(value)
	for _, known := range Actions() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("authz: unknown action %q", value)
}

// ModulePermission is the five-flag grant of one principal on one
// module. A missing record reads as the zero value: everything denied.
type ModulePermission struct {
	View       bool `json:"view"`
	Create     bool `json:"create"`
	Edit       bool `json:"edit"`
	Delete     bool `json:"delete"`
	Administer bool `json:"administer"`
}

// FullPermission grants all five flags.
func FullPermission() ModulePermission {
	return ModulePermission{View: true, Create: true, Edit: true, Delete: true, Administer: true}
}

// Normalize enforces the write-side implication invariant in one place:
// administer implies all four other flags, and any of create, edit,
// delete or administer implies view. Every mutation of a permission
// record must pass through here before it is persisted.
func (p ModulePermission) Normalize() ModulePermission {
	if p.Administer {
		p.View = true
		p.Create = true
		p.Edit = true
		p.Delete = true
	}
	if p.Create || p.Edit || p.Delete {
		p.View = true
	}
	return p
}

// Allows returns the flag for the given action. The evaluator reads the
// stored flags as-is; implications are a write-time concern.
func (p ModulePermission) Allows(action Action) bool {
	switch action {
	case ActionView:
		return p.View
	case ActionCreate:
		return p.Create
	case ActionEdit:
		return p.Edit
	case ActionDelete:
		return p.Delete
	case ActionAdminister:
		return p.Administer
	default:
		return false
	}
}
