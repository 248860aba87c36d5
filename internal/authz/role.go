// Package authz implements the authorization core: the role hierarchy,
// the per-module permission matrix, the configuration category gate and
// the decision evaluator that ties them together.
package authz

import "fmt"

// Role is one of the four ordered access levels.
// Owner > Admin > Manager > Staff.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

var roleRanks = map[Role]int{
	RoleOwner:   4,
	RoleAdmin:   3,
	RoleManager: 2,
	RoleStaff:   1,
}

// ParseRole validates a role value at the boundary. Unknown values never
// reach the comparison tables.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("authz: unknown role %q", value)
	}
	return role, nil
}

// Rank returns the fixed rank of a role; zero for unknown values.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether the role belongs to the fixed enumeration.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Outranks reports whether a sits strictly above b in the hierarchy.
func Outranks(a, b Role) bool {
	return a.Rank() > b.Rank()
}

// CanManage reports whether a may create or administer principals of
// role b: strict descent only.
func CanManage(a, b Role) bool {
	return a.Rank() > b.Rank()
}

// PrivilegeSet holds the eight coarse administrative capabilities. It is
// derived solely from the role, never stored per principal.
type PrivilegeSet struct {
	CompanyConfig       bool `json:"company_config"`
	UserManagement      bool `json:"user_management"`
	SecurityConfig      bool `json:"security_config"`
	ExternalIntegration bool `json:"external_integration"`
	BackupRestore       bool `json:"backup_restore"`
	AdvancedReports     bool `json:"advanced_reports"`
	FullAudit           bool `json:"full_audit"`
	SystemConfig        bool `json:"system_config"`
}

var rolePrivileges = map[Role]PrivilegeSet{
	RoleOwner: {
		CompanyConfig:       true,
		UserManagement:      true,
		SecurityConfig:      true,
		ExternalIntegration: true,
		BackupRestore:       true,
		AdvancedReports:     true,
		FullAudit:           true,
		SystemConfig:        true,
	},
	RoleAdmin: {
		CompanyConfig:   true,
		UserManagement:  true,
		BackupRestore:   true,
		AdvancedReports: true,
	},
	RoleManager: {
		UserManagement:  true,
		AdvancedReports: true,
	},
	RoleStaff: {},
}

// PrivilegesOf returns the fixed privilege set for a role. Pure and
// total over the enumeration; unknown roles get the empty set.
func PrivilegesOf(role Role) PrivilegeSet {
	return rolePrivileges[role]
}
