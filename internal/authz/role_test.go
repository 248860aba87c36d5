package authz

import "testing"

func TestRoleRanksAreStrictlyOrdered(t *testing.T) {
	order := []Role{RoleStaff, RoleManager, RoleAdmin, RoleOwner}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("expected %s to outrank %s", order[i], order[i-1])
		}
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	for _, value := range []string{"owner", "admin", "manager", "staff"} {
		if _, err := ParseRole(value); err != nil {
			t.Fatalf("parse %q: %v", value, err)
		}
	}
	for _, value := range []string{"", "root", "OWNER", "superuser"} {
		if _, err := ParseRole(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestUnknownRoleHasZeroRank(t *testing.T) {
	if Role("root").Rank() != 0 {
		t.Fatalf("unknown role must rank below every known role")
	}
	if Role("root").Valid() {
		t.Fatalf("unknown role must not validate")
	}
}

func TestCanManageIsStrictDescent(t *testing.T) {
	cases := []struct {
		actor, target Role
		want          bool
	}{
		{RoleOwner, RoleAdmin, true},
		{RoleOwner, RoleStaff, true},
		{RoleOwner, RoleOwner, false},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleOwner, false},
		{RoleManager, RoleStaff, true},
		{RoleManager, RoleManager, false},
		{RoleStaff, RoleStaff, false},
	}
	for _, tc := range cases {
		if got := CanManage(tc.actor, tc.target); got != tc.want {
			t.Fatalf("CanManage(%s, %s) = %v, want %v", tc.actor, tc.target, got, tc.want)
		}
	}
}

func TestPrivilegesFollowTheRoleTable(t *testing.T) {
	owner := PrivilegesOf(RoleOwner)
	if !owner.CompanyConfig || !owner.UserManagement || !owner.SecurityConfig ||
		!owner.ExternalIntegration || !owner.BackupRestore || !owner.AdvancedReports ||
		!owner.FullAudit || !owner.SystemConfig {
		t.Fatalf("owner must hold every privilege: %+v", owner)
	}

	admin := PrivilegesOf(RoleAdmin)
	if !admin.CompanyConfig || !admin.UserManagement || !admin.BackupRestore || !admin.AdvancedReports {
		t.Fatalf("admin missing granted privileges: %+v", admin)
	}
	if admin.SecurityConfig || admin.ExternalIntegration || admin.FullAudit || admin.SystemConfig {
		t.Fatalf("admin holds owner-only privileges: %+v", admin)
	}

	manager := PrivilegesOf(RoleManager)
	if !manager.UserManagement || !manager.AdvancedReports {
		t.Fatalf("manager missing granted privileges: %+v", manager)
	}
	if manager.CompanyConfig || manager.BackupRestore {
		t.Fatalf("manager holds admin privileges: %+v", manager)
	}

	if PrivilegesOf(RoleStaff) != (PrivilegeSet{}) {
		t.Fatalf("staff must hold no privileges")
	}
	if PrivilegesOf(Role("root")) != (PrivilegeSet{}) {
		t.Fatalf("unknown role must get the empty set")
	}
}

func TestCategoryAccessTable(t *testing.T) {
	cases := []struct {
		role     Role
		category Category
		want     bool
	}{
		{RoleOwner, CategoryGeneral, true},
		{RoleOwner, CategorySecurity, true},
		{RoleOwner, CategorySystem, true},
		{RoleOwner, CategoryNotifications, true},
		{RoleOwner, CategoryIntegration, true},
		{RoleAdmin, CategoryGeneral, true},
		{RoleAdmin, CategoryNotifications, true},
		{RoleAdmin, CategorySecurity, false},
		{RoleAdmin, CategorySystem, false},
		{RoleAdmin, CategoryIntegration, false},
		{RoleManager, CategoryGeneral, false},
		{RoleStaff, CategoryNotifications, false},
	}
	for _, tc := range cases {
		if got := CanAccessCategory(tc.role, tc.category); got != tc.want {
			t.Fatalf("CanAccessCategory(%s, %s) = %v, want %v", tc.role, tc.category, got, tc.want)
		}
	}
}
