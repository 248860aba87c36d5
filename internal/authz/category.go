package authz

import "fmt"

// Category is one of the five coarse configuration areas gated by role
// alone, independent of module permissions.
type Category string

const (
	CategoryGeneral       Category = "general"
	CategorySecurity      Category = "security"
	CategorySystem        Category = "system"
	CategoryNotifications Category = "notifications"
	CategoryIntegration   Category = "integration"
)

// Categories lists every configuration category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryGeneral,
		CategorySecurity,
		CategorySystem,
		CategoryNotifications,
		CategoryIntegration,
	}
}

// ParseCategory validates a category name at the boundary.
func ParseCategory(value string) (Category, error) {
	c := Category(value)
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("authz: unknown category %q", value)
}

// categoryRoles is the fixed minimum-role table. Security, system and
// integration settings are owner-only.
var categoryRoles = map[Category]map[Role]bool{
	CategoryGeneral:       {RoleOwner: true, RoleAdmin: true},
	CategorySecurity:      {RoleOwner: true},
	CategorySystem:        {RoleOwner: true},
	CategoryNotifications: {RoleOwner: true, RoleAdmin: true},
	CategoryIntegration:   {RoleOwner: true},
}

// CanAccessCategory reports whether the role may touch the category.
// Pure lookup, no dynamic state.
func CanAccessCategory(role Role, category Category) bool {
	return categoryRoles[category][role]
}
