// Package settings stores per-tenant configuration records, one per
// configuration category. Access is gated by role alone.
package settings

import (
	"time"

	"github.com/google/uuid"

	"github.com/sobrinkedos/aabb-sub003/internal/authz"
)

// Record is one tenant's configuration for one category.
type Record struct {
	TenantID  uuid.UUID
	Category  authz.Category
	Data      map[string]any
	UpdatedAt time.Time
}

// PasswordPolicy is read from the security category and applied by the
// credential service. Every field is tenant-configurable.
type PasswordPolicy struct {
	MinLength        int  `json:"min_length"`
	RequireUppercase bool `json:"require_uppercase"`
	RequireLowercase bool `json:"require_lowercase"`
	RequireDigit     bool `json:"require_digit"`
	RequireSymbol    bool `json:"require_symbol"`
}

// DefaultPasswordPolicy applies when a tenant has no security record or
// an unreadable one.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
	}
}

// Defaults returns the documented default configuration for every
// category. The bootstrapper materialises these for a new tenant.
func Defaults() map[authz.Category]map[string]any {
	policy := DefaultPasswordPolicy()
	return map[authz.Category]map[string]any{
		authz.CategoryGeneral: {
			"club_name": "",
			"locale":    "pt-BR",
			"currency":  "BRL",
		},
		authz.CategorySecurity: {
			"password_policy": map[string]any{
				"min_length":        policy.MinLength,
				"require_uppercase": policy.RequireUppercase,
				"require_lowercase": policy.RequireLowercase,
				"require_digit":     policy.RequireDigit,
				"require_symbol":    policy.RequireSymbol,
			},
			"session_timeout_minutes": 480,
		},
		authz.CategorySystem: {
			"maintenance_mode": false,
			"backup_enabled":   true,
		},
		authz.CategoryNotifications: {
			"email_enabled":    true,
			"low_stock_alerts": true,
		},
		authz.CategoryIntegration: {
			"api_enabled": false,
			"webhook_url": "",
		},
	}
}
