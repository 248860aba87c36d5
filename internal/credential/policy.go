// Package credential implements the credential lifecycle: password
// changes, the tenant password policy, and the resolution of temporary
// credentials.
package credential

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/sobrinkedos/aabb-sub003/internal/settings"
)

// ErrPolicyViolation wraps every password policy failure.
var ErrPolicyViolation = errors.New("credential: password violates policy")

// ValidatePassword checks a candidate password against the tenant's
// configured policy.
func ValidatePassword(password string, policy settings.PasswordPolicy) error {
	if len(password) < policy.MinLength {
		return fmt.Errorf("%w: shorter than %d characters", ErrPolicyViolation, policy.MinLength)
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	if policy.RequireUppercase && !hasUpper {
		return fmt.Errorf("%w: missing uppercase character", ErrPolicyViolation)
	}
	if policy.RequireLowercase && !hasLower {
		return fmt.Errorf("%w: missing lowercase character", ErrPolicyViolation)
	}
	if policy.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: missing digit", ErrPolicyViolation)
	}
	if policy.RequireSymbol && !hasSymbol {
		return fmt.Errorf("%w: missing symbol", ErrPolicyViolation)
	}
	return nil
}
