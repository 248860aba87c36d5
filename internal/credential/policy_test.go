package credential

import (
	"errors"
	"testing"

	"github.com/sobrinkedos/aabb-sub003/internal/settings"
)

func TestValidatePasswordAgainstDefaultPolicy(t *testing.T) {
	policy := settings.DefaultPasswordPolicy()

	if err := ValidatePassword("Sunset42x", policy); err != nil {
		t.Fatalf("expected valid password: %v", err)
	}

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no uppercase", "sunset42x"},
		{"no lowercase", "SUNSET42X"},
		{"no digit", "SunsetRise"},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password, policy)
		if err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		if !errors.Is(err, ErrPolicyViolation) {
			t.Fatalf("%s: expected ErrPolicyViolation, got %v", tc.name, err)
		}
	}
}

func TestValidatePasswordSymbolRequirement(t *testing.T) {
	policy := settings.PasswordPolicy{MinLength: 6, RequireSymbol: true}

	if err := ValidatePassword("abc123", policy); err == nil {
		t.Fatalf("expected rejection without symbol")
	}
	if err := ValidatePassword("abc12!", policy); err != nil {
		t.Fatalf("expected symbol to satisfy policy: %v", err)
	}
}

func TestValidatePasswordRelaxedPolicy(t *testing.T) {
	policy := settings.PasswordPolicy{MinLength: 4}
	if err := ValidatePassword("aaaa", policy); err != nil {
		t.Fatalf("relaxed policy must accept plain password: %v", err)
	}
}
