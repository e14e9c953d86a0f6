package validation

import (
	"testing"

	"github.com/MichaelAJay/go-client-auth/errors"
)

func TestCheckStrength(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"meets minimum", "abc123", true},
		{"longer password", "a-much-longer-password", true},
		{"one short of minimum", "abc12", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.CheckStrength(tt.password)
			if result.Valid != tt.valid {
				t.Errorf("CheckStrength(%q).Valid = %v, want %v", tt.password, result.Valid, tt.valid)
			}
			if !tt.valid && result.Reason == "" {
				t.Error("expected a reason for invalid password")
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	validator := NewPasswordValidator()

	if err := validator.ValidatePassword("abc123"); err != nil {
		t.Errorf("unexpected error for valid password: %v", err)
	}

	err := validator.ValidatePassword("short")
	if err == nil {
		t.Fatal("expected error for short password")
	}
	if errors.GetErrorCode(err) != errors.CodeWeakPassword {
		t.Errorf("expected weak password code, got %s", errors.GetErrorCode(err))
	}
}

func TestValidatePasswordCustomMinLength(t *testing.T) {
	validator := &PasswordValidator{MinLength: 10}

	if err := validator.ValidatePassword("abc123"); err == nil {
		t.Error("expected error with raised minimum length")
	}
	if err := validator.ValidatePassword("abcdefghij"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
