package validation

import (
	"fmt"

	"github.com/MichaelAJay/go-client-auth/errors"
)

// PasswordValidator checks password strength requirements.
// The only enforced rule is a minimum length; anything stricter belongs to
// the embedding application.
type PasswordValidator struct {
	// MinLength is the minimum allowed password length.
	MinLength int
}

// DefaultMinPasswordLength is the minimum password length enforced when no
// configuration overrides it.
const DefaultMinPasswordLength = 6

// NewPasswordValidator creates a new PasswordValidator with default settings.
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength: DefaultMinPasswordLength,
	}
}

// PasswordStrengthResult describes the outcome of a strength check.
// Reason is set only when Valid is false.
type PasswordStrengthResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CheckStrength evaluates a password and reports whether it meets the
// configured requirements.
func (v *PasswordValidator) CheckStrength(password string) PasswordStrengthResult {
	if len(password) < v.MinLength {
		return PasswordStrengthResult{
			Valid:  false,
			Reason: fmt.Sprintf("password must be at least %d characters long", v.MinLength),
		}
	}
	return PasswordStrengthResult{Valid: true}
}

// ValidatePassword evaluates a password and returns a structured error when
// it does not meet the requirements.
func (v *PasswordValidator) ValidatePassword(password string) error {
	if result := v.CheckStrength(password); !result.Valid {
		return errors.NewWeakPasswordError(result.Reason)
	}
	return nil
}

// CheckPasswordStrength checks a password against the default requirements.
func CheckPasswordStrength(password string) PasswordStrengthResult {
	return NewPasswordValidator().CheckStrength(password)
}
