package validation

import (
	"regexp"
	"strings"

	"github.com/MichaelAJay/go-client-auth/errors"
)

// EmailValidator provides email format validation and normalization.
// Validation is purely syntactic: it never checks whether an account
// with the address exists.
type EmailValidator struct {
	// MaxLength is the maximum allowed email length.
	MaxLength int
}

// NewEmailValidator creates a new EmailValidator with default settings.
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{
		MaxLength: 255,
	}
}

// Simple local@domain.tld pattern. Deliberately permissive: the address is
// only a login identifier for a local account collection, never a delivery
// target.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail validates an email address according to the configured rules.
func (v *EmailValidator) ValidateEmail(email string) error {
	if email == "" {
		return errors.NewValidationError("email", "email is required")
	}

	normalized := v.NormalizeEmail(email)

	if len(normalized) > v.MaxLength {
		return errors.NewValidationError("email", "email exceeds maximum length")
	}

	if !emailRegex.MatchString(normalized) {
		return errors.NewInvalidEmailFormatError(email)
	}

	return nil
}

// NormalizeEmail normalizes an email address by trimming whitespace and
// lowercasing. All email comparisons in the module go through this, which is
// what makes email uniqueness case-insensitive.
func (v *EmailValidator) NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmailFormat reports whether the email has a plausible
// local@domain.tld shape. Convenience wrapper for callers that only need a
// boolean answer.
func ValidateEmailFormat(email string) bool {
	return emailRegex.MatchString(strings.ToLower(strings.TrimSpace(email)))
}

// NormalizeEmail is the package-level normalization helper.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
