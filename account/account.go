package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/MichaelAJay/go-client-auth/errors"
)

// Role determines the post-login destination for an account.
type Role string

const (
	// RoleAdmin routes to the admin dashboard after login.
	RoleAdmin Role = "admin"

	// RoleUser routes to the regular user home after login.
	RoleUser Role = "user"
)

// IsValid returns true if the Role is a known value.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// Account represents a registered account in the local directory.
//
// The stored credential is an Argon2id hash produced by go-encrypter; the
// plaintext password is never persisted.
type Account struct {
	// ID is the unique identifier for the account, assigned at creation.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is the normalized (lowercased) login identifier.
	// Uniqueness across the directory is case-insensitive.
	Email string `json:"email"`

	// PasswordHash is the hashed credential.
	PasswordHash []byte `json:"password_hash"`

	// Role is the account role, admin or user.
	Role Role `json:"role"`

	// CreatedAt is the creation timestamp, immutable.
	CreatedAt time.Time `json:"created_at"`
}

// NewAccount creates an Account with a generated ID and creation timestamp.
// The email must already be normalized and the password already hashed.
func NewAccount(name, email string, passwordHash []byte, role Role) *Account {
	return &Account{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
}

// Clone creates a deep copy of the account.
func (a *Account) Clone() *Account {
	clone := *a

	if a.PasswordHash != nil {
		clone.PasswordHash = make([]byte, len(a.PasswordHash))
		copy(clone.PasswordHash, a.PasswordHash)
	}

	return &clone
}

// Validate performs basic validation on the account entity.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.ErrInvalidAccountID
	}

	if a.Email == "" {
		return errors.ErrInvalidEmail
	}

	if len(a.PasswordHash) == 0 {
		return errors.NewValidationError("password_hash", "password hash is required")
	}

	if !a.Role.IsValid() {
		return errors.ErrInvalidRole
	}

	return nil
}
