package account

// CreateAccountRequest contains the data needed to register a new account.
type CreateAccountRequest struct {
	// Name is the display name.
	Name string `json:"name"`

	// Email is the login identifier; validated and normalized before use.
	Email string `json:"email"`

	// Password is the plaintext credential; hashed before persistence.
	Password string `json:"password"`

	// Role is the account role, admin or user.
	Role Role `json:"role"`
}

// UpdateAccountRequest contains partial account updates.
// Nil fields are left unchanged.
type UpdateAccountRequest struct {
	// Name updates the display name.
	Name *string `json:"name,omitempty"`

	// Email updates the login identifier; validated, normalized, and
	// re-checked for uniqueness.
	Email *string `json:"email,omitempty"`

	// Password updates the credential; re-hashed before persistence.
	Password *string `json:"password,omitempty"`

	// Role updates the account role.
	Role *Role `json:"role,omitempty"`
}

// IsEmpty returns true when the request carries no updates.
func (r *UpdateAccountRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Password == nil && r.Role == nil
}
