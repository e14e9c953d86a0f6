// Package store defines the persistent key-value contract that all state in
// the module is written through, plus a provider factory for the concrete
// backends (memory, sqlite, postgres).
package store

import "context"

// Store is a durable key-value store for serialized JSON blobs.
// Implementations must be safe for concurrent use; writes for a single key
// are serialized by the backend.
type Store interface {
	// Get returns the blob stored under key, or errors.ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteMany removes the given keys in one call.
	DeleteMany(ctx context.Context, keys []string) error

	// Clear removes every key.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Persisted key space. These keys and their JSON value shapes are the only
// cross-boundary contract the module exposes; consumers read KeyUserRole to
// pick a post-login destination.
const (
	// KeyAccounts holds the full account collection ([]account.Account).
	KeyAccounts = "app_users"

	// KeyCurrentUser holds a denormalized copy of the signed-in account.
	KeyCurrentUser = "current_user"

	// KeyAuthToken holds the derived session token ("token-<id>").
	KeyAuthToken = "authToken"

	// KeyUserRole holds the signed-in account's role ("admin" | "user").
	KeyUserRole = "userRole"

	// KeyUserName holds the signed-in account's display name.
	KeyUserName = "userName"

	// KeyLoginAttempts holds the failed-attempt records, keyed by
	// normalized email (map[string]lockout.AttemptRecord).
	KeyLoginAttempts = "login_attempts"
)

// SessionKeys lists every key written on login and cleared on logout or
// expiry. Teardown paths converge on deleting exactly this set.
func SessionKeys() []string {
	return []string{KeyCurrentUser, KeyAuthToken, KeyUserRole, KeyUserName}
}
