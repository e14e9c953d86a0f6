// Package session tracks the active login session and enforces the idle
// timeout. The Monitor holds the session state; the Watcher polls it and
// raises warning and expiry callbacks.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/MichaelAJay/go-config"
	"github.com/MichaelAJay/go-logger"
	"github.com/MichaelAJay/go-metrics"
	"github.com/MichaelAJay/go-serializer"

	"github.com/MichaelAJay/go-client-auth/account"
	"github.com/MichaelAJay/go-client-auth/errors"
	"github.com/MichaelAJay/go-client-auth/store"
)

// DefaultIdleTimeout is the inactivity window before a session expires.
const DefaultIdleTimeout = 60 * time.Second

// Session is a snapshot of the active login session.
type Session struct {
	// Account is the signed-in account, without credential material.
	Account *account.Account `json:"account"`

	// Token is the opaque auth token issued at login.
	Token string `json:"token"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`

	// LastActivity is the most recent recorded user activity.
	LastActivity time.Time `json:"last_activity"`
}

// Monitor tracks the active session and its idle state.
//
// All methods are safe for concurrent use. The Monitor implements
// account.SessionRefresher so directory updates propagate into the active
// session.
type Monitor struct {
	mu      sync.Mutex
	session *Session

	store       store.Store
	serializer  serializer.Serializer
	logger      logger.Logger
	metrics     metrics.Registry
	idleTimeout time.Duration

	// now is swappable for tests
	now func() time.Time
}

// NewMonitor creates a Monitor with the provided dependencies.
func NewMonitor(
	kv store.Store,
	logger logger.Logger,
	cfg config.Config,
	metrics metrics.Registry,
) *Monitor {
	idleTimeout := DefaultIdleTimeout
	if value, ok := cfg.GetString("client_auth.session.idle_timeout"); ok {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			idleTimeout = parsed
		}
	}

	jsonSerializer, err := serializer.DefaultRegistry.New(serializer.JSON)
	if err != nil {
		jsonSerializer = serializer.NewJSONSerializer()
	}

	return &Monitor{
		store:       kv,
		serializer:  jsonSerializer,
		logger:      logger,
		metrics:     metrics,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// IdleTimeout returns the configured inactivity window.
func (m *Monitor) IdleTimeout() time.Duration {
	return m.idleTimeout
}

// Begin starts a session for the given account and token. Any previous
// session is replaced.
func (m *Monitor) Begin(acct *account.Account, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	clone := acct.Clone()
	clone.PasswordHash = nil

	m.session = &Session{
		Account:      clone,
		Token:        token,
		StartedAt:    now,
		LastActivity: now,
	}

	m.logger.Info("Session started",
		logger.Field{Key: "account_id", Value: clone.ID},
		logger.Field{Key: "role", Value: clone.Role.String()})
	counter := m.metrics.Counter(metrics.Options{
		Name: "session_monitor.started",
	})
	counter.Inc()
}

// RecordActivity refreshes the idle deadline. Without an active session it
// is a no-op.
func (m *Monitor) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return
	}
	m.session.LastActivity = m.now()
}

// Current returns a snapshot of the active session, or nil when none.
func (m *Monitor) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}

	snapshot := *m.session
	snapshot.Account = m.session.Account.Clone()
	return &snapshot
}

// RemainingIdleSeconds returns the whole seconds before the idle timeout
// expires, rounded up. Returns 0 when no session is active or the session
// has already expired.
func (m *Monitor) RemainingIdleSeconds() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return 0
	}

	deadline := m.session.LastActivity.Add(m.idleTimeout)
	remaining := deadline.Sub(m.now())
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// IsExpired reports whether the active session has exceeded the idle
// timeout. Returns false when no session is active.
func (m *Monitor) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return false
	}
	return m.now().Sub(m.session.LastActivity) >= m.idleTimeout
}

// Expire ends the session and clears all persisted session keys. Calling
// it without an active session still clears the keys, so stale persisted
// state from a crashed run cannot outlive an expiry.
func (m *Monitor) Expire(ctx context.Context) error {
	m.mu.Lock()
	active := m.session
	m.session = nil
	m.mu.Unlock()

	if err := m.store.DeleteMany(ctx, store.SessionKeys()); err != nil {
		m.logger.Error("Failed to clear session keys",
			logger.Field{Key: "error", Value: err.Error()})
		return errors.NewStorageError("clear session", err)
	}

	if active != nil {
		m.logger.Info("Session ended",
			logger.Field{Key: "account_id", Value: active.Account.ID})
		counter := m.metrics.Counter(metrics.Options{
			Name: "session_monitor.ended",
		})
		counter.Inc()
	}

	return nil
}

// ActiveAccountID returns the signed-in account's ID, or "" when no session
// is active. Part of account.SessionRefresher.
func (m *Monitor) ActiveAccountID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return ""
	}
	return m.session.Account.ID
}

// RefreshIdentity replaces the session's cached account copy and re-persists
// the derived session keys. Part of account.SessionRefresher.
func (m *Monitor) RefreshIdentity(ctx context.Context, acct *account.Account) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return errors.ErrNoActiveSession
	}

	clone := acct.Clone()
	clone.PasswordHash = nil
	m.session.Account = clone
	m.mu.Unlock()

	encoded, err := m.serializer.Serialize(clone)
	if err != nil {
		m.logger.Error("Failed to encode session account",
			logger.Field{Key: "error", Value: err.Error()})
		return errors.NewAppError(errors.CodeInternalError, "Failed to encode session account")
	}

	data := map[string][]byte{
		store.KeyCurrentUser: encoded,
		store.KeyUserRole:    []byte(clone.Role.String()),
		store.KeyUserName:    []byte(clone.Name),
	}
	for key, value := range data {
		if err := m.store.Set(ctx, key, value); err != nil {
			m.logger.Warn("Failed to refresh persisted session key",
				logger.Field{Key: "key", Value: key},
				logger.Field{Key: "error", Value: err.Error()})
			return errors.NewStorageError("refresh session", err)
		}
	}

	m.logger.Debug("Session identity refreshed",
		logger.Field{Key: "account_id", Value: clone.ID})
	return nil
}
