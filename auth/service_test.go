package auth

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/MichaelAJay/go-cache"
	"github.com/MichaelAJay/go-config"
	"github.com/MichaelAJay/go-logger"
	"github.com/MichaelAJay/go-metrics"

	"github.com/MichaelAJay/go-client-auth/account"
	"github.com/MichaelAJay/go-client-auth/lockout"
	"github.com/MichaelAJay/go-client-auth/session"
	"github.com/MichaelAJay/go-client-auth/store"
	"github.com/MichaelAJay/go-client-auth/store/memory"
)

// Mock Logger Implementation
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, fields ...logger.Field) {}
func (m *mockLogger) Info(msg string, fields ...logger.Field)  {}
func (m *mockLogger) Warn(msg string, fields ...logger.Field)  {}
func (m *mockLogger) Error(msg string, fields ...logger.Field) {}
func (m *mockLogger) Fatal(msg string, fields ...logger.Field) {}
func (m *mockLogger) With(fields ...logger.Field) logger.Logger {
	return m
}
func (m *mockLogger) WithContext(ctx context.Context) logger.Logger {
	return m
}

// Mock Config Implementation
type mockConfig struct {
	values map[string]any
}

func (m *mockConfig) Get(key string) (any, bool) {
	val, exists := m.values[key]
	return val, exists
}

func (m *mockConfig) GetString(key string) (string, bool) {
	if val, exists := m.values[key]; exists {
		if str, ok := val.(string); ok {
			return str, true
		}
	}
	return "", false
}

func (m *mockConfig) GetInt(key string) (int, bool) {
	if val, exists := m.values[key]; exists {
		if i, ok := val.(int); ok {
			return i, true
		}
	}
	return 0, false
}

func (m *mockConfig) GetBool(key string) (bool, bool)            { return false, false }
func (m *mockConfig) GetFloat(key string) (float64, bool)        { return 0, false }
func (m *mockConfig) GetStringSlice(key string) ([]string, bool) { return nil, false }
func (m *mockConfig) Set(key string, value any) error {
	m.values[key] = value
	return nil
}
func (m *mockConfig) Load(source config.Source) error { return nil }
func (m *mockConfig) Validate() error                 { return nil }

// Mock Metrics Implementation
type mockMetrics struct{}
type mockTimer struct{}
type mockCounter struct{}
type mockGauge struct{}
type mockHistogram struct{}

func (m *mockMetrics) Counter(opts metrics.Options) metrics.Counter { return &mockCounter{} }
func (m *mockMetrics) Gauge(opts metrics.Options) metrics.Gauge     { return &mockGauge{} }
func (m *mockMetrics) Histogram(opts metrics.Options) metrics.Histogram {
	return &mockHistogram{}
}
func (m *mockMetrics) Timer(opts metrics.Options) metrics.Timer { return &mockTimer{} }
func (m *mockMetrics) Each(fn func(metrics.Metric))             {}
func (m *mockMetrics) Unregister(name string)                   {}

func (m *mockCounter) Name() string                           { return "mock counter" }
func (m *mockCounter) Description() string                    { return "mock counter" }
func (m *mockCounter) Type() metrics.Type                     { return metrics.TypeCounter }
func (m *mockCounter) Tags() metrics.Tags                     { return metrics.Tags{} }
func (m *mockCounter) Inc()                                   {}
func (m *mockCounter) Add(float64)                            {}
func (m *mockCounter) With(tags metrics.Tags) metrics.Counter { return m }

func (m *mockGauge) Name() string                         { return "mock gauge" }
func (m *mockGauge) Description() string                  { return "mock gauge" }
func (m *mockGauge) Type() metrics.Type                   { return metrics.TypeGauge }
func (m *mockGauge) Tags() metrics.Tags                   { return metrics.Tags{} }
func (m *mockGauge) Set(float64)                          {}
func (m *mockGauge) Add(float64)                          {}
func (m *mockGauge) Inc()                                 {}
func (m *mockGauge) Dec()                                 {}
func (m *mockGauge) With(tags metrics.Tags) metrics.Gauge { return m }

func (m *mockHistogram) Name() string                             { return "mock histogram" }
func (m *mockHistogram) Description() string                      { return "mock histogram" }
func (m *mockHistogram) Type() metrics.Type                       { return metrics.TypeHistogram }
func (m *mockHistogram) Tags() metrics.Tags                       { return metrics.Tags{} }
func (m *mockHistogram) Observe(float64)                          {}
func (m *mockHistogram) With(tags metrics.Tags) metrics.Histogram { return m }

func (m *mockTimer) Name() string                         { return "mock timer" }
func (m *mockTimer) Description() string                  { return "mock timer" }
func (m *mockTimer) Type() metrics.Type                   { return metrics.TypeTimer }
func (m *mockTimer) Tags() metrics.Tags                   { return metrics.Tags{} }
func (m *mockTimer) Record(d time.Duration)               {}
func (m *mockTimer) RecordSince(start time.Time)          {}
func (m *mockTimer) Time(fn func()) time.Duration         { return 0 }
func (m *mockTimer) With(tags metrics.Tags) metrics.Timer { return m }

// Mock Encrypter Implementation
type mockEncrypter struct{}

func (m *mockEncrypter) Encrypt(data []byte) ([]byte, error) {
	return append([]byte("encrypted:"), data...), nil
}

func (m *mockEncrypter) EncryptWithAAD(data, additionalData []byte) ([]byte, error) {
	return append([]byte("encrypted:"), data...), nil
}

func (m *mockEncrypter) Decrypt(encryptedData []byte) ([]byte, error) {
	return encryptedData[10:], nil
}

func (m *mockEncrypter) DecryptWithAAD(encryptedData, additionalData []byte) ([]byte, error) {
	return encryptedData[10:], nil
}

func (m *mockEncrypter) HashPassword(password []byte) ([]byte, error) {
	return append([]byte("hash:"), password...), nil
}

func (m *mockEncrypter) VerifyPassword(hashedPassword, password []byte) (bool, error) {
	return bytes.Equal(hashedPassword, append([]byte("hash:"), password...)), nil
}

func (m *mockEncrypter) HashLookupData(data []byte) []byte {
	return append([]byte("hash:"), data...)
}

func (m *mockEncrypter) GetKeyVersion() string {
	return "v1"
}

// Mock Cache Implementation (miss on every lookup; directory tests cover caching)
type mockCache struct{}

func (m *mockCache) Get(ctx context.Context, key string) (any, bool, error) {
	return nil, false, context.Canceled
}
func (m *mockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (m *mockCache) Delete(ctx context.Context, key string) error { return nil }
func (m *mockCache) Clear(ctx context.Context) error              { return nil }
func (m *mockCache) Has(ctx context.Context, key string) bool     { return false }
func (m *mockCache) GetKeys(ctx context.Context) []string         { return nil }
func (m *mockCache) Close() error                                 { return nil }
func (m *mockCache) GetMany(ctx context.Context, keys []string) (map[string]any, error) {
	return nil, nil
}
func (m *mockCache) SetMany(ctx context.Context, items map[string]any, ttl time.Duration) error {
	return nil
}
func (m *mockCache) DeleteMany(ctx context.Context, keys []string) error { return nil }
func (m *mockCache) GetMetadata(ctx context.Context, key string) (*cache.CacheEntryMetadata, error) {
	return nil, nil
}
func (m *mockCache) GetManyMetadata(ctx context.Context, keys []string) (map[string]*cache.CacheEntryMetadata, error) {
	return nil, nil
}
func (m *mockCache) GetMetrics() *cache.CacheMetricsSnapshot { return nil }

type testHarness struct {
	service   Service
	directory account.Directory
	tracker   lockout.Tracker
	monitor   *session.Monitor
	kv        *memory.Store
	cfg       *mockConfig
}

func newTestHarness(t *testing.T, extraConfig map[string]any) *testHarness {
	t.Helper()

	values := map[string]any{}
	for k, v := range extraConfig {
		values[k] = v
	}
	cfg := &mockConfig{values: values}

	kv := memory.New()
	log := &mockLogger{}
	met := &mockMetrics{}

	directory := account.NewDirectory(kv, &mockEncrypter{}, log, &mockCache{}, cfg, met)
	tracker := lockout.NewTracker(kv, log, cfg, met)
	monitor := session.NewMonitor(kv, log, cfg, met)
	directory.SetSessionRefresher(monitor)
	svc := NewService(kv, directory, tracker, monitor, log, cfg, met)

	if err := directory.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	return &testHarness{
		service:   svc,
		directory: directory,
		tracker:   tracker,
		monitor:   monitor,
		kv:        kv,
		cfg:       cfg,
	}
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	result, err := h.service.Login(ctx, &LoginRequest{
		Email:    "user@example.com",
		Password: "user123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if result.Outcome != LoginOutcomeSuccess {
		t.Fatalf("outcome = %s, want success", result.Outcome)
	}
	if result.Account == nil || result.Account.ID != "2" {
		t.Errorf("unexpected account in result: %+v", result.Account)
	}
	if result.Account.PasswordHash != nil {
		t.Error("result account carries credential material")
	}
	if result.Token != "token-2" {
		t.Errorf("token = %s, want token-2", result.Token)
	}

	if h.monitor.Current() == nil {
		t.Error("expected active session after login")
	}
}

func TestLoginAnyCasing(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	result, err := h.service.Login(ctx, &LoginRequest{
		Email:    "  ADMIN@Example.Com ",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Outcome != LoginOutcomeSuccess {
		t.Errorf("outcome = %s, want success", result.Outcome)
	}
	if result.Account.Role != account.RoleAdmin {
		t.Errorf("role = %s, want admin", result.Account.Role)
	}
}

func TestLoginPersistsSessionKeys(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	if _, err := h.service.Login(ctx, &LoginRequest{
		Email:    "admin@example.com",
		Password: "admin123",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token, err := h.kv.Get(ctx, store.KeyAuthToken)
	if err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
	if string(token) != "token-1" {
		t.Errorf("persisted token = %s, want token-1", token)
	}

	role, _ := h.kv.Get(ctx, store.KeyUserRole)
	if string(role) != "admin" {
		t.Errorf("persisted role = %s, want admin", role)
	}
	name, _ := h.kv.Get(ctx, store.KeyUserName)
	if string(name) != "Admin User" {
		t.Errorf("persisted name = %s, want Admin User", name)
	}
	if _, err := h.kv.Get(ctx, store.KeyCurrentUser); err != nil {
		t.Errorf("current user not persisted: %v", err)
	}
}

func TestLoginWrongPasswordCountsDown(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	for i := 1; i <= 4; i++ {
		result, err := h.service.Login(ctx, &LoginRequest{
			Email:    "user@example.com",
			Password: "wrong",
		})
		if err != nil {
			t.Fatalf("Login call failed: %v", err)
		}
		if result.Outcome != LoginOutcomeInvalidCredentials {
			t.Fatalf("attempt %d outcome = %s, want invalid_credentials", i, result.Outcome)
		}
		if result.RemainingAttempts != 5-i {
			t.Errorf("attempt %d remaining = %d, want %d", i, result.RemainingAttempts, 5-i)
		}
	}
}

func TestFifthFailureLocks(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	var result *LoginResult
	var err error
	for i := 0; i < 5; i++ {
		result, err = h.service.Login(ctx, &LoginRequest{
			Email:    "user@example.com",
			Password: "wrong",
		})
		if err != nil {
			t.Fatalf("Login call failed: %v", err)
		}
	}

	if result.Outcome != LoginOutcomeNowLocked {
		t.Fatalf("fifth failure outcome = %s, want now_locked", result.Outcome)
	}
	if result.LockoutSeconds <= 0 || result.LockoutSeconds > 30 {
		t.Errorf("LockoutSeconds = %d, want in (0, 30]", result.LockoutSeconds)
	}
}

func TestCorrectPasswordRejectedWhileLocked(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	for i := 0; i < 5; i++ {
		h.service.Login(ctx, &LoginRequest{Email: "user@example.com", Password: "wrong"})
	}

	// The lockout gate runs before the credential check
	result, err := h.service.Login(ctx, &LoginRequest{
		Email:    "user@example.com",
		Password: "user123",
	})
	if err != nil {
		t.Fatalf("Login call failed: %v", err)
	}
	if result.Outcome != LoginOutcomeLocked {
		t.Fatalf("outcome = %s, want locked", result.Outcome)
	}
	if result.LockoutSeconds <= 0 || result.LockoutSeconds > 30 {
		t.Errorf("LockoutSeconds = %d, want in (0, 30]", result.LockoutSeconds)
	}
	if h.monitor.Current() != nil {
		t.Error("locked login must not start a session")
	}
}

func TestLockoutAppliesAcrossCasing(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	for i := 0; i < 5; i++ {
		h.service.Login(ctx, &LoginRequest{Email: "User@Example.COM", Password: "wrong"})
	}

	result, _ := h.service.Login(ctx, &LoginRequest{
		Email:    "user@example.com",
		Password: "user123",
	})
	if result.Outcome != LoginOutcomeLocked {
		t.Errorf("outcome = %s, want locked regardless of casing", result.Outcome)
	}
}

func TestLoginAfterLockoutExpiry(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, map[string]any{
		"client_auth.lockout.duration": "100ms",
	})

	for i := 0; i < 5; i++ {
		h.service.Login(ctx, &LoginRequest{Email: "user@example.com", Password: "wrong"})
	}

	time.Sleep(150 * time.Millisecond)

	result, err := h.service.Login(ctx, &LoginRequest{
		Email:    "user@example.com",
		Password: "user123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Outcome != LoginOutcomeSuccess {
		t.Errorf("outcome = %s, want success after lockout expiry", result.Outcome)
	}

	// The expired record is gone, so a fresh failure counts from one
	record, err := h.tracker.GetRecord(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected attempt record cleared, got %+v", record)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	for i := 0; i < 3; i++ {
		h.service.Login(ctx, &LoginRequest{Email: "user@example.com", Password: "wrong"})
	}

	result, err := h.service.Login(ctx, &LoginRequest{
		Email:    "user@example.com",
		Password: "user123",
	})
	if err != nil || result.Outcome != LoginOutcomeSuccess {
		t.Fatalf("login failed: outcome=%v err=%v", result, err)
	}

	// The next failure starts a fresh count
	failed, _ := h.service.Login(ctx, &LoginRequest{
		Email:    "user@example.com",
		Password: "wrong",
	})
	if failed.RemainingAttempts != 4 {
		t.Errorf("remaining after reset = %d, want 4", failed.RemainingAttempts)
	}
}

func TestUnknownEmailCountsAsFailure(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	result, err := h.service.Login(ctx, &LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if err != nil {
		t.Fatalf("Login call failed: %v", err)
	}
	if result.Outcome != LoginOutcomeInvalidCredentials {
		t.Errorf("outcome = %s, want invalid_credentials", result.Outcome)
	}
	if result.RemainingAttempts != 4 {
		t.Errorf("remaining = %d, want 4", result.RemainingAttempts)
	}

	// Unknown emails can lock out too; wrong email and wrong password
	// are indistinguishable from the outside
	for i := 0; i < 4; i++ {
		result, _ = h.service.Login(ctx, &LoginRequest{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
	}
	if result.Outcome != LoginOutcomeNowLocked {
		t.Errorf("outcome = %s, want now_locked", result.Outcome)
	}
}

func TestLoginValidation(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	if _, err := h.service.Login(ctx, nil); err == nil {
		t.Error("expected error for nil request")
	}
	if _, err := h.service.Login(ctx, &LoginRequest{Email: "user@example.com"}); err == nil {
		t.Error("expected error for missing password")
	}
	if _, err := h.service.Login(ctx, &LoginRequest{Password: "user123"}); err == nil {
		t.Error("expected error for missing email")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	h.service.Login(ctx, &LoginRequest{Email: "user@example.com", Password: "user123"})

	if err := h.service.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if h.monitor.Current() != nil {
		t.Error("expected no session after logout")
	}
	for _, key := range store.SessionKeys() {
		if _, err := h.kv.Get(ctx, key); err == nil {
			t.Errorf("expected key %q cleared after logout", key)
		}
	}

	// Logout without a session is a no-op
	if err := h.service.Logout(ctx); err != nil {
		t.Errorf("second logout failed: %v", err)
	}
}

func TestCurrentAccountAndToken(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	acct, err := h.service.CurrentAccount(ctx)
	if err != nil {
		t.Fatalf("CurrentAccount failed: %v", err)
	}
	if acct != nil {
		t.Errorf("expected no account before login, got %+v", acct)
	}

	h.service.Login(ctx, &LoginRequest{Email: "admin@example.com", Password: "admin123"})

	acct, err = h.service.CurrentAccount(ctx)
	if err != nil {
		t.Fatalf("CurrentAccount failed: %v", err)
	}
	if acct == nil || acct.ID != "1" {
		t.Errorf("unexpected current account: %+v", acct)
	}

	token, err := h.service.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "token-1" {
		t.Errorf("token = %s, want token-1", token)
	}
}

func TestSessionRestoreAfterRestart(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	h.service.Login(ctx, &LoginRequest{Email: "user@example.com", Password: "user123"})

	// A fresh monitor and service over the same store simulate a restart
	log := &mockLogger{}
	met := &mockMetrics{}
	monitor := session.NewMonitor(h.kv, log, h.cfg, met)
	restarted := NewService(h.kv, h.directory, h.tracker, monitor, log, h.cfg, met)

	acct, err := restarted.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if acct == nil || acct.Email != "user@example.com" {
		t.Fatalf("unexpected restored account: %+v", acct)
	}
	if monitor.Current() == nil {
		t.Error("expected active session after restore")
	}
	if monitor.Current().Token != "token-2" {
		t.Errorf("restored token = %s, want token-2", monitor.Current().Token)
	}
}

func TestRestoreWithNothingPersisted(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	acct, err := h.service.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if acct != nil {
		t.Errorf("expected nil account, got %+v", acct)
	}
}

func TestReadsDegradeOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	h.kv.Close()

	acct, err := h.service.CurrentAccount(ctx)
	if err != nil {
		t.Fatalf("expected degraded read, got error: %v", err)
	}
	if acct != nil {
		t.Errorf("expected nil account from failed read, got %+v", acct)
	}

	token, err := h.service.Token(ctx)
	if err != nil {
		t.Fatalf("expected degraded read, got error: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token from failed read, got %q", token)
	}
}

func TestRegisterThenLoginDifferentCasing(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	created, err := h.directory.CreateAccount(ctx, &account.CreateAccountRequest{
		Name:     "New User",
		Email:    "new@example.com",
		Password: "secret1",
		Role:     account.RoleUser,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	result, err := h.service.Login(ctx, &LoginRequest{
		Email:    "NEW@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Outcome != LoginOutcomeSuccess {
		t.Fatalf("outcome = %s, want success", result.Outcome)
	}
	if result.Account.ID != created.ID {
		t.Errorf("logged in as %s, want %s", result.Account.ID, created.ID)
	}
	if result.Account.Role != account.RoleUser {
		t.Errorf("role = %s, want user", result.Account.Role)
	}
}

func TestProfileUpdateRefreshesSession(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t, nil)

	result, err := h.service.Login(ctx, &LoginRequest{Email: "user@example.com", Password: "user123"})
	if err != nil || result.Outcome != LoginOutcomeSuccess {
		t.Fatalf("login failed: %+v %v", result, err)
	}

	name := "Renamed User"
	if _, err := h.directory.UpdateAccount(ctx, result.Account.ID, &account.UpdateAccountRequest{
		Name: &name,
	}); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	current := h.monitor.Current()
	if current.Account.Name != "Renamed User" {
		t.Errorf("session name = %s, want Renamed User", current.Account.Name)
	}

	persisted, _ := h.kv.Get(ctx, store.KeyUserName)
	if string(persisted) != "Renamed User" {
		t.Errorf("persisted name = %s, want Renamed User", persisted)
	}
}
