package main

import (
	"context"
	"fmt"
	"log"
	"time"

	gocache "github.com/MichaelAJay/go-cache"
	goconfig "github.com/MichaelAJay/go-config"
	goencrypter "github.com/MichaelAJay/go-encrypter"
	gologger "github.com/MichaelAJay/go-logger"
	gometrics "github.com/MichaelAJay/go-metrics"

	"github.com/MichaelAJay/go-client-auth/account"
	"github.com/MichaelAJay/go-client-auth/auth"
	"github.com/MichaelAJay/go-client-auth/lockout"
	"github.com/MichaelAJay/go-client-auth/session"
	"github.com/MichaelAJay/go-client-auth/store/memory"
)

// This demo walks the full login lifecycle: bootstrap, failed attempts,
// lockout, lockout expiry, successful login, and idle timeout.

func main() {
	fmt.Println("=== Go Client Auth - Login Lifecycle Demo ===")
	fmt.Println()

	ctx := context.Background()

	// Create encrypter for password hashing
	key := []byte("your-32-byte-key-here-for-demo!!") // Exactly 32 bytes
	enc, err := goencrypter.NewAESEncrypter(key)
	if err != nil {
		log.Fatalf("Failed to create encrypter: %v", err)
	}
	fmt.Println("✓ Encrypter initialized")

	kv := memory.New()
	defer kv.Close()

	logger := &demoLogger{}
	cache := newDemoCache()
	metrics := &demoMetrics{}
	cfg := newDemoConfig(map[string]any{
		"client_auth.lockout.max_failed_attempts": 5,
		"client_auth.lockout.duration":            "5s",
		"client_auth.session.idle_timeout":        "3s",
		"client_auth.session.poll_interval":       "500ms",
		"client_auth.session.warning_threshold":   "2s",
	})

	directory := account.NewDirectory(kv, enc, logger, cache, cfg, metrics)
	tracker := lockout.NewTracker(kv, logger, cfg, metrics)
	monitor := session.NewMonitor(kv, logger, cfg, metrics)
	directory.SetSessionRefresher(monitor)
	service := auth.NewService(kv, directory, tracker, monitor, logger, cfg, metrics)

	fmt.Println("\n=== Bootstrap ===")
	if err := directory.Bootstrap(ctx); err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}
	accounts, _ := directory.ListAccounts(ctx)
	for _, acct := range accounts {
		fmt.Printf("✓ Seeded account: %s (%s, role=%s)\n", acct.Name, acct.Email, acct.Role)
	}

	fmt.Println("\n=== Failed Attempts and Lockout ===")
	for i := 1; i <= 5; i++ {
		result, err := service.Login(ctx, &auth.LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-password",
		})
		if err != nil {
			log.Fatalf("Login call failed: %v", err)
		}
		switch result.Outcome {
		case auth.LoginOutcomeInvalidCredentials:
			fmt.Printf("✗ Attempt %d rejected, %d attempts remaining\n", i, result.RemainingAttempts)
		case auth.LoginOutcomeNowLocked:
			fmt.Printf("✗ Attempt %d triggered lockout for %d seconds\n", i, result.LockoutSeconds)
		}
	}

	// The correct password does not help while locked
	result, _ := service.Login(ctx, &auth.LoginRequest{
		Email:    "user@example.com",
		Password: "user123",
	})
	fmt.Printf("✗ Correct password while locked: outcome=%s, %ds remaining\n",
		result.Outcome, result.LockoutSeconds)

	fmt.Println("\n=== Lockout Expiry ===")
	fmt.Println("  Waiting for the lockout to expire...")
	time.Sleep(5100 * time.Millisecond)

	result, err = service.Login(ctx, &auth.LoginRequest{
		Email:    "User@Example.COM", // any casing works
		Password: "user123",
	})
	if err != nil {
		log.Fatalf("Login call failed: %v", err)
	}
	fmt.Printf("✓ Login after expiry: outcome=%s, account=%s, token=%s\n",
		result.Outcome, result.Account.Name, result.Token)

	fmt.Println("\n=== Session Watcher ===")
	watcherCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	expired := make(chan struct{})
	watcher := session.NewWatcher(monitor, logger, cfg, metrics, session.WatcherCallbacks{
		OnWarning: func(remainingSeconds int) {
			fmt.Printf("  ! Session expires in %d seconds\n", remainingSeconds)
		},
		OnExpired: func() {
			fmt.Println("  ! Session expired after idle timeout")
			close(expired)
		},
	})
	go watcher.Run(watcherCtx)

	fmt.Println("  Simulating activity, then going idle...")
	monitor.RecordActivity()

	select {
	case <-expired:
	case <-time.After(10 * time.Second):
		log.Fatal("Watcher never fired")
	}

	acct, _ := service.CurrentAccount(ctx)
	token, _ := service.Token(ctx)
	fmt.Printf("✓ After expiry: current account=%v, token=%q\n", acct, token)

	fmt.Println("\n=== Demo Complete ===")
}

// demoLogger prints structured log lines to stdout.
type demoLogger struct{}

func (l *demoLogger) log(level, msg string, fields []gologger.Field) {
	line := fmt.Sprintf("  [%s] %s", level, msg)
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	fmt.Println(line)
}

func (l *demoLogger) Debug(msg string, fields ...gologger.Field) {}
func (l *demoLogger) Info(msg string, fields ...gologger.Field)  { l.log("INFO", msg, fields) }
func (l *demoLogger) Warn(msg string, fields ...gologger.Field)  { l.log("WARN", msg, fields) }
func (l *demoLogger) Error(msg string, fields ...gologger.Field) { l.log("ERROR", msg, fields) }
func (l *demoLogger) Fatal(msg string, fields ...gologger.Field) { l.log("FATAL", msg, fields) }
func (l *demoLogger) With(fields ...gologger.Field) gologger.Logger {
	return l
}
func (l *demoLogger) WithContext(ctx context.Context) gologger.Logger {
	return l
}

// demoCache is a map-backed cache.
type demoCache struct {
	data map[string]any
}

func newDemoCache() *demoCache {
	return &demoCache{data: make(map[string]any)}
}

func (c *demoCache) Get(ctx context.Context, key string) (any, bool, error) {
	if val, exists := c.data[key]; exists {
		return val, true, nil
	}
	return nil, false, fmt.Errorf("cache miss")
}

func (c *demoCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *demoCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *demoCache) Clear(ctx context.Context) error {
	c.data = make(map[string]any)
	return nil
}

func (c *demoCache) Has(ctx context.Context, key string) bool {
	_, exists := c.data[key]
	return exists
}

func (c *demoCache) GetKeys(ctx context.Context) []string {
	keys := make([]string, 0, len(c.data))
	for key := range c.data {
		keys = append(keys, key)
	}
	return keys
}

func (c *demoCache) Close() error { return nil }

func (c *demoCache) GetMany(ctx context.Context, keys []string) (map[string]any, error) {
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		if val, exists := c.data[key]; exists {
			values[key] = val
		}
	}
	return values, nil
}

func (c *demoCache) SetMany(ctx context.Context, items map[string]any, ttl time.Duration) error {
	for key, value := range items {
		c.data[key] = value
	}
	return nil
}

func (c *demoCache) DeleteMany(ctx context.Context, keys []string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *demoCache) GetMetadata(ctx context.Context, key string) (*gocache.CacheEntryMetadata, error) {
	return nil, nil
}

func (c *demoCache) GetManyMetadata(ctx context.Context, keys []string) (map[string]*gocache.CacheEntryMetadata, error) {
	return nil, nil
}

func (c *demoCache) GetMetrics() *gocache.CacheMetricsSnapshot {
	return nil
}

// demoConfig serves values from a fixed map.
type demoConfig struct {
	values map[string]any
}

func newDemoConfig(values map[string]any) *demoConfig {
	return &demoConfig{values: values}
}

func (c *demoConfig) Get(key string) (any, bool) {
	val, exists := c.values[key]
	return val, exists
}

func (c *demoConfig) GetString(key string) (string, bool) {
	if val, exists := c.values[key]; exists {
		if str, ok := val.(string); ok {
			return str, true
		}
	}
	return "", false
}

func (c *demoConfig) GetInt(key string) (int, bool) {
	if val, exists := c.values[key]; exists {
		if i, ok := val.(int); ok {
			return i, true
		}
	}
	return 0, false
}

func (c *demoConfig) GetBool(key string) (bool, bool) {
	if val, exists := c.values[key]; exists {
		if b, ok := val.(bool); ok {
			return b, true
		}
	}
	return false, false
}

func (c *demoConfig) GetFloat(key string) (float64, bool) {
	if val, exists := c.values[key]; exists {
		if f, ok := val.(float64); ok {
			return f, true
		}
	}
	return 0, false
}

func (c *demoConfig) GetStringSlice(key string) ([]string, bool) {
	if val, exists := c.values[key]; exists {
		if ss, ok := val.([]string); ok {
			return ss, true
		}
	}
	return nil, false
}

func (c *demoConfig) Set(key string, value any) error {
	c.values[key] = value
	return nil
}

func (c *demoConfig) Load(source goconfig.Source) error { return nil }
func (c *demoConfig) Validate() error                   { return nil }

// demoMetrics discards all measurements.
type demoMetrics struct{}
type demoTimer struct{}
type demoCounter struct{}
type demoGauge struct{}
type demoHistogram struct{}

func (m *demoMetrics) Counter(opts gometrics.Options) gometrics.Counter { return &demoCounter{} }
func (m *demoMetrics) Gauge(opts gometrics.Options) gometrics.Gauge     { return &demoGauge{} }
func (m *demoMetrics) Histogram(opts gometrics.Options) gometrics.Histogram {
	return &demoHistogram{}
}
func (m *demoMetrics) Timer(opts gometrics.Options) gometrics.Timer { return &demoTimer{} }
func (m *demoMetrics) Each(fn func(gometrics.Metric))               {}
func (m *demoMetrics) Unregister(name string)                       {}

func (m *demoCounter) Name() string                             { return "demo counter" }
func (m *demoCounter) Description() string                      { return "demo counter" }
func (m *demoCounter) Type() gometrics.Type                     { return gometrics.TypeCounter }
func (m *demoCounter) Tags() gometrics.Tags                     { return gometrics.Tags{} }
func (m *demoCounter) Inc()                                     {}
func (m *demoCounter) Add(float64)                              {}
func (m *demoCounter) With(tags gometrics.Tags) gometrics.Counter { return m }

func (m *demoGauge) Name() string                           { return "demo gauge" }
func (m *demoGauge) Description() string                    { return "demo gauge" }
func (m *demoGauge) Type() gometrics.Type                   { return gometrics.TypeGauge }
func (m *demoGauge) Tags() gometrics.Tags                   { return gometrics.Tags{} }
func (m *demoGauge) Set(float64)                            {}
func (m *demoGauge) Add(float64)                            {}
func (m *demoGauge) Inc()                                   {}
func (m *demoGauge) Dec()                                   {}
func (m *demoGauge) With(tags gometrics.Tags) gometrics.Gauge { return m }

func (m *demoHistogram) Name() string                               { return "demo histogram" }
func (m *demoHistogram) Description() string                        { return "demo histogram" }
func (m *demoHistogram) Type() gometrics.Type                       { return gometrics.TypeHistogram }
func (m *demoHistogram) Tags() gometrics.Tags                       { return gometrics.Tags{} }
func (m *demoHistogram) Observe(float64)                            {}
func (m *demoHistogram) With(tags gometrics.Tags) gometrics.Histogram { return m }

func (m *demoTimer) Name() string                           { return "demo timer" }
func (m *demoTimer) Description() string                    { return "demo timer" }
func (m *demoTimer) Type() gometrics.Type                   { return gometrics.TypeTimer }
func (m *demoTimer) Tags() gometrics.Tags                   { return gometrics.Tags{} }
func (m *demoTimer) Record(d time.Duration)                 {}
func (m *demoTimer) RecordSince(start time.Time)            {}
func (m *demoTimer) Time(fn func()) time.Duration           { return 0 }
func (m *demoTimer) With(tags gometrics.Tags) gometrics.Timer { return m }
