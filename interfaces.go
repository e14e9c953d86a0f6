// Package interfaces contains the external interface definitions used by the
// go-client-auth module. It is a reference catalog of the contracts the
// module depends on; the concrete implementations live in the MichaelAJay
// ecosystem modules named on each interface.
package interfaces

import (
	"context"
	"io"
	"time"
)

// Store is the persistence contract the auth subsystem runs on. Implemented
// by the backends under store/ (memory, sqlite, postgres); any key-value
// store with these semantics can be substituted.
type Store interface {
	// Get returns the blob stored under key, or a key-not-found error
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; absent keys are a no-op
	Delete(ctx context.Context, key string) error

	// DeleteMany removes the given keys
	DeleteMany(ctx context.Context, keys []string) error

	// Clear removes every key
	Clear(ctx context.Context) error

	// Close releases backend resources
	Close() error
}

// Cache represents the caching interface used for account lookups.
// This interface is implemented by the go-cache module.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
	GetKeys(ctx context.Context) []string
	Close() error

	GetMany(ctx context.Context, keys []string) (map[string]any, error)
	SetMany(ctx context.Context, items map[string]any, ttl time.Duration) error
	DeleteMany(ctx context.Context, keys []string) error
}

// Config represents the configuration interface the services load their
// policies from. This interface is implemented by the go-config module.
type Config interface {
	Get(key string) (any, bool)
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
	GetBool(key string) (bool, bool)
	GetFloat(key string) (float64, bool)
	GetStringSlice(key string) ([]string, bool)
	Set(key string, value any) error
	Load(source Source) error
	Validate() error
}

// Source represents a configuration source.
type Source interface {
	Load() (map[string]any, error)
}

// Encrypter represents the credential hashing interface.
// This interface is implemented by the go-encrypter module.
type Encrypter interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
	HashPassword(password []byte) ([]byte, error)
	VerifyPassword(hashedPassword, password []byte) (bool, error)
}

// Logger represents the structured logging interface used throughout the
// auth subsystem. This interface is implemented by the go-logger module.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// Counter represents a monotonically increasing metric value.
type Counter interface {
	// Inc increments the counter by 1
	Inc()
	// Add increases the counter by the given value
	Add(value float64)
}

// Timer is a specialized metric for measuring durations.
type Timer interface {
	// Record records a duration
	Record(d time.Duration)
	// RecordSince records the duration since the provided time
	RecordSince(t time.Time)
}

// Options represents options for creating metrics.
type Options struct {
	Name        string
	Description string
	Tags        map[string]string
}

// Registry manages a collection of metrics.
// This interface is implemented by the go-metrics module.
type Registry interface {
	Counter(opts Options) Counter
	Timer(opts Options) Timer
}

// Serializer represents the serialization interface for persisted state.
// This interface is implemented by the go-serializer module.
type Serializer interface {
	// Serialize converts a value to bytes
	Serialize(v any) ([]byte, error)

	// Deserialize converts bytes back to a value
	// v must be a pointer to the type you want to deserialize into
	Deserialize(data []byte, v any) error

	// SerializeTo writes a value to a writer
	SerializeTo(w io.Writer, v any) error

	// DeserializeFrom reads a value from a reader
	DeserializeFrom(r io.Reader, v any) error

	// ContentType returns the MIME type for this serialization format
	ContentType() string
}
