package store

import (
	"context"
	"fmt"

	"github.com/MichaelAJay/go-config"

	"github.com/MichaelAJay/go-client-auth/store/memory"
	"github.com/MichaelAJay/go-client-auth/store/postgres"
	"github.com/MichaelAJay/go-client-auth/store/sqlite"
)

// BackendType represents the configured storage backend.
type BackendType string

const (
	// BackendMemory is the in-memory backend (tests, demos).
	BackendMemory BackendType = "memory"

	// BackendSQLite is the embedded local database backend.
	BackendSQLite BackendType = "sqlite"

	// BackendPostgres is the shared-database backend.
	BackendPostgres BackendType = "postgres"
)

// NewFromConfig creates a Store from configuration:
//
//	client_auth.store.backend       memory | sqlite | postgres (default memory)
//	client_auth.store.sqlite_path   database file path (sqlite backend)
//	client_auth.store.database_url  connection string (postgres backend)
//	client_auth.store.max_conns     pool cap (postgres backend)
func NewFromConfig(ctx context.Context, cfg config.Config) (Store, error) {
	backend := string(BackendMemory)
	if value, ok := cfg.GetString("client_auth.store.backend"); ok {
		backend = value
	}

	switch BackendType(backend) {
	case BackendMemory:
		return memory.New(), nil

	case BackendSQLite:
		path, ok := cfg.GetString("client_auth.store.sqlite_path")
		if !ok || path == "" {
			return nil, fmt.Errorf("sqlite backend requires client_auth.store.sqlite_path")
		}
		return sqlite.New(path)

	case BackendPostgres:
		pgConfig := postgres.Config{}
		if url, ok := cfg.GetString("client_auth.store.database_url"); ok {
			pgConfig.DatabaseURL = url
		}
		if maxConns, ok := cfg.GetInt("client_auth.store.max_conns"); ok {
			pgConfig.MaxConns = maxConns
		}
		return postgres.New(ctx, pgConfig)

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}
