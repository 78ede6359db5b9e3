package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/terra-clan/interview-data/internal/config"
)

// Backend driver names accepted in configuration
const (
	BackendPgx       = "pgx"
	BackendPq        = "pq"
	BackendSQLite    = "sqlite"
	BackendPostgREST = "postgrest"
)

// Factory opens a Backend from configuration
type Factory func(ctx context.Context, cfg config.BackendConfig) (Backend, error)

// Registry manages backend factories by driver name
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry with every built-in backend registered
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry()

	r.Register(BackendPgx, func(ctx context.Context, cfg config.BackendConfig) (Backend, error) {
		return NewPostgresBackend(ctx, PostgresConfig{
			DSN:          cfg.DSN,
			MaxOpenConns: int32(cfg.MaxOpenConns),
			MaxIdleConns: int32(cfg.MaxIdleConns),
			MaxLifetime:  cfg.MaxLifetime,
			LogQueries:   cfg.LogQueries,
			Logger:       logger,
		})
	})

	r.Register(BackendPq, func(ctx context.Context, cfg config.BackendConfig) (Backend, error) {
		return NewSQLBackend(ctx, SQLConfig{
			Driver:       DriverPostgres,
			DSN:          cfg.DSN,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
			MaxLifetime:  cfg.MaxLifetime,
		})
	})

	r.Register(BackendSQLite, func(ctx context.Context, cfg config.BackendConfig) (Backend, error) {
		return NewSQLBackend(ctx, SQLConfig{
			Driver: DriverSQLite,
			DSN:    cfg.DSN,
		})
	})

	r.Register(BackendPostgREST, func(_ context.Context, cfg config.BackendConfig) (Backend, error) {
		return NewPostgRESTBackend(PostgRESTConfig{
			URL:     cfg.PostgREST.URL,
			APIKey:  cfg.PostgREST.APIKey,
			Timeout: cfg.PostgREST.Timeout,
		})
	})

	return r
}

// Register adds a factory to the registry
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get retrieves a factory by name
func (r *Registry) Get(name string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[name]
}

// Names returns all registered driver names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the backend selected by cfg.Driver
func (r *Registry) Open(ctx context.Context, cfg config.BackendConfig) (Backend, error) {
	factory := r.Get(cfg.Driver)
	if factory == nil {
		return nil, fmt.Errorf("unknown backend driver %q (available: %s)", cfg.Driver, strings.Join(r.Names(), ", "))
	}

	backend, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Driver, err)
	}
	return backend, nil
}
