package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
)

// PostgresBackend implements Backend using a pgx connection pool
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration

	// LogQueries routes every statement to Logger at debug level
	LogQueries bool
	Logger     *slog.Logger
}

// NewPostgresBackend creates a pooled PostgreSQL backend
func NewPostgresBackend(ctx context.Context, cfg PostgresConfig) (*PostgresBackend, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	if cfg.LogQueries {
		poolConfig.ConnConfig.Tracer = newQueryTracer(cfg.Logger)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresBackend{pool: pool}, nil
}

// Ping checks database connectivity
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close closes the connection pool
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

// Select runs q and returns the matching rows
func (b *PostgresBackend) Select(ctx context.Context, q Query) ([]Row, error) {
	query, args, err := postgresDialect.selectSQL(q)
	if err != nil {
		return nil, fmt.Errorf("invalid query on %s: %w", q.Table, err)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", q.Table, err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", q.Table, err)
	}

	for i := range out {
		out[i] = nestEmbedded(out[i], q.Embeds)
	}
	return out, nil
}

// Insert writes a single row, returning the requested columns
func (b *PostgresBackend) Insert(ctx context.Context, table string, values Row, returning ...string) (Row, error) {
	query, args, err := postgresDialect.insertSQL(table, values, returning)
	if err != nil {
		return nil, err
	}

	if len(returning) == 0 {
		if _, err := b.pool.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil, nil
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return row, nil
}

// Migrate applies the embedded PostgreSQL migrations
func (b *PostgresBackend) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, b.pool)
}

// newQueryTracer adapts pgx trace logging to slog
func newQueryTracer(logger *slog.Logger) *tracelog.TraceLog {
	if logger == nil {
		logger = slog.Default()
	}

	return &tracelog.TraceLog{
		Logger: tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
			attrs := make([]slog.Attr, 0, len(data))
			for k, v := range data {
				attrs = append(attrs, slog.Any(k, v))
			}
			logger.LogAttrs(ctx, slogLevel(level), msg, attrs...)
		}),
		LogLevel: tracelog.LogLevelDebug,
	}
}

func slogLevel(level tracelog.LogLevel) slog.Level {
	switch level {
	case tracelog.LogLevelError:
		return slog.LevelError
	case tracelog.LogLevelWarn:
		return slog.LevelWarn
	case tracelog.LogLevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
