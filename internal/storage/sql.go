package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names registered with database/sql
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLBackend implements Backend on database/sql, for lib/pq and SQLite
type SQLBackend struct {
	db      *sql.DB
	dialect dialect
}

// SQLConfig holds database/sql connection configuration
type SQLConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// NewSQLBackend opens and pings a database/sql backend
func NewSQLBackend(ctx context.Context, cfg SQLConfig) (*SQLBackend, error) {
	var d dialect
	switch cfg.Driver {
	case DriverPostgres:
		d = postgresDialect
	case DriverSQLite:
		d = sqliteDialect
	default:
		return nil, fmt.Errorf("unsupported sql driver: %q", cfg.Driver)
	}

	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer; in-memory databases also vanish
		// once their last connection closes.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.MaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	return &SQLBackend{db: db, dialect: d}, nil
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off per
// connection unless asked
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// DB returns the underlying sql.DB
func (b *SQLBackend) DB() *sql.DB {
	return b.db
}

// Ping checks database connectivity
func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the database handle
func (b *SQLBackend) Close() error {
	return b.db.Close()
}

// Select runs q and returns the matching rows
func (b *SQLBackend) Select(ctx context.Context, q Query) ([]Row, error) {
	query, args, err := b.dialect.selectSQL(q)
	if err != nil {
		return nil, fmt.Errorf("invalid query on %s: %w", q.Table, err)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", q.Table, err)
	}

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", q.Table, err)
	}

	for i := range out {
		out[i] = nestEmbedded(out[i], q.Embeds)
	}
	return out, nil
}

// Insert writes a single row, returning the requested columns
func (b *SQLBackend) Insert(ctx context.Context, table string, values Row, returning ...string) (Row, error) {
	query, args, err := b.dialect.insertSQL(table, values, returning)
	if err != nil {
		return nil, err
	}

	if len(returning) == 0 {
		if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil, nil
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("insert into %s returned %d rows, expected 1", table, len(out))
	}
	return out[0], nil
}

// Migrate applies the embedded migrations for this backend's dialect
func (b *SQLBackend) Migrate(ctx context.Context) error {
	return runSQLMigrations(ctx, b.db, b.dialect)
}

// scanRows reads every row into a column-keyed map and closes rows
func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, c := range columns {
			// Text-like columns may arrive as bytes depending on the driver.
			if raw, ok := values[i].([]byte); ok {
				row[c] = string(raw)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
