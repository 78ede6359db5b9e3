package storage

import (
	"context"
)

// Row is a single record as returned by a backend, keyed by column name.
// Columns of an embedded table are nested as a Row under that table's name.
type Row = map[string]any

// Backend defines the row-oriented operations the interview data client
// needs from a remote relational store
type Backend interface {
	// Select returns the rows matching q. An empty result is not an error.
	Select(ctx context.Context, q Query) ([]Row, error)

	// Insert writes one row into table and returns it as stored, restricted
	// to the returning columns. With no returning columns the row is nil.
	Insert(ctx context.Context, table string, values Row, returning ...string) (Row, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// Migrator is implemented by backends that own their schema
type Migrator interface {
	Migrate(ctx context.Context) error
}
