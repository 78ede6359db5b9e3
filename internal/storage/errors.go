package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsConstraintViolation reports whether err carries an integrity constraint
// failure (SQLSTATE class 23 or SQLITE_CONSTRAINT) from any supported backend.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	var restErr *PostgRESTError
	if errors.As(err, &restErr) {
		return strings.HasPrefix(restErr.Code, "23")
	}

	return false
}

// IsDataException reports whether err carries a SQLSTATE class 22 failure,
// such as a malformed uuid (22P02) in a filter. SQLite has no equivalent
// class and stores mismatched values as given.
func IsDataException(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "22")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "22"
	}

	var restErr *PostgRESTError
	if errors.As(err, &restErr) {
		return strings.HasPrefix(restErr.Code, "22")
	}

	return false
}
