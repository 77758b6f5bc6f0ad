package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"astrofeed/internal/domain/entity"
)

// mapError classifies a driver error into the repository taxonomy and wraps it
// as "op: kind: cause". Errors already carrying a taxonomy sentinel pass through.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if kind := classify(err); kind != nil {
		if errors.Is(err, kind) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %w", op, kind, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func classify(err error) error {
	switch {
	case errors.Is(err, entity.ErrNotFound),
		errors.Is(err, entity.ErrDuplicateKey),
		errors.Is(err, entity.ErrStorageUnavailable),
		errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrValidationFailed):
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return entity.ErrNotFound
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		strings.Contains(err.Error(), "database is closed"):
		return entity.ErrStorageUnavailable
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return entity.ErrDuplicateKey
		}
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			// foreign key, not null, check
			return entity.ErrInvalidInput
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY,
			sqlite3.SQLITE_INTERRUPT:
			return entity.ErrStorageUnavailable
		}
	}
	return nil
}

// errorType is the metrics label for a classified error.
func errorType(err error) string {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return "not_found"
	case errors.Is(err, entity.ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, entity.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrValidationFailed):
		return "invalid_input"
	default:
		return "other"
	}
}
