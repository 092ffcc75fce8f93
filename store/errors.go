// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"errors"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("record already exists")
	ErrDepartmentNotEmpty = errors.New("department still has staff members")
	ErrSelfDelete         = errors.New("cannot delete your own account")
	ErrUserInUse          = errors.New("user has created departments or added staff")
	ErrInvalidRole        = errors.New("invalid role")
	// ErrInvalidReference means a row pointed at a department or user that
	// does not exist.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// isUniqueViolation reports whether err is a unique constraint failure from
// PostgreSQL (SQLSTATE 23505) or SQLite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// isForeignKeyViolation reports whether err is a foreign key failure from
// PostgreSQL (SQLSTATE 23503) or SQLite.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}
