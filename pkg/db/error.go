package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// IsTransientErr reports whether a store error is worth a single automatic
// retry (lock contention, dropped connection) as opposed to a business
// validation failure, which must never be retried.
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), // SQLite busy
		strings.Contains(msg, "deadlock detected"),               // PostgreSQL 40P01
		strings.Contains(msg, "could not serialize access"),      // PostgreSQL 40001
		strings.Contains(msg, "Deadlock found"),                  // MySQL 1213
		strings.Contains(msg, "connection reset by peer"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "bad connection"):
		return true
	}
	return false
}
