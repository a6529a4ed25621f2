package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"gorm.io/gorm"
)

// Classify maps raw GORM/driver errors onto the service error taxonomy.
// Repositories return driver errors untouched; services run every repository
// failure through here before wrapping it with operation context.
func Classify(err error) pkgerrors.Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), IsUniqueViolation(err, ""):
		return pkgerrors.CodeDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated), isForeignKeyViolation(err):
		return pkgerrors.CodeDependency
	default:
		return pkgerrors.CodeInternal
	}
}

// Wrap classifies err and returns a typed error carrying the given message.
func Wrap(err error, message string) *pkgerrors.Error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(Classify(err), err, message)
}

// IsNotFound reports whether err represents a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation. When constraintName is provided, the helper looks for the
// constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	// 23505 is the Postgres unique_violation SQLSTATE; the sqlite driver
	// reports "UNIQUE constraint failed" instead.
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") ||
		strings.Contains(msg, "SQLSTATE 23503") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed")
}
