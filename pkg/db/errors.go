package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"gorm.io/gorm"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. When
// hint is provided the constraint name (or the driver message, for SQLite)
// must contain it, so callers can tell email collisions from national id ones.
func IsUniqueViolation(err error, hint string) bool {
	if err == nil {
		return false
	}

	constraint, ok := uniqueConstraint(err)
	if !ok {
		return false
	}
	if hint == "" {
		return true
	}
	return strings.Contains(constraint, hint) || strings.Contains(err.Error(), hint)
}

func uniqueConstraint(err error) (string, bool) {
	if pg, ok := pkgerrors.AsPG(err); ok {
		return pg.Constraint, pg.Code == uniqueViolationCode
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value"),
		strings.Contains(msg, "UNIQUE constraint failed"):
		return msg, true
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return msg, true
	}
	return "", false
}
