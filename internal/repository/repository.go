package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrVersionConflict means an optimistic update matched no row: someone
	// else bumped the version first.
	ErrVersionConflict = errors.New("repository: version conflict")
	// ErrEstadoCambiado means a conditional state transition matched no row.
	ErrEstadoCambiado = errors.New("repository: state changed concurrently")
)

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

// conn returns tx when a transaction is in progress, otherwise the base db.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// forUpdate adds SELECT … FOR UPDATE. Only meaningful inside a transaction;
// drivers without row locks ignore it.
func forUpdate(q *gorm.DB) *gorm.DB {
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
