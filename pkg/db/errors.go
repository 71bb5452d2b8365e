package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided, the helper looks for the
// constraint text in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if constraintName != "" {
		return strings.Contains(err.Error(), constraintName) || pgConstraint(err) == constraintName
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || sqlState(err) == pgUniqueViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// TranslateError maps storage failures onto the domain taxonomy so raw driver
// errors never leave the repository layer. Typed errors pass through untouched.
func TranslateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	case IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, entity+" already exists").
			WithDetails(constraintDetails(err))
	case isForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeInvalidData, err, entity+" references a missing record").
			WithDetails(constraintDetails(err))
	case isCheckViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeInvalidData, err, entity+" violates a database constraint").
			WithDetails(constraintDetails(err))
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "database failure on "+entity)
	}
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) || sqlState(err) == pgForeignKeyViolation {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isCheckViolation(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	switch sqlState(err) {
	case pgCheckViolation, pgNotNullViolation:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "CHECK constraint failed") || strings.Contains(msg, "NOT NULL constraint failed")
}

func sqlState(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func pgConstraint(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func constraintDetails(err error) map[string]string {
	if name := pgConstraint(err); name != "" {
		return map[string]string{"constraint": name}
	}
	return nil
}
