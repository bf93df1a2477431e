package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"llmaware/internal/errs"
)

// PostgreSQL error codes the stores translate into errs sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// writeError maps constraint failures on insert/update. A foreign key
// failure here means the row points at something that does not exist.
func writeError(err error, entity string) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return errs.Conflict(entity)
	case pgForeignKeyViolation:
		return errs.ErrInvalidReference
	}
	return nil
}

// deleteError maps constraint failures on delete. A foreign key failure
// here means other rows still reference the one being removed.
func deleteError(err error, entity string) error {
	if pgCode(err) == pgForeignKeyViolation {
		return errs.InUse(entity)
	}
	return nil
}
