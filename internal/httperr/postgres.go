package httperr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlStateExclusionViolation = "23P01"
	sqlStateUniqueViolation    = "23505"
)

// IsExclusionConflict reports whether err comes from an exclusion
// constraint, i.e. the database refused overlapping rows.
func IsExclusionConflict(err error) bool {
	return hasSQLState(err, sqlStateExclusionViolation)
}

func IsUniqueViolation(err error) bool {
	return hasSQLState(err, sqlStateUniqueViolation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
