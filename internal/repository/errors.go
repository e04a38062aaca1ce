package repository

import (
	"errors"

	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// translateError maps store errors onto apperr kinds so callers never see driver types.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.ErrConflict, "", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Wrap(apperr.ErrConflict, "", err)
		case pgExclusionViolation:
			return apperr.Wrap(apperr.ErrSlotUnavailable, "", err)
		}
	}
	return apperr.Wrap(apperr.ErrPersistenceFailure, "", err)
}
