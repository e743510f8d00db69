package postgres

import (
	"errors"

	"github.com/lib/pq"

	"rentrush-backend/internal/domain"
)

// storeError classifies a driver error. Serialization failures and
// deadlocks stay persistence errors; the caller decides whether to retry.
func storeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			return domain.Wrap(domain.ErrValidation, domain.ReasonInvalidField, err, "%s: referenced record does not exist", op)
		case "23505":
			return domain.Wrap(domain.ErrStateConflict, domain.ReasonInvalidField, err, "%s: duplicate record", op)
		case "23514":
			return domain.Wrap(domain.ErrValidation, domain.ReasonInvalidField, err, "%s: check constraint %s violated", op, pqErr.Constraint)
		case "40001", "40P01":
			return domain.Wrap(domain.ErrPersistence, domain.ReasonStoreFailure, err, "%s: concurrent update aborted", op)
		}
	}
	return domain.Wrap(domain.ErrPersistence, domain.ReasonStoreFailure, err, "%s", op)
}
