package persistence

import (
	"errors"

	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm and driver errors onto domain errors.
// Domain errors pass through untouched; anything the storage layer raised
// other than a missing row becomes a retryable PersistenceFailure that
// keeps the original error as its cause.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}

	return shared.ErrPersistenceFailure.Wrap(err)
}
