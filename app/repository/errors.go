package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

// translate maps gorm/driver errors onto the service taxonomy.
// Each call is a single attempt; nothing here retries.
func translate(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s %s not found", entity, id)
	}
	return apperror.Unavailable(op, err)
}
