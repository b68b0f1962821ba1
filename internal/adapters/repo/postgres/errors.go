package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/phenrril/skinstore/internal/domain"
)

// translate maps gorm errors onto the domain sentinels. Domain errors raised
// inside a transaction pass through untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	}
	return err
}
