package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrStateConflict is returned when a conditional update matches no row
// because the record is no longer in the expected state.
var ErrStateConflict = errors.New("record is not in the expected state")

// ErrDuplicate is returned when an insert or update violates a unique index.
var ErrDuplicate = errors.New("record already exists")

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return errors.Wrap(err, msg)
}
