package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks bad input: unknown category, unparsable date.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable marks a failed store round trip.
	ErrStoreUnavailable = errors.New("store unavailable")

	errUnknownStrategy = errors.New("unknown weight strategy")
)

// storeErr wraps a gorm error, keeping the original for logs.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s: already exists", ErrValidation, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
