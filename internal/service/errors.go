package service

import (
	"errors"
	"fmt"

	"traffic-analytics-service/internal/repository"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("already exists")
	ErrStoreTimeout        = errors.New("data store timed out")
	ErrVideoNotCompleted   = errors.New("video processing is not completed")
	ErrDetectorUnavailable = errors.New("detector unavailable")
)

// storeError maps repository failures onto service sentinels, keeping op as context.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrTimeout):
		return fmt.Errorf("%s: %w", op, ErrStoreTimeout)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}
