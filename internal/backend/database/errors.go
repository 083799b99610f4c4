package database

import (
	"errors"
	"fmt"
)

var (
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrStorageOperationFailed = errors.New("storage operation failed")
	ErrDuplicateID            = errors.New("duplicate id")
	ErrNotFound               = errors.New("not found")
	ErrSchemaTooNew           = errors.New("schema version is newer than supported")
)

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

func operationFailed(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStorageOperationFailed, err)
}
