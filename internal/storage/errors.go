package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("instrument not found")
	// The backend could not serve the request. The fallback provider retries
	// these against the secondary store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func unavailable(backend, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrStorageUnavailable, backend, op, err)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
