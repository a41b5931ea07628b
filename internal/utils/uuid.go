package utils

import (
	"github.com/google/uuid"
)

// NewInstrumentID returns a random identifier that is safe to embed in a
// reference URL path segment.
func NewInstrumentID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
