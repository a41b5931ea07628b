package utils

import "errors"

var (
	// Service lookup errors
	ErrServiceNotFound = errors.New("instrument service not available")
	ErrInvalidService  = errors.New("invalid instrument service")
)
