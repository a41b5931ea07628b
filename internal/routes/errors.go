package routes

import (
	"errors"
	"net/http"

	"instrument-tracker/internal/importer"
	"instrument-tracker/internal/inventory"
	"instrument-tracker/internal/models"
	"instrument-tracker/internal/reference"
	"instrument-tracker/internal/storage"
	"instrument-tracker/internal/utils"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error    // The underlying error
	StatusCode int      // HTTP status code
	Message    string   // User-friendly message
	StopCodes  []string // Optional stop codes for client-side handling
	Internal   bool     // Whether this is an internal error (hide details from user)
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message   string
	StopCodes []string
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		StopCodes:  stopCodes,
		Internal:   statusCode >= 500,
	}
}

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInternalServer   = errors.New("internal server error")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:             http.StatusBadRequest,
	ErrMissingParameter:           http.StatusBadRequest,
	models.ErrValidation:          http.StatusBadRequest,
	reference.ErrInvalidReference: http.StatusBadRequest,
	inventory.ErrInvalidSelector:  http.StatusBadRequest,
	importer.ErrUnsupportedFormat: http.StatusBadRequest,

	// 404 Not Found
	storage.ErrNotFound: http.StatusNotFound,

	// 500 Internal Server Error
	ErrInternalServer:        http.StatusInternalServerError,
	utils.ErrServiceNotFound: http.StatusInternalServerError,
	utils.ErrInvalidService:  http.StatusInternalServerError,

	// 503 Service Unavailable
	storage.ErrStorageUnavailable: http.StatusServiceUnavailable,
}

// errorInfoMap maps errors to user-friendly messages and optional stop codes
var errorInfoMap = map[error]ErrorInfo{
	ErrInvalidRequest: {
		Message:   "Invalid request format",
		StopCodes: []string{"INVALID_REQUEST"},
	},
	ErrMissingParameter: {
		Message:   "Required parameter is missing",
		StopCodes: []string{"MISSING_PARAMETER"},
	},
	reference.ErrInvalidReference: {
		Message:   "The scanned code is not an instrument reference",
		StopCodes: []string{"INVALID_REFERENCE"},
	},
	inventory.ErrInvalidSelector: {
		Message:   "Unknown status filter",
		StopCodes: []string{"INVALID_FILTER"},
	},
	storage.ErrNotFound: {
		Message:   "Instrument not found",
		StopCodes: []string{"NOT_FOUND"},
	},

	ErrInternalServer: {
		Message: "An internal error occurred",
	},
	utils.ErrServiceNotFound: {
		Message: "Instrument service is not available",
	},
	utils.ErrInvalidService: {
		Message: "Instrument service configuration error",
	},
	storage.ErrStorageUnavailable: {
		Message:   "Instrument storage is temporarily unavailable",
		StopCodes: []string{"STORAGE_UNAVAILABLE"},
	},
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	if status, ok := errorStatusMap[err]; ok {
		return status
	}

	for knownErr, status := range errorStatusMap {
		if errors.Is(err, knownErr) {
			return status
		}
	}

	return http.StatusInternalServerError
}

// GetErrorInfo returns error information including message and stop codes
func GetErrorInfo(err error) ErrorInfo {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{
			Message:   httpErr.Message,
			StopCodes: httpErr.StopCodes,
		}
	}

	// Validation messages name the offending field, show them as is.
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return ErrorInfo{Message: verr.Message, StopCodes: []string{"VALIDATION_" + verr.Field}}
	}

	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for knownErr, info := range errorInfoMap {
		if errors.Is(err, knownErr) {
			return info
		}
	}

	if GetErrorStatus(err) >= 500 {
		return ErrorInfo{Message: "An internal error occurred"}
	}
	return ErrorInfo{Message: err.Error()}
}

func GetErrorMessage(err error) string {
	return GetErrorInfo(err).Message
}
