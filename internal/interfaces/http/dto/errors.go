package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeNotFound = "ERR_NOT_FOUND"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	// ErrCodeGenerationFailed is used when a card document could not be produced
	ErrCodeGenerationFailed = "ERR_GENERATION_FAILED"
	// ErrCodeStorageDisabled is used when documents are requested but not stored
	ErrCodeStorageDisabled = "ERR_STORAGE_DISABLED"
	// ErrCodeCanceled is used when the client went away mid-generation
	ErrCodeCanceled = "ERR_CANCELED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeGenerationFailed: http.StatusInternalServerError,
	ErrCodeStorageDisabled:  http.StatusNotFound,
	ErrCodeCanceled:         http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
