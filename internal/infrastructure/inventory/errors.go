package inventory

import "errors"

var (
	// ErrItemNotFound is returned when the service answers 404
	ErrItemNotFound = errors.New("inventory: item not found")
	// ErrRequestFailed is returned for transport errors and non-2xx answers
	ErrRequestFailed = errors.New("inventory: request failed")
	// ErrMalformedResponse is returned when the answer cannot be used
	ErrMalformedResponse = errors.New("inventory: malformed response")
	// ErrImageFetch is returned when a photo cannot be downloaded or decoded
	ErrImageFetch = errors.New("inventory: image fetch failed")
	// ErrMissingBaseURL is returned by NewClient without a base URL
	ErrMissingBaseURL = errors.New("inventory: base URL is required")
)
