package kanban

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupFailed marks an item whose inventory lookup failed; the item is skipped
	ErrLookupFailed = errors.New("item lookup failed")
	// ErrEmptyItemCode is returned for blank item codes
	ErrEmptyItemCode = errors.New("item code is empty")
	// ErrMissingImage is returned when a card would be built without an image
	ErrMissingImage = errors.New("card image is missing")
)

// LookupError describes why an item was skipped
type LookupError struct {
	ItemCode string
	Cause    error
}

// NewLookupError creates a LookupError for the given item
func NewLookupError(itemCode string, cause error) *LookupError {
	return &LookupError{ItemCode: itemCode, Cause: cause}
}

func (e *LookupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lookup of item %q failed: %v", e.ItemCode, e.Cause)
	}
	return fmt.Sprintf("lookup of item %q failed", e.ItemCode)
}

// Unwrap returns the underlying cause
func (e *LookupError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match ErrLookupFailed for every LookupError
func (e *LookupError) Is(target error) bool {
	return target == ErrLookupFailed
}
