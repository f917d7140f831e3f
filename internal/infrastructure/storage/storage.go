// Package storage keeps generated card documents.
//
// FileSystemStorage writes documents below a base directory, S3Storage puts
// them into an S3-compatible bucket and MemoryStorage keeps them in the process.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no document has the requested name
	ErrNotFound = errors.New("storage: document not found")
	// ErrInvalidName is returned for empty names and names containing path elements
	ErrInvalidName = errors.New("storage: invalid document name")
	// ErrEmptyDocument is returned when storing no data
	ErrEmptyDocument = errors.New("storage: document is empty")
)

// DocumentStore saves and loads finished documents by name
type DocumentStore interface {
	// Store saves a document and returns where it can be fetched
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Get opens a stored document by name
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes a document; deleting a missing document is not an error
	Delete(ctx context.Context, name string) error
}

// StoreRequest contains the parameters for storing a document
type StoreRequest struct {
	Name        string
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// StoreResult contains the result of storing a document
type StoreResult struct {
	// Key is the backend specific location (relative path or object key)
	Key string
	// Location is where a client can download the document
	Location string
	Size     int64
}

// ValidateName rejects names that could address anything but a single file
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	if path.Clean(name) != name {
		return ErrInvalidName
	}
	return nil
}

func validateRequest(req *StoreRequest) error {
	if req == nil {
		return errors.New("storage: store request is nil")
	}
	if err := ValidateName(req.Name); err != nil {
		return err
	}
	if len(req.Data) == 0 {
		return ErrEmptyDocument
	}
	return nil
}
