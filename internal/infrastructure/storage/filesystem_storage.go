package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/kanban/internal/domain/kanban"
)

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory for documents
	// Default: ./data/kanban
	BasePath string
	// BaseURL is the URL prefix for downloading documents
	// Default: /api/v1/kanban/documents
	BaseURL string
	// Logger for operations
	Logger *zap.Logger
}

// FileSystemStorage stores documents on the local file system
type FileSystemStorage struct {
	config *FileSystemStorageConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewFileSystemStorage creates a new file system based document storage
func NewFileSystemStorage(config *FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config == nil {
		config = &FileSystemStorageConfig{}
	}
	if config.BasePath == "" {
		config.BasePath = "./data/kanban"
	}
	if config.BaseURL == "" {
		config.BaseURL = "/api/v1/kanban/documents"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", config.BasePath, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStorage{
		config: config,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Store writes the document to {base}/{year}/{month}/{name}. The month comes
// from the timestamp in the name when it has one.
func (s *FileSystemStorage) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	relativePath := s.datedPath(req)
	fullPath, err := s.resolve(relativePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// readers only ever see complete documents
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(req.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to move document into place: %w", err)
	}

	url := s.GetURL(req.Name)

	s.logger.Info("document stored",
		zap.String("path", fullPath),
		zap.Int("size", len(req.Data)),
		zap.String("url", url))

	return &StoreResult{
		Key:      filepath.ToSlash(relativePath),
		Location: url,
		Size:     int64(len(req.Data)),
	}, nil
}

// Get opens a stored document by name
func (s *FileSystemStorage) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		s.logger.Warn("blocked invalid document name", zap.String("name", name))
		return nil, err
	}

	for _, rel := range s.candidates(name) {
		fullPath, err := s.resolve(rel)
		if err != nil {
			return nil, err
		}
		file, err := os.Open(fullPath)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to open document: %w", err)
		}
	}
	return nil, ErrNotFound
}

// Delete removes a stored document
func (s *FileSystemStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	for _, rel := range s.candidates(name) {
		fullPath, err := s.resolve(rel)
		if err != nil {
			return err
		}
		if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}

	s.logger.Info("document deleted", zap.String("name", name))
	return nil
}

// CleanupOlderThan removes documents older than the specified duration
func (s *FileSystemStorage) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deletedCount := 0

	err := filepath.WalkDir(s.config.BasePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".pdf" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deletedCount++
				s.logger.Debug("deleted old document", zap.String("path", path))
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deletedCount, fmt.Errorf("cleanup walk failed: %w", err)
	}

	s.logger.Info("cleanup completed",
		zap.Int("deleted", deletedCount),
		zap.Duration("age", age))

	return deletedCount, nil
}

// GetURL returns the download URL for a document name
func (s *FileSystemStorage) GetURL(name string) string {
	return fmt.Sprintf("%s/%s", s.config.BaseURL, name)
}

func (s *FileSystemStorage) datedPath(req *StoreRequest) string {
	at, ok := kanban.ParseDocumentFilename(req.Name)
	if !ok {
		at = req.CreatedAt
	}
	if at.IsZero() {
		at = s.now()
	}
	return filepath.Join(fmt.Sprintf("%d", at.Year()), fmt.Sprintf("%02d", at.Month()), req.Name)
}

// candidates lists where a document with this name may live
func (s *FileSystemStorage) candidates(name string) []string {
	var out []string
	if at, ok := kanban.ParseDocumentFilename(name); ok {
		out = append(out, filepath.Join(fmt.Sprintf("%d", at.Year()), fmt.Sprintf("%02d", at.Month()), name))
	}
	return append(out, name)
}

// resolve joins rel to the base path and verifies the result stays inside it
func (s *FileSystemStorage) resolve(rel string) (string, error) {
	fullPath := filepath.Join(s.config.BasePath, rel)

	absBase, err := filepath.Abs(s.config.BasePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("path", rel),
			zap.String("absPath", absPath),
			zap.String("absBase", absBase))
		return "", ErrInvalidName
	}
	return fullPath, nil
}

var (
	_ DocumentStore = (*FileSystemStorage)(nil)
	_ Sweeper       = (*FileSystemStorage)(nil)
)
