// Package storage keeps exported print documents on the local file system or
// in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/erp/workstation/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a stored document does not exist
var ErrNotFound = errors.New("document not found")

// ErrInvalidKey is returned for empty keys and keys escaping the storage root
var ErrInvalidKey = errors.New("invalid storage key")

// DocumentStorage stores rendered export documents by key. Keys are slash
// separated relative paths such as "budget-2026/budget-2026-3f9a.pdf".
type DocumentStorage interface {
	// Store writes the document, replacing any document under the same key
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Get opens a stored document
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns a location the document can be downloaded from
	URL(ctx context.Context, key string) (string, error)
}

// StoreRequest is a document to store
type StoreRequest struct {
	Key         string
	ContentType string
	Data        []byte
}

// StoreResult describes a stored document
type StoreResult struct {
	Key      string
	URL      string
	Size     int64
	StoredAt time.Time
}

// New builds the storage selected by cfg.Type
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (DocumentStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Type {
	case "", "filesystem":
		return NewFileSystemStorage(&FileSystemStorageConfig{
			BasePath: cfg.BasePath,
			Logger:   logger,
		})
	case "s3":
		s, err := NewS3Storage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// CleanKey validates a storage key and returns it in canonical form
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.ContainsRune(key, '\\') || containsDotDot(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// containsDotDot checks the raw key so traversal is rejected before any
// normalization could hide it
func containsDotDot(key string) bool {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '/'
	})
	return slices.Contains(parts, "..")
}
