package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory for documents
	BasePath string
	// BaseURL is the URL prefix documents are served under
	BaseURL string
	// Logger for operations
	Logger *zap.Logger
}

// FileSystemStorage stores documents on the local file system
type FileSystemStorage struct {
	basePath string
	baseURL  string
	logger   *zap.Logger
}

// NewFileSystemStorage creates the base directory if needed
func NewFileSystemStorage(cfg *FileSystemStorageConfig) (*FileSystemStorage, error) {
	if cfg == nil {
		cfg = &FileSystemStorageConfig{}
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./data/exports"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "/api/v1/print/exports"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}

	return &FileSystemStorage{basePath: absBase, baseURL: baseURL, logger: logger}, nil
}

// resolve maps a key to a path under the base directory
func (s *FileSystemStorage) resolve(key string) (string, string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		s.logger.Warn("Blocked invalid storage key", zap.String("key", key))
		return "", "", err
	}
	full := filepath.Join(s.basePath, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(full, s.basePath+string(filepath.Separator)) {
		s.logger.Warn("Path escape attempt blocked", zap.String("key", key), zap.String("path", full))
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, full, nil
}

// Store writes the document through a temp file so readers never see a
// partial document.
func (s *FileSystemStorage) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil || len(req.Data) == 0 {
		return nil, errors.New("document data is empty")
	}
	key, full, err := s.resolve(req.Key)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(req.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	u := s.urlFor(key)
	s.logger.Info("Document stored",
		zap.String("key", key),
		zap.Int("size", len(req.Data)),
		zap.String("url", u))

	return &StoreResult{Key: key, URL: u, Size: int64(len(req.Data)), StoredAt: time.Now()}, nil
}

// Get opens a stored document
func (s *FileSystemStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return f, nil
}

// Delete removes a document
func (s *FileSystemStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.logger.Info("Document deleted", zap.String("key", key))
	return nil
}

// URL returns the download URL of a key
func (s *FileSystemStorage) URL(_ context.Context, key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return s.urlFor(cleaned), nil
}

func (s *FileSystemStorage) urlFor(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}

// CleanupOlderThan removes documents last written before now-age
func (s *FileSystemStorage) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(p); err == nil {
				deleted++
				s.logger.Debug("Deleted old document", zap.String("path", p))
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, fmt.Errorf("cleanup walk failed: %w", err)
	}

	s.logger.Info("Cleanup completed", zap.Int("deleted", deleted), zap.Duration("age", age))
	return deleted, nil
}

var _ DocumentStorage = (*FileSystemStorage)(nil)
