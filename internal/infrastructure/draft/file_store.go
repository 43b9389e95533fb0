package draft

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

const (
	draftFileExt    = ".json"
	externalSource  = "external"
	tempFilePattern = ".draft-*.tmp"
)

// fileState is the last content this store saw for a draft file
type fileState struct {
	sum     [32]byte
	present bool
}

// FileStore keeps one JSON file per dataset in a directory. Writes go through
// a temp file and rename so readers never see a torn draft.
type FileStore struct {
	dir    string
	prefix string
	logger *zap.Logger
	hub    *hub

	mu    sync.Mutex
	known map[string]fileState

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// FileStoreOption configures a FileStore
type FileStoreOption func(*FileStore)

// WithFileKeyPrefix overrides the file name prefix
func WithFileKeyPrefix(prefix string) FileStoreOption {
	return func(s *FileStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithFileLogger sets the logger
func WithFileLogger(logger *zap.Logger) FileStoreOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// NewFileStore creates the directory if needed and starts watching it for
// changes made by other processes.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("draft directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create draft directory: %w", err)
	}

	s := &FileStore{
		dir:    dir,
		prefix: printing.DefaultDraftKeyPrefix,
		logger: zap.NewNop(),
		hub:    newHub(),
		known:  make(map[string]fileState),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create draft watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch draft directory: %w", err)
	}
	s.watcher = watcher
	go s.watchLoop()

	return s, nil
}

func (s *FileStore) fileName(datasetID string) string {
	return printing.DraftKey(s.prefix, datasetID) + draftFileExt
}

// datasetFromFile maps a file name back to its dataset id
func (s *FileStore) datasetFromFile(name string) (string, bool) {
	base, ok := strings.CutSuffix(name, draftFileExt)
	if !ok {
		return "", false
	}
	id, ok := strings.CutPrefix(base, s.prefix+"-")
	if !ok || printing.ValidateDatasetID(id) != nil {
		return "", false
	}
	return id, true
}

// Load implements printing.DraftStore
func (s *FileStore) Load(_ context.Context, datasetID string) (*printing.PrintDraft, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, s.fileName(datasetID)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return decodeDraft(datasetID, data)
}

// Save implements printing.DraftStore
func (s *FileStore) Save(ctx context.Context, datasetID string, d *printing.PrintDraft) error {
	data, err := encodeDraft(datasetID, d)
	if err != nil {
		return err
	}
	name := s.fileName(datasetID)

	tmp, err := os.CreateTemp(s.dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("failed to create draft file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write draft: %w", err)
	}

	// record the hash first so the watcher recognizes our own rename
	s.mu.Lock()
	s.known[name] = fileState{sum: blake3.Sum256(data), present: true}
	s.mu.Unlock()

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace draft: %w", err)
	}

	s.hub.publish(newChange(ctx, datasetID, printing.DraftSaved))
	return nil
}

// Delete implements printing.DraftStore
func (s *FileStore) Delete(ctx context.Context, datasetID string) error {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return err
	}
	name := s.fileName(datasetID)

	s.mu.Lock()
	s.known[name] = fileState{}
	s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	s.hub.publish(newChange(ctx, datasetID, printing.DraftDeleted))
	return nil
}

// HasDraft implements printing.DraftStore
func (s *FileStore) HasDraft(_ context.Context, datasetID string) (bool, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, s.fileName(datasetID)))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat draft: %w", err)
	}
	return true, nil
}

// Watch implements printing.DraftStore
func (s *FileStore) Watch(ctx context.Context, datasetID string) (<-chan printing.DraftChange, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	return s.hub.subscribe(ctx, datasetID)
}

func (s *FileStore) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Draft directory watch error", zap.Error(err))
		}
	}
}

// handleEvent publishes changes made outside this store. Our own writes are
// recognized by content hash and skipped.
func (s *FileStore) handleEvent(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	datasetID, ok := s.datasetFromFile(name)
	if !ok {
		return
	}

	var change printing.DraftChangeType
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		data, err := os.ReadFile(ev.Name)
		if err != nil {
			return
		}
		next := fileState{sum: blake3.Sum256(data), present: true}
		s.mu.Lock()
		same := s.known[name] == next
		s.known[name] = next
		s.mu.Unlock()
		if same {
			return
		}
		change = printing.DraftSaved
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		s.mu.Lock()
		prev, seen := s.known[name]
		s.known[name] = fileState{}
		s.mu.Unlock()
		if seen && !prev.present {
			return
		}
		change = printing.DraftDeleted
	default:
		return
	}

	s.logger.Debug("Draft changed outside this process",
		zap.String("dataset_id", datasetID),
		zap.String("type", string(change)))
	s.hub.publish(printing.DraftChange{
		DatasetID: datasetID,
		Type:      change,
		Source:    externalSource,
		Timestamp: timeNow(),
	})
}

// Close stops the directory watch and ends every Watch channel
func (s *FileStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.watcher.Close()
		s.hub.close()
	})
	return err
}

var _ printing.DraftStore = (*FileStore)(nil)
