package draft

import (
	"context"
	"sync"

	"github.com/erp/workstation/internal/domain/printing"
)

// MemoryStore keeps drafts in process memory. Drafts are stored encoded so a
// loaded draft never aliases the caller's value.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
	hub    *hub
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string][]byte),
		hub:    newHub(),
	}
}

// Load implements printing.DraftStore
func (s *MemoryStore) Load(_ context.Context, datasetID string) (*printing.PrintDraft, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.drafts[datasetID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeDraft(datasetID, data)
}

// Save implements printing.DraftStore
func (s *MemoryStore) Save(ctx context.Context, datasetID string, d *printing.PrintDraft) error {
	data, err := encodeDraft(datasetID, d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[datasetID] = data
	s.mu.Unlock()

	s.hub.publish(newChange(ctx, datasetID, printing.DraftSaved))
	return nil
}

// Delete implements printing.DraftStore
func (s *MemoryStore) Delete(ctx context.Context, datasetID string) error {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return err
	}
	s.mu.Lock()
	_, existed := s.drafts[datasetID]
	delete(s.drafts, datasetID)
	s.mu.Unlock()

	if existed {
		s.hub.publish(newChange(ctx, datasetID, printing.DraftDeleted))
	}
	return nil
}

// HasDraft implements printing.DraftStore
func (s *MemoryStore) HasDraft(_ context.Context, datasetID string) (bool, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.drafts[datasetID]
	return ok, nil
}

// Watch implements printing.DraftStore
func (s *MemoryStore) Watch(ctx context.Context, datasetID string) (<-chan printing.DraftChange, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	return s.hub.subscribe(ctx, datasetID)
}

// Close ends every watch
func (s *MemoryStore) Close() error {
	s.hub.close()
	return nil
}

var _ printing.DraftStore = (*MemoryStore)(nil)
