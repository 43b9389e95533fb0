package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidEntities is returned when entities do not decode into the kind's shape
	ErrInvalidEntities = errors.New("entities do not match the kind")
	// ErrNoEntities is returned by a source with nothing stored for a scope
	ErrNoEntities = errors.New("no entities for scope")
)

// Scope identifies one printable dataset
type Scope struct {
	Kind     string
	Year     int
	SubScope string
}

// DatasetID returns the dataset identifier of the scope
func (s Scope) DatasetID() string {
	return printing.DataIdentifier(s.Kind, s.Year, s.SubScope)
}

// EntitySet is the raw records of a scope plus their precomputed totals
type EntitySet struct {
	Entities json.RawMessage            `json:"entities"`
	Totals   map[string]decimal.Decimal `json:"totals,omitempty"`
}

// EntitySource is the read side the print pipeline pulls records from.
// Adapters are the only code that decode the records.
type EntitySource interface {
	Entities(ctx context.Context, scope Scope) (*EntitySet, error)
}

// MemorySource is an EntitySource backed by a map. It serves embedded
// deployments that push records in and tests.
type MemorySource struct {
	mu   sync.RWMutex
	sets map[Scope]EntitySet
}

// NewMemorySource creates an empty MemorySource
func NewMemorySource() *MemorySource {
	return &MemorySource{sets: make(map[Scope]EntitySet)}
}

// Put stores entities for scope, encoding them as JSON
func (s *MemorySource) Put(scope Scope, entities any, totals map[string]decimal.Decimal) error {
	raw, err := json.Marshal(entities)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[scope] = EntitySet{Entities: raw, Totals: totals}
	return nil
}

// Entities implements EntitySource
func (s *MemorySource) Entities(ctx context.Context, scope Scope) (*EntitySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[scope]
	if !ok {
		return nil, ErrNoEntities
	}
	return &set, nil
}

var _ EntitySource = (*MemorySource)(nil)
