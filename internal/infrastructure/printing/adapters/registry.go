package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// Params carries what every adapter needs besides its entities
type Params struct {
	Year     int
	SubScope string
	Title    string
	Subtitle string
	// Columns are the caller's visible columns. Empty uses the kind's defaults.
	Columns []grid.ColumnDefinition
	Totals  map[string]decimal.Decimal
	Now     func() time.Time
}

func (p Params) titleOr(def string) string {
	if p.Title != "" {
		return p.Title
	}
	return def
}

func (p Params) columnsOr(def func() []grid.ColumnDefinition) []grid.ColumnDefinition {
	if len(p.Columns) > 0 {
		return p.Columns
	}
	return def()
}

// Factory builds an adapter from JSON-encoded entities of one kind
type Factory func(p Params, entities json.RawMessage) (printing.PrintDataAdapter, error)

type registration struct {
	factory Factory
	columns func() []grid.ColumnDefinition
}

// Registry manages the adapter factories of every printable entity kind
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]registration
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]registration)}
}

// NewDefaultRegistry registers the built-in kinds
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindBudget, decoding(NewBudgetAdapter), BudgetColumns)
	r.Register(KindFunds, decoding(NewFundsAdapter), FundsColumns)
	r.Register(KindAccessRequest, decoding(NewAccessRequestAdapter), AccessRequestColumns)
	r.Register(KindActivityLog, decoding(NewActivityLogAdapter), ActivityLogColumns)
	return r
}

// Register adds a kind. An existing registration for the kind is replaced.
func (r *Registry) Register(kind string, factory Factory, defaultColumns func() []grid.ColumnDefinition) {
	if kind == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = registration{factory: factory, columns: defaultColumns}
}

// Build creates the adapter for kind
func (r *Registry) Build(kind string, p Params, entities json.RawMessage) (printing.PrintDataAdapter, error) {
	r.mu.RLock()
	reg, ok := r.kinds[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", printing.ErrUnknownKind, kind)
	}
	return reg.factory(p, entities)
}

// Load fetches the entities of kind from src and builds the adapter
func (r *Registry) Load(ctx context.Context, src EntitySource, kind string, p Params) (printing.PrintDataAdapter, error) {
	if !r.HasKind(kind) {
		return nil, fmt.Errorf("%w: %q", printing.ErrUnknownKind, kind)
	}
	set, err := src.Entities(ctx, Scope{Kind: kind, Year: p.Year, SubScope: p.SubScope})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s entities: %w", kind, err)
	}
	if p.Totals == nil {
		p.Totals = set.Totals
	}
	return r.Build(kind, p, set.Entities)
}

// DefaultColumns returns the default columns of kind
func (r *Registry) DefaultColumns(kind string) ([]grid.ColumnDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.kinds[kind]
	if !ok || reg.columns == nil {
		return nil, ok
	}
	return reg.columns(), true
}

// HasKind checks if a factory is registered for kind
func (r *Registry) HasKind(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.kinds[kind]
	return ok
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// decoding adapts a typed constructor to a Factory. Null or absent entities
// decode to an empty list.
func decoding[T any, A printing.PrintDataAdapter](build func(Params, []T) (A, error)) Factory {
	return func(p Params, raw json.RawMessage) (printing.PrintDataAdapter, error) {
		var entities []T
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			if err := json.Unmarshal(trimmed, &entities); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidEntities, err)
			}
		}
		a, err := build(p, entities)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}
