// Package adapters projects entity lists into the generic printable shape.
// Each entity kind is a thin configuration of the generic Adapter; the
// pagination engine never sees an entity type.
package adapters

import (
	"errors"
	"fmt"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// AdapterConfig binds one entity type to the printable shape
type AdapterConfig[T any] struct {
	Kind     string
	Year     int
	SubScope string

	Title    string
	Subtitle string

	// Columns are the caller's visible columns in display order
	Columns  []grid.ColumnDefinition
	Entities []T
	// Totals are precomputed by the data source. Numeric columns missing
	// from Totals are summed from the entities.
	Totals map[string]decimal.Decimal

	// Project maps an entity to a print row
	Project func(T) printing.PrintItem

	// Group returns the section an entity belongs to. Nil prints a flat
	// table. Entities must arrive ordered by group: a marker is emitted
	// wherever the group changes.
	Group          func(T) (id, label string)
	MarkerType     printing.MarkerType
	GroupSubtotals bool

	Now func() time.Time
}

// Adapter implements printing.PrintDataAdapter for entities of type T.
// Output is computed once at construction so every call returns the same
// document.
type Adapter[T any] struct {
	id      string
	columns []printing.PrintColumnDefinition
	data    printing.PrintableData
	markers []printing.PrintRowMarker
}

// NewAdapter validates cfg and projects its entities
func NewAdapter[T any](cfg AdapterConfig[T]) (*Adapter[T], error) {
	if cfg.Kind == "" {
		return nil, errors.New("adapter kind is required")
	}
	if cfg.Project == nil {
		return nil, fmt.Errorf("%s adapter: Project is required", cfg.Kind)
	}
	if err := grid.ValidateColumns(cfg.Columns); err != nil {
		return nil, fmt.Errorf("%s adapter: %w", cfg.Kind, err)
	}

	id := printing.DataIdentifier(cfg.Kind, cfg.Year, cfg.SubScope)
	if err := printing.ValidateDatasetID(id); err != nil {
		return nil, err
	}

	columns := printing.PrintColumnsFromGrid(cfg.Columns)
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	ts := now()

	items := make([]printing.PrintItem, 0, len(cfg.Entities))
	for _, e := range cfg.Entities {
		items = append(items, cfg.Project(e))
	}

	totals := printing.ZeroTotals(columns)
	for _, item := range items {
		addTo(totals, columns, item)
	}
	for k, v := range cfg.Totals {
		totals[k] = v
	}

	a := &Adapter[T]{
		id:      id,
		columns: columns,
		data: printing.PrintableData{
			Items:  items,
			Totals: totals,
			Metadata: &printing.PrintMetadata{
				Title:     cfg.Title,
				Subtitle:  cfg.Subtitle,
				Timestamp: &ts,
			},
		},
	}
	if cfg.Group != nil {
		a.markers = groupMarkers(cfg, columns, items)
	}
	if err := a.data.Validate(); err != nil {
		return nil, fmt.Errorf("%s adapter: %w", cfg.Kind, err)
	}
	return a, nil
}

// ToPrintableData implements printing.PrintDataAdapter
func (a *Adapter[T]) ToPrintableData() printing.PrintableData {
	items := make([]printing.PrintItem, len(a.data.Items))
	copy(items, a.data.Items)
	totals := make(map[string]decimal.Decimal, len(a.data.Totals))
	for k, v := range a.data.Totals {
		totals[k] = v
	}
	md := *a.data.Metadata
	return printing.PrintableData{Items: items, Totals: totals, Metadata: &md}
}

// GetColumnDefinitions implements printing.PrintDataAdapter
func (a *Adapter[T]) GetColumnDefinitions() []printing.PrintColumnDefinition {
	out := make([]printing.PrintColumnDefinition, len(a.columns))
	copy(out, a.columns)
	return out
}

// GetRowMarkers implements printing.PrintDataAdapter
func (a *Adapter[T]) GetRowMarkers() []printing.PrintRowMarker {
	if a.markers == nil {
		return nil
	}
	out := make([]printing.PrintRowMarker, len(a.markers))
	copy(out, a.markers)
	return out
}

// GetDataIdentifier implements printing.PrintDataAdapter
func (a *Adapter[T]) GetDataIdentifier() string {
	return a.id
}

func groupMarkers[T any](cfg AdapterConfig[T], columns []printing.PrintColumnDefinition, items []printing.PrintItem) []printing.PrintRowMarker {
	markerType := cfg.MarkerType
	if !markerType.IsValid() {
		markerType = printing.MarkerTypeCategory
	}

	markers := []printing.PrintRowMarker{}
	prev := ""
	for i, e := range cfg.Entities {
		id, label := cfg.Group(e)
		if i > 0 && id == prev {
			if cfg.GroupSubtotals {
				addTo(markers[len(markers)-1].Subtotals, columns, items[i])
			}
			continue
		}
		m := printing.PrintRowMarker{Index: i, Type: markerType, Label: label, CategoryID: id}
		if cfg.GroupSubtotals {
			m.Subtotals = printing.ZeroTotals(columns)
			addTo(m.Subtotals, columns, items[i])
		}
		markers = append(markers, m)
		prev = id
	}
	return markers
}

func addTo(sums map[string]decimal.Decimal, columns []printing.PrintColumnDefinition, item printing.PrintItem) {
	for _, c := range columns {
		if !c.IsNumeric() {
			continue
		}
		v, _ := item.Value(c.Key)
		if d, ok := v.(decimal.Decimal); ok {
			sums[c.Key] = sums[c.Key].Add(d)
		}
	}
}

var _ printing.PrintDataAdapter = (*Adapter[struct{}])(nil)
