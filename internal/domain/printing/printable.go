package printing

import (
	"fmt"
	"slices"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/shopspring/decimal"
)

// PrintItem is one row of a printable document
type PrintItem struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Value returns the field value for a column key
func (i PrintItem) Value(key string) (any, bool) {
	if key == "id" {
		return i.ID, true
	}
	v, ok := i.Fields[key]
	return v, ok
}

// PrintMetadata is the document heading
type PrintMetadata struct {
	Title     string     `json:"title,omitempty"`
	Subtitle  string     `json:"subtitle,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// PrintableData is the generic document shape produced by an adapter.
// Items keep the adapter's order.
type PrintableData struct {
	Items    []PrintItem                `json:"items"`
	Totals   map[string]decimal.Decimal `json:"totals,omitempty"`
	Metadata *PrintMetadata             `json:"metadata,omitempty"`
}

// Validate checks that item ids are present and unique
func (d PrintableData) Validate() error {
	seen := make(map[string]struct{}, len(d.Items))
	for i, item := range d.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item %d", ErrEmptyItemID, i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateItemID, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// PrintColumnDefinition is the part of a column definition needed to render it
type PrintColumnDefinition struct {
	Key        string          `json:"key"`
	Label      string          `json:"label"`
	Align      grid.Alignment  `json:"align"`
	Type       grid.ColumnType `json:"type,omitempty"`
	Sortable   bool            `json:"sortable,omitempty"`
	Filterable bool            `json:"filterable,omitempty"`
}

// IsNumeric reports whether the column carries totals
func (c PrintColumnDefinition) IsNumeric() bool {
	return c.Type.IsNumeric()
}

// PrintColumnsFromGrid projects grid column definitions onto print columns,
// keeping the caller's order.
func PrintColumnsFromGrid(defs []grid.ColumnDefinition) []PrintColumnDefinition {
	out := make([]PrintColumnDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, PrintColumnDefinition{
			Key:        d.Key,
			Label:      d.Label,
			Align:      d.EffectiveAlign(),
			Type:       d.EffectiveType(),
			Sortable:   d.Sortable,
			Filterable: d.Filterable,
		})
	}
	return out
}

// ValidatePrintColumns rejects empty or colliding keys
func ValidatePrintColumns(cols []PrintColumnDefinition) error {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if c.Key == "" {
			return ErrEmptyColumnKey
		}
		if _, dup := seen[c.Key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumnKey, c.Key)
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}

// ZeroTotals returns a zero total for every numeric column
func ZeroTotals(cols []PrintColumnDefinition) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, c := range cols {
		if c.IsNumeric() {
			totals[c.Key] = decimal.Zero
		}
	}
	return totals
}

// PrintRowMarker marks the row index before which a section banner is
// inserted. Index may equal len(items) for a trailing banner.
type PrintRowMarker struct {
	Index      int                        `json:"index"`
	Type       MarkerType                 `json:"type"`
	Label      string                     `json:"label"`
	CategoryID string                     `json:"categoryId,omitempty"`
	Subtotals  map[string]decimal.Decimal `json:"subtotals,omitempty"`
}

// SortMarkers returns the markers stably sorted by index. Markers sharing an
// index keep their relative order.
func SortMarkers(markers []PrintRowMarker) []PrintRowMarker {
	out := slices.Clone(markers)
	slices.SortStableFunc(out, func(a, b PrintRowMarker) int {
		return a.Index - b.Index
	})
	return out
}

// ValidateMarkers checks marker types and index bounds against itemCount
func ValidateMarkers(markers []PrintRowMarker, itemCount int) error {
	for i, m := range markers {
		if m.Index < 0 || m.Index > itemCount {
			return fmt.Errorf("%w: marker %d index %d outside [0, %d]", ErrInvalidMarker, i, m.Index, itemCount)
		}
		if !m.Type.IsValid() {
			return fmt.Errorf("%w: marker %d type %q", ErrInvalidMarker, i, m.Type)
		}
	}
	return nil
}
