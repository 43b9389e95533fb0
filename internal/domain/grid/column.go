package grid

import (
	"fmt"
	"math"
)

// Width defaults in CSS pixels
const (
	MinColumnWidth     = 60.0  // global floor when a column declares no minimum
	DefaultColumnWidth = 150.0 // initial width when a column declares no default
)

// ColumnType describes how a column's values are rendered
type ColumnType string

const (
	ColumnTypeText       ColumnType = "text"
	ColumnTypeNumber     ColumnType = "number"
	ColumnTypeCurrency   ColumnType = "currency"
	ColumnTypePercentage ColumnType = "percentage"
	ColumnTypeDate       ColumnType = "date"
)

// IsValid checks if the ColumnType is a valid value
func (t ColumnType) IsValid() bool {
	switch t {
	case ColumnTypeText, ColumnTypeNumber, ColumnTypeCurrency, ColumnTypePercentage, ColumnTypeDate:
		return true
	}
	return false
}

// IsNumeric returns true for types that carry totals
func (t ColumnType) IsNumeric() bool {
	return t == ColumnTypeNumber || t == ColumnTypeCurrency || t == ColumnTypePercentage
}

// Alignment is the horizontal alignment of a column's cells
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// IsValid checks if the Alignment is a valid value
func (a Alignment) IsValid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// ColumnDefinition declares one column of a table
type ColumnDefinition struct {
	Key          string     `json:"key"`
	Label        string     `json:"label"`
	Type         ColumnType `json:"type"`
	Align        Alignment  `json:"align"`
	Sortable     bool       `json:"sortable,omitempty"`
	Filterable   bool       `json:"filterable,omitempty"`
	MinWidth     *float64   `json:"minWidth,omitempty"`
	MaxWidth     *float64   `json:"maxWidth,omitempty"`
	DefaultWidth *float64   `json:"defaultWidth,omitempty"`
}

// Bounds returns the effective [min, max] width range.
// Without a declared minimum the global floor applies, lowered to the
// declared maximum when that is narrower; without a maximum the range is open.
func (c ColumnDefinition) Bounds() (minWidth, maxWidth float64) {
	maxWidth = math.Inf(1)
	if c.MaxWidth != nil {
		maxWidth = *c.MaxWidth
	}
	minWidth = math.Min(MinColumnWidth, maxWidth)
	if c.MinWidth != nil {
		minWidth = *c.MinWidth
	}
	return minWidth, maxWidth
}

// Clamp restricts width to the column's bounds
func (c ColumnDefinition) Clamp(width float64) float64 {
	if math.IsNaN(width) {
		width = 0
	}
	lo, hi := c.Bounds()
	if width < lo {
		return lo
	}
	if width > hi {
		return hi
	}
	return width
}

// InitialWidth is the width a column gets on mount or reset
func (c ColumnDefinition) InitialWidth() float64 {
	if c.DefaultWidth != nil {
		return c.Clamp(*c.DefaultWidth)
	}
	return c.Clamp(DefaultColumnWidth)
}

// EffectiveType returns the column type, treating an empty type as text
func (c ColumnDefinition) EffectiveType() ColumnType {
	if c.Type == "" {
		return ColumnTypeText
	}
	return c.Type
}

// EffectiveAlign returns the alignment, defaulting numeric columns to right
func (c ColumnDefinition) EffectiveAlign() Alignment {
	if c.Align != "" {
		return c.Align
	}
	if c.EffectiveType().IsNumeric() {
		return AlignRight
	}
	return AlignLeft
}

// ValidateColumns checks the invariants of a table's column set:
// keys are non-empty and unique, bounds are positive and ordered.
func ValidateColumns(columns []ColumnDefinition) error {
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if col.Key == "" {
			return ErrEmptyColumnKey
		}
		if _, dup := seen[col.Key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumnKey, col.Key)
		}
		seen[col.Key] = struct{}{}

		if col.Type != "" && !col.Type.IsValid() {
			return fmt.Errorf("%w: column %q has type %q", ErrInvalidColumnType, col.Key, col.Type)
		}
		if col.Align != "" && !col.Align.IsValid() {
			return fmt.Errorf("%w: column %q has alignment %q", ErrInvalidColumnType, col.Key, col.Align)
		}
		if col.MinWidth != nil && *col.MinWidth <= 0 {
			return fmt.Errorf("%w: column %q minWidth must be positive", ErrInvalidWidthBounds, col.Key)
		}
		if col.MaxWidth != nil && *col.MaxWidth <= 0 {
			return fmt.Errorf("%w: column %q maxWidth must be positive", ErrInvalidWidthBounds, col.Key)
		}
		if col.MinWidth != nil && col.MaxWidth != nil && *col.MinWidth > *col.MaxWidth {
			return fmt.Errorf("%w: column %q minWidth %.0f exceeds maxWidth %.0f",
				ErrInvalidWidthBounds, col.Key, *col.MinWidth, *col.MaxWidth)
		}
	}
	return nil
}

// FindColumn returns the column with the given key
func FindColumn(columns []ColumnDefinition, key string) (ColumnDefinition, bool) {
	for _, col := range columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnDefinition{}, false
}

// Width is a helper for building optional width bounds
func Width(px float64) *float64 {
	return &px
}
