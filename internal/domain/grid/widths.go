package grid

import (
	"maps"
	"slices"
)

// ColumnWidths maps a column key to its pixel width
type ColumnWidths map[string]float64

// Clone returns an independent copy
func (w ColumnWidths) Clone() ColumnWidths {
	if w == nil {
		return ColumnWidths{}
	}
	return maps.Clone(w)
}

// Equal reports whether both maps hold the same widths
func (w ColumnWidths) Equal(other ColumnWidths) bool {
	return maps.Equal(w, other)
}

// DefaultWidths builds the initial width map for a column set
func DefaultWidths(columns []ColumnDefinition) ColumnWidths {
	widths := make(ColumnWidths, len(columns))
	for _, col := range columns {
		widths[col.Key] = col.InitialWidth()
	}
	return widths
}

// MergeWidths overlays saved widths on top of defaults. Unknown keys are dropped
// and every value is clamped to its column's bounds.
func MergeWidths(columns []ColumnDefinition, saved ColumnWidths) ColumnWidths {
	widths := DefaultWidths(columns)
	for _, col := range columns {
		if w, ok := saved[col.Key]; ok && w > 0 {
			widths[col.Key] = col.Clamp(w)
		}
	}
	return widths
}

func sortedKeys(w ColumnWidths) []string {
	return slices.Sorted(maps.Keys(w))
}
