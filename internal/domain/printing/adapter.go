package printing

import (
	"fmt"
	"strconv"
	"strings"
)

// PrintDataAdapter projects one entity type into the generic printable shape.
// Implementations are pure: the same bound entities always produce the same
// output.
type PrintDataAdapter interface {
	// ToPrintableData returns items, totals and metadata. An empty entity list
	// yields no items and zero totals.
	ToPrintableData() PrintableData

	// GetColumnDefinitions returns the caller's visible columns in order
	GetColumnDefinitions() []PrintColumnDefinition

	// GetRowMarkers returns section markers, or nil for a flat table
	GetRowMarkers() []PrintRowMarker

	// GetDataIdentifier returns "<kind>-<year>[-<subScope>]"
	GetDataIdentifier() string
}

// DataIdentifier builds the stable dataset key used for drafts and export
// filenames.
func DataIdentifier(kind string, year int, subScope string) string {
	parts := []string{slug(kind), strconv.Itoa(year)}
	if s := slug(subScope); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "-")
}

// ValidateDatasetID checks a dataset identifier is safe to use as a storage
// key and filename.
func ValidateDatasetID(id string) error {
	if id == "" || len(id) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidDatasetID, id)
	}
	for _, r := range id {
		if !isSlugRune(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidDatasetID, id, r)
		}
	}
	return nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if isSlugRune(r) && r != '-' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
