package grid

import (
	"fmt"
	"strings"

	"github.com/erp/workstation/internal/domain/shared"
)

// MaxTableIdentifierLength matches the column size of table_identifier
const MaxTableIdentifierLength = 100

// PinSide is where a column is frozen
type PinSide string

const (
	PinNone  PinSide = "none"
	PinLeft  PinSide = "left"
	PinRight PinSide = "right"
)

// IsValid checks if the PinSide is a valid value. Empty means none.
func (p PinSide) IsValid() bool {
	switch p {
	case "", PinNone, PinLeft, PinRight:
		return true
	}
	return false
}

// ColumnSetting is the persisted layout of one column
type ColumnSetting struct {
	FieldKey  string   `json:"fieldKey"`
	Width     float64  `json:"width"`
	IsVisible bool     `json:"isVisible"`
	Pinned    PinSide  `json:"pinned,omitempty"`
	Flex      *float64 `json:"flex,omitempty"`
}

// TableSettings is the aggregate root for a user's layout of one table.
// There is exactly one record per (UserID, TableIdentifier).
type TableSettings struct {
	shared.BaseAggregateRoot
	UserID           string
	TableIdentifier  string
	Columns          []ColumnSetting
	DefaultRowHeight *int
	CustomRowHeights map[string]int
}

// NewTableSettings creates a new settings record
func NewTableSettings(userID, tableIdentifier string, columns []ColumnSetting, defaultRowHeight *int, customRowHeights map[string]int) (*TableSettings, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrSettingsNotOwned
	}
	if err := ValidateTableIdentifier(tableIdentifier); err != nil {
		return nil, err
	}

	s := &TableSettings{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		TableIdentifier:   tableIdentifier,
	}
	if err := s.apply(columns, defaultRowHeight, customRowHeights); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the layout. Row heights follow patch semantics: a nil
// argument keeps the stored value.
func (s *TableSettings) Update(columns []ColumnSetting, defaultRowHeight *int, customRowHeights map[string]int) error {
	if defaultRowHeight == nil {
		defaultRowHeight = s.DefaultRowHeight
	}
	if customRowHeights == nil {
		customRowHeights = s.CustomRowHeights
	}
	if err := s.apply(columns, defaultRowHeight, customRowHeights); err != nil {
		return err
	}
	s.Touch()
	s.IncrementVersion()
	return nil
}

func (s *TableSettings) apply(columns []ColumnSetting, defaultRowHeight *int, customRowHeights map[string]int) error {
	if err := ValidateColumnSettings(columns); err != nil {
		return err
	}
	if err := validateRowHeights(defaultRowHeight, customRowHeights); err != nil {
		return err
	}

	cols := make([]ColumnSetting, len(columns))
	for i, c := range columns {
		if c.Pinned == "" {
			c.Pinned = PinNone
		}
		cols[i] = c
	}
	s.Columns = cols
	s.DefaultRowHeight = defaultRowHeight
	if customRowHeights != nil {
		heights := make(map[string]int, len(customRowHeights))
		for k, v := range customRowHeights {
			heights[k] = v
		}
		s.CustomRowHeights = heights
	} else {
		s.CustomRowHeights = nil
	}
	return nil
}

// Widths returns the persisted width of every column that has one
func (s *TableSettings) Widths() ColumnWidths {
	widths := make(ColumnWidths, len(s.Columns))
	for _, c := range s.Columns {
		if c.Width > 0 {
			widths[c.FieldKey] = c.Width
		}
	}
	return widths
}

// VisibleKeys returns the keys of visible columns in stored order
func (s *TableSettings) VisibleKeys() []string {
	keys := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.IsVisible {
			keys = append(keys, c.FieldKey)
		}
	}
	return keys
}

// ApplyWidths overlays widths onto the column list. Keys without a setting
// are appended as visible columns. Returns the resulting column list; the
// receiver is not modified.
func (s *TableSettings) ApplyWidths(widths ColumnWidths) []ColumnSetting {
	return ApplyWidths(s.Columns, widths)
}

// ApplyWidths overlays widths onto a column list, see TableSettings.ApplyWidths
func ApplyWidths(columns []ColumnSetting, widths ColumnWidths) []ColumnSetting {
	out := make([]ColumnSetting, 0, len(columns)+len(widths))
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if w, ok := widths[c.FieldKey]; ok && w > 0 {
			c.Width = w
		}
		seen[c.FieldKey] = struct{}{}
		out = append(out, c)
	}
	// deterministic order for new keys
	for _, key := range sortedKeys(widths) {
		if _, ok := seen[key]; ok || widths[key] <= 0 {
			continue
		}
		out = append(out, ColumnSetting{FieldKey: key, Width: widths[key], IsVisible: true, Pinned: PinNone})
	}
	return out
}

// ColumnSettingsFromDefinitions builds a default layout from column
// definitions, taking widths from the live map when present.
func ColumnSettingsFromDefinitions(defs []ColumnDefinition, widths ColumnWidths) []ColumnSetting {
	out := make([]ColumnSetting, 0, len(defs))
	for _, d := range defs {
		w, ok := widths[d.Key]
		if !ok || w <= 0 {
			w = d.InitialWidth()
		}
		out = append(out, ColumnSetting{FieldKey: d.Key, Width: d.Clamp(w), IsVisible: true, Pinned: PinNone})
	}
	return out
}

// ArrangeColumns orders definitions according to stored settings and drops
// hidden ones. Definitions unknown to the settings are appended in their
// declared order; settings for columns that no longer exist are ignored.
func ArrangeColumns(defs []ColumnDefinition, settings []ColumnSetting) []ColumnDefinition {
	byKey := make(map[string]ColumnDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	out := make([]ColumnDefinition, 0, len(defs))
	placed := make(map[string]struct{}, len(settings))
	for _, s := range settings {
		d, ok := byKey[s.FieldKey]
		if !ok {
			continue
		}
		placed[s.FieldKey] = struct{}{}
		if s.IsVisible {
			out = append(out, d)
		}
	}
	for _, d := range defs {
		if _, ok := placed[d.Key]; !ok {
			out = append(out, d)
		}
	}
	return out
}

// ValidateTableIdentifier checks a table identifier
func ValidateTableIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidTableID
	}
	if len(id) > MaxTableIdentifierLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidTableID, MaxTableIdentifierLength)
	}
	return nil
}

// ValidateColumnSettings checks that field keys are present and unique and
// that numeric attributes are positive.
func ValidateColumnSettings(columns []ColumnSetting) error {
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c.FieldKey == "" {
			return fmt.Errorf("%w: column %d has no field key", ErrInvalidSetting, i)
		}
		if _, dup := seen[c.FieldKey]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumnKey, c.FieldKey)
		}
		seen[c.FieldKey] = struct{}{}

		if c.Width < 0 {
			return fmt.Errorf("%w: column %q width must not be negative", ErrInvalidSetting, c.FieldKey)
		}
		if !c.Pinned.IsValid() {
			return fmt.Errorf("%w: column %q pinned %q", ErrInvalidSetting, c.FieldKey, c.Pinned)
		}
		if c.Flex != nil && *c.Flex <= 0 {
			return fmt.Errorf("%w: column %q flex must be positive", ErrInvalidSetting, c.FieldKey)
		}
	}
	return nil
}

func validateRowHeights(defaultRowHeight *int, custom map[string]int) error {
	if defaultRowHeight != nil && *defaultRowHeight <= 0 {
		return ErrInvalidRowHeights
	}
	for row, h := range custom {
		if h <= 0 {
			return fmt.Errorf("%w: row %q", ErrInvalidRowHeights, row)
		}
	}
	return nil
}
