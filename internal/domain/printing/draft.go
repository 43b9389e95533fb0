package printing

import (
	"context"
	"fmt"
	"time"
)

// CurrentDraftSchemaVersion is written into every new draft. Drafts with a
// newer version than this are rejected on load.
const CurrentDraftSchemaVersion = 1

// DefaultDraftKeyPrefix prefixes every draft storage key
const DefaultDraftKeyPrefix = "print-draft"

// DefaultRowHeightMM is the body row height of a fresh configuration
const DefaultRowHeightMM = 8.0

// DraftConfig is the print configuration a user is working on
type DraftConfig struct {
	Columns     []string        `json:"columns"`
	Margins     Margins         `json:"margins"`
	PageBreaks  []int           `json:"pageBreaks,omitempty"`
	PaperSize   PaperSize       `json:"paperSize"`
	Orientation Orientation     `json:"orientation"`
	RowHeightMM float64         `json:"rowHeightMm"`
	Totals      TotalsPlacement `json:"totals,omitempty"`
}

// DefaultDraftConfig returns the configuration of a fresh print session
func DefaultDraftConfig(columns []PrintColumnDefinition) DraftConfig {
	keys := make([]string, 0, len(columns))
	for _, c := range columns {
		keys = append(keys, c.Key)
	}
	return DraftConfig{
		Columns:     keys,
		Margins:     DefaultMargins(),
		PaperSize:   PaperSizeA4,
		Orientation: OrientationPortrait,
		RowHeightMM: DefaultRowHeightMM,
		Totals:      TotalsEveryPage,
	}
}

// Validate checks the configuration can be paginated
func (c DraftConfig) Validate() error {
	if !c.PaperSize.IsValid() {
		return fmt.Errorf("%w: paper size %q", ErrInvalidDraft, c.PaperSize)
	}
	if !c.Orientation.IsValid() {
		return fmt.Errorf("%w: orientation %q", ErrInvalidDraft, c.Orientation)
	}
	if c.Totals != "" && !c.Totals.IsValid() {
		return fmt.Errorf("%w: totals placement %q", ErrInvalidDraft, c.Totals)
	}
	if err := c.Margins.Validate(); err != nil {
		return err
	}
	if c.RowHeightMM <= 0 {
		return fmt.Errorf("%w: row height must be positive", ErrInvalidDraft)
	}
	for _, b := range c.PageBreaks {
		if b < 0 {
			return fmt.Errorf("%w: page break %d", ErrInvalidDraft, b)
		}
	}
	return nil
}

// SelectColumns keeps the configured columns in configured order. An empty
// selection keeps every column.
func (c DraftConfig) SelectColumns(all []PrintColumnDefinition) []PrintColumnDefinition {
	if len(c.Columns) == 0 {
		return all
	}
	byKey := make(map[string]PrintColumnDefinition, len(all))
	for _, col := range all {
		byKey[col.Key] = col
	}
	out := make([]PrintColumnDefinition, 0, len(c.Columns))
	for _, key := range c.Columns {
		if col, ok := byKey[key]; ok {
			out = append(out, col)
		}
	}
	return out
}

// PrintDraft is a persisted, resumable print configuration
type PrintDraft struct {
	SchemaVersion int         `json:"schemaVersion"`
	DatasetID     string      `json:"datasetId"`
	CreatedAt     time.Time   `json:"createdAt"`
	Config        DraftConfig `json:"config"`
}

// NewPrintDraft creates a draft for a dataset
func NewPrintDraft(datasetID string, config DraftConfig) (*PrintDraft, error) {
	d := &PrintDraft{
		SchemaVersion: CurrentDraftSchemaVersion,
		DatasetID:     datasetID,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
		Config:        config,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the draft envelope and its configuration
func (d *PrintDraft) Validate() error {
	if err := ValidateDatasetID(d.DatasetID); err != nil {
		return err
	}
	if d.SchemaVersion < 1 || d.SchemaVersion > CurrentDraftSchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidDraft, d.SchemaVersion)
	}
	return d.Config.Validate()
}

// DraftKey returns the storage key of a dataset's draft
func DraftKey(prefix, datasetID string) string {
	if prefix == "" {
		prefix = DefaultDraftKeyPrefix
	}
	return prefix + "-" + datasetID
}

// DraftChangeType is the kind of draft change
type DraftChangeType string

const (
	DraftSaved   DraftChangeType = "saved"
	DraftDeleted DraftChangeType = "deleted"
)

// DraftChange notifies observers of a dataset that its draft changed in
// another context.
type DraftChange struct {
	DatasetID string          `json:"datasetId"`
	Type      DraftChangeType `json:"type"`
	Source    string          `json:"source,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// DraftStore persists drafts keyed by dataset identifier. Writes are last
// writer wins; there is no locking.
type DraftStore interface {
	// Load returns the draft, or nil without error when none exists
	Load(ctx context.Context, datasetID string) (*PrintDraft, error)

	// Save writes the draft, replacing any previous one
	Save(ctx context.Context, datasetID string, draft *PrintDraft) error

	// Delete removes the draft. Deleting a missing draft is not an error.
	Delete(ctx context.Context, datasetID string) error

	// HasDraft reports whether a draft exists
	HasDraft(ctx context.Context, datasetID string) (bool, error)

	// Watch streams changes to the dataset's draft until ctx is done
	Watch(ctx context.Context, datasetID string) (<-chan DraftChange, error)
}

type draftSourceKey struct{}

// WithDraftSource tags ctx with the browsing context (tab, device) performing
// a draft write. Stores copy it into DraftChange.Source so observers can
// ignore their own writes.
func WithDraftSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, draftSourceKey{}, source)
}

// DraftSource returns the source stored by WithDraftSource
func DraftSource(ctx context.Context) string {
	s, _ := ctx.Value(draftSourceKey{}).(string)
	return s
}
