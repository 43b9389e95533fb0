package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrintDraft(t *testing.T) {
	cfg := DefaultDraftConfig(testColumns())

	d, err := NewPrintDraft("budget-2026", cfg)
	require.NoError(t, err)
	assert.Equal(t, CurrentDraftSchemaVersion, d.SchemaVersion)
	assert.Equal(t, "budget-2026", d.DatasetID)
	assert.Equal(t, []string{"label", "amount", "status"}, d.Config.Columns)
	assert.False(t, d.CreatedAt.IsZero())
}

func TestPrintDraft_Validate(t *testing.T) {
	valid := func() *PrintDraft {
		return &PrintDraft{SchemaVersion: 1, DatasetID: "funds-2026-north", Config: DefaultDraftConfig(nil)}
	}

	tests := []struct {
		name    string
		mutate  func(d *PrintDraft)
		wantErr error
	}{
		{"valid", func(d *PrintDraft) {}, nil},
		{"bad dataset id", func(d *PrintDraft) { d.DatasetID = "../etc" }, ErrInvalidDatasetID},
		{"empty dataset id", func(d *PrintDraft) { d.DatasetID = "" }, ErrInvalidDatasetID},
		{"future schema", func(d *PrintDraft) { d.SchemaVersion = CurrentDraftSchemaVersion + 1 }, ErrInvalidDraft},
		{"bad paper", func(d *PrintDraft) { d.Config.PaperSize = "B7" }, ErrInvalidDraft},
		{"bad orientation", func(d *PrintDraft) { d.Config.Orientation = "DIAGONAL" }, ErrInvalidDraft},
		{"bad totals", func(d *PrintDraft) { d.Config.Totals = "never" }, ErrInvalidDraft},
		{"zero row height", func(d *PrintDraft) { d.Config.RowHeightMM = 0 }, ErrInvalidDraft},
		{"negative page break", func(d *PrintDraft) { d.Config.PageBreaks = []int{-2} }, ErrInvalidDraft},
		{"bad margins", func(d *PrintDraft) { d.Config.Margins.Left = 200 }, ErrInvalidMargins},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := d.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDraftConfig_SelectColumns(t *testing.T) {
	cfg := DraftConfig{Columns: []string{"status", "missing", "label"}}
	cols := cfg.SelectColumns(testColumns())

	require.Len(t, cols, 2)
	assert.Equal(t, "status", cols[0].Key)
	assert.Equal(t, "label", cols[1].Key)

	assert.Len(t, DraftConfig{}.SelectColumns(testColumns()), 3)
}

func TestDraftKey(t *testing.T) {
	assert.Equal(t, "print-draft-budget-2026", DraftKey("", "budget-2026"))
	assert.Equal(t, "ws-budget-2026", DraftKey("ws", "budget-2026"))
}

func TestDataIdentifier(t *testing.T) {
	tests := []struct {
		kind     string
		year     int
		subScope string
		expected string
	}{
		{"budget", 2026, "", "budget-2026"},
		{"Funds", 2025, "North Region", "funds-2025-north-region"},
		{"access_request", 2026, "  ", "access_request-2026"},
		{"activity log", 2024, "dept/42", "activity-log-2024-dept-42"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			id := DataIdentifier(tt.kind, tt.year, tt.subScope)
			assert.Equal(t, tt.expected, id)
			assert.NoError(t, ValidateDatasetID(id))
		})
	}
}
