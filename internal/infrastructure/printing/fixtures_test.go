package printing

import (
	"testing"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testColumns() []printing.PrintColumnDefinition {
	return []printing.PrintColumnDefinition{
		{Key: "name", Label: "Name", Type: grid.ColumnTypeText, Align: grid.AlignLeft},
		{Key: "amount", Label: "Amount", Type: grid.ColumnTypeCurrency, Align: grid.AlignRight},
		{Key: "share", Label: "Share", Type: grid.ColumnTypePercentage, Align: grid.AlignRight},
	}
}

func testData() printing.PrintableData {
	ts := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	return printing.PrintableData{
		Items: []printing.PrintItem{
			{ID: "1", Fields: map[string]any{"name": "Alpha", "amount": 1234.5, "share": 41.2}},
			{ID: "2", Fields: map[string]any{"name": "Beta", "amount": 765.5, "share": 25.5}},
			{ID: "3", Fields: map[string]any{"name": "Gamma <b>", "amount": 1000, "share": 33.3}},
		},
		Totals: map[string]decimal.Decimal{
			"amount": decimal.NewFromInt(3000),
			"share":  decimal.NewFromInt(100),
		},
		Metadata: &printing.PrintMetadata{Title: "Budget 2026", Timestamp: &ts},
	}
}

// testRequest lays out testData at two rows per page: two pages, totals on both
func testRequest(t *testing.T, format printing.ExportFormat, markers ...printing.PrintRowMarker) printing.ExportRequest {
	t.Helper()

	engine, err := printing.NewPaginationEngine(2)
	require.NoError(t, err)

	data := testData()
	pages, err := engine.Paginate(data, testColumns(), markers)
	require.NoError(t, err)

	return printing.ExportRequest{
		DatasetID:   "budget-2026",
		Format:      format,
		Metadata:    data.Metadata,
		Columns:     testColumns(),
		Pages:       pages,
		PaperSize:   printing.PaperSizeA4,
		Orientation: printing.OrientationPortrait,
		Margins:     printing.DefaultMargins(),
		RowHeightMM: 8,
	}
}
