package printing

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var hundred = decimal.NewFromInt(100)

const (
	defaultSheetName = "Export"
	maxSheetName     = 31
	minColumnWidth   = 8
	maxColumnWidth   = 60

	numFmtThousands2 = 4  // #,##0.00
	numFmtPercent2   = 10 // 0.00%
)

// excelize paper size codes
var xlsxPaperSizes = map[printing.PaperSize]int{
	printing.PaperSizeLetter: 1,
	printing.PaperSizeLegal:  5,
	printing.PaperSizeA3:     8,
	printing.PaperSizeA4:     9,
	printing.PaperSizeA5:     11,
}

// XLSXEncoder writes pages to a single worksheet with a manual page break
// after each page, so the spreadsheet prints with the same page boundaries.
type XLSXEncoder struct {
	formatter *CellFormatter
}

// NewXLSXEncoder creates an XLSXEncoder
func NewXLSXEncoder(formatter *CellFormatter) *XLSXEncoder {
	if formatter == nil {
		formatter = NewCellFormatter("en")
	}
	return &XLSXEncoder{formatter: formatter}
}

// Format implements DocumentEncoder
func (e *XLSXEncoder) Format() printing.ExportFormat {
	return printing.ExportFormatXLSX
}

type xlsxStyles struct {
	title, header, number, percent, marker, summary, summaryNumber, summaryPercent int
}

// Encode implements DocumentEncoder
func (e *XLSXEncoder) Encode(ctx context.Context, req printing.ExportRequest) (*EncodedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(req)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	styles, err := newXLSXStyles(f)
	if err != nil {
		return nil, err
	}
	if err := setXLSXPageLayout(f, sheet, req); err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, sheet: sheet, styles: styles, row: 1}
	if md := req.Metadata; md != nil && md.Title != "" {
		w.text(1, md.Title, styles.title)
		w.row++
		if md.Subtitle != "" {
			w.text(1, md.Subtitle, 0)
			w.row++
		}
	}

	pages := e.formatter.layoutPages(req.Pages)
	var widths []int
	for i, p := range pages {
		if i > 0 {
			if err := f.InsertPageBreak(sheet, cell(1, w.row)); err != nil {
				return nil, fmt.Errorf("failed to insert page break: %w", err)
			}
		}
		for c, col := range p.Columns {
			w.text(c+1, col.Label, styles.header)
			widths = grow(widths, c, col.Label)
		}
		w.row++
		for _, r := range p.Rows {
			w.tableRow(p.Columns, r)
			for c, tc := range r.Cells {
				widths = grow(widths, c, tc.Text)
			}
		}
		if p.Totals != nil {
			w.tableRow(p.Columns, *p.Totals)
		}
		if w.err != nil {
			return nil, fmt.Errorf("failed to write page %d: %w", p.Number, w.err)
		}
	}

	for c, width := range widths {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &EncodedDocument{Data: buf.Bytes(), PageCount: len(pages)}, nil
}

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	styles xlsxStyles
	row    int
	err    error
}

func (w *sheetWriter) set(col int, v any, style int) {
	if w.err != nil {
		return
	}
	ref := cell(col, w.row)
	if w.err = w.f.SetCellValue(w.sheet, ref, v); w.err != nil {
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, ref, ref, style)
	}
}

func (w *sheetWriter) text(col int, s string, style int) {
	w.set(col, s, style)
}

func (w *sheetWriter) tableRow(cols []printing.PrintColumnDefinition, r tableRow) {
	defer func() { w.row++ }()

	if r.Span {
		w.text(1, r.Label, w.styles.marker)
		if len(cols) > 1 && w.err == nil {
			w.err = w.f.MergeCell(w.sheet, cell(1, w.row), cell(len(cols), w.row))
		}
		return
	}

	summary := r.Kind == printing.RowKindSubtotal || r.Kind == rowKindTotals
	for i, c := range r.Cells {
		col := cols[i]
		if !c.Numeric {
			style := 0
			if summary {
				style = w.styles.summary
			}
			if c.Text != "" || summary {
				w.text(i+1, c.Text, style)
			}
			continue
		}
		value := c.Value
		style := w.styles.number
		if summary {
			style = w.styles.summaryNumber
		}
		if col.Type == grid.ColumnTypePercentage {
			value = value.Div(hundred)
			style = w.styles.percent
			if summary {
				style = w.styles.summaryPercent
			}
		}
		f, _ := value.Float64()
		w.set(i+1, f, style)
	}
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"EDEDED"}},
			Border: []excelize.Border{{Type: "bottom", Color: "333333", Style: 1}},
		}},
		{&s.number, &excelize.Style{NumFmt: numFmtThousands2}},
		{&s.percent, &excelize.Style{NumFmt: numFmtPercent2}},
		{&s.marker, &excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F3F3F3"}},
		}},
		{&s.summary, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.summaryNumber, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: numFmtThousands2}},
		{&s.summaryPercent, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: numFmtPercent2}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("failed to create cell style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

func setXLSXPageLayout(f *excelize.File, sheet string, req printing.ExportRequest) error {
	orientation := "portrait"
	if req.Orientation == printing.OrientationLandscape {
		orientation = "landscape"
	}
	opts := &excelize.PageLayoutOptions{Orientation: &orientation}
	if size, ok := xlsxPaperSizes[req.PaperSize]; ok {
		opts.Size = &size
	}
	if err := f.SetPageLayout(sheet, opts); err != nil {
		return fmt.Errorf("failed to set page layout: %w", err)
	}

	m := effectiveMargins(req)
	top, right, bottom, left := mmToInches(float64(m.Top)), mmToInches(float64(m.Right)),
		mmToInches(float64(m.Bottom)), mmToInches(float64(m.Left))
	if err := f.SetPageMargins(sheet, &excelize.PageLayoutMarginsOptions{
		Top: &top, Right: &right, Bottom: &bottom, Left: &left,
	}); err != nil {
		return fmt.Errorf("failed to set page margins: %w", err)
	}
	return nil
}

// sheetName derives a worksheet name Excel accepts
func sheetName(req printing.ExportRequest) string {
	name := req.DatasetID
	if req.Metadata != nil && req.Metadata.Title != "" {
		name = req.Metadata.Title
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	if name == "" {
		return defaultSheetName
	}
	return name
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func grow(widths []int, col int, text string) []int {
	for len(widths) <= col {
		widths = append(widths, minColumnWidth)
	}
	w := utf8.RuneCountInString(text) + 2
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	if w > widths[col] {
		widths[col] = w
	}
	return widths
}

var _ DocumentEncoder = (*XLSXEncoder)(nil)
