package printing

import (
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// rowKindTotals marks the grand totals row of a laid out page
const rowKindTotals printing.RowKind = "totals"

// tableCell is one formatted cell. Numeric cells keep their value for
// formats that store numbers natively.
type tableCell struct {
	Text    string
	Value   decimal.Decimal
	Numeric bool
}

// tableRow is a page row ready for an encoder. Spanning rows (markers and
// the empty state) carry only Label.
type tableRow struct {
	Kind   printing.RowKind
	Label  string
	Span   bool
	Marker printing.MarkerType
	Cells  []tableCell
}

// tablePage is a laid out page shared by every output format
type tablePage struct {
	Number  int
	Total   int
	Columns []printing.PrintColumnDefinition
	Rows    []tableRow
	Totals  *tableRow
}

// layoutPages formats every page of req
func (f *CellFormatter) layoutPages(pages []printing.Page) []tablePage {
	out := make([]tablePage, 0, len(pages))
	for _, p := range pages {
		tp := tablePage{
			Number:  p.Number,
			Total:   len(pages),
			Columns: p.Header,
			Rows:    make([]tableRow, 0, len(p.Rows)),
		}
		for _, r := range p.Rows {
			tp.Rows = append(tp.Rows, f.layoutRow(p.Header, r))
		}
		if p.HasTotals() {
			totals := f.summaryRow(rowKindTotals, p.Header, "Total", p.Totals)
			tp.Totals = &totals
		}
		out = append(out, tp)
	}
	return out
}

func (f *CellFormatter) layoutRow(cols []printing.PrintColumnDefinition, r printing.Row) tableRow {
	switch r.Kind {
	case printing.RowKindData:
		row := tableRow{Kind: r.Kind, Cells: make([]tableCell, len(cols))}
		if r.Item == nil {
			return row
		}
		for i, c := range cols {
			v, _ := r.Item.Value(c.Key)
			cell := tableCell{Text: f.Format(c, v)}
			if c.IsNumeric() {
				cell.Value, cell.Numeric = toDecimal(v)
			}
			row.Cells[i] = cell
		}
		return row
	case printing.RowKindSubtotal:
		return f.summaryRow(r.Kind, cols, r.Label, r.Subtotals)
	case printing.RowKindMarker:
		row := tableRow{Kind: r.Kind, Label: r.Label, Span: true}
		if r.Marker != nil {
			row.Marker = r.Marker.Type
			if row.Label == "" {
				row.Label = r.Marker.Label
			}
		}
		return row
	default:
		return tableRow{Kind: r.Kind, Label: r.Label, Span: true}
	}
}

// summaryRow places label in the first non-numeric column and the values
// under their numeric columns
func (f *CellFormatter) summaryRow(kind printing.RowKind, cols []printing.PrintColumnDefinition, label string, values map[string]decimal.Decimal) tableRow {
	row := tableRow{Kind: kind, Label: label, Cells: make([]tableCell, len(cols))}
	placed := false
	for i, c := range cols {
		if c.IsNumeric() {
			if v, ok := values[c.Key]; ok {
				row.Cells[i] = tableCell{Text: f.Number(c.Type, v), Value: v, Numeric: true}
			}
			continue
		}
		if !placed {
			row.Cells[i].Text = label
			placed = true
		}
	}
	return row
}
