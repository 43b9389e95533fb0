package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
)

//go:embed templates/*.html
var templateFS embed.FS

const documentTemplate = "document.html"

// HTMLRenderer lays out a page sequence as a print-ready HTML document.
// Each page is one section with its own header, so the browser never breaks
// a page on its own.
type HTMLRenderer struct {
	tmpl      *template.Template
	formatter *CellFormatter
}

// NewHTMLRenderer parses the embedded document template
func NewHTMLRenderer(formatter *CellFormatter) (*HTMLRenderer, error) {
	if formatter == nil {
		formatter = NewCellFormatter("en")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse print templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl, formatter: formatter}, nil
}

type documentView struct {
	Lang       string
	Title      string
	Subtitle   string
	Generated  string
	PageSize   template.CSS
	Margin     template.CSS
	TitleBlock template.CSS
	RowHeight  template.CSS
	Pages      []pageView
}

type pageView struct {
	Number      int
	Total       int
	ColumnCount int
	Columns     []columnView
	Rows        []rowView
	Totals      *rowView
}

type columnView struct {
	Label string
	Align grid.Alignment
}

type rowView struct {
	Class string
	Span  bool
	Label string
	Cells []cellView
}

type cellView struct {
	Text  string
	Align grid.Alignment
}

// Render produces the HTML document for req
func (r *HTMLRenderer) Render(req printing.ExportRequest) (string, error) {
	view := r.buildView(req)
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, documentTemplate, view); err != nil {
		return "", fmt.Errorf("failed to execute print template: %w", err)
	}
	return buf.String(), nil
}

func (r *HTMLRenderer) buildView(req printing.ExportRequest) documentView {
	width, height := printing.PageDimensions(req.PaperSize, req.Orientation)
	margins := effectiveMargins(req)

	view := documentView{
		Lang:       r.formatter.Locale(),
		Title:      req.DatasetID,
		PageSize:   template.CSS(fmt.Sprintf("%dmm %dmm", width, height)),
		Margin:     template.CSS(margins.CSS()),
		TitleBlock: template.CSS(mm(printing.PageTitleBlockMM)),
		RowHeight:  template.CSS(mm(req.RowHeightMM)),
	}
	if md := req.Metadata; md != nil {
		if md.Title != "" {
			view.Title = md.Title
		}
		view.Subtitle = md.Subtitle
		if md.Timestamp != nil {
			view.Generated = md.Timestamp.Format("2006-01-02 15:04")
		}
	}

	for _, p := range r.formatter.layoutPages(req.Pages) {
		pv := pageView{
			Number:      p.Number,
			Total:       p.Total,
			ColumnCount: len(p.Columns),
			Columns:     make([]columnView, len(p.Columns)),
			Rows:        make([]rowView, 0, len(p.Rows)),
		}
		for i, c := range p.Columns {
			pv.Columns[i] = columnView{Label: c.Label, Align: align(c)}
		}
		for _, row := range p.Rows {
			pv.Rows = append(pv.Rows, toRowView(p.Columns, row))
		}
		if p.Totals != nil {
			tv := toRowView(p.Columns, *p.Totals)
			pv.Totals = &tv
		}
		view.Pages = append(view.Pages, pv)
	}
	return view
}

func toRowView(cols []printing.PrintColumnDefinition, row tableRow) rowView {
	class := string(row.Kind)
	if row.Marker != "" {
		class += " marker-" + string(row.Marker)
	}
	rv := rowView{Class: class, Span: row.Span, Label: row.Label}
	if row.Span {
		return rv
	}
	rv.Cells = make([]cellView, len(row.Cells))
	for i, c := range row.Cells {
		rv.Cells[i] = cellView{Text: c.Text, Align: align(cols[i])}
	}
	return rv
}

func align(c printing.PrintColumnDefinition) grid.Alignment {
	if c.Align.IsValid() {
		return c.Align
	}
	if c.IsNumeric() {
		return grid.AlignRight
	}
	return grid.AlignLeft
}

// effectiveMargins prefers the per-export override
func effectiveMargins(req printing.ExportRequest) printing.Margins {
	if req.Options.Margin != nil {
		return *req.Options.Margin
	}
	return req.Margins
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}
