package printing

import (
	"bytes"
	"context"
	"fmt"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// pageSeparator starts a new sheet on line printers
const pageSeparator = "\f"

// TextEncoder renders each page as a plain text table. Pages are separated by
// a form feed.
type TextEncoder struct {
	formatter *CellFormatter
}

// NewTextEncoder creates a TextEncoder
func NewTextEncoder(formatter *CellFormatter) *TextEncoder {
	if formatter == nil {
		formatter = NewCellFormatter("en")
	}
	return &TextEncoder{formatter: formatter}
}

// Format implements DocumentEncoder
func (e *TextEncoder) Format() printing.ExportFormat {
	return printing.ExportFormatText
}

// Encode implements DocumentEncoder
func (e *TextEncoder) Encode(ctx context.Context, req printing.ExportRequest) (*EncodedDocument, error) {
	var buf bytes.Buffer
	pages := e.formatter.layoutPages(req.Pages)
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString(pageSeparator)
		}
		writeTitle(&buf, req.Metadata, req.DatasetID)
		if err := renderTextPage(&buf, p); err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", p.Number, err)
		}
	}
	return &EncodedDocument{Data: buf.Bytes(), PageCount: len(pages)}, nil
}

func writeTitle(buf *bytes.Buffer, md *printing.PrintMetadata, fallback string) {
	title := fallback
	if md != nil && md.Title != "" {
		title = md.Title
	}
	buf.WriteString(title)
	buf.WriteByte('\n')
	if md != nil && md.Subtitle != "" {
		buf.WriteString(md.Subtitle)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
}

func renderTextPage(buf *bytes.Buffer, p tablePage) error {
	aligns := make([]tw.Align, len(p.Columns))
	for i, c := range p.Columns {
		aligns[i] = textAlign(align(c))
	}

	cb := tablewriter.NewConfigBuilder().
		WithHeaderAutoFormat(tw.Off).
		WithFooterAutoFormat(tw.Off)
	cb.Row().Alignment().WithPerColumn(aligns)
	cb.Footer().Alignment().WithPerColumn(aligns)

	t := tablewriter.NewTable(buf, tablewriter.WithConfig(cb.Build()))

	header := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		header[i] = c.Label
	}
	t.Header(header)

	for _, r := range p.Rows {
		if err := t.Append(textRow(len(p.Columns), r)); err != nil {
			return err
		}
	}
	if p.Totals != nil {
		t.Footer(textRow(len(p.Columns), *p.Totals))
	}
	t.Caption(tw.Caption{Text: pageLabel(p.Number, p.Total)})
	return t.Render()
}

func textRow(width int, r tableRow) []string {
	out := make([]string, width)
	if r.Span {
		if width > 0 {
			out[0] = r.Label
		}
		return out
	}
	for i, c := range r.Cells {
		out[i] = c.Text
	}
	return out
}

func textAlign(a grid.Alignment) tw.Align {
	switch a {
	case grid.AlignRight:
		return tw.AlignRight
	case grid.AlignCenter:
		return tw.AlignCenter
	default:
		return tw.AlignLeft
	}
}

var _ DocumentEncoder = (*TextEncoder)(nil)
