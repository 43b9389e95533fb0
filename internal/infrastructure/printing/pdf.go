package printing

import (
	"context"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
)

// PDFDefaults apply when an export does not set its own options
type PDFDefaults struct {
	PrintBackground bool
	WaitForTimeout  time.Duration
	Timeout         time.Duration
}

// PDFEncoder renders pages to HTML and prints them through a PDFRenderer
type PDFEncoder struct {
	html     *HTMLRenderer
	renderer PDFRenderer
	defaults PDFDefaults
}

// NewPDFEncoder creates a PDFEncoder
func NewPDFEncoder(html *HTMLRenderer, renderer PDFRenderer, defaults PDFDefaults) *PDFEncoder {
	return &PDFEncoder{html: html, renderer: renderer, defaults: defaults}
}

// Format implements DocumentEncoder
func (e *PDFEncoder) Format() printing.ExportFormat {
	return printing.ExportFormatPDF
}

// Encode implements DocumentEncoder. The page count is the number of laid
// out pages since every page is its own printed sheet.
func (e *PDFEncoder) Encode(ctx context.Context, req printing.ExportRequest) (*EncodedDocument, error) {
	if !req.PaperSize.IsPaged() {
		return nil, NewRenderError(ErrCodeInvalidPaperSize, "roll paper cannot be exported as pages: "+string(req.PaperSize), nil)
	}

	doc, err := e.html.Render(req)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to build document", err)
	}

	result, err := e.renderer.Render(ctx, e.renderRequest(req, doc))
	if err != nil {
		return nil, err
	}
	return &EncodedDocument{Data: result.PDFData, PageCount: len(req.Pages)}, nil
}

func (e *PDFEncoder) renderRequest(req printing.ExportRequest, doc string) *RenderRequest {
	rr := &RenderRequest{
		HTML:            doc,
		PaperSize:       req.PaperSize,
		Orientation:     req.Orientation,
		Margins:         effectiveMargins(req),
		Title:           req.DatasetID,
		Scale:           req.Options.Scale,
		PrintBackground: req.Options.PrintBackground || e.defaults.PrintBackground,
		WaitForSelector: req.Options.WaitForSelector,
		WaitForTimeout:  req.Options.WaitForTimeout,
		Timeout:         e.defaults.Timeout,
	}
	if req.Metadata != nil && req.Metadata.Title != "" {
		rr.Title = req.Metadata.Title
	}
	if rr.WaitForTimeout == 0 {
		rr.WaitForTimeout = e.defaults.WaitForTimeout
	}
	return rr
}

// Close closes the underlying renderer
func (e *PDFEncoder) Close() error {
	return e.renderer.Close()
}

var _ DocumentEncoder = (*PDFEncoder)(nil)
