package printing

import (
	"context"
	"errors"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render
	HTML string
	// PaperSize defines the output paper dimensions
	PaperSize printing.PaperSize
	// Orientation defines portrait or landscape
	Orientation printing.Orientation
	// Margins in millimeters
	Margins printing.Margins
	// Title for the PDF document metadata
	Title string
	// Scale overrides the renderer's default scale when positive
	Scale float64
	// PrintBackground prints background graphics
	PrintBackground bool
	// WaitForSelector delays printing until the selector is visible
	WaitForSelector string
	// WaitForTimeout bounds the wait for WaitForSelector
	WaitForTimeout time.Duration
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// Validate checks the request can be rendered
func (r *RenderRequest) Validate() error {
	if r == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if len(r.HTML) == 0 || isBlank(r.HTML) {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !r.PaperSize.IsValid() {
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(r.PaperSize), nil)
	}
	return nil
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	// PDFData is the raw PDF file content
	PDFData []byte
	// PageCount is the number of pages in the PDF
	PageCount int
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// PDFRenderer defines the interface for rendering HTML to PDF
type PDFRenderer interface {
	// Render converts HTML content to a PDF document
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the same request may succeed when repeated.
// Bad input fails the same way every time.
func (e *RenderError) Retryable() bool {
	switch e.Code {
	case ErrCodeInvalidHTML, ErrCodeInvalidPaperSize, ErrCodeRendererUnavailable:
		return false
	}
	return true
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout       = "RENDER_TIMEOUT"
	ErrCodeRenderFailed        = "RENDER_FAILED"
	ErrCodeInvalidHTML         = "INVALID_HTML"
	ErrCodeInvalidPaperSize    = "INVALID_PAPER_SIZE"
	ErrCodeRendererUnavailable = "RENDERER_UNAVAILABLE"
	ErrCodeStorageFailed       = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRetryable reports whether err is a failure worth retrying. Errors that
// are not render errors count as retryable since they come from I/O.
func IsRetryable(err error) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}

// UnavailableRenderer is used when PDF rendering is disabled by configuration
type UnavailableRenderer struct{}

// Render always fails with ErrCodeRendererUnavailable
func (UnavailableRenderer) Render(context.Context, *RenderRequest) (*RenderResult, error) {
	return nil, NewRenderError(ErrCodeRendererUnavailable, "PDF rendering is disabled", nil)
}

// Close implements PDFRenderer
func (UnavailableRenderer) Close() error { return nil }

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

var _ PDFRenderer = UnavailableRenderer{}
